// SPDX-License-Identifier: EPL-2.0

// Package pcmstream decodes compressed or PCM audio into readable byte
// streams of linear PCM and converts those streams between PCM layouts.
//
// # Pipeline
//
// A Pipeline owns a decode engine, the lock that serializes calls into it
// and a bounded cache of probe results:
//
//	p := pcmstream.New(pcmstream.Options{Logger: slog.Default()})
//
//	fds, err := p.Probe("call.mp3")      // describe the streams
//	src, err := p.Open("call.mp3", 0)    // open the first one
//	defer src.Close()
//
//	out, err := p.Convert(format.Descriptor{
//	    Encoding:      format.PCMSigned,
//	    SampleRate:    8000,
//	    BitsPerSample: 16,
//	    Channels:      1,
//	    FrameSize:     2,
//	    FrameRate:     8000,
//	}, src)
//	io.Copy(w, out)
//
// Resources are file paths, file:// URLs or http(s) URLs. Sources that can
// only be read once go through ProbeReader and OpenReader.
//
// # Conversion
//
// Convert does not add a processing stage. It asks the engine to emit the
// target layout from the session the source stream already reads from, so
// the source and the converted stream share one position. Only streams that
// carry this library's provenance mark can be converted.
//
// # Errors
//
// Every failure is an *engine.Error. Test its category with errors.Is
// against engine.ErrUnsupportedFormat, engine.ErrResourceNotFound,
// engine.ErrIndexOutOfRange, engine.ErrUnsupportedOperation,
// engine.ErrIOFailure or engine.ErrNativeDecode.
//
// # Packages
//
//   - format: encodings, stream descriptors and the supported-conversion table
//   - engine: the decode engine contract, its lock and error model
//   - engine/builtin: the in-process engine over the formats/* decoders
//   - stream: PCM streams and conversion streams
//   - cache: the bounded probe cache
//   - audio: sample sources, mixing, resampling and PCM packing
package pcmstream
