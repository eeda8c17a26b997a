// SPDX-License-Identifier: EPL-2.0

// Package wav provides WAV audio file decoding and encoding.
//
// # Supported Formats
//
//   - Integer PCM, 8 (unsigned), 16, 24 and 32 bit
//   - IEEE float, 32 and 64 bit
//   - WAVE_FORMAT_EXTENSIBLE headers carrying either of the above
//   - Any channel count and sample rate
//
// Chunks before the data chunk (LIST, fact, ...) are skipped. A data chunk
// whose size is 0xFFFFFFFF is read until the input ends, which is what
// streaming writers produce.
//
// # Decoding WAV Files
//
//	file, _ := os.Open("audio.wav")
//	source, err := wav.Decoder{}.Decode(file)
//	if err != nil {
//	    // Handle error
//	}
//
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// Seekable integer PCM input is read through github.com/go-audio/wav. The
// returned source implements audio.Describer and, when the input can seek,
// audio.FrameSeeker.
//
// # Writing WAV Files
//
// WriteWAV16 writes a complete 16-bit file in one call. WriteHeader writes
// only the header, with UnknownLength for output whose size is not known.
// Encoder wraps go-audio's encoder for seekable destinations.
//
// # Error Handling
//
//   - ErrNotWavFile: no RIFF/WAVE signature
//   - ErrUnsupportedWavLayout: malformed fmt chunk
//   - ErrUnsupportedSampleType: compressed or odd-sized samples
//   - ErrMissingDataChunk: the file ends before its data chunk
package wav
