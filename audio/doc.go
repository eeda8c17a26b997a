// SPDX-License-Identifier: EPL-2.0

// Package audio provides the sample-level building blocks behind the
// built-in decoder engine.
//
// Everything is a Source: a pull stream of interleaved float32 samples in
// [-1,1]. Format decoders produce Sources and processing stages wrap them:
//
//	src, _ := wav.Decoder{}.Decode(file)
//	out, _ := audio.Convert(src, 16000, 1, audio.QualityHigh)
//
// # Stages
//
//   - MonoMixer averages all channels into one.
//   - StereoMixer duplicates mono or folds surround channels into two.
//   - Resampler converts the rate with cubic interpolation. It is cheap and
//     good enough for speech.
//   - HQResampler converts the rate with a band-limited polyphase filter.
//
// Convert picks and orders the stages for a requested rate and channel
// count.
//
// # PCM bytes
//
// PCMCodec packs samples into any signed, unsigned or float PCM layout the
// format catalog accepts, in either byte order, and unpacks them again:
//
//	codec, _ := audio.NewPCMCodec(layout)
//	n := codec.Encode(buf, samples)
//
// # Registry
//
// A Registry maps a container key ("wav", "mp3", ...) to its Decoder. It is
// safe for concurrent use.
//
// Sources that know more about their stream than rate and channel count
// (codec, stored bit depth, length) implement Describer; InfoOf reads it.
package audio
