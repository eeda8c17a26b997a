// SPDX-License-Identifier: EPL-2.0

// Package flac provides FLAC audio decoding.
//
// This package uses github.com/mewkiz/flac to parse FLAC streams frame by
// frame. Samples are normalized to float32 in [-1.0, 1.0] according to the
// stream's bits per sample.
//
//	source, err := flac.Decoder{}.Decode(file)
//	if err != nil {
//	    // Handle error
//	}
//
// The source implements audio.Describer with the total frame count from
// STREAMINFO, and audio.FrameSeeker when the input is an io.ReadSeeker.
package flac
