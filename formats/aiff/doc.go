// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes uncompressed AIFF through github.com/go-audio/aiff.
//
// Samples are big-endian signed PCM of 8, 16, 24 or 32 bits with any
// channel count. go-audio wants random access, so a plain io.Reader is
// buffered in memory before decoding. Info carries the COMM chunk's frame
// count and BigEndian set.
//
// Decode fails with ErrNotAiffFile for foreign input, ErrUnsupportedBitDepth
// for other sample sizes and ErrUnsupportedAiffLayout when the COMM chunk
// has no channels or rate.
package aiff
