// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis through github.com/jfreymuth/oggvorbis.
//
//	src, err := vorbis.Decoder{}.Decode(f)
//
// Samples come out interleaved in the file's own channel order. Info
// carries the nominal bitrate from the identification header and marks the
// stream VBR when the header names a minimum or maximum rate.
//
// Frame count and SeekFrame need an io.ReadSeeker input. A forward-only
// reader decodes fine but reports no length and returns ErrNotSeekable on
// seek.
package vorbis
