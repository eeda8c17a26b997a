// SPDX-License-Identifier: EPL-2.0

// Package builtin is an in-process engine.Engine built on the audio and
// formats packages.
//
// Containers are recognized from their leading bytes (RIFF/WAVE, FORM/AIFF,
// fLaC, OggS, ID3 or an MPEG frame sync) and, failing that, from the
// resource extension. Every container holds a single audio stream.
//
// A session decodes into the default output layout (signed PCM at the source
// rate and bit depth, native byte order) until Reconfigure installs another
// one. Local files and file:// URLs are seekable; http and https resources
// are read once, front to back.
//
//	e := builtin.New(builtin.Options{Logger: logger})
//	h, err := e.Open("song.flac", 0)
//	if err != nil {
//	    // Handle error
//	}
//	defer e.Close(h)
//
//	buf := make([]byte, 32*1024)
//	n, err := e.Fill(h, buf)
package builtin
