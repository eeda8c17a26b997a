// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III through github.com/hajimehoshi/go-mp3.
//
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
// go-mp3 always produces 16-bit interleaved stereo, so Channels is 2 even
// for mono files and samples arrive as int16/32768. Mono output is a job
// for audio.Convert.
//
// Info reports CodecMP3 and, for an io.ReadSeeker input, the frame count
// go-mp3 finds by scanning the file. Only seekable input supports
// SeekFrame; everything else returns ErrNotSeekable.
package mp3
