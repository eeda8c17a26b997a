// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/format"
	"github.com/ik5/pcmstream/utils"
)

// aiffReader is the part of aiff.Decoder the source uses.
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// source wraps go-audio's aiff.Decoder.
type source struct {
	dec        aiffReader
	closer     io.Closer
	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
	intBuf     *goaudio.IntBuffer
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }

func (s *source) Close() error {
	if s.closer == nil {
		return nil
	}

	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (s *source) Info() audio.Info {
	codec := format.CodecNone
	if enc, ok := format.PCMSubtype(format.KindPCMSigned, s.bitDepth, true); ok {
		codec = enc.Codec()
	}

	vbr := false

	return audio.Info{
		Codec:     codec,
		BitDepth:  s.bitDepth,
		BigEndian: true,
		Frames:    s.frames,
		Bitrate:   s.sampleRate * s.channels * s.bitDepth,
		VBR:       &vbr,
	}
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < want {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, want),
			Format: s.dec.Format(),
		}
	}
	s.intBuf.Data = s.intBuf.Data[:want]

	n, err := s.dec.PCMBuffer(s.intBuf)
	n -= n % s.channels

	for i, v := range s.intBuf.Data[:n] {
		dst[i] = utils.IntToFloat(int64(v), s.bitDepth)
	}

	if err != nil && err != io.EOF {
		return n, fmt.Errorf("reading AIFF data: %w", err)
	}

	// A short read without an error is the end of the sound chunk.
	if err == io.EOF || n < want {
		return n, io.EOF
	}

	return n, nil
}

// Decoder decodes uncompressed AIFF with 8, 16, 24 or 32 bit samples.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}

	dec.ReadInfo()

	bits := int(dec.BitDepth)
	switch bits {
	case 8, 16, 24, 32:
	default:
		return nil, ErrUnsupportedBitDepth
	}

	f := dec.Format()
	if f == nil || f.NumChannels < 1 || f.SampleRate < 1 {
		return nil, ErrUnsupportedAiffLayout
	}

	closer, _ := r.(io.Closer)

	return &source{
		dec:        dec,
		closer:     closer,
		sampleRate: f.SampleRate,
		channels:   f.NumChannels,
		bitDepth:   bits,
		frames:     int64(dec.NumSampleFrames),
	}, nil
}
