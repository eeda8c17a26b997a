// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/format"
	"github.com/jfreymuth/oggvorbis"
)

// oggReader is the part of oggvorbis.Reader the source uses.
type oggReader interface {
	SampleRate() int
	Channels() int
	// Read fills buf with interleaved values and returns how many it wrote.
	Read(buf []float32) (int, error)
}

type positioner interface {
	SetPosition(pos int64) error
}

type source struct {
	dec        oggReader
	closer     io.Closer
	sampleRate int
	channels   int
	frames     int64
	bitrate    int
	vbr        *bool
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
	return audio.Info{
		Codec:   format.CodecVorbis,
		Frames:  s.frames,
		Bitrate: s.bitrate,
		VBR:     s.vbr,
	}
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	n := len(dst) - len(dst)%s.channels
	if n == 0 {
		return 0, nil
	}

	got, err := s.read(dst[:n])
	if err != nil && err != io.EOF {
		return got, fmt.Errorf("%w", err)
	}

	if err == io.EOF {
		return got, io.EOF
	}

	return got, nil
}

func (s *source) read(dst []float32) (n int, err error) {
	defer recoverInvalid(&err)

	return s.dec.Read(dst)
}

// SeekFrame moves to frame when the stream was opened from an io.ReadSeeker.
func (s *source) SeekFrame(frame int64) error {
	p, ok := s.dec.(positioner)
	if !ok {
		return ErrNotSeekable
	}

	if s.frames > 0 {
		frame = min(frame, s.frames)
	}

	if err := setPosition(p, max(frame, 0)); err != nil {
		return fmt.Errorf("%w: %w", ErrNotSeekable, err)
	}

	return nil
}

func setPosition(p positioner, frame int64) (err error) {
	defer recoverInvalid(&err)

	return p.SetPosition(frame)
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := newReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	src := &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
	}
	src.closer, _ = r.(io.Closer)

	// Length is only known for seekable input.
	if _, ok := r.(io.Seeker); ok {
		src.frames = length(dec)
	} else {
		src.dec = readOnly{dec}
	}

	br := dec.Bitrate()
	src.bitrate = br.Nominal
	if br.Minimum > 0 || br.Maximum > 0 {
		vbr := br.Minimum != br.Maximum
		src.vbr = &vbr
	}

	return src, nil
}

func newReader(r io.Reader) (dec *oggvorbis.Reader, err error) {
	defer recoverInvalid(&err)

	return oggvorbis.NewReader(r)
}

// length is 0 when the last page cannot be parsed.
func length(dec *oggvorbis.Reader) (n int64) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()

	return dec.Length()
}

// readOnly hides SetPosition for input that cannot seek.
type readOnly struct{ oggReader }
