// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/format"
)

// go-mp3 always produces 16-bit little-endian stereo.
const (
	channels  = 2
	frameSize = 4
)

// mp3Reader is the part of gomp3.Decoder the source uses.
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec        mp3Reader
	closer     io.Closer
	sampleRate int
	frames     int64
	buf        []byte
	partial    int // bytes of an incomplete frame at the start of buf
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }

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
		Codec:  format.CodecMP3,
		Frames: s.frames,
	}
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	frames := len(dst) / channels
	if frames == 0 {
		return 0, nil
	}

	need := frames * frameSize
	if cap(s.buf) < need {
		buf := make([]byte, need)
		copy(buf, s.buf[:s.partial])
		s.buf = buf
	}
	s.buf = s.buf[:need]

	n, err := s.dec.Read(s.buf[s.partial:])
	n += s.partial

	whole := n - n%frameSize
	samples := whole / 2

	for i := range samples {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(s.buf[2*i:]))) / 32768.0
	}

	s.partial = copy(s.buf, s.buf[whole:n])

	if err != nil && err != io.EOF {
		return samples, fmt.Errorf("%w", err)
	}

	if err == io.EOF {
		return samples, io.EOF
	}

	return samples, nil
}

// SeekFrame repositions the decoder when the input is seekable.
func (s *source) SeekFrame(frame int64) error {
	seeker, ok := s.dec.(io.Seeker)
	if !ok {
		return ErrNotSeekable
	}

	if _, err := seeker.Seek(max(frame, 0)*frameSize, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %w", ErrNotSeekable, err)
	}

	s.partial = 0

	return nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	var frames int64
	// Length is -1 when r cannot seek.
	if l := dec.Length(); l > 0 {
		frames = l / frameSize
	}

	closer, _ := r.(io.Closer)

	return &source{
		dec:        dec,
		closer:     closer,
		sampleRate: dec.SampleRate(),
		frames:     frames,
		buf:        make([]byte, 8192),
	}, nil
}
