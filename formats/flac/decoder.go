// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/format"
	"github.com/ik5/pcmstream/utils"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

var (
	ErrNotSeekable         = errors.New("FLAC source is not seekable")
	ErrUnsupportedBitDepth = errors.New("unsupported FLAC bit depth")
)

// frameParser is the part of flac.Stream the source reads from.
type frameParser interface {
	ParseNext() (*frame.Frame, error)
}

type frameSeeker interface {
	Seek(sample uint64) (uint64, error)
}

type source struct {
	stream     frameParser
	closer     io.Closer
	sampleRate int
	channels   int
	bits       int
	frames     int64

	cur *frame.Frame
	pos int // next sample within cur
	end bool
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
		Codec:    format.CodecFLAC,
		BitDepth: s.bits,
		Frames:   s.frames,
	}
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if s.end {
		return 0, io.EOF
	}

	frames := len(dst) / s.channels
	n := 0

	for i := 0; i < frames; {
		if s.cur == nil || s.pos >= int(s.cur.BlockSize) {
			f, err := s.stream.ParseNext()
			if err == io.EOF {
				return n, io.EOF
			}

			if err != nil {
				return n, fmt.Errorf("parsing FLAC frame: %w", err)
			}

			s.cur, s.pos = f, 0
			continue
		}

		for ; i < frames && s.pos < int(s.cur.BlockSize); i++ {
			for ch := range s.channels {
				dst[n] = utils.IntToFloat(int64(s.cur.Subframes[ch].Samples[s.pos]), s.bits)
				n++
			}
			s.pos++
		}
	}

	return n, nil
}

// SeekFrame positions the source so the next frame read is idx.
func (s *source) SeekFrame(idx int64) error {
	seeker, ok := s.stream.(frameSeeker)
	if !ok {
		return ErrNotSeekable
	}

	target := uint64(max(idx, 0))
	if s.frames > 0 {
		target = min(target, uint64(s.frames))
	}

	s.cur, s.pos = nil, 0
	s.end = s.frames > 0 && target == uint64(s.frames)

	if s.end {
		return nil
	}

	got, err := seeker.Seek(target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotSeekable, err)
	}

	// Seek lands on the start of the frame holding target.
	if got < target {
		f, err := s.stream.ParseNext()
		if err != nil {
			return fmt.Errorf("parsing FLAC frame: %w", err)
		}
		s.cur, s.pos = f, int(target-got)
	}

	return nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	var (
		stream *flac.Stream
		err    error
	)

	if rs, ok := r.(io.ReadSeeker); ok {
		stream, err = flac.NewSeek(rs)
	} else {
		stream, err = flac.New(r)
	}

	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	bits := int(stream.Info.BitsPerSample)
	if bits < 4 || bits > 32 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bits)
	}

	src := &source{
		sampleRate: int(stream.Info.SampleRate),
		channels:   int(stream.Info.NChannels),
		bits:       bits,
		frames:     int64(stream.Info.NSamples),
	}
	src.closer, _ = r.(io.Closer)

	if _, ok := r.(io.ReadSeeker); ok {
		src.stream = stream
	} else {
		src.stream = forwardOnly{stream}
	}

	return src, nil
}

// forwardOnly hides Seek for input that cannot seek.
type forwardOnly struct{ frameParser }
