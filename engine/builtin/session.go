// SPDX-License-Identifier: EPL-2.0

package builtin

import (
	"errors"
	"io"
	"sync"

	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/engine"
	"github.com/ik5/pcmstream/format"
)

type session struct {
	mu sync.Mutex

	resource string
	seekable bool
	quality  audio.Quality

	src audio.Source // decoder output
	out audio.Source // src converted to layout

	layout  format.Descriptor
	codec   *audio.PCMCodec
	samples []float32
	eof     bool

	// skip is the number of leading src frames the next fill drops after a
	// seek that had to decode again from the start.
	skip int64
}

// defaultLayout is signed PCM at the source rate, the source bit depth when
// it is an integer depth of whole bytes up to 32 and 16 otherwise. Sources
// with more than two channels are folded to stereo.
func defaultLayout(src audio.Source) format.Descriptor {
	info := audio.InfoOf(src)

	bits := info.BitDepth
	switch {
	case format.EncodingForCodec(info.Codec).Kind() == format.KindPCMFloat:
		bits = 16
	case bits == 8, bits == 16, bits == 24, bits == 32:
	default:
		bits = 16
	}

	ch := min(src.Channels(), 2)
	native := format.NativeBigEndian()
	enc, _ := format.PCMSubtype(format.KindPCMSigned, bits, native)
	rate := float64(src.SampleRate())

	return format.Descriptor{
		Encoding:      enc,
		SampleRate:    rate,
		BitsPerSample: bits,
		Channels:      ch,
		FrameSize:     format.PCMFrameSize(ch, bits),
		FrameRate:     rate,
		BigEndian:     native,
		Provider:      format.Provider,
	}
}

// configure builds the output chain for target on top of the current
// decode position. Callers hold s.mu or own s exclusively.
func (s *session) configure(op string, target format.Descriptor) error {
	if !format.IsTargetEncodingSupported(target) {
		return engine.NewError(engine.KindUnsupportedFormat, op, s.resource, target.Encoding.Name(), engine.ErrUnsupportedEncoding)
	}

	if !format.IsTargetLayoutValid(target) {
		return engine.NewError(engine.KindUnsupportedFormat, op, s.resource, "", engine.ErrUnsupportedFrameSize)
	}

	rate := int(target.SampleRate)
	if rate <= 0 {
		rate = s.src.SampleRate()
	}

	out, err := audio.Convert(s.src, rate, target.Channels, s.quality)
	if err != nil {
		return engine.NewError(engine.KindUnsupportedFormat, op, s.resource, "", err)
	}

	codec, err := audio.NewPCMCodec(target)
	if err != nil {
		return engine.NewError(engine.KindUnsupportedFormat, op, s.resource, "", err)
	}

	target.SampleRate = float64(rate)
	target.FrameRate = float64(rate)
	target.Provider = format.Provider

	s.out, s.codec, s.layout = out, codec, target

	return nil
}

func (s *session) fill(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(buf) / s.layout.FrameSize
	if frames == 0 {
		return 0, engine.NewError(engine.KindIOFailure, "fill", s.resource, "", io.ErrShortBuffer)
	}

	if s.eof {
		return 0, nil
	}

	if s.skip > 0 {
		err := skipFrames(s.src, s.skip)
		s.skip = 0

		if err != nil {
			return 0, engine.Wrap("seek", s.resource, err)
		}
	}

	n := frames * s.layout.Channels
	if cap(s.samples) < n {
		s.samples = make([]float32, n)
	}

	got, err := audio.ReadFull(s.out, s.samples[:n])
	got -= got % s.layout.Channels

	written := s.codec.Encode(buf, s.samples[:got])

	if err != nil {
		if !errors.Is(err, io.EOF) {
			return written, engine.Wrap("fill", s.resource, err)
		}

		s.eof = true
	}

	return written, nil
}

// seek positions the decoder at the frame micros into the source. Sources
// that cannot seek themselves are opened again and the leading frames are
// dropped by the next fill, outside the gateway lock.
func (s *session) seek(micros int64, reopen func(string) (audio.Source, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seekable {
		return engine.NewError(engine.KindUnsupportedOperation, "seek", s.resource, "", engine.ErrNotSeekable)
	}

	frame := max(format.FramePosition(float64(s.src.SampleRate()), max(micros, 0)), 0)

	if fs, ok := s.src.(audio.FrameSeeker); ok && fs.SeekFrame(frame) == nil {
		s.skip = 0
	} else {
		src, err := reopen(s.resource)
		if err != nil {
			return err
		}

		s.src.Close()
		s.src = src
		s.skip = frame
	}

	s.eof = false

	return s.configure("seek", s.layout)
}

// skipFrames reads and drops frames frames from src. Reaching the end of
// src is not an error.
func skipFrames(src audio.Source, frames int64) error {
	ch := int64(src.Channels())
	buf := make([]float32, 4096*ch)
	left := frames * ch

	for left > 0 {
		n, err := src.ReadSamples(buf[:min(left, int64(len(buf)))])
		left -= int64(n)

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (s *session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.src.Close(); err != nil {
		return engine.NewError(engine.KindIOFailure, "close", s.resource, "", err)
	}

	return nil
}
