// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/format"
	"github.com/ik5/pcmstream/utils"
)

// streamSource reads samples straight out of the data chunk.
type streamSource struct {
	src   io.Reader
	r     io.Reader // src limited to the data chunk
	hdr   header
	codec *audio.PCMCodec
	buf   []byte
}

func newStreamSource(r io.Reader, h header, d format.Descriptor) (*streamSource, error) {
	codec, err := audio.NewPCMCodec(d)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	s := &streamSource{
		src:   r,
		hdr:   h,
		codec: codec,
		buf:   make([]byte, 4096*h.blockAlign),
	}
	s.limit(0)

	return s, nil
}

// limit points r at the data chunk starting off bytes into it.
func (s *streamSource) limit(off int64) {
	if s.hdr.dataSize < 0 {
		s.r = s.src
		return
	}

	s.r = io.LimitReader(s.src, s.hdr.dataSize-off)
}

func (s *streamSource) SampleRate() int  { return s.hdr.sampleRate }
func (s *streamSource) Channels() int    { return s.hdr.channels }
func (s *streamSource) Info() audio.Info { return s.hdr.info() }

func (s *streamSource) Close() error {
	if c, ok := s.src.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("%w", err)
		}
	}

	return nil
}

func (s *streamSource) ReadSamples(dst []float32) (int, error) {
	frames := len(dst) / s.hdr.channels
	if frames == 0 {
		return 0, nil
	}

	need := frames * s.hdr.blockAlign
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}

	n, err := io.ReadFull(s.r, s.buf[:need])
	// A trailing partial frame is dropped.
	n -= n % s.hdr.blockAlign

	samples := s.codec.Decode(dst, s.buf[:n])

	switch err {
	case nil:
		return samples, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return samples, io.EOF
	default:
		return samples, fmt.Errorf("reading WAV data: %w", err)
	}
}

// SeekFrame repositions to frame when the underlying reader can seek.
// Frames past the end position the source at end of data.
func (s *streamSource) SeekFrame(frame int64) error {
	seeker, ok := s.src.(io.Seeker)
	if !ok {
		return ErrNotSeekable
	}

	off := max(frame, 0) * int64(s.hdr.blockAlign)
	if s.hdr.dataSize >= 0 {
		off = min(off, s.hdr.dataSize)
	}

	if _, err := seeker.Seek(s.hdr.dataStart+off, io.SeekStart); err != nil {
		return fmt.Errorf("seeking WAV data: %w", err)
	}

	s.limit(off)

	return nil
}

// goAudioSource reads integer PCM through go-audio's WAV decoder.
type goAudioSource struct {
	rs  io.ReadSeeker
	dec *gowav.Decoder
	hdr header
	buf *goaudio.IntBuffer

	// go-audio walks its data chunk sequentially, so after a seek the raw
	// chunk reader takes over.
	seeked *streamSource
}

func newGoAudioSource(rs io.ReadSeeker, h header) (*goAudioSource, bool) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, false
	}

	dec := gowav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, false
	}

	if int(dec.BitDepth) != h.bits || int(dec.NumChans) != h.channels {
		return nil, false
	}

	return &goAudioSource{rs: rs, dec: dec, hdr: h}, true
}

func (s *goAudioSource) SampleRate() int  { return s.hdr.sampleRate }
func (s *goAudioSource) Channels() int    { return s.hdr.channels }
func (s *goAudioSource) Info() audio.Info { return s.hdr.info() }

func (s *goAudioSource) Close() error {
	if c, ok := s.rs.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("%w", err)
		}
	}

	return nil
}

func (s *goAudioSource) ReadSamples(dst []float32) (int, error) {
	if s.seeked != nil {
		return s.seeked.ReadSamples(dst)
	}

	n := len(dst) - len(dst)%s.hdr.channels
	if n == 0 {
		return 0, nil
	}

	if s.buf == nil || cap(s.buf.Data) < n {
		s.buf = &goaudio.IntBuffer{
			Data:   make([]int, n),
			Format: s.dec.Format(),
		}
	}
	s.buf.Data = s.buf.Data[:n]

	got, err := s.dec.PCMBuffer(s.buf)
	got -= got % s.hdr.channels

	for i, v := range s.buf.Data[:got] {
		// 8-bit WAV is unsigned and go-audio returns it as stored.
		if s.hdr.bits == 8 {
			v -= 128
		}
		dst[i] = utils.IntToFloat(int64(v), s.hdr.bits)
	}

	if err != nil && err != io.EOF {
		return got, fmt.Errorf("reading WAV data: %w", err)
	}

	if err == io.EOF || got == 0 || got < n {
		return got, io.EOF
	}

	return got, nil
}

func (s *goAudioSource) SeekFrame(frame int64) error {
	if s.seeked == nil {
		d, err := s.hdr.descriptor()
		if err != nil {
			return err
		}

		ss, err := newStreamSource(s.rs, s.hdr, d)
		if err != nil {
			return err
		}
		s.seeked = ss
	}

	return s.seeked.SeekFrame(frame)
}
