// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// MonoMixer averages every frame of src down to one channel.
type MonoMixer struct {
	src Source
	tmp []float32
}

func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{
		src: src,
		tmp: make([]float32, 4096),
	}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }

func (m *MonoMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	channels := m.src.Channels()
	if channels == 1 {
		return m.src.ReadSamples(dst)
	}

	m.tmp = grow(m.tmp, len(dst)*channels)

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}

	frames := n / channels

	switch channels {
	case 2:
		for f := range frames {
			dst[f] = (m.tmp[2*f] + m.tmp[2*f+1]) * 0.5
		}
	default:
		inv := 1 / float32(channels)
		for f := range frames {
			var sum float32
			for _, v := range m.tmp[f*channels : (f+1)*channels] {
				sum += v
			}
			dst[f] = sum * inv
		}
	}

	return frames, err
}

// StereoMixer maps src onto two channels. Mono is duplicated to both sides.
// For more than two channels the first two keep their side and the rest are
// folded equally into both.
type StereoMixer struct {
	src Source
	tmp []float32
}

func NewStereoMixer(src Source) *StereoMixer {
	return &StereoMixer{
		src: src,
		tmp: make([]float32, 4096),
	}
}

func (m *StereoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *StereoMixer) Channels() int   { return 2 }

func (m *StereoMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (m *StereoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst)%2 != 0 {
		return 0, ErrInvalidDstSize
	}

	if len(dst) == 0 {
		return 0, nil
	}

	channels := m.src.Channels()
	if channels == 2 {
		return m.src.ReadSamples(dst)
	}

	frames := len(dst) / 2
	m.tmp = grow(m.tmp, frames*channels)

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}

	got := n / channels

	if channels == 1 {
		for f := range got {
			dst[2*f] = m.tmp[f]
			dst[2*f+1] = m.tmp[f]
		}

		return got * 2, err
	}

	// Surround channels are mixed at half level into each side.
	scale := 1 / (1 + 0.5*float32(channels-2))
	for f := range got {
		in := m.tmp[f*channels : (f+1)*channels]

		var rest float32
		for _, v := range in[2:] {
			rest += v
		}
		rest *= 0.5

		dst[2*f] = (in[0] + rest) * scale
		dst[2*f+1] = (in[1] + rest) * scale
	}

	return got * 2, err
}

// grow returns buf resliced to n, reallocating only when it is too small.
func grow(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, max(n, 8192))[:n]
	}

	return buf[:n]
}
