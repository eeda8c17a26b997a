// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds helpers shared by the package tests: generated
// sample sources and in-memory audio files.
package audiotest

import (
	"errors"
	"io"
	"math"
)

// MockSource generates audio from a waveform function. It implements
// audio.Source without importing it so any package can use it.
type MockSource struct {
	sampleRate int
	channels   int
	frames     int // total frames to generate
	generated  int
	waveform   func(frame int, channel int) float32
	closed     bool
}

// NewMockSource creates a source of frames frames produced by waveform.
func NewMockSource(sampleRate, channels, frames int, waveform func(frame int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		waveform:   waveform,
	}
}

// NewSilentSource generates zeros.
func NewSilentSource(sampleRate, channels, frames int) *MockSource {
	return NewConstantSource(sampleRate, channels, frames, 0)
}

// NewSineSource generates the same sine wave on every channel.
func NewSineSource(sampleRate, channels, frames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(frame int, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * frequency * float64(frame) / float64(sampleRate)))
	})
}

// NewConstantSource generates value on every channel.
func NewConstantSource(sampleRate, channels, frames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(int, int) float32 { return value })
}

// NewChannelSource generates a constant per channel: channel c holds values[c].
func NewChannelSource(sampleRate, frames int, values ...float32) *MockSource {
	return NewMockSource(sampleRate, len(values), frames, func(_ int, c int) float32 { return values[c] })
}

// NewRampSource generates frame/frames on every channel, a ramp from 0
// towards 1 that makes sample positions easy to check.
func NewRampSource(sampleRate, channels, frames int) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(frame int, _ int) float32 {
		return float32(frame) / float32(frames)
	})
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed }

// Reset rewinds the source to its first frame.
func (m *MockSource) Reset() {
	m.generated = 0
}

// ReadSamples writes whole frames only and returns io.EOF together with the
// last frames.
func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.generated >= m.frames {
		return 0, io.EOF
	}

	frames := min(len(dst)/m.channels, m.frames-m.generated)

	for f := range frames {
		for c := range m.channels {
			dst[f*m.channels+c] = m.waveform(m.generated+f, c)
		}
	}

	m.generated += frames
	if m.generated >= m.frames {
		return frames * m.channels, io.EOF
	}

	return frames * m.channels, nil
}

// ErrMockRead is returned by FailingSource.
var ErrMockRead = errors.New("mock read failure")

// FailingSource delivers frames good frames and then fails every read.
type FailingSource struct {
	*MockSource
}

func NewFailingSource(sampleRate, channels, frames int) *FailingSource {
	return &FailingSource{MockSource: NewSilentSource(sampleRate, channels, frames)}
}

func (f *FailingSource) ReadSamples(dst []float32) (int, error) {
	if f.generated >= f.frames {
		return 0, ErrMockRead
	}

	n, err := f.MockSource.ReadSamples(dst)
	if err == io.EOF {
		err = nil
	}

	return n, err
}

// Drain reads src until it ends and returns every sample.
func Drain(src interface {
	ReadSamples([]float32) (int, error)
}, bufSize int) ([]float32, error) {
	buf := make([]float32, bufSize)

	var out []float32
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)

		if err == io.EOF {
			return out, nil
		}

		if err != nil {
			return out, err
		}
	}
}
