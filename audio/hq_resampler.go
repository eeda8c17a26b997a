// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	resampling "github.com/tphakala/go-audio-resampling"
)

// HQResampler converts src to another sample rate with a band-limited
// polyphase filter. Output lags input by the filter's delay and the tail is
// drained when src ends.
//
// The library filters and flushes a single channel per resampler, so each
// channel gets its own instance and the results are interleaved again.
type HQResampler struct {
	src      Source
	rs       []resampling.Resampler
	dstRate  int
	channels int

	in      []float32
	planar  [][]float64
	queued  [][]float64
	pending []float32

	eof     bool
	drained bool
}

// flusher is implemented by resamplers that buffer a tail.
type flusher interface {
	Flush() ([]float64, error)
}

// NewHQResampler wraps src so it produces dstRate frames per second.
func NewHQResampler(src Source, dstRate int) (*HQResampler, error) {
	if dstRate <= 0 || src.SampleRate() <= 0 {
		return nil, ErrInvalidRate
	}

	channels := src.Channels()
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}

	rs := make([]resampling.Resampler, channels)
	for ch := range rs {
		r, err := resampling.New(&resampling.Config{
			InputRate:  float64(src.SampleRate()),
			OutputRate: float64(dstRate),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("creating resampler: %w", err)
		}

		rs[ch] = r
	}

	return &HQResampler{
		src:      src,
		rs:       rs,
		dstRate:  dstRate,
		channels: channels,
		in:       make([]float32, 4096*channels),
		planar:   make([][]float64, channels),
		queued:   make([][]float64, channels),
	}, nil
}

func (h *HQResampler) SampleRate() int { return h.dstRate }
func (h *HQResampler) Channels() int   { return h.channels }

func (h *HQResampler) Close() error {
	if err := h.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// ReadSamples returns whole frames only. It keeps pulling from src until at
// least one frame is pending or the tail has been drained.
func (h *HQResampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%h.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if len(dst) == 0 {
		return 0, nil
	}

	for len(h.pending) < h.channels {
		if h.eof {
			if h.drained {
				return 0, io.EOF
			}

			h.drained = true
			if err := h.drain(); err != nil {
				return 0, err
			}

			continue
		}

		if err := h.pull(); err != nil {
			return 0, err
		}
	}

	n := min(len(dst), len(h.pending))
	n -= n % h.channels
	copy(dst, h.pending[:n])
	h.pending = h.pending[n:]

	return n, nil
}

func (h *HQResampler) pull() error {
	n, err := h.src.ReadSamples(h.in)
	n -= n % h.channels

	if n > 0 {
		frames := n / h.channels
		for ch := range h.planar {
			if cap(h.planar[ch]) < frames {
				h.planar[ch] = make([]float64, frames)
			}
			h.planar[ch] = h.planar[ch][:frames]
		}

		for i, v := range h.in[:n] {
			h.planar[i%h.channels][i/h.channels] = float64(v)
		}

		for ch, r := range h.rs {
			out, perr := r.Process(h.planar[ch])
			if perr != nil {
				return fmt.Errorf("resampling: %w", perr)
			}

			h.queued[ch] = append(h.queued[ch], out...)
		}

		h.interleave()
	}

	if err == io.EOF {
		h.eof = true
		return nil
	}

	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (h *HQResampler) drain() error {
	for ch, r := range h.rs {
		f, ok := r.(flusher)
		if !ok {
			continue
		}

		out, err := f.Flush()
		if err != nil {
			return fmt.Errorf("resampling: %w", err)
		}

		h.queued[ch] = append(h.queued[ch], out...)
	}

	h.interleave()

	return nil
}

// interleave moves the frames every channel has produced into pending.
func (h *HQResampler) interleave() {
	frames := len(h.queued[0])
	for _, q := range h.queued[1:] {
		frames = min(frames, len(q))
	}

	if frames == 0 {
		return
	}

	for i := range frames {
		for ch := range h.queued {
			h.pending = append(h.pending, float32(h.queued[ch][i]))
		}
	}

	for ch := range h.queued {
		h.queued[ch] = h.queued[ch][frames:]
	}
}
