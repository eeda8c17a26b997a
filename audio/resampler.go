// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/pcmstream/utils"
)

// Resampler converts src to another sample rate with Catmull-Rom cubic
// interpolation. Cheap, but only a one-pole low-pass guards against aliasing
// when downsampling; HQResampler is the better choice for listening.
type Resampler struct {
	src      Source
	dstRate  int
	ratio    float64 // source frames per output frame
	channels int

	// frames[0..3] hold t-1, t0, t+1, t+2.
	frames   [4][]float32
	hasFrame [4]bool
	primed   bool

	// pos is the fractional offset between frames[1] and frames[2].
	pos float64

	srcBuf []float32
	eof    bool

	filter      bool
	seeded      bool
	filterAlpha float32
	filterState []float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	ratio := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:         src,
		dstRate:     dstRate,
		ratio:       ratio,
		channels:    channels,
		srcBuf:      make([]float32, channels),
		filter:      ratio > 1.0,
		filterAlpha: 0.5,
		filterState: make([]float32, channels),
	}

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// readFrame reads one source frame into dst. ok is false when the source
// had nothing left.
func (r *Resampler) readFrame(dst []float32) (bool, error) {
	n, err := r.src.ReadSamples(r.srcBuf)
	for n == 0 && err == nil {
		n, err = r.src.ReadSamples(r.srcBuf)
	}

	if n > 0 {
		copy(dst, r.srcBuf[:n])
		if r.filter {
			if !r.seeded {
				// Start the filter at the first sample instead of fading in from 0.
				copy(r.filterState, dst)
				r.seeded = true
			}
			for c := range r.channels {
				dst[c] = r.filterAlpha*dst[c] + (1-r.filterAlpha)*r.filterState[c]
				r.filterState[c] = dst[c]
			}
		}
	}

	if err == io.EOF {
		r.eof = true
		return n > 0, nil
	}

	if err != nil {
		return n > 0, fmt.Errorf("%w", err)
	}

	return n > 0, nil
}

// prime loads the first source frames. frames[0] repeats the first frame so
// output starts exactly at source frame 0.
func (r *Resampler) prime() error {
	r.primed = true

	for i := 1; i < len(r.frames) && !r.eof; i++ {
		ok, err := r.readFrame(r.frames[i])
		if err != nil {
			return err
		}
		r.hasFrame[i] = ok
	}

	if !r.hasFrame[1] {
		return io.EOF
	}

	copy(r.frames[0], r.frames[1])
	r.hasFrame[0] = true

	return nil
}

// advance shifts the window by one source frame.
func (r *Resampler) advance() error {
	first := r.frames[0]
	copy(r.frames[:], r.frames[1:])
	copy(r.hasFrame[:], r.hasFrame[1:])
	r.frames[3] = first
	r.hasFrame[3] = false

	if r.eof {
		return nil
	}

	ok, err := r.readFrame(r.frames[3])
	r.hasFrame[3] = ok

	return err
}

// ReadSamples produces interleaved samples at the destination rate. len(dst)
// must be a multiple of Channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	want := len(dst) / r.channels

	for written < want {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.advance(); err != nil {
				return r.done(written, err)
			}
		}

		// Nothing to interpolate towards past the last source frame.
		if !r.hasFrame[1] || (!r.hasFrame[2] && r.pos > 0) {
			return r.done(written, io.EOF)
		}

		alpha := float32(r.pos)
		out := dst[written*r.channels : (written+1)*r.channels]

		for c := range r.channels {
			y1 := r.frames[1][c]

			y0 := y1
			if r.hasFrame[0] {
				y0 = r.frames[0][c]
			}

			y2 := y1
			if r.hasFrame[2] {
				y2 = r.frames[2][c]
			}

			y3 := y2
			if r.hasFrame[3] {
				y3 = r.frames[3][c]
			}

			out[c] = utils.CubicInterpolate(y0, y1, y2, y3, alpha)
		}

		written++
		r.pos += r.ratio
	}

	return written * r.channels, nil
}

func (r *Resampler) done(written int, err error) (int, error) {
	if written == 0 {
		return 0, err
	}

	if err == io.EOF {
		return written * r.channels, nil
	}

	return written * r.channels, err
}
