// SPDX-License-Identifier: EPL-2.0

package audio

// Quality selects the resampler used by Convert.
type Quality int

const (
	// QualityHigh uses HQResampler.
	QualityHigh Quality = iota
	// QualityFast uses the cubic Resampler.
	QualityFast
)

func (q Quality) String() string {
	if q == QualityFast {
		return "fast"
	}

	return "high"
}

// Convert builds the processing chain that turns src into rate Hz with the
// given channel count. Channels are mixed before resampling so the
// resampler works on as few channels as possible. rate or channels <= 0 keep
// the source value. Closing the returned Source closes src.
func Convert(src Source, rate, channels int, q Quality) (Source, error) {
	out := src

	if channels > 0 && channels != out.Channels() {
		switch channels {
		case 1:
			out = NewMonoMixer(out)
		case 2:
			out = NewStereoMixer(out)
		default:
			return nil, ErrInvalidChannels
		}
	}

	if rate > 0 && rate != out.SampleRate() {
		if q == QualityFast {
			return NewResampler(out, rate), nil
		}

		hq, err := NewHQResampler(out, rate)
		if err != nil {
			return nil, err
		}

		return hq, nil
	}

	return out, nil
}

// ReadFull reads from src until dst is full or src ends. It returns the
// number of samples read; err is nil when dst was filled and io.EOF when
// src ended first.
func ReadFull(src Source, dst []float32) (int, error) {
	total := 0

	for total < len(dst) {
		n, err := src.ReadSamples(dst[total:])
		total += n

		if err != nil {
			return total, err
		}
	}

	return total, nil
}
