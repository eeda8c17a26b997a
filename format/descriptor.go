// SPDX-License-Identifier: EPL-2.0

package format

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// NotSpecified marks an unknown numeric attribute.
const NotSpecified = -1

// Provider is the provenance marker stamped on every descriptor this module
// produces.
const Provider = "pcmstream"

// Property keys exposed by Descriptor.Properties and FileDescriptor.Properties.
const (
	PropProvider = "provider"
	PropBitrate  = "bitrate"
	PropVBR      = "vbr"
	PropDuration = "duration"
)

// Descriptor describes a sample layout.
type Descriptor struct {
	Encoding      Encoding
	SampleRate    float64
	BitsPerSample int
	Channels      int
	FrameSize     int
	FrameRate     float64
	BigEndian     bool

	// Bitrate in bits per second, 0 when unknown.
	Bitrate int
	// VBR is nil when the engine cannot tell.
	VBR *bool

	Provider string
}

// HasProvenance reports whether d was produced by this module.
func (d Descriptor) HasProvenance() bool { return d.Provider == Provider }

// WithProvenance returns a copy of d carrying the provenance marker.
func (d Descriptor) WithProvenance() Descriptor {
	d.Provider = Provider
	return d
}

// Properties returns the optional attributes of d as a map.
func (d Descriptor) Properties() map[string]any {
	props := make(map[string]any, 3)
	if d.Provider != "" {
		props[PropProvider] = d.Provider
	}

	if d.Bitrate > 0 {
		props[PropBitrate] = d.Bitrate
	}

	if d.VBR != nil {
		props[PropVBR] = *d.VBR
	}

	return props
}

func (d Descriptor) String() string {
	var b strings.Builder

	b.WriteString(d.Encoding.String())
	b.WriteString(" ")
	b.WriteString(formatRate(d.SampleRate, "Hz"))
	b.WriteString(", ")

	if d.BitsPerSample == NotSpecified {
		b.WriteString("unknown bits per sample, ")
	} else {
		fmt.Fprintf(&b, "%d bit, ", d.BitsPerSample)
	}

	switch d.Channels {
	case 1:
		b.WriteString("mono, ")
	case 2:
		b.WriteString("stereo, ")
	case NotSpecified:
		b.WriteString("unknown number of channels, ")
	default:
		fmt.Fprintf(&b, "%d channels, ", d.Channels)
	}

	if d.FrameSize == NotSpecified {
		b.WriteString("unknown frame size, ")
	} else {
		fmt.Fprintf(&b, "%d bytes/frame, ", d.FrameSize)
	}

	if d.FrameRate != d.SampleRate {
		b.WriteString(formatRate(d.FrameRate, "frames/second"))
		b.WriteString(", ")
	}

	if d.BitsPerSample > 8 && d.Encoding.IsPCM() {
		if d.BigEndian {
			b.WriteString("big-endian")
		} else {
			b.WriteString("little-endian")
		}
	}

	return strings.TrimSuffix(b.String(), ", ")
}

func formatRate(v float64, unit string) string {
	if v == NotSpecified {
		return "unknown " + unit
	}

	return fmt.Sprintf("%g %s", v, unit)
}

// PCMFrameSize is the byte size of one frame of channels samples of bits
// each. Returns NotSpecified when either input is unknown.
func PCMFrameSize(channels, bits int) int {
	if channels <= 0 || bits <= 0 {
		return NotSpecified
	}

	return channels * ((bits + 7) / 8)
}

// NativeBigEndian reports the byte order of the running platform.
func NativeBigEndian() bool {
	var probe [2]byte
	binary.NativeEndian.PutUint16(probe[:], 1)

	return probe[0] == 0
}

// FrameLength converts a duration in microseconds to a frame count at
// sampleRate. Returns NotSpecified when the product is negative, which
// covers an unknown rate or duration.
func FrameLength(sampleRate float64, micros int64) int64 {
	p := sampleRate * float64(micros)
	if p < 0 {
		return NotSpecified
	}

	return int64(math.Round(p / 1e6))
}

// FramePosition is the frame index reached micros into a stream running at
// frameRate.
func FramePosition(frameRate float64, micros int64) int64 {
	if frameRate <= 0 || micros < 0 {
		return NotSpecified
	}

	return int64(math.Round(frameRate * float64(micros) / 1e6))
}

// DeriveFrameRate returns the frame rate implied by enc: the sample rate for
// PCM and the companded A-law and mu-law codecs, NotSpecified otherwise.
func DeriveFrameRate(enc Encoding, sampleRate float64) float64 {
	if enc.IsPCM() || enc.Codec() == CodecPCMAlaw || enc.Codec() == CodecPCMMulaw {
		return sampleRate
	}

	return NotSpecified
}
