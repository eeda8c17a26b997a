// SPDX-License-Identifier: EPL-2.0

package format

// SourceEncodings lists every encoding a stream may start in: the neutral
// PCM families plus the whole codec table.
func SourceEncodings() []Encoding {
	out := make([]Encoding, 0, len(codecTable)+3)
	out = append(out, PCMSigned, PCMUnsigned, PCMFloat)

	return append(out, codecTable...)
}

// TargetEncodings lists the encodings a stream can be converted to.
func TargetEncodings() []Encoding {
	return []Encoding{PCMSigned, PCMUnsigned, PCMFloat}
}

var (
	integerLayoutBits = []int{8, 16, 24, 32}
	floatLayoutBits   = []int{32, 64}
	layoutChannels    = []int{1, 2}
)

// signed8BitMonoExcluded drops 8-bit signed mono from the default layout
// list. Requests for it are still accepted by IsConversionSupported.
func signed8BitMonoExcluded(kind Kind, bits, channels int) bool {
	return kind == KindPCMSigned && bits == 8 && channels == 1
}

// TargetLayouts enumerates the layouts src can be converted to in the
// target family, in native byte order. Sample rate and frame rate are left
// NotSpecified. Returns nil for a compressed target.
func TargetLayouts(target Encoding, _ Descriptor) []Descriptor {
	var bits []int

	switch target.Kind() {
	case KindPCMSigned, KindPCMUnsigned:
		bits = integerLayoutBits
	case KindPCMFloat:
		bits = floatLayoutBits
	default:
		return nil
	}

	family := target.Family()
	native := NativeBigEndian()
	out := make([]Descriptor, 0, len(bits)*len(layoutChannels))

	for _, b := range bits {
		for _, ch := range layoutChannels {
			if signed8BitMonoExcluded(family.Kind(), b, ch) {
				continue
			}

			out = append(out, Descriptor{
				Encoding:      family,
				SampleRate:    NotSpecified,
				BitsPerSample: b,
				Channels:      ch,
				FrameSize:     PCMFrameSize(ch, b),
				FrameRate:     NotSpecified,
				BigEndian:     native,
				Provider:      Provider,
			})
		}
	}

	return out
}

// IsTargetEncodingSupported reports whether d names a PCM family and a
// sample size the conversion stage can produce.
func IsTargetEncodingSupported(d Descriptor) bool {
	switch d.Encoding.Kind() {
	case KindPCMSigned, KindPCMUnsigned:
		return contains(integerLayoutBits, d.BitsPerSample)
	case KindPCMFloat:
		return contains(floatLayoutBits, d.BitsPerSample)
	default:
		return false
	}
}

// IsTargetLayoutValid reports whether d has one or two channels and a frame
// size equal to channels times the sample size in whole bytes.
func IsTargetLayoutValid(d Descriptor) bool {
	if d.Channels != 1 && d.Channels != 2 {
		return false
	}

	switch d.BitsPerSample {
	case 8, 16, 24, 32, 64:
	default:
		return false
	}

	return d.FrameSize == d.Channels*d.BitsPerSample/8
}

// IsConversionSupported reports whether a stream in src can be converted to
// target.
func IsConversionSupported(target, src Descriptor) bool {
	if !src.HasProvenance() {
		return false
	}

	return IsTargetEncodingSupported(target) && IsTargetLayoutValid(target)
}

// DefaultTarget is the layout used when only a target family is requested:
// the source rate and channel count with 16 bit samples (32 for float).
func DefaultTarget(enc Encoding, src Descriptor) Descriptor {
	bits := 16
	if enc.Kind() == KindPCMFloat {
		bits = 32
	}

	ch := src.Channels
	if ch != 1 {
		ch = 2
	}

	return Descriptor{
		Encoding:      enc.Family(),
		SampleRate:    src.SampleRate,
		BitsPerSample: bits,
		Channels:      ch,
		FrameSize:     PCMFrameSize(ch, bits),
		FrameRate:     src.SampleRate,
		BigEndian:     src.BigEndian,
		Provider:      Provider,
	}
}

func contains(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}

	return false
}
