// SPDX-License-Identifier: EPL-2.0

package utils

// FloatToInt scales x in [-1,1] to a signed integer of the given bit width.
// Out of range input is clamped. Negative values use the full negative range
// so -1 maps to the minimum integer.
func FloatToInt(x float32, bits int) int64 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	full := float64(int64(1) << (bits - 1))
	if x < 0 {
		return int64(float64(x) * full)
	}

	return int64(float64(x) * (full - 1))
}

// IntToFloat is the inverse of FloatToInt for a signed sample of bits width.
func IntToFloat(v int64, bits int) float32 {
	return float32(float64(v) / float64(int64(1)<<(bits-1)))
}
