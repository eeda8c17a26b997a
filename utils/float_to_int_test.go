// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestFloatToInt_16Bit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input float32
		want  int64
	}{
		{"zero", 0.0, 0},
		{"max positive", 1.0, math.MaxInt16},
		{"max negative", -1.0, math.MinInt16},
		{"half positive", 0.5, 16383},
		{"half negative", -0.5, -16384},
		{"small positive", 0.001, 32},
		{"clamp over max", 1.5, math.MaxInt16},
		{"clamp under min", -1.5, math.MinInt16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FloatToInt(tt.input, 16); got != tt.want {
				t.Errorf("FloatToInt(%v, 16) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFloatToInt_Widths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bits     int
		min, max int64
	}{
		{8, math.MinInt8, math.MaxInt8},
		{16, math.MinInt16, math.MaxInt16},
		{24, -1 << 23, 1<<23 - 1},
		{32, math.MinInt32, math.MaxInt32},
	}

	for _, tt := range tests {
		if got := FloatToInt(-1, tt.bits); got != tt.min {
			t.Errorf("FloatToInt(-1, %d) = %d, want %d", tt.bits, got, tt.min)
		}

		if got := FloatToInt(1, tt.bits); got != tt.max {
			t.Errorf("FloatToInt(1, %d) = %d, want %d", tt.bits, got, tt.max)
		}
	}
}

func TestIntToFloat_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, bits := range []int{8, 16, 24, 32} {
		for _, x := range []float32{-1, -0.25, 0, 0.25, 0.75} {
			got := IntToFloat(FloatToInt(x, bits), bits)
			tolerance := 2.0 / float64(int64(1)<<(bits-1))
			if math.Abs(float64(got-x)) > tolerance {
				t.Errorf("bits=%d: round trip of %v = %v", bits, x, got)
			}
		}
	}
}

func BenchmarkFloatToInt(b *testing.B) {
	for b.Loop() {
		_ = FloatToInt(0.42, 24)
	}
}
