// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// WAV builds a canonical PCM WAV file. samples are interleaved and already
// scaled to the bit depth; 8-bit samples are written unsigned as the format
// requires.
func WAV(sampleRate, channels, bits int, samples []int32) []byte {
	size := bits / 8
	data := make([]byte, len(samples)*size)

	for i, s := range samples {
		b := data[i*size : (i+1)*size]
		switch bits {
		case 8:
			b[0] = byte(s + 128)
		case 16:
			binary.LittleEndian.PutUint16(b, uint16(s))
		case 24:
			b[0], b[1], b[2] = byte(s), byte(s>>8), byte(s>>16)
		case 32:
			binary.LittleEndian.PutUint32(b, uint32(s))
		}
	}

	return riffWAV(1, sampleRate, channels, bits, data)
}

// FloatWAV builds an IEEE float WAV file with 32-bit samples.
func FloatWAV(sampleRate, channels int, samples []float32) []byte {
	data := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(s))
	}

	return riffWAV(3, sampleRate, channels, 32, data)
}

func riffWAV(audioFormat, sampleRate, channels, bits int, data []byte) []byte {
	blockAlign := channels * bits / 8
	out := make([]byte, 44, 44+len(data))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(data)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], uint16(audioFormat))
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], uint16(bits))
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(data)))

	return append(out, data...)
}

// Sine16 returns frames frames of a 16-bit sine at freq Hz, identical on
// every channel, at half amplitude.
func Sine16(sampleRate, channels, frames int, freq float64) []int32 {
	out := make([]int32, frames*channels)

	for f := range frames {
		v := int32(16383 * math.Sin(2*math.Pi*freq*float64(f)/float64(sampleRate)))
		for c := range channels {
			out[f*channels+c] = v
		}
	}

	return out
}

// Ramp16 returns a 16-bit sawtooth where every frame differs from its
// neighbours, so misplaced bytes show up in comparisons.
func Ramp16(channels, frames int) []int32 {
	out := make([]int32, frames*channels)

	for f := range frames {
		for c := range channels {
			out[f*channels+c] = int32((f*7+c*3)%60000 - 30000)
		}
	}

	return out
}

// WriteFile stores data under name in a per-test temporary directory and
// returns the path.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}

	return path
}
