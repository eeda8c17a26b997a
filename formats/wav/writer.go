// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"
)

// UnknownLength makes WriteHeader mark the data chunk as open ended, for
// output whose length is not known up front.
const UnknownLength = -1

// Format tags accepted by WriteHeader.
const (
	FormatPCM   = formatPCM
	FormatFloat = formatFloat
)

// WriteHeader writes a canonical 44-byte header for integer PCM (formatTag
// 1) or IEEE float (formatTag 3) samples followed by dataSize bytes of data.
func WriteHeader(w io.Writer, formatTag, sampleRate, channels, bits int, dataSize int64) error {
	blockAlign := channels * bits / 8

	riffSize := uint32(unknownSize)
	chunkSize := uint32(unknownSize)
	if dataSize >= 0 {
		chunkSize = uint32(dataSize)
		riffSize = 36 + chunkSize
	}

	header := make([]byte, 44)

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], riffSize)
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], uint16(formatTag))
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(bits))

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], chunkSize)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// WriteWAV16 writes interleaved 16-bit PCM as a complete WAV file.
func WriteWAV16(w io.Writer, sampleRate, channels int, samples []int16) error {
	if err := WriteHeader(w, formatPCM, sampleRate, channels, 16, int64(len(samples)*2)); err != nil {
		return err
	}

	const chunkSize = 8192
	if len(samples) == 0 {
		return nil
	}

	buf := make([]byte, min(len(samples), chunkSize)*2)

	for i := 0; i < len(samples); i += chunkSize {
		chunk := samples[i:min(i+chunkSize, len(samples))]
		buf = buf[:len(chunk)*2]

		for j, s := range chunk {
			binary.LittleEndian.PutUint16(buf[j*2:], uint16(s))
		}

		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("%w", err)
		}
	}

	return nil
}
