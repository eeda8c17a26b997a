// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

// Encoder writes integer PCM through go-audio's WAV encoder. The header
// sizes are patched on Close, so the destination must be seekable; use
// WriteHeader with UnknownLength for pipes.
type Encoder struct {
	enc  *gowav.Encoder
	buf  *goaudio.IntBuffer
	bits int
}

func NewEncoder(ws io.WriteSeeker, sampleRate, channels, bits int) *Encoder {
	return &Encoder{
		enc: gowav.NewEncoder(ws, sampleRate, bits, channels, formatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bits,
		},
		bits: bits,
	}
}

// Write appends interleaved signed samples of the encoder's bit depth.
func (e *Encoder) Write(samples []int) error {
	e.buf.Data = append(e.buf.Data[:0], samples...)

	// 8-bit WAV is stored unsigned.
	if e.bits == 8 {
		for i := range e.buf.Data {
			e.buf.Data[i] += 128
		}
	}

	if err := e.enc.Write(e.buf); err != nil {
		return fmt.Errorf("writing WAV data: %w", err)
	}

	return nil
}

func (e *Encoder) Close() error {
	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("closing WAV encoder: %w", err)
	}

	return nil
}
