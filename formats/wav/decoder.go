// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/format"
)

const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xfffe

	// Streaming writers use this size when the length is not known yet.
	unknownSize = 0xffffffff
)

// header is what the fmt chunk and the data chunk header say about the
// samples.
type header struct {
	audioFormat uint16
	extensible  bool
	channels    int
	sampleRate  int
	blockAlign  int
	bits        int // container bits per sample
	dataStart   int64
	dataSize    int64 // -1 when unknown
}

func (h header) descriptor() (format.Descriptor, error) {
	var enc format.Encoding

	switch h.audioFormat {
	case formatPCM:
		enc = format.PCMSigned
		if h.bits == 8 {
			enc = format.PCMUnsigned
		}
	case formatFloat:
		enc = format.PCMFloat
	default:
		return format.Descriptor{}, ErrUnsupportedSampleType
	}

	d := format.Descriptor{
		Encoding:      enc,
		SampleRate:    float64(h.sampleRate),
		BitsPerSample: h.bits,
		Channels:      h.channels,
		FrameSize:     h.blockAlign,
	}

	if !format.IsTargetEncodingSupported(d) {
		return format.Descriptor{}, ErrUnsupportedSampleType
	}

	return d, nil
}

func (h header) info() audio.Info {
	kind := format.KindPCMSigned
	switch {
	case h.audioFormat == formatFloat:
		kind = format.KindPCMFloat
	case h.bits == 8:
		kind = format.KindPCMUnsigned
	}

	codec := format.CodecNone
	if enc, ok := format.PCMSubtype(kind, h.bits, false); ok {
		codec = enc.Codec()
	}

	var frames int64
	if h.dataSize > 0 {
		frames = h.dataSize / int64(h.blockAlign)
	}

	vbr := false

	return audio.Info{
		Codec:    codec,
		BitDepth: h.bits,
		Frames:   frames,
		Bitrate:  h.sampleRate * h.blockAlign * 8,
		VBR:      &vbr,
	}
}

// readHeader walks the RIFF chunks up to the start of the data chunk.
func readHeader(r io.Reader) (header, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return header{}, fmt.Errorf("reading RIFF header: %w", err)
	}

	if !bytes.Equal(riff[:4], []byte("RIFF")) || !bytes.Equal(riff[8:12], []byte("WAVE")) {
		return header{}, ErrNotWavFile
	}

	var (
		h      header
		hasFmt bool
		offset int64 = 12
		chunk  [8]byte
	)

	for {
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return header{}, ErrMissingDataChunk
			}
			return header{}, fmt.Errorf("reading chunk header: %w", err)
		}
		offset += 8

		id := string(chunk[:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			if size < 16 {
				return header{}, ErrUnsupportedWavLayout
			}

			body := make([]byte, size+size%2)
			if _, err := io.ReadFull(r, body); err != nil {
				return header{}, fmt.Errorf("reading fmt chunk: %w", err)
			}
			offset += int64(len(body))

			if err := h.parseFmt(body[:size]); err != nil {
				return header{}, err
			}
			hasFmt = true

		case "data":
			if !hasFmt {
				return header{}, ErrUnsupportedWavLayout
			}

			h.dataStart = offset
			h.dataSize = size
			if size == unknownSize {
				h.dataSize = -1
			}

			return h, nil

		default:
			skip := size + size%2
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return header{}, ErrMissingDataChunk
			}
			offset += skip
		}
	}
}

func (h *header) parseFmt(b []byte) error {
	h.audioFormat = binary.LittleEndian.Uint16(b[0:2])
	h.channels = int(binary.LittleEndian.Uint16(b[2:4]))
	h.sampleRate = int(binary.LittleEndian.Uint32(b[4:8]))
	h.blockAlign = int(binary.LittleEndian.Uint16(b[12:14]))
	declared := int(binary.LittleEndian.Uint16(b[14:16]))

	// WAVE_FORMAT_EXTENSIBLE carries the real format in the first two bytes
	// of its sub-format GUID.
	if h.audioFormat == formatExtensible {
		if len(b) < 26 {
			return ErrUnsupportedWavLayout
		}
		h.extensible = true
		h.audioFormat = binary.LittleEndian.Uint16(b[24:26])
	}

	if h.channels < 1 || h.sampleRate < 1 || h.blockAlign < h.channels || h.blockAlign%h.channels != 0 {
		return ErrUnsupportedWavLayout
	}

	h.bits = h.blockAlign / h.channels * 8
	if declared > h.bits {
		return ErrUnsupportedWavLayout
	}

	return nil
}

// Decoder decodes RIFF/WAVE files holding integer PCM (8 to 32 bit) or IEEE
// float (32 or 64 bit) samples, including WAVE_FORMAT_EXTENSIBLE headers.
// Seekable integer PCM input is read through go-audio/wav; everything else
// is read straight from the data chunk, so a forward-only reader works too.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	d, err := h.descriptor()
	if err != nil {
		return nil, err
	}

	rs, seekable := r.(io.ReadSeeker)
	if seekable && h.audioFormat == formatPCM && !h.extensible {
		if src, ok := newGoAudioSource(rs, h); ok {
			return src, nil
		}

		if _, err := rs.Seek(h.dataStart, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seeking to data: %w", err)
		}
	}

	return newStreamSource(r, h, d)
}
