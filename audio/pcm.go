// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"encoding/binary"
	"math"

	"github.com/ik5/pcmstream/format"
	"github.com/ik5/pcmstream/utils"
)

// PCMCodec packs float samples into the bytes of a PCM layout and back.
type PCMCodec struct {
	kind  format.Kind
	bits  int
	size  int
	order binary.ByteOrder
}

// NewPCMCodec builds a codec for the sample format of d. d must be one of the
// signed, unsigned or float PCM families with a sample size the catalog
// accepts as a target.
func NewPCMCodec(d format.Descriptor) (*PCMCodec, error) {
	if !format.IsTargetEncodingSupported(d) {
		return nil, ErrUnsupportedLayout
	}

	var order binary.ByteOrder = binary.LittleEndian
	if d.BigEndian {
		order = binary.BigEndian
	}

	return &PCMCodec{
		kind:  d.Encoding.Kind(),
		bits:  d.BitsPerSample,
		size:  d.BitsPerSample / 8,
		order: order,
	}, nil
}

// SampleSize is the byte size of one sample.
func (c *PCMCodec) SampleSize() int { return c.size }

// Encode writes src into dst and returns the number of bytes written. dst
// must hold len(src)*SampleSize bytes.
func (c *PCMCodec) Encode(dst []byte, src []float32) int {
	for i, v := range src {
		c.put(dst[i*c.size:(i+1)*c.size], v)
	}

	return len(src) * c.size
}

func (c *PCMCodec) put(b []byte, v float32) {
	if c.kind == format.KindPCMFloat {
		if c.bits == 64 {
			c.order.PutUint64(b, math.Float64bits(float64(v)))
		} else {
			c.order.PutUint32(b, math.Float32bits(v))
		}
		return
	}

	s := utils.FloatToInt(v, c.bits)

	var u uint64
	if c.kind == format.KindPCMUnsigned {
		u = uint64(s + int64(1)<<(c.bits-1))
	} else {
		u = uint64(s)
	}

	switch c.bits {
	case 8:
		b[0] = byte(u)
	case 16:
		c.order.PutUint16(b, uint16(u))
	case 24:
		if c.order == binary.BigEndian {
			b[0], b[1], b[2] = byte(u>>16), byte(u>>8), byte(u)
		} else {
			b[0], b[1], b[2] = byte(u), byte(u>>8), byte(u>>16)
		}
	case 32:
		c.order.PutUint32(b, uint32(u))
	}
}

// DecodeInts reads whole samples from src into dst as signed integers of
// the codec's bit width and returns how many were read. Float layouts are
// scaled to 32 bit integers.
func (c *PCMCodec) DecodeInts(dst []int, src []byte) int {
	n := min(len(dst), len(src)/c.size)

	for i := range n {
		b := src[i*c.size : (i+1)*c.size]

		if c.kind == format.KindPCMFloat {
			var f float64
			if c.bits == 64 {
				f = math.Float64frombits(c.order.Uint64(b))
			} else {
				f = float64(math.Float32frombits(c.order.Uint32(b)))
			}
			dst[i] = int(utils.FloatToInt(float32(f), 32))
			continue
		}

		var u uint64
		switch c.bits {
		case 8:
			u = uint64(b[0])
		case 16:
			u = uint64(c.order.Uint16(b))
		case 24:
			if c.order == binary.BigEndian {
				u = uint64(b[0])<<16 | uint64(b[1])<<8 | uint64(b[2])
			} else {
				u = uint64(b[2])<<16 | uint64(b[1])<<8 | uint64(b[0])
			}
		case 32:
			u = uint64(c.order.Uint32(b))
		}

		half := int64(1) << (c.bits - 1)
		v := int64(u)
		if c.kind == format.KindPCMUnsigned {
			v -= half
		} else if v >= half {
			v -= half << 1
		}

		dst[i] = int(v)
	}

	return n
}

// Decode reads whole samples from src into dst as floats in [-1,1].
func (c *PCMCodec) Decode(dst []float32, src []byte) int {
	ints := make([]int, min(len(dst), len(src)/c.size))
	n := c.DecodeInts(ints, src)

	bits := c.bits
	if c.kind == format.KindPCMFloat {
		bits = 32
	}

	for i := range n {
		dst[i] = utils.IntToFloat(int64(ints[i]), bits)
	}

	return n
}
