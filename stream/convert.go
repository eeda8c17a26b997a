// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"time"

	"github.com/ik5/pcmstream/engine"
	"github.com/ik5/pcmstream/format"
)

// ConvertStream presents a Peer's session in another PCM layout. It holds a
// reference to the Peer, never a session of its own.
type ConvertStream struct {
	peer *Peer
}

var _ Stream = (*ConvertStream)(nil)

// NewConvertStream reconfigures src's session to produce target. target
// must name a PCM family the catalog accepts and a whole-byte frame size;
// both are checked before the engine is touched.
func NewConvertStream(target format.Descriptor, src *Peer) (*ConvertStream, error) {
	if !format.IsTargetEncodingSupported(target) {
		return nil, engine.NewError(engine.KindUnsupportedFormat, "convert", src.resource,
			target.Encoding.Name(), engine.ErrUnsupportedEncoding)
	}

	if !format.IsTargetLayoutValid(target) {
		return nil, engine.NewError(engine.KindUnsupportedFormat, "convert", src.resource,
			target.String(), engine.ErrUnsupportedFrameSize)
	}

	enc, ok := format.PCMSubtype(target.Encoding.Kind(), target.BitsPerSample, target.BigEndian)
	if !ok {
		return nil, engine.NewError(engine.KindUnsupportedFormat, "convert", src.resource,
			target.Encoding.Name(), engine.ErrUnsupportedEncoding)
	}
	target.Encoding = enc

	if _, err := src.reconfigure(target); err != nil {
		return nil, err
	}

	return &ConvertStream{peer: src}, nil
}

// Source returns the Peer whose session c reads from.
func (c *ConvertStream) Source() *Peer { return c.peer }

// ID returns the id of the underlying Peer.
func (c *ConvertStream) ID() string { return c.peer.ID() }

// Format returns the layout the shared session currently emits. A later
// conversion over the same Peer changes it.
func (c *ConvertStream) Format() format.Descriptor { return c.peer.Format() }

// FrameLength is unknown once the layout has changed.
func (c *ConvertStream) FrameLength() int64 { return format.NotSpecified }

func (c *ConvertStream) FramePosition() int64            { return c.peer.FramePosition() }
func (c *ConvertStream) IsSeekable() bool                { return c.peer.IsSeekable() }
func (c *ConvertStream) Seek(offset time.Duration) error { return c.peer.Seek(offset) }
func (c *ConvertStream) Read(b []byte) (int, error)      { return c.peer.Read(b) }
func (c *ConvertStream) ReadByte() (byte, error)         { return c.peer.ReadByte() }
func (c *ConvertStream) Close() error                    { return c.peer.Close() }
