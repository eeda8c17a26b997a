// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"io"
	"log/slog"
	"time"

	"github.com/ik5/pcmstream/engine"
	"github.com/ik5/pcmstream/format"
)

// DefaultBufferSize is the initial capacity of a Peer's scratch buffer.
const DefaultBufferSize = 32 * 1024

// Stream is a pull stream of PCM bytes in the layout reported by Format.
type Stream interface {
	io.ReadCloser
	io.ByteReader

	// ID identifies the stream in log records.
	ID() string
	Format() format.Descriptor
	// FrameLength is the length in frames, NotSpecified when unknown.
	FrameLength() int64
	// FramePosition is the index of the next frame Read returns.
	FramePosition() int64
	IsSeekable() bool
	// Seek repositions the stream to offset from its start.
	Seek(offset time.Duration) error
}

// Config is shared by every stream opened through one pipeline.
type Config struct {
	Gateway *engine.Gateway
	// BufferSize is the initial scratch buffer capacity. Defaults to
	// DefaultBufferSize.
	BufferSize int
	Logger     *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}

	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	return c
}
