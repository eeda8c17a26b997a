// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"errors"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ik5/pcmstream/engine"
	"github.com/ik5/pcmstream/format"
)

var errBufferNotDrained = errors.New("stream: resizing a buffer that still holds undelivered bytes")

// handleSlot holds the session handle of a Peer. The runtime cleanup of the
// Peer reaches the session through it, so it must not point back at the
// Peer.
type handleSlot struct {
	gw     *engine.Gateway
	h      engine.Handle
	logger *slog.Logger
}

// release closes the session. The slot is cleared even when the engine
// reports an error.
func (s *handleSlot) release() error {
	if s.h == engine.NoHandle {
		return nil
	}

	h := s.h
	s.h = engine.NoHandle

	return s.gw.Close(h)
}

func leaked(s *handleSlot) {
	if s.h == engine.NoHandle {
		return
	}

	s.logger.Debug("closing unreachable stream", "handle", uint64(s.h))

	if err := s.release(); err != nil {
		s.logger.Warn("closing unreachable stream failed", "error", err)
	}
}

// Peer is a Stream that owns one engine session.
type Peer struct {
	mu sync.Mutex

	id       string
	resource string
	slot     *handleSlot
	cleanup  runtime.Cleanup
	logger   *slog.Logger

	seekable    bool
	format      format.Descriptor
	frameLength int64

	// Frame position at the last seek or reconfiguration, and bytes
	// delivered since.
	base      int64
	delivered int64

	buf []byte // decoded bytes not yet delivered are buf[off:]
	off int

	eof    bool // the data ended and the session was released
	closed bool // Close was called
}

var _ Stream = (*Peer)(nil)

// OpenResource opens stream index of resource. Resources with a DRM
// protected container type are rejected before the engine is asked.
func OpenResource(cfg Config, resource string, index int, frameLength int64) (*Peer, error) {
	if format.IsProtected(resource) {
		return nil, engine.NewError(engine.KindUnsupportedFormat, "open", resource, "", engine.ErrProtected)
	}

	cfg = cfg.withDefaults()

	h, err := cfg.Gateway.Open(resource, index)
	if err != nil {
		return nil, err
	}

	return newPeer(cfg, resource, h, frameLength)
}

// OpenSequential opens stream index of a forward-only byte source.
func OpenSequential(cfg Config, r io.Reader, index int, frameLength int64) (*Peer, error) {
	cfg = cfg.withDefaults()

	h, err := cfg.Gateway.OpenReader(r, index)
	if err != nil {
		return nil, err
	}

	return newPeer(cfg, "", h, frameLength)
}

func newPeer(cfg Config, resource string, h engine.Handle, frameLength int64) (*Peer, error) {
	id := uuid.NewString()
	logger := cfg.Logger.With("stream", id)
	slot := &handleSlot{gw: cfg.Gateway, h: h, logger: logger}

	layout, err := cfg.Gateway.Layout(h)
	if err != nil {
		_ = slot.release()
		return nil, err
	}

	p := &Peer{
		id:          id,
		resource:    resource,
		slot:        slot,
		logger:      logger,
		seekable:    cfg.Gateway.IsSeekable(h),
		format:      layout.WithProvenance(),
		frameLength: frameLength,
		buf:         make([]byte, 0, cfg.BufferSize),
	}
	p.cleanup = runtime.AddCleanup(p, leaked, slot)

	logger.Debug("stream opened",
		"resource", resource, "handle", uint64(h), "seekable", p.seekable, "format", p.format.String())

	return p, nil
}

// ID identifies the stream in logs.
func (p *Peer) ID() string { return p.id }

// Format returns the layout Read currently produces.
func (p *Peer) Format() format.Descriptor {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.format
}

// FrameLength is the probed length, NotSpecified once converted or unknown.
func (p *Peer) FrameLength() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.frameLength
}

// FramePosition is the frame the next Read starts at.
func (p *Peer) FramePosition() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.format.FrameSize <= 0 {
		return p.base
	}

	return p.base + p.delivered/int64(p.format.FrameSize)
}

// IsSeekable reports whether the session can move to another position.
func (p *Peer) IsSeekable() bool { return p.seekable }

// Released reports whether the session has been closed, either by Close or
// by reaching the end of the data.
func (p *Peer) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.slot.h == engine.NoHandle
}

func (p *Peer) errClosed(op string) error {
	return engine.NewError(engine.KindIOFailure, op, p.resource, "", engine.ErrClosed)
}

// Read copies decoded bytes into b, refilling from the engine until b is
// full or the data ends. The session is closed once the data ends.
func (p *Peer) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.closed:
		return 0, p.errClosed("read")
	case p.eof:
		return 0, io.EOF
	}

	n := 0
	for n < len(b) {
		if p.off >= len(p.buf) {
			if err := p.refill(); err != nil {
				return n, err
			}

			if len(p.buf) == 0 {
				p.eof = true
				if err := p.closeLocked(); err != nil {
					p.logger.Warn("closing finished stream failed", "error", err)
				}

				if n > 0 {
					return n, nil
				}

				return 0, io.EOF
			}
		}

		c := copy(b[n:], p.buf[p.off:])
		p.off += c
		p.delivered += int64(c)
		n += c
	}

	return n, nil
}

func (p *Peer) ReadByte() (byte, error) {
	var b [1]byte

	if _, err := p.Read(b[:]); err != nil {
		return 0, err
	}

	return b[0], nil
}

// refill replaces the drained scratch buffer with the next chunk from the
// engine. An empty buffer afterwards means end of data.
func (p *Peer) refill() error {
	if p.slot.h == engine.NoHandle {
		panic("stream: refill on a stream that is not open")
	}

	p.off = 0
	p.buf = p.buf[:0]

	if err := p.grow(p.format.FrameSize); err != nil {
		return err
	}

	n, err := p.slot.gw.Fill(p.slot.h, p.buf[:cap(p.buf)])
	if err != nil {
		return err
	}

	p.buf = p.buf[:n]

	return nil
}

// grow makes room for at least n bytes. The buffer never shrinks, and it may
// only be replaced once every byte in it has been delivered.
func (p *Peer) grow(n int) error {
	if n <= cap(p.buf) {
		return nil
	}

	if p.off < len(p.buf) {
		return errBufferNotDrained
	}

	p.buf = make([]byte, 0, n)
	p.off = 0

	return nil
}

// discard drops undelivered bytes and folds the delivered ones into base.
func (p *Peer) discard() {
	if p.format.FrameSize > 0 {
		p.base += p.delivered / int64(p.format.FrameSize)
	}

	p.delivered = 0
	p.buf = p.buf[:0]
	p.off = 0
}

// Seek repositions the session to offset and drops buffered bytes.
func (p *Peer) Seek(offset time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.slot.h == engine.NoHandle {
		return p.errClosed("seek")
	}

	if !p.seekable {
		return engine.NewError(engine.KindUnsupportedOperation, "seek", p.resource, "", engine.ErrNotSeekable)
	}

	micros := offset.Microseconds()
	if err := p.slot.gw.Seek(p.slot.h, micros); err != nil {
		return err
	}

	p.discard()
	p.base = max(format.FramePosition(p.format.FrameRate, micros), 0)
	p.eof = false

	p.logger.Debug("stream seek", "micros", micros, "frame", p.base)

	return nil
}

// reconfigure switches the session to target. Bytes already decoded in the
// old layout are dropped and the position moves past them.
func (p *Peer) reconfigure(target format.Descriptor) (format.Descriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.slot.h == engine.NoHandle {
		return format.Descriptor{}, p.errClosed("convert")
	}

	h, err := p.slot.gw.Reconfigure(p.slot.h, target)
	if err != nil {
		return format.Descriptor{}, err
	}
	p.slot.h = h

	layout, err := p.slot.gw.Layout(h)
	if err != nil {
		return format.Descriptor{}, err
	}
	layout = layout.WithProvenance()

	// The decoder has moved past the buffered frames.
	p.delivered += int64(len(p.buf) - p.off)
	p.discard()
	if old := p.format.FrameRate; old > 0 && layout.FrameRate > 0 && old != layout.FrameRate {
		p.base = int64(float64(p.base) * layout.FrameRate / old)
	}

	p.format = layout
	p.frameLength = format.NotSpecified

	p.logger.Debug("stream reconfigured", "format", layout.String())

	return layout, nil
}

// Close releases the session. It is safe to call more than once.
func (p *Peer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true

	return p.closeLocked()
}

func (p *Peer) closeLocked() error {
	if p.slot.h == engine.NoHandle {
		return nil
	}

	p.cleanup.Stop()
	err := p.slot.release()

	p.logger.Debug("stream closed", "eof", p.eof)

	return err
}
