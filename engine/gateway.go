// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"io"
	"sync"

	"github.com/ik5/pcmstream/format"
)

var processLock sync.Mutex

// ProcessLock is the lock shared by every Gateway built without an explicit
// one.
func ProcessLock() sync.Locker { return &processLock }

// NopLocker satisfies sync.Locker without locking. Useful for engines that
// are safe for concurrent use and for tests.
type NopLocker struct{}

func (NopLocker) Lock()   {}
func (NopLocker) Unlock() {}

// Gateway serializes session lifecycle calls into an Engine: every open,
// seek, reconfigure and close holds the lock for the duration of that single
// call. Fill and the read-only queries go straight through.
type Gateway struct {
	engine Engine
	lock   sync.Locker
}

// NewGateway wraps e. A nil lock selects ProcessLock.
func NewGateway(e Engine, lock sync.Locker) *Gateway {
	if lock == nil {
		lock = ProcessLock()
	}

	return &Gateway{engine: e, lock: lock}
}

// Engine returns the wrapped engine.
func (g *Gateway) Engine() Engine { return g.engine }

// Probe lists the streams of resource under the lock.
func (g *Gateway) Probe(resource string) ([]format.FileDescriptor, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	fds, err := g.engine.Probe(resource)

	return fds, Wrap("probe", resource, err)
}

// ProbeBytes lists the streams found in head under the lock.
func (g *Gateway) ProbeBytes(head []byte) ([]format.FileDescriptor, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	fds, err := g.engine.ProbeBytes(head)

	return fds, Wrap("probe", "", err)
}

// Open starts a session on stream streamIndex of resource.
func (g *Gateway) Open(resource string, streamIndex int) (Handle, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	h, err := g.engine.Open(resource, streamIndex)

	return h, Wrap("open", resource, err)
}

// OpenReader starts a one-shot session reading r.
func (g *Gateway) OpenReader(r io.Reader, streamIndex int) (Handle, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	h, err := g.engine.OpenReader(r, streamIndex)

	return h, Wrap("open", "", err)
}

// Seek moves session h to micros microseconds.
func (g *Gateway) Seek(h Handle, micros int64) error {
	g.lock.Lock()
	defer g.lock.Unlock()

	return Wrap("seek", "", g.engine.Seek(h, micros))
}

// Reconfigure switches the output layout of session h.
func (g *Gateway) Reconfigure(h Handle, target format.Descriptor) (Handle, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	nh, err := g.engine.Reconfigure(h, target)

	return nh, Wrap("reconfigure", "", err)
}

// Close releases session h.
func (g *Gateway) Close(h Handle) error {
	g.lock.Lock()
	defer g.lock.Unlock()

	return Wrap("close", "", g.engine.Close(h))
}

// Fill is not serialized.
func (g *Gateway) Fill(h Handle, buf []byte) (int, error) {
	n, err := g.engine.Fill(h, buf)

	return n, Wrap("read", "", err)
}

// IsSeekable reports whether h can seek. It is not serialized.
func (g *Gateway) IsSeekable(h Handle) bool { return g.engine.IsSeekable(h) }

// Layout returns the current output layout of h. It is not serialized.
func (g *Gateway) Layout(h Handle) (format.Descriptor, error) {
	d, err := g.engine.Layout(h)

	return d, Wrap("layout", "", err)
}
