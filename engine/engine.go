// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"io"

	"github.com/ik5/pcmstream/format"
)

// Handle identifies one open decoder session. The zero Handle means "not
// open".
type Handle uint64

// NoHandle is the closed/unopened handle.
const NoHandle Handle = 0

// Engine is the decoder behind the pipeline. Implementations decide how
// containers are demuxed and decoded; the pipeline only relies on the
// session semantics below.
//
// Open, OpenReader, Reconfigure, Seek and Close may not be safe to call
// concurrently, even for unrelated sessions. Callers go through a Gateway.
// Fill is only ever called for one session from one goroutine at a time.
type Engine interface {
	// Probe inspects resource and describes each audio stream in it.
	Probe(resource string) ([]format.FileDescriptor, error)
	// ProbeBytes describes the audio streams found in the leading bytes of
	// a one-shot source.
	ProbeBytes(head []byte) ([]format.FileDescriptor, error)
	// Open starts a session decoding stream streamIndex of resource.
	Open(resource string, streamIndex int) (Handle, error)
	// OpenReader starts a forward-only session over r.
	OpenReader(r io.Reader, streamIndex int) (Handle, error)
	// Fill writes decoded bytes in the session's output layout into buf,
	// whole frames only. It returns 0 with a nil error at end of data.
	Fill(h Handle, buf []byte) (int, error)
	// Seek repositions the session to micros microseconds from the start.
	Seek(h Handle, micros int64) error
	// Reconfigure switches the session's output layout. The returned handle
	// replaces h.
	Reconfigure(h Handle, target format.Descriptor) (Handle, error)
	// Close releases the session.
	Close(h Handle) error
	// IsSeekable is fixed for the life of the session.
	IsSeekable(h Handle) bool
	// Layout is the session's current output layout.
	Layout(h Handle) (format.Descriptor, error)
}
