// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"io"
	"sync"

	"github.com/ik5/pcmstream/engine"
	"github.com/ik5/pcmstream/format"
)

const (
	fakeRate   = 8000
	fakeFrames = 4000
)

// recordingLock remembers whether it is held.
type recordingLock struct {
	mu   sync.Mutex
	held bool
}

func (l *recordingLock) Lock() {
	l.mu.Lock()
	l.held = true
}

func (l *recordingLock) Unlock() {
	l.held = false
	l.mu.Unlock()
}

type fakeSession struct {
	data     []byte
	pos      int
	layout   format.Descriptor
	seekable bool
}

// fakeEngine serves a deterministic byte pattern and records every call.
type fakeEngine struct {
	lock *recordingLock

	mu       sync.Mutex
	last     engine.Handle
	sessions map[engine.Handle]*fakeSession
	calls    map[string]int
	unlocked []string // lifecycle calls made without the gateway lock
	closed   []engine.Handle

	streams  int
	fillErr  error // returned once by the next Fill
	closeErr error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		lock:     &recordingLock{},
		sessions: make(map[engine.Handle]*fakeSession),
		calls:    make(map[string]int),
		streams:  1,
	}
}

func (f *fakeEngine) config() Config {
	return Config{Gateway: engine.NewGateway(f, f.lock), BufferSize: 1000}
}

func (f *fakeEngine) note(op string, lifecycle bool) {
	f.calls[op]++
	if lifecycle && !f.lock.held {
		f.unlocked = append(f.unlocked, op)
	}
}

func (f *fakeEngine) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[op]
}

func fakeLayout(bits, channels int) format.Descriptor {
	enc, _ := format.PCMSubtype(format.KindPCMSigned, bits, false)

	return format.Descriptor{
		Encoding:      enc,
		SampleRate:    fakeRate,
		BitsPerSample: bits,
		Channels:      channels,
		FrameSize:     format.PCMFrameSize(channels, bits),
		FrameRate:     fakeRate,
		Provider:      format.Provider,
	}
}

// pattern is the byte stream of fakeFrames frames of frameSize bytes.
func pattern(frameSize int) []byte {
	data := make([]byte, fakeFrames*frameSize)
	for i := range data {
		data[i] = byte(i % 251)
	}

	return data
}

func (f *fakeEngine) Probe(string) ([]format.FileDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note("probe", true)

	return nil, nil
}

func (f *fakeEngine) ProbeBytes([]byte) ([]format.FileDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note("probeBytes", true)

	return nil, nil
}

func (f *fakeEngine) open(op string, idx int, seekable bool) (engine.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note(op, true)

	if idx < 0 || idx >= f.streams {
		return engine.NoHandle, engine.NewError(engine.KindIndexOutOfRange, op, "", "", nil)
	}

	l := fakeLayout(16, 2)
	f.last++
	f.sessions[f.last] = &fakeSession{data: pattern(l.FrameSize), layout: l, seekable: seekable}

	return f.last, nil
}

func (f *fakeEngine) Open(_ string, idx int) (engine.Handle, error) {
	return f.open("open", idx, true)
}

func (f *fakeEngine) OpenReader(_ io.Reader, idx int) (engine.Handle, error) {
	return f.open("openReader", idx, false)
}

func (f *fakeEngine) session(h engine.Handle) (*fakeSession, error) {
	s, ok := f.sessions[h]
	if !ok {
		return nil, engine.NewError(engine.KindIOFailure, "", "", "", engine.ErrUnknownHandle)
	}

	return s, nil
}

func (f *fakeEngine) Fill(h engine.Handle, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note("fill", false)

	if err := f.fillErr; err != nil {
		f.fillErr = nil
		return 0, err
	}

	s, err := f.session(h)
	if err != nil {
		return 0, err
	}

	n := min(len(buf), len(s.data)-s.pos)
	n -= n % s.layout.FrameSize
	copy(buf, s.data[s.pos:s.pos+n])
	s.pos += n

	return n, nil
}

func (f *fakeEngine) Seek(h engine.Handle, micros int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note("seek", true)

	s, err := f.session(h)
	if err != nil {
		return err
	}

	frame := format.FramePosition(s.layout.FrameRate, micros)
	s.pos = min(int(frame)*s.layout.FrameSize, len(s.data))

	return nil
}

func (f *fakeEngine) Reconfigure(h engine.Handle, target format.Descriptor) (engine.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note("reconfigure", true)

	s, err := f.session(h)
	if err != nil {
		return engine.NoHandle, err
	}

	frame := s.pos / s.layout.FrameSize
	target.SampleRate, target.FrameRate = fakeRate, fakeRate
	s.layout = target
	s.data = pattern(target.FrameSize)
	s.pos = frame * target.FrameSize

	return h, nil
}

func (f *fakeEngine) Close(h engine.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note("close", true)

	f.closed = append(f.closed, h)
	delete(f.sessions, h)

	return f.closeErr
}

func (f *fakeEngine) IsSeekable(h engine.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note("isSeekable", false)

	s, err := f.session(h)

	return err == nil && s.seekable
}

func (f *fakeEngine) Layout(h engine.Handle) (format.Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note("layout", false)

	s, err := f.session(h)
	if err != nil {
		return format.Descriptor{}, err
	}

	return s.layout, nil
}

func (f *fakeEngine) closedHandles() []engine.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]engine.Handle(nil), f.closed...)
}
