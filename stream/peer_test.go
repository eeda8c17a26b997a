// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"bytes"
	"errors"
	"io"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/ik5/pcmstream/engine"
	"github.com/ik5/pcmstream/format"
)

const fakeBytes = fakeFrames * 4

func openPeer(t *testing.T, f *fakeEngine) *Peer {
	t.Helper()

	p, err := OpenResource(f.config(), "song.wav", 0, fakeFrames)
	if err != nil {
		t.Fatalf("OpenResource() error = %v", err)
	}

	t.Cleanup(func() { _ = p.Close() })

	return p
}

func TestPeer_ReadToEnd(t *testing.T) {
	t.Parallel()

	for _, size := range []int{1, 3, 999, 1000, 4096, fakeBytes + 10} {
		f := newFakeEngine()
		p := openPeer(t, f)

		var got bytes.Buffer
		buf := make([]byte, size)

		for {
			n, err := p.Read(buf)
			got.Write(buf[:n])

			if err == io.EOF {
				break
			}

			if err != nil {
				t.Fatalf("size %d: Read() error = %v", size, err)
			}
		}

		if !bytes.Equal(got.Bytes(), pattern(4)) {
			t.Errorf("size %d: read %d bytes, want the %d byte pattern", size, got.Len(), fakeBytes)
		}

		if !p.Released() {
			t.Errorf("size %d: session still open at end of data", size)
		}

		if len(f.closedHandles()) != 1 {
			t.Errorf("size %d: engine closed %d sessions, want 1", size, len(f.closedHandles()))
		}

		if n, err := p.Read(buf); n != 0 || err != io.EOF {
			t.Errorf("size %d: Read() after end = %d, %v, want 0, EOF", size, n, err)
		}

		if p.FramePosition() != fakeFrames {
			t.Errorf("size %d: FramePosition() = %d, want %d", size, p.FramePosition(), fakeFrames)
		}
	}
}

func TestPeer_ReadAll(t *testing.T) {
	t.Parallel()

	got, err := io.ReadAll(openPeer(t, newFakeEngine()))
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != fakeBytes {
		t.Errorf("ReadAll() = %d bytes, want %d", len(got), fakeBytes)
	}
}

func TestPeer_ZeroLengthRead(t *testing.T) {
	t.Parallel()

	f := newFakeEngine()
	p := openPeer(t, f)

	if n, err := p.Read(nil); n != 0 || err != nil {
		t.Errorf("Read(nil) = %d, %v, want 0, nil", n, err)
	}

	if f.count("fill") != 0 {
		t.Errorf("a zero-length read called Fill %d times", f.count("fill"))
	}
}

func TestPeer_ReadByte(t *testing.T) {
	t.Parallel()

	p := openPeer(t, newFakeEngine())
	want := pattern(4)

	for i := range 600 {
		b, err := p.ReadByte()
		if err != nil {
			t.Fatal(err)
		}

		if b != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, b, want[i])
		}
	}
}

func TestPeer_Seek(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		offset time.Duration
		frame  int64
	}{
		{"start", 0, 0},
		{"quarter second", 250 * time.Millisecond, 2000},
		{"rounded", 1001 * time.Microsecond, 8},
		{"end", 500 * time.Millisecond, fakeFrames},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Reference: read up to the target and keep what follows.
			ref := openPeer(t, newFakeEngine())
			skip := make([]byte, tt.frame*4)
			if _, err := io.ReadFull(ref, skip); err != nil {
				t.Fatal(err)
			}

			want := make([]byte, 800)
			wn, _ := io.ReadFull(ref, want)

			p := openPeer(t, newFakeEngine())

			// Leave bytes in the buffer so the seek has to drop them.
			if _, err := p.Read(make([]byte, 10)); err != nil {
				t.Fatal(err)
			}

			if err := p.Seek(tt.offset); err != nil {
				t.Fatalf("Seek() error = %v", err)
			}

			if got := p.FramePosition(); got != tt.frame {
				t.Errorf("FramePosition() = %d, want %d", got, tt.frame)
			}

			got := make([]byte, 800)
			gn, _ := io.ReadFull(p, got)

			if !bytes.Equal(got[:gn], want[:wn]) {
				t.Errorf("read after seek differs from reading through (%d vs %d bytes)", gn, wn)
			}
		})
	}
}

func TestPeer_SeekBackAndForth(t *testing.T) {
	t.Parallel()

	p := openPeer(t, newFakeEngine())
	full := pattern(4)

	for _, ms := range []int{300, 100, 400, 0, 250} {
		if err := p.Seek(time.Duration(ms) * time.Millisecond); err != nil {
			t.Fatal(err)
		}

		buf := make([]byte, 64)
		if _, err := io.ReadFull(p, buf); err != nil {
			t.Fatal(err)
		}

		at := ms * fakeRate / 1000 * 4
		if !bytes.Equal(buf, full[at:at+64]) {
			t.Errorf("after seek to %dms read the wrong bytes", ms)
		}
	}

	rest, err := io.ReadAll(p)
	if err != nil {
		t.Fatal(err)
	}

	if want := fakeBytes - (250*fakeRate/1000*4 + 64); len(rest) != want {
		t.Errorf("remaining bytes = %d, want %d", len(rest), want)
	}
}

func TestPeer_Closed(t *testing.T) {
	t.Parallel()

	f := newFakeEngine()
	p := openPeer(t, f)

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if n := len(f.closedHandles()); n != 1 {
		t.Errorf("engine closed %d sessions, want 1", n)
	}

	if _, err := p.Read(make([]byte, 8)); !errors.Is(err, engine.ErrIOFailure) || !errors.Is(err, engine.ErrClosed) {
		t.Errorf("Read() after Close error = %v, want closed i/o failure", err)
	}

	if _, err := p.ReadByte(); !errors.Is(err, engine.ErrClosed) {
		t.Errorf("ReadByte() after Close error = %v", err)
	}

	if err := p.Seek(0); !errors.Is(err, engine.ErrIOFailure) {
		t.Errorf("Seek() after Close error = %v, want i/o failure", err)
	}

	if f.count("fill") != 0 {
		t.Error("closed stream reached the engine")
	}
}

func TestPeer_SeekAfterEnd(t *testing.T) {
	t.Parallel()

	p := openPeer(t, newFakeEngine())

	if _, err := io.ReadAll(p); err != nil {
		t.Fatal(err)
	}

	if err := p.Seek(0); !errors.Is(err, engine.ErrClosed) {
		t.Errorf("Seek() on a finished stream error = %v, want %v", err, engine.ErrClosed)
	}
}

func TestPeer_CloseClearsHandleOnError(t *testing.T) {
	t.Parallel()

	f := newFakeEngine()
	errRelease := errors.New("release failed")
	f.closeErr = errRelease

	p := openPeer(t, f)

	if err := p.Close(); !errors.Is(err, errRelease) {
		t.Errorf("Close() error = %v, want %v", err, errRelease)
	}

	if !p.Released() {
		t.Error("handle kept after a failed close")
	}

	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if n := len(f.closedHandles()); n != 1 {
		t.Errorf("engine asked to close %d times, want 1", n)
	}
}

func TestPeer_TransientFillError(t *testing.T) {
	t.Parallel()

	f := newFakeEngine()
	p := openPeer(t, f)
	f.fillErr = errors.New("connection reset by peer")

	if _, err := p.Read(make([]byte, 8)); !errors.Is(err, engine.ErrIOFailure) {
		t.Fatalf("Read() error = %v, want i/o failure", err)
	}

	if p.Released() {
		t.Fatal("transient failure closed the session")
	}

	got, err := io.ReadAll(p)
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != fakeBytes {
		t.Errorf("read %d bytes after recovering, want %d", len(got), fakeBytes)
	}
}

func TestOpenSequential(t *testing.T) {
	t.Parallel()

	f := newFakeEngine()

	p, err := OpenSequential(f.config(), bytes.NewReader(nil), 0, format.NotSpecified)
	if err != nil {
		t.Fatalf("OpenSequential() error = %v", err)
	}
	defer p.Close()

	if p.IsSeekable() {
		t.Error("sequential stream reports seekable")
	}

	if err := p.Seek(time.Second); !errors.Is(err, engine.ErrUnsupportedOperation) {
		t.Errorf("Seek() error = %v, want %v", err, engine.ErrUnsupportedOperation)
	}

	if f.count("seek") != 0 {
		t.Error("seek on a sequential stream reached the engine")
	}

	if p.FrameLength() != format.NotSpecified {
		t.Errorf("FrameLength() = %d, want unknown", p.FrameLength())
	}
}

func TestOpenResource_Errors(t *testing.T) {
	t.Parallel()

	f := newFakeEngine()
	f.streams = 2

	if _, err := OpenResource(f.config(), "stems.mp4", 2, 0); !errors.Is(err, engine.ErrIndexOutOfRange) {
		t.Errorf("index 2 of 2: error = %v, want %v", err, engine.ErrIndexOutOfRange)
	}

	p, err := OpenResource(f.config(), "stems.mp4", 1, 0)
	if err != nil {
		t.Fatalf("index 1 of 2: error = %v", err)
	}
	p.Close()

	before := f.count("open")

	_, err = OpenResource(f.config(), "/music/Track.M4P", 0, 0)
	if !errors.Is(err, engine.ErrUnsupportedFormat) || !errors.Is(err, engine.ErrProtected) {
		t.Errorf("protected resource: error = %v, want unsupported format", err)
	}

	if f.count("open") != before {
		t.Error("protected resource reached the engine")
	}
}

func TestPeer_LockDiscipline(t *testing.T) {
	t.Parallel()

	f := newFakeEngine()
	p := openPeer(t, f)

	if _, err := p.Read(make([]byte, 100)); err != nil {
		t.Fatal(err)
	}

	if err := p.Seek(10 * time.Millisecond); err != nil {
		t.Fatal(err)
	}

	c, err := NewConvertStream(fakeLayout(16, 1), p)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.unlocked) != 0 {
		t.Errorf("lifecycle calls without the gateway lock: %v", f.unlocked)
	}

	for _, op := range []string{"open", "fill", "seek", "reconfigure", "close"} {
		if f.calls[op] == 0 {
			t.Errorf("%s was never called", op)
		}
	}
}

func TestPeer_ConcurrentReads(t *testing.T) {
	t.Parallel()

	p := openPeer(t, newFakeEngine())

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			buf := make([]byte, 37)
			for {
				n, err := p.Read(buf)

				mu.Lock()
				total += n
				mu.Unlock()

				if err != nil {
					return
				}
			}
		}()
	}
	wg.Wait()

	if total != fakeBytes {
		t.Errorf("readers got %d bytes in total, want %d", total, fakeBytes)
	}
}

func TestPeer_Grow(t *testing.T) {
	t.Parallel()

	p := openPeer(t, newFakeEngine())

	if _, err := p.Read(make([]byte, 10)); err != nil {
		t.Fatal(err)
	}

	if err := p.grow(10 * DefaultBufferSize); !errors.Is(err, errBufferNotDrained) {
		t.Errorf("grow() with undelivered bytes error = %v, want %v", err, errBufferNotDrained)
	}

	if err := p.grow(1); err != nil || cap(p.buf) != 1000 {
		t.Errorf("grow(1) = %v, cap %d; the buffer must not shrink", err, cap(p.buf))
	}

	p.off = len(p.buf)

	if err := p.grow(5000); err != nil || cap(p.buf) < 5000 {
		t.Errorf("grow(5000) on a drained buffer = %v, cap %d", err, cap(p.buf))
	}
}

func TestPeer_LeakBackstop(t *testing.T) {
	t.Parallel()

	f := newFakeEngine()

	func() {
		_, err := OpenResource(f.config(), "leaked.wav", 0, 0)
		if err != nil {
			t.Fatal(err)
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for len(f.closedHandles()) == 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}

	if len(f.closedHandles()) != 1 {
		t.Error("unreachable stream was never closed")
	}
}

func BenchmarkPeer_Read(b *testing.B) {
	buf := make([]byte, 4096)

	b.ReportAllocs()

	for b.Loop() {
		f := newFakeEngine()

		p, err := OpenResource(f.config(), "bench.wav", 0, fakeFrames)
		if err != nil {
			b.Fatal(err)
		}

		for {
			if _, err := p.Read(buf); err != nil {
				break
			}
		}
	}
}
