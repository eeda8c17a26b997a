// SPDX-License-Identifier: EPL-2.0

package builtin

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/engine"
	"github.com/ik5/pcmstream/format"
	"github.com/ik5/pcmstream/formats/wav"
	"github.com/ik5/pcmstream/internal/audiotest"
)

const (
	testRate   = 8000
	testFrames = 8000
)

func stereoWAV() []byte {
	return audiotest.WAV(testRate, 2, 16, audiotest.Ramp16(2, testFrames))
}

// readAll fills from h until the engine reports end of data.
func readAll(t *testing.T, e *Engine, h engine.Handle, bufSize int) []byte {
	t.Helper()

	var out []byte
	buf := make([]byte, bufSize)

	for {
		n, err := e.Fill(h, buf)
		if err != nil {
			t.Fatalf("Fill() error = %v", err)
		}

		if n == 0 {
			return out
		}

		out = append(out, buf[:n]...)
	}
}

// noSeekDecoder hides FrameSeeker so seeks fall back to re-decoding.
type noSeekDecoder struct{}

type plainSource struct{ audio.Source }

func (noSeekDecoder) Decode(r io.Reader) (audio.Source, error) {
	src, err := wav.Decoder{}.Decode(r)
	if err != nil {
		return nil, err
	}

	return plainSource{src}, nil
}

func TestSniff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		head []byte
		ext  string
		want string
	}{
		{"wav", []byte("RIFF\x00\x00\x00\x00WAVE"), "", KeyWAV},
		{"aiff", []byte("FORM\x00\x00\x00\x00AIFF"), "", KeyAIFF},
		{"aifc", []byte("FORM\x00\x00\x00\x00AIFC"), "", KeyAIFF},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), "", KeyFLAC},
		{"ogg", []byte("OggS\x00\x02"), "", KeyOgg},
		{"id3", []byte("ID3\x04\x00"), "", KeyMP3},
		{"mpeg sync", []byte{0xff, 0xfb, 0x90, 0x64}, "", KeyMP3},
		{"magic wins over extension", []byte("fLaC"), "wav", KeyFLAC},
		{"extension fallback", []byte("????"), "oga", KeyOgg},
		{"riff without wave", []byte("RIFF\x00\x00\x00\x00AVI "), "", ""},
		{"unknown", []byte("hello"), "txt", ""},
		{"empty", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Sniff(tt.head, tt.ext); got != tt.want {
				t.Errorf("Sniff() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEngine_Probe(t *testing.T) {
	t.Parallel()

	data := stereoWAV()
	path := audiotest.WriteFile(t, "ramp.wav", data)

	fds, err := New(Options{}).Probe(path)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	if len(fds) != 1 {
		t.Fatalf("Probe() returned %d streams, want 1", len(fds))
	}

	fd := fds[0]

	if fd.Type != format.TypeWAVE {
		t.Errorf("Type = %v, want %v", fd.Type, format.TypeWAVE)
	}

	if fd.ByteLength != int64(len(data)) {
		t.Errorf("ByteLength = %d, want %d", fd.ByteLength, len(data))
	}

	if fd.FrameLength != testFrames {
		t.Errorf("FrameLength = %d, want %d", fd.FrameLength, testFrames)
	}

	if fd.Duration != 1_000_000 {
		t.Errorf("Duration = %d, want 1000000", fd.Duration)
	}

	f := fd.Format
	if f.Encoding.Codec() != format.CodecPCMS16LE {
		t.Errorf("Encoding = %v, want PCM_S16LE", f.Encoding)
	}

	if f.SampleRate != testRate || f.Channels != 2 || f.BitsPerSample != 16 || f.FrameSize != 4 {
		t.Errorf("Format = %v", f)
	}

	if f.FrameRate != testRate {
		t.Errorf("FrameRate = %v, want %d", f.FrameRate, testRate)
	}

	if !f.HasProvenance() {
		t.Error("probed descriptor lacks the provenance marker")
	}
}

func TestEngine_ProbeBytes(t *testing.T) {
	t.Parallel()

	fds, err := New(Options{}).ProbeBytes(stereoWAV()[:1024])
	if err != nil {
		t.Fatalf("ProbeBytes() error = %v", err)
	}

	fd := fds[0]

	if fd.ByteLength != format.NotSpecified {
		t.Errorf("ByteLength = %d, want unknown", fd.ByteLength)
	}

	// The header still declares the full data chunk.
	if fd.FrameLength != testFrames {
		t.Errorf("FrameLength = %d, want %d", fd.FrameLength, testFrames)
	}

	if _, err := New(Options{}).ProbeBytes([]byte("definitely not audio")); !errors.Is(err, engine.ErrUnsupportedFormat) {
		t.Errorf("ProbeBytes(garbage) error = %v, want %v", err, engine.ErrUnsupportedFormat)
	}
}

func TestEngine_ProbeErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	garbage := audiotest.WriteFile(t, "noise.bin", bytes.Repeat([]byte{0x42}, 64))
	badWAV := audiotest.WriteFile(t, "bad.wav", []byte("RIFF\x04\x00\x00\x00WAVE"))

	tests := []struct {
		name     string
		resource string
		want     error
	}{
		{"missing file", "/definitely/not/here.wav", engine.ErrResourceNotFound},
		{"missing file url", "file:///definitely/not/here.wav", engine.ErrResourceNotFound},
		{"unknown container", garbage, engine.ErrUnsupportedFormat},
		{"unsupported scheme", "gopher://example.com/a.wav", engine.ErrIOFailure},
		{"http 404", srv.URL + "/missing.wav", engine.ErrResourceNotFound},
		{"truncated wav", badWAV, engine.ErrNativeDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(Options{}).Probe(tt.resource)
			if !errors.Is(err, tt.want) {
				t.Errorf("Probe() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEngine_OpenIndexOutOfRange(t *testing.T) {
	t.Parallel()

	path := audiotest.WriteFile(t, "ramp.wav", stereoWAV())
	e := New(Options{})

	for _, idx := range []int{-1, 1, 7} {
		if _, err := e.Open(path, idx); !errors.Is(err, engine.ErrIndexOutOfRange) {
			t.Errorf("Open(%d) error = %v, want %v", idx, err, engine.ErrIndexOutOfRange)
		}

		if _, err := e.OpenReader(bytes.NewReader(stereoWAV()), idx); !errors.Is(err, engine.ErrIndexOutOfRange) {
			t.Errorf("OpenReader(%d) error = %v, want %v", idx, err, engine.ErrIndexOutOfRange)
		}
	}

	if e.Sessions() != 0 {
		t.Errorf("Sessions() = %d after failed opens", e.Sessions())
	}
}

func TestEngine_DefaultLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []byte
		bits     int
		channels int
	}{
		{"16 bit stereo", stereoWAV(), 16, 2},
		{"8 bit mono", audiotest.WAV(8000, 1, 8, []int32{-128, 0, 127}), 8, 1},
		{"24 bit mono", audiotest.WAV(8000, 1, 24, []int32{1, 2, 3}), 24, 1},
		{"float becomes 16 bit", audiotest.FloatWAV(8000, 2, []float32{0, 0.5}), 16, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := New(Options{})

			h, err := e.Open(audiotest.WriteFile(t, "in.wav", tt.data), 0)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer e.Close(h)

			l, err := e.Layout(h)
			if err != nil {
				t.Fatal(err)
			}

			if l.Encoding.Kind() != format.KindPCMSigned {
				t.Errorf("Encoding = %v, want signed PCM", l.Encoding)
			}

			if l.BitsPerSample != tt.bits || l.Channels != tt.channels {
				t.Errorf("layout = %d bit x %d ch, want %d x %d", l.BitsPerSample, l.Channels, tt.bits, tt.channels)
			}

			if l.BigEndian != format.NativeBigEndian() {
				t.Errorf("BigEndian = %v, want native", l.BigEndian)
			}

			if !format.IsTargetLayoutValid(l) || !l.HasProvenance() {
				t.Errorf("default layout %v is not a valid target", l)
			}
		})
	}
}

func TestEngine_FillToEnd(t *testing.T) {
	t.Parallel()

	path := audiotest.WriteFile(t, "ramp.wav", stereoWAV())

	for _, bufSize := range []int{4, 1000, 32 * 1024} {
		e := New(Options{})

		h, err := e.Open(path, 0)
		if err != nil {
			t.Fatal(err)
		}

		got := readAll(t, e, h, bufSize)
		if len(got) != testFrames*4 {
			t.Errorf("buffer %d: read %d bytes, want %d", bufSize, len(got), testFrames*4)
		}

		// End of data is sticky.
		if n, err := e.Fill(h, make([]byte, 64)); n != 0 || err != nil {
			t.Errorf("Fill() after end = %d, %v", n, err)
		}

		if err := e.Close(h); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}
}

func TestEngine_FillShortBuffer(t *testing.T) {
	t.Parallel()

	e := New(Options{})

	h, err := e.Open(audiotest.WriteFile(t, "ramp.wav", stereoWAV()), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close(h)

	if _, err := e.Fill(h, make([]byte, 3)); !errors.Is(err, io.ErrShortBuffer) {
		t.Errorf("Fill() error = %v, want %v", err, io.ErrShortBuffer)
	}
}

func TestEngine_Seek(t *testing.T) {
	t.Parallel()

	withoutSeeker := DefaultRegistry()
	withoutSeeker.Register(KeyWAV, noSeekDecoder{})

	tests := []struct {
		name string
		reg  *audio.Registry
	}{
		{"frame seeker", nil},
		{"re-decode", withoutSeeker},
	}

	path := audiotest.WriteFile(t, "ramp.wav", stereoWAV())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := New(Options{Registry: tt.reg})

			h, err := e.Open(path, 0)
			if err != nil {
				t.Fatal(err)
			}
			defer e.Close(h)

			full := readAll(t, e, h, 4096)

			// 250ms at 8kHz is frame 2000.
			if err := e.Seek(h, 250_000); err != nil {
				t.Fatalf("Seek() error = %v", err)
			}

			tail := readAll(t, e, h, 4096)
			if !bytes.Equal(tail, full[2000*4:]) {
				t.Errorf("after seek read %d bytes, want the last %d of the full read", len(tail), len(full)-2000*4)
			}

			// Back to the start, then forward again.
			if err := e.Seek(h, 0); err != nil {
				t.Fatal(err)
			}

			if again := readAll(t, e, h, 512); !bytes.Equal(again, full) {
				t.Errorf("rewound read differs: %d bytes, want %d", len(again), len(full))
			}

			if err := e.Seek(h, 10_000_000); err != nil {
				t.Fatal(err)
			}

			if past := readAll(t, e, h, 512); len(past) != 0 {
				t.Errorf("read %d bytes after seeking past the end", len(past))
			}
		})
	}
}

// countingDecoder hides FrameSeeker and counts sample reads.
type countingDecoder struct{ reads *atomic.Int64 }

type countingSource struct {
	audio.Source
	reads *atomic.Int64
}

func (c countingSource) ReadSamples(dst []float32) (int, error) {
	c.reads.Add(1)

	return c.Source.ReadSamples(dst)
}

func (d countingDecoder) Decode(r io.Reader) (audio.Source, error) {
	src, err := wav.Decoder{}.Decode(r)
	if err != nil {
		return nil, err
	}

	return countingSource{Source: src, reads: d.reads}, nil
}

func TestEngine_SeekDefersSkip(t *testing.T) {
	t.Parallel()

	var reads atomic.Int64

	reg := DefaultRegistry()
	reg.Register(KeyWAV, countingDecoder{reads: &reads})

	path := audiotest.WriteFile(t, "ramp.wav", stereoWAV())
	e := New(Options{Registry: reg})

	ref, err := e.Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	full := readAll(t, e, ref, 4096)
	_ = e.Close(ref)

	h, err := e.Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close(h)

	before := reads.Load()

	// 500ms at 8kHz is frame 4000.
	if err := e.Seek(h, 500_000); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}

	if got := reads.Load() - before; got != 0 {
		t.Errorf("Seek() decoded %d reads, want none", got)
	}

	tail := readAll(t, e, h, 4096)
	if want := full[4000*4:]; !bytes.Equal(tail, want) {
		t.Errorf("after seek read %d bytes, want %d", len(tail), len(want))
	}
}

func TestEngine_OpenReader(t *testing.T) {
	t.Parallel()

	e := New(Options{})

	h, err := e.OpenReader(struct{ io.Reader }{bytes.NewReader(stereoWAV())}, 0)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer e.Close(h)

	if e.IsSeekable(h) {
		t.Error("reader session reports seekable")
	}

	if err := e.Seek(h, 0); !errors.Is(err, engine.ErrUnsupportedOperation) {
		t.Errorf("Seek() error = %v, want %v", err, engine.ErrUnsupportedOperation)
	}

	if got := readAll(t, e, h, 1000); len(got) != testFrames*4 {
		t.Errorf("read %d bytes, want %d", len(got), testFrames*4)
	}
}

func TestEngine_HTTP(t *testing.T) {
	t.Parallel()

	data := stereoWAV()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)

	e := New(Options{HTTPClient: srv.Client()})

	fds, err := e.Probe(srv.URL + "/ramp.wav")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	if fds[0].ByteLength != format.NotSpecified {
		t.Errorf("ByteLength = %d, want unknown for remote resources", fds[0].ByteLength)
	}

	h, err := e.Open(srv.URL+"/ramp.wav", 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer e.Close(h)

	if e.IsSeekable(h) {
		t.Error("http session reports seekable")
	}

	if got := readAll(t, e, h, 4096); len(got) != testFrames*4 {
		t.Errorf("read %d bytes, want %d", len(got), testFrames*4)
	}
}

func TestEngine_Reconfigure(t *testing.T) {
	t.Parallel()

	path := audiotest.WriteFile(t, "ramp.wav", stereoWAV())

	tests := []struct {
		name      string
		target    format.Descriptor
		minFrames int
		maxFrames int
	}{
		{
			name:      "float mono",
			target:    format.Descriptor{Encoding: format.PCMFloat, BitsPerSample: 32, Channels: 1, FrameSize: 4},
			minFrames: testFrames,
			maxFrames: testFrames,
		},
		{
			name:      "unsigned 8 bit stereo",
			target:    format.Descriptor{Encoding: format.PCMUnsigned, BitsPerSample: 8, Channels: 2, FrameSize: 2},
			minFrames: testFrames,
			maxFrames: testFrames,
		},
		{
			name: "upsampled",
			target: format.Descriptor{
				Encoding: format.PCMSigned, SampleRate: 2 * testRate, BitsPerSample: 16, Channels: 2, FrameSize: 4,
			},
			minFrames: 2*testFrames - 10,
			maxFrames: 2 * testFrames,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := New(Options{Quality: QualityFast})

			h, err := e.Open(path, 0)
			if err != nil {
				t.Fatal(err)
			}
			defer e.Close(h)

			nh, err := e.Reconfigure(h, tt.target)
			if err != nil {
				t.Fatalf("Reconfigure() error = %v", err)
			}

			if nh != h {
				t.Errorf("Reconfigure() handle = %d, want %d", nh, h)
			}

			l, err := e.Layout(h)
			if err != nil {
				t.Fatal(err)
			}

			if l.FrameSize != tt.target.FrameSize || l.Channels != tt.target.Channels {
				t.Errorf("Layout() = %v", l)
			}

			frames := len(readAll(t, e, h, 4096)) / tt.target.FrameSize
			if frames < tt.minFrames || frames > tt.maxFrames {
				t.Errorf("read %d frames, want %d..%d", frames, tt.minFrames, tt.maxFrames)
			}
		})
	}
}

func TestEngine_ReconfigureRejects(t *testing.T) {
	t.Parallel()

	e := New(Options{})

	h, err := e.Open(audiotest.WriteFile(t, "ramp.wav", stereoWAV()), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close(h)

	before, _ := e.Layout(h)

	tests := []struct {
		name   string
		target format.Descriptor
		want   error
	}{
		{
			"compressed",
			format.Descriptor{Encoding: format.EncodingForCodec(format.CodecMP3), BitsPerSample: 16, Channels: 2, FrameSize: 4},
			engine.ErrUnsupportedEncoding,
		},
		{
			"12 bit",
			format.Descriptor{Encoding: format.PCMSigned, BitsPerSample: 12, Channels: 2, FrameSize: 3},
			engine.ErrUnsupportedEncoding,
		},
		{
			"frame size mismatch",
			format.Descriptor{Encoding: format.PCMSigned, BitsPerSample: 16, Channels: 2, FrameSize: 3},
			engine.ErrUnsupportedFrameSize,
		},
		{
			"surround",
			format.Descriptor{Encoding: format.PCMSigned, BitsPerSample: 16, Channels: 6, FrameSize: 12},
			engine.ErrUnsupportedFrameSize,
		},
	}

	for _, tt := range tests {
		_, err := e.Reconfigure(h, tt.target)
		if !errors.Is(err, tt.want) || !errors.Is(err, engine.ErrUnsupportedFormat) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}

	if after, _ := e.Layout(h); after != before {
		t.Errorf("rejected reconfiguration changed the layout to %v", after)
	}
}

func TestEngine_Handles(t *testing.T) {
	t.Parallel()

	e := New(Options{})
	path := audiotest.WriteFile(t, "ramp.wav", stereoWAV())

	var last engine.Handle
	for range 3 {
		h, err := e.Open(path, 0)
		if err != nil {
			t.Fatal(err)
		}

		if h == engine.NoHandle || h <= last {
			t.Errorf("handle %d after %d", h, last)
		}
		last = h

		if err := e.Close(h); err != nil {
			t.Fatal(err)
		}
	}

	if err := e.Close(last); !errors.Is(err, engine.ErrUnknownHandle) {
		t.Errorf("second Close() error = %v, want %v", err, engine.ErrUnknownHandle)
	}

	if _, err := e.Fill(last, make([]byte, 64)); !errors.Is(err, engine.ErrIOFailure) {
		t.Errorf("Fill() on closed handle error = %v, want %v", err, engine.ErrIOFailure)
	}

	if e.IsSeekable(last) {
		t.Error("closed handle reports seekable")
	}
}

func BenchmarkEngine_Fill(b *testing.B) {
	path := audiotest.WriteFile(b, "ramp.wav", stereoWAV())
	e := New(Options{})
	buf := make([]byte, 32*1024)

	b.ReportAllocs()

	for b.Loop() {
		h, err := e.Open(path, 0)
		if err != nil {
			b.Fatal(err)
		}

		for {
			n, _ := e.Fill(h, buf)
			if n == 0 {
				break
			}
		}

		_ = e.Close(h)
	}
}
