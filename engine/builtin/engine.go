// SPDX-License-Identifier: EPL-2.0

package builtin

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"

	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/engine"
	"github.com/ik5/pcmstream/format"
)

// Resampler choices for Options.Quality.
const (
	QualityHigh = audio.QualityHigh
	QualityFast = audio.QualityFast
)

// Options configures an Engine. The zero value is usable.
type Options struct {
	// Registry maps container keys to decoders. Defaults to
	// DefaultRegistry().
	Registry *audio.Registry
	// Quality selects the resampler used when the output rate differs from
	// the source rate.
	Quality audio.Quality
	Logger  *slog.Logger
	// HTTPClient fetches http and https resources. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
}

// Engine decodes in process. It is safe for concurrent use.
type Engine struct {
	reg     *audio.Registry
	quality audio.Quality
	logger  *slog.Logger
	client  *http.Client

	mu       sync.Mutex
	last     engine.Handle
	sessions map[engine.Handle]*session
}

var _ engine.Engine = (*Engine)(nil)

func New(opts Options) *Engine {
	e := &Engine{
		reg:      opts.Registry,
		quality:  opts.Quality,
		logger:   opts.Logger,
		client:   opts.HTTPClient,
		sessions: make(map[engine.Handle]*session),
	}

	if e.reg == nil {
		e.reg = DefaultRegistry()
	}

	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}

	if e.client == nil {
		e.client = http.DefaultClient
	}

	return e
}

// forwardOnly hides every method of the wrapped reader but Read.
type forwardOnly struct{ io.Reader }

func (e *Engine) decode(op, resource string, in input) (audio.Source, string, error) {
	key := Sniff(in.head, format.Extension(resource))
	if key == "" {
		in.Close()
		return nil, "", engine.NewError(engine.KindUnsupportedFormat, op, resource, "unknown format", nil)
	}

	dec, ok := e.reg.Get(key)
	if !ok {
		in.Close()
		return nil, "", engine.NewError(engine.KindUnsupportedFormat, op, resource, "no decoder for "+key, nil)
	}

	src, err := dec.Decode(in.r)
	if err != nil {
		in.Close()
		return nil, "", engine.Wrap(op, resource, err)
	}

	return src, key, nil
}

func describe(resource string, src audio.Source, size int64) format.FileDescriptor {
	info := audio.InfoOf(src)
	enc := format.EncodingForCodec(info.Codec)
	rate := float64(src.SampleRate())

	d := format.Descriptor{
		Encoding:      enc,
		SampleRate:    rate,
		BitsPerSample: format.NotSpecified,
		Channels:      src.Channels(),
		FrameSize:     format.NotSpecified,
		BigEndian:     info.BigEndian,
		Bitrate:       info.Bitrate,
		VBR:           info.VBR,
	}

	if info.BitDepth > 0 {
		d.BitsPerSample = info.BitDepth
		if enc.IsPCM() {
			d.FrameSize = format.PCMFrameSize(d.Channels, info.BitDepth)
		}
	}

	var micros int64
	if info.Frames > 0 && rate > 0 {
		micros = int64(math.Round(float64(info.Frames) * 1e6 / rate))
	}

	return format.NewFileDescriptor(resource, d, size, micros)
}

func (e *Engine) Probe(resource string) ([]format.FileDescriptor, error) {
	in, err := e.openInput("probe", resource)
	if err != nil {
		return nil, err
	}

	src, _, err := e.decode("probe", resource, in)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return []format.FileDescriptor{describe(resource, src, in.size)}, nil
}

func (e *Engine) ProbeBytes(head []byte) ([]format.FileDescriptor, error) {
	in := input{
		r:    forwardOnly{bytes.NewReader(head)},
		head: head[:min(len(head), sniffLen)],
		size: format.NotSpecified,
	}

	src, _, err := e.decode("probe", "", in)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return []format.FileDescriptor{describe("", src, format.NotSpecified)}, nil
}

func checkIndex(op, resource string, idx int) error {
	if idx != 0 {
		return engine.NewError(engine.KindIndexOutOfRange, op, resource, "", nil)
	}

	return nil
}

func (e *Engine) Open(resource string, streamIndex int) (engine.Handle, error) {
	if err := checkIndex("open", resource, streamIndex); err != nil {
		return engine.NoHandle, err
	}

	in, err := e.openInput("open", resource)
	if err != nil {
		return engine.NoHandle, err
	}

	src, key, err := e.decode("open", resource, in)
	if err != nil {
		return engine.NoHandle, err
	}

	return e.start(resource, key, in.seekable, src)
}

func (e *Engine) OpenReader(r io.Reader, streamIndex int) (engine.Handle, error) {
	if err := checkIndex("open", "", streamIndex); err != nil {
		return engine.NoHandle, err
	}

	in, err := sniffReader(r)
	if err != nil {
		return engine.NoHandle, engine.NewError(engine.KindIOFailure, "open", "", "", err)
	}

	src, key, err := e.decode("open", "", in)
	if err != nil {
		return engine.NoHandle, err
	}

	return e.start("", key, false, src)
}

func (e *Engine) start(resource, key string, seekable bool, src audio.Source) (engine.Handle, error) {
	s := &session{
		resource: resource,
		seekable: seekable,
		quality:  e.quality,
		src:      src,
	}

	if err := s.configure("open", defaultLayout(src)); err != nil {
		src.Close()
		return engine.NoHandle, err
	}

	e.mu.Lock()
	e.last++
	h := e.last
	e.sessions[h] = s
	e.mu.Unlock()

	e.logger.Debug("session opened",
		"handle", uint64(h), "resource", resource, "container", key,
		"seekable", seekable, "layout", s.layout.String())

	return h, nil
}

func (e *Engine) session(op string, h engine.Handle) (*session, error) {
	e.mu.Lock()
	s, ok := e.sessions[h]
	e.mu.Unlock()

	if !ok {
		return nil, engine.NewError(engine.KindIOFailure, op, "", "", engine.ErrUnknownHandle)
	}

	return s, nil
}

func (e *Engine) Fill(h engine.Handle, buf []byte) (int, error) {
	s, err := e.session("fill", h)
	if err != nil {
		return 0, err
	}

	return s.fill(buf)
}

func (e *Engine) Seek(h engine.Handle, micros int64) error {
	s, err := e.session("seek", h)
	if err != nil {
		return err
	}

	if err := s.seek(micros, e.reopen); err != nil {
		return err
	}

	e.logger.Debug("session seek", "handle", uint64(h), "micros", micros)

	return nil
}

// reopen decodes resource again from its first byte.
func (e *Engine) reopen(resource string) (audio.Source, error) {
	in, err := e.openInput("seek", resource)
	if err != nil {
		return nil, err
	}

	src, _, err := e.decode("seek", resource, in)

	return src, err
}

func (e *Engine) Reconfigure(h engine.Handle, target format.Descriptor) (engine.Handle, error) {
	s, err := e.session("reconfigure", h)
	if err != nil {
		return engine.NoHandle, err
	}

	s.mu.Lock()
	err = s.configure("reconfigure", target)
	layout := s.layout
	s.mu.Unlock()

	if err != nil {
		return engine.NoHandle, err
	}

	e.logger.Debug("session reconfigured", "handle", uint64(h), "layout", layout.String())

	return h, nil
}

func (e *Engine) Close(h engine.Handle) error {
	e.mu.Lock()
	s, ok := e.sessions[h]
	delete(e.sessions, h)
	e.mu.Unlock()

	if !ok {
		return engine.NewError(engine.KindIOFailure, "close", "", "", engine.ErrUnknownHandle)
	}

	e.logger.Debug("session closed", "handle", uint64(h))

	return s.close()
}

func (e *Engine) IsSeekable(h engine.Handle) bool {
	s, err := e.session("seekable", h)
	if err != nil {
		return false
	}

	return s.seekable
}

func (e *Engine) Layout(h engine.Handle) (format.Descriptor, error) {
	s, err := e.session("layout", h)
	if err != nil {
		return format.Descriptor{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.layout, nil
}

// Sessions reports how many sessions are open.
func (e *Engine) Sessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.sessions)
}
