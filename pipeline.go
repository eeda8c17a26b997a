// SPDX-License-Identifier: EPL-2.0

package pcmstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/cache"
	"github.com/ik5/pcmstream/engine"
	"github.com/ik5/pcmstream/engine/builtin"
	"github.com/ik5/pcmstream/format"
	"github.com/ik5/pcmstream/stream"
)

// ProbeHeadSize is how many leading bytes ProbeReader inspects.
const ProbeHeadSize = 32 * 1024

// Options configures a Pipeline. The zero value decodes with the builtin
// engine behind the process-wide lock.
type Options struct {
	// Engine decodes resources. Defaults to builtin.New. Ignored when
	// Gateway is set.
	Engine engine.Engine
	// Gateway serializes calls into the engine. Defaults to a Gateway over
	// Engine using engine.ProcessLock.
	Gateway *engine.Gateway
	// CacheCapacity bounds the probe cache. Defaults to
	// cache.DefaultCapacity.
	CacheCapacity int
	// BufferSize is the initial scratch buffer of every stream. Defaults to
	// stream.DefaultBufferSize.
	BufferSize int
	// Quality picks the resampler of the default engine.
	Quality audio.Quality
	Logger  *slog.Logger
}

// Pipeline probes resources, opens them as PCM streams and converts those
// streams to other PCM layouts.
type Pipeline struct {
	gw     *engine.Gateway
	cache  *cache.ProbeCache
	cfg    stream.Config
	logger *slog.Logger
}

// New builds a Pipeline. Zero Options give the builtin engine behind the
// process-wide lock and a cache of the default capacity.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	gw := opts.Gateway
	if gw == nil {
		e := opts.Engine
		if e == nil {
			e = builtin.New(builtin.Options{Quality: opts.Quality, Logger: logger})
		}

		gw = engine.NewGateway(e, nil)
	}

	return &Pipeline{
		gw:    gw,
		cache: cache.New(opts.CacheCapacity, logger),
		cfg: stream.Config{
			Gateway:    gw,
			BufferSize: opts.BufferSize,
			Logger:     logger,
		},
		logger: logger,
	}
}

// Gateway returns the serialized gateway every stream goes through.
func (p *Pipeline) Gateway() *engine.Gateway { return p.gw }

// Cache returns the probe cache.
func (p *Pipeline) Cache() *cache.ProbeCache { return p.cache }

// checkStreams rejects an empty or implausible probe result.
func checkStreams(resource string, fds []format.FileDescriptor) error {
	if len(fds) == 0 {
		return engine.NewError(engine.KindUnsupportedFormat, "probe", resource, "", engine.ErrNoStreams)
	}

	if !fds[0].IsPlausible() {
		return engine.NewError(engine.KindUnsupportedFormat, "probe", resource, "", engine.ErrImplausibleFormat)
	}

	return nil
}

func checkIndex(resource string, fds []format.FileDescriptor, index int) error {
	if index < 0 || index >= len(fds) {
		return engine.NewError(engine.KindIndexOutOfRange, "open", resource,
			fmt.Sprintf("index %d of %d streams", index, len(fds)), nil)
	}

	return nil
}

// Probe describes every audio stream of resource. Results are cached per
// resource.
func (p *Pipeline) Probe(resource string) ([]format.FileDescriptor, error) {
	if format.IsProtected(resource) {
		return nil, engine.NewError(engine.KindUnsupportedFormat, "probe", resource, "", engine.ErrProtected)
	}

	fds, err := p.cache.GetOrProbe(resource, func() ([]format.FileDescriptor, error) {
		return p.gw.Probe(resource)
	})
	if err != nil {
		return nil, err
	}

	if err := checkStreams(resource, fds); err != nil {
		return nil, err
	}

	return fds, nil
}

// ProbeReader describes the audio streams of a one-shot source from its
// leading bytes. The returned reader yields the whole of r, including the
// bytes inspected.
func (p *Pipeline) ProbeReader(r io.Reader) ([]format.FileDescriptor, io.Reader, error) {
	head := make([]byte, ProbeHeadSize)

	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, nil, engine.NewError(engine.KindIOFailure, "probe", "", "", err)
	}
	head = head[:n]

	rest := io.MultiReader(bytes.NewReader(head), r)

	fds, err := p.gw.ProbeBytes(head)
	if err != nil {
		return nil, rest, err
	}

	if err := checkStreams("", fds); err != nil {
		return nil, rest, err
	}

	return fds, rest, nil
}

// Open decodes stream index of resource.
func (p *Pipeline) Open(resource string, index int) (*stream.Peer, error) {
	fds, err := p.Probe(resource)
	if err != nil {
		return nil, err
	}

	if err := checkIndex(resource, fds, index); err != nil {
		return nil, err
	}

	return stream.OpenResource(p.cfg, resource, index, fds[index].FrameLength)
}

// OpenReader decodes stream index of a one-shot source. The stream cannot
// seek.
func (p *Pipeline) OpenReader(r io.Reader, index int) (*stream.Peer, error) {
	fds, rest, err := p.ProbeReader(r)
	if err != nil {
		return nil, err
	}

	if err := checkIndex("", fds, index); err != nil {
		return nil, err
	}

	return stream.OpenSequential(p.cfg, rest, index, fds[index].FrameLength)
}

// Convert presents src in the target layout by reconfiguring the session
// src reads from. Only streams opened by a Pipeline can be converted.
func (p *Pipeline) Convert(target format.Descriptor, src stream.Stream) (stream.Stream, error) {
	if !src.Format().HasProvenance() {
		return nil, engine.NewError(engine.KindUnsupportedOperation, "convert", "", "", engine.ErrNoProvenance)
	}

	var peer *stream.Peer
	switch s := src.(type) {
	case *stream.Peer:
		peer = s
	case *stream.ConvertStream:
		peer = s.Source()
	default:
		return nil, engine.NewError(engine.KindUnsupportedOperation, "convert", "", "", engine.ErrNoProvenance)
	}

	c, err := stream.NewConvertStream(target, peer)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("stream converted", "stream", c.ID(), "format", c.Format().String())

	return c, nil
}

// ConvertEncoding converts src to the enc family, keeping its rate, channel
// count, byte order and, when enc allows it, its sample size.
func (p *Pipeline) ConvertEncoding(enc format.Encoding, src stream.Stream) (stream.Stream, error) {
	sf := src.Format()
	target := format.DefaultTarget(enc, sf)

	if sf.BitsPerSample > 0 {
		same := target
		same.BitsPerSample = sf.BitsPerSample
		same.FrameSize = format.PCMFrameSize(same.Channels, same.BitsPerSample)

		if format.IsTargetEncodingSupported(same) {
			target = same
		}
	}

	return p.Convert(target, src)
}

// DecodeMono16 decodes the first stream of resource to signed 16-bit mono
// samples at rate Hz. rate <= 0 keeps the source rate.
func (p *Pipeline) DecodeMono16(resource string, rate int) ([]int16, error) {
	src, err := p.Open(resource, 0)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	sr := float64(format.NotSpecified)
	if rate > 0 {
		sr = float64(rate)
	}

	out, err := p.Convert(format.Descriptor{
		Encoding:      format.PCMSigned,
		SampleRate:    sr,
		BitsPerSample: 16,
		Channels:      1,
		FrameSize:     2,
		FrameRate:     sr,
		Provider:      format.Provider,
	}, src)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(out)
	if err != nil {
		return nil, err
	}

	pcm16 := make([]int16, len(data)/2)
	for i := range pcm16 {
		pcm16[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}

	return pcm16, nil
}
