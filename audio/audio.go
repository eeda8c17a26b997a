// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"slices"
	"sync"

	"github.com/ik5/pcmstream/format"
)

// Source is a pull stream of decoded, interleaved float32 samples.
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)
	// Close releases any resources.
	Close() error
}

// Info is what a decoder knows about the stream before decoding it.
type Info struct {
	Codec format.CodecID
	// BitDepth of the stored samples, 0 for codecs without one.
	BitDepth  int
	BigEndian bool
	// Frames per channel, 0 when unknown.
	Frames int64
	// Bitrate in bits per second, 0 when unknown.
	Bitrate int
	VBR     *bool
}

// Describer is implemented by sources that can report Info.
type Describer interface {
	Info() Info
}

// InfoOf returns src's Info, or a zero Info with an unknown codec.
func InfoOf(src Source) Info {
	if d, ok := src.(Describer); ok {
		return d.Info()
	}

	return Info{Codec: format.CodecNone}
}

// FrameSeeker is implemented by sources that can reposition to a frame
// without decoding everything before it. Sources backed by a forward-only
// reader return an error.
type FrameSeeker interface {
	SeekFrame(frame int64) error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg").
type Registry struct {
	codecs map[string]Decoder

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.Mutex{},
	}
}

func (r *Registry) Register(key string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[key] = d
}

func (r *Registry) Get(key string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[key]
	return d, ok
}

// Formats lists the registered keys in sorted order.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	keys := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}
