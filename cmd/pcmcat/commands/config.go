// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/format"
)

var (
	ErrUnknownQuality = errors.New("unknown resampler quality")
	ErrUnknownLevel   = errors.New("unknown log level")
	ErrTargetEncoding = errors.New("target encoding is not a PCM family")
)

// Config is the layout of the --config file.
//
//	cache_capacity: 20
//	buffer_size: 32768
//	quality: high        # or fast
//	log_level: info
//	target:
//	  encoding: PCM_SIGNED
//	  rate: 8000
//	  bits: 16
//	  channels: 1
//	  big_endian: false
type Config struct {
	CacheCapacity int    `yaml:"cache_capacity"`
	BufferSize    int    `yaml:"buffer_size"`
	Quality       string `yaml:"quality"`
	LogLevel      string `yaml:"log_level"`
	Target        Target `yaml:"target"`
}

// Target describes the output layout of decode. Zero fields keep the
// source's value.
type Target struct {
	Encoding  string  `yaml:"encoding"`
	Rate      float64 `yaml:"rate"`
	Bits      int     `yaml:"bits"`
	Channels  int     `yaml:"channels"`
	BigEndian bool    `yaml:"big_endian"`
}

// LoadConfig reads path. An empty path yields the zero Config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

func parseQuality(s string) (audio.Quality, error) {
	switch strings.ToLower(s) {
	case "", "high":
		return audio.QualityHigh, nil
	case "fast":
		return audio.QualityFast, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownQuality, s)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelWarn, nil
	}

	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}

	return l, nil
}

// Descriptor resolves t against the layout of the source stream.
func (t Target) Descriptor(src format.Descriptor) (format.Descriptor, error) {
	enc := format.PCMSigned
	if t.Encoding != "" {
		e, ok := format.EncodingByName(t.Encoding)
		if !ok || !e.IsPCM() || e.Kind() == format.KindPCMOther {
			return format.Descriptor{}, fmt.Errorf("%w: %q", ErrTargetEncoding, t.Encoding)
		}
		enc = e.Family()
	}

	d := format.DefaultTarget(enc, src)
	if src.BitsPerSample > 0 && src.Encoding.Kind() == enc.Kind() {
		d.BitsPerSample = src.BitsPerSample
	}

	if t.Rate > 0 {
		d.SampleRate = t.Rate
		d.FrameRate = t.Rate
	}

	if t.Bits > 0 {
		d.BitsPerSample = t.Bits
	}

	if t.Channels > 0 {
		d.Channels = t.Channels
	}

	d.BigEndian = t.BigEndian
	d.FrameSize = format.PCMFrameSize(d.Channels, d.BitsPerSample)

	return d, nil
}
