// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ik5/pcmstream"
)

// app holds the global flags and what PersistentPreRunE builds from them.
type app struct {
	cfgFile       string
	verbose       bool
	quality       string
	cacheCapacity int
	bufferSize    int

	cfg      Config
	logger   *slog.Logger
	pipeline *pcmstream.Pipeline
}

// NewRootCmd builds the command tree with fresh flag state.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pcmcat",
		Short: "Probe and decode audio into PCM",
		Long: `pcmcat probes audio resources and decodes them to linear PCM.

Resources are file paths, file:// URLs or http(s) URLs. "-" reads stdin.

Examples:
  # Describe a file
  pcmcat probe call.mp3

  # Telephony layout, written as WAV
  pcmcat decode call.mp3 --rate 8000 --channels 1 -o call.wav

  # Raw big-endian 24-bit PCM on stdout
  pcmcat decode song.flac --raw --bits 24 --big-endian > song.pcm
`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "YAML config file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")
	pf.StringVar(&a.quality, "quality", "", "resampler quality: high or fast")
	pf.IntVar(&a.cacheCapacity, "cache-capacity", 0, "probe cache size")
	pf.IntVar(&a.bufferSize, "buffer-size", 0, "stream buffer size in bytes")

	root.AddCommand(newProbeCmd(a))
	root.AddCommand(newDecodeCmd(a))
	root.AddCommand(newFormatsCmd())

	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// setup loads the config file, lets changed flags override it and builds the
// pipeline.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(a.cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("quality") {
		cfg.Quality = a.quality
	}

	if flags.Changed("cache-capacity") {
		cfg.CacheCapacity = a.cacheCapacity
	}

	if flags.Changed("buffer-size") {
		cfg.BufferSize = a.bufferSize
	}

	if a.verbose {
		cfg.LogLevel = "debug"
	}

	quality, err := parseQuality(cfg.Quality)
	if err != nil {
		return err
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.pipeline = pcmstream.New(pcmstream.Options{
		CacheCapacity: cfg.CacheCapacity,
		BufferSize:    cfg.BufferSize,
		Quality:       quality,
		Logger:        a.logger,
	})

	return nil
}
