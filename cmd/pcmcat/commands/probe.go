// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ik5/pcmstream/format"
)

// probeResult is the YAML form of one probed stream.
type probeResult struct {
	Resource   string  `yaml:"resource"`
	Index      int     `yaml:"index"`
	Type       string  `yaml:"type"`
	Encoding   string  `yaml:"encoding"`
	SampleRate float64 `yaml:"sample_rate"`
	Channels   int     `yaml:"channels"`
	Bits       int     `yaml:"bits,omitempty"`
	FrameSize  int     `yaml:"frame_size,omitempty"`
	Frames     int64   `yaml:"frames,omitempty"`
	Duration   string  `yaml:"duration,omitempty"`
	Bytes      int64   `yaml:"bytes,omitempty"`
	Bitrate    int     `yaml:"bitrate,omitempty"`
	VBR        *bool   `yaml:"vbr,omitempty"`
}

func newProbeResult(resource string, idx int, fd format.FileDescriptor) probeResult {
	f := fd.Format
	r := probeResult{
		Resource:   resource,
		Index:      idx,
		Type:       fd.Type.String(),
		Encoding:   f.Encoding.Name(),
		SampleRate: f.SampleRate,
		Channels:   f.Channels,
		VBR:        f.VBR,
	}

	if f.BitsPerSample > 0 {
		r.Bits = f.BitsPerSample
	}

	if f.FrameSize > 0 {
		r.FrameSize = f.FrameSize
	}

	if fd.FrameLength > 0 {
		r.Frames = fd.FrameLength
	}

	if fd.Duration > 0 {
		r.Duration = (time.Duration(fd.Duration) * time.Microsecond).String()
	}

	if fd.ByteLength > 0 {
		r.Bytes = fd.ByteLength
	}

	if f.Bitrate > 0 {
		r.Bitrate = f.Bitrate
	}

	return r
}

func newProbeCmd(a *app) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "probe <resource>...",
		Short: "Describe the audio streams of resources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var results []probeResult

			for _, res := range args {
				fds, err := a.pipeline.Probe(res)
				if err != nil {
					return err
				}

				for i, fd := range fds {
					results = append(results, newProbeResult(res, i, fd))
				}
			}

			if asYAML {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()

				return enc.Encode(results)
			}

			return printProbe(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print YAML")

	return cmd
}

func printProbe(w io.Writer, results []probeResult) error {
	for _, r := range results {
		_, err := fmt.Fprintf(w, "%s #%d: %s %s, %g Hz, %d ch", r.Resource, r.Index, r.Type, r.Encoding, r.SampleRate, r.Channels)
		if err != nil {
			return err
		}

		if r.Bits > 0 {
			fmt.Fprintf(w, ", %d bit", r.Bits)
		}

		if r.Frames > 0 {
			fmt.Fprintf(w, ", %d frames", r.Frames)
		}

		if r.Duration != "" {
			fmt.Fprintf(w, ", %s", r.Duration)
		}

		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return nil
}
