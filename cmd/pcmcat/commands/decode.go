// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/format"
	"github.com/ik5/pcmstream/formats/wav"
	"github.com/ik5/pcmstream/stream"
)

// decodeChunk is how many frames the WAV file writer moves per call.
const decodeChunk = 4096

type decodeFlags struct {
	output string
	raw    bool
	start  time.Duration
	target Target
}

func newDecodeCmd(a *app) *cobra.Command {
	var df decodeFlags

	cmd := &cobra.Command{
		Use:   "decode <resource>",
		Short: "Decode a resource to WAV or raw PCM",
		Long: `Decode the first audio stream of a resource.

Output is WAV unless --raw is given. WAV output is always little-endian,
unsigned at 8 bits and signed or float otherwise. Without -o, or with -o -,
the result goes to stdout; a WAV header on stdout carries an open-ended
data size.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			t := a.cfg.Target

			if flags.Changed("encoding") {
				t.Encoding = df.target.Encoding
			}

			if flags.Changed("rate") {
				t.Rate = df.target.Rate
			}

			if flags.Changed("bits") {
				t.Bits = df.target.Bits
			}

			if flags.Changed("channels") {
				t.Channels = df.target.Channels
			}

			if flags.Changed("big-endian") {
				t.BigEndian = df.target.BigEndian
			}

			df.target = t

			return a.decode(cmd, args[0], df)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&df.output, "output", "o", "", "output file (default: stdout)")
	f.BoolVar(&df.raw, "raw", false, "write headerless PCM")
	f.DurationVar(&df.start, "start", 0, "start offset")
	f.StringVar(&df.target.Encoding, "encoding", "", "PCM_SIGNED, PCM_UNSIGNED, PCM_FLOAT or a concrete PCM name")
	f.Float64Var(&df.target.Rate, "rate", 0, "output sample rate")
	f.IntVar(&df.target.Bits, "bits", 0, "output bits per sample")
	f.IntVar(&df.target.Channels, "channels", 0, "output channels (1 or 2)")
	f.BoolVar(&df.target.BigEndian, "big-endian", false, "big-endian samples (raw output only)")

	return cmd
}

// wavLayout forces d into a layout a WAV file can hold.
func wavLayout(d format.Descriptor) format.Descriptor {
	d.BigEndian = false

	switch {
	case d.Encoding.Kind() == format.KindPCMFloat:
	case d.BitsPerSample == 8:
		d.Encoding = format.PCMUnsigned
	default:
		d.Encoding = format.PCMSigned
	}

	return d
}

func (a *app) open(cmd *cobra.Command, resource string) (*stream.Peer, error) {
	if resource == "-" {
		return a.pipeline.OpenReader(cmd.InOrStdin(), 0)
	}

	return a.pipeline.Open(resource, 0)
}

func (a *app) decode(cmd *cobra.Command, resource string, df decodeFlags) error {
	src, err := a.open(cmd, resource)
	if err != nil {
		return err
	}
	defer src.Close()

	if df.start > 0 {
		if err := src.Seek(df.start); err != nil {
			return err
		}
	}

	target, err := df.target.Descriptor(src.Format())
	if err != nil {
		return err
	}

	if !df.raw {
		target = wavLayout(target)
	}

	out, err := a.pipeline.Convert(target, src)
	if err != nil {
		return err
	}

	a.logger.Debug("decoding", "resource", resource, "stream", out.ID(), "format", out.Format().String())

	toStdout := df.output == "" || df.output == "-"

	switch {
	case df.raw && toStdout:
		_, err = io.Copy(cmd.OutOrStdout(), out)
		return err
	case toStdout:
		return writeWAVStream(cmd.OutOrStdout(), out)
	}

	f, err := os.Create(df.output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	if df.raw {
		_, err = io.Copy(f, out)
	} else {
		err = writeWAVFile(f, out)
	}

	return errors.Join(err, f.Close())
}

func wavTag(d format.Descriptor) int {
	if d.Encoding.Kind() == format.KindPCMFloat {
		return wav.FormatFloat
	}

	return wav.FormatPCM
}

// writeWAVStream writes an open-ended header followed by the samples.
func writeWAVStream(w io.Writer, s stream.Stream) error {
	d := s.Format()

	if err := wav.WriteHeader(w, wavTag(d), int(d.SampleRate), d.Channels, d.BitsPerSample, wav.UnknownLength); err != nil {
		return err
	}

	_, err := io.Copy(w, s)

	return err
}

// writeWAVFile writes a WAV file with exact sizes. Integer PCM goes through
// the go-audio encoder; float PCM is copied and its header rewritten.
func writeWAVFile(f *os.File, s stream.Stream) error {
	d := s.Format()

	if d.Encoding.Kind() == format.KindPCMFloat {
		if err := wav.WriteHeader(f, wav.FormatFloat, int(d.SampleRate), d.Channels, d.BitsPerSample, wav.UnknownLength); err != nil {
			return err
		}

		n, err := io.Copy(f, s)
		if err != nil {
			return err
		}

		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewinding output: %w", err)
		}

		return wav.WriteHeader(f, wav.FormatFloat, int(d.SampleRate), d.Channels, d.BitsPerSample, n)
	}

	codec, err := audio.NewPCMCodec(d)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, int(d.SampleRate), d.Channels, d.BitsPerSample)
	buf := make([]byte, decodeChunk*d.FrameSize)
	ints := make([]int, decodeChunk*d.Channels)

	for {
		n, rerr := io.ReadFull(s, buf)
		n -= n % d.FrameSize

		if n > 0 {
			got := codec.DecodeInts(ints, buf[:n])
			if err := enc.Write(ints[:got]); err != nil {
				return err
			}
		}

		if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
			break
		}

		if rerr != nil {
			return rerr
		}
	}

	return enc.Close()
}
