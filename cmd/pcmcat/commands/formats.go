// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ik5/pcmstream/format"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List accepted source and target encodings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			fmt.Fprintln(w, "Source encodings:")
			for _, e := range format.SourceEncodings() {
				fmt.Fprintf(w, "  %s\n", e.Name())
			}

			fmt.Fprintln(w, "Target layouts:")
			for _, enc := range format.TargetEncodings() {
				for _, d := range format.TargetLayouts(enc, format.Descriptor{}) {
					fmt.Fprintf(w, "  %s %d bit %d ch\n", d.Encoding.Name(), d.BitsPerSample, d.Channels)
				}
			}

			return nil
		},
	}
}
