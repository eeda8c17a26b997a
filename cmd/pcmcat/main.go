// SPDX-License-Identifier: EPL-2.0

// Command pcmcat probes audio resources and decodes them to PCM.
//
// Usage:
//
//	pcmcat [flags] <command> [args]
//
// Commands:
//
//	probe    - describe the audio streams of one or more resources
//	decode   - decode a resource to WAV or raw PCM
//	formats  - list the accepted source and target encodings
//
// Configuration:
//
//	An optional YAML file given with --config sets defaults; flags override
//	it. See commands.Config for the keys.
package main

import (
	"fmt"
	"os"

	"github.com/ik5/pcmstream/cmd/pcmcat/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
