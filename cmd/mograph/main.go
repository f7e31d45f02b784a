// SPDX-License-Identifier: MIT

// Command mograph builds motion graphs from YAML clips, synthesizes walks
// along target paths and plays them back.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
