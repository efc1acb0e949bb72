// Command amplimix is the CLI entry point for the mixing engine: device
// enumeration, manual package playback, and a headless mixing
// benchmark (spec §5's control surface).
package main

import (
	"log"

	"github.com/amplimix/amplimix/cmd"
)

func main() {
	if err := cmd.RootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
