package main

import (
	"os"

	"github.com/rustyeddy/trialsim/cmd/trial/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
