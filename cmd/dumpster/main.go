package main

import (
	"os"

	"github.com/stelin41/super-fast-dumpster-diver/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
