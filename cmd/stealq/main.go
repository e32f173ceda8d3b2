package main

import (
	"os"

	"github.com/symonk/stealq/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
