package main

import (
	"os"

	"github.com/SscSPs/schoolbooks/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
