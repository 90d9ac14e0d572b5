package main

import (
	"os"

	"github.com/synapsetools/synrel/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
