package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/celestiaorg/gcpiac/cmd/gcpiac/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		if !errors.Is(err, commands.ErrReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
