package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/adverant/nexus/landrecord-worker/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if !errors.Is(err, cli.ErrRunFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
