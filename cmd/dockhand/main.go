package main

import (
	"os"

	"github.com/mgiraud/dockhand/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
