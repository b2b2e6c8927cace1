package main

import (
	"os"

	"github.com/rpgo/projection-engine/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
