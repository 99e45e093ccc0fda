package main

import (
	"os"

	"obscura/cmd/obscura/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
