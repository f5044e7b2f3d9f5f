package main

import (
	"os"

	"kas/cmd/kas/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
