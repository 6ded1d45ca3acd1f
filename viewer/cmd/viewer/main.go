package main

import (
	"os"

	"github.com/obsidianstack/showroom/viewer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
