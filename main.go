package main

import (
	"os"

	"github.com/fernwood/fernwood/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
