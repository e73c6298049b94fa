package main

import (
	"os"

	"github.com/rami3l/canterbury/cmd"
)

func main() {
	if err := cmd.App().Execute(); err != nil {
		os.Exit(1)
	}
}
