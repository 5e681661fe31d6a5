package main

import (
	"os"

	"github.com/cvsift/cvsift/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
