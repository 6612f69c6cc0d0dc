package main

import (
	"os"

	"github.com/oriproj/ori/cmd/ori/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
