package main

import (
	"os"

	"weave/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
