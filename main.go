package main

import (
	"context"
	"os"

	"github.com/obinexuscomputing/fork/pkg/cli"
)

func main() {
	os.Exit(cli.ExitCode(cli.Run(context.Background(), os.Args)))
}
