// Package main provides the entry point for the hrl CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/globalapptesting/hrl-go/interfaces/cli"
)

func main() {
	app := cli.New()

	if err := app.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
