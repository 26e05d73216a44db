package main

import (
	"context"
	"os"

	"github.com/jonwraymond/cmdbridge/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
