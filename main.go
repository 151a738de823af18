// Package main is the entry point for the karton CLI application.
package main

import (
	"os"

	"github.com/wellmaintained/karton/cmd"
	"github.com/wellmaintained/karton/internal/errors"
	"github.com/wellmaintained/karton/internal/ui"
)

var version = "dev"

func main() {
	cmd.SetVersion(version)
	if err := cmd.Execute(); err != nil {
		ui.Error(os.Stderr, err)
		os.Exit(errors.GetExitCode(err))
	}
}
