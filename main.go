package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/jqshop/labelgen/cmd"
)

func main() {
	version, commit := cmd.BuildVersion()
	root := cmd.NewRootCmd()

	// fang adds completions, manpages and --version
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithCommit(commit),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
