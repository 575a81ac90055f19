package main

import (
	stderrors "errors"
	"os"

	"github.com/grovetools/layman/cli"
	"github.com/grovetools/layman/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		if !stderrors.Is(err, cmd.ErrSilent) {
			verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
			cli.NewErrorHandler(verbose).Handle(err)
		}
		os.Exit(1)
	}
}
