package main

import (
	"fmt"
	"os"

	"rpl/internal/cmd"
	"rpl/internal/termstyle"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, termstyle.Red("error: "+err.Error()))
		os.Exit(1)
	}
}
