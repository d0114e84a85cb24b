// Package main is the entry point for the jsonapiq API server.
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd, err := NewRootCmd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
