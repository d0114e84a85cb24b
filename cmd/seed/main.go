// Package main provides a CLI tool that creates the content schema and,
// optionally, loads demo data.
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
