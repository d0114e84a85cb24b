// Package main provides queryctl, a CLI that parses JSON:API query strings
// and prints the resulting query and SQL.
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
