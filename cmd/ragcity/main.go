// Package main provides the entry point for the ragcity CLI.
package main

import (
	"os"

	"github.com/deesatzed/newragcity-sub001/cmd/ragcity/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
