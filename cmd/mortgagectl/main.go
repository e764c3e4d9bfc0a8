// Package main is the entry point for the mortgagectl CLI.
package main

import (
	"os"

	"github.com/boddenberg/mortgage-estimator-go/cmd/mortgagectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
