// Package main is the surveygate entry point.
package main

import (
	"os"

	"github.com/leapstack-labs/surveygate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
