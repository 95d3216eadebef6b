// Package main provides the entry point for the lexdebate CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/lexdebate/cmd/lexdebate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
