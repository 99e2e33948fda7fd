// Package main is the entry point for the QueryMind CLI application.
// It turns natural-language questions into SQL through the QueryMind backend.
package main

import (
	"querymind/cli/cmd"
)

func main() {
	cmd.Execute()
}
