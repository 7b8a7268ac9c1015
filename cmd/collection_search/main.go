// Package main provides the collection search command line tool.
//
// Usage:
//
//	collection_search serve [--config server.yaml]
//	collection_search run -f items.csv -P 1 -G 1:2:1 --maxcost 50 [flags]
//	collection_search run --definition problem.yaml [flags]
package main

import (
	"fmt"
	"os"

	"github.com/gcbaptista/go-collection-search/cmd/collection_search/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
