// Command nskv works with keys, documents and batches of a namespace in a
// Redis-compatible store.
//
// Usage:
//
//	nskv --prefix app: scan 'user:*'
//	nskv --url redis://localhost:6379/0 json get user:1 '$.name'
//	echo "SET a 1" | nskv batch --tx
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/nskv/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
