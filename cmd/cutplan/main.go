// cutplan plans guillotine cuts of rectangular pieces from sheet stock.
//
// Build:
//
//	go build -o cutplan ./cmd/cutplan
//
// Typical use:
//
//	cutplan import parts.csv --sheets stock.csv --out kitchen.yaml
//	cutplan optimize kitchen.yaml --mode sheets --pdf kitchen.pdf
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
