// Package main is the binstream command line tool.
//
// Usage:
//
//	binstream [flags] <command> [args]
//
// Commands:
//
//	pack     - Encode typed values to binary
//	unpack   - Decode binary as a list of typed values
//	varint   - Encode and decode varints
//	inspect  - Show how input lays out in buffer blocks
package main

import (
	"fmt"
	"os"

	"github.com/stewi1014/binstream/cmd/binstream/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
