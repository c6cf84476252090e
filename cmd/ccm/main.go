// Package main implements the ccm CLI. It reports the DFS control-flow
// complexity of every function in LLVM IR, Go, Python or serialized CFG
// files.
package main

import (
	"fmt"
	"os"

	"github.com/l3aro/go-cfg-complexity/cmd/ccm/commands"
)

var version = "dev"

func main() {
	if err := commands.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "ccm: %v\n", err)
		os.Exit(1)
	}
}
