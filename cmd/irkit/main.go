// Command irkit builds, inspects and runs module recipes.
//
//	irkit build arith.yaml                    print textual IR
//	irkit build arith.yaml --emit wasm -o a.wasm
//	irkit inspect arith.yaml --metrics
//	irkit run arith.yaml add 40 2
//	irkit run arith.yaml -i                   interactive caller
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
