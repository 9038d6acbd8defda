// Command elnimport imports ELN export archives into a configured store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "elnimport:", err)
		os.Exit(1)
	}
}
