// Command peerlinkctl is the operator tool for a peerlink database: it runs
// migrations and inspects or repairs connection state without the server.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗")+" "+err.Error())
		os.Exit(1)
	}
}
