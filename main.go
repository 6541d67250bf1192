// Package main provides the entry point for CacheSim.
// CacheSim is a cycle-level associative cache simulator built on Akita.
//
// For the full CLI, use: go run ./cmd/cachesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("CacheSim - Cycle-Level Cache Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: cachesim [options]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to system configuration JSON file")
	fmt.Println("  -scenario  Path to traffic scenario YAML file")
	fmt.Println("  -cycles    Override the scenario cycle limit")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cachesim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cachesim' instead.")
	}
}
