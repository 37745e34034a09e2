// Package main provides the ClipKAN CLI.
package main

import (
	"fmt"
	"os"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("ClipKAN %s\n", version)
		return
	}

	fmt.Println("ClipKAN - norm-clipped optimization for spline networks")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("")
	fmt.Println("See examples/mnist for a complete training program.")
}
