package main

import (
	"fmt"
	"os"

	"github.com/fakeyudi/devtrack/cmd"
)

// Set via ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("devtrack %s (built: %s)\n", version, buildTime)
		os.Exit(0)
	}

	cmd.Execute()
}
