package main

import (
	"os"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess = 0
	ExitFailure = 1
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	exitCode := ExitSuccess
	cmd := NewRootCommand(os.Stdout, os.Stderr, &exitCode)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		// Flag and argument errors from cobra itself.
		cmd.PrintErrln("Error:", err)
		return ExitFailure
	}
	return exitCode
}
