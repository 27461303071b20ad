// Package main provides the sitecheck command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	exitPassed = 0
	exitFailed = 1
	exitFatal  = 2
)

var rootCmd = &cobra.Command{
	Use:   "sitecheck",
	Short: "Discoverability and metadata validator for content sites",
	Long: "sitecheck scans the source tree of a multi-page site, rebuilds its page inventory and internal link graph, " +
		"and reports canonical, Open Graph, image and link issues with a pass/fail verdict for CI.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	os.Exit(exitCode(rootCmd.Execute()))
}

// exitCode prints err and maps it to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitPassed
	}
	var failed *failedError
	if errors.As(err, &failed) {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitFailed
	}
	// Config, usage and stage failures all stop the tool before a verdict exists.
	_, _ = fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
	return exitFatal
}

// failedError reports a completed run whose verdict is a failure.
type failedError struct {
	Blocking int
}

func (e *failedError) Error() string {
	return fmt.Sprintf("validation failed: %d blocking issue(s)", e.Blocking)
}
