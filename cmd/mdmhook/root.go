package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:   "mdmhook",
		Short: "MDM webhook receiver",
		Long: `mdmhook - MDM webhook receiver

Reacts to device lifecycle events from the MDM platform by reconciling
per-device manifests in object storage, device-group membership in the
directory, and chat notifications. Every invocation produces an audit
trail of what was done and how it went.`,
		Version: version,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
