// Package cli implements the ragdesk commands.
package cli

import (
	"fmt"
	"os"

	"ragdesk/config"

	"github.com/spf13/cobra"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "ragdesk",
	Short: "Document question answering with a booking assistant",
	Long:  "Answers questions over your uploaded documents and takes callback or appointment requests in the same conversation.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadConfig()
	},
}

// Execute runs the root command.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

// mustValidate stops before any session starts when required settings are missing.
func mustValidate() {
	if err := config.AppConfig.Validate(); err != nil {
		exitErr("configuration", err)
	}
}
