package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

// versionCmd creates a new version command.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("canister-uploader %s\n", version)
		},
	}
}
