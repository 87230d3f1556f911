package main

import "github.com/spf13/cobra"

// rootCmd is the root of the command-line application.
var rootCmd = &cobra.Command{
	Use:   "canister-uploader",
	Short: "canister-uploader",
}

func init() {
	rootCmd.AddCommand(uploadCmd())
	rootCmd.AddCommand(requestCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.SilenceUsage = true
}
