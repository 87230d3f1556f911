package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/icpml/canister-uploader/internal/config"
	"github.com/icpml/canister-uploader/internal/dfx"
	"github.com/icpml/canister-uploader/internal/hfcache"
	"github.com/icpml/canister-uploader/internal/uploader"
	"github.com/spf13/cobra"
)

// statusCmd creates a new status command that queries the canister's model
// info without uploading anything.
func statusCmd() *cobra.Command {
	var (
		path     string
		canister string
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Parse(path)
			if err != nil {
				return err
			}
			if canister != "" {
				c.Canister.Name = canister
			}
			if err := c.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer cancel()

			dfxClient := dfx.NewClient(c.Canister.DfxBin, c.Canister.CallTimeout)
			u := uploader.New(&c, dfxClient, hfcache.NewCache(c.CacheDir), nil)

			out, err := u.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "Path to the config file")
	cmd.Flags().StringVar(&canister, "canister", "", "Canister name (overrides the config)")
	return cmd
}
