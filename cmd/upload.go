package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/go-logr/stdr"
	"github.com/icpml/canister-uploader/internal/config"
	"github.com/icpml/canister-uploader/internal/dfx"
	"github.com/icpml/canister-uploader/internal/hfcache"
	"github.com/icpml/canister-uploader/internal/metrics"
	"github.com/icpml/canister-uploader/internal/prefetch"
	"github.com/icpml/canister-uploader/internal/s3"
	"github.com/icpml/canister-uploader/internal/uploader"
	"github.com/spf13/cobra"
)

// uploadCmd creates a new upload command.
// upload command sends the model weights, tokenizer and config to the
// canister and initializes the model. In daemon mode it keeps running and
// accepts further upload requests over HTTP.
func uploadCmd() *cobra.Command {
	var (
		path       string
		canister   string
		ggufFile   string
		daemonMode bool
		logLevel   int
	)
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "upload",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Parse(path)
			if err != nil {
				return err
			}
			if canister != "" {
				c.Canister.Name = canister
			}
			if ggufFile != "" {
				c.Model.GGUFFile = ggufFile
			}
			if err := c.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer cancel()

			stdr.SetVerbosity(logLevel)
			logger := stdr.New(log.Default())

			cache := hfcache.NewCache(c.CacheDir)

			if c.Prefetch.Enable {
				s3Client, err := s3.NewClient(ctx, c.Prefetch.S3)
				if err != nil {
					return err
				}
				d := prefetch.New(cache, c.Prefetch.PathPrefix, s3Client)
				for _, in := range []struct {
					repo string
					file string
				}{
					{c.Model.GGUFRepo, c.Model.GGUFFile},
					{c.Model.BaseRepo, "tokenizer.json"},
					{c.Model.BaseRepo, "config.json"},
				} {
					if err := d.Ensure(ctx, in.repo, in.file); err != nil {
						return err
					}
				}
			}

			dfxClient := dfx.NewClient(c.Canister.DfxBin, c.Canister.CallTimeout)

			if !daemonMode {
				u := uploader.New(&c, dfxClient, cache, nil)
				return u.Upload(ctx, "")
			}

			if c.Daemon.Port <= 0 {
				return fmt.Errorf("daemon port must be set on the daemon mode")
			}

			m := metrics.NewMetricsMonitor()
			defer m.UnregisterAllCollectors()

			u := uploader.New(&c, dfxClient, cache, m)
			srv := uploader.NewServer(u, logger)

			errCh := make(chan error)
			go func() {
				errCh <- srv.Start(c.Daemon.Port)
			}()

			go func() {
				errCh <- srv.ProcessUploadRequests(ctx)
			}()

			srv.QueueUploadRequest(c.Model.GGUFFile)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case err := <-errCh:
				return err
			}
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "Path to the config file")
	cmd.Flags().StringVar(&canister, "canister", "", "Canister name (overrides the config)")
	cmd.Flags().StringVar(&ggufFile, "gguf-file", "", "GGUF weights file to upload (overrides the config)")
	cmd.Flags().BoolVar(&daemonMode, "daemon-mode", false, "Keep running and accept upload requests over HTTP")
	cmd.Flags().IntVar(&logLevel, "v", 0, "Log level")
	return cmd
}
