package main

import (
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/icpml/canister-uploader/internal/config"
	"github.com/icpml/canister-uploader/internal/uploader"
	"github.com/spf13/cobra"
)

// requestCmd creates a new request command.
// request command asks a running daemon-mode uploader to upload a model file
// and optionally waits for the upload to complete.
func requestCmd() *cobra.Command {
	var (
		path     string
		addr     string
		ggufFile string
		wait     bool
		logLevel int
	)
	cmd := &cobra.Command{
		Use:   "request",
		Short: "request",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Parse(path)
			if err != nil {
				return err
			}
			if ggufFile == "" {
				ggufFile = c.Model.GGUFFile
			}
			if addr == "" {
				if c.Daemon.Port <= 0 {
					return fmt.Errorf("daemon port must be set")
				}
				addr = fmt.Sprintf("localhost:%d", c.Daemon.Port)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer cancel()

			stdr.SetVerbosity(logLevel)
			ctx = logr.NewContext(ctx, stdr.New(log.Default()))

			client := uploader.NewClient(addr)
			if err := client.UploadModel(ctx, ggufFile); err != nil {
				return err
			}
			log.Printf("Queued the upload of %q\n", ggufFile)

			if !wait {
				return nil
			}

			log.Printf("Waiting for the upload to complete\n")
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					status, err := client.GetModel(ctx, ggufFile)
					if err != nil {
						return err
					}
					if status == http.StatusOK {
						log.Printf("Upload of %q completed\n", ggufFile)
						return nil
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "Path to the config file")
	cmd.Flags().StringVar(&addr, "addr", "", "Address of the upload server (defaults to the configured daemon port)")
	cmd.Flags().StringVar(&ggufFile, "gguf-file", "", "GGUF weights file to upload (overrides the config)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the upload completes")
	cmd.Flags().IntVar(&logLevel, "v", 0, "Log level")
	return cmd
}
