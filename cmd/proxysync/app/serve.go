// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nasops/proxysync/pkg/api"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var (
		host        string
		port        int
		openBrowser bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		Long: `Starts a read-only HTTP API with the inventory, the reconciliation report, rule
validation and Prometheus metrics. Every request works on a fresh snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Ensure server is shutdown gracefully on Ctrl+C.
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			sess, err := newSession(ctx, opts)
			if err != nil {
				return err
			}
			defer sess.close()

			address := net.JoinHostPort(host, strconv.Itoa(port))
			return api.Serve(ctx, address, sess.Syncer, openBrowser)
		},
	}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind the server to")
	cmd.Flags().IntVar(&port, "port", 8080, "Port to bind the server to")
	cmd.Flags().BoolVar(&openBrowser, "open", false, "Open the report in the default browser once the server is up")
	return cmd
}
