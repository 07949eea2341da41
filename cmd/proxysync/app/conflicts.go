// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nasops/proxysync/cmd/proxysync/app/ui"
	"github.com/nasops/proxysync/pkg/inventory"
	"github.com/nasops/proxysync/pkg/reconcile"
)

type conflictsResult struct {
	PortConflicts []inventory.PortConflict `json:"port_conflicts"`
	SharedPorts   []reconcile.SharedPort   `json:"shared_ports"`
	NextFreePort  int                      `json:"next_free_port,omitempty"`
}

func newConflictsCmd(opts *globalOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Show services that resolve to the same port",
		Long: `Show ports claimed by more than one service, and rules that more than one
running service was paired with. Only one of those services is reachable through
the rule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			ctx := cmd.Context()
			sess, err := newSession(ctx, opts)
			if err != nil {
				return err
			}
			defer sess.close()

			snap, report, err := sess.Report(ctx)
			if err != nil {
				return err
			}

			result := conflictsResult{
				PortConflicts: inventory.PortConflicts(snap.Services),
				SharedPorts:   report.SharedPorts(),
			}
			if port, ok := inventory.NextAvailablePort(snap.Services, sess.cfg.PortFloor, maxPort+1); ok {
				result.NextFreePort = port
			}

			out := cmd.OutOrStdout()
			if format == FormatJSON {
				return printJSON(out, result)
			}
			if err := ui.RenderConflicts(out, result.PortConflicts, result.SharedPorts); err != nil {
				return err
			}
			if result.NextFreePort > 0 {
				fmt.Fprintf(out, "Next port not used by any service: %d\n", result.NextFreePort)
			}
			return nil
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}
