// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nasops/proxysync/cmd/proxysync/app/ui"
	"github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/inventory"
)

type scanOptions struct {
	format     string
	state      string
	needsProxy string
	search     string
}

func newScanCmd(opts *globalOptions) *cobra.Command {
	so := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List container services and their proxy classification",
		Long: `List every container service found by the inventory source, grouped by stack,
with its published ports, the port used for proxy matching, and whether it needs a
reverse proxy rule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, opts, so)
		},
	}

	addFormatFlag(cmd, &so.format)
	cmd.Flags().StringVar(&so.state, "state", "", "Only show services in this state (running, stopped, unknown)")
	cmd.Flags().StringVar(&so.needsProxy, "needs-proxy", "", "Only show services that need (true) or do not need (false) a proxy")
	cmd.Flags().StringVarP(&so.search, "search", "s", "", "Only show services whose name contains this text")
	return cmd
}

func (so *scanOptions) filter() (inventory.Filter, error) {
	f := inventory.Filter{Search: so.search}
	if so.state != "" {
		state := inventory.State(so.state)
		switch state {
		case inventory.StateRunning, inventory.StateStopped, inventory.StateUnknown:
			f.State = state
		default:
			return f, errors.NewInvalidArgumentError(fmt.Sprintf("invalid state %q", so.state), nil)
		}
	}
	if so.needsProxy != "" {
		b, err := strconv.ParseBool(so.needsProxy)
		if err != nil {
			return f, errors.NewInvalidArgumentError(fmt.Sprintf("invalid --needs-proxy value %q", so.needsProxy), err)
		}
		f.NeedsProxy = &b
	}
	return f, nil
}

func runScan(cmd *cobra.Command, opts *globalOptions, so *scanOptions) error {
	if err := validateFormat(so.format); err != nil {
		return err
	}
	filter, err := so.filter()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := newSession(ctx, opts)
	if err != nil {
		return err
	}
	defer sess.close()

	services, err := sess.Services(ctx)
	if err != nil {
		return fmt.Errorf("failed to list services: %w", err)
	}
	shown := filter.Apply(services)

	out := cmd.OutOrStdout()
	if so.format == FormatJSON {
		return printJSON(out, shown)
	}
	if err := ui.RenderInventory(out, shown); err != nil {
		return err
	}
	ui.RenderStats(out, inventory.ComputeStats(services))
	return nil
}
