// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nasops/proxysync/cmd/proxysync/app/ui"
	"github.com/nasops/proxysync/pkg/reconcile"
	"github.com/nasops/proxysync/pkg/syncer"
)

type syncOptions struct {
	format         string
	dryRun         bool
	yes            bool
	deleteOrphaned bool
}

type syncResult struct {
	Summary reconcile.Summary `json:"summary"`
	Report  reconcile.Report  `json:"report"`
	Created []syncer.Outcome  `json:"created,omitempty"`
	Deleted int               `json:"deleted"`
}

func newSyncCmd(opts *globalOptions) *cobra.Command {
	so := &syncOptions{}
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Compare services with proxy rules and create the missing rules",
		Long: `Reconcile the running services with the reverse proxy rules and print the
report. Services without a rule get one with the suggested domain and backend,
after a confirmation. Each rule is validated against the current rule set right
before it is created.

Orphaned rules are only deleted with --delete-orphaned.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, opts, so)
		},
	}

	addFormatFlag(cmd, &so.format)
	cmd.Flags().BoolVar(&so.dryRun, "dry-run", false, "Only print the report")
	cmd.Flags().BoolVarP(&so.yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&so.deleteOrphaned, "delete-orphaned", false, "Delete rules that no running service uses")
	return cmd
}

func runSync(cmd *cobra.Command, opts *globalOptions, so *syncOptions) error {
	if err := validateFormat(so.format); err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := newSession(ctx, opts)
	if err != nil {
		return err
	}
	defer sess.close()
	if err := sess.requireDomainSuffix(); err != nil {
		return err
	}

	_, report, err := sess.Report(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	result := syncResult{Summary: report.Summary(), Report: report}
	text := so.format == FormatText
	if text {
		if err := ui.RenderReport(out, report); err != nil {
			return err
		}
	}

	confirm := func(question string) bool {
		return so.yes || ui.Confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), question)
	}

	var runErr error
	if !so.dryRun && len(report.Missing) > 0 &&
		confirm(fmt.Sprintf("Create %d missing rule(s)?", len(report.Missing))) {
		result.Created, runErr = sess.CreateMissing(ctx, report.Missing)
		if text {
			ui.RenderOutcomes(out, result.Created)
		}
	}

	if runErr == nil && !so.dryRun && so.deleteOrphaned && len(report.Orphaned) > 0 &&
		confirm(fmt.Sprintf("Delete %d orphaned rule(s)?", len(report.Orphaned))) {
		result.Deleted, runErr = sess.DeleteOrphaned(ctx, report)
		if text && runErr == nil {
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("Deleted %d orphaned rule(s).", result.Deleted)))
		}
	}

	if !text {
		if err := printJSON(out, result); err != nil {
			return err
		}
	}
	return runErr
}
