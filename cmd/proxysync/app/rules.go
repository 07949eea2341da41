// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nasops/proxysync/cmd/proxysync/app/ui"
)

func newRulesCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage reverse proxy rules on the gateway",
	}
	cmd.AddCommand(newRulesListCmd(opts))
	cmd.AddCommand(newRulesAddCmd(opts))
	cmd.AddCommand(newRulesDeleteCmd(opts))
	return cmd
}

func newRulesListCmd(opts *globalOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reverse proxy rules",
		Args:  cobra.NoArgs,
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

			ruleSet, err := sess.Rules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}
			if format == FormatJSON {
				return printJSON(cmd.OutOrStdout(), ruleSet)
			}
			return ui.RenderRules(cmd.OutOrStdout(), ruleSet)
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func newRulesAddCmd(opts *globalOptions) *cobra.Command {
	flags := &ruleFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Validate and create a reverse proxy rule",
		Long: `Validate a rule against the gateway's current rules and create it. Duplicate
descriptions and domains are errors and block creation; a backend port already in
use is reported as a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess, err := newSession(ctx, opts)
			if err != nil {
				return err
			}
			defer sess.close()

			rule := flags.rule(sess.cfg.DefaultBackendHost)
			result, err := sess.CreateRule(ctx, rule)
			ui.RenderValidation(cmd.OutOrStdout(), result)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s → %s\n", ui.Success("created"), rule.Frontend(), rule.Backend())
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newRulesDeleteCmd(opts *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID [ID...]",
		Short: "Delete reverse proxy rules by identifier",
		Long:  `Delete rules by the identifier shown in "proxysync rules list".`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !ui.Confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete %d rule(s)?", len(args))) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}

			ctx := cmd.Context()
			sess, err := newSession(ctx, opts)
			if err != nil {
				return err
			}
			defer sess.close()

			if err := sess.DeleteRules(ctx, args); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Deleted %d rule(s).", len(args))))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
