// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nasops/proxysync/cmd/proxysync/app/ui"
	"github.com/nasops/proxysync/pkg/errors"
)

func newValidateCmd(opts *globalOptions) *cobra.Command {
	flags := &ruleFlags{}
	var format string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a rule against the gateway's rules without creating it",
		Long: `Check a candidate rule for duplicate descriptions, duplicate domains and backend
port collisions, and print the lowest free backend port at or above the port floor.
The command fails when the rule has errors.`,
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

			rule := flags.rule(sess.cfg.DefaultBackendHost)
			result, err := sess.Validate(ctx, rule)
			if err != nil {
				return err
			}

			if format == FormatJSON {
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				ui.RenderValidation(cmd.OutOrStdout(), result)
			}
			if !result.IsValid {
				return errors.NewInvalidArgumentError(fmt.Sprintf("rule %q is invalid", rule.Description), nil)
			}
			return nil
		},
	}
	flags.bind(cmd)
	addFormatFlag(cmd, &format)
	return cmd
}
