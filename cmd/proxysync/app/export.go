// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/export"
)

func newExportCmd(opts *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:       "export inventory|report",
		Short:     "Export the inventory or the reconciliation report as CSV",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(export.KindInventory), string(export.KindReport)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := export.ParseKind(args[0])
			if err != nil {
				return errors.NewInvalidArgumentError(err.Error(), nil)
			}
			if output == "" {
				output = fmt.Sprintf("proxysync-%s.csv", kind)
			}

			ctx := cmd.Context()
			sess, err := newSession(ctx, opts)
			if err != nil {
				return err
			}
			defer sess.close()

			var write func(io.Writer) error
			switch kind {
			case export.KindInventory:
				services, err := sess.Services(ctx)
				if err != nil {
					return err
				}
				write = func(w io.Writer) error { return export.WriteInventory(w, services) }
			case export.KindReport:
				_, report, err := sess.Report(ctx)
				if err != nil {
					return err
				}
				write = func(w io.Writer) error { return export.WriteReport(w, report) }
			}

			if err := export.ToFile(output, write); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", kind, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV file to write (default proxysync-<kind>.csv)")
	return cmd
}
