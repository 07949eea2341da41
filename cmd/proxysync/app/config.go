// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nasops/proxysync/pkg/config"
	"github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/validation"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and edit the proxysync configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the location of the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.NewLocalStore(opts.configPath).Path()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration, including environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(cmd.Context(), opts)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(s.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set-domain-suffix SUFFIX",
		Short: "Set the domain suffix used for suggested rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateHost(args[0]); err != nil {
				return errors.NewInvalidArgumentError("invalid domain suffix", err)
			}
			if err := config.UpdateConfigAtPath(cmd.Context(), opts.configPath, func(c *config.Config) {
				c.DomainSuffix = args[0]
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Domain suffix set to %s\n", args[0])
			return nil
		},
	})
	return cmd
}
