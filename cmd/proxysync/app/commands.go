// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the proxysync command-line application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nasops/proxysync/pkg/config"
	"github.com/nasops/proxysync/pkg/logger"
)

// NewRootCmd creates a new root command for the proxysync CLI.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:               "proxysync",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Reconcile NAS container services with reverse proxy rules",
		Long: `proxysync compares the containers running on a NAS with the reverse proxy rules
of its Synology gateway. It reports services that have no rule, rules that point at
nothing, and pairs that are in sync, and it can create or delete rules to close the gap.

Containers are read from Portainer, or from a local Docker or Podman socket.`,
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				logger.Errorf("Error displaying help: %v", err)
			}
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
	}

	// Add persistent flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	if err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Path to the config file (default $XDG_CONFIG_HOME/proxysync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile,
		"Dotenv file with connection overrides and passwords")

	// Add subcommands
	rootCmd.AddCommand(newScanCmd(opts))
	rootCmd.AddCommand(newConflictsCmd(opts))
	rootCmd.AddCommand(newSyncCmd(opts))
	rootCmd.AddCommand(newCreateCmd(opts))
	rootCmd.AddCommand(newRulesCmd(opts))
	rootCmd.AddCommand(newExportCmd(opts))
	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
