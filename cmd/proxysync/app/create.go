// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nasops/proxysync/cmd/proxysync/app/ui"
	"github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/reconcile"
	"github.com/nasops/proxysync/pkg/rules"
)

type createOptions struct {
	domain      string
	backendHost string
	websocket   string
}

func newCreateCmd(opts *globalOptions) *cobra.Command {
	co := &createOptions{}
	cmd := &cobra.Command{
		Use:   "create SERVICE",
		Short: "Create the suggested rule for a service that has none",
		Long: `Create the rule suggested by the report for one service that is missing a rule.
The suggestion can be adjusted with flags before it is validated and created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			rule, err := co.suggestion(report, args[0])
			if err != nil {
				return err
			}

			result, err := sess.CreateRule(ctx, rule)
			ui.RenderValidation(cmd.OutOrStdout(), result)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s → %s\n", ui.Success("created"), rule.Frontend(), rule.Backend())
			return nil
		},
	}

	cmd.Flags().StringVar(&co.domain, "domain", "", "Frontend domain (default <service>.<domain_suffix>)")
	cmd.Flags().StringVar(&co.backendHost, "backend-host", "", "Backend host (default from the config file)")
	cmd.Flags().StringVar(&co.websocket, "websocket", "", "Override WebSocket detection (true or false)")
	return cmd
}

// suggestion returns the suggested rule for service, with the flag
// overrides applied.
func (co *createOptions) suggestion(report reconcile.Report, service string) (rules.ProxyRule, error) {
	for _, m := range report.Missing {
		if !strings.EqualFold(m.Service.Name, service) {
			continue
		}
		rule := m.Suggested
		if co.domain != "" {
			rule.FrontendDomain = co.domain
		}
		if co.backendHost != "" {
			rule.BackendHost = co.backendHost
		}
		switch strings.ToLower(co.websocket) {
		case "":
		case "true", "yes":
			rule.WebSocket = true
		case "false", "no":
			rule.WebSocket = false
		default:
			return rules.ProxyRule{}, errors.NewInvalidArgumentError(
				fmt.Sprintf("invalid --websocket value %q", co.websocket), nil)
		}
		return rule, nil
	}

	for _, p := range report.InSync {
		if strings.EqualFold(p.Service.Name, service) {
			return rules.ProxyRule{}, errors.NewInvalidArgumentError(
				fmt.Sprintf("service %q already has rule %q", service, p.Rule.Description), nil)
		}
	}
	return rules.ProxyRule{}, errors.NewNotFoundError(
		fmt.Sprintf("service %q is not a running service that needs a proxy rule", service), nil)
}
