// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"github.com/spf13/cobra"

	"github.com/nasops/proxysync/pkg/rules"
)

// ruleFlags describes a rule on the command line.
type ruleFlags struct {
	description  string
	domain       string
	frontendPort int
	backendHost  string
	backendPort  int
	hsts         bool
	websocket    bool
}

func (f *ruleFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.description, "description", "", "Rule description, unique on the gateway")
	cmd.Flags().StringVar(&f.domain, "domain", "", "Frontend domain, e.g. sonarr.home.example.com")
	cmd.Flags().IntVar(&f.frontendPort, "frontend-port", rules.DefaultFrontendPort, "Frontend HTTPS port")
	cmd.Flags().StringVar(&f.backendHost, "backend-host", "", "Backend host (default from the config file)")
	cmd.Flags().IntVar(&f.backendPort, "backend-port", 0, "Backend port")
	cmd.Flags().BoolVar(&f.hsts, "hsts", true, "Enable HSTS on the frontend")
	cmd.Flags().BoolVar(&f.websocket, "websocket", false, "Add the WebSocket upgrade headers")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("backend-port")
}

func (f *ruleFlags) rule(defaultBackendHost string) rules.ProxyRule {
	host := f.backendHost
	if host == "" {
		host = defaultBackendHost
	}
	return rules.ProxyRule{
		Description:    f.description,
		FrontendDomain: f.domain,
		FrontendPort:   f.frontendPort,
		BackendHost:    host,
		BackendPort:    f.backendPort,
		HSTS:           f.hsts,
		WebSocket:      f.websocket,
	}
}
