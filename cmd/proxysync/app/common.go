// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nasops/proxysync/pkg/config"
	"github.com/nasops/proxysync/pkg/container/docker"
	"github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/logger"
	"github.com/nasops/proxysync/pkg/networking"
	"github.com/nasops/proxysync/pkg/portainer"
	"github.com/nasops/proxysync/pkg/synology"
	"github.com/nasops/proxysync/pkg/syncer"
)

const maxPort = 65535

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	envFile    string
}

// settings is the effective configuration of one command run.
type settings struct {
	cfg   *config.Config
	creds config.Credentials
}

// loadSettings reads the config file and applies the environment and
// dotenv overrides on top of it.
func loadSettings(ctx context.Context, opts *globalOptions) (*settings, error) {
	cfg, err := config.LoadOrCreateConfigWithPath(ctx, opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	v, err := config.NewEnv(opts.envFile)
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(cfg, v)
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewInvalidArgumentError("invalid configuration", err)
	}

	return &settings{cfg: cfg, creds: config.CredentialsFromEnv(v)}, nil
}

// readPassword prompts for a password without echo. It is a variable so
// tests can replace it.
var readPassword = func(prompt string) (string, error) {
	fd := int(os.Stdin.Fd()) // #nosec G115 - file descriptors fit in an int
	if !term.IsTerminal(fd) {
		return "", errors.NewInvalidArgumentError(
			fmt.Sprintf("%s is not set and stdin is not a terminal", prompt), nil)
	}

	fmt.Fprintf(os.Stderr, "%s (input will be hidden): ", prompt)
	value, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // Move to the next line after hidden input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(value)), nil
}

func passwordOrPrompt(value, envName string) (string, error) {
	if value != "" {
		return value, nil
	}
	return readPassword(envName)
}

func newHTTPClient(cfg *config.Config) (*http.Client, error) {
	return networking.NewHttpClientBuilder().
		WithTimeout(cfg.RequestTimeout).
		WithCABundle(cfg.CACertificatePath).
		WithInsecureSkipVerify(cfg.InsecureSkipVerify).
		WithCookieJar().
		Build()
}

// newInventorySource builds the configured container inventory source.
func newInventorySource(ctx context.Context, s *settings, hc *http.Client) (syncer.InventorySource, error) {
	switch s.cfg.InventorySource {
	case config.SourceDocker:
		c, err := docker.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		logger.Debugf("reading containers from %s", c.SocketPath())
		return c, nil
	default:
		password, err := passwordOrPrompt(s.creds.PortainerPassword, config.EnvPortainerPassword)
		if err != nil {
			return nil, err
		}
		return portainer.NewClient(
			s.cfg.Portainer.BaseURL(),
			s.cfg.Portainer.Username,
			password,
			hc,
			portainer.WithEndpointIDs(s.cfg.Portainer.EndpointIDs...),
		), nil
	}
}

func newRuleStore(s *settings, hc *http.Client) (*synology.Client, error) {
	password, err := passwordOrPrompt(s.creds.SynologyPassword, config.EnvSynologyPassword)
	if err != nil {
		return nil, err
	}
	return synology.NewClient(s.cfg.Synology.BaseURL(), s.cfg.Synology.Username, password, hc), nil
}

// session is a Syncer wired to the configured collaborators.
type session struct {
	*syncer.Syncer
	cfg   *config.Config
	close func()
}

// newSession builds a session from the configuration. It is a variable so
// tests can inject collaborators.
var newSession = func(ctx context.Context, opts *globalOptions) (*session, error) {
	s, err := loadSettings(ctx, opts)
	if err != nil {
		return nil, err
	}

	hc, err := newHTTPClient(s.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	source, err := newInventorySource(ctx, s, hc)
	if err != nil {
		return nil, err
	}
	store, err := newRuleStore(s, hc)
	if err != nil {
		return nil, err
	}

	sy := syncer.New(source, store,
		syncer.WithPolicy(s.cfg.EffectivePolicy()),
		syncer.WithDefaultBackendHost(s.cfg.DefaultBackendHost),
		syncer.WithDomainSuffix(s.cfg.DomainSuffix),
		syncer.WithPortFloor(s.cfg.PortFloor),
	)

	return &session{
		Syncer: sy,
		cfg:    s.cfg,
		close: func() {
			// The context may already be cancelled by a signal.
			if err := store.Logout(context.WithoutCancel(ctx)); err != nil {
				logger.Debugf("failed to log out of DSM: %v", err)
			}
		},
	}, nil
}

// requireDomainSuffix fails when rule suggestions would have no domain.
func (s *session) requireDomainSuffix() error {
	if s.DomainSuffix() == "" {
		return errors.NewInvalidArgumentError(
			fmt.Sprintf("domain_suffix is not configured: set it in the config file or %s", config.EnvDomainSuffix), nil)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

func validateFormat(format string) error {
	switch format {
	case FormatText, FormatJSON:
		return nil
	default:
		return errors.NewInvalidArgumentError(
			fmt.Sprintf("invalid format %q (valid formats: %s, %s)", format, FormatText, FormatJSON), nil)
	}
}

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVar(format, "format", FormatText, "Output format (json or text)")
}
