// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config contains the definition of the application config structure
// and logic required to load and update it.
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"dario.cat/mergo"
	"github.com/adrg/xdg"

	"github.com/nasops/proxysync/pkg/inventory"
	"github.com/nasops/proxysync/pkg/validation"
)

// Inventory sources.
const (
	SourcePortainer = "portainer"
	SourceDocker    = "docker"
)

// Defaults for a fresh configuration file.
const (
	DefaultHost           = "notmyproblemnas"
	DefaultPortainerPort  = 9000
	DefaultPortainerUser  = "admin"
	DefaultSynologyPort   = 5000
	DefaultPortFloor      = 8000
	DefaultRequestTimeout = 30 * time.Second
)

// Config represents the configuration of the application.
type Config struct {
	Portainer          Portainer        `yaml:"portainer"`
	Synology           Synology         `yaml:"synology"`
	InventorySource    string           `yaml:"inventory_source"`
	DomainSuffix       string           `yaml:"domain_suffix"`
	DefaultBackendHost string           `yaml:"default_backend_host"`
	PortFloor          int              `yaml:"port_floor"`
	InsecureSkipVerify bool             `yaml:"insecure_skip_verify"`
	CACertificatePath  string           `yaml:"ca_certificate_path,omitempty"`
	RequestTimeout     time.Duration    `yaml:"request_timeout"`
	Policy             inventory.Policy `yaml:"policy"`
}

// Portainer holds the connection settings of the Portainer API.
type Portainer struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Scheme   string `yaml:"scheme"`
	Username string `yaml:"username"`
	// EndpointIDs restricts the scan to these environments. Empty means all.
	EndpointIDs []int `yaml:"endpoint_ids,omitempty"`
}

// Synology holds the connection settings of the DSM web API.
type Synology struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Scheme   string `yaml:"scheme"`
	Username string `yaml:"username"`
}

// BaseURL returns the Portainer base URL, e.g. http://nas:9000.
func (p Portainer) BaseURL() string {
	return baseURL(p.Scheme, p.Host, p.Port)
}

// BaseURL returns the DSM base URL, e.g. http://nas:5000.
func (s Synology) BaseURL() string {
	return baseURL(s.Scheme, s.Host, s.Port)
}

func baseURL(scheme, host string, port int) string {
	if scheme == "" {
		scheme = "http"
	}
	u := url.URL{Scheme: scheme, Host: net.JoinHostPort(host, strconv.Itoa(port))}
	return u.String()
}

// EffectivePolicy returns the built-in policy extended with the configured tables.
func (c *Config) EffectivePolicy() inventory.Policy {
	return inventory.DefaultPolicy().Extend(c.Policy)
}

// Validate checks the configuration for values the collaborators cannot use.
func (c *Config) Validate() error {
	var errs []error

	if err := validateEndpoint("portainer", c.Portainer.Scheme, c.Portainer.Host, c.Portainer.Port); err != nil {
		errs = append(errs, err)
	}
	if err := validateEndpoint("synology", c.Synology.Scheme, c.Synology.Host, c.Synology.Port); err != nil {
		errs = append(errs, err)
	}

	switch c.InventorySource {
	case SourcePortainer, SourceDocker:
	default:
		errs = append(errs, fmt.Errorf("inventory_source must be %q or %q, got %q",
			SourcePortainer, SourceDocker, c.InventorySource))
	}

	if c.DomainSuffix != "" {
		if err := validation.ValidateHost(c.DomainSuffix); err != nil {
			errs = append(errs, fmt.Errorf("domain_suffix: %w", err))
		}
	}
	if err := validation.ValidateHost(c.DefaultBackendHost); err != nil {
		errs = append(errs, fmt.Errorf("default_backend_host: %w", err))
	}
	if err := validation.ValidatePort(c.PortFloor); err != nil {
		errs = append(errs, fmt.Errorf("port_floor: %w", err))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout cannot be negative"))
	}

	for _, o := range c.Policy.PortOverrides {
		if err := validation.ValidateKeyword(o.Keyword); err != nil {
			errs = append(errs, fmt.Errorf("policy.port_overrides: %w", err))
		}
		if err := validation.ValidatePort(o.Port); err != nil {
			errs = append(errs, fmt.Errorf("policy.port_overrides[%s]: %w", o.Keyword, err))
		}
	}
	for _, k := range append(append([]string{}, c.Policy.InternalKeywords...), c.Policy.WebSocketKeywords...) {
		if err := validation.ValidateKeyword(k); err != nil {
			errs = append(errs, fmt.Errorf("policy: %w", err))
		}
	}

	return errors.Join(errs...)
}

func validateEndpoint(name, scheme, host string, port int) error {
	if scheme != "" && scheme != "http" && scheme != "https" {
		return fmt.Errorf("%s.scheme must be http or https, got %q", name, scheme)
	}
	if err := validation.ValidateHost(host); err != nil {
		return fmt.Errorf("%s.host: %w", name, err)
	}
	if err := validation.ValidatePort(port); err != nil {
		return fmt.Errorf("%s.port: %w", name, err)
	}
	return nil
}

// defaultPathGenerator generates the default config path using xdg
var defaultPathGenerator = func() (string, error) {
	return xdg.ConfigFile("proxysync/config.yaml")
}

// getConfigPath is the current path generator, can be replaced in tests
var getConfigPath = defaultPathGenerator

// createNewConfigWithDefaults creates a new config with default values
func createNewConfigWithDefaults() Config {
	return Config{
		Portainer: Portainer{
			Host:     DefaultHost,
			Port:     DefaultPortainerPort,
			Scheme:   "http",
			Username: DefaultPortainerUser,
		},
		Synology: Synology{
			Host:   DefaultHost,
			Port:   DefaultSynologyPort,
			Scheme: "http",
		},
		InventorySource:    SourcePortainer,
		DefaultBackendHost: DefaultHost,
		PortFloor:          DefaultPortFloor,
		RequestTimeout:     DefaultRequestTimeout,
	}
}

// applyDefaults fills zero values left by older or hand-edited config files.
// Values present in the file are preserved.
func applyDefaults(c *Config) error {
	if err := mergo.Merge(c, createNewConfigWithDefaults()); err != nil {
		return fmt.Errorf("failed to apply config defaults: %w", err)
	}
	return nil
}

// LoadOrCreateConfigWithPath fetches the application configuration from a specific path.
// If configPath is empty, it uses the default path.
// If it does not already exist, it will create a new config file with default values.
func LoadOrCreateConfigWithPath(ctx context.Context, configPath string) (*Config, error) {
	return NewLocalStore(configPath).Load(ctx)
}

// UpdateConfigAtPath performs a locked update of the config at configPath.
// If configPath is empty, it uses the default path.
func UpdateConfigAtPath(ctx context.Context, configPath string, updateFn func(*Config)) error {
	return NewLocalStore(configPath).Update(ctx, updateFn)
}
