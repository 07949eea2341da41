// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Environment variables that override the config file. A .env file in the
// working directory is read as well; real environment variables win.
const (
	EnvPortainerHost     = "PORTAINER_HOST"
	EnvPortainerPort     = "PORTAINER_PORT"
	EnvPortainerUsername = "PORTAINER_USERNAME"
	EnvPortainerPassword = "PORTAINER_PASSWORD"
	EnvSynologyHost      = "SYNOLOGY_HOST"
	EnvSynologyPort      = "SYNOLOGY_PORT"
	EnvSynologyUsername  = "SYNOLOGY_USERNAME"
	EnvSynologyPassword  = "SYNOLOGY_PASSWORD"
	EnvDomainSuffix      = "PROXYSYNC_DOMAIN_SUFFIX"
	EnvBackendHost       = "PROXYSYNC_BACKEND_HOST"
)

// DefaultEnvFile is the dotenv file looked up in the working directory.
const DefaultEnvFile = ".env"

// Credentials holds secrets that are never written to the config file.
type Credentials struct {
	PortainerPassword string
	SynologyPassword  string
}

// NewEnv returns a viper instance reading the process environment and, if
// it exists, the dotenv file at envFile.
func NewEnv(envFile string) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()

	if envFile == "" {
		return v, nil
	}
	if _, err := os.Stat(envFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", envFile, err)
	}

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}
	return v, nil
}

// ApplyEnv overrides config values with the ones set in v.
func ApplyEnv(c *Config, v *viper.Viper) {
	setString(v, EnvPortainerHost, &c.Portainer.Host)
	setInt(v, EnvPortainerPort, &c.Portainer.Port)
	setString(v, EnvPortainerUsername, &c.Portainer.Username)
	setString(v, EnvSynologyHost, &c.Synology.Host)
	setInt(v, EnvSynologyPort, &c.Synology.Port)
	setString(v, EnvSynologyUsername, &c.Synology.Username)
	setString(v, EnvDomainSuffix, &c.DomainSuffix)
	setString(v, EnvBackendHost, &c.DefaultBackendHost)
}

// CredentialsFromEnv returns the passwords set in v. Missing values are empty.
func CredentialsFromEnv(v *viper.Viper) Credentials {
	return Credentials{
		PortainerPassword: v.GetString(EnvPortainerPassword),
		SynologyPassword:  v.GetString(EnvSynologyPassword),
	}
}

// viper lowercases keys internally; AutomaticEnv upper-cases them again for
// the environment lookup, so the variable name can be used as the key.
func setString(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}

func setInt(v *viper.Viper, key string, dst *int) {
	if n := v.GetInt(key); n != 0 {
		*dst = n
	}
}
