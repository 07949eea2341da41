// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nasops/proxysync/pkg/config"
	"github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/inventory"
	"github.com/nasops/proxysync/pkg/rules"
	"github.com/nasops/proxysync/pkg/syncer"
	"github.com/nasops/proxysync/pkg/syncer/mocks"
)

var (
	testContainers = []inventory.RawContainer{
		{Name: "sonarr", Stack: "media", State: "running", Ports: []int{8989}, Image: "linuxserver/sonarr"},
		{Name: "radarr", Stack: "media", State: "running", Ports: []int{7878}, Image: "linuxserver/radarr"},
		{Name: "postgres", Stack: "db", State: "running", Ports: []int{5432}, Image: "postgres:16"},
	}
	testRules = []rules.RawRule{
		{ID: "1", Description: "sonarr", FrontendDomain: "sonarr.home.example.com", FrontendPort: 443,
			BackendHost: "nas", BackendPort: 8989, HSTS: true},
		{ID: "2", Description: "old-app", FrontendDomain: "old.home.example.com", FrontendPort: 443,
			BackendHost: "nas", BackendPort: 5000},
	}
)

type testEnv struct {
	source *mocks.MockInventorySource
	store  *mocks.MockRuleStore
}

// withTestSession replaces newSession with one backed by gomock collaborators.
func withTestSession(t *testing.T, domainSuffix string) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	env := &testEnv{
		source: mocks.NewMockInventorySource(ctrl),
		store:  mocks.NewMockRuleStore(ctrl),
	}

	original := newSession
	newSession = func(context.Context, *globalOptions) (*session, error) {
		cfg := &config.Config{DefaultBackendHost: "nas", PortFloor: 8000, DomainSuffix: domainSuffix}
		return &session{
			Syncer: syncer.New(env.source, env.store,
				syncer.WithDefaultBackendHost(cfg.DefaultBackendHost),
				syncer.WithDomainSuffix(cfg.DomainSuffix),
				syncer.WithPortFloor(cfg.PortFloor),
			),
			cfg:   cfg,
			close: func() {},
		}, nil
	}
	t.Cleanup(func() { newSession = original })
	return env
}

func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScanCommand_JSONFilter(t *testing.T) { //nolint:paralleltest // replaces newSession
	env := withTestSession(t, "home.example.com")
	env.source.EXPECT().ListContainers(gomock.Any()).Return(testContainers, nil)

	out, err := runCommand(t, "", "scan", "--format", "json", "--needs-proxy", "true", "--search", "arr")
	require.NoError(t, err)

	var services []inventory.ServiceRecord
	require.NoError(t, json.Unmarshal([]byte(out), &services))
	require.Len(t, services, 2)
	assert.Equal(t, "sonarr", services[0].Name)
	assert.Equal(t, 8989, services[0].ResolvedPort)
	assert.Equal(t, "radarr", services[1].Name)
}

func TestScanCommand_InvalidFlags(t *testing.T) { //nolint:paralleltest // replaces newSession
	withTestSession(t, "home.example.com")

	_, err := runCommand(t, "", "scan", "--state", "paused")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = runCommand(t, "", "scan", "--format", "yaml")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestSyncCommand_DryRun(t *testing.T) { //nolint:paralleltest // replaces newSession
	env := withTestSession(t, "home.example.com")
	env.source.EXPECT().ListContainers(gomock.Any()).Return(testContainers, nil)
	env.store.EXPECT().ListRules(gomock.Any()).Return(testRules, nil)

	out, err := runCommand(t, "", "sync", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Missing rules (1)")
	assert.Contains(t, out, "radarr.home.example.com")
	assert.Contains(t, out, "Orphaned rules (1)")
	assert.Contains(t, out, "old-app")
}

func TestSyncCommand_CreatesAndDeletes(t *testing.T) { //nolint:paralleltest // replaces newSession
	env := withTestSession(t, "home.example.com")
	env.source.EXPECT().ListContainers(gomock.Any()).Return(testContainers, nil)
	env.store.EXPECT().ListRules(gomock.Any()).Return(testRules, nil).Times(2)

	var created rules.ProxyRule
	env.store.EXPECT().CreateRule(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r rules.ProxyRule) error {
			created = r
			return nil
		})
	env.store.EXPECT().DeleteRules(gomock.Any(), []string{"2"}).Return(nil)

	out, err := runCommand(t, "", "sync", "--yes", "--delete-orphaned", "--format", "json")
	require.NoError(t, err)

	assert.Equal(t, "radarr", created.Description)
	assert.Equal(t, "radarr.home.example.com", created.FrontendDomain)
	assert.Equal(t, "nas", created.BackendHost)
	assert.Equal(t, 7878, created.BackendPort)

	var result syncResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Created, 1)
	assert.Equal(t, syncer.StatusCreated, result.Created[0].Status)
	assert.Equal(t, 1, result.Deleted)
}

func TestSyncCommand_DeclinedConfirmation(t *testing.T) { //nolint:paralleltest // replaces newSession
	env := withTestSession(t, "home.example.com")
	env.source.EXPECT().ListContainers(gomock.Any()).Return(testContainers, nil)
	env.store.EXPECT().ListRules(gomock.Any()).Return(testRules, nil)

	out, err := runCommand(t, "n\n", "sync", "--delete-orphaned")
	require.NoError(t, err)
	assert.NotContains(t, out, "created")
	assert.NotContains(t, out, "Deleted")
}

func TestSyncCommand_RequiresDomainSuffix(t *testing.T) { //nolint:paralleltest // replaces newSession
	withTestSession(t, "")

	_, err := runCommand(t, "", "sync", "--dry-run")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))
	assert.Contains(t, err.Error(), "domain_suffix")
}

func TestCreateCommand(t *testing.T) { //nolint:paralleltest // replaces newSession
	env := withTestSession(t, "home.example.com")
	env.source.EXPECT().ListContainers(gomock.Any()).Return(testContainers, nil).AnyTimes()
	env.store.EXPECT().ListRules(gomock.Any()).Return(testRules, nil).AnyTimes()
	env.store.EXPECT().CreateRule(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r rules.ProxyRule) error {
			assert.Equal(t, "movies.home.example.com", r.FrontendDomain)
			assert.True(t, r.WebSocket)
			return nil
		})

	out, err := runCommand(t, "", "create", "Radarr", "--domain", "movies.home.example.com", "--websocket", "true")
	require.NoError(t, err)
	assert.Contains(t, out, "movies.home.example.com:443")

	_, err = runCommand(t, "", "create", "sonarr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has rule")

	_, err = runCommand(t, "", "create", "postgres")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestValidateCommand(t *testing.T) { //nolint:paralleltest // replaces newSession
	env := withTestSession(t, "home.example.com")
	env.store.EXPECT().ListRules(gomock.Any()).Return(testRules, nil).AnyTimes()

	out, err := runCommand(t, "", "validate",
		"--description", "bazarr", "--domain", "bazarr.home.example.com", "--backend-port", "8989")
	require.NoError(t, err)
	assert.Contains(t, out, "port 8989 already in use by sonarr")
	assert.Contains(t, out, "Next free backend port: 8000")

	out, err = runCommand(t, "", "validate",
		"--description", "Sonarr", "--domain", "tv.home.example.com", "--backend-port", "9000")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))
	assert.Contains(t, out, "duplicate description")
}

func TestRulesDeleteCommand(t *testing.T) { //nolint:paralleltest // replaces newSession
	env := withTestSession(t, "home.example.com")

	out, err := runCommand(t, "no\n", "rules", "delete", "1", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")

	env.store.EXPECT().DeleteRules(gomock.Any(), []string{"1", "2"}).Return(nil)
	out, err = runCommand(t, "", "rules", "delete", "--yes", "1", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 rule(s).")
}

func TestRulesListCommand_Error(t *testing.T) { //nolint:paralleltest // replaces newSession
	env := withTestSession(t, "home.example.com")
	env.store.EXPECT().ListRules(gomock.Any()).Return(nil, errors.NewAuthenticationError("login failed", nil))

	_, err := runCommand(t, "", "rules", "list")
	require.Error(t, err)
	assert.True(t, errors.IsAuthentication(err))
}

func TestExportCommand(t *testing.T) { //nolint:paralleltest // replaces newSession
	env := withTestSession(t, "home.example.com")
	env.source.EXPECT().ListContainers(gomock.Any()).Return(testContainers, nil)

	path := filepath.Join(t.TempDir(), "out", "inventory.csv")
	out, err := runCommand(t, "", "export", "inventory", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "State,Service"))

	_, err = runCommand(t, "", "export", "rules")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestVersionCommand(t *testing.T) { //nolint:paralleltest // shares the viper debug binding
	out, err := runCommand(t, "", "version", "--json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")
}

func TestConfigShowCommand(t *testing.T) { //nolint:paralleltest // reads environment variables
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SYNOLOGY_HOST=dsm.test\nSYNOLOGY_PASSWORD=hunter2\n"), 0600))

	out, err := runCommand(t, "", "config", "show", "--config", configPath, "--env-file", envFile)
	require.NoError(t, err)
	assert.Contains(t, out, "host: dsm.test")
	assert.NotContains(t, out, "hunter2")

	_, err = runCommand(t, "", "config", "set-domain-suffix", "home.example.com", "--config", configPath)
	require.NoError(t, err)
	cfg, err := config.LoadOrCreateConfigWithPath(context.Background(), configPath)
	require.NoError(t, err)
	assert.Equal(t, "home.example.com", cfg.DomainSuffix)

	_, err = runCommand(t, "", "config", "set-domain-suffix", "https://bad", "--config", configPath)
	require.Error(t, err)
}

func TestPasswordOrPrompt(t *testing.T) { //nolint:paralleltest // replaces readPassword
	original := readPassword
	t.Cleanup(func() { readPassword = original })

	var prompted string
	readPassword = func(prompt string) (string, error) {
		prompted = prompt
		return "typed", nil
	}

	got, err := passwordOrPrompt("from-env", config.EnvSynologyPassword)
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
	assert.Empty(t, prompted)

	got, err = passwordOrPrompt("", config.EnvSynologyPassword)
	require.NoError(t, err)
	assert.Equal(t, "typed", got)
	assert.Equal(t, config.EnvSynologyPassword, prompted)
}
