// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServices() []ServiceRecord {
	return []ServiceRecord{
		{Name: "sonarr", Container: "sonarr", Stack: "media", State: StateRunning, Ports: []int{8989}, ResolvedPort: 8989, NeedsProxy: true},
		{Name: "radarr", Container: "radarr", Stack: "media", State: StateRunning, Ports: []int{7878}, ResolvedPort: 7878, NeedsProxy: true},
		{Name: "radarr-old", Container: "radarr-old", Stack: "legacy", State: StateStopped, Ports: []int{7878}, ResolvedPort: 7878, NeedsProxy: true},
		{Name: "postgres", Container: "postgres", Stack: "infra", State: StateRunning, Ports: []int{5432}, ResolvedPort: 5432},
		{Name: "worker", Container: "worker", Stack: StandaloneStack, State: StateRunning, Ports: []int{}, NeedsProxy: true},
	}
}

func TestPortConflicts(t *testing.T) {
	t.Parallel()

	conflicts := PortConflicts(testServices())
	require.Len(t, conflicts, 1)
	assert.Equal(t, 7878, conflicts[0].Port)
	assert.Equal(t, []string{"radarr", "radarr-old"}, conflicts[0].Services)

	assert.Empty(t, PortConflicts(nil))
}

func TestNextAvailablePort(t *testing.T) {
	t.Parallel()

	services := []ServiceRecord{
		{Name: "a", ResolvedPort: 8000},
		{Name: "b", ResolvedPort: 8001},
		{Name: "c", ResolvedPort: 8003},
	}

	port, ok := NextAvailablePort(services, 8000, 9000)
	assert.True(t, ok)
	assert.Equal(t, 8002, port)

	_, ok = NextAvailablePort(services, 8000, 8002)
	assert.False(t, ok)
}

func TestComputeStats(t *testing.T) {
	t.Parallel()

	stats := ComputeStats(testServices())
	assert.Equal(t, Stats{
		Total:         5,
		Running:       4,
		WithPorts:     4,
		NeedingProxy:  3,
		PortConflicts: 1,
	}, stats)
}

func TestGroupByStack(t *testing.T) {
	t.Parallel()

	stacks, groups := GroupByStack(testServices())
	assert.Equal(t, []string{"infra", "legacy", "media", StandaloneStack}, stacks)
	require.Len(t, groups["media"], 2)
	assert.Equal(t, "sonarr", groups["media"][0].Name)
}
