// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package docker

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/nasops/proxysync/pkg/logger"
)

const (
	// SocketEnv overrides socket discovery with an explicit path.
	SocketEnv = "PROXYSYNC_DOCKER_SOCKET"

	// PodmanSocketPath is the rootful Podman socket.
	PodmanSocketPath = "/var/run/podman/podman.sock"
	// PodmanXDGRuntimeSocketPath is the rootless Podman socket below XDG_RUNTIME_DIR.
	PodmanXDGRuntimeSocketPath = "podman/podman.sock"
	// PodmanMachineSocketPath is the Podman machine socket below $HOME.
	PodmanMachineSocketPath = ".local/share/containers/podman/machine/podman.sock"
	// DockerSocketPath is the Docker Engine socket.
	DockerSocketPath = "/var/run/docker.sock"
	// DockerDesktopSocketPath is the Docker Desktop socket below $HOME.
	DockerDesktopSocketPath = ".docker/run/docker.sock"
)

// ErrSocketNotFound is returned when no container socket could be located.
var ErrSocketNotFound = errors.New("container socket not found")

// candidateSockets lists socket paths in lookup order. An explicit override
// comes first, then Podman, Docker and Docker Desktop.
func candidateSockets() []string {
	var paths []string
	if p := os.Getenv(SocketEnv); p != "" {
		paths = append(paths, p)
	}

	paths = append(paths, PodmanSocketPath)
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		paths = append(paths, filepath.Join(dir, PodmanXDGRuntimeSocketPath))
	}
	home := os.Getenv("HOME")
	if home != "" {
		paths = append(paths, filepath.Join(home, PodmanMachineSocketPath))
	}
	paths = append(paths, DockerSocketPath)
	if home != "" {
		paths = append(paths, filepath.Join(home, DockerDesktopSocketPath))
	}
	return paths
}

// findSocket returns the first candidate socket that exists.
func findSocket(candidates []string) (string, error) {
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			logger.Debugf("Failed to check container socket at %s: %v", p, err)
			continue
		}
		logger.Debugf("Found container socket at %s", p)
		return p, nil
	}
	return "", ErrSocketNotFound
}
