// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package inventory turns raw container descriptors reported by a container
// orchestrator into canonical service records, and decides which port of a
// service a reverse proxy should point at and whether the service should be
// exposed at all.
package inventory

import "strings"

// State is the lifecycle state of a service.
type State string

const (
	// StateRunning is a service whose container is running.
	StateRunning State = "running"
	// StateStopped is a service whose container exists but is not running.
	StateStopped State = "stopped"
	// StateUnknown is reported when the source state could not be interpreted.
	StateUnknown State = "unknown"
)

// StandaloneStack is the stack name used for containers that do not belong to a stack.
const StandaloneStack = "standalone"

// ParseState maps a container runtime state string onto a State.
func ParseState(s string) State {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running":
		return StateRunning
	case "exited", "created", "paused", "dead", "restarting", "removing", "stopped":
		return StateStopped
	default:
		return StateUnknown
	}
}

// RawContainer is a container descriptor as supplied by an inventory source.
// Sources are expected to have already converted their wire format into this
// shape; no field is guaranteed to be populated.
type RawContainer struct {
	// Name is the container name, without any leading slash.
	Name string
	// Stack is the value of the stack label, empty when absent.
	Stack string
	// Service is the value of the service label, empty when absent.
	Service string
	// State is the runtime state string (e.g. "running", "exited").
	State string
	// Ports are the published host ports in the order the source reported them.
	Ports []int
	// Image is the image reference the container was created from.
	Image string
	// Endpoint identifies the environment the container was found in, if any.
	Endpoint string
}

// ServiceRecord is the canonical, per-run view of a single service.
type ServiceRecord struct {
	Name         string `json:"name"`
	Container    string `json:"container"`
	Stack        string `json:"stack"`
	State        State  `json:"state"`
	Ports        []int  `json:"ports"`
	ResolvedPort int    `json:"resolved_port,omitempty"`
	Image        string `json:"image"`
	NeedsProxy   bool   `json:"needs_proxy"`
	Endpoint     string `json:"endpoint,omitempty"`
}

// HasResolvedPort reports whether a proxy-relevant port was selected.
func (s ServiceRecord) HasResolvedPort() bool {
	return s.ResolvedPort > 0
}

// IsRunning reports whether the service is running.
func (s ServiceRecord) IsRunning() bool {
	return s.State == StateRunning
}

// IsCandidate reports whether the service takes part in reconciliation:
// it is running, needs a proxy rule, and has a resolved port.
func (s ServiceRecord) IsCandidate() bool {
	return s.IsRunning() && s.NeedsProxy && s.HasResolvedPort()
}
