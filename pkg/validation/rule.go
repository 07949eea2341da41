// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"fmt"
	"strings"

	"github.com/nasops/proxysync/pkg/rules"
)

// Result is the outcome of validating a candidate rule.
type Result struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	// SuggestedPort is the lowest backend port at or above the floor that no
	// existing rule uses. Zero means no port is free.
	SuggestedPort int `json:"suggested_port,omitempty"`
}

// HasWarnings reports whether the result carries warnings.
func (r Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// ValidateRule checks candidate against the existing rule set.
//
// Duplicate descriptions and duplicate frontends are errors. A backend port
// already used by another rule is only a warning, and no warning is raised
// when the existing rule has the same description and backend host. The
// result never mutates either input.
func ValidateRule(candidate rules.ProxyRule, existing []rules.ProxyRule, portFloor int) Result {
	result := Result{
		Errors:   []string{},
		Warnings: []string{},
	}

	result.Errors = append(result.Errors, fieldErrors(candidate)...)

	for _, rule := range existing {
		if candidate.Description != "" && rule.SameDescription(candidate) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("duplicate description: %q is already used by a rule for %s", rule.Description, rule.Frontend()))
		}
	}

	if candidate.FrontendDomain != "" {
		for _, rule := range existing {
			if sameFrontend(rule, candidate) {
				result.Errors = append(result.Errors,
					fmt.Sprintf("duplicate domain: %s is already used by %q", frontendOf(candidate), rule.Description))
			}
		}
	}

	if candidate.BackendPort > 0 {
		for _, rule := range existing {
			if rule.BackendPort != candidate.BackendPort {
				continue
			}
			if rule.SameDescription(candidate) && rule.SameBackendHost(candidate) {
				continue
			}
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("port %d already in use by %s", rule.BackendPort, rule.Description))
		}
	}

	result.SuggestedPort = SuggestPort(existing, portFloor)
	result.IsValid = len(result.Errors) == 0
	return result
}

// SuggestPort returns the lowest port at or above floor that no rule in
// existing uses as a backend port. A floor below 1 is raised to 1. It
// returns 0 when every port up to 65535 is taken.
func SuggestPort(existing []rules.ProxyRule, floor int) int {
	used := make(map[int]struct{}, len(existing))
	for _, rule := range existing {
		used[rule.BackendPort] = struct{}{}
	}

	start := max(floor, 1)
	for port := start; port <= maxPort; port++ {
		if _, ok := used[port]; !ok {
			return port
		}
	}
	return 0
}

func fieldErrors(candidate rules.ProxyRule) []string {
	var errs []string
	if err := ValidateDescription(candidate.Description); err != nil {
		errs = append(errs, err.Error())
	}
	if err := ValidatePort(candidate.BackendPort); err != nil {
		errs = append(errs, "backend "+err.Error())
	}
	if candidate.FrontendDomain != "" {
		if err := ValidateHost(candidate.FrontendDomain); err != nil {
			errs = append(errs, "frontend domain: "+err.Error())
		}
	}
	if candidate.BackendHost != "" {
		if err := ValidateHost(candidate.BackendHost); err != nil {
			errs = append(errs, "backend host: "+err.Error())
		}
	}
	return errs
}

func effectiveFrontendPort(r rules.ProxyRule) int {
	if r.FrontendPort <= 0 {
		return rules.DefaultFrontendPort
	}
	return r.FrontendPort
}

func sameFrontend(a, b rules.ProxyRule) bool {
	return strings.EqualFold(a.FrontendDomain, b.FrontendDomain) &&
		effectiveFrontendPort(a) == effectiveFrontendPort(b)
}

func frontendOf(r rules.ProxyRule) string {
	return fmt.Sprintf("%s:%d", r.FrontendDomain, effectiveFrontendPort(r))
}
