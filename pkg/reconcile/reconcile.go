// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package reconcile diffs a service inventory against a set of reverse-proxy
// rules. Services and rules are matched by port: a service's resolved port
// is paired with a rule's backend port.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/nasops/proxysync/pkg/inventory"
	"github.com/nasops/proxysync/pkg/rules"
)

// Reconciler produces reconciliation reports.
type Reconciler struct {
	defaultBackendHost string
	policy             inventory.Policy
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithDefaultBackendHost sets the backend host used in suggested rules and
// preferred when several rules share a backend port.
func WithDefaultBackendHost(host string) Option {
	return func(r *Reconciler) {
		r.defaultBackendHost = host
	}
}

// WithPolicy sets the policy used to decide whether suggested rules enable WebSocket.
func WithPolicy(policy inventory.Policy) Option {
	return func(r *Reconciler) {
		r.policy = policy
	}
}

// New creates a Reconciler. Without options it suggests rules pointing at
// "localhost" and uses the default policy.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		defaultBackendHost: "localhost",
		policy:             inventory.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile diffs services against ruleSet.
//
// Candidates are running services that need a proxy and have a resolved
// port. Each candidate is looked up by port: without a rule it is Missing,
// otherwise it is InSync with the rule on the default backend host, or the
// first rule for that port. Rules whose port no candidate claims are
// Orphaned. Rules on a claimed port that were never chosen are Shadowed.
// Every output list keeps input order.
func (r *Reconciler) Reconcile(
	services []inventory.ServiceRecord,
	ruleSet []rules.ProxyRule,
	domainSuffix string,
) Report {
	report := Report{
		Missing:  []Missing{},
		Orphaned: []rules.ProxyRule{},
		InSync:   []Pair{},
		Shadowed: []rules.ProxyRule{},
	}

	// port -> indexes into ruleSet, in input order
	byPort := make(map[int][]int, len(ruleSet))
	for i, rule := range ruleSet {
		if rule.BackendPort <= 0 {
			continue
		}
		byPort[rule.BackendPort] = append(byPort[rule.BackendPort], i)
	}

	claimed := make(map[int]struct{})
	paired := make(map[int]struct{})

	for _, svc := range services {
		if !svc.IsCandidate() {
			continue
		}
		claimed[svc.ResolvedPort] = struct{}{}

		candidates, ok := byPort[svc.ResolvedPort]
		if !ok {
			report.Missing = append(report.Missing, Missing{
				Service:   svc,
				Suggested: r.Suggest(svc, domainSuffix),
			})
			continue
		}

		idx := r.pick(ruleSet, candidates)
		paired[idx] = struct{}{}
		report.InSync = append(report.InSync, Pair{Service: svc, Rule: ruleSet[idx]})
	}

	for i, rule := range ruleSet {
		if _, ok := claimed[rule.BackendPort]; !ok || rule.BackendPort <= 0 {
			report.Orphaned = append(report.Orphaned, rule)
			continue
		}
		if _, ok := paired[i]; !ok {
			report.Shadowed = append(report.Shadowed, rule)
		}
	}

	return report
}

// pick chooses among rules sharing a port: the first on the default backend
// host, else the first in input order.
func (r *Reconciler) pick(ruleSet []rules.ProxyRule, indexes []int) int {
	for _, idx := range indexes {
		if strings.EqualFold(ruleSet[idx].BackendHost, r.defaultBackendHost) {
			return idx
		}
	}
	return indexes[0]
}

// Suggest builds the rule that would expose svc under domainSuffix.
func (r *Reconciler) Suggest(svc inventory.ServiceRecord, domainSuffix string) rules.ProxyRule {
	return rules.ProxyRule{
		Description:    svc.Name,
		FrontendDomain: SuggestDomain(svc.Name, domainSuffix),
		FrontendPort:   rules.DefaultFrontendPort,
		BackendHost:    r.defaultBackendHost,
		BackendPort:    svc.ResolvedPort,
		HSTS:           true,
		WebSocket:      r.policy.NeedsWebSocket(svc.Name, svc.Image),
	}
}

// SuggestDomain joins a service name and a domain suffix.
func SuggestDomain(name, domainSuffix string) string {
	suffix := strings.Trim(strings.TrimSpace(domainSuffix), ".")
	if suffix == "" {
		return name
	}
	return fmt.Sprintf("%s.%s", name, suffix)
}

// Reconcile diffs services against ruleSet with a default Reconciler.
func Reconcile(services []inventory.ServiceRecord, ruleSet []rules.ProxyRule, domainSuffix string) Report {
	return New().Reconcile(services, ruleSet, domainSuffix)
}
