// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"sort"

	"github.com/nasops/proxysync/pkg/inventory"
	"github.com/nasops/proxysync/pkg/rules"
)

// Missing is a candidate service without a rule, with the rule that would expose it.
type Missing struct {
	Service   inventory.ServiceRecord `json:"service"`
	Suggested rules.ProxyRule         `json:"suggested_rule"`
}

// Pair is a candidate service matched with an existing rule.
type Pair struct {
	Service inventory.ServiceRecord `json:"service"`
	Rule    rules.ProxyRule         `json:"rule"`
}

// Report is the result of a reconciliation run.
type Report struct {
	Missing  []Missing         `json:"missing"`
	Orphaned []rules.ProxyRule `json:"orphaned"`
	InSync   []Pair            `json:"in_sync"`
	// Shadowed holds rules on a port that a service claims but that lost the
	// tie-break to another rule on the same port.
	Shadowed []rules.ProxyRule `json:"shadowed,omitempty"`
}

// Summary holds the sizes of a report's sections.
type Summary struct {
	Missing  int `json:"missing"`
	Orphaned int `json:"orphaned"`
	InSync   int `json:"in_sync"`
	Shadowed int `json:"shadowed"`
}

// Summary returns the size of each section.
func (r Report) Summary() Summary {
	return Summary{
		Missing:  len(r.Missing),
		Orphaned: len(r.Orphaned),
		InSync:   len(r.InSync),
		Shadowed: len(r.Shadowed),
	}
}

// IsClean reports whether nothing is missing or orphaned.
func (r Report) IsClean() bool {
	return len(r.Missing) == 0 && len(r.Orphaned) == 0
}

// SharedPort is a port paired in InSync with more than one service.
type SharedPort struct {
	Port     int      `json:"port"`
	Rule     string   `json:"rule"`
	Services []string `json:"services"`
}

// SharedPorts lists ports where several running services were paired with
// the same rule, ordered by port. These pairings are ambiguous: only one of
// the services is actually reachable through the rule.
func (r Report) SharedPorts() []SharedPort {
	byPort := make(map[int]*SharedPort)
	for _, p := range r.InSync {
		sp, ok := byPort[p.Rule.BackendPort]
		if !ok {
			sp = &SharedPort{Port: p.Rule.BackendPort, Rule: p.Rule.Description}
			byPort[p.Rule.BackendPort] = sp
		}
		sp.Services = append(sp.Services, p.Service.Name)
	}

	var shared []SharedPort
	for _, sp := range byPort {
		if len(sp.Services) > 1 {
			shared = append(shared, *sp)
		}
	}
	sort.Slice(shared, func(i, j int) bool {
		return shared[i].Port < shared[j].Port
	})
	return shared
}

// OrphanedIDs returns the gateway identifiers of orphaned rules that have one.
func (r Report) OrphanedIDs() []string {
	var ids []string
	for _, rule := range r.Orphaned {
		if rule.ID != "" {
			ids = append(ids, rule.ID)
		}
	}
	return ids
}
