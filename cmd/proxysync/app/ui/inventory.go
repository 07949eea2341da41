// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nasops/proxysync/pkg/inventory"
	"github.com/nasops/proxysync/pkg/reconcile"
)

// RenderInventory renders services grouped by stack.
func RenderInventory(w io.Writer, services []inventory.ServiceRecord) error {
	if len(services) == 0 {
		fmt.Fprintln(w, "No services found.")
		return nil
	}

	stacks, byStack := inventory.GroupByStack(services)
	table := newTable(w, []string{"Stack", "Service", "State", "Ports", "Proxy Port", "Image", "Needs Proxy"})

	var rows [][]string
	for _, stack := range stacks {
		for _, svc := range byStack[stack] {
			proxyPort := "-"
			if svc.HasResolvedPort() {
				proxyPort = strconv.Itoa(svc.ResolvedPort)
			}
			rows = append(rows, []string{
				stack,
				svc.Name,
				StateLabel(svc.State),
				svc.PortsLabel(),
				proxyPort,
				svc.ImageName(),
				yesNo(svc.NeedsProxy),
			})
		}
	}
	return appendRows(table, rows)
}

// RenderStats renders the inventory statistics on one line.
func RenderStats(w io.Writer, stats inventory.Stats) {
	conflicts := fmt.Sprintf("%d port conflicts", stats.PortConflicts)
	if stats.PortConflicts > 0 {
		conflicts = Warning(conflicts)
	}
	fmt.Fprintf(w, "%d services, %d running, %d with ports, %d needing a proxy, %s\n",
		stats.Total, stats.Running, stats.WithPorts, stats.NeedingProxy, conflicts)
}

// RenderConflicts renders ports claimed by several services and ports where
// several services were paired with the same rule.
func RenderConflicts(w io.Writer, conflicts []inventory.PortConflict, shared []reconcile.SharedPort) error {
	if len(conflicts) == 0 && len(shared) == 0 {
		fmt.Fprintln(w, Success("No port conflicts."))
		return nil
	}

	if len(conflicts) > 0 {
		fmt.Fprintln(w, sectionStyle.Render("Port conflicts"))
		table := newTable(w, []string{"Port", "Services"})
		rows := make([][]string, 0, len(conflicts))
		for _, c := range conflicts {
			rows = append(rows, []string{strconv.Itoa(c.Port), strings.Join(c.Services, ", ")})
		}
		if err := appendRows(table, rows); err != nil {
			return err
		}
	}

	if len(shared) > 0 {
		fmt.Fprintln(w, sectionStyle.Render("Rules shared by several services"))
		table := newTable(w, []string{"Port", "Rule", "Services"})
		rows := make([][]string, 0, len(shared))
		for _, sp := range shared {
			rows = append(rows, []string{strconv.Itoa(sp.Port), sp.Rule, strings.Join(sp.Services, ", ")})
		}
		if err := appendRows(table, rows); err != nil {
			return err
		}
	}
	return nil
}
