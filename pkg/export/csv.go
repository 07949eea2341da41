// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package export writes the inventory and the reconciliation report as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nasops/proxysync/pkg/inventory"
	"github.com/nasops/proxysync/pkg/reconcile"
	"github.com/nasops/proxysync/pkg/rules"
)

// Kind selects what is exported.
type Kind string

const (
	// KindInventory exports one row per service.
	KindInventory Kind = "inventory"
	// KindReport exports one row per report entry.
	KindReport Kind = "report"
)

// ParseKind validates an export kind given on the command line.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindInventory, KindReport:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown export kind %q (expected %q or %q)", s, KindInventory, KindReport)
	}
}

// InventoryHeader is the header row of an inventory export.
var InventoryHeader = []string{
	"State", "Service", "Container", "Stack", "Ports", "Proxy Port", "Image", "Needs Proxy", "Endpoint",
}

// ReportHeader is the header row of a report export.
var ReportHeader = []string{
	"Status", "Service", "Stack", "Port", "Domain", "Backend", "Rule", "Rule ID",
}

// Report row statuses.
const (
	StatusMissing  = "missing"
	StatusInSync   = "in_sync"
	StatusOrphaned = "orphaned"
	StatusShadowed = "shadowed"
)

// WriteInventory writes services as CSV, in input order.
func WriteInventory(w io.Writer, services []inventory.ServiceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(InventoryHeader); err != nil {
		return err
	}
	for _, svc := range services {
		resolved := ""
		if svc.HasResolvedPort() {
			resolved = strconv.Itoa(svc.ResolvedPort)
		}
		row := []string{
			string(svc.State),
			svc.Name,
			svc.Container,
			svc.Stack,
			svc.PortsLabel(),
			resolved,
			svc.ImageName(),
			yesNo(svc.NeedsProxy),
			svc.Endpoint,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReport writes every section of report as CSV: missing entries with
// their suggested rule, then in-sync pairs, orphaned and shadowed rules.
func WriteReport(w io.Writer, report reconcile.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportHeader); err != nil {
		return err
	}

	var rows [][]string
	for _, m := range report.Missing {
		rows = append(rows, []string{
			StatusMissing, m.Service.Name, m.Service.Stack, strconv.Itoa(m.Service.ResolvedPort),
			m.Suggested.FrontendDomain, m.Suggested.Backend(), m.Suggested.Description, "",
		})
	}
	for _, p := range report.InSync {
		rows = append(rows, []string{
			StatusInSync, p.Service.Name, p.Service.Stack, strconv.Itoa(p.Service.ResolvedPort),
			p.Rule.FrontendDomain, p.Rule.Backend(), p.Rule.Description, p.Rule.ID,
		})
	}
	for _, r := range report.Orphaned {
		rows = append(rows, ruleRow(StatusOrphaned, r))
	}
	for _, r := range report.Shadowed {
		rows = append(rows, ruleRow(StatusShadowed, r))
	}

	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func ruleRow(status string, r rules.ProxyRule) []string {
	return []string{
		status, "", "", strconv.Itoa(r.BackendPort), r.FrontendDomain, r.Backend(), r.Description, r.ID,
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ToFile creates path, including missing parent directories, and passes it
// to write. A partially written file is removed on error.
func ToFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path) // #nosec G304 - path is chosen by the user
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
