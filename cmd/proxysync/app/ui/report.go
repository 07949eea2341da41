// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nasops/proxysync/pkg/reconcile"
	"github.com/nasops/proxysync/pkg/rules"
)

// RenderReport renders the three report sections followed by a summary.
// Shadowed rules are listed only when there are some.
func RenderReport(w io.Writer, report reconcile.Report) error {
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Missing rules (%d)", len(report.Missing))))
	if len(report.Missing) == 0 {
		fmt.Fprintln(w, Success("Every running service has a rule."))
	} else {
		table := newTable(w, []string{"Service", "Stack", "Port", "Suggested Domain", "Backend", "WebSocket"})
		rows := make([][]string, 0, len(report.Missing))
		for _, m := range report.Missing {
			rows = append(rows, []string{
				m.Service.Name,
				m.Service.Stack,
				strconv.Itoa(m.Service.ResolvedPort),
				m.Suggested.FrontendDomain,
				m.Suggested.Backend(),
				yesNo(m.Suggested.WebSocket),
			})
		}
		if err := appendRows(table, rows); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Orphaned rules (%d)", len(report.Orphaned))))
	if len(report.Orphaned) == 0 {
		fmt.Fprintln(w, Success("No orphaned rules."))
	} else if err := renderRuleRows(w, report.Orphaned); err != nil {
		return err
	}

	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("In sync (%d)", len(report.InSync))))
	if len(report.InSync) > 0 {
		table := newTable(w, []string{"Service", "Port", "Rule", "Frontend", "Backend"})
		rows := make([][]string, 0, len(report.InSync))
		for _, p := range report.InSync {
			rows = append(rows, []string{
				p.Service.Name,
				strconv.Itoa(p.Service.ResolvedPort),
				p.Rule.Description,
				p.Rule.Frontend(),
				p.Rule.Backend(),
			})
		}
		if err := appendRows(table, rows); err != nil {
			return err
		}
	}

	if len(report.Shadowed) > 0 {
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Shadowed rules (%d)", len(report.Shadowed))))
		if err := renderRuleRows(w, report.Shadowed); err != nil {
			return err
		}
	}

	RenderSummary(w, report.Summary())
	return nil
}

// RenderSummary renders the section sizes on one line.
func RenderSummary(w io.Writer, s reconcile.Summary) {
	missing := fmt.Sprintf("%d missing", s.Missing)
	if s.Missing > 0 {
		missing = Warning(missing)
	}
	orphaned := fmt.Sprintf("%d orphaned", s.Orphaned)
	if s.Orphaned > 0 {
		orphaned = Warning(orphaned)
	}
	fmt.Fprintf(w, "%s, %s, %s\n", missing, orphaned, Success(fmt.Sprintf("%d in sync", s.InSync)))
}

func renderRuleRows(w io.Writer, ruleSet []rules.ProxyRule) error {
	table := newTable(w, []string{"Description", "Frontend", "Backend", "ID"})
	rows := make([][]string, 0, len(ruleSet))
	for _, r := range ruleSet {
		rows = append(rows, []string{r.Description, r.Frontend(), r.Backend(), r.ID})
	}
	return appendRows(table, rows)
}
