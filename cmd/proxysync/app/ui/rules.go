// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"fmt"
	"io"

	"github.com/nasops/proxysync/pkg/rules"
	"github.com/nasops/proxysync/pkg/syncer"
	"github.com/nasops/proxysync/pkg/validation"
)

// RenderRules renders the gateway's rule set.
func RenderRules(w io.Writer, ruleSet []rules.ProxyRule) error {
	if len(ruleSet) == 0 {
		fmt.Fprintln(w, "No reverse proxy rules found.")
		return nil
	}

	table := newTable(w, []string{"Description", "Frontend", "Backend", "HSTS", "WebSocket", "ID"})
	rows := make([][]string, 0, len(ruleSet))
	for _, r := range ruleSet {
		rows = append(rows, []string{
			r.Description,
			r.Frontend(),
			r.Backend(),
			yesNo(r.HSTS),
			yesNo(r.WebSocket),
			r.ID,
		})
	}
	return appendRows(table, rows)
}

// RenderValidation renders the errors and warnings of a validation result.
func RenderValidation(w io.Writer, result validation.Result) {
	for _, e := range result.Errors {
		fmt.Fprintf(w, "%s %s\n", Failure("error:"), e)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "%s %s\n", Warning("warning:"), warning)
	}
	if result.IsValid {
		fmt.Fprintln(w, Success("Rule is valid."))
	}
	if result.SuggestedPort > 0 {
		fmt.Fprintf(w, "Next free backend port: %d\n", result.SuggestedPort)
	}
}

// RenderOutcomes renders the result of a bulk rule creation.
func RenderOutcomes(w io.Writer, outcomes []syncer.Outcome) {
	for _, o := range outcomes {
		switch o.Status {
		case syncer.StatusCreated:
			fmt.Fprintf(w, "%s %s → %s\n", Success("created"), o.Rule.Frontend(), o.Rule.Backend())
		case syncer.StatusSkipped:
			fmt.Fprintf(w, "%s %s\n", Warning("skipped"), o.Rule.Description)
			RenderValidation(w, o.Validation)
		default:
			fmt.Fprintf(w, "%s %s: %s\n", Failure("failed"), o.Rule.Description, o.Error)
		}
	}
}
