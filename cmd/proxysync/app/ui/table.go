// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package ui provides terminal UI helpers for the proxysync CLI.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/nasops/proxysync/pkg/inventory"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Options(
		tablewriter.WithHeader(header),
		tablewriter.WithRendition(
			tw.Rendition{
				Borders: tw.Border{
					Left:   tw.State(1),
					Top:    tw.State(1),
					Right:  tw.State(1),
					Bottom: tw.State(1),
				},
			},
		),
		tablewriter.WithAlignment(tw.MakeAlign(len(header), tw.AlignLeft)),
	)
	return table
}

func appendRows(table *tablewriter.Table, rows [][]string) error {
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// Title renders a bold heading line.
func Title(s string) string {
	return titleStyle.Render(s)
}

// Success renders s in the success colour.
func Success(s string) string {
	return okStyle.Render(s)
}

// Warning renders s in the warning colour.
func Warning(s string) string {
	return warnStyle.Render(s)
}

// Failure renders s in the error colour.
func Failure(s string) string {
	return errorStyle.Render(s)
}

// StateLabel renders a service state with a status marker.
func StateLabel(state inventory.State) string {
	switch state {
	case inventory.StateRunning:
		return okStyle.Render("● running")
	case inventory.StateStopped:
		return errorStyle.Render("○ stopped")
	default:
		return mutedStyle.Render("? " + string(state))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
