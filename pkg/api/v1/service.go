// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package v1 provides version 1 of the proxysync dashboard API.
package v1

import (
	"context"

	"github.com/nasops/proxysync/pkg/inventory"
	"github.com/nasops/proxysync/pkg/reconcile"
	"github.com/nasops/proxysync/pkg/rules"
	"github.com/nasops/proxysync/pkg/syncer"
	"github.com/nasops/proxysync/pkg/validation"
)

// Service is what the routes need from the sync orchestration.
// *syncer.Syncer implements it.
type Service interface {
	// Services fetches the normalized inventory.
	Services(ctx context.Context) ([]inventory.ServiceRecord, error)
	// Snapshot fetches the current inventory and rule set.
	Snapshot(ctx context.Context) (syncer.Snapshot, error)
	// ReportFor reconciles a snapshot.
	ReportFor(snap syncer.Snapshot) reconcile.Report
	// Validate checks a candidate rule against the current rule set.
	Validate(ctx context.Context, candidate rules.ProxyRule) (validation.Result, error)
}

var _ Service = (*syncer.Syncer)(nil)
