// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/nasops/proxysync/pkg/api/errors"
	"github.com/nasops/proxysync/pkg/reconcile"
)

// ReportRouter sets up the reconciliation report route.
func ReportRouter(svc Service) http.Handler {
	routes := &reportRoutes{svc: svc}
	r := chi.NewRouter()
	r.Get("/", apierrors.ErrorHandler(routes.getReport))
	return r
}

type reportRoutes struct {
	svc Service
}

type reportResponse struct {
	Summary     reconcile.Summary      `json:"summary"`
	Report      reconcile.Report       `json:"report"`
	SharedPorts []reconcile.SharedPort `json:"shared_ports"`
}

// getReport reconciles a fresh snapshot on every request.
func (s *reportRoutes) getReport(w http.ResponseWriter, r *http.Request) error {
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		return err
	}

	report := s.svc.ReportFor(snap)
	shared := report.SharedPorts()
	if shared == nil {
		shared = []reconcile.SharedPort{}
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(reportResponse{
		Summary:     report.Summary(),
		Report:      report,
		SharedPorts: shared,
	})
}
