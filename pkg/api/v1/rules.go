// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/nasops/proxysync/pkg/api/errors"
	"github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/rules"
)

// RulesRouter sets up the rule routes.
func RulesRouter(svc Service) http.Handler {
	routes := &rulesRoutes{svc: svc}
	r := chi.NewRouter()
	r.Post("/validate", apierrors.ErrorHandler(routes.validateRule))
	return r
}

type rulesRoutes struct {
	svc Service
}

// validateRule checks a candidate rule against the gateway's current rules.
// An invalid rule is still a successful request; the verdict is in the body.
func (s *rulesRoutes) validateRule(w http.ResponseWriter, r *http.Request) error {
	var candidate rules.ProxyRule
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&candidate); err != nil {
		return errors.NewInvalidArgumentError("failed to decode rule", err)
	}
	if candidate.FrontendPort == 0 {
		candidate.FrontendPort = rules.DefaultFrontendPort
	}

	result, err := s.svc.Validate(r.Context(), candidate)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}
