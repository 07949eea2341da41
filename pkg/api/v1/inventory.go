// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/nasops/proxysync/pkg/api/errors"
	"github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/inventory"
)

// InventoryRouter sets up the inventory route.
func InventoryRouter(svc Service) http.Handler {
	routes := &inventoryRoutes{svc: svc}
	r := chi.NewRouter()
	r.Get("/", apierrors.ErrorHandler(routes.listServices))
	return r
}

type inventoryRoutes struct {
	svc Service
}

type inventoryResponse struct {
	Services  []inventory.ServiceRecord `json:"services"`
	Stats     inventory.Stats           `json:"stats"`
	Conflicts []inventory.PortConflict  `json:"conflicts"`
}

// parseFilter reads the state, needs_proxy and search query parameters.
func parseFilter(r *http.Request) (inventory.Filter, error) {
	q := r.URL.Query()
	f := inventory.Filter{Search: q.Get("search")}

	if s := q.Get("state"); s != "" {
		state := inventory.State(s)
		switch state {
		case inventory.StateRunning, inventory.StateStopped, inventory.StateUnknown:
			f.State = state
		default:
			return f, errors.NewInvalidArgumentError(fmt.Sprintf("invalid state %q", s), nil)
		}
	}
	if s := q.Get("needs_proxy"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return f, errors.NewInvalidArgumentError(fmt.Sprintf("invalid needs_proxy %q", s), err)
		}
		f.NeedsProxy = &b
	}
	return f, nil
}

// listServices returns the normalized inventory. Statistics and port
// conflicts are computed over the full inventory, before filtering.
func (s *inventoryRoutes) listServices(w http.ResponseWriter, r *http.Request) error {
	filter, err := parseFilter(r)
	if err != nil {
		return err
	}

	services, err := s.svc.Services(r.Context())
	if err != nil {
		return err
	}

	conflicts := inventory.PortConflicts(services)
	if conflicts == nil {
		conflicts = []inventory.PortConflict{}
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(inventoryResponse{
		Services:  filter.Apply(services),
		Stats:     inventory.ComputeStats(services),
		Conflicts: conflicts,
	})
}
