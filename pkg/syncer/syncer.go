// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package syncer ties an inventory source and a rule store to the
// reconciler: it fetches both snapshots, builds the report, and applies
// the changes the report calls for.
package syncer

//go:generate mockgen -destination=mocks/mock_collaborators.go -package=mocks -source=syncer.go InventorySource,RuleStore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	pserrors "github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/inventory"
	"github.com/nasops/proxysync/pkg/logger"
	"github.com/nasops/proxysync/pkg/reconcile"
	"github.com/nasops/proxysync/pkg/rules"
	"github.com/nasops/proxysync/pkg/validation"
)

// DefaultMaxTries is the number of attempts made for a read that fails
// with a transport error.
const DefaultMaxTries = 3

// InventorySource supplies the raw container inventory.
type InventorySource interface {
	ListContainers(ctx context.Context) ([]inventory.RawContainer, error)
}

// RuleStore reads and changes the reverse proxy rules of the gateway.
type RuleStore interface {
	ListRules(ctx context.Context) ([]rules.RawRule, error)
	CreateRule(ctx context.Context, rule rules.ProxyRule) error
	DeleteRules(ctx context.Context, ids []string) error
}

// Snapshot is the normalized state of both sides at one point in time.
type Snapshot struct {
	Services []inventory.ServiceRecord `json:"services"`
	Rules    []rules.ProxyRule         `json:"rules"`
}

// Syncer orchestrates a reconciliation run. It keeps no state between calls.
type Syncer struct {
	source             InventorySource
	store              RuleStore
	policy             inventory.Policy
	defaultBackendHost string
	domainSuffix       string
	portFloor          int
	maxTries           uint
	newBackOff         func() backoff.BackOff
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithPolicy sets the policy used to normalize the inventory and suggest rules.
func WithPolicy(policy inventory.Policy) Option {
	return func(s *Syncer) {
		s.policy = policy
	}
}

// WithDefaultBackendHost sets the backend host of suggested rules.
func WithDefaultBackendHost(host string) Option {
	return func(s *Syncer) {
		s.defaultBackendHost = host
	}
}

// WithDomainSuffix sets the suffix appended to service names in suggested domains.
func WithDomainSuffix(suffix string) Option {
	return func(s *Syncer) {
		s.domainSuffix = suffix
	}
}

// WithPortFloor sets the lowest port offered as a free backend port.
func WithPortFloor(floor int) Option {
	return func(s *Syncer) {
		s.portFloor = floor
	}
}

// WithMaxTries sets the number of attempts for reads failing with a transport error.
func WithMaxTries(n uint) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.maxTries = n
		}
	}
}

// New creates a Syncer.
func New(source InventorySource, store RuleStore, opts ...Option) *Syncer {
	s := &Syncer{
		source:             source,
		store:              store,
		policy:             inventory.DefaultPolicy(),
		defaultBackendHost: "localhost",
		maxTries:           DefaultMaxTries,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the policy in effect.
func (s *Syncer) Policy() inventory.Policy {
	return s.policy
}

// DomainSuffix returns the configured domain suffix.
func (s *Syncer) DomainSuffix() string {
	return s.domainSuffix
}

func (s *Syncer) reconciler() *reconcile.Reconciler {
	return reconcile.New(
		reconcile.WithDefaultBackendHost(s.defaultBackendHost),
		reconcile.WithPolicy(s.policy),
	)
}

// retry runs op until it succeeds, fails with an error other than a
// transport error, or runs out of attempts.
func retry[T any](ctx context.Context, s *Syncer, what string, op func(context.Context) (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op(ctx)
		if err != nil && !pserrors.IsTransport(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.maxTries),
		backoff.WithNotify(func(err error, d time.Duration) {
			logger.Debugf("Retrying %s in %v: %v", what, d, err)
		}),
	)
}

// Services fetches and normalizes the inventory.
func (s *Syncer) Services(ctx context.Context) ([]inventory.ServiceRecord, error) {
	raw, err := retry(ctx, s, "inventory", s.source.ListContainers)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	return inventory.Normalize(raw, s.policy), nil
}

// Rules fetches and normalizes the gateway's rule set.
func (s *Syncer) Rules(ctx context.Context) ([]rules.ProxyRule, error) {
	raw, err := retry(ctx, s, "rule list", s.store.ListRules)
	if err != nil {
		return nil, fmt.Errorf("failed to list proxy rules: %w", err)
	}
	return rules.Normalize(raw), nil
}

// Snapshot fetches the inventory and the rule set concurrently.
func (s *Syncer) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		services, err := s.Services(gCtx)
		if err != nil {
			return err
		}
		snap.Services = services
		return nil
	})
	g.Go(func() error {
		ruleSet, err := s.Rules(gCtx)
		if err != nil {
			return err
		}
		snap.Rules = ruleSet
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// ReportFor reconciles an already fetched snapshot.
func (s *Syncer) ReportFor(snap Snapshot) reconcile.Report {
	return s.reconciler().Reconcile(snap.Services, snap.Rules, s.domainSuffix)
}

// Report fetches a fresh snapshot and reconciles it.
func (s *Syncer) Report(ctx context.Context) (Snapshot, reconcile.Report, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Snapshot{}, reconcile.Report{}, err
	}
	return snap, s.ReportFor(snap), nil
}

// Validate checks candidate against the gateway's current rule set.
func (s *Syncer) Validate(ctx context.Context, candidate rules.ProxyRule) (validation.Result, error) {
	ruleSet, err := s.Rules(ctx)
	if err != nil {
		return validation.Result{}, err
	}
	return validation.ValidateRule(candidate, ruleSet, s.portFloor), nil
}

// CreateRule validates candidate against a freshly fetched rule set and
// creates it when there are no errors. Warnings do not block creation.
func (s *Syncer) CreateRule(ctx context.Context, candidate rules.ProxyRule) (validation.Result, error) {
	result, err := s.Validate(ctx, candidate)
	if err != nil {
		return result, err
	}
	if !result.IsValid {
		return result, pserrors.NewInvalidArgumentError(
			fmt.Sprintf("rule %q is invalid: %s", candidate.Description, strings.Join(result.Errors, "; ")), nil)
	}
	for _, w := range result.Warnings {
		logger.Warnf("Rule %q: %s", candidate.Description, w)
	}

	if err := s.store.CreateRule(ctx, candidate); err != nil {
		return result, fmt.Errorf("failed to create rule %q: %w", candidate.Description, err)
	}
	return result, nil
}

// Status is the result of one create attempt.
type Status string

const (
	// StatusCreated means the rule was created.
	StatusCreated Status = "created"
	// StatusSkipped means validation found errors and nothing was sent.
	StatusSkipped Status = "skipped"
	// StatusFailed means the gateway or the transport rejected the rule.
	StatusFailed Status = "failed"
)

// Outcome records what happened to one suggested rule.
type Outcome struct {
	Rule       rules.ProxyRule   `json:"rule"`
	Validation validation.Result `json:"validation"`
	Status     Status            `json:"status"`
	Error      string            `json:"error,omitempty"`
}

// CreateMissing creates the suggested rule of every missing entry, in
// order. Each rule is validated against a rule set fetched right before
// it is sent, so rules created earlier in the run are taken into account.
// It stops early only when ctx is done or the gateway rejects the
// credentials.
func (s *Syncer) CreateMissing(ctx context.Context, missing []reconcile.Missing) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(missing))
	for _, m := range missing {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		result, err := s.CreateRule(ctx, m.Suggested)
		o := Outcome{Rule: m.Suggested, Validation: result, Status: StatusCreated}
		switch {
		case err == nil:
		case pserrors.IsInvalidArgument(err):
			o.Status = StatusSkipped
			o.Error = strings.Join(result.Errors, "; ")
		default:
			o.Status = StatusFailed
			o.Error = err.Error()
		}
		outcomes = append(outcomes, o)

		if pserrors.IsAuthentication(err) {
			return outcomes, err
		}
	}
	return outcomes, nil
}

// DeleteOrphaned deletes every orphaned rule of report that carries an
// identifier and returns the number of rules deleted.
func (s *Syncer) DeleteOrphaned(ctx context.Context, report reconcile.Report) (int, error) {
	ids := report.OrphanedIDs()
	if skipped := len(report.Orphaned) - len(ids); skipped > 0 {
		logger.Warnf("Skipping %d orphaned rule(s) without an identifier", skipped)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.DeleteRules(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// DeleteRules deletes rules by identifier.
func (s *Syncer) DeleteRules(ctx context.Context, ids []string) error {
	if err := s.store.DeleteRules(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete %d rule(s): %w", len(ids), err)
	}
	return nil
}
