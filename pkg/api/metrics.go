// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	v1 "github.com/nasops/proxysync/pkg/api/v1"
	"github.com/nasops/proxysync/pkg/inventory"
	"github.com/nasops/proxysync/pkg/logger"
)

const scrapeTimeout = 30 * time.Second

var (
	upDesc = prometheus.NewDesc(
		"proxysync_up",
		"Whether the last scrape could read both the inventory and the rule set.",
		nil, nil,
	)
	servicesDesc = prometheus.NewDesc(
		"proxysync_services",
		"Number of services in the inventory by state.",
		[]string{"state"}, nil,
	)
	candidatesDesc = prometheus.NewDesc(
		"proxysync_proxy_candidates",
		"Number of running services that need a reverse proxy rule.",
		nil, nil,
	)
	rulesDesc = prometheus.NewDesc(
		"proxysync_rules",
		"Number of reverse proxy rules on the gateway.",
		nil, nil,
	)
	reportDesc = prometheus.NewDesc(
		"proxysync_report_entries",
		"Number of entries in each section of the reconciliation report.",
		[]string{"section"}, nil,
	)
)

// reportCollector reconciles a fresh snapshot on every scrape.
type reportCollector struct {
	svc     v1.Service
	timeout time.Duration
}

func newReportCollector(svc v1.Service) *reportCollector {
	return &reportCollector{svc: svc, timeout: scrapeTimeout}
}

func (c *reportCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- upDesc
	ch <- servicesDesc
	ch <- candidatesDesc
	ch <- rulesDesc
	ch <- reportDesc
}

func (c *reportCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	snap, err := c.svc.Snapshot(ctx)
	if err != nil {
		logger.Warnf("metrics scrape failed: %v", err)
		ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, 1)

	byState := map[inventory.State]int{
		inventory.StateRunning: 0,
		inventory.StateStopped: 0,
		inventory.StateUnknown: 0,
	}
	for _, svc := range snap.Services {
		byState[svc.State]++
	}
	for state, n := range byState {
		ch <- prometheus.MustNewConstMetric(servicesDesc, prometheus.GaugeValue, float64(n), string(state))
	}

	stats := inventory.ComputeStats(snap.Services)
	ch <- prometheus.MustNewConstMetric(candidatesDesc, prometheus.GaugeValue, float64(stats.NeedingProxy))
	ch <- prometheus.MustNewConstMetric(rulesDesc, prometheus.GaugeValue, float64(len(snap.Rules)))

	summary := c.svc.ReportFor(snap).Summary()
	for section, n := range map[string]int{
		"missing":  summary.Missing,
		"orphaned": summary.Orphaned,
		"in_sync":  summary.InSync,
		"shadowed": summary.Shadowed,
	} {
		ch <- prometheus.MustNewConstMetric(reportDesc, prometheus.GaugeValue, float64(n), section)
	}
}

// MetricsHandler serves the report metrics from a dedicated registry.
func MetricsHandler(svc v1.Service) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(newReportCollector(svc))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
