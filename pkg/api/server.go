// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package api contains the read-only dashboard API for proxysync.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/browser"
	"golang.org/x/time/rate"

	v1 "github.com/nasops/proxysync/pkg/api/v1"
	"github.com/nasops/proxysync/pkg/logger"
)

const (
	middlewareTimeout = 60 * time.Second
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
	maxRequestBody    = 1 << 20

	// Every API request fans out to Portainer and DSM, so the dashboard is
	// throttled before it reaches them.
	apiRequestsPerSecond = 5
	apiRequestBurst      = 20
)

func headersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware answers 429 once limiter runs dry. Only /api/ routes
// are throttled; health checks and metrics scrapes pass through.
func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") && !limiter.Allow() {
				logger.Debugf("rate limit exceeded for %s %s", r.Method, r.URL.Path)
				w.Header().Set("Retry-After", "1")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limitedBody records whether a read ran into the size limit.
type limitedBody struct {
	io.ReadCloser
	exceeded bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		b.exceeded = true
	}
	return n, err
}

// bodySizeResponseWriter turns the 400 a handler writes after failing to
// decode an oversized body into a 413. A decoder may give up before reaching
// the limit, so the rest of the body is drained to find out.
type bodySizeResponseWriter struct {
	http.ResponseWriter
	body *limitedBody
}

func (w *bodySizeResponseWriter) WriteHeader(code int) {
	if code == http.StatusBadRequest && !w.body.exceeded {
		_, _ = io.Copy(io.Discard, w.body)
	}
	if code == http.StatusBadRequest && w.body.exceeded {
		code = http.StatusRequestEntityTooLarge
	}
	w.ResponseWriter.WriteHeader(code)
}

// requestBodySizeLimitMiddleware rejects request bodies larger than maxSize.
// A declared Content-Length over the limit is refused before the handler
// runs; otherwise the body is capped while it is read.
func requestBodySizeLimitMiddleware(maxSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxSize {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}

			body := &limitedBody{ReadCloser: http.MaxBytesReader(w, r.Body, maxSize)}
			r.Body = body
			next.ServeHTTP(&bodySizeResponseWriter{ResponseWriter: w, body: body}, r)
		})
	}
}

// NewRouter returns the dashboard router backed by svc.
func NewRouter(svc v1.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(middlewareTimeout),
		rateLimitMiddleware(rate.NewLimiter(apiRequestsPerSecond, apiRequestBurst)),
		requestBodySizeLimitMiddleware(maxRequestBody),
		headersMiddleware,
	)

	routers := map[string]http.Handler{
		"/health":           v1.HealthcheckRouter(),
		"/api/v1/version":   v1.VersionRouter(),
		"/api/v1/inventory": v1.InventoryRouter(svc),
		"/api/v1/report":    v1.ReportRouter(svc),
		"/api/v1/rules":     v1.RulesRouter(svc),
		"/metrics":          MetricsHandler(svc),
	}
	for prefix, router := range routers {
		r.Mount(prefix, router)
	}
	return r
}

// openURL is replaced in tests.
var openURL = browser.OpenURL

// Serve starts the dashboard API on address and blocks until ctx is done.
// With openBrowser set, the report is opened in the default browser once
// the listener is up.
// It is assumed that the caller sets up appropriate signal handling.
func Serve(ctx context.Context, address string, svc v1.Service, openBrowser bool) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	if openBrowser {
		openDashboard(listener.Addr())
	}
	return serve(ctx, listener, NewRouter(svc))
}

func openDashboard(addr net.Addr) {
	reportURL := "http://" + addr.String() + "/api/v1/report"
	logger.Infof("Opening browser to: %s", reportURL)
	if err := openURL(reportURL); err != nil {
		logger.Warnf("Failed to open browser: %v", err)
		logger.Infof("Please manually open this URL in your browser: %s", reportURL)
	}
}

func serve(ctx context.Context, listener net.Listener, handler http.Handler) error {
	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.Infof("starting dashboard API on http://%s", listener.Addr())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("dashboard API stopped")
	return nil
}
