// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error with cause",
			err: &Error{
				Type:    ErrInvalidArgument,
				Message: "test message",
				Cause:   errors.New("underlying error"),
			},
			want: "invalid_argument: test message: underlying error",
		},
		{
			name: "error without cause",
			err: &Error{
				Type:    ErrTransport,
				Message: "test message",
			},
			want: "transport: test message",
		},
		{
			name: "error with remote code",
			err:  NewRemoteAPIError("invalid parameter format", 101, nil),
			want: "remote_api: invalid parameter format (code 101)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("Error.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("underlying error")
	err := &Error{
		Type:    ErrTransport,
		Message: "test message",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Error.Unwrap() = %v, want %v", got, cause)
	}

	errNoCause := &Error{Type: ErrTransport, Message: "test message"}
	if got := errNoCause.Unwrap(); got != nil {
		t.Errorf("Error.Unwrap() = %v, want nil", got)
	}
}

func TestConstructorsAndPredicates(t *testing.T) {
	t.Parallel()
	cause := errors.New("cause")

	tests := []struct {
		name      string
		err       error
		wantType  string
		predicate func(error) bool
	}{
		{"invalid argument", NewInvalidArgumentError("msg", cause), ErrInvalidArgument, IsInvalidArgument},
		{"authentication", NewAuthenticationError("msg", cause), ErrAuthentication, IsAuthentication},
		{"transport", NewTransportError("msg", cause), ErrTransport, IsTransport},
		{"remote api", NewRemoteAPIError("msg", 4154, cause), ErrRemoteAPI, IsRemoteAPI},
		{"not found", NewNotFoundError("msg", cause), ErrNotFound, IsNotFound},
	}

	predicates := []func(error) bool{IsInvalidArgument, IsAuthentication, IsTransport, IsRemoteAPI, IsNotFound}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var e *Error
			if !errors.As(tt.err, &e) || e.Type != tt.wantType {
				t.Fatalf("unexpected error type for %v", tt.err)
			}
			if !errors.Is(tt.err, cause) {
				t.Errorf("cause is not reachable from %v", tt.err)
			}
			if !tt.predicate(tt.err) {
				t.Errorf("predicate did not match %v", tt.err)
			}

			wrapped := fmt.Errorf("context: %w", tt.err)
			if !tt.predicate(wrapped) {
				t.Errorf("predicate did not match wrapped %v", wrapped)
			}

			matches := 0
			for _, p := range predicates {
				if p(tt.err) {
					matches++
				}
			}
			if matches != 1 {
				t.Errorf("expected exactly one predicate to match, got %d", matches)
			}
		})
	}
}

func TestPredicatesRejectPlainErrors(t *testing.T) {
	t.Parallel()
	plain := errors.New("plain")

	if IsTransport(plain) || IsAuthentication(plain) || IsRemoteAPI(plain) || IsNotFound(plain) || IsInvalidArgument(plain) {
		t.Error("plain error matched a typed predicate")
	}
	if IsTransport(nil) {
		t.Error("nil matched a typed predicate")
	}
}

func TestCode(t *testing.T) {
	t.Parallel()

	if got := Code(fmt.Errorf("wrapped: %w", NewRemoteAPIError("msg", 4154, nil))); got != 4154 {
		t.Errorf("Code() = %d, want 4154", got)
	}
	if got := Code(NewTransportError("msg", nil)); got != 0 {
		t.Errorf("Code() = %d, want 0", got)
	}
	if got := Code(errors.New("plain")); got != 0 {
		t.Errorf("Code() = %d, want 0", got)
	}
}
