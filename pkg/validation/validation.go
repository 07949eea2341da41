// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package validation checks proxy rules before they are sent to the gateway.
package validation

import (
	"fmt"
	"net/netip"
	"strings"
	"unicode"

	"golang.org/x/net/http/httpguts"
)

const (
	maxPort              = 65535
	maxDescriptionLength = 128
)

// ValidateDescription validates a rule description. Descriptions are the
// unique key of a rule, so they must be non-empty and printable.
func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("description cannot be empty or consist only of whitespace")
	}

	if strings.Contains(description, "\x00") {
		return fmt.Errorf("description cannot contain null bytes")
	}

	if len(description) > maxDescriptionLength {
		return fmt.Errorf("description exceeds maximum length of %d bytes", maxDescriptionLength)
	}

	for _, r := range description {
		if unicode.IsControl(r) {
			return fmt.Errorf("description cannot contain control characters: %q", description)
		}
	}

	return nil
}

// ValidateHost validates a frontend domain or backend host. It accepts a
// hostname or an IP address, without scheme, port or path.
func ValidateHost(host string) error {
	if host == "" {
		return fmt.Errorf("host cannot be empty")
	}

	if _, err := netip.ParseAddr(host); err == nil {
		return nil
	}

	if strings.Contains(host, "://") {
		return fmt.Errorf("host must not include a scheme: %q", host)
	}

	if strings.ContainsAny(host, "/:?#@ ") {
		return fmt.Errorf("host must be a bare hostname or IP address: %q", host)
	}

	// Same check net/http applies to the Host header.
	if !httpguts.ValidHostHeader(host) {
		return fmt.Errorf("invalid host: contains invalid characters: %q", host)
	}

	if strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") || strings.Contains(host, "..") {
		return fmt.Errorf("host has an empty label: %q", host)
	}

	return nil
}

// ValidatePort validates a TCP port number.
func ValidatePort(port int) error {
	if port < 1 || port > maxPort {
		return fmt.Errorf("port must be between 1 and %d, got %d", maxPort, port)
	}
	return nil
}

// ValidateHTTPHeaderName validates that a string is a valid HTTP header name per RFC 7230.
func ValidateHTTPHeaderName(name string) error {
	if name == "" {
		return fmt.Errorf("header name cannot be empty")
	}

	if len(name) > 256 {
		return fmt.Errorf("header name exceeds maximum length of 256 bytes")
	}

	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("invalid HTTP header name: contains invalid characters")
	}

	return nil
}

// ValidateHTTPHeaderValue validates that a string is a valid HTTP header value per RFC 7230.
// Gateway variables such as $http_upgrade are plain tokens and pass.
func ValidateHTTPHeaderValue(value string) error {
	if value == "" {
		return fmt.Errorf("header value cannot be empty")
	}

	if len(value) > 8192 {
		return fmt.Errorf("header value exceeds maximum length of 8192 bytes")
	}

	if !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("invalid HTTP header value: contains control characters")
	}

	return nil
}

// ValidateKeyword validates a policy keyword: lowercase, non-empty, and free
// of whitespace.
func ValidateKeyword(keyword string) error {
	if keyword == "" {
		return fmt.Errorf("keyword cannot be empty")
	}

	if keyword != strings.ToLower(keyword) {
		return fmt.Errorf("keyword must be lowercase: %q", keyword)
	}

	if strings.IndexFunc(keyword, unicode.IsSpace) >= 0 {
		return fmt.Errorf("keyword cannot contain whitespace: %q", keyword)
	}

	return nil
}
