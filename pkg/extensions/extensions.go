// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extensions defines the pluggable seams of the inventory service.
//
// The HTTP service and the Discord bot are constructed with a
// ServiceOptions value. Each field is an interface with a no-op default,
// and real implementations are injected at startup:
//
//   - auth.go: session validation (AuthProvider). The server injects the
//     JWT provider from services/inventory/auth.
//   - audit.go: stock movement audit trail (AuditLogger). The server
//     injects the InfluxDB writer from services/inventory/telemetry when
//     INFLUX_URL is set.
//
// Usage:
//
//	opts := extensions.DefaultOptions().
//	    WithAuth(auth.NewJWTProvider(issuer)).
//	    WithAudit(telemetry.NewInfluxAuditLogger(client, org, bucket))
//	svc, err := inventory.New(cfg, &opts)
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
package extensions

// ServiceOptions groups the extension points passed to service
// constructors. Nil fields are treated as their no-op defaults.
type ServiceOptions struct {
	// AuthProvider validates session tokens.
	// Default: NopAuthProvider (every request is the local admin)
	AuthProvider AuthProvider

	// AuditLogger records stock movements.
	// Default: NopAuditLogger
	AuditLogger AuditLogger
}

// DefaultOptions returns ServiceOptions with no-op implementations.
func DefaultOptions() ServiceOptions {
	return ServiceOptions{
		AuthProvider: &NopAuthProvider{},
		AuditLogger:  &NopAuditLogger{},
	}
}

// WithAuth returns a copy of opts with the given AuthProvider.
func (opts ServiceOptions) WithAuth(provider AuthProvider) ServiceOptions {
	opts.AuthProvider = provider
	return opts
}

// WithAudit returns a copy of opts with the given AuditLogger.
func (opts ServiceOptions) WithAudit(logger AuditLogger) ServiceOptions {
	opts.AuditLogger = logger
	return opts
}

// Normalize fills nil fields with their no-op defaults.
func (opts ServiceOptions) Normalize() ServiceOptions {
	if opts.AuthProvider == nil {
		opts.AuthProvider = &NopAuthProvider{}
	}
	if opts.AuditLogger == nil {
		opts.AuditLogger = &NopAuditLogger{}
	}
	return opts
}
