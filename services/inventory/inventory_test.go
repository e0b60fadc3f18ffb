// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package inventory

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
	"github.com/AleutianAI/AleutianInventory/services/inventory/config"
	"github.com/AleutianAI/AleutianInventory/services/inventory/mailer"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage/storagetest"
)

func testConfig(t *testing.T, overrides map[string]string) config.Config {
	t.Helper()
	environ := map[string]string{
		"GIN_MODE":          "test",
		"INVENTORY_PORT":    "0",
		"DATABASE_URL":      storagetest.MemoryDSN,
		"SECRET_KEY":        "app-test-secret",
		"LLM_BACKEND":       "disabled",
		"NOTIFY_ENABLED":    "false",
		"ANALYTICS_ENABLED": "false",
	}
	for k, v := range overrides {
		environ[k] = v
	}
	cfg, err := config.LoadFrom(environ)
	require.NoError(t, err)
	return cfg
}

func openApp(t *testing.T, cfg config.Config, opts *extensions.ServiceOptions) *App {
	t.Helper()
	app, err := Open(context.Background(), cfg, opts)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestOpen_Defaults(t *testing.T) {
	app := openApp(t, testConfig(t, nil), nil)

	assert.Nil(t, app.LLM)
	assert.NotNil(t, app.Auth)
	assert.NotNil(t, app.AuthProvider)
	assert.IsType(t, &extensions.NopAuditLogger{}, app.Audit)
	assert.IsType(t, mailer.NopMailer{}, app.Mailer)
}

func TestOpen_ServiceOptions(t *testing.T) {
	audit := &extensions.MemoryAuditLogger{}
	app := openApp(t, testConfig(t, nil), &extensions.ServiceOptions{AuditLogger: audit})
	assert.Same(t, audit, app.Audit)
}

func TestOpen_WithoutSecret(t *testing.T) {
	app := openApp(t, testConfig(t, map[string]string{"SECRET_KEY": ""}), nil)
	assert.Nil(t, app.Auth)

	err := app.Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")
}

func TestOpen_BadDriver(t *testing.T) {
	_, err := Open(context.Background(), testConfig(t, map[string]string{"DATABASE_DRIVER": "oracle"}), nil)
	assert.Error(t, err)
}

func TestRouter_Health(t *testing.T) {
	app := openApp(t, testConfig(t, nil), nil)
	require.NoError(t, app.Store.Migrate())

	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	app.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestServe_StopsOnCancel(t *testing.T) {
	app := openApp(t, testConfig(t, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, app.Serve(ctx))
}

func TestServe_BadScheduleReleasesPort(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	app := openApp(t, testConfig(t, map[string]string{
		"INVENTORY_PORT":    strconv.Itoa(port),
		"NOTIFY_ENABLED":    "true",
		"ANALYTICS_ENABLED": "true",
		"ANALYTICS_CRON":    "every full moon",
	}), nil)

	errc := make(chan error, 1)
	go func() { errc <- app.Serve(context.Background()) }()
	select {
	case err := <-errc:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid analytics schedule")
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return on an invalid schedule")
	}

	l, err = net.Listen("tcp", ":"+strconv.Itoa(port))
	require.NoError(t, err, "port still bound after Serve returned")
	require.NoError(t, l.Close())

	// The notification loop was never started.
	require.NoError(t, app.NotifyScheduler.Start(context.Background()))
	app.NotifyScheduler.Stop()
}

func TestRunAnalyticsJob_EmptyCatalog(t *testing.T) {
	app := openApp(t, testConfig(t, nil), nil)
	require.NoError(t, app.Store.Migrate())

	assert.NoError(t, app.RunAnalyticsJob(context.Background()))
}
