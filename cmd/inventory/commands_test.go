// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "inventory.db") + "?_pragma=foreign_keys(1)&_time_format=sqlite"
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", dsn)
	t.Setenv("SECRET_KEY", "cli-test-secret")
	t.Setenv("LLM_BACKEND", "disabled")
	t.Setenv("MAIL_SERVER", "")
	t.Setenv("INFLUX_URL", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
}

// execute runs the root command with args and returns its output.
// Flag variables are reset first because cobra keeps them between runs.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	verbose, migrateDown, seedForce, lowOnly, productLimit = false, false, false, false, 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSeedAndList(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "OK: database schema is up to date\n", out)

	out, err = execute(t, "seed")
	require.NoError(t, err)
	assert.Equal(t, "OK: sample data loaded\nSUMMARY: users=2 suppliers=3 categories=3 products=15 transactions=22\n", out)

	out, err = execute(t, "seed")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "WARN: database is not empty"))

	out, err = execute(t, "products")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 16)
	assert.Equal(t, "ID\tSKU\tName\tCategory\tStock\tReorder\tPrice", lines[0])

	out, err = execute(t, "products", "--limit", "3")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)

	out, err = execute(t, "products", "--low")
	require.NoError(t, err)
	assert.Contains(t, out, "EL-HEAD-001")
	assert.NotContains(t, out, "EL-LAP-001")
}

func TestNotifyScan(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "seed")
	require.NoError(t, err)

	out, err := execute(t, "notify", "scan")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "SUMMARY: low_stock="))
}

func TestAnalyticsCommands(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "migrate")
	require.NoError(t, err)

	out, err := execute(t, "analytics", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "no analytics results yet")

	_, err = execute(t, "seed")
	require.NoError(t, err)
	out, err = execute(t, "analytics", "run")
	require.NoError(t, err)
	assert.Contains(t, out, "scored 15 products")

	out, err = execute(t, "analytics", "show")
	require.NoError(t, err)
	assert.Equal(t, "Product\tCategory\tPopularity\tDays to reorder", strings.Split(out, "\n")[0])

	_, err = execute(t, "analytics", "email")
	assert.ErrorIs(t, err, errMailNotConfigured)
}
