// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mailer

import (
	"context"
	"testing"
	"time"

	"github.com/wneessen/go-mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
)

func TestNewSMTPMailer_Validation(t *testing.T) {
	_, err := NewSMTPMailer(SMTPConfig{From: "a@example.com"})
	assert.Error(t, err)

	_, err = NewSMTPMailer(SMTPConfig{Host: "smtp.example.com"})
	assert.Error(t, err)

	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "a@example.com", UseTLS: true, Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestBuildMsg(t *testing.T) {
	msg, err := buildMsg("reports@example.com", Message{
		To:      []string{"admin@example.com", "user@example.com"},
		Subject: "Inventory Analytics Report",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"admin@example.com", "user@example.com"}, rcpts)
	assert.Equal(t, []string{"Inventory Analytics Report"}, msg.GetGenHeader(mail.HeaderSubject))

	_, err = buildMsg("reports@example.com", Message{Subject: "x"})
	assert.ErrorIs(t, err, ErrNoRecipients)

	_, err = buildMsg("not an address", Message{To: []string{"a@example.com"}})
	assert.Error(t, err)
}

func TestNopMailer(t *testing.T) {
	assert.NoError(t, NopMailer{}.Send(context.Background(), Message{To: []string{"a@example.com"}}))
	assert.ErrorIs(t, NopMailer{}.Send(context.Background(), Message{}), ErrNoRecipients)
}

func TestRenderAnalyticsReport(t *testing.T) {
	html, err := RenderAnalyticsReport(AnalyticsReport{
		RunDate: time.Date(2026, 5, 4, 2, 0, 0, 0, time.UTC),
		Results: []datatypes.MLResult{{
			ProductName: "Laptop <Pro>", CategoryName: "Electronics", SupplierName: "Tech",
			PopularityIndex: 3, PredictedDaysUntilReorder: 12.345, AISummary: "Sells well.",
		}},
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Run date: 2026-05-04 02:00 UTC")
	assert.Contains(t, html, "Laptop &lt;Pro&gt;")
	assert.Contains(t, html, "<td>12.3</td>")

	empty, err := RenderAnalyticsReport(AnalyticsReport{RunDate: time.Now()})
	require.NoError(t, err)
	assert.Contains(t, empty, "No products were analysed")
}
