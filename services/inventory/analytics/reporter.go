// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/mailer"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

// ReportSubject is the analytics email subject.
const ReportSubject = "Inventory Analytics Report"

// ErrNoRecipients is returned when no user has an email address.
var ErrNoRecipients = errors.New("no user email addresses to send the report to")

// Reporter emails analytics results to every user.
type Reporter struct {
	store  *storage.Store
	mailer mailer.Mailer
}

func NewReporter(store *storage.Store, m mailer.Mailer) *Reporter {
	return &Reporter{store: store, mailer: m}
}

// Send renders results and mails them to all user emails. It returns the
// recipient count.
func (r *Reporter) Send(ctx context.Context, results []datatypes.MLResult, runDate time.Time) (int, error) {
	emails, err := r.store.Queries().UserEmails(ctx)
	if err != nil {
		return 0, fmt.Errorf("load recipients: %w", err)
	}
	if len(emails) == 0 {
		return 0, ErrNoRecipients
	}
	html, err := mailer.RenderAnalyticsReport(mailer.AnalyticsReport{RunDate: runDate.UTC(), Results: results})
	if err != nil {
		return 0, err
	}
	if err := r.mailer.Send(ctx, mailer.Message{To: emails, Subject: ReportSubject, HTML: html}); err != nil {
		return 0, err
	}
	return len(emails), nil
}
