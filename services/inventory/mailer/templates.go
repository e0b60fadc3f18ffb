// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"days": func(v float64) string { return fmt.Sprintf("%.1f", v) },
}).ParseFS(templateFS, "templates/*.html"))

// AnalyticsReport is the data of the analytics email.
type AnalyticsReport struct {
	RunDate time.Time
	Results []datatypes.MLResult
}

// RenderAnalyticsReport renders templates/analytics_email.html.
func RenderAnalyticsReport(r AnalyticsReport) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "analytics_email.html", r); err != nil {
		return "", fmt.Errorf("render analytics email: %w", err)
	}
	return buf.String(), nil
}
