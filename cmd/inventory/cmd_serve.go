// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianInventory/services/inventory"
)

func runServe(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, false, func(ctx context.Context, app *inventory.App) error {
		return app.Serve(ctx)
	})
}

func runDiscord(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, false, func(ctx context.Context, app *inventory.App) error {
		if err := app.Store.Migrate(); err != nil {
			return err
		}
		return app.RunDiscord(ctx)
	})
}
