// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianInventory/pkg/ux"
	"github.com/AleutianAI/AleutianInventory/services/inventory"
	"github.com/AleutianAI/AleutianInventory/services/inventory/config"
)

// --- Global Command Variables ---
var (
	verbose      bool
	migrateDown  bool
	seedForce    bool
	lowOnly      bool
	productLimit int

	rootCmd = &cobra.Command{
		Use:           "inventory",
		Short:         "Inventory management server and tools",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// --- Server ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the notification, analytics and Discord workers",
		RunE:  runServe, // Defined in cmd_serve.go
	}
	discordCmd = &cobra.Command{
		Use:   "discord",
		Short: "Run only the Discord bot",
		RunE:  runDiscord, // Defined in cmd_serve.go
	}

	// --- Data ---
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE:  runMigrate, // Defined in cmd_data.go
	}
	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Load the sample users, suppliers, categories, products and sales",
		RunE:  runSeed, // Defined in cmd_data.go
	}
	productsCmd = &cobra.Command{
		Use:   "products",
		Short: "List products and their stock levels",
		RunE:  runProducts, // Defined in cmd_data.go
	}

	// --- Jobs ---
	analyticsCmd = &cobra.Command{
		Use:   "analytics",
		Short: "Product analytics",
	}
	analyticsRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Score every product now and store the results",
		RunE:  runAnalytics, // Defined in cmd_jobs.go
	}
	analyticsShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the latest analytics results",
		RunE:  showAnalytics, // Defined in cmd_jobs.go
	}
	analyticsEmailCmd = &cobra.Command{
		Use:   "email",
		Short: "Email the latest analytics report to every user with an address",
		RunE:  emailAnalytics, // Defined in cmd_jobs.go
	}
	notifyCmd = &cobra.Command{
		Use:   "notify",
		Short: "Inventory notifications",
	}
	notifyScanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Create low stock and irregular activity notifications",
		RunE:  runNotifyScan, // Defined in cmd_jobs.go
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write logs to stderr for maintenance commands")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(discordCmd)

	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Roll back every migration")
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "Seed even when the database already has users")
	rootCmd.AddCommand(productsCmd)
	productsCmd.Flags().BoolVar(&lowOnly, "low", false, "Only products at or below their reorder level")
	productsCmd.Flags().IntVar(&productLimit, "limit", 0, "Maximum rows (0 for all)")

	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.AddCommand(analyticsRunCmd)
	analyticsCmd.AddCommand(analyticsShowCmd)
	analyticsCmd.AddCommand(analyticsEmailCmd)
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyScanCmd)
}

// withApp loads the configuration, opens the application and runs fn
// with a context canceled on SIGINT or SIGTERM. quiet silences console
// logs unless --verbose was given.
func withApp(cmd *cobra.Command, quiet bool, fn func(ctx context.Context, app *inventory.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := inventory.NewLogger(cfg, quiet && !verbose)
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := inventory.Open(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

// printer styles output only when the command writes to a terminal.
func printer(cmd *cobra.Command) *ux.Printer {
	out := cmd.OutOrStdout()
	f, ok := out.(*os.File)
	return ux.NewPrinter(out, ok && ux.IsTerminal(f))
}
