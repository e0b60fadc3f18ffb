// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes wires the inventory handlers onto a Gin engine.
package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
	"github.com/AleutianAI/AleutianInventory/services/inventory/analytics"
	"github.com/AleutianAI/AleutianInventory/services/inventory/assistant"
	"github.com/AleutianAI/AleutianInventory/services/inventory/auth"
	"github.com/AleutianAI/AleutianInventory/services/inventory/chatbot"
	"github.com/AleutianAI/AleutianInventory/services/inventory/handlers"
	"github.com/AleutianAI/AleutianInventory/services/inventory/middleware"
	"github.com/AleutianAI/AleutianInventory/services/inventory/notify"
	"github.com/AleutianAI/AleutianInventory/services/inventory/stock"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
	"github.com/AleutianAI/AleutianInventory/services/inventory/ui"
)

// Deps are the services the routes need.
type Deps struct {
	Store           *storage.Store
	Stock           *stock.Service
	Auth            *auth.Service
	AuthProvider    extensions.AuthProvider
	Assistant       *assistant.Assistant
	Notifier        *notify.Notifier
	NotifyScheduler *notify.Scheduler
	Bot             *chatbot.Bot
	Analyzer        *analytics.Analyzer
	Reporter        *analytics.Reporter

	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
	// Now is the clock for dashboards and exports. Nil uses time.Now.
	Now func() time.Time
}

// SetupRoutes registers every route on router.
//
// # Description
//
// Public: /health, /metrics, /ui and the /api/v1/auth endpoints.
// Everything else under /api/v1 requires a session token accepted by
// d.AuthProvider.
func SetupRoutes(router *gin.Engine, d Deps) {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router.GET("/health", handlers.HealthCheck(d.Store))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	router.StaticFS("/ui", ui.FS())
	router.GET("/chat", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/ui/chat.html")
	})

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		authGroup.POST("/register", handlers.Register(d.Auth))
		authGroup.POST("/login", handlers.Login(d.Auth, d.SecureCookie))
		authGroup.POST("/logout", handlers.Logout(d.SecureCookie))

		api := v1.Group("", middleware.Auth(d.AuthProvider))
		api.GET("/dashboard", handlers.GetDashboard(d.Store, now))

		products := api.Group("/products")
		{
			products.GET("", handlers.ListProducts(d.Store))
			products.POST("", handlers.CreateProduct(d.Stock))
			products.GET("/:id", handlers.GetProduct(d.Store, d.Assistant, now))
			products.GET("/:id/info", handlers.GetProductInfo(d.Store))
			products.PUT("/:id", handlers.UpdateProduct(d.Stock))
			products.DELETE("/:id", handlers.DeleteProduct(d.Stock))
		}

		categories := api.Group("/categories")
		{
			categories.GET("", handlers.ListCategories(d.Store))
			categories.POST("", handlers.CreateCategory(d.Store))
			categories.GET("/:id", handlers.GetCategory(d.Store))
			categories.PUT("/:id", handlers.UpdateCategory(d.Store))
			categories.DELETE("/:id", handlers.DeleteCategory(d.Stock))
		}

		suppliers := api.Group("/suppliers")
		{
			suppliers.GET("", handlers.ListSuppliers(d.Store))
			suppliers.POST("", handlers.CreateSupplier(d.Store))
			suppliers.GET("/stats", handlers.SupplierStats(d.Store))
			suppliers.GET("/export", handlers.ExportSuppliers(d.Store, now))
			suppliers.GET("/:id", handlers.GetSupplier(d.Store))
			suppliers.PUT("/:id", handlers.UpdateSupplier(d.Store))
			suppliers.DELETE("/:id", handlers.DeleteSupplier(d.Stock))
		}

		api.GET("/transactions", handlers.ListTransactions(d.Store))
		api.POST("/transactions", handlers.CreateTransaction(d.Stock))

		orders := api.Group("/purchase-orders")
		{
			orders.GET("", handlers.ListPurchaseOrders(d.Store))
			orders.POST("", handlers.CreatePurchaseOrder(d.Stock))
			orders.GET("/:id", handlers.GetPurchaseOrder(d.Store, d.Assistant))
			orders.PUT("/:id", handlers.UpdatePurchaseOrder(d.Stock))
			orders.POST("/:id/status", handlers.SetPurchaseOrderStatus(d.Stock))
			orders.DELETE("/:id", handlers.DeletePurchaseOrder(d.Stock))
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", handlers.ListNotifications(d.Notifier))
			notifications.POST("/:id/read", handlers.MarkNotificationRead(d.Notifier))
			notifications.POST("/scan", handlers.ScanNotifications(d.NotifyScheduler))
		}

		chat := api.Group("/chatbot")
		{
			chat.POST("/message", handlers.ChatMessage(d.Bot))
			chat.POST("/confirm", handlers.ChatConfirm(d.Bot))
			chat.GET("/ws", handlers.ChatWebSocket(d.Bot))
		}

		an := api.Group("/analytics")
		{
			an.GET("", handlers.GetAnalytics(d.Analyzer))
			an.POST("/run", handlers.RunAnalytics(d.Analyzer))
			an.POST("/email", middleware.RequireAdmin(), handlers.EmailAnalytics(d.Analyzer, d.Reporter, now))
		}

		api.GET("/insights/recommendations", handlers.Recommendations(d.Store, d.Assistant, now))
	}
}
