// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package assistant

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
)

// =============================================================================
// Notifications
// =============================================================================

// LowStockNotification summarizes a product at or below its reorder level.
func (a *Assistant) LowStockNotification(ctx context.Context, p datatypes.Product, supplierName string) string {
	fallback := fmt.Sprintf("Low stock alert for %s. Current stock: %d. Please reorder %d units from %s.",
		p.Name, p.QuantityInStock, p.ReorderQuantity, supplierName)
	prompt := fmt.Sprintf(`Product '%s' (SKU: %s) is running low on stock.
Current quantity: %d
Reorder level: %d
Supplier: %s

Please generate a concise, human-readable notification about this low stock situation.
Include a recommendation to reorder and how many units should be ordered (reorder quantity: %d).`,
		p.Name, p.SKU, p.QuantityInStock, p.ReorderLevel, supplierName, p.ReorderQuantity)
	return MarkdownToHTML(a.generate(ctx, "low_stock", prompt, fallback))
}

// IrregularActivityAlert explains a transaction far from the product's
// average quantity for its type.
func (a *Assistant) IrregularActivityAlert(ctx context.Context, p datatypes.Product, tx datatypes.Transaction, avg float64) string {
	fallback := fmt.Sprintf("Irregular activity detected for %s. Transaction quantity: %d, Average: %.2f",
		p.Name, tx.Quantity, avg)
	deviation := 0.0
	if avg > 0 {
		deviation = float64(tx.Quantity) / avg
	}
	size := "unusual"
	switch {
	case deviation > 2:
		size = "significantly higher"
	case deviation < 0.5:
		size = "significantly lower"
	}
	prompt := fmt.Sprintf(`Unusual inventory activity detected for '%s' (SKU: %s):

Transaction type: %s
Quantity: %d units
Date: %s
This transaction amount is %s compared to the average transaction quantity of %.2f units.

Please generate a concise alert message explaining this irregular activity and suggesting possible explanations and actions to take.`,
		p.Name, p.SKU, tx.Type, tx.Quantity, tx.TransactionDate.Format("2006-01-02 15:04"), size, avg)
	return MarkdownToHTML(a.generate(ctx, "irregular_activity", prompt, fallback))
}

// =============================================================================
// Purchase orders and products
// =============================================================================

// PurchaseOrderSummary describes an order. order.Items and
// order.SupplierName must be loaded.
func (a *Assistant) PurchaseOrderSummary(ctx context.Context, order datatypes.PurchaseOrder) string {
	fallback := fmt.Sprintf("Purchase Order #%d for %s containing %d items with total amount $%.2f.",
		order.ID, order.SupplierName, len(order.Items), order.TotalAmount)

	lines := make([]string, 0, len(order.Items))
	for _, it := range order.Items {
		lines = append(lines, fmt.Sprintf("- %s (SKU: %s): %d units at $%.2f each = $%.2f",
			it.ProductName, it.ProductSKU, it.Quantity, it.UnitPrice, it.TotalPrice))
	}
	expected := "Not specified"
	if order.ExpectedDeliveryDate != nil {
		expected = order.ExpectedDeliveryDate.Format("2006-01-02")
	}
	prompt := fmt.Sprintf(`Purchase Order #%d for %s
Order Date: %s
Expected Delivery: %s
Status: %s

Items:
%s
Total Amount: $%.2f

Please generate a concise, professional summary of this purchase order. Highlight any important details and suggest next steps based on the current status.`,
		order.ID, order.SupplierName, order.OrderDate.Format("2006-01-02"), expected,
		strings.ToUpper(order.Status), strings.Join(lines, "\n"), order.TotalAmount)
	return MarkdownToHTML(a.generate(ctx, "purchase_order", prompt, fallback))
}

// InventoryTrends analyzes the last days of a product's transactions.
func (a *Assistant) InventoryTrends(ctx context.Context, p datatypes.Product, txns []datatypes.Transaction, days int, now time.Time) string {
	fallback := fmt.Sprintf("Inventory analysis for %s: Current stock level is %d units.", p.Name, p.QuantityInStock)
	if !a.Enabled() {
		return fallback
	}
	since := now.AddDate(0, 0, -days)
	sold, bought := 0, 0
	for _, t := range txns {
		if t.TransactionDate.Before(since) {
			continue
		}
		switch t.Type {
		case datatypes.TxSale:
			sold += t.Quantity
		case datatypes.TxPurchase:
			bought += t.Quantity
		}
	}
	prompt := fmt.Sprintf(`Inventory Analysis for '%s' (SKU: %s) over the past %d days:

Current stock level: %d units
Reorder level: %d units
Reorder quantity: %d units

Recent activity:
- Total units sold: %d
- Total units purchased: %d
- Net change: %d

Please analyze this data and provide:
1. A brief assessment of the current inventory status
2. Recommendation for inventory management (if stock is low, adequate, or excessive)
3. Suggestions for optimizing the reorder level and quantity based on recent sales patterns`,
		p.Name, p.SKU, days, p.QuantityInStock, p.ReorderLevel, p.ReorderQuantity, sold, bought, bought-sold)
	return MarkdownToHTML(a.generate(ctx, "trends", prompt, fallback))
}

// TopSeller pairs a product with units sold.
type TopSeller struct {
	Product  datatypes.Product `json:"product"`
	Quantity int               `json:"quantity"`
}

// InventoryRecommendations suggests five actions from the current
// inventory. Only the first five top sellers and low stock products are
// sent to the model.
func (a *Assistant) InventoryRecommendations(ctx context.Context, products []datatypes.Product, topSellers []TopSeller, lowStock []datatypes.Product) string {
	const fallback = "Based on your current inventory data, consider restocking your top-selling products and reviewing slow-moving items."
	if !a.Enabled() {
		return fallback
	}

	top := "No sales data available"
	if len(topSellers) > 0 {
		lines := make([]string, 0, 5)
		for _, ts := range topSellers[:min(5, len(topSellers))] {
			lines = append(lines, fmt.Sprintf("- %s: %d units sold", ts.Product.Name, ts.Quantity))
		}
		top = strings.Join(lines, "\n")
	}

	low := "No products are below reorder levels"
	if len(lowStock) > 0 {
		lines := make([]string, 0, 5)
		for _, p := range lowStock[:min(5, len(lowStock))] {
			lines = append(lines, fmt.Sprintf("- %s: Current stock %d units (below reorder level of %d)",
				p.Name, p.QuantityInStock, p.ReorderLevel))
		}
		low = strings.Join(lines, "\n")
	}

	counts := map[string]int{}
	for _, p := range products {
		if p.CategoryName != "" {
			counts[p.CategoryName]++
		}
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	categories := "No category data available"
	if len(names) > 0 {
		lines := make([]string, 0, len(names))
		for _, n := range names {
			lines = append(lines, fmt.Sprintf("- %s: %d products", n, counts[n]))
		}
		categories = strings.Join(lines, "\n")
	}

	prompt := fmt.Sprintf(`Based on the following inventory data, please provide 5 actionable recommendations for inventory management:

Top selling products:
%s

Products needing restock:
%s

Product categories:
%s

Total products in inventory: %d
Total low stock products: %d

Please generate specific, actionable recommendations including:
1. Which products to restock immediately
2. Which product categories to expand or reduce
3. How to optimize inventory turnover
4. Potential bundling or promotion opportunities
5. Inventory management process improvements
Format your response as a numbered list with brief explanations.`,
		top, low, categories, len(products), len(lowStock))
	return MarkdownToHTML(a.generate(ctx, "recommendations", prompt, fallback))
}

// =============================================================================
// Chatbot
// =============================================================================

// InventoryContext is the live data attached to a chatbot question.
type InventoryContext struct {
	ProductCount  int
	LowStockCount int
	Recent        []datatypes.Product
}

const generalQueryPreamble = `You are an AI assistant for an inventory management system. Answer the user's question about inventory.
Only respond with information about inventory management, products, stock levels, etc.
Keep responses concise and helpful. If you don't know an answer, ask for more specific information.

Format your responses with proper HTML for best display:
- Use <ul> and <li> for lists, not asterisks
- Use <strong> or <b> for bold text
- Use <br> for line breaks
- Ensure each list item is on its own line with proper indentation

When listing products or stock information, ALWAYS use a proper HTML list with <ul> and <li> tags.

Current capabilities:
- Provide information about product stock levels
- Answer questions about inventory management
- Assist with product information
- Provide supplier information
- Help with locating products

For stock operations, users can:
- Add or increase stock: "add 20 units to product SKU-1234" or "update SKU-5678 with 10 units"
- Remove or decrease stock: "remove 15 units from SKU-1234" or "decrease SKU-5678 by 5 units"`

// GeneralQueryFallback is returned for free-form questions when no model
// is available.
const GeneralQueryFallback = "<p>I can list all products, show products with low stock, or update stock levels " +
	"(for example: <strong>add 20 units to SKU-1234</strong> or <strong>remove 5 units from SKU-1234</strong>). " +
	"Answering other questions needs an AI model, which is not configured.</p>"

// GeneralQuery answers a free-form chatbot question with inventory
// context.
func (a *Assistant) GeneralQuery(ctx context.Context, message string, ic InventoryContext) string {
	if !a.Enabled() {
		return GeneralQueryFallback
	}
	examples := make([]string, 0, len(ic.Recent))
	for _, p := range ic.Recent {
		examples = append(examples, fmt.Sprintf("• %s\n  SKU: %s\n  Stock: %d units", p.Name, p.SKU, p.QuantityInStock))
	}
	prompt := fmt.Sprintf(`%s

INVENTORY CONTEXT:
Total products in inventory: %d
Products with low stock: %d

Current Stock Levels:
%s

USER QUERY:
%s`, generalQueryPreamble, ic.ProductCount, ic.LowStockCount, strings.Join(examples, "\n"), message)
	return a.generate(ctx, "general_query", prompt, GeneralQueryFallback)
}

// =============================================================================
// Analytics
// =============================================================================

// ProductFacts are the analytics figures summarized per product.
type ProductFacts struct {
	ProductID                 int64
	ProductName               string
	CategoryName              string
	SupplierName              string
	PopularityIndex           int
	Clusters                  int
	CurrentStock              int
	ReorderLevel              int
	StockIn                   int
	StockOut                  int
	PredictedDaysUntilReorder float64
	WindowDays                int
}

// ProductSummary writes two or three sentences about a product from the
// given facts only.
func (a *Assistant) ProductSummary(ctx context.Context, f ProductFacts) string {
	fallback := factsFallback(f)
	prompt := fmt.Sprintf(`You are an inventory analytics assistant. Use ONLY these facts:
• Product: %s (ID %d)
• Category: %s
• Supplier: %s
• Popularity Index (1→%d): %d
• Current Stock: %d
• Reorder Level: %d
• Stock In (last %dd): %d
• Stock Out (last %dd): %d
• Predicted Days Until Reorder: %.1f

Write a 2–3 sentence summary. If Predicted Days Until Reorder is 0, say "This product needs restocking immediately."`,
		f.ProductName, f.ProductID, f.CategoryName, f.SupplierName, max(f.Clusters, 1), f.PopularityIndex,
		f.CurrentStock, f.ReorderLevel, f.WindowDays, f.StockIn, f.WindowDays, f.StockOut, f.PredictedDaysUntilReorder)
	return a.generate(ctx, "product_summary", prompt, fallback)
}

func factsFallback(f ProductFacts) string {
	s := fmt.Sprintf("%s (%s, supplied by %s) has popularity index %d of %d with %d units in stock; %d units were sold and %d received in the last %d days.",
		f.ProductName, f.CategoryName, f.SupplierName, f.PopularityIndex, max(f.Clusters, 1),
		f.CurrentStock, f.StockOut, f.StockIn, f.WindowDays)
	if f.PredictedDaysUntilReorder <= 0 {
		return s + " This product needs restocking immediately."
	}
	return s + fmt.Sprintf(" Predicted days until reorder: %.1f.", f.PredictedDaysUntilReorder)
}
