// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package discordbot serves the inventory chatbot on Discord.
//
// # Description
//
// The bot answers direct messages and messages that mention it, and a
// small set of "!" commands. Stock changes go through the same chatbot
// and confirmation flow as the web UI, scoped to one user in one channel
// and expiring after chatbot.DiscordPendingTTL.
package discordbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
	"github.com/AleutianAI/AleutianInventory/services/inventory/chatbot"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

const (
	colorBlue  = 0x3498db
	colorGreen = 0x2ecc71
	colorRed   = 0xe74c3c

	commandPrefix   = "!"
	timeoutMessage  = "Confirmation timed out. Stock update cancelled."
	unavailableText = "I'm having trouble connecting to the inventory system. Please try again later."
)

// Messenger is the part of *discordgo.Session the handler writes with.
type Messenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbedReply(channelID string, embed *discordgo.MessageEmbed, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
}

// Incoming is a message the bot may act on.
type Incoming struct {
	ChannelID string
	AuthorID  string
	Content   string

	// Direct is true for DMs; Mentioned when the bot was @mentioned.
	Direct    bool
	Mentioned bool

	// Reference is the message to reply to. Nil sends plain messages.
	Reference *discordgo.MessageReference
}

// Handler routes Discord messages to the chatbot and the store.
//
// # Thread Safety
//
// Safe for concurrent use. discordgo dispatches each event on its own
// goroutine.
type Handler struct {
	out     Messenger
	bot     *chatbot.Bot
	pending *chatbot.PendingStore
	store   *storage.Store
	intents *IntentExtractor
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	waiters map[string]*time.Timer
}

// NewHandler wires a handler. bot is rescoped to the Discord source and
// TTL; pending must be the store bot was built with.
func NewHandler(out Messenger, bot *chatbot.Bot, pending *chatbot.PendingStore, store *storage.Store, intents *IntentExtractor) *Handler {
	return &Handler{
		out:     out,
		bot:     bot.ForChannel(extensions.SourceDiscord, chatbot.DiscordPendingTTL),
		pending: pending,
		store:   store,
		intents: intents,
		ttl:     chatbot.DiscordPendingTTL,
		now:     time.Now,
		waiters: make(map[string]*time.Timer),
	}
}

func sessionKey(m Incoming) string {
	return "discord:" + m.ChannelID + ":" + m.AuthorID
}

// HandleMessage processes one message. Commands are handled in any
// channel, as is the confirmation of a command's stock update.
// Conversation only happens in DMs or when mentioned.
func (h *Handler) HandleMessage(ctx context.Context, m Incoming, botUserID string) {
	content := strings.TrimSpace(m.Content)
	if strings.HasPrefix(content, commandPrefix) {
		h.handleCommand(ctx, m, content)
		return
	}
	if h.waiting(sessionKey(m)) && chatbot.IsConfirmation(content) && chatbot.ParseStockUpdate(content) == nil {
		h.clearWaiter(sessionKey(m))
		resp, _ := h.bot.Confirm(ctx, sessionKey(m), 0)
		h.send(m.ChannelID, truncate(HTMLToMarkdown(resp.Text), maxMessageLen), nil)
		return
	}
	if !m.Direct && !m.Mentioned {
		return
	}
	if m.Mentioned && botUserID != "" {
		content = strings.ReplaceAll(content, "<@"+botUserID+">", "")
		content = strings.ReplaceAll(content, "<@!"+botUserID+">", "")
		content = strings.TrimSpace(content)
	}
	if content == "" {
		return
	}
	_ = h.out.ChannelTyping(m.ChannelID)
	h.converse(ctx, m, content)
}

// =============================================================================
// Conversation
// =============================================================================

func (h *Handler) converse(ctx context.Context, m Incoming, content string) {
	key := sessionKey(m)
	if chatbot.IsConfirmation(content) && chatbot.ParseStockUpdate(content) == nil {
		h.clearWaiter(key)
		h.replyChat(m, h.bot.ProcessMessage(ctx, key, 0, content))
		return
	}

	in := h.intents.Extract(ctx, content)
	slog.Debug("discord intent", "intent", in.Intent, "channel", m.ChannelID)
	switch in.Intent {
	case IntentAddStock, IntentRemoveStock:
		if in.Entities.ProductSKU != "" && in.Entities.Quantity > 0 {
			h.replyChat(m, h.bot.ProcessMessage(ctx, key, 0, stockRequestText(in.Intent, in.Entities.ProductSKU, int(in.Entities.Quantity))))
			return
		}
	case IntentCheckInventory, IntentProductInfo:
		if term := in.Entities.SearchTerm(); term != "" {
			h.productInfo(ctx, m, term)
			return
		}
	}
	h.replyChat(m, h.bot.ProcessMessage(ctx, key, 0, content))
}

func stockRequestText(intent, sku string, qty int) string {
	if intent == IntentRemoveStock {
		return fmt.Sprintf("remove %d units from product %s", qty, sku)
	}
	return fmt.Sprintf("add %d units to product %s", qty, sku)
}

func (h *Handler) productInfo(ctx context.Context, m Incoming, term string) {
	products, err := h.store.Queries().SearchProducts(ctx, term, 3)
	if err != nil {
		slog.Error("discord product search", "term", term, "error", err)
		h.reply(m, unavailableText)
		return
	}
	if len(products) == 0 {
		h.reply(m, fmt.Sprintf("I couldn't find any products matching '%s'.", term))
		return
	}
	var sb strings.Builder
	for _, p := range products {
		fmt.Fprintf(&sb, "**%s** (SKU: %s)\nStock: %d units\nPrice: $%.2f\n\n", p.Name, p.SKU, p.QuantityInStock, p.UnitPrice)
	}
	h.replyEmbed(m, &discordgo.MessageEmbed{
		Title:       "Product Information",
		Description: fmt.Sprintf("Here's what I found for '%s':", term),
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{{
			Name:  "Products",
			Value: strings.TrimSpace(sb.String()),
		}},
	})
}

// =============================================================================
// Commands
// =============================================================================

func (h *Handler) handleCommand(ctx context.Context, m Incoming, content string) {
	name, args, _ := strings.Cut(strings.TrimPrefix(content, commandPrefix), " ")
	args = strings.TrimSpace(args)
	switch strings.ToLower(name) {
	case "inventory":
		h.cmdInventory(ctx, m, args)
	case "add_stock":
		h.cmdStock(ctx, m, chatbot.OpAdd, args)
	case "remove_stock":
		h.cmdStock(ctx, m, chatbot.OpRemove, args)
	case "low_stock":
		h.cmdLowStock(ctx, m, args)
	case "search":
		h.cmdSearch(ctx, m, args)
	case "help_inventory":
		h.send(m.ChannelID, "", helpEmbed(h.now()))
	}
}

func (h *Handler) cmdInventory(ctx context.Context, m Incoming, query string) {
	q := h.store.Queries()
	if query == "" {
		embed, err := h.summaryEmbed(ctx, q)
		if err != nil {
			slog.Error("discord inventory summary", "error", err)
			h.send(m.ChannelID, unavailableText, nil)
			return
		}
		h.send(m.ChannelID, "", embed)
		return
	}

	_ = h.out.ChannelTyping(m.ChannelID)
	products, err := q.SearchProducts(ctx, query, 5)
	if err != nil {
		slog.Error("discord inventory search", "query", query, "error", err)
	}
	if len(products) > 0 {
		embed := &discordgo.MessageEmbed{
			Title:       "Product Information",
			Description: fmt.Sprintf("Here's what I found for '%s':", query),
			Color:       colorBlue,
		}
		for _, p := range products {
			embed.Fields = append(embed.Fields, productField(p, p.Description))
		}
		h.send(m.ChannelID, "", embed)
		return
	}
	resp := h.bot.ProcessMessage(ctx, sessionKey(m), 0, query)
	h.send(m.ChannelID, truncate(HTMLToMarkdown(resp.Text), maxMessageLen), nil)
}

func (h *Handler) summaryEmbed(ctx context.Context, q *storage.Queries) (*discordgo.MessageEmbed, error) {
	total, err := q.CountProducts(ctx)
	if err != nil {
		return nil, err
	}
	lowCount, err := q.CountLowStock(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := q.RecentProducts(ctx, 5)
	if err != nil {
		return nil, err
	}
	low, err := q.LowStockProducts(ctx, false, 5)
	if err != nil {
		return nil, err
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Inventory Summary",
		Description: fmt.Sprintf("Total Products: %d\nLow Stock Products: %d", total, lowCount),
		Color:       colorBlue,
	}
	if len(recent) > 0 {
		lines := make([]string, len(recent))
		for i, p := range recent {
			lines[i] = fmt.Sprintf("• **%s** (SKU: %s) - %d units", p.Name, p.SKU, p.QuantityInStock)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Recent Products", Value: strings.Join(lines, "\n")})
	}
	if len(low) > 0 {
		lines := make([]string, len(low))
		for i, p := range low {
			lines[i] = fmt.Sprintf("• **%s** (SKU: %s) - %d/%d units", p.Name, p.SKU, p.QuantityInStock, p.ReorderLevel)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Low Stock Alert", Value: strings.Join(lines, "\n")})
	}
	return embed, nil
}

// cmdStock handles !add_stock and !remove_stock. A request needing
// confirmation is cancelled with timeoutMessage when no confirmation
// arrives within the pending TTL.
func (h *Handler) cmdStock(ctx context.Context, m Incoming, op, args string) {
	fields := strings.Fields(args)
	var qty int
	if len(fields) == 2 {
		_, _ = fmt.Sscanf(fields[1], "%d", &qty)
	}
	if len(fields) != 2 || qty <= 0 {
		example := "!add_stock SKU-1234 20"
		if op == chatbot.OpRemove {
			example = "!remove_stock SKU-1234 10"
		}
		h.send(m.ChannelID, "Please provide both SKU and quantity. Format: "+example, nil)
		return
	}

	_ = h.out.ChannelTyping(m.ChannelID)
	intent := IntentAddStock
	if op == chatbot.OpRemove {
		intent = IntentRemoveStock
	}
	key := sessionKey(m)
	resp := h.bot.ProcessMessage(ctx, key, 0, stockRequestText(intent, fields[0], qty))
	h.send(m.ChannelID, truncate(HTMLToMarkdown(resp.Text), maxMessageLen), nil)
	if resp.NeedsConfirmation {
		h.armWaiter(key, m.ChannelID)
	}
}

func (h *Handler) cmdLowStock(ctx context.Context, m Incoming, args string) {
	limit := 10
	if args != "" {
		if _, err := fmt.Sscanf(args, "%d", &limit); err != nil || limit <= 0 {
			limit = 10
		}
	}
	_ = h.out.ChannelTyping(m.ChannelID)
	products, err := h.store.Queries().LowStockProducts(ctx, false, limit)
	if err != nil {
		slog.Error("discord low stock", "error", err)
		h.send(m.ChannelID, unavailableText, nil)
		return
	}
	if len(products) == 0 {
		h.send(m.ChannelID, "Good news! There are no products below their reorder levels.", nil)
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Low Stock Alert",
		Description: "These products have stock levels below their reorder points:",
		Color:       colorRed,
	}
	for _, p := range products {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("%s (SKU: %s)", p.Name, p.SKU),
			Value: fmt.Sprintf("Current Stock: **%d**\nReorder Level: %d\nShortage: %d units",
				p.QuantityInStock, p.ReorderLevel, p.ReorderLevel-p.QuantityInStock),
		})
	}
	h.send(m.ChannelID, "", embed)
}

func (h *Handler) cmdSearch(ctx context.Context, m Incoming, query string) {
	if query == "" {
		h.send(m.ChannelID, "Please provide a search term. Format: !search blue t-shirt", nil)
		return
	}
	_ = h.out.ChannelTyping(m.ChannelID)
	products, err := h.store.Queries().SearchProducts(ctx, query, 10)
	if err != nil {
		slog.Error("discord search", "query", query, "error", err)
		h.send(m.ChannelID, unavailableText, nil)
		return
	}
	if len(products) == 0 {
		h.send(m.ChannelID, fmt.Sprintf("No products found matching '%s'.", query), nil)
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Product Search Results",
		Description: fmt.Sprintf("Found %d products matching '%s':", len(products), query),
		Color:       colorGreen,
	}
	for i, p := range products {
		if i == 8 {
			break
		}
		embed.Fields = append(embed.Fields, productField(p, firstRunes(p.Description, 100)))
	}
	h.send(m.ChannelID, "", embed)
}

func productField(p datatypes.Product, description string) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{
		Name:  fmt.Sprintf("%s (SKU: %s)", p.Name, p.SKU),
		Value: strings.TrimSpace(fmt.Sprintf("Stock: %d units\nPrice: $%.2f\n%s", p.QuantityInStock, p.UnitPrice, description)),
	}
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func helpEmbed(now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Inventory Management Bot Help",
		Description: "Here are the commands you can use to manage inventory:",
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "!inventory [query]", Value: "Check inventory levels or ask general inventory questions. Without a query, it shows a summary."},
			{Name: "!add_stock [SKU] [quantity]", Value: "Add stock to a product (e.g., !add_stock SKU-1234 20)"},
			{Name: "!remove_stock [SKU] [quantity]", Value: "Remove stock from a product (e.g., !remove_stock SKU-1234 10)"},
			{Name: "!low_stock [limit]", Value: "Show products with stock below reorder level (optional: specify max number of results)"},
			{Name: "!search [query]", Value: "Search for products by name or SKU (e.g., !search blue t-shirt)"},
			{Name: "Conversational Interface", Value: "You can also interact with the bot by mentioning it or in DMs with natural language like 'add 10 units to SKU-1234' or 'How many units of SKU-5678 do we have?'"},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Bot Version 1.0 | " + now.Format("2006-01-02")},
	}
}

// =============================================================================
// Confirmation Timeouts
// =============================================================================

// armWaiter replaces any timer for key with one that cancels the pending
// update after the TTL.
func (h *Handler) armWaiter(key, channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.waiters[key]; ok {
		old.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(h.ttl, func() {
		h.mu.Lock()
		current, ok := h.waiters[key]
		if !ok || current != t {
			h.mu.Unlock()
			return
		}
		delete(h.waiters, key)
		h.mu.Unlock()

		if err := h.pending.Delete(key); err != nil {
			slog.Warn("drop timed out stock update", "session", key, "error", err)
		}
		h.send(channelID, timeoutMessage, nil)
	})
	h.waiters[key] = t
}

func (h *Handler) waiting(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.waiters[key]
	return ok
}

func (h *Handler) clearWaiter(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.waiters[key]; ok {
		t.Stop()
		delete(h.waiters, key)
	}
}

// Close stops every pending timeout.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, t := range h.waiters {
		t.Stop()
		delete(h.waiters, key)
	}
}

// =============================================================================
// Output
// =============================================================================

func (h *Handler) replyChat(m Incoming, resp chatbot.Response) {
	h.reply(m, truncate(HTMLToMarkdown(resp.Text), maxMessageLen))
}

func (h *Handler) reply(m Incoming, text string) {
	var err error
	if m.Reference != nil {
		_, err = h.out.ChannelMessageSendReply(m.ChannelID, text, m.Reference)
	} else {
		_, err = h.out.ChannelMessageSend(m.ChannelID, text)
	}
	if err != nil {
		slog.Warn("discord reply failed", "channel", m.ChannelID, "error", err)
	}
}

func (h *Handler) replyEmbed(m Incoming, embed *discordgo.MessageEmbed) {
	var err error
	if m.Reference != nil {
		_, err = h.out.ChannelMessageSendEmbedReply(m.ChannelID, embed, m.Reference)
	} else {
		_, err = h.out.ChannelMessageSendEmbed(m.ChannelID, embed)
	}
	if err != nil {
		slog.Warn("discord embed reply failed", "channel", m.ChannelID, "error", err)
	}
}

// send posts text, or embed when it is non-nil.
func (h *Handler) send(channelID, text string, embed *discordgo.MessageEmbed) {
	var err error
	if embed != nil {
		_, err = h.out.ChannelMessageSendEmbed(channelID, embed)
	} else {
		_, err = h.out.ChannelMessageSend(channelID, text)
	}
	if err != nil {
		slog.Warn("discord send failed", "channel", channelID, "error", err)
	}
}
