// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package discordbot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
	"github.com/AleutianAI/AleutianInventory/services/inventory/assistant"
	"github.com/AleutianAI/AleutianInventory/services/inventory/chatbot"
	"github.com/AleutianAI/AleutianInventory/services/inventory/stock"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage/storagetest"
	"github.com/AleutianAI/AleutianInventory/services/llm"
)

// =============================================================================
// Fakes
// =============================================================================

type sent struct {
	channel string
	text    string
	embed   *discordgo.MessageEmbed
	reply   bool
}

type fakeMessenger struct {
	mu     sync.Mutex
	msgs   []sent
	typing int
}

func (f *fakeMessenger) add(s sent) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, s)
	return &discordgo.Message{}, nil
}

func (f *fakeMessenger) ChannelMessageSend(ch, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return f.add(sent{channel: ch, text: content})
}

func (f *fakeMessenger) ChannelMessageSendEmbed(ch string, e *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return f.add(sent{channel: ch, embed: e})
}

func (f *fakeMessenger) ChannelMessageSendReply(ch, content string, _ *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return f.add(sent{channel: ch, text: content, reply: true})
}

func (f *fakeMessenger) ChannelMessageSendEmbedReply(ch string, e *discordgo.MessageEmbed, _ *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return f.add(sent{channel: ch, embed: e, reply: true})
}

func (f *fakeMessenger) ChannelTyping(string, ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing++
	return nil
}

func (f *fakeMessenger) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.msgs...)
}

func (f *fakeMessenger) last(t *testing.T) sent {
	t.Helper()
	msgs := f.all()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

type fakeLLM struct {
	reply string
	err   error
}

func (f fakeLLM) Generate(context.Context, string, llm.GenerationParams) (string, error) {
	return f.reply, f.err
}

type harness struct {
	h     *Handler
	out   *fakeMessenger
	store *storage.Store
	fx    storagetest.Fixture
	audit *extensions.MemoryAuditLogger
}

func newHarness(t *testing.T, client llm.LLMClient) harness {
	t.Helper()
	store := storagetest.New(t)
	audit := &extensions.MemoryAuditLogger{}
	svc := stock.NewService(store, audit, nil)
	pending, err := chatbot.OpenPendingStore(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pending.Close() })

	out := &fakeMessenger{}
	bot := chatbot.NewBot(svc, assistant.New(nil), pending, nil)
	h := NewHandler(out, bot, pending, store, NewIntentExtractor(client))
	t.Cleanup(h.Close)
	return harness{h: h, out: out, store: store, fx: storagetest.Seed(t, store), audit: audit}
}

func (hs harness) stockOf(t *testing.T, sku string) int {
	t.Helper()
	p, err := hs.store.Queries().ProductBySKU(context.Background(), sku)
	require.NoError(t, err)
	return p.QuantityInStock
}

func dm(content string) Incoming {
	return Incoming{ChannelID: "dm-1", AuthorID: "u-1", Content: content, Direct: true}
}

func guild(content string) Incoming {
	return Incoming{ChannelID: "general", AuthorID: "u-1", Content: content}
}

// =============================================================================
// Markdown and Intents
// =============================================================================

func TestHTMLToMarkdown(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"plain":    {"Just   text", "Just text"},
		"bold":     {"I found <strong>Laptop</strong> &amp; more", "I found **Laptop** & more"},
		"italic":   {"<em>soon</em>", "*soon*"},
		"listing":  {"<p>Here's the current inventory stock levels:</p>\n<ul>\n    <li><strong>Laptop</strong>: SKU: EL-LAP-001, Stock: 25 units</li>\n    <li><strong>Mouse</strong>: SKU: EL-MOU-001, Stock: 3 units</li>\n</ul>", "Here's the current inventory stock levels:\n\n• **Laptop**: SKU: EL-LAP-001, Stock: 25 units\n• **Mouse**: SKU: EL-MOU-001, Stock: 3 units"},
		"breaks":   {"one<br>two", "one\ntwo"},
		"drop tag": {"<span class=\"x\">hi</span><script>alert(1)</script>", "hi"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTMLToMarkdown(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
	assert.Equal(t, 2000, len([]rune(truncate(strings.Repeat("x", 2500), maxMessageLen))))
}

func TestParseIntent(t *testing.T) {
	tests := map[string]struct {
		in   string
		want Intent
	}{
		"plain json": {
			`{"intent": "add_stock", "entities": {"product_sku": "SKU-1234", "quantity": 20}}`,
			Intent{Intent: IntentAddStock, Entities: Entities{ProductSKU: "SKU-1234", Quantity: 20}},
		},
		"json fence": {
			"Sure!\n```json\n{\"intent\": \"check_inventory\", \"entities\": {\"product_name\": \"blue t-shirts\"}}\n```",
			Intent{Intent: IntentCheckInventory, Entities: Entities{ProductName: "blue t-shirts"}},
		},
		"bare fence": {
			"```\n{\"intent\": \"remove_stock\", \"entities\": {\"product_sku\": \"SKU-5678\", \"quantity\": \"15\"}}\n```",
			Intent{Intent: IntentRemoveStock, Entities: Entities{ProductSKU: "SKU-5678", Quantity: 15}},
		},
		"garbage":        {"I am not JSON", unknownIntent},
		"unknown intent": {`{"intent": "dance"}`, unknownIntent},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseIntent(tt.in))
		})
	}
}

func TestIntentExtractor_Disabled(t *testing.T) {
	var x *IntentExtractor
	assert.False(t, x.Enabled())
	assert.Equal(t, unknownIntent, NewIntentExtractor(nil).Extract(context.Background(), "add 5"))
	assert.Equal(t, unknownIntent, NewIntentExtractor(fakeLLM{err: errors.New("down")}).Extract(context.Background(), "add 5"))
}

// =============================================================================
// Conversation
// =============================================================================

func TestConversation_AddAndConfirm(t *testing.T) {
	hs := newHarness(t, nil)
	ctx := context.Background()
	hs.fx.Product(t, hs.store, "Laptop", "EL-LAP-001", 5, 2)

	hs.h.HandleMessage(ctx, dm("add 3 units to EL-LAP-001"), "bot")
	assert.Equal(t, "I found Laptop with SKU-EL-LAP-001. Current stock level is 5. Would you like to add to the stock by 3 units?", hs.out.last(t).text)

	hs.h.HandleMessage(ctx, dm("yes"), "bot")
	assert.Equal(t, "Successfully updated Laptop stock from 5 to 8.", hs.out.last(t).text)
	assert.Equal(t, 8, hs.stockOf(t, "EL-LAP-001"))

	events := hs.audit.Events()
	require.Len(t, events, 1)
	assert.Equal(t, extensions.SourceDiscord, events[0].Source)
	assert.Equal(t, 3, events[0].Delta)
}

func TestConversation_IgnoresUnaddressedMessages(t *testing.T) {
	hs := newHarness(t, nil)
	hs.h.HandleMessage(context.Background(), guild("list all products"), "bot")
	assert.Empty(t, hs.out.all())

	hs.h.HandleMessage(context.Background(), Incoming{ChannelID: "general", AuthorID: "u-1", Content: "<@bot>  ", Mentioned: true}, "bot")
	assert.Empty(t, hs.out.all(), "empty after stripping the mention")
}

func TestConversation_MentionStripped(t *testing.T) {
	hs := newHarness(t, nil)
	hs.fx.Product(t, hs.store, "Laptop", "EL-LAP-001", 5, 2)
	m := Incoming{ChannelID: "general", AuthorID: "u-1", Content: "<@!bot> list all products", Mentioned: true, Reference: &discordgo.MessageReference{MessageID: "m1"}}

	hs.h.HandleMessage(context.Background(), m, "bot")
	last := hs.out.last(t)
	assert.True(t, last.reply)
	assert.Contains(t, last.text, "• **Laptop**: SKU: EL-LAP-001, Stock: 5 units")
	assert.Equal(t, 1, hs.out.typing)
}

func TestConversation_IntentRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("remove via intent", func(t *testing.T) {
		hs := newHarness(t, fakeLLM{reply: `{"intent": "remove_stock", "entities": {"product_sku": "EL-LAP-001", "quantity": 2}}`})
		hs.fx.Product(t, hs.store, "Laptop", "EL-LAP-001", 5, 2)
		hs.h.HandleMessage(ctx, dm("please take two laptops out"), "bot")
		assert.Equal(t, "I found Laptop with SKU-EL-LAP-001. Current stock level is 5. Would you like to remove from the stock by 2 units?", hs.out.last(t).text)
	})

	t.Run("product info embed", func(t *testing.T) {
		hs := newHarness(t, fakeLLM{reply: `{"intent": "check_inventory", "entities": {"product_name": "lap"}}`})
		hs.fx.Product(t, hs.store, "Laptop", "EL-LAP-001", 5, 2)
		hs.h.HandleMessage(ctx, dm("how many laptops?"), "bot")
		last := hs.out.last(t)
		require.NotNil(t, last.embed)
		assert.Equal(t, "Product Information", last.embed.Title)
		assert.Equal(t, "Here's what I found for 'lap':", last.embed.Description)
		assert.Contains(t, last.embed.Fields[0].Value, "**Laptop** (SKU: EL-LAP-001)\nStock: 5 units\nPrice: $10.00")
	})

	t.Run("product info miss", func(t *testing.T) {
		hs := newHarness(t, fakeLLM{reply: `{"intent": "product_info", "entities": {"product_sku": "ZZ-999"}}`})
		hs.h.HandleMessage(ctx, dm("tell me about ZZ-999"), "bot")
		assert.Equal(t, "I couldn't find any products matching 'ZZ-999'.", hs.out.last(t).text)
	})

	t.Run("confirmation skips the model", func(t *testing.T) {
		hs := newHarness(t, fakeLLM{reply: `{"intent": "product_info", "entities": {"product_sku": "EL-LAP-001"}}`})
		hs.h.HandleMessage(ctx, dm("yes"), "bot")
		assert.Equal(t, "Thank you for confirming. I'll process the stock update now.", hs.out.last(t).text)
	})
}

// =============================================================================
// Commands
// =============================================================================

func TestCommand_AddStockConfirmedInChannel(t *testing.T) {
	hs := newHarness(t, nil)
	ctx := context.Background()
	hs.fx.Product(t, hs.store, "Laptop", "EL-LAP-001", 5, 2)

	hs.h.HandleMessage(ctx, guild("!add_stock EL-LAP-001 4"), "bot")
	assert.Contains(t, hs.out.last(t).text, "Would you like to add to the stock by 4 units?")

	hs.h.HandleMessage(ctx, guild("ok"), "bot")
	assert.Equal(t, "Successfully updated Laptop stock from 5 to 9.", hs.out.last(t).text)
	assert.Equal(t, 9, hs.stockOf(t, "EL-LAP-001"))
}

func TestCommand_StockTimeout(t *testing.T) {
	hs := newHarness(t, nil)
	hs.h.ttl = 20 * time.Millisecond
	ctx := context.Background()
	hs.fx.Product(t, hs.store, "Laptop", "EL-LAP-001", 5, 2)

	hs.h.HandleMessage(ctx, guild("!remove_stock EL-LAP-001 2"), "bot")
	assert.Eventually(t, func() bool {
		return hs.out.last(t).text == timeoutMessage
	}, time.Second, 5*time.Millisecond)

	n := len(hs.out.all())
	hs.h.HandleMessage(ctx, guild("yes"), "bot")
	assert.Len(t, hs.out.all(), n, "late confirmation in a channel is ignored")
	assert.Equal(t, 5, hs.stockOf(t, "EL-LAP-001"))
}

func TestCommand_StockUsage(t *testing.T) {
	hs := newHarness(t, nil)
	hs.h.HandleMessage(context.Background(), guild("!add_stock EL-LAP-001"), "bot")
	assert.Equal(t, "Please provide both SKU and quantity. Format: !add_stock SKU-1234 20", hs.out.last(t).text)
	hs.h.HandleMessage(context.Background(), guild("!remove_stock EL-LAP-001 zero"), "bot")
	assert.Equal(t, "Please provide both SKU and quantity. Format: !remove_stock SKU-1234 10", hs.out.last(t).text)
}

func TestCommand_LowStock(t *testing.T) {
	hs := newHarness(t, nil)
	ctx := context.Background()

	hs.h.HandleMessage(ctx, guild("!low_stock"), "bot")
	assert.Equal(t, "Good news! There are no products below their reorder levels.", hs.out.last(t).text)

	hs.fx.Product(t, hs.store, "Headphones", "EL-HEAD-001", 2, 4)
	hs.fx.Product(t, hs.store, "Cable", "EL-CAB-001", 4, 4)
	hs.h.HandleMessage(ctx, guild("!low_stock 5"), "bot")
	last := hs.out.last(t)
	require.NotNil(t, last.embed)
	assert.Equal(t, "Low Stock Alert", last.embed.Title)
	require.Len(t, last.embed.Fields, 1, "at the reorder level is not low")
	assert.Equal(t, "Headphones (SKU: EL-HEAD-001)", last.embed.Fields[0].Name)
	assert.Contains(t, last.embed.Fields[0].Value, "Shortage: 2 units")
}

func TestCommand_Search(t *testing.T) {
	hs := newHarness(t, nil)
	ctx := context.Background()

	hs.h.HandleMessage(ctx, guild("!search"), "bot")
	assert.Equal(t, "Please provide a search term. Format: !search blue t-shirt", hs.out.last(t).text)

	hs.h.HandleMessage(ctx, guild("!search desk"), "bot")
	assert.Equal(t, "No products found matching 'desk'.", hs.out.last(t).text)

	for _, sku := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"} {
		hs.fx.Product(t, hs.store, "Desk "+sku, "FN-DSK-"+sku, 1, 0)
	}
	hs.h.HandleMessage(ctx, guild("!search desk"), "bot")
	last := hs.out.last(t)
	require.NotNil(t, last.embed)
	assert.Equal(t, "Found 9 products matching 'desk':", last.embed.Description)
	assert.Len(t, last.embed.Fields, 8)
}

func TestCommand_InventorySummaryAndHelp(t *testing.T) {
	hs := newHarness(t, nil)
	ctx := context.Background()
	hs.fx.Product(t, hs.store, "Laptop", "EL-LAP-001", 25, 5)
	hs.fx.Product(t, hs.store, "Headphones", "EL-HEAD-001", 2, 4)

	hs.h.HandleMessage(ctx, guild("!inventory"), "bot")
	last := hs.out.last(t)
	require.NotNil(t, last.embed)
	assert.Equal(t, "Inventory Summary", last.embed.Title)
	assert.Equal(t, "Total Products: 2\nLow Stock Products: 1", last.embed.Description)
	require.Len(t, last.embed.Fields, 2)
	assert.Equal(t, "• **Headphones** (SKU: EL-HEAD-001) - 2/4 units", last.embed.Fields[1].Value)

	hs.h.HandleMessage(ctx, guild("!inventory laptop"), "bot")
	last = hs.out.last(t)
	require.NotNil(t, last.embed)
	assert.Equal(t, "Laptop (SKU: EL-LAP-001)", last.embed.Fields[0].Name)

	hs.h.now = func() time.Time { return time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC) }
	hs.h.HandleMessage(ctx, guild("!help_inventory"), "bot")
	last = hs.out.last(t)
	require.NotNil(t, last.embed)
	assert.Len(t, last.embed.Fields, 6)
	assert.Equal(t, "Bot Version 1.0 | 2026-03-18", last.embed.Footer.Text)
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(Config{}, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoToken)
}
