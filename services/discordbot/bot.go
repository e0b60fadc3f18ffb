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
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/AleutianAI/AleutianInventory/services/inventory/chatbot"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
	"github.com/AleutianAI/AleutianInventory/services/llm"
)

// ErrNoToken is returned by New without a bot token.
var ErrNoToken = errors.New("discord token not configured (set DISCORD_TOKEN)")

// Config configures the gateway connection.
type Config struct {
	Token string
	// GuildID limits guild traffic to one server. DMs are always served.
	GuildID string
}

// Service is a Discord gateway session bound to a Handler.
type Service struct {
	cfg     Config
	session *discordgo.Session
	handler *Handler
}

// New creates the session. Nothing connects until Run.
//
// # Inputs
//
//   - client: model for intent extraction; nil disables it and every
//     conversational message goes to the chatbot as typed.
func New(cfg Config, bot *chatbot.Bot, pending *chatbot.PendingStore, store *storage.Store, client llm.LLMClient) (*Service, error) {
	if cfg.Token == "" {
		return nil, ErrNoToken
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	s := &Service{
		cfg:     cfg,
		session: session,
		handler: NewHandler(session, bot, pending, store, NewIntentExtractor(client)),
	}
	return s, nil
}

// Run connects and serves until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.session.AddHandler(func(ds *discordgo.Session, r *discordgo.Ready) {
		slog.Info("discord bot connected", "user", r.User.Username, "guilds", len(r.Guilds))
		if err := ds.UpdateWatchStatus(0, "inventory levels"); err != nil {
			slog.Warn("discord presence update failed", "error", err)
		}
	})
	s.session.AddHandler(func(ds *discordgo.Session, mc *discordgo.MessageCreate) {
		in, ok := s.incoming(ds, mc)
		if !ok {
			return
		}
		s.handler.HandleMessage(ctx, in, ds.State.User.ID)
	})

	if err := s.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	slog.Info("discord bot running", "guild", s.cfg.GuildID)

	<-ctx.Done()
	s.handler.Close()
	if err := s.session.Close(); err != nil {
		slog.Warn("discord session close", "error", err)
	}
	slog.Info("discord bot stopped")
	return nil
}

// incoming filters out the bot's own messages and other guilds.
func (s *Service) incoming(ds *discordgo.Session, mc *discordgo.MessageCreate) (Incoming, bool) {
	if mc.Author == nil || mc.Author.Bot || ds.State.User == nil || mc.Author.ID == ds.State.User.ID {
		return Incoming{}, false
	}
	direct := mc.GuildID == ""
	if !direct && s.cfg.GuildID != "" && mc.GuildID != s.cfg.GuildID {
		return Incoming{}, false
	}
	mentioned := false
	for _, u := range mc.Mentions {
		if u.ID == ds.State.User.ID {
			mentioned = true
			break
		}
	}
	return Incoming{
		ChannelID: mc.ChannelID,
		AuthorID:  mc.Author.ID,
		Content:   mc.Content,
		Direct:    direct,
		Mentioned: mentioned,
		Reference: mc.Reference(),
	}, true
}
