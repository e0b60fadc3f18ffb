// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/AleutianInventory/services/inventory/chatbot"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/middleware"
)

// webSessionKey scopes pending updates to the user across requests.
func webSessionKey(userID int64) string {
	return fmt.Sprintf("web:%d", userID)
}

// ChatMessage answers one chatbot message.
func ChatMessage(bot *chatbot.Bot) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ChatRequest
		if !bind(c, &req) {
			return
		}
		userID := middleware.UserID(c)
		c.JSON(http.StatusOK, bot.ProcessMessage(c.Request.Context(), webSessionKey(userID), userID, req.Message))
	}
}

// ChatConfirm applies the pending update when confirmation is true.
// Outcomes, including "nothing pending", are reported with 200 and a
// success flag.
func ChatConfirm(bot *chatbot.Bot) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		if !req.Confirmation {
			c.JSON(http.StatusOK, gin.H{"success": false, "response": chatbot.ErrNoPendingUpdate.Error()})
			return
		}
		userID := middleware.UserID(c)
		resp, err := bot.Confirm(c.Request.Context(), webSessionKey(userID), userID)
		if err != nil && !errors.Is(err, chatbot.ErrNoPendingUpdate) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// =============================================================================
// WebSocket
// =============================================================================

// WSRequest is one client frame. Action "confirm" applies the pending
// update; otherwise Message is processed like the REST endpoint.
type WSRequest struct {
	Action  string `json:"action,omitempty"`
	Message string `json:"message,omitempty"`
}

// WSResponse wraps a chatbot reply.
type WSResponse struct {
	Action    string            `json:"action"`
	SessionID string            `json:"sessionId,omitempty"`
	Reply     *chatbot.Response `json:"reply,omitempty"`
	Error     string            `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// maxWSMessage bounds a client frame.
const maxWSMessage = 64 * 1024

func sendJSON(ws *websocket.Conn, v any) error {
	if err := ws.WriteJSON(v); err != nil {
		slog.Warn("failed to write websocket frame", "error", err)
		return err
	}
	return nil
}

// ChatWebSocket serves the chatbot over a WebSocket. Each connection has
// its own pending update scope.
//
// # Description
//
// The first frame sent is {"action":"session_created"}. Every client frame
// gets one {"action":"reply"} or {"action":"error"} frame back. The loop
// ends when the client disconnects or a write fails.
func ChatWebSocket(bot *chatbot.Bot) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()
		ws.SetReadLimit(maxWSMessage)

		userID := middleware.UserID(c)
		sessionID := uuid.NewString()
		key := "ws:" + sessionID
		slog.Info("chat websocket connected", "session_id", sessionID, "user_id", userID)
		if err := sendJSON(ws, WSResponse{Action: "session_created", SessionID: sessionID}); err != nil {
			return
		}

		ctx := c.Request.Context()
		for {
			var req WSRequest
			if err := ws.ReadJSON(&req); err != nil {
				slog.Info("chat websocket disconnected", "session_id", sessionID, "error", err.Error())
				return
			}

			var resp chatbot.Response
			switch {
			case req.Action == "confirm":
				resp, _ = bot.Confirm(ctx, key, userID)
			case strings.TrimSpace(req.Message) == "":
				if sendJSON(ws, WSResponse{Action: "error", Error: "message is required"}) != nil {
					return
				}
				continue
			default:
				resp = bot.ProcessMessage(ctx, key, userID, req.Message)
			}
			if sendJSON(ws, WSResponse{Action: "reply", Reply: &resp}) != nil {
				return
			}
		}
	}
}
