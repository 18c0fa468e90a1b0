/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package messages

import (
	"fmt"
	"net/http"

	"github.com/loveconnect/loveconnect-go-sdk/sdk"
)

// Message types understood by the chat channel
const (
	TypeText    = "text"
	TypeImage   = "image"
	TypeFile    = "file"
	TypeCallLog = "call_log"
)

// Message is one chat message in a match conversation
type Message struct {
	MessageID    int    `json:"message_id,omitempty"`
	SenderID     int    `json:"sender_id"`
	SenderName   string `json:"sender_name"`
	SenderAvatar string `json:"sender_avatar,omitempty"`
	Content      string `json:"content"`
	Type         string `json:"type"`
	CreatedAt    string `json:"created_at"`
	IsMe         bool   `json:"is_me"`
}

// Status is the confirmation message returned by the send endpoint
type Status struct {
	Message string `json:"message"`
}

// Config holds the configuration for the Messages plugin
type Config struct {
	// Chat configures realtime chat sessions opened through this plugin
	Chat *ChatConfig
}

// DefaultConfig returns the default configuration for the Messages plugin
func DefaultConfig() *Config {
	return &Config{
		Chat: DefaultChatConfig(),
	}
}

// Client is the messages API client
type Client struct {
	client *sdk.Client
	config *Config
}

// New creates a new Messages plugin
func New(client *sdk.Client, config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	return &Client{
		client: client,
		config: config,
	}
}

// Name returns the name of the plugin
func (c *Client) Name() string {
	return "messages"
}

// List returns the full history of a conversation, oldest first. Each
// entry carries IsMe so callers can lay out the thread without knowing
// their own user ID.
func (c *Client) List(matchID int) ([]Message, error) {
	resp, err := c.client.Request(http.MethodGet, fmt.Sprintf("messages/%d", matchID), nil, nil)
	if err != nil {
		return nil, err
	}

	var msgs []Message
	if err := sdk.ParseResponse(resp, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Send posts a message over HTTP. The backend only acknowledges here;
// delivery and persistence happen on the realtime channel, so prefer
// ChatSession.Send when a session is open.
func (c *Client) Send(matchID int, content string) (*Status, error) {
	if content == "" {
		return nil, fmt.Errorf("message content cannot be empty")
	}

	body := map[string]string{"content": content}
	resp, err := c.client.Request(http.MethodPost, fmt.Sprintf("messages/%d", matchID), nil, body)
	if err != nil {
		return nil, err
	}

	var status Status
	if err := sdk.ParseResponse(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Chat opens a realtime chat session for the given match
func (c *Client) Chat(matchID int) *ChatSession {
	return newChatSession(c.client, c.config.Chat, matchID)
}
