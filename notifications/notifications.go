/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package notifications

import (
	"net/http"

	"github.com/loveconnect/loveconnect-go-sdk/sdk"
)

// Notification kinds the backend produces
const (
	TypeLike    = "like"
	TypeMatch   = "match"
	TypeMessage = "message"
)

// Notification is one entry in the user's notification feed
type Notification struct {
	NotiID       int    `json:"noti_id"`
	Type         string `json:"type"`
	Content      string `json:"content"`
	IsRead       bool   `json:"is_read"`
	CreatedAt    string `json:"created_at"`
	SenderName   string `json:"sender_name,omitempty"`
	SenderAvatar string `json:"sender_avatar,omitempty"`
	SenderID     int    `json:"sender_id,omitempty"`
}

// Config holds the configuration for the Notifications plugin
type Config struct{}

// DefaultConfig returns the default configuration for the Notifications plugin
func DefaultConfig() *Config {
	return &Config{}
}

// Client is the notifications API client
type Client struct {
	client *sdk.Client
	config *Config
}

// New creates a new Notifications plugin
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
	return "notifications"
}

// List returns the user's notifications, newest first
func (c *Client) List() ([]Notification, error) {
	resp, err := c.client.Request(http.MethodGet, "notifications/", nil, nil)
	if err != nil {
		return nil, err
	}

	var notis []Notification
	if err := sdk.ParseResponse(resp, &notis); err != nil {
		return nil, err
	}
	return notis, nil
}
