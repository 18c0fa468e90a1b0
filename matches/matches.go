/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package matches

import (
	"net/http"

	"github.com/loveconnect/loveconnect-go-sdk/sdk"
)

// Match is one mutual-like conversation with its latest message preview
type Match struct {
	MatchID         int    `json:"match_id"`
	PartnerID       int    `json:"partner_id"`
	FullName        string `json:"full_name"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	CreatedAt       string `json:"created_at"`
	LastMessage     string `json:"last_message,omitempty"`
	LastMessageTime string `json:"last_message_time,omitempty"`
}

// Config holds the configuration for the Matches plugin
type Config struct{}

// DefaultConfig returns the default configuration for the Matches plugin
func DefaultConfig() *Config {
	return &Config{}
}

// Client is the matches API client
type Client struct {
	client *sdk.Client
	config *Config
}

// New creates a new Matches plugin
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
	return "matches"
}

// List returns the user's active matches, sorted by latest activity
func (c *Client) List() ([]Match, error) {
	resp, err := c.client.Request(http.MethodGet, "matches/", nil, nil)
	if err != nil {
		return nil, err
	}

	var matches []Match
	if err := sdk.ParseResponse(resp, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}
