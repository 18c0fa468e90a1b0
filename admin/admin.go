/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package admin

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/loveconnect/loveconnect-go-sdk/sdk"
)

// Stats is the back-office dashboard snapshot. The chart slices hold one
// count per day over the trailing week.
type Stats struct {
	TotalUsers    int            `json:"total_users"`
	OnlineUsers   int            `json:"online_users"`
	BannedUsers   int            `json:"banned_users"`
	TotalMatches  int            `json:"total_matches"`
	MessagesChart []int          `json:"messages_chart"`
	MatchesChart  []int          `json:"matches_chart"`
	GenderRatio   map[string]int `json:"gender_ratio"`
}

// User is an account row in the moderation list
type User struct {
	UserID    int    `json:"user_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Gender    string `json:"gender"`
	IsBanned  int    `json:"is_banned"`
	IsOnline  int    `json:"is_online"`
	CreatedAt string `json:"created_at"`
}

// MessageSender is a row in the top-senders leaderboard
type MessageSender struct {
	UserID        int    `json:"user_id"`
	FullName      string `json:"full_name"`
	TotalMessages int    `json:"total_messages"`
}

// Match is a pairing row in the moderation list
type Match struct {
	MatchID   int    `json:"match_id"`
	CreatedAt string `json:"created_at"`
	User1Name string `json:"user1_name"`
	User2Name string `json:"user2_name"`
}

// Message is one message as seen by moderators, with both participants named
type Message struct {
	MessageID    int    `json:"message_id"`
	MatchID      int    `json:"match_id"`
	SenderID     int    `json:"sender_id"`
	Content      string `json:"content"`
	Type         string `json:"type"`
	IsRead       int    `json:"is_read"`
	CreatedAt    string `json:"created_at"`
	SenderName   string `json:"sender_name"`
	ReceiverName string `json:"receiver_name"`
}

// Status is the confirmation message the mutation endpoints return
type Status struct {
	Message string `json:"message"`
}

// Config holds the configuration for the Admin plugin
type Config struct{}

// DefaultConfig returns the default configuration for the Admin plugin
func DefaultConfig() *Config {
	return &Config{}
}

// Client is the admin API client. Every operation requires an admin
// account; the server answers 403 otherwise.
type Client struct {
	client *sdk.Client
	config *Config
}

// New creates a new Admin plugin
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
	return "admin"
}

// Stats returns the dashboard counters and charts
func (c *Client) Stats() (*Stats, error) {
	resp, err := c.client.Request(http.MethodGet, "admin/stats", nil, nil)
	if err != nil {
		return nil, err
	}

	var stats Stats
	if err := sdk.ParseResponse(resp, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Users lists non-admin accounts, newest first. A non-empty search
// filters by name or email substring.
func (c *Client) Users(search string) ([]User, error) {
	params := url.Values{}
	if search != "" {
		params.Set("search", search)
	}

	resp, err := c.client.Request(http.MethodGet, "admin/users", params, nil)
	if err != nil {
		return nil, err
	}

	var users []User
	if err := sdk.ParseResponse(resp, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// BanUser locks an account out of the platform
func (c *Client) BanUser(userID int) (*Status, error) {
	return c.putStatus(fmt.Sprintf("admin/users/%d/ban", userID))
}

// UnbanUser restores a banned account
func (c *Client) UnbanUser(userID int) (*Status, error) {
	return c.putStatus(fmt.Sprintf("admin/users/%d/unban", userID))
}

// TopMessageSenders returns the ten most active senders
func (c *Client) TopMessageSenders() ([]MessageSender, error) {
	resp, err := c.client.Request(http.MethodGet, "admin/top-message-users", nil, nil)
	if err != nil {
		return nil, err
	}

	var senders []MessageSender
	if err := sdk.ParseResponse(resp, &senders); err != nil {
		return nil, err
	}
	return senders, nil
}

// Matches lists all pairings, newest first. A non-empty search filters
// by either participant's name.
func (c *Client) Matches(search string) ([]Match, error) {
	params := url.Values{}
	if search != "" {
		params.Set("search", search)
	}

	resp, err := c.client.Request(http.MethodGet, "admin/matches", params, nil)
	if err != nil {
		return nil, err
	}

	var matches []Match
	if err := sdk.ParseResponse(resp, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// Messages returns every message in a conversation, for moderation
func (c *Client) Messages(matchID int) ([]Message, error) {
	params := url.Values{}
	params.Set("match_id", strconv.Itoa(matchID))

	resp, err := c.client.Request(http.MethodGet, "admin/messages", params, nil)
	if err != nil {
		return nil, err
	}

	var msgs []Message
	if err := sdk.ParseResponse(resp, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// DeleteMessage removes a single message permanently
func (c *Client) DeleteMessage(messageID int) (*Status, error) {
	resp, err := c.client.Request(http.MethodDelete, fmt.Sprintf("admin/messages/%d", messageID), nil, nil)
	if err != nil {
		return nil, err
	}

	var status Status
	if err := sdk.ParseResponse(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) putStatus(path string) (*Status, error) {
	resp, err := c.client.Request(http.MethodPut, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var status Status
	if err := sdk.ParseResponse(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
