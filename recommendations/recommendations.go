/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package recommendations

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/loveconnect/loveconnect-go-sdk/sdk"
)

// Candidate is one suggested profile from the discovery deck
type Candidate struct {
	UserID    int    `json:"user_id"`
	FullName  string `json:"full_name"`
	Gender    string `json:"gender"`
	City      string `json:"city,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Birthday  string `json:"birthday,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Recommendation is the deck response: one candidate plus progress info
type Recommendation struct {
	User  Candidate `json:"user"`
	Total int       `json:"total"`
	Index int       `json:"index"`
}

// SkippedUser is an entry in the skipped list
type SkippedUser struct {
	UserID   int    `json:"user_id"`
	FullName string `json:"full_name"`
	Avatar   string `json:"avatar,omitempty"`
}

// Status is the confirmation message returned by like/skip operations
type Status struct {
	Message string `json:"message"`
}

// Filters narrows the recommendation pool. The backend clamps ages to
// the 18-60 range.
type Filters struct {
	Gender   string
	MinAge   int
	MaxAge   int
	City     string
	Interest string
}

func (f *Filters) values() url.Values {
	params := url.Values{}
	if f == nil {
		return params
	}
	if f.Gender != "" {
		params.Set("gender", f.Gender)
	}
	if f.MinAge > 0 {
		params.Set("min_age", strconv.Itoa(f.MinAge))
	}
	if f.MaxAge > 0 {
		params.Set("max_age", strconv.Itoa(f.MaxAge))
	}
	if f.City != "" {
		params.Set("city", f.City)
	}
	if f.Interest != "" {
		params.Set("interest", f.Interest)
	}
	return params
}

// Config holds the configuration for the Recommendations plugin
type Config struct{}

// DefaultConfig returns the default configuration for the Recommendations plugin
func DefaultConfig() *Config {
	return &Config{}
}

// Client is the recommendations API client
type Client struct {
	client *sdk.Client
	config *Config
}

// New creates a new Recommendations plugin
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
	return "recommendations"
}

// Next returns one random candidate matching the filters. A 404 means
// the pool is exhausted; callers check with sdk.IsNotFound.
func (c *Client) Next(filters *Filters) (*Recommendation, error) {
	resp, err := c.client.Request(http.MethodGet, "home/recommendations", filters.values(), nil)
	if err != nil {
		return nil, err
	}

	var rec Recommendation
	if err := sdk.ParseResponse(resp, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Like likes a profile. Liking twice fails with a 400; a mutual like
// creates a match and both sides get a match notification.
func (c *Client) Like(targetID int) (*Status, error) {
	resp, err := c.client.Request(http.MethodPost, fmt.Sprintf("home/%d/like", targetID), nil, nil)
	if err != nil {
		return nil, err
	}

	var status Status
	if err := sdk.ParseResponse(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Skip removes a profile from the deck until unskipped
func (c *Client) Skip(targetID int) (*Status, error) {
	resp, err := c.client.Request(http.MethodPost, fmt.Sprintf("home/%d/skip", targetID), nil, nil)
	if err != nil {
		return nil, err
	}

	var status Status
	if err := sdk.ParseResponse(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Skipped lists profiles this user has skipped, most recent first
func (c *Client) Skipped() ([]SkippedUser, error) {
	resp, err := c.client.Request(http.MethodGet, "home/skipped", nil, nil)
	if err != nil {
		return nil, err
	}

	var skipped []SkippedUser
	if err := sdk.ParseResponse(resp, &skipped); err != nil {
		return nil, err
	}
	return skipped, nil
}

// Unskip puts a skipped profile back into the deck
func (c *Client) Unskip(targetID int) error {
	resp, err := c.client.Request(http.MethodDelete, fmt.Sprintf("home/skipped/%d", targetID), nil, nil)
	if err != nil {
		return err
	}
	return sdk.ParseResponse(resp, nil)
}
