/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package events

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/loveconnect/loveconnect-go-sdk/sdk"
)

// Event moderation statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Event is a community dating event. IsJoined and CurrentCount are
// computed per-viewer by the listing endpoint.
type Event struct {
	EventID         int    `json:"event_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	StartTime       string `json:"start_time"`
	MaxParticipants int    `json:"max_participants"`
	ImageURL        string `json:"image_url,omitempty"`
	CreatorID       int    `json:"creator_id"`
	CreatorName     string `json:"creator_name,omitempty"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at,omitempty"`
	IsJoined        int    `json:"is_joined,omitempty"`
	CurrentCount    int    `json:"current_count,omitempty"`
}

// CreateRequest is the payload for creating or updating an event. The
// backend takes multipart form data because every event carries a cover
// image.
type CreateRequest struct {
	Title       string
	Description string
	Location    string
	StartTime   string // YYYY-MM-DD HH:MM format the backend stores verbatim
	Limit       int    // Participant cap; the backend defaults to 50
	ImageName   string
	Image       []byte
}

// CreateResult confirms event creation. Events created by regular users
// start out pending until an admin approves them.
type CreateResult struct {
	Message string `json:"message"`
	EventID int    `json:"event_id"`
}

// Participant is one attendee of an event, excluding the viewer
type Participant struct {
	UserID   int    `json:"user_id"`
	FullName string `json:"full_name"`
	Gender   string `json:"gender"`
	Avatar   string `json:"avatar,omitempty"`
}

// Message is one entry in an event's group chat history
type Message struct {
	Content    string `json:"content"`
	SenderID   int    `json:"sender_id"`
	SenderName string `json:"sender_name"`
	CreatedAt  string `json:"created_at"`
	IsMe       bool   `json:"is_me"`
}

// Status is the generic confirmation the mutation endpoints return
type Status struct {
	Message string `json:"message"`
}

// Config holds the configuration for the Events plugin
type Config struct{}

// DefaultConfig returns the default configuration for the Events plugin
func DefaultConfig() *Config {
	return &Config{}
}

// Client is the events API client
type Client struct {
	client *sdk.Client
	config *Config
}

// New creates a new Events plugin
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
	return "events"
}

// List returns approved events, newest start time first
func (c *Client) List() ([]Event, error) {
	resp, err := c.client.Request(http.MethodGet, "events/", nil, nil)
	if err != nil {
		return nil, err
	}

	var events []Event
	if err := sdk.ParseResponse(resp, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Pending returns events awaiting moderation. Admin only.
func (c *Client) Pending() ([]Event, error) {
	resp, err := c.client.Request(http.MethodGet, "events/pending", nil, nil)
	if err != nil {
		return nil, err
	}

	var events []Event
	if err := sdk.ParseResponse(resp, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Create submits a new event with its cover image. Regular users' events
// await admin approval; admins' events go live immediately.
func (c *Client) Create(req *CreateRequest) (*CreateResult, error) {
	if req.Title == "" || len(req.Image) == 0 {
		return nil, fmt.Errorf("event title and cover image are required")
	}

	fields, files := req.multipart()
	resp, err := c.client.RequestMultipart("events/", fields, files)
	if err != nil {
		return nil, err
	}

	var result CreateResult
	if err := sdk.ParseResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateStatus approves or rejects a pending event. Admin only.
func (c *Client) UpdateStatus(eventID int, status string) (*Status, error) {
	form := url.Values{}
	form.Set("status", status)

	resp, err := c.client.RequestForm(context.Background(), http.MethodPut,
		fmt.Sprintf("events/%d/status", eventID), form)
	if err != nil {
		return nil, err
	}

	var result Status
	if err := sdk.ParseResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Update rewrites an event's details. The cover image is optional here;
// leave Image empty to keep the current one. Admin only.
func (c *Client) Update(eventID int, req *CreateRequest) (*Status, error) {
	fields, files := req.multipart()
	resp, err := c.client.RequestMultipartWithRetry(context.Background(), http.MethodPut,
		fmt.Sprintf("events/%d", eventID), fields, files)
	if err != nil {
		return nil, err
	}

	var result Status
	if err := sdk.ParseResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes an event. Admin only.
func (c *Client) Delete(eventID int) error {
	resp, err := c.client.Request(http.MethodDelete, fmt.Sprintf("events/%d", eventID), nil, nil)
	if err != nil {
		return err
	}
	return sdk.ParseResponse(resp, nil)
}

// Join registers the user for an event. Joining a full event fails with
// a 400; joining twice is a no-op.
func (c *Client) Join(eventID int) (*Status, error) {
	resp, err := c.client.Request(http.MethodPost, fmt.Sprintf("events/%d/join", eventID), nil, nil)
	if err != nil {
		return nil, err
	}

	var status Status
	if err := sdk.ParseResponse(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Leave withdraws the user from an event
func (c *Client) Leave(eventID int) (*Status, error) {
	resp, err := c.client.Request(http.MethodDelete, fmt.Sprintf("events/%d/leave", eventID), nil, nil)
	if err != nil {
		return nil, err
	}

	var status Status
	if err := sdk.ParseResponse(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Participants lists an event's other attendees. Requires having joined,
// unless the caller is an admin.
func (c *Client) Participants(eventID int) ([]Participant, error) {
	resp, err := c.client.Request(http.MethodGet, fmt.Sprintf("events/%d/participants", eventID), nil, nil)
	if err != nil {
		return nil, err
	}

	var participants []Participant
	if err := sdk.ParseResponse(resp, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

// Messages returns an event's group chat history, oldest first. Requires
// having joined, unless the caller is an admin.
func (c *Client) Messages(eventID int) ([]Message, error) {
	resp, err := c.client.Request(http.MethodGet, fmt.Sprintf("events/%d/messages", eventID), nil, nil)
	if err != nil {
		return nil, err
	}

	var msgs []Message
	if err := sdk.ParseResponse(resp, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *CreateRequest) multipart() ([]sdk.MultipartField, []sdk.MultipartFile) {
	limit := r.Limit
	if limit <= 0 {
		limit = 50
	}

	fields := []sdk.MultipartField{
		{Name: "title", Value: r.Title},
		{Name: "description", Value: r.Description},
		{Name: "location", Value: r.Location},
		{Name: "start_time", Value: r.StartTime},
		{Name: "limit", Value: strconv.Itoa(limit)},
	}

	var files []sdk.MultipartFile
	if len(r.Image) > 0 {
		name := r.ImageName
		if name == "" {
			name = "event.jpg"
		}
		files = append(files, sdk.MultipartFile{
			FieldName: "file",
			FileName:  name,
			Content:   r.Image,
		})
	}
	return fields, files
}
