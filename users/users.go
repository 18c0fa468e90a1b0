/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package users

import (
	"fmt"
	"net/http"

	"github.com/loveconnect/loveconnect-go-sdk/sdk"
)

// User is a profile as returned by the API
type User struct {
	UserID   int    `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Gender   string `json:"gender"`
	Job      string `json:"job,omitempty"`
	City     string `json:"city,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Height   string `json:"height,omitempty"`
}

// CreateRequest is the registration payload. Birthday uses the
// YYYY-MM-DD format the backend expects.
type CreateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Gender   string `json:"gender"`
	Birthday string `json:"birthday,omitempty"`
	Job      string `json:"job,omitempty"`
	City     string `json:"city,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Height   string `json:"height,omitempty"`
}

// PhotoUpload is the response to a gallery upload
type PhotoUpload struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// Status is the generic confirmation many endpoints return
type Status struct {
	Message string `json:"message"`
}

// Config holds the configuration for the Users plugin
type Config struct{}

// DefaultConfig returns the default configuration for the Users plugin
func DefaultConfig() *Config {
	return &Config{}
}

// Client is the users API client
type Client struct {
	client *sdk.Client
	config *Config
}

// New creates a new Users plugin
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
	return "users"
}

// Create registers a new account. Registering an email that already
// exists fails with a 400.
func (c *Client) Create(req *CreateRequest) (*User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	resp, err := c.client.Request(http.MethodPost, "users/", nil, req)
	if err != nil {
		return nil, err
	}

	var user User
	if err := sdk.ParseResponse(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the profile of the authenticated user
func (c *Client) Me() (*User, error) {
	resp, err := c.client.Request(http.MethodGet, "users/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := sdk.ParseResponse(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadPhoto adds a photo to the user's gallery. It does not become
// the avatar until SetAvatar is called with the returned photo.
func (c *Client) UploadPhoto(filename string, content []byte) (*PhotoUpload, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("photo content cannot be empty")
	}

	files := []sdk.MultipartFile{{
		FieldName: "file",
		FileName:  filename,
		Content:   content,
	}}

	resp, err := c.client.RequestMultipart("photos/me", nil, files)
	if err != nil {
		return nil, err
	}

	var result PhotoUpload
	if err := sdk.ParseResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetAvatar makes the given gallery photo the profile picture
func (c *Client) SetAvatar(photoID int) error {
	resp, err := c.client.Request(http.MethodPut, fmt.Sprintf("photos/me/%d/set_avatar", photoID), nil, nil)
	if err != nil {
		return err
	}
	return sdk.ParseResponse(resp, nil)
}

// DeletePhoto removes a photo from the user's gallery
func (c *Client) DeletePhoto(photoID int) error {
	resp, err := c.client.Request(http.MethodDelete, fmt.Sprintf("photos/me/%d", photoID), nil, nil)
	if err != nil {
		return err
	}
	return sdk.ParseResponse(resp, nil)
}
