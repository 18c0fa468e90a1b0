/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package loveconnect

import (
	"context"
	"fmt"
	"sync"

	"github.com/loveconnect/loveconnect-go-sdk/admin"
	"github.com/loveconnect/loveconnect-go-sdk/auth"
	"github.com/loveconnect/loveconnect-go-sdk/call"
	"github.com/loveconnect/loveconnect-go-sdk/events"
	"github.com/loveconnect/loveconnect-go-sdk/matches"
	"github.com/loveconnect/loveconnect-go-sdk/messages"
	"github.com/loveconnect/loveconnect-go-sdk/notifications"
	"github.com/loveconnect/loveconnect-go-sdk/recommendations"
	"github.com/loveconnect/loveconnect-go-sdk/sdk"
	"github.com/loveconnect/loveconnect-go-sdk/signaling"
	"github.com/loveconnect/loveconnect-go-sdk/users"
)

// LoveConnectClient is the top-level client for the LoveConnect API
type LoveConnectClient struct {
	// Core client for the LoveConnect API
	core *sdk.Client

	// Plugins
	usersClient           *users.Client
	recommendationsClient *recommendations.Client
	matchesClient         *matches.Client
	messagesClient        *messages.Client
	notificationsClient   *notifications.Client
	eventsClient          *events.Client
	adminClient           *admin.Client

	// Mutex for thread-safe setup of calling sessions
	callMu sync.Mutex
}

// NewClient creates a new LoveConnect client with the given access token and
// optional configuration
func NewClient(accessToken string, config *sdk.Config) (*LoveConnectClient, error) {
	core, err := sdk.NewClient(accessToken, config)
	if err != nil {
		return nil, err
	}

	client := &LoveConnectClient{
		core: core,
	}

	return client, nil
}

// Login exchanges credentials for a token and returns a ready client.
// Convenience over auth.Login + NewClient.
func Login(ctx context.Context, config *sdk.Config, email, password string) (*LoveConnectClient, error) {
	token, err := auth.Login(ctx, config, email, password)
	if err != nil {
		return nil, err
	}
	return NewClient(token.AccessToken, config)
}

// Users returns the Users plugin
func (c *LoveConnectClient) Users() *users.Client {
	if c.usersClient == nil {
		c.usersClient = users.New(c.core, nil)
	}
	return c.usersClient
}

// Recommendations returns the Recommendations plugin
func (c *LoveConnectClient) Recommendations() *recommendations.Client {
	if c.recommendationsClient == nil {
		c.recommendationsClient = recommendations.New(c.core, nil)
	}
	return c.recommendationsClient
}

// Matches returns the Matches plugin
func (c *LoveConnectClient) Matches() *matches.Client {
	if c.matchesClient == nil {
		c.matchesClient = matches.New(c.core, nil)
	}
	return c.matchesClient
}

// Messages returns the Messages plugin
func (c *LoveConnectClient) Messages() *messages.Client {
	if c.messagesClient == nil {
		c.messagesClient = messages.New(c.core, nil)
	}
	return c.messagesClient
}

// Notifications returns the Notifications plugin
func (c *LoveConnectClient) Notifications() *notifications.Client {
	if c.notificationsClient == nil {
		c.notificationsClient = notifications.New(c.core, nil)
	}
	return c.notificationsClient
}

// Events returns the Events plugin
func (c *LoveConnectClient) Events() *events.Client {
	if c.eventsClient == nil {
		c.eventsClient = events.New(c.core, nil)
	}
	return c.eventsClient
}

// Admin returns the Admin plugin. Every operation on it requires an
// admin account's token.
func (c *LoveConnectClient) Admin() *admin.Client {
	if c.adminClient == nil {
		c.adminClient = admin.New(c.core, nil)
	}
	return c.adminClient
}

// Signaling returns a fresh call-signaling client. Each client owns one
// WebSocket connection scoped to a single match.
func (c *LoveConnectClient) Signaling() *signaling.Client {
	return signaling.New(c.core, nil)
}

// CallingSession bundles the connected signaling client with the call
// manager driving it. Close the signaling client when done with calls
// for this match.
type CallingSession struct {
	Signaling *signaling.Client
	Manager   *call.Manager
	UI        *call.UIStateMachine
}

// Close hangs up any live call and closes the signaling socket
func (s *CallingSession) Close() error {
	_ = s.Manager.End()
	return s.Signaling.Close()
}

// Calling wires up everything needed to place and receive calls within
// one match: a signaling WebSocket, a call manager routing its frames,
// and a UI state machine bound to the manager's events.
//
// Simple usage:
//
//	session, err := client.Calling(ctx, matchID, nil)
//	session.Manager.StartCall(partnerID, signaling.CallTypeVideo)
//	defer session.Close()
//
// For advanced control use the lower-level APIs directly (signaling.New,
// call.NewManager, call.NewUIStateMachine).
func (c *LoveConnectClient) Calling(ctx context.Context, matchID int, config *call.Config) (*CallingSession, error) {
	c.callMu.Lock()
	defer c.callMu.Unlock()

	sig := signaling.New(c.core, nil)

	// Manager must register its message handler before the socket opens.
	manager := call.NewManager(sig, config)

	ui := call.NewUIStateMachine()
	ui.Bind(manager.Events())

	if err := sig.Connect(ctx, matchID); err != nil {
		return nil, fmt.Errorf("cannot start call system: %w", err)
	}

	return &CallingSession{
		Signaling: sig,
		Manager:   manager,
		UI:        ui,
	}, nil
}

// Core returns the core LoveConnect client
func (c *LoveConnectClient) Core() *sdk.Client {
	return c.core
}
