/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/loveconnect/loveconnect-go-sdk/sdk"
)

// ErrNotConnected is returned by send operations when the signaling socket
// is not open. Callers can distinguish "frame dropped" from "frame sent".
var ErrNotConnected = errors.New("signaling: websocket is not connected")

// Config holds the configuration for the signaling client
type Config struct {
	HandshakeTimeout time.Duration // Timeout for the WebSocket open handshake
	WriteTimeout     time.Duration // Timeout for a single frame write
	PingInterval     time.Duration // Interval between keepalive pings; 0 disables
	PongTimeout      time.Duration // Timeout for receiving a pong response
}

// DefaultConfig returns the default configuration for the signaling client
func DefaultConfig() *Config {
	return &Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     30 * time.Second,
		PongTimeout:      10 * time.Second,
	}
}

// Handler is a function that handles one inbound signaling message.
// Messages are dispatched serially in receipt order; ICE candidate
// ordering depends on this.
type Handler func(msg *Message)

// DisconnectHandler is called once when the socket closes for any reason
// other than a local Close. err is the read error that ended the connection.
type DisconnectHandler func(err error)

// Client is the call-signaling client. One Client owns one WebSocket
// connection scoped to a single conversation (match); the server relays
// each frame to the target participant.
type Client struct {
	core   *sdk.Client
	config *Config

	mu           sync.Mutex
	conn         *websocket.Conn
	connected    bool
	matchID      int
	handler      Handler
	onDisconnect DisconnectHandler
	closeCh      chan struct{}
	done         chan struct{}
}

// New creates a new signaling client
func New(core *sdk.Client, config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	return &Client{
		core:    core,
		config:  config,
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Name returns the name of the plugin
func (c *Client) Name() string {
	return "signaling"
}

// MatchID returns the conversation this client is connected to
func (c *Client) MatchID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matchID
}

// IsConnected returns whether the signaling socket is open
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// OnMessage registers the single inbound message handler. Must be set
// before Connect; replacing it mid-connection is not supported.
func (c *Client) OnMessage(handler Handler) {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
}

// OnDisconnect registers a handler invoked when the socket drops
// unexpectedly. There is no automatic reconnect: the call attempt fails
// and the owner surfaces "cannot start call system" to the user.
func (c *Client) OnDisconnect(handler DisconnectHandler) {
	c.mu.Lock()
	c.onDisconnect = handler
	c.mu.Unlock()
}

// Connect opens the signaling socket for the given conversation. The
// access token is carried as a query parameter, matching the server's
// query-string authentication. Connect returns once the open handshake
// completes; it fails without retry on any dial error.
func (c *Client) Connect(ctx context.Context, matchID int) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return fmt.Errorf("signaling: already connected to match %d", c.matchID)
	}
	c.mu.Unlock()

	wsURL, err := c.core.WebSocketURL("ws/call/" + strconv.Itoa(matchID))
	if err != nil {
		return err
	}
	wsURL += "?token=" + c.core.GetAccessToken()

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("signaling: failed to connect: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Time{})
	})

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.matchID = matchID
	c.closeCh = make(chan struct{})
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.listen(conn)
	if c.config.PingInterval > 0 {
		go c.keepalive(conn)
	}

	return nil
}

// Close closes the signaling socket. Idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}

	close(c.closeCh)
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closed by client"))
		_ = conn.Close()
	}

	return nil
}

// ---- Send operations ----

// SendOffer transmits a call-offer for a new outgoing call. No reply is
// awaited; the answer arrives asynchronously via the message handler.
func (c *Client) SendOffer(targetID int, callType CallType, offer *SessionDescription) error {
	return c.send(&Message{
		Type:     MessageCallOffer,
		TargetID: targetID,
		CallType: callType,
		Offer:    offer,
	})
}

// SendAnswer transmits a call-answer accepting the call identified by callID.
func (c *Client) SendAnswer(targetID, callID int, answer *SessionDescription) error {
	return c.send(&Message{
		Type:     MessageCallAnswer,
		TargetID: targetID,
		CallID:   callID,
		Answer:   answer,
	})
}

// SendICECandidate transmits one ICE candidate. Fire-and-forget, but
// order-sensitive relative to other candidates from this side.
func (c *Client) SendICECandidate(targetID int, candidate *ICECandidate) error {
	return c.send(&Message{
		Type:      MessageICECandidate,
		TargetID:  targetID,
		Candidate: candidate,
	})
}

// SendReject declines the incoming call identified by callID.
func (c *Client) SendReject(targetID, callID int) error {
	return c.send(&Message{
		Type:     MessageCallReject,
		TargetID: targetID,
		CallID:   callID,
	})
}

// SendEnd hangs up the call, reporting the elapsed duration in seconds and
// the call type so the other side can log the right transcript entry.
func (c *Client) SendEnd(targetID, callID int, callType CallType, durationSeconds int) error {
	return c.send(&Message{
		Type:     MessageCallEnd,
		TargetID: targetID,
		CallID:   callID,
		CallType: callType,
		Duration: &durationSeconds,
	})
}

// send marshals and writes one frame. Returns ErrNotConnected when the
// socket is not open rather than silently dropping the frame.
func (c *Client) send(msg *Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.conn == nil {
		return ErrNotConnected
	}

	if msg.TrackingID == "" {
		msg.TrackingID = uuid.NewString()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("signaling: failed to marshal %s: %w", msg.Type, err)
	}

	if c.config.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("signaling: failed to send %s: %w", msg.Type, err)
	}

	return nil
}

// ---- Inbound loop ----

// listen reads frames until the socket closes. Each decoded message is
// dispatched exactly once, serially, in receipt order.
func (c *Client) listen(conn *websocket.Conn) {
	defer close(c.done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleConnectionError(err)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.core.GetLogger().Printf("signaling: dropping malformed frame: %v", err)
			continue
		}
		if msg.Type == "" {
			c.core.GetLogger().Printf("signaling: dropping frame with no type")
			continue
		}

		c.mu.Lock()
		handler := c.handler
		c.mu.Unlock()

		if handler != nil {
			handler(&msg)
		}
	}
}

// handleConnectionError marks the client disconnected and notifies the
// owner unless the close was requested locally.
func (c *Client) handleConnectionError(err error) {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.conn = nil
	onDisconnect := c.onDisconnect
	c.mu.Unlock()

	if !wasConnected {
		return
	}

	select {
	case <-c.closeCh:
		// Closed locally; not an error.
	default:
		c.core.GetLogger().Printf("signaling: connection lost: %v", err)
		if onDisconnect != nil {
			onDisconnect(err)
		}
	}
}

// keepalive sends protocol-level pings so NAT/proxy timeouts don't kill
// an idle signaling socket while a call is ringing.
func (c *Client) keepalive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.SetReadDeadline(time.Now().Add(c.config.PongTimeout)); err != nil {
				return
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.config.WriteTimeout)); err != nil {
				return
			}
		case <-c.closeCh:
			return
		case <-c.done:
			return
		}
	}
}
