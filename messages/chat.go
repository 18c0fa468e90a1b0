/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package messages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loveconnect/loveconnect-go-sdk/sdk"
)

// ErrChatClosed is returned by ChatSession.Send when the session is not open.
var ErrChatClosed = errors.New("messages: chat session is not connected")

// ChatConfig holds the configuration for realtime chat sessions
type ChatConfig struct {
	HandshakeTimeout time.Duration // Timeout for the WebSocket open handshake
	WriteTimeout     time.Duration // Timeout for a single frame write
}

// DefaultChatConfig returns the default configuration for chat sessions
func DefaultChatConfig() *ChatConfig {
	return &ChatConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// ChatHandler receives one inbound chat message. Handlers run serially
// in receipt order.
type ChatHandler func(msg *Message)

// outboundChat is the frame the server expects from clients. The server
// fills in sender identity and timestamps before broadcasting.
type outboundChat struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// ChatSession is a live chat connection scoped to a single match. The
// server echoes sent messages back with IsMe set, so senders render
// their own messages from the inbound stream like everyone else's.
type ChatSession struct {
	core    *sdk.Client
	config  *ChatConfig
	matchID int

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	handler   ChatHandler
	closeCh   chan struct{}
	done      chan struct{}
}

func newChatSession(core *sdk.Client, config *ChatConfig, matchID int) *ChatSession {
	if config == nil {
		config = DefaultChatConfig()
	}
	return &ChatSession{
		core:    core,
		config:  config,
		matchID: matchID,
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// MatchID returns the conversation this session belongs to
func (s *ChatSession) MatchID() int {
	return s.matchID
}

// IsConnected returns whether the chat socket is open
func (s *ChatSession) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// OnMessage registers the inbound message handler. Must be set before
// Connect so no broadcast is missed.
func (s *ChatSession) OnMessage(handler ChatHandler) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

// Connect opens the chat socket. The access token rides in the query
// string, matching the server's WebSocket authentication.
func (s *ChatSession) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return fmt.Errorf("messages: chat already connected to match %d", s.matchID)
	}
	s.mu.Unlock()

	wsURL, err := s.core.WebSocketURL("ws/chat/" + strconv.Itoa(s.matchID))
	if err != nil {
		return err
	}
	wsURL += "?token=" + s.core.GetAccessToken()

	dialer := websocket.Dialer{
		HandshakeTimeout: s.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("messages: failed to connect chat: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.closeCh = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.listen(conn)
	return nil
}

// Close closes the chat socket. Idempotent.
func (s *ChatSession) Close() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}

	close(s.closeCh)
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closed by client"))
		_ = conn.Close()
	}

	return nil
}

// Send transmits a text message. The server persists it, notifies the
// partner, and broadcasts it back to both sides.
func (s *ChatSession) Send(content string) error {
	return s.sendTyped(content, TypeText)
}

// SendCallLog records a call transcript line in the conversation. The
// server skips the partner notification for these.
func (s *ChatSession) SendCallLog(content string) error {
	return s.sendTyped(content, TypeCallLog)
}

// SendTyped transmits a message with an explicit type, for image and
// file attachment references the web client uploads out of band.
func (s *ChatSession) SendTyped(content, msgType string) error {
	if msgType == "" {
		msgType = TypeText
	}
	return s.sendTyped(content, msgType)
}

func (s *ChatSession) sendTyped(content, msgType string) error {
	if content == "" {
		return fmt.Errorf("messages: chat content cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected || s.conn == nil {
		return ErrChatClosed
	}

	data, err := json.Marshal(&outboundChat{Content: content, Type: msgType})
	if err != nil {
		return fmt.Errorf("messages: failed to marshal chat frame: %w", err)
	}

	if s.config.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("messages: failed to send chat frame: %w", err)
	}

	return nil
}

// listen reads broadcasts until the socket closes
func (s *ChatSession) listen(conn *websocket.Conn) {
	defer close(s.done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			s.connected = false
			s.conn = nil
			s.mu.Unlock()
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.core.GetLogger().Printf("messages: dropping malformed chat frame: %v", err)
			continue
		}

		s.mu.Lock()
		handler := s.handler
		s.mu.Unlock()

		if handler != nil {
			handler(&msg)
		}
	}
}
