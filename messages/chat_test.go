/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package messages

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loveconnect/loveconnect-go-sdk/sdk"
)

// chatServer is an httptest WebSocket server that mimics the chat relay:
// it persists nothing but echoes each inbound frame back as a broadcast
// with sender identity filled in and is_me set.
type chatServer struct {
	server  *httptest.Server
	path    string
	token   string
	inbound chan outboundChat
	ready   chan struct{}
}

func newChatServer(t *testing.T) *chatServer {
	t.Helper()

	cs := &chatServer{
		inbound: make(chan outboundChat, 16),
		ready:   make(chan struct{}),
	}

	upgrader := websocket.Upgrader{}
	cs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.path = r.URL.Path
		cs.token = r.URL.Query().Get("token")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade: %v", err)
			return
		}
		close(cs.ready)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var frame outboundChat
			if err := json.Unmarshal(data, &frame); err != nil {
				t.Errorf("Malformed chat frame: %v", err)
				continue
			}
			cs.inbound <- frame

			echo := Message{
				SenderID:   3,
				SenderName: "Minh",
				Content:    frame.Content,
				Type:       frame.Type,
				CreatedAt:  "2026-08-01 10:00:00",
				IsMe:       true,
			}
			out, _ := json.Marshal(echo)
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				return
			}
		}
	}))
	t.Cleanup(cs.server.Close)
	return cs
}

func (cs *chatServer) session(t *testing.T, matchID int) *ChatSession {
	t.Helper()

	config := &sdk.Config{
		BaseURL:          "http://example.invalid",
		WebSocketBaseURL: "ws" + strings.TrimPrefix(cs.server.URL, "http"),
		Timeout:          5 * time.Second,
	}
	client, err := sdk.NewClient("test-token", config)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	return New(client, nil).Chat(matchID)
}

func TestChatConnect(t *testing.T) {
	cs := newChatServer(t)
	session := cs.session(t, 12)

	if session.MatchID() != 12 {
		t.Errorf("Expected match ID 12, got %d", session.MatchID())
	}
	if session.IsConnected() {
		t.Error("Session should not be connected before Connect")
	}

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer session.Close()

	<-cs.ready
	if cs.path != "/ws/chat/12" {
		t.Errorf("Expected path '/ws/chat/12', got '%s'", cs.path)
	}
	if cs.token != "test-token" {
		t.Errorf("Expected token query param 'test-token', got '%s'", cs.token)
	}
	if !session.IsConnected() {
		t.Error("Session should report connected")
	}

	if err := session.Connect(context.Background()); err == nil {
		t.Error("Expected error connecting twice, got nil")
	}
}

func TestChatSendAndReceive(t *testing.T) {
	cs := newChatServer(t)
	session := cs.session(t, 12)

	received := make(chan *Message, 1)
	session.OnMessage(func(msg *Message) {
		received <- msg
	})

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer session.Close()

	if err := session.Send("Chào bạn!"); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}

	select {
	case frame := <-cs.inbound:
		if frame.Content != "Chào bạn!" || frame.Type != TypeText {
			t.Errorf("Unexpected outbound frame: %+v", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Server never received the chat frame")
	}

	select {
	case msg := <-received:
		if msg.Content != "Chào bạn!" || !msg.IsMe {
			t.Errorf("Unexpected broadcast: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Client never received the broadcast")
	}
}

func TestChatSendCallLog(t *testing.T) {
	cs := newChatServer(t)
	session := cs.session(t, 12)

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer session.Close()

	if err := session.SendCallLog("📞 Cuộc gọi thoại đã kết thúc"); err != nil {
		t.Fatalf("Failed to send call log: %v", err)
	}

	select {
	case frame := <-cs.inbound:
		if frame.Type != TypeCallLog {
			t.Errorf("Expected type '%s', got '%s'", TypeCallLog, frame.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Server never received the call log frame")
	}
}

func TestChatSendNotConnected(t *testing.T) {
	cs := newChatServer(t)
	session := cs.session(t, 12)

	if err := session.Send("hello"); !errors.Is(err, ErrChatClosed) {
		t.Errorf("Expected ErrChatClosed, got %v", err)
	}
}

func TestChatCloseIdempotent(t *testing.T) {
	cs := newChatServer(t)
	session := cs.session(t, 12)

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	if err := session.Close(); err != nil {
		t.Fatalf("First close failed: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("Second close failed: %v", err)
	}
	if session.IsConnected() {
		t.Error("Session should not report connected after Close")
	}
	if err := session.Send("late"); !errors.Is(err, ErrChatClosed) {
		t.Errorf("Expected ErrChatClosed after Close, got %v", err)
	}
}
