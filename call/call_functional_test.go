/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package call

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loveconnect/loveconnect-go-sdk/sdk"
	"github.com/loveconnect/loveconnect-go-sdk/signaling"
)

// relayServer plays the far side of the signaling socket for one client.
type relayServer struct {
	srv     *httptest.Server
	mu      sync.Mutex
	conn    *websocket.Conn
	inbound chan *signaling.Message
	ready   chan struct{}
}

func newRelayServer(t *testing.T) *relayServer {
	t.Helper()

	rs := &relayServer{
		inbound: make(chan *signaling.Message, 32),
		ready:   make(chan struct{}),
	}

	upgrader := websocket.Upgrader{}
	rs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		rs.mu.Lock()
		rs.conn = conn
		rs.mu.Unlock()
		close(rs.ready)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				close(rs.inbound)
				return
			}
			var msg signaling.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Errorf("bad client frame: %v", err)
				continue
			}
			rs.inbound <- &msg
		}
	}))
	t.Cleanup(rs.srv.Close)
	return rs
}

func (rs *relayServer) push(t *testing.T, msg *signaling.Message) {
	t.Helper()
	rs.mu.Lock()
	conn := rs.conn
	rs.mu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("server push failed: %v", err)
	}
}

func (rs *relayServer) expect(t *testing.T, want signaling.MessageType) *signaling.Message {
	t.Helper()
	select {
	case msg, ok := <-rs.inbound:
		if !ok {
			t.Fatalf("connection closed while waiting for %s", want)
		}
		if msg.Type != want {
			t.Fatalf("Expected %s frame, got %s", want, msg.Type)
		}
		return msg
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s frame", want)
		return nil
	}
}

// TestVoiceCallEndToEnd drives a full outgoing voice call over a real
// websocket: offer, answer, remote media, hangup, transcript.
func TestVoiceCallEndToEnd(t *testing.T) {
	rs := newRelayServer(t)

	core, err := sdk.NewClient("test-token", &sdk.Config{BaseURL: rs.srv.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	sc := signaling.New(core, &signaling.Config{
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
	})
	t.Cleanup(func() { sc.Close() })

	engine := &fakeEngine{}
	source := &fakeSource{tracks: []*fakeTrack{{kind: "audio", enabled: true}}}
	m := NewManager(sc, &Config{
		EngineFactory: func() (Engine, error) { return engine, nil },
		Source:        source,
	})

	ui := NewUIStateMachine()
	ui.Bind(m.Events())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sc.Connect(ctx, 42); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	<-rs.ready

	session, err := m.StartCall(55, signaling.CallTypeVoice)
	if err != nil {
		t.Fatalf("StartCall failed: %v", err)
	}

	offer := rs.expect(t, signaling.MessageCallOffer)
	if offer.TargetID != 55 {
		t.Errorf("Expected target 55, got %d", offer.TargetID)
	}
	if offer.CallType != signaling.CallTypeVoice {
		t.Errorf("Expected voice call, got %s", offer.CallType)
	}
	if offer.Offer == nil || offer.Offer.SDP == "" {
		t.Error("Expected SDP in offer frame")
	}
	if ui.Display() != DisplayOutgoingRinging {
		t.Errorf("Expected outgoing ringing display, got %s", ui.Display())
	}

	rs.push(t, &signaling.Message{
		Type:   signaling.MessageCallAnswered,
		Answer: &signaling.SessionDescription{Type: "answer", SDP: "v=0 remote"},
	})

	deadline := time.Now().Add(5 * time.Second)
	for session.State() != SessionStateNegotiating {
		if time.Now().After(deadline) {
			t.Fatalf("session never reached negotiating, state %s", session.State())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if ui.Display() != DisplayInCall {
		t.Errorf("Expected in-call display, got %s", ui.Display())
	}

	engine.triggerRemoteTrack("audio")
	if session.State() != SessionStateConnected {
		t.Errorf("Expected connected after remote media, got %s", session.State())
	}

	if err := m.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	end := rs.expect(t, signaling.MessageCallEnd)
	if end.Duration == nil || *end.Duration < 0 {
		t.Error("Expected non-negative duration in call-end frame")
	}
	if end.CallType != signaling.CallTypeVoice {
		t.Errorf("Expected voice call type in call-end, got %s", end.CallType)
	}

	if ui.Display() != DisplayNoCall {
		t.Errorf("Expected no-call display after hangup, got %s", ui.Display())
	}
	transcript := ui.Transcript()
	if len(transcript) != 1 {
		t.Fatalf("Expected exactly 1 transcript entry, got %d", len(transcript))
	}
	if transcript[0] != TranscriptVoiceEnded {
		t.Errorf("Expected %q, got %q", TranscriptVoiceEnded, transcript[0])
	}
}

// TestIncomingVideoCallEndToEnd drives the callee side: ring, answer,
// hang up from the far side, transcript.
func TestIncomingVideoCallEndToEnd(t *testing.T) {
	rs := newRelayServer(t)

	core, err := sdk.NewClient("test-token", &sdk.Config{BaseURL: rs.srv.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	sc := signaling.New(core, &signaling.Config{
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
	})
	t.Cleanup(func() { sc.Close() })

	engine := &fakeEngine{}
	m := NewManager(sc, &Config{
		EngineFactory: func() (Engine, error) { return engine, nil },
		Source:        audioVideoSource(),
	})

	ui := NewUIStateMachine()
	ui.Bind(m.Events())

	incoming := make(chan *PeerSession, 1)
	m.Events().On(string(SessionEventIncoming), func(data interface{}) {
		incoming <- data.(*PeerSession)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sc.Connect(ctx, 42); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	<-rs.ready

	rs.push(t, &signaling.Message{
		Type:       signaling.MessageIncomingCall,
		CallerID:   7,
		CallerName: "Linh",
		CallID:     33,
		CallType:   signaling.CallTypeVideo,
		Offer:      &signaling.SessionDescription{Type: "offer", SDP: "v=0 caller"},
	})

	var session *PeerSession
	select {
	case session = <-incoming:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for incoming call")
	}
	if ui.Display() != DisplayIncomingRinging {
		t.Errorf("Expected incoming ringing display, got %s", ui.Display())
	}

	if _, err := m.Answer(); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	answer := rs.expect(t, signaling.MessageCallAnswer)
	if answer.TargetID != 7 || answer.CallID != 33 {
		t.Errorf("Expected answer to 7/33, got %d/%d", answer.TargetID, answer.CallID)
	}

	rs.push(t, &signaling.Message{Type: signaling.MessageCallEnded, CallType: signaling.CallTypeVideo})

	deadline := time.Now().Add(5 * time.Second)
	for session.State() != SessionStateEnded {
		if time.Now().After(deadline) {
			t.Fatalf("session never ended, state %s", session.State())
		}
		time.Sleep(10 * time.Millisecond)
	}

	transcript := ui.Transcript()
	if len(transcript) != 1 || transcript[0] != TranscriptVideoEnded {
		t.Errorf("Expected one %q entry, got %v", TranscriptVideoEnded, transcript)
	}
}
