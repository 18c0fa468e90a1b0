/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package call

import (
	"sync"

	"github.com/loveconnect/loveconnect-go-sdk/signaling"
)

// ---- Session State & Event Enums ----

// SessionState represents the state of a call session in the state machine
type SessionState string

const (
	SessionStateIdle            SessionState = "idle"
	SessionStateDialing         SessionState = "dialing"
	SessionStateRingingIncoming SessionState = "ringing_incoming"
	SessionStateNegotiating     SessionState = "negotiating"
	SessionStateConnected       SessionState = "connected"
	SessionStateEnded           SessionState = "ended"
)

// Direction indicates who placed the call
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// SessionEventKey identifies the type of session event
type SessionEventKey string

const (
	// State machine transitioned; payload is StateChange
	SessionEventStateChange SessionEventKey = "state_change"
	// First remote media arrived; payload is the track kind string
	SessionEventRemoteTrack SessionEventKey = "remote_track"
	// Negotiation or media failure; payload is error
	SessionEventError SessionEventKey = "session_error"
	// Terminal; payload is EndInfo. Emitted exactly once per session.
	SessionEventEnded SessionEventKey = "ended"
	// Manager-level: an incoming call is ringing; payload is *PeerSession
	SessionEventIncoming SessionEventKey = "incoming_call"
)

// StateChange is the payload of a state_change event
type StateChange struct {
	From     SessionState
	To       SessionState
	CallType signaling.CallType
	PeerID   int
}

// EndReason explains why a session reached the terminal state
type EndReason string

const (
	// The local user hung up
	EndReasonHangup EndReason = "hangup"
	// The remote user hung up
	EndReasonRemoteHangup EndReason = "remote_hangup"
	// The remote user declined the outgoing call
	EndReasonRejected EndReason = "rejected"
	// The local user declined the incoming call
	EndReasonDeclined EndReason = "declined"
	// The outgoing call rang past the configured timeout
	EndReasonTimeout EndReason = "timeout"
	// Negotiation or media failure
	EndReasonError EndReason = "error"
)

// EndInfo is the payload of an ended event
type EndInfo struct {
	Reason   EndReason
	CallType signaling.CallType
	// Duration is the connected time in whole seconds, 0 if never connected
	Duration int
	PeerID   int
}

// ---- Event Emitter ----

// EventHandler is a callback function for events
type EventHandler func(data interface{})

// EventEmitter provides a simple event pub/sub system
type EventEmitter struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

// NewEventEmitter creates a new EventEmitter
func NewEventEmitter() *EventEmitter {
	return &EventEmitter{
		handlers: make(map[string][]EventHandler),
	}
}

// On registers an event handler for a specific event type
func (e *EventEmitter) On(event string, handler EventHandler) {
	if handler == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[event] = append(e.handlers[event], handler)
}

// Off removes all handlers for a specific event type
func (e *EventEmitter) Off(event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.handlers, event)
}

// Emit fires an event, calling all registered handlers
func (e *EventEmitter) Emit(event string, data interface{}) {
	e.mu.RLock()
	handlers := make([]EventHandler, len(e.handlers[event]))
	copy(handlers, e.handlers[event])
	e.mu.RUnlock()

	for _, handler := range handlers {
		handler(data)
	}
}
