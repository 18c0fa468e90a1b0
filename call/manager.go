/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package call

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/loveconnect/loveconnect-go-sdk/signaling"
)

// ErrNoSession is returned by manager operations when there is no
// session to act on.
var ErrNoSession = errors.New("call: no active session")

// codecRegistrar is implemented by media sources that encode with a
// specific codec set; the engine must carry the same codecs.
type codecRegistrar interface {
	RegisterCodecs(m *webrtc.MediaEngine) error
}

// SignalingTransport is what the manager needs from the signaling layer:
// the send operations plus inbound message delivery. Satisfied by
// *signaling.Client.
type SignalingTransport interface {
	Signaler
	OnMessage(handler signaling.Handler)
}

// Manager routes signaling frames to the live session and enforces that
// at most one session per conversation is live at a time.
type Manager struct {
	signaler SignalingTransport
	config   *Config
	events   *EventEmitter
	source   MediaSource

	mu      sync.Mutex
	session *PeerSession
}

// NewManager wires a manager to a connected signaling client. The
// manager registers itself as the client's message handler.
func NewManager(signaler SignalingTransport, config *Config) *Manager {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Media == nil {
		config.Media = DefaultMediaConfig()
	}

	source := config.Source
	if source == nil {
		ds, err := NewDeviceSource()
		if err != nil {
			log.Printf("call: device source unavailable, calls will be receive-only: %v", err)
		} else {
			source = ds
		}
	}

	m := &Manager{
		signaler: signaler,
		config:   config,
		events:   NewEventEmitter(),
		source:   source,
	}

	signaler.OnMessage(m.handleMessage)
	return m
}

// Events returns the emitter for session and incoming-call events
func (m *Manager) Events() *EventEmitter {
	return m.events
}

// Session returns the current session, which may already be Ended, or nil
func (m *Manager) Session() *PeerSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// StartCall places an outgoing call. Any prior live session is fully
// ended, and its resources released, before the new one dials.
func (m *Manager) StartCall(targetID int, callType signaling.CallType) (*PeerSession, error) {
	engine, err := m.newEngine()
	if err != nil {
		return nil, err
	}

	s := NewOutgoingSession(m.signaler, engine, m.source, m.events, m.config, targetID, callType)
	m.install(s)

	if err := s.Dial(); err != nil {
		return nil, err
	}
	return s, nil
}

// install makes s the live session. Whatever is installed at that
// moment, including a ringing session an incoming-call frame raced in
// during teardown, is fully torn down first; the final check and the
// swap share one critical section so no live session is ever silently
// overwritten.
func (m *Manager) install(s *PeerSession) {
	for {
		m.mu.Lock()
		prev := m.session
		if prev == nil || prev.State() == SessionStateEnded {
			m.session = s
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()
		m.teardown(prev)
	}
}

// teardown ends a session this manager is displacing. A still-ringing
// incoming call gets a reject, so the caller hears busy rather than a
// zero-duration hangup.
func (m *Manager) teardown(prev *PeerSession) {
	var err error
	if prev.Direction() == DirectionIncoming && prev.State() == SessionStateRingingIncoming {
		err = prev.Reject()
	} else {
		err = prev.End()
	}
	if err != nil && !errors.Is(err, signaling.ErrNotConnected) && !errors.Is(err, ErrSessionEnded) {
		log.Printf("call: failed to end displaced session: %v", err)
	}
}

// Answer accepts the ringing incoming call
func (m *Manager) Answer() (*PeerSession, error) {
	s := m.Session()
	if s == nil {
		return nil, ErrNoSession
	}
	if err := s.Answer(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reject declines the ringing incoming call
func (m *Manager) Reject() error {
	s := m.Session()
	if s == nil {
		return ErrNoSession
	}
	return s.Reject()
}

// End hangs up the current session
func (m *Manager) End() error {
	s := m.Session()
	if s == nil {
		return ErrNoSession
	}
	return s.End()
}

// newEngine builds the per-attempt peer connection engine
func (m *Manager) newEngine() (Engine, error) {
	if m.config.EngineFactory != nil {
		return m.config.EngineFactory()
	}

	media := &MediaConfig{ICEServers: m.config.Media.ICEServers}
	if r, ok := m.source.(codecRegistrar); ok {
		media.Registrar = r.RegisterCodecs
	}

	engine, err := NewMediaEngine(media)
	if err != nil {
		return nil, fmt.Errorf("call: failed to create media engine: %w", err)
	}
	return engine, nil
}

// handleMessage routes one inbound signaling frame. Dispatch is serial;
// candidate order is preserved all the way into the session queue.
func (m *Manager) handleMessage(msg *signaling.Message) {
	switch msg.Type {
	case signaling.MessageIncomingCall:
		m.handleIncoming(msg)

	case signaling.MessageCallAnswered:
		if s := m.Session(); s != nil && msg.Answer != nil {
			if err := s.HandleAnswered(msg.Answer); err != nil {
				log.Printf("call: failed to handle answer: %v", err)
			}
		}

	case signaling.MessageICECandidate:
		if s := m.Session(); s != nil && msg.Candidate != nil {
			s.HandleRemoteCandidate(msg.Candidate)
		}

	case signaling.MessageCallRejected:
		if s := m.Session(); s != nil {
			s.HandleRemoteRejected()
		}

	case signaling.MessageCallEnded:
		if s := m.Session(); s != nil {
			s.HandleRemoteEnded()
		}

	default:
		log.Printf("call: ignoring signaling frame %s", msg.Type)
	}
}

// handleIncoming rings a new incoming call, or rejects it when a live
// session already exists (busy).
func (m *Manager) handleIncoming(msg *signaling.Message) {
	if s := m.Session(); s != nil && s.State() != SessionStateEnded {
		log.Printf("call: rejecting incoming call from %d, session in progress", msg.CallerID)
		if err := m.signaler.SendReject(msg.CallerID, msg.CallID); err != nil {
			log.Printf("call: failed to send busy reject: %v", err)
		}
		return
	}

	engine, err := m.newEngine()
	if err != nil {
		log.Printf("call: cannot ring incoming call: %v", err)
		if err := m.signaler.SendReject(msg.CallerID, msg.CallID); err != nil {
			log.Printf("call: failed to send reject: %v", err)
		}
		return
	}

	s := NewIncomingSession(m.signaler, engine, m.source, m.events, m.config,
		msg.CallerID, msg.CallID, msg.CallerName, msg.CallType, msg.Offer)

	// Re-check and install in one critical section: an outgoing call
	// placed while this frame was being set up wins, and the caller
	// gets busy instead of a silently dropped ring.
	m.mu.Lock()
	if live := m.session; live != nil && live.State() != SessionStateEnded {
		m.mu.Unlock()
		log.Printf("call: rejecting incoming call from %d, session in progress", msg.CallerID)
		if err := m.signaler.SendReject(msg.CallerID, msg.CallID); err != nil {
			log.Printf("call: failed to send busy reject: %v", err)
		}
		if err := engine.Close(); err != nil {
			log.Printf("call: failed to close engine: %v", err)
		}
		return
	}
	m.session = s
	m.mu.Unlock()

	m.events.Emit(string(SessionEventStateChange), StateChange{
		From: SessionStateIdle, To: SessionStateRingingIncoming,
		CallType: msg.CallType, PeerID: msg.CallerID,
	})
	m.events.Emit(string(SessionEventIncoming), s)
}
