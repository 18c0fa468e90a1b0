/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package call

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/loveconnect/loveconnect-go-sdk/signaling"
)

// ErrSessionEnded is returned by operations on a session that already
// reached the terminal state.
var ErrSessionEnded = errors.New("call: session has ended")

// Signaler is the subset of the signaling client a session needs.
// Satisfied by *signaling.Client; faked in tests.
type Signaler interface {
	SendOffer(targetID int, callType signaling.CallType, offer *signaling.SessionDescription) error
	SendAnswer(targetID, callID int, answer *signaling.SessionDescription) error
	SendICECandidate(targetID int, candidate *signaling.ICECandidate) error
	SendReject(targetID, callID int) error
	SendEnd(targetID, callID int, callType signaling.CallType, durationSeconds int) error
}

// Config holds the configuration for the call subsystem
type Config struct {
	// RingTimeout ends an unanswered outgoing call after this long.
	// Zero disables the timer.
	RingTimeout time.Duration

	// Media configures the default Pion engine
	Media *MediaConfig

	// EngineFactory builds the peer connection engine for each call
	// attempt. Defaults to NewMediaEngine over Media.
	EngineFactory func() (Engine, error)

	// Source acquires local capture tracks. Defaults to the platform
	// DeviceSource.
	Source MediaSource
}

// DefaultConfig returns the default configuration for the call subsystem
func DefaultConfig() *Config {
	return &Config{
		RingTimeout: 0,
		Media:       DefaultMediaConfig(),
	}
}

// PeerSession is one call attempt with one peer. It owns the engine and
// any captured tracks; both are released exactly once when the session
// reaches the terminal state, whichever path gets there first.
type PeerSession struct {
	signaler Signaler
	engine   Engine
	source   MediaSource
	events   *EventEmitter
	config   *Config

	mu        sync.Mutex
	state     SessionState
	direction Direction
	callType  signaling.CallType

	// peerID is the other participant; callID is assigned by the server
	// and only known on the incoming side.
	peerID     int
	callID     int
	callerName string

	// remoteOffer is held from the incoming-call frame until Answer
	remoteOffer *signaling.SessionDescription

	// Candidates received before the remote description is applied are
	// queued and drained FIFO exactly once.
	pendingRemoteCandidates []*signaling.ICECandidate
	haveRemoteDesc          bool

	localTracks []LocalTrack
	startedAt   time.Time
	ringTimer   *time.Timer
	cleaned     bool
}

// NewOutgoingSession builds a session for a call this user places.
// The session is Idle until Dial.
func NewOutgoingSession(signaler Signaler, engine Engine, source MediaSource, events *EventEmitter, config *Config, targetID int, callType signaling.CallType) *PeerSession {
	if config == nil {
		config = DefaultConfig()
	}
	return &PeerSession{
		signaler:  signaler,
		engine:    engine,
		source:    source,
		events:    events,
		config:    config,
		state:     SessionStateIdle,
		direction: DirectionOutgoing,
		callType:  callType,
		peerID:    targetID,
	}
}

// NewIncomingSession builds a session for a ringing incoming call. The
// offer is held until the user answers.
func NewIncomingSession(signaler Signaler, engine Engine, source MediaSource, events *EventEmitter, config *Config, callerID, callID int, callerName string, callType signaling.CallType, offer *signaling.SessionDescription) *PeerSession {
	if config == nil {
		config = DefaultConfig()
	}
	return &PeerSession{
		signaler:    signaler,
		engine:      engine,
		source:      source,
		events:      events,
		config:      config,
		state:       SessionStateRingingIncoming,
		direction:   DirectionIncoming,
		callType:    callType,
		peerID:      callerID,
		callID:      callID,
		callerName:  callerName,
		remoteOffer: offer,
	}
}

// ---- Accessors ----

// State returns the current session state
func (s *PeerSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Direction returns whether this user placed or received the call
func (s *PeerSession) Direction() Direction {
	return s.direction
}

// CallType returns whether the call is voice or video
func (s *PeerSession) CallType() signaling.CallType {
	return s.callType
}

// PeerID returns the other participant's user ID
func (s *PeerSession) PeerID() int {
	return s.peerID
}

// CallID returns the server-assigned call ID, 0 when unknown
func (s *PeerSession) CallID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callID
}

// CallerName returns the display name from the incoming-call frame
func (s *PeerSession) CallerName() string {
	return s.callerName
}

// Duration returns the connected time in whole seconds, 0 if the call
// never reached negotiation.
func (s *PeerSession) Duration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durationLocked()
}

func (s *PeerSession) durationLocked() int {
	if s.startedAt.IsZero() {
		return 0
	}
	d := int(time.Since(s.startedAt).Seconds())
	if d < 0 {
		return 0
	}
	return d
}

// ---- Outgoing path ----

// Dial captures local media, creates the offer and sends it. Capture
// failure is non-fatal: the call proceeds with no local tracks and the
// peer hears/sees nothing from this side.
func (s *PeerSession) Dial() error {
	s.mu.Lock()
	if s.state != SessionStateIdle {
		state := s.state
		s.mu.Unlock()
		if state == SessionStateEnded {
			return ErrSessionEnded
		}
		return fmt.Errorf("call: cannot dial from state %s", state)
	}
	s.mu.Unlock()

	s.setState(SessionStateDialing)
	s.attachMedia()

	offer, err := s.engine.CreateOffer()
	if err != nil {
		s.fail(fmt.Errorf("call: failed to create offer: %w", err))
		return err
	}

	if err := s.signaler.SendOffer(s.peerID, s.callType, offer); err != nil {
		s.fail(fmt.Errorf("call: failed to send offer: %w", err))
		return err
	}

	if s.config.RingTimeout > 0 {
		s.mu.Lock()
		s.ringTimer = time.AfterFunc(s.config.RingTimeout, s.handleRingTimeout)
		s.mu.Unlock()
	}

	return nil
}

// HandleAnswered applies the callee's answer and drains any queued
// candidates. The call clock starts here.
func (s *PeerSession) HandleAnswered(answer *signaling.SessionDescription) error {
	s.mu.Lock()
	if s.state != SessionStateDialing {
		state := s.state
		s.mu.Unlock()
		if state == SessionStateEnded {
			return ErrSessionEnded
		}
		return fmt.Errorf("call: unexpected answer in state %s", state)
	}
	timer := s.ringTimer
	s.ringTimer = nil
	s.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}

	if err := s.engine.SetRemoteDescription(answer); err != nil {
		s.fail(fmt.Errorf("call: failed to apply answer: %w", err))
		return err
	}

	s.mu.Lock()
	s.haveRemoteDesc = true
	queued := s.pendingRemoteCandidates
	s.pendingRemoteCandidates = nil
	s.startedAt = time.Now()
	s.applyQueuedLocked(queued)
	s.mu.Unlock()

	s.setState(SessionStateNegotiating)
	return nil
}

// ---- Incoming path ----

// Answer accepts the ringing call: capture local media, apply the held
// offer, drain queued candidates and send the answer back.
func (s *PeerSession) Answer() error {
	s.mu.Lock()
	if s.state != SessionStateRingingIncoming {
		state := s.state
		s.mu.Unlock()
		if state == SessionStateEnded {
			return ErrSessionEnded
		}
		return fmt.Errorf("call: cannot answer from state %s", state)
	}
	offer := s.remoteOffer
	s.mu.Unlock()

	s.attachMedia()

	if err := s.engine.SetRemoteDescription(offer); err != nil {
		s.fail(fmt.Errorf("call: failed to apply offer: %w", err))
		return err
	}

	s.mu.Lock()
	s.haveRemoteDesc = true
	queued := s.pendingRemoteCandidates
	s.pendingRemoteCandidates = nil
	s.applyQueuedLocked(queued)
	s.mu.Unlock()

	answer, err := s.engine.CreateAnswer()
	if err != nil {
		s.fail(fmt.Errorf("call: failed to create answer: %w", err))
		return err
	}

	if err := s.signaler.SendAnswer(s.peerID, s.callID, answer); err != nil {
		s.fail(fmt.Errorf("call: failed to send answer: %w", err))
		return err
	}

	s.mu.Lock()
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.setState(SessionStateNegotiating)
	return nil
}

// Reject declines the ringing call and tears the session down.
func (s *PeerSession) Reject() error {
	s.mu.Lock()
	if s.state != SessionStateRingingIncoming {
		state := s.state
		s.mu.Unlock()
		if state == SessionStateEnded {
			return ErrSessionEnded
		}
		return fmt.Errorf("call: cannot reject from state %s", state)
	}
	s.mu.Unlock()

	sendErr := s.signaler.SendReject(s.peerID, s.callID)
	s.terminate(EndReasonDeclined)
	return sendErr
}

// ---- Shared remote events ----

// HandleRemoteCandidate applies one remote ICE candidate, queueing it
// when the remote description is not set yet. Order is preserved.
func (s *PeerSession) HandleRemoteCandidate(candidate *signaling.ICECandidate) {
	s.mu.Lock()
	if s.state == SessionStateEnded {
		s.mu.Unlock()
		return
	}
	if !s.haveRemoteDesc {
		s.pendingRemoteCandidates = append(s.pendingRemoteCandidates, candidate)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if err := s.engine.AddICECandidate(candidate); err != nil {
		log.Printf("call: failed to apply remote candidate: %v", err)
	}
}

// HandleRemoteEnded tears down after the peer hung up. Nothing is sent.
func (s *PeerSession) HandleRemoteEnded() {
	s.terminate(EndReasonRemoteHangup)
}

// HandleRemoteRejected tears down after the peer declined. Nothing is sent.
func (s *PeerSession) HandleRemoteRejected() {
	s.terminate(EndReasonRejected)
}

// End hangs up: send call-end with the elapsed duration, then tear down.
// Safe to call from any state and safe to call twice.
func (s *PeerSession) End() error {
	s.mu.Lock()
	if s.state == SessionStateEnded {
		s.mu.Unlock()
		return nil
	}
	duration := s.durationLocked()
	callID := s.callID
	s.mu.Unlock()

	sendErr := s.signaler.SendEnd(s.peerID, callID, s.callType, duration)
	if sendErr != nil && !errors.Is(sendErr, signaling.ErrNotConnected) {
		log.Printf("call: failed to send call-end: %v", sendErr)
	}
	s.terminate(EndReasonHangup)
	return sendErr
}

// ---- Toggles ----

// ToggleMic flips the first audio track's live flag and returns the new
// state. Returns false when there is no audio track.
func (s *PeerSession) ToggleMic() bool {
	return s.toggleTrack("audio")
}

// ToggleCamera flips the first video track's live flag and returns the
// new state. Returns false when there is no video track.
func (s *PeerSession) ToggleCamera() bool {
	return s.toggleTrack("video")
}

func (s *PeerSession) toggleTrack(kind string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.localTracks {
		if t.Kind() == kind {
			t.SetEnabled(!t.Enabled())
			return t.Enabled()
		}
	}
	return false
}

// ---- Internals ----

// attachMedia captures local tracks, attaches them to the engine and
// registers the negotiation callbacks. A capture failure leaves the call
// receive-only rather than failing it.
func (s *PeerSession) attachMedia() {
	video := s.callType == signaling.CallTypeVideo

	if s.source != nil {
		tracks, err := s.source.Capture(video)
		if err != nil {
			log.Printf("call: local capture failed, proceeding without local media: %v", err)
		}
		var attached []LocalTrack
		for _, t := range tracks {
			if err := s.engine.AddTrack(t); err != nil {
				log.Printf("call: failed to attach %s track: %v", t.Kind(), err)
				t.Stop()
				continue
			}
			attached = append(attached, t)
		}
		s.mu.Lock()
		s.localTracks = attached
		s.mu.Unlock()
	}

	if err := s.engine.EnsureReceive(video); err != nil {
		log.Printf("call: failed to add receive transceivers: %v", err)
	}

	s.engine.OnICECandidate(func(candidate *signaling.ICECandidate) {
		s.mu.Lock()
		ended := s.state == SessionStateEnded
		s.mu.Unlock()
		if ended {
			return
		}
		if err := s.signaler.SendICECandidate(s.peerID, candidate); err != nil {
			log.Printf("call: failed to send local candidate: %v", err)
		}
	})

	s.engine.OnRemoteTrack(func(kind string) {
		s.markConnected(kind)
	})
}

// applyQueuedLocked applies queued candidates in arrival order. Called
// with mu held: a candidate racing in on another goroutine blocks on
// the lock, then sees haveRemoteDesc and applies behind the queue, so
// receipt order survives the handoff from queueing to direct apply.
func (s *PeerSession) applyQueuedLocked(queued []*signaling.ICECandidate) {
	for _, candidate := range queued {
		if err := s.engine.AddICECandidate(candidate); err != nil {
			log.Printf("call: failed to apply queued candidate: %v", err)
		}
	}
}

// markConnected flips Negotiating to Connected on the first remote track.
// There is no explicit connected signal in the protocol; remote media is
// the proof the path works.
func (s *PeerSession) markConnected(kind string) {
	s.mu.Lock()
	connect := s.state == SessionStateNegotiating
	s.mu.Unlock()

	s.events.Emit(string(SessionEventRemoteTrack), kind)
	if connect {
		s.setStateFrom(SessionStateNegotiating, SessionStateConnected)
	}
}

// handleRingTimeout ends a still-unanswered outgoing call
func (s *PeerSession) handleRingTimeout() {
	s.mu.Lock()
	ringing := s.state == SessionStateDialing
	callID := s.callID
	s.mu.Unlock()
	if !ringing {
		return
	}

	if err := s.signaler.SendEnd(s.peerID, callID, s.callType, 0); err != nil && !errors.Is(err, signaling.ErrNotConnected) {
		log.Printf("call: failed to send call-end on ring timeout: %v", err)
	}
	s.terminate(EndReasonTimeout)
}

// fail publishes the error and tears the session down
func (s *PeerSession) fail(err error) {
	s.events.Emit(string(SessionEventError), err)
	s.terminate(EndReasonError)
}

// setState transitions unconditionally and emits the change
func (s *PeerSession) setState(to SessionState) {
	s.mu.Lock()
	from := s.state
	s.state = to
	change := StateChange{From: from, To: to, CallType: s.callType, PeerID: s.peerID}
	s.mu.Unlock()

	s.events.Emit(string(SessionEventStateChange), change)
}

// setStateFrom transitions only when the session is still in from
func (s *PeerSession) setStateFrom(from, to SessionState) {
	s.mu.Lock()
	if s.state != from {
		s.mu.Unlock()
		return
	}
	s.state = to
	change := StateChange{From: from, To: to, CallType: s.callType, PeerID: s.peerID}
	s.mu.Unlock()

	s.events.Emit(string(SessionEventStateChange), change)
}

// terminate releases everything exactly once: ring timer, captured
// tracks, then the engine. Later calls are no-ops, so End plus a
// concurrent remote call-ended never double-releases.
func (s *PeerSession) terminate(reason EndReason) {
	s.mu.Lock()
	if s.cleaned {
		s.mu.Unlock()
		return
	}
	s.cleaned = true
	from := s.state
	s.state = SessionStateEnded
	tracks := s.localTracks
	s.localTracks = nil
	s.pendingRemoteCandidates = nil
	s.remoteOffer = nil
	timer := s.ringTimer
	s.ringTimer = nil
	info := EndInfo{
		Reason:   reason,
		CallType: s.callType,
		Duration: s.durationLocked(),
		PeerID:   s.peerID,
	}
	s.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	for _, t := range tracks {
		t.Stop()
	}
	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			log.Printf("call: failed to close engine: %v", err)
		}
	}

	s.events.Emit(string(SessionEventStateChange), StateChange{
		From: from, To: SessionStateEnded, CallType: s.callType, PeerID: s.peerID,
	})
	s.events.Emit(string(SessionEventEnded), info)
}
