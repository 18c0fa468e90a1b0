/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package call

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/loveconnect/loveconnect-go-sdk/signaling"
)

// ---- Fakes ----

type sentFrame struct {
	kind     string
	targetID int
	callID   int
	callType signaling.CallType
	duration int
}

type fakeSignaler struct {
	mu        sync.Mutex
	frames    []sentFrame
	offline   bool
	offerSDP  *signaling.SessionDescription
	answerSDP *signaling.SessionDescription
}

func (f *fakeSignaler) record(frame sentFrame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return signaling.ErrNotConnected
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeSignaler) SendOffer(targetID int, callType signaling.CallType, offer *signaling.SessionDescription) error {
	f.mu.Lock()
	f.offerSDP = offer
	f.mu.Unlock()
	return f.record(sentFrame{kind: "call-offer", targetID: targetID, callType: callType})
}

func (f *fakeSignaler) SendAnswer(targetID, callID int, answer *signaling.SessionDescription) error {
	f.mu.Lock()
	f.answerSDP = answer
	f.mu.Unlock()
	return f.record(sentFrame{kind: "call-answer", targetID: targetID, callID: callID})
}

func (f *fakeSignaler) SendICECandidate(targetID int, candidate *signaling.ICECandidate) error {
	return f.record(sentFrame{kind: "ice-candidate", targetID: targetID})
}

func (f *fakeSignaler) SendReject(targetID, callID int) error {
	return f.record(sentFrame{kind: "call-reject", targetID: targetID, callID: callID})
}

func (f *fakeSignaler) SendEnd(targetID, callID int, callType signaling.CallType, durationSeconds int) error {
	return f.record(sentFrame{kind: "call-end", targetID: targetID, callID: callID, callType: callType, duration: durationSeconds})
}

func (f *fakeSignaler) sent() []sentFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentFrame, len(f.frames))
	copy(out, f.frames)
	return out
}

func (f *fakeSignaler) sentOfKind(kind string) []sentFrame {
	var out []sentFrame
	for _, fr := range f.sent() {
		if fr.kind == kind {
			out = append(out, fr)
		}
	}
	return out
}

type fakeEngine struct {
	mu            sync.Mutex
	tracks        []LocalTrack
	remoteDesc    *signaling.SessionDescription
	applied       []string
	closed        int
	onICE         func(*signaling.ICECandidate)
	onRemoteTrack func(kind string)

	offerErr  error
	answerErr error
	remoteErr error

	// test hooks, set before the session runs
	onApply func(*signaling.ICECandidate)
	onClose func()
}

func (e *fakeEngine) AddTrack(track LocalTrack) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracks = append(e.tracks, track)
	return nil
}

func (e *fakeEngine) EnsureReceive(video bool) error { return nil }

func (e *fakeEngine) CreateOffer() (*signaling.SessionDescription, error) {
	if e.offerErr != nil {
		return nil, e.offerErr
	}
	return &signaling.SessionDescription{Type: "offer", SDP: "v=0 fake offer"}, nil
}

func (e *fakeEngine) CreateAnswer() (*signaling.SessionDescription, error) {
	if e.answerErr != nil {
		return nil, e.answerErr
	}
	return &signaling.SessionDescription{Type: "answer", SDP: "v=0 fake answer"}, nil
}

func (e *fakeEngine) SetRemoteDescription(desc *signaling.SessionDescription) error {
	if e.remoteErr != nil {
		return e.remoteErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.remoteDesc = desc
	return nil
}

func (e *fakeEngine) AddICECandidate(candidate *signaling.ICECandidate) error {
	e.mu.Lock()
	e.applied = append(e.applied, candidate.Candidate)
	hook := e.onApply
	e.mu.Unlock()
	if hook != nil {
		hook(candidate)
	}
	return nil
}

func (e *fakeEngine) OnICECandidate(handler func(candidate *signaling.ICECandidate)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onICE = handler
}

func (e *fakeEngine) OnRemoteTrack(handler func(kind string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onRemoteTrack = handler
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	e.closed++
	hook := e.onClose
	e.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (e *fakeEngine) triggerRemoteTrack(kind string) {
	e.mu.Lock()
	handler := e.onRemoteTrack
	e.mu.Unlock()
	if handler != nil {
		handler(kind)
	}
}

func (e *fakeEngine) appliedCandidates() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.applied))
	copy(out, e.applied)
	return out
}

func (e *fakeEngine) closeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

type fakeTrack struct {
	mu        sync.Mutex
	kind      string
	enabled   bool
	stopCount int
}

func (t *fakeTrack) Kind() string { return t.kind }

func (t *fakeTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *fakeTrack) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

func (t *fakeTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopCount++
}

func (t *fakeTrack) stops() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopCount
}

type fakeSource struct {
	tracks []*fakeTrack
	err    error
}

func (s *fakeSource) Capture(video bool) ([]LocalTrack, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]LocalTrack, 0, len(s.tracks))
	for _, t := range s.tracks {
		out = append(out, t)
	}
	return out, nil
}

func audioVideoSource() *fakeSource {
	return &fakeSource{tracks: []*fakeTrack{
		{kind: "audio", enabled: true},
		{kind: "video", enabled: true},
	}}
}

// ---- Outgoing path ----

func TestDial(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	source := audioVideoSource()
	session := NewOutgoingSession(sig, engine, source, NewEventEmitter(), nil, 55, signaling.CallTypeVideo)

	if session.State() != SessionStateIdle {
		t.Fatalf("Expected idle before dial, got %s", session.State())
	}

	if err := session.Dial(); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	if session.State() != SessionStateDialing {
		t.Errorf("Expected dialing, got %s", session.State())
	}

	offers := sig.sentOfKind("call-offer")
	if len(offers) != 1 {
		t.Fatalf("Expected 1 offer frame, got %d", len(offers))
	}
	if offers[0].targetID != 55 {
		t.Errorf("Expected target 55, got %d", offers[0].targetID)
	}
	if offers[0].callType != signaling.CallTypeVideo {
		t.Errorf("Expected video call type, got %s", offers[0].callType)
	}
	if len(engine.tracks) != 2 {
		t.Errorf("Expected 2 tracks attached, got %d", len(engine.tracks))
	}
}

func TestDialTwice(t *testing.T) {
	sig := &fakeSignaler{}
	session := NewOutgoingSession(sig, &fakeEngine{}, nil, NewEventEmitter(), nil, 1, signaling.CallTypeVoice)

	if err := session.Dial(); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if err := session.Dial(); err == nil {
		t.Fatal("Expected error dialing twice")
	}
}

func TestCandidateOrdering(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	session := NewOutgoingSession(sig, engine, nil, NewEventEmitter(), nil, 2, signaling.CallTypeVoice)

	if err := session.Dial(); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	// Candidates arriving before the answer must be queued, not applied.
	for i := 0; i < 5; i++ {
		session.HandleRemoteCandidate(&signaling.ICECandidate{Candidate: fmt.Sprintf("queued-%d", i)})
	}
	if got := engine.appliedCandidates(); len(got) != 0 {
		t.Fatalf("Expected no candidates applied before answer, got %d", len(got))
	}

	if err := session.HandleAnswered(&signaling.SessionDescription{Type: "answer", SDP: "v=0"}); err != nil {
		t.Fatalf("HandleAnswered failed: %v", err)
	}

	// After the answer they apply immediately, behind the drained queue.
	session.HandleRemoteCandidate(&signaling.ICECandidate{Candidate: "late-0"})

	got := engine.appliedCandidates()
	want := []string{"queued-0", "queued-1", "queued-2", "queued-3", "queued-4", "late-0"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d candidates applied, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Candidate %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestCandidateRacingTheDrainAppliesLast(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	offer := &signaling.SessionDescription{Type: "offer", SDP: "v=0"}
	session := NewIncomingSession(sig, engine, nil, NewEventEmitter(), nil, 7, 33, "Linh", signaling.CallTypeVoice, offer)

	session.HandleRemoteCandidate(&signaling.ICECandidate{Candidate: "early-0"})
	session.HandleRemoteCandidate(&signaling.ICECandidate{Candidate: "early-1"})

	// A candidate delivered on another goroutine while the queue drains
	// must land behind every queued candidate, never between them.
	var wg sync.WaitGroup
	var once sync.Once
	engine.onApply = func(*signaling.ICECandidate) {
		once.Do(func() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				session.HandleRemoteCandidate(&signaling.ICECandidate{Candidate: "late-0"})
			}()
			// Give the racing goroutine time to reach the session lock
			// while the drain still holds it.
			time.Sleep(50 * time.Millisecond)
		})
	}

	if err := session.Answer(); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	wg.Wait()

	got := engine.appliedCandidates()
	want := []string{"early-0", "early-1", "late-0"}
	if len(got) != len(want) {
		t.Fatalf("Expected candidates %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected candidates %v, got %v", want, got)
		}
	}
}

func TestHandleAnswered(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	events := NewEventEmitter()
	session := NewOutgoingSession(sig, engine, nil, events, nil, 2, signaling.CallTypeVoice)

	if err := session.Dial(); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	answer := &signaling.SessionDescription{Type: "answer", SDP: "v=0 answer"}
	if err := session.HandleAnswered(answer); err != nil {
		t.Fatalf("HandleAnswered failed: %v", err)
	}

	if session.State() != SessionStateNegotiating {
		t.Errorf("Expected negotiating, got %s", session.State())
	}
	if engine.remoteDesc == nil || engine.remoteDesc.SDP != answer.SDP {
		t.Error("Expected remote description applied")
	}
}

func TestConnectedOnRemoteTrack(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	session := NewOutgoingSession(sig, engine, nil, NewEventEmitter(), nil, 2, signaling.CallTypeVoice)

	if err := session.Dial(); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if err := session.HandleAnswered(&signaling.SessionDescription{Type: "answer", SDP: "v=0"}); err != nil {
		t.Fatalf("HandleAnswered failed: %v", err)
	}

	engine.triggerRemoteTrack("audio")
	if session.State() != SessionStateConnected {
		t.Errorf("Expected connected after remote track, got %s", session.State())
	}

	// A second track must not regress or re-transition the state.
	engine.triggerRemoteTrack("video")
	if session.State() != SessionStateConnected {
		t.Errorf("Expected connected to be stable, got %s", session.State())
	}
}

// ---- Incoming path ----

func TestAnswer(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	offer := &signaling.SessionDescription{Type: "offer", SDP: "v=0 remote offer"}
	session := NewIncomingSession(sig, engine, audioVideoSource(), NewEventEmitter(), nil, 7, 33, "Linh", signaling.CallTypeVideo, offer)

	if session.State() != SessionStateRingingIncoming {
		t.Fatalf("Expected ringing, got %s", session.State())
	}
	if session.CallerName() != "Linh" {
		t.Errorf("Expected caller name Linh, got %s", session.CallerName())
	}

	// Trickled candidates during ringing are queued.
	session.HandleRemoteCandidate(&signaling.ICECandidate{Candidate: "early-0"})
	session.HandleRemoteCandidate(&signaling.ICECandidate{Candidate: "early-1"})

	if err := session.Answer(); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if session.State() != SessionStateNegotiating {
		t.Errorf("Expected negotiating, got %s", session.State())
	}
	if engine.remoteDesc == nil || engine.remoteDesc.SDP != offer.SDP {
		t.Error("Expected held offer applied as remote description")
	}

	got := engine.appliedCandidates()
	if len(got) != 2 || got[0] != "early-0" || got[1] != "early-1" {
		t.Errorf("Expected early candidates drained in order, got %v", got)
	}

	answers := sig.sentOfKind("call-answer")
	if len(answers) != 1 {
		t.Fatalf("Expected 1 answer frame, got %d", len(answers))
	}
	if answers[0].targetID != 7 || answers[0].callID != 33 {
		t.Errorf("Expected answer to 7/33, got %d/%d", answers[0].targetID, answers[0].callID)
	}
}

func TestReject(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	events := NewEventEmitter()

	var ended []EndInfo
	events.On(string(SessionEventEnded), func(data interface{}) {
		ended = append(ended, data.(EndInfo))
	})

	session := NewIncomingSession(sig, engine, nil, events, nil, 7, 33, "Linh", signaling.CallTypeVoice, &signaling.SessionDescription{Type: "offer", SDP: "v=0"})

	if err := session.Reject(); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	rejects := sig.sentOfKind("call-reject")
	if len(rejects) != 1 || rejects[0].targetID != 7 || rejects[0].callID != 33 {
		t.Fatalf("Expected one reject to 7/33, got %v", rejects)
	}
	if session.State() != SessionStateEnded {
		t.Errorf("Expected ended, got %s", session.State())
	}
	if len(ended) != 1 || ended[0].Reason != EndReasonDeclined {
		t.Errorf("Expected one declined end event, got %v", ended)
	}
	if engine.closeCount() != 1 {
		t.Errorf("Expected engine closed once, got %d", engine.closeCount())
	}
}

// ---- Teardown ----

func TestEndIdempotent(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	source := audioVideoSource()
	session := NewOutgoingSession(sig, engine, source, NewEventEmitter(), nil, 2, signaling.CallTypeVoice)

	if err := session.Dial(); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	if err := session.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if err := session.End(); err != nil {
		t.Fatalf("Second End failed: %v", err)
	}

	if got := len(sig.sentOfKind("call-end")); got != 1 {
		t.Errorf("Expected exactly 1 call-end frame, got %d", got)
	}
	if engine.closeCount() != 1 {
		t.Errorf("Expected engine closed once, got %d", engine.closeCount())
	}
	for _, track := range source.tracks {
		if track.stops() != 1 {
			t.Errorf("Expected %s track stopped once, got %d", track.kind, track.stops())
		}
	}
}

func TestEndThenRemoteEnded(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	source := audioVideoSource()
	events := NewEventEmitter()

	endedCount := 0
	events.On(string(SessionEventEnded), func(data interface{}) {
		endedCount++
	})

	session := NewOutgoingSession(sig, engine, source, events, nil, 2, signaling.CallTypeVoice)
	if err := session.Dial(); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	if err := session.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	session.HandleRemoteEnded()

	if engine.closeCount() != 1 {
		t.Errorf("Expected engine closed once, got %d", engine.closeCount())
	}
	if endedCount != 1 {
		t.Errorf("Expected exactly 1 ended event, got %d", endedCount)
	}
	for _, track := range source.tracks {
		if track.stops() != 1 {
			t.Errorf("Expected %s track stopped once, got %d", track.kind, track.stops())
		}
	}
}

func TestResourceReleaseOnEveryTerminalPath(t *testing.T) {
	paths := []struct {
		name string
		run  func(s *PeerSession)
	}{
		{"local end", func(s *PeerSession) { s.End() }},
		{"remote ended", func(s *PeerSession) { s.HandleRemoteEnded() }},
		{"remote rejected", func(s *PeerSession) { s.HandleRemoteRejected() }},
	}

	for _, p := range paths {
		t.Run(p.name, func(t *testing.T) {
			sig := &fakeSignaler{}
			engine := &fakeEngine{}
			source := audioVideoSource()
			session := NewOutgoingSession(sig, engine, source, NewEventEmitter(), nil, 2, signaling.CallTypeVideo)

			if err := session.Dial(); err != nil {
				t.Fatalf("Dial failed: %v", err)
			}
			p.run(session)

			if session.State() != SessionStateEnded {
				t.Errorf("Expected ended, got %s", session.State())
			}
			if engine.closeCount() != 1 {
				t.Errorf("Expected engine closed once, got %d", engine.closeCount())
			}
			for _, track := range source.tracks {
				if track.stops() != 1 {
					t.Errorf("Expected %s track stopped once, got %d", track.kind, track.stops())
				}
			}
		})
	}
}

func TestNegotiationErrorEndsSession(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{offerErr: errors.New("codec mismatch")}
	events := NewEventEmitter()

	var errs []error
	events.On(string(SessionEventError), func(data interface{}) {
		errs = append(errs, data.(error))
	})

	source := audioVideoSource()
	session := NewOutgoingSession(sig, engine, source, events, nil, 2, signaling.CallTypeVoice)

	if err := session.Dial(); err == nil {
		t.Fatal("Expected Dial to fail")
	}
	if session.State() != SessionStateEnded {
		t.Errorf("Expected ended after failure, got %s", session.State())
	}
	if len(errs) != 1 {
		t.Errorf("Expected 1 error event, got %d", len(errs))
	}
	for _, track := range source.tracks {
		if track.stops() != 1 {
			t.Errorf("Expected %s track released after failure, got %d stops", track.kind, track.stops())
		}
	}
}

// ---- Device failure fallback ----

func TestCaptureFailureIsNonFatal(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	source := &fakeSource{err: errors.New("no devices")}
	session := NewOutgoingSession(sig, engine, source, NewEventEmitter(), nil, 2, signaling.CallTypeVoice)

	if err := session.Dial(); err != nil {
		t.Fatalf("Dial should survive capture failure, got %v", err)
	}

	if got := len(sig.sentOfKind("call-offer")); got != 1 {
		t.Errorf("Expected offer sent despite capture failure, got %d", got)
	}
	if len(engine.tracks) != 0 {
		t.Errorf("Expected no local tracks, got %d", len(engine.tracks))
	}
	if session.ToggleMic() {
		t.Error("Expected ToggleMic false with no audio track")
	}
}

func TestCaptureFailureOnAnswer(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	source := &fakeSource{err: errors.New("camera busy")}
	session := NewIncomingSession(sig, engine, source, NewEventEmitter(), nil, 7, 33, "Linh", signaling.CallTypeVideo, &signaling.SessionDescription{Type: "offer", SDP: "v=0"})

	if err := session.Answer(); err != nil {
		t.Fatalf("Answer should survive capture failure, got %v", err)
	}
	if got := len(sig.sentOfKind("call-answer")); got != 1 {
		t.Errorf("Expected answer sent despite capture failure, got %d", got)
	}
}

// ---- Toggles ----

func TestToggles(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	source := audioVideoSource()
	session := NewOutgoingSession(sig, engine, source, NewEventEmitter(), nil, 2, signaling.CallTypeVideo)

	if err := session.Dial(); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	if session.ToggleMic() {
		t.Error("Expected mic off after first toggle")
	}
	if !session.ToggleMic() {
		t.Error("Expected mic on after second toggle")
	}
	if session.ToggleCamera() {
		t.Error("Expected camera off after first toggle")
	}
}

func TestToggleCameraOnVoiceCall(t *testing.T) {
	sig := &fakeSignaler{}
	source := &fakeSource{tracks: []*fakeTrack{{kind: "audio", enabled: true}}}
	session := NewOutgoingSession(sig, &fakeEngine{}, source, NewEventEmitter(), nil, 2, signaling.CallTypeVoice)

	if err := session.Dial(); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if session.ToggleCamera() {
		t.Error("Expected ToggleCamera false on a voice call")
	}
}

// ---- Ring timeout ----

func TestRingTimeout(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	events := NewEventEmitter()

	ended := make(chan EndInfo, 1)
	events.On(string(SessionEventEnded), func(data interface{}) {
		ended <- data.(EndInfo)
	})

	config := &Config{RingTimeout: 50 * time.Millisecond}
	session := NewOutgoingSession(sig, engine, nil, events, config, 2, signaling.CallTypeVoice)

	if err := session.Dial(); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	select {
	case info := <-ended:
		if info.Reason != EndReasonTimeout {
			t.Errorf("Expected timeout reason, got %s", info.Reason)
		}
		if info.Duration != 0 {
			t.Errorf("Expected 0 duration for unanswered call, got %d", info.Duration)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ring timeout")
	}

	if got := len(sig.sentOfKind("call-end")); got != 1 {
		t.Errorf("Expected 1 call-end frame, got %d", got)
	}
	if session.State() != SessionStateEnded {
		t.Errorf("Expected ended, got %s", session.State())
	}
}

func TestRingTimeoutCancelledByAnswer(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	config := &Config{RingTimeout: 50 * time.Millisecond}
	session := NewOutgoingSession(sig, engine, nil, NewEventEmitter(), config, 2, signaling.CallTypeVoice)

	if err := session.Dial(); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if err := session.HandleAnswered(&signaling.SessionDescription{Type: "answer", SDP: "v=0"}); err != nil {
		t.Fatalf("HandleAnswered failed: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	if session.State() != SessionStateNegotiating {
		t.Errorf("Expected negotiating to survive the timeout window, got %s", session.State())
	}
	if got := len(sig.sentOfKind("call-end")); got != 0 {
		t.Errorf("Expected no call-end after answer, got %d", got)
	}
}

// ---- Misc ----

func TestEndWhileOffline(t *testing.T) {
	sig := &fakeSignaler{}
	engine := &fakeEngine{}
	session := NewOutgoingSession(sig, engine, nil, NewEventEmitter(), nil, 2, signaling.CallTypeVoice)

	if err := session.Dial(); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	sig.mu.Lock()
	sig.offline = true
	sig.mu.Unlock()

	err := session.End()
	if !errors.Is(err, signaling.ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
	// Local teardown still happens even though the frame was never sent.
	if session.State() != SessionStateEnded {
		t.Errorf("Expected ended, got %s", session.State())
	}
	if engine.closeCount() != 1 {
		t.Errorf("Expected engine closed once, got %d", engine.closeCount())
	}
}

func TestDurationNonNegative(t *testing.T) {
	session := NewOutgoingSession(&fakeSignaler{}, &fakeEngine{}, nil, NewEventEmitter(), nil, 2, signaling.CallTypeVoice)
	if d := session.Duration(); d != 0 {
		t.Errorf("Expected 0 duration before negotiation, got %d", d)
	}
}
