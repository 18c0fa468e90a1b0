/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package call

import (
	"sync"

	"github.com/loveconnect/loveconnect-go-sdk/signaling"
)

// DisplayState is what the calling surface of an app should render.
// It is a pure projection of session events; it never drives them.
type DisplayState string

const (
	DisplayNoCall          DisplayState = "no_call"
	DisplayOutgoingRinging DisplayState = "outgoing_ringing"
	DisplayIncomingRinging DisplayState = "incoming_ringing"
	DisplayInCall          DisplayState = "in_call"
)

// Transcript entries logged into the conversation when a call ends.
// These match the strings the web client writes, byte for byte, so both
// ends show identical history.
const (
	TranscriptVoiceEnded   = "📞 Cuộc gọi thoại đã kết thúc"
	TranscriptVideoEnded   = "🎥 Cuộc gọi video đã kết thúc"
	TranscriptCallRejected = "📞 Cuộc gọi bị từ chối"
	TranscriptYouRejected  = "📞 Bạn đã từ chối cuộc gọi"
)

// TranscriptFor returns the conversation log entry for a terminal
// transition, or "" when the transition logs nothing.
func TranscriptFor(reason EndReason, callType signaling.CallType) string {
	switch reason {
	case EndReasonRejected:
		return TranscriptCallRejected
	case EndReasonDeclined:
		return TranscriptYouRejected
	case EndReasonHangup, EndReasonRemoteHangup, EndReasonTimeout:
		if callType == signaling.CallTypeVideo {
			return TranscriptVideoEnded
		}
		return TranscriptVoiceEnded
	default:
		return ""
	}
}

// UIStateMachine folds session events into a DisplayState and a
// transcript log. Bind it to a Manager's emitter and render from it.
type UIStateMachine struct {
	mu         sync.Mutex
	display    DisplayState
	peerID     int
	callType   signaling.CallType
	transcript []string
	onChange   func(state DisplayState)
}

// NewUIStateMachine creates a state machine showing no call
func NewUIStateMachine() *UIStateMachine {
	return &UIStateMachine{display: DisplayNoCall}
}

// OnChange registers a callback fired after every display change
func (u *UIStateMachine) OnChange(fn func(state DisplayState)) {
	u.mu.Lock()
	u.onChange = fn
	u.mu.Unlock()
}

// Display returns the state the app should render
func (u *UIStateMachine) Display() DisplayState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.display
}

// PeerID returns the other participant of the rendered call, 0 when idle
func (u *UIStateMachine) PeerID() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.peerID
}

// Transcript returns the accumulated call log entries, oldest first
func (u *UIStateMachine) Transcript() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, len(u.transcript))
	copy(out, u.transcript)
	return out
}

// Bind subscribes the state machine to a session event emitter
func (u *UIStateMachine) Bind(events *EventEmitter) {
	events.On(string(SessionEventStateChange), func(data interface{}) {
		change, ok := data.(StateChange)
		if !ok {
			return
		}
		u.applyState(change)
	})

	events.On(string(SessionEventEnded), func(data interface{}) {
		info, ok := data.(EndInfo)
		if !ok {
			return
		}
		u.applyEnded(info)
	})
}

func (u *UIStateMachine) applyState(change StateChange) {
	var display DisplayState
	switch change.To {
	case SessionStateDialing:
		display = DisplayOutgoingRinging
	case SessionStateRingingIncoming:
		display = DisplayIncomingRinging
	case SessionStateNegotiating, SessionStateConnected:
		display = DisplayInCall
	case SessionStateEnded:
		display = DisplayNoCall
	default:
		return
	}

	u.mu.Lock()
	if u.display == display {
		u.mu.Unlock()
		return
	}
	u.display = display
	if display == DisplayNoCall {
		u.peerID = 0
	} else {
		u.peerID = change.PeerID
		u.callType = change.CallType
	}
	onChange := u.onChange
	u.mu.Unlock()

	if onChange != nil {
		onChange(display)
	}
}

// applyEnded appends the transcript entry. The ended event fires exactly
// once per session, so each call logs at most one entry.
func (u *UIStateMachine) applyEnded(info EndInfo) {
	entry := TranscriptFor(info.Reason, info.CallType)
	if entry == "" {
		return
	}
	u.mu.Lock()
	u.transcript = append(u.transcript, entry)
	u.mu.Unlock()
}
