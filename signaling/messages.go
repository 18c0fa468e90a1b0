/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package signaling

// CallType indicates whether a call carries audio only or audio and video
type CallType string

const (
	CallTypeVoice CallType = "voice"
	CallTypeVideo CallType = "video"
)

// MessageType identifies the type of signaling message on the wire
type MessageType string

const (
	// Sent by the caller to start a call
	MessageCallOffer MessageType = "call-offer"
	// Sent by the callee to accept a call
	MessageCallAnswer MessageType = "call-answer"
	// Delivered to the caller when the callee accepted
	MessageCallAnswered MessageType = "call-answered"
	// Exchanged in both directions during ICE negotiation
	MessageICECandidate MessageType = "ice-candidate"
	// Sent by the callee to decline a call
	MessageCallReject MessageType = "call-reject"
	// Delivered to the caller when the callee declined
	MessageCallRejected MessageType = "call-rejected"
	// Sent by either side to hang up
	MessageCallEnd MessageType = "call-end"
	// Delivered to the other side after a hangup
	MessageCallEnded MessageType = "call-ended"
	// Delivered to the callee when a call arrives
	MessageIncomingCall MessageType = "incoming-call"
)

// SessionDescription is an SDP offer or answer as exchanged on the wire.
// The shape matches the browser RTCSessionDescription JSON so Go and web
// clients interoperate on the same signaling channel.
type SessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// ICECandidate is a single ICE candidate as exchanged on the wire,
// matching the browser RTCIceCandidate JSON shape.
type ICECandidate struct {
	Candidate        string  `json:"candidate"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`
}

// Message is a single signaling frame. The Type discriminator determines
// which payload fields are set; unused fields are omitted from the JSON.
type Message struct {
	Type MessageType `json:"type"`

	// TargetID is the user the server should relay this frame to (sends only)
	TargetID int `json:"target_id,omitempty"`

	// CallID is assigned by the server when the offer is stored and echoed
	// on answer/reject/end frames
	CallID int `json:"call_id,omitempty"`

	CallType  CallType            `json:"call_type,omitempty"`
	Offer     *SessionDescription `json:"offer,omitempty"`
	Answer    *SessionDescription `json:"answer,omitempty"`
	Candidate *ICECandidate       `json:"candidate,omitempty"`

	// Duration is the elapsed call time in seconds, reported on call-end.
	// A pointer so that a zero-length call is still reported explicitly.
	Duration *int `json:"duration,omitempty"`

	// Set on incoming-call frames only
	CallerID   int    `json:"caller_id,omitempty"`
	CallerName string `json:"caller_name,omitempty"`

	// TrackingID correlates frames in logs; ignored by the server
	TrackingID string `json:"tracking_id,omitempty"`
}
