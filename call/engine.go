/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package call

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"

	"github.com/loveconnect/loveconnect-go-sdk/signaling"
)

// LocalTrack is one locally captured media track attached to a session.
type LocalTrack interface {
	// Kind returns "audio" or "video"
	Kind() string
	// Enabled reports whether the track is live (mic on / camera on)
	Enabled() bool
	// SetEnabled flips the live flag without releasing the device
	SetEnabled(enabled bool)
	// Stop releases the underlying device
	Stop()
}

// MediaSource acquires local capture tracks for a session.
type MediaSource interface {
	// Capture opens the microphone, and the camera when video is true.
	// Implementations degrade gracefully; an error means no local media
	// at all, which is non-fatal for a call.
	Capture(video bool) ([]LocalTrack, error)
}

// Engine abstracts the peer connection a session negotiates over.
type Engine interface {
	AddTrack(track LocalTrack) error
	// EnsureReceive adds receive-only media sections for any kind that has
	// no local track, so the SDP always carries valid m-lines.
	EnsureReceive(video bool) error
	CreateOffer() (*signaling.SessionDescription, error)
	CreateAnswer() (*signaling.SessionDescription, error)
	SetRemoteDescription(desc *signaling.SessionDescription) error
	AddICECandidate(candidate *signaling.ICECandidate) error
	OnICECandidate(handler func(candidate *signaling.ICECandidate))
	OnRemoteTrack(handler func(kind string))
	Close() error
}

// rtpTrackProvider is implemented by LocalTracks that carry a real Pion
// track. Fakes used in tests don't; they pair with a fake Engine.
type rtpTrackProvider interface {
	RTPTrack() webrtc.TrackLocal
}

// CodecRegistrar registers the codecs a media source encodes with.
type CodecRegistrar func(*webrtc.MediaEngine) error

// MediaConfig holds configuration for the media engine
type MediaConfig struct {
	// ICEServers is the list of ICE servers (STUN/TURN) to use
	ICEServers []webrtc.ICEServer
	// Registrar registers codecs; defaults to RegisterDefaultCodecs
	Registrar CodecRegistrar
}

// DefaultMediaConfig returns a MediaConfig with sensible defaults.
// STUN is needed because peers are typically behind NAT; the signaling
// server only relays SDP and candidates, it never touches media.
func DefaultMediaConfig() *MediaConfig {
	return &MediaConfig{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	}
}

// MediaEngine is the Pion-backed Engine used for real calls.
type MediaEngine struct {
	mu             sync.Mutex
	peerConnection *webrtc.PeerConnection
	api            *webrtc.API
	hasAudio       bool
	hasVideo       bool
	onRemoteTrack  func(kind string)
	onICECandidate func(candidate *signaling.ICECandidate)
}

// NewMediaEngine creates a new WebRTC media engine for one call attempt
func NewMediaEngine(config *MediaConfig) (*MediaEngine, error) {
	if config == nil {
		config = DefaultMediaConfig()
	}

	m := &webrtc.MediaEngine{}
	if config.Registrar != nil {
		if err := config.Registrar(m); err != nil {
			return nil, fmt.Errorf("failed to register codecs: %w", err)
		}
	} else {
		if err := m.RegisterDefaultCodecs(); err != nil {
			return nil, fmt.Errorf("failed to register default codecs: %w", err)
		}
	}

	// Default interceptors (RTCP reports, NACK, TWCC) are required when
	// using a custom MediaEngine, otherwise incoming SRTP isn't processed
	// properly and OnTrack may not fire.
	i := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, i); err != nil {
		return nil, fmt.Errorf("failed to register default interceptors: %w", err)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(i),
	)

	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers: config.ICEServers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	engine := &MediaEngine{
		peerConnection: pc,
		api:            api,
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		engine.mu.Lock()
		handler := engine.onICECandidate
		engine.mu.Unlock()
		if handler != nil {
			init := c.ToJSON()
			handler(&signaling.ICECandidate{
				Candidate:        init.Candidate,
				SDPMid:           init.SDPMid,
				SDPMLineIndex:    init.SDPMLineIndex,
				UsernameFragment: init.UsernameFragment,
			})
		}
	})

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Printf("call PC: connection state %s", s.String())
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		log.Printf("call PC: remote track codec=%s ssrc=%d", track.Codec().MimeType, track.SSRC())
		engine.mu.Lock()
		handler := engine.onRemoteTrack
		engine.mu.Unlock()
		if handler != nil {
			handler(track.Kind().String())
		}
	})

	return engine, nil
}

// OnRemoteTrack sets the callback for when remote media arrives
func (me *MediaEngine) OnRemoteTrack(handler func(kind string)) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.onRemoteTrack = handler
}

// OnICECandidate sets the callback for locally gathered ICE candidates
func (me *MediaEngine) OnICECandidate(handler func(candidate *signaling.ICECandidate)) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.onICECandidate = handler
}

// AddTrack attaches a local capture track with a bidirectional transceiver
func (me *MediaEngine) AddTrack(track LocalTrack) error {
	provider, ok := track.(rtpTrackProvider)
	if !ok {
		return errors.New("track does not carry an RTP track")
	}

	me.mu.Lock()
	defer me.mu.Unlock()

	_, err := me.peerConnection.AddTransceiverFromTrack(provider.RTPTrack(),
		webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionSendrecv},
	)
	if err != nil {
		return fmt.Errorf("failed to add %s transceiver: %w", track.Kind(), err)
	}

	switch track.Kind() {
	case "audio":
		me.hasAudio = true
	case "video":
		me.hasVideo = true
	}
	return nil
}

// EnsureReceive adds recvonly transceivers for kinds without a local track
// so the call can still receive remote media when capture failed.
func (me *MediaEngine) EnsureReceive(video bool) error {
	me.mu.Lock()
	defer me.mu.Unlock()

	if !me.hasAudio {
		if _, err := me.peerConnection.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio,
			webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionRecvonly},
		); err != nil {
			return fmt.Errorf("failed to add recvonly audio transceiver: %w", err)
		}
	}
	if video && !me.hasVideo {
		if _, err := me.peerConnection.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo,
			webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionRecvonly},
		); err != nil {
			return fmt.Errorf("failed to add recvonly video transceiver: %w", err)
		}
	}
	return nil
}

// CreateOffer creates an SDP offer and sets it as the local description.
// Candidates trickle via OnICECandidate, matching the browser peers this
// engine negotiates with.
func (me *MediaEngine) CreateOffer() (*signaling.SessionDescription, error) {
	me.mu.Lock()
	defer me.mu.Unlock()

	offer, err := me.peerConnection.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	if err := me.peerConnection.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("failed to set local description: %w", err)
	}

	return &signaling.SessionDescription{Type: offer.Type.String(), SDP: offer.SDP}, nil
}

// CreateAnswer creates an SDP answer and sets it as the local description
func (me *MediaEngine) CreateAnswer() (*signaling.SessionDescription, error) {
	me.mu.Lock()
	defer me.mu.Unlock()

	answer, err := me.peerConnection.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create answer: %w", err)
	}
	if err := me.peerConnection.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("failed to set local description: %w", err)
	}

	return &signaling.SessionDescription{Type: answer.Type.String(), SDP: answer.SDP}, nil
}

// SetRemoteDescription applies the peer's offer or answer
func (me *MediaEngine) SetRemoteDescription(desc *signaling.SessionDescription) error {
	me.mu.Lock()
	defer me.mu.Unlock()

	return me.peerConnection.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.NewSDPType(desc.Type),
		SDP:  desc.SDP,
	})
}

// AddICECandidate applies one remote ICE candidate
func (me *MediaEngine) AddICECandidate(candidate *signaling.ICECandidate) error {
	me.mu.Lock()
	defer me.mu.Unlock()

	return me.peerConnection.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:        candidate.Candidate,
		SDPMid:           candidate.SDPMid,
		SDPMLineIndex:    candidate.SDPMLineIndex,
		UsernameFragment: candidate.UsernameFragment,
	})
}

// PeerConnection returns the underlying Pion peer connection for advanced use
func (me *MediaEngine) PeerConnection() *webrtc.PeerConnection {
	return me.peerConnection
}

// Close closes the peer connection and releases resources
func (me *MediaEngine) Close() error {
	me.mu.Lock()
	defer me.mu.Unlock()

	if me.peerConnection != nil {
		if err := me.peerConnection.Close(); err != nil {
			return fmt.Errorf("failed to close peer connection: %w", err)
		}
	}
	return nil
}
