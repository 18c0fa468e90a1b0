/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

//go:build linux && cgo

package call

import (
	"errors"
	"log"
	"sync"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/pion/webrtc/v4"
)

// DeviceSource captures local camera/mic via pion/mediadevices
// (V4L2 + malgo on Linux).
type DeviceSource struct {
	selector *mediadevices.CodecSelector
}

// NewDeviceSource builds the platform capture source with VP8 and Opus
// encoders, the codecs the browser peers negotiate.
func NewDeviceSource() (*DeviceSource, error) {
	vpxParams, err := vpx.NewVP8Params()
	if err != nil {
		return nil, err
	}
	vpxParams.BitRate = 1_500_000 // 1.5 Mbps

	opusParams, err := opus.NewParams()
	if err != nil {
		return nil, err
	}

	return &DeviceSource{
		selector: mediadevices.NewCodecSelector(
			mediadevices.WithVideoEncoders(&vpxParams),
			mediadevices.WithAudioEncoders(&opusParams),
		),
	}, nil
}

// RegisterCodecs registers this source's encoders with the media engine.
// The engine must carry the same codecs the captured tracks encode with.
func (s *DeviceSource) RegisterCodecs(m *webrtc.MediaEngine) error {
	s.selector.Populate(m)
	return nil
}

// Capture opens the microphone, and the camera when video is true.
//
// GetUserMedia fails as a unit if either requested track can't be opened,
// so a busy camera would otherwise kill the microphone too. Try the full
// set first and fall back to smaller ones; an error here means no local
// media at all, which callers treat as non-fatal.
func (s *DeviceSource) Capture(video bool) ([]LocalTrack, error) {
	type attempt struct {
		video bool
		audio bool
		label string
	}

	attempts := []attempt{{false, true, "audio-only"}}
	if video {
		attempts = []attempt{
			{true, true, "video+audio"},
			{true, false, "video-only"},
			{false, true, "audio-only"},
		}
	}

	var lastErr error
	for _, a := range attempts {
		constraints := mediadevices.MediaStreamConstraints{Codec: s.selector}
		if a.video {
			constraints.Video = func(c *mediadevices.MediaTrackConstraints) {
				// Exclude MJPEG; some cameras expose an MJPEG V4L2 node that
				// produces malformed frames and poisons the VP8 encoder.
				c.FrameFormat = prop.FrameFormatOneOf{
					frame.FormatYUYV,
					frame.FormatI420,
					frame.FormatI444,
					frame.FormatRGBA,
				}
				c.Width = prop.IntRanged{Max: 640}
				c.Height = prop.IntRanged{Max: 480}
			}
		}
		if a.audio {
			constraints.Audio = func(_ *mediadevices.MediaTrackConstraints) {}
		}

		stream, err := mediadevices.GetUserMedia(constraints)
		if err != nil {
			log.Printf("call capture: GetUserMedia (%s) failed: %v", a.label, err)
			lastErr = err
			continue
		}

		var tracks []LocalTrack
		for _, track := range stream.GetTracks() {
			track.OnEnded(func(err error) {
				if err != nil {
					log.Printf("call capture: local track ended: %v", err)
				}
			})
			tracks = append(tracks, &deviceTrack{track: track, enabled: true})
		}

		log.Printf("call capture: local media captured (%s), %d tracks", a.label, len(tracks))
		return tracks, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no media devices available")
	}
	return nil, lastErr
}

// deviceTrack adapts a mediadevices track to the LocalTrack interface
type deviceTrack struct {
	mu      sync.Mutex
	track   mediadevices.Track
	enabled bool
	stopped bool
}

func (t *deviceTrack) Kind() string {
	return t.track.Kind().String()
}

func (t *deviceTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// SetEnabled flips the live flag. The RTP gate wired in by RTPTrack
// reads it per packet, so disabling actually stops transmission to the
// peer while the device stays open.
func (t *deviceTrack) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

func (t *deviceTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	if err := t.track.Close(); err != nil {
		log.Printf("call capture: failed to close %s track: %v", t.track.Kind().String(), err)
	}
}

func (t *deviceTrack) RTPTrack() webrtc.TrackLocal {
	return newGatedRTPTrack(t.track, t.Enabled)
}
