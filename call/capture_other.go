/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

//go:build !linux || !cgo

package call

import (
	"errors"

	"github.com/pion/webrtc/v4"
)

// ErrNoCaptureSupport is returned by Capture on platforms without a
// pion/mediadevices driver stack. Calls proceed receive-only.
var ErrNoCaptureSupport = errors.New("call: local media capture is not supported on this platform")

// DeviceSource is a stub on non-Linux platforms. Camera/mic capture via
// pion/mediadevices needs platform drivers (V4L2/malgo on Linux).
type DeviceSource struct{}

// NewDeviceSource builds the platform capture source.
func NewDeviceSource() (*DeviceSource, error) {
	return &DeviceSource{}, nil
}

// RegisterCodecs registers the default codec set with the media engine.
func (s *DeviceSource) RegisterCodecs(m *webrtc.MediaEngine) error {
	return m.RegisterDefaultCodecs()
}

// Capture always fails here; the session falls back to receive-only.
func (s *DeviceSource) Capture(video bool) ([]LocalTrack, error) {
	return nil, ErrNoCaptureSupport
}
