/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2026 The LoveConnect Authors
 */

package call

import (
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// gatedRTPTrack wraps a Pion TrackLocal so outbound media honors the
// owning LocalTrack's enabled flag. The capture pipeline keeps encoding
// while muted; packets are discarded here, before they reach the wire,
// the way a browser track's enabled flag halts transmission without
// releasing the device.
type gatedRTPTrack struct {
	inner   webrtc.TrackLocal
	enabled func() bool
}

var _ webrtc.TrackLocal = (*gatedRTPTrack)(nil)

func newGatedRTPTrack(inner webrtc.TrackLocal, enabled func() bool) *gatedRTPTrack {
	return &gatedRTPTrack{inner: inner, enabled: enabled}
}

// Bind hands the inner track a context whose write stream drops packets
// while the gate is disabled. Everything else passes through, so the
// inner track's bind state stays keyed by the real context ID.
func (g *gatedRTPTrack) Bind(ctx webrtc.TrackLocalContext) (webrtc.RTPCodecParameters, error) {
	return g.inner.Bind(gatedTrackContext{
		TrackLocalContext: ctx,
		writer:            &gatedTrackWriter{inner: ctx.WriteStream(), enabled: g.enabled},
	})
}

func (g *gatedRTPTrack) Unbind(ctx webrtc.TrackLocalContext) error {
	return g.inner.Unbind(ctx)
}

func (g *gatedRTPTrack) ID() string { return g.inner.ID() }

func (g *gatedRTPTrack) RID() string { return g.inner.RID() }

func (g *gatedRTPTrack) StreamID() string { return g.inner.StreamID() }

func (g *gatedRTPTrack) Kind() webrtc.RTPCodecType { return g.inner.Kind() }

// gatedTrackContext overrides WriteStream; everything else is the
// peer connection's real bind context.
type gatedTrackContext struct {
	webrtc.TrackLocalContext
	writer webrtc.TrackLocalWriter
}

func (c gatedTrackContext) WriteStream() webrtc.TrackLocalWriter { return c.writer }

// gatedTrackWriter reports success without writing while the track is
// disabled, so the encoder keeps running and mute reverses instantly.
type gatedTrackWriter struct {
	inner   webrtc.TrackLocalWriter
	enabled func() bool
}

func (w *gatedTrackWriter) WriteRTP(header *rtp.Header, payload []byte) (int, error) {
	if !w.enabled() {
		return len(payload), nil
	}
	return w.inner.WriteRTP(header, payload)
}

func (w *gatedTrackWriter) Write(b []byte) (int, error) {
	if !w.enabled() {
		return len(b), nil
	}
	return w.inner.Write(b)
}
