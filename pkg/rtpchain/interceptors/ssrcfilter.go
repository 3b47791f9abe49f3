package interceptors

import (
	"errors"
	"sync"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
)

// SSRCFilter hands RTP packets to an inner interceptor only when their SSRC
// is allowed; other RTP packets pass through untouched. RTCP always goes to
// the inner interceptor because the chain does not parse RTCP sources.
//
// The allowed set can change while packets flow.
type SSRCFilter struct {
	inner rtpchain.Interceptor
	ssrcs sync.Map // uint32 -> struct{}
}

// NewSSRCFilter wraps inner, allowing the given sources.
func NewSSRCFilter(inner rtpchain.Interceptor, ssrcs ...uint32) (*SSRCFilter, error) {
	if inner == nil {
		return nil, errors.New("inner interceptor must not be nil")
	}
	f := &SSRCFilter{inner: inner}
	for _, ssrc := range ssrcs {
		f.Allow(ssrc)
	}
	return f, nil
}

// Allow adds ssrc to the allowed set.
func (f *SSRCFilter) Allow(ssrc uint32) {
	f.ssrcs.Store(ssrc, struct{}{})
}

// Deny removes ssrc from the allowed set.
func (f *SSRCFilter) Deny(ssrc uint32) {
	f.ssrcs.Delete(ssrc)
}

// Allowed reports whether ssrc is in the allowed set.
func (f *SSRCFilter) Allowed(ssrc uint32) bool {
	_, ok := f.ssrcs.Load(ssrc)
	return ok
}

// InterceptOutgoingRTP implements rtpchain.Interceptor.
func (f *SSRCFilter) InterceptOutgoingRTP(pkt rtpchain.RTPPacket, sender *rtpchain.StreamInfo) rtpchain.RTPResult {
	if !f.Allowed(pkt.Header.SSRC) {
		return rtpchain.Keep(pkt)
	}
	return f.inner.InterceptOutgoingRTP(pkt, sender)
}

// InterceptIncomingRTP implements rtpchain.Interceptor.
func (f *SSRCFilter) InterceptIncomingRTP(pkt rtpchain.RTPPacket, receiver *rtpchain.StreamInfo) rtpchain.RTPResult {
	if !f.Allowed(pkt.Header.SSRC) {
		return rtpchain.Keep(pkt)
	}
	return f.inner.InterceptIncomingRTP(pkt, receiver)
}

// InterceptOutgoingRTCP implements rtpchain.Interceptor.
func (f *SSRCFilter) InterceptOutgoingRTCP(pkt rtpchain.RTCPPacket) rtpchain.RTCPResult {
	return f.inner.InterceptOutgoingRTCP(pkt)
}

// InterceptIncomingRTCP implements rtpchain.Interceptor.
func (f *SSRCFilter) InterceptIncomingRTCP(pkt rtpchain.RTCPPacket) rtpchain.RTCPResult {
	return f.inner.InterceptIncomingRTCP(pkt)
}
