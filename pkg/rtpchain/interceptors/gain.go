package interceptors

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
)

// MaxGain is the largest accepted gain factor (about +12 dB).
const MaxGain = 4.0

// Gain scales audio carried as L16: 16-bit signed samples in network byte
// order (RFC 3551). Samples are multiplied by the factor and clipped to the
// int16 range; a trailing odd byte is copied unchanged.
//
// Gain applies to RTP in both directions and builds a new payload, so the
// buffer it was handed is never written.
type Gain struct {
	rtpchain.NoOp

	factor float64
}

// NewGain creates a gain stage. factor 0 silences, 1 is unity, 2 is +6 dB.
func NewGain(factor float64) (*Gain, error) {
	if math.IsNaN(factor) || factor < 0 {
		return nil, fmt.Errorf("gain cannot be negative: %f", factor)
	}
	if factor > MaxGain {
		return nil, fmt.Errorf("gain too high (max %.1f): %f", MaxGain, factor)
	}
	return &Gain{factor: factor}, nil
}

// Factor returns the gain factor.
func (g *Gain) Factor() float64 {
	return g.factor
}

// InterceptOutgoingRTP implements rtpchain.Interceptor.
func (g *Gain) InterceptOutgoingRTP(pkt rtpchain.RTPPacket, _ *rtpchain.StreamInfo) rtpchain.RTPResult {
	pkt.Payload = ScaleL16(pkt.Payload, g.factor)
	return rtpchain.Keep(pkt)
}

// InterceptIncomingRTP implements rtpchain.Interceptor.
func (g *Gain) InterceptIncomingRTP(pkt rtpchain.RTPPacket, _ *rtpchain.StreamInfo) rtpchain.RTPResult {
	pkt.Payload = ScaleL16(pkt.Payload, g.factor)
	return rtpchain.Keep(pkt)
}

// ScaleL16 returns a scaled copy of an L16 payload.
func ScaleL16(payload []byte, factor float64) []byte {
	if payload == nil {
		return nil
	}
	out := make([]byte, len(payload))
	n := len(payload) &^ 1
	for i := 0; i < n; i += 2 {
		s := float64(int16(binary.BigEndian.Uint16(payload[i:]))) * factor
		switch {
		case s > math.MaxInt16:
			s = math.MaxInt16
		case s < math.MinInt16:
			s = math.MinInt16
		}
		binary.BigEndian.PutUint16(out[i:], uint16(int16(s)))
	}
	if n < len(payload) {
		out[n] = payload[n]
	}
	return out
}
