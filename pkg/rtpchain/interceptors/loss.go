package interceptors

import (
	"errors"
	"sync/atomic"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
)

// LossSimulator drops RTP packets whose sequence number is a multiple of N.
// Outgoing packets are dropped by default; see DropIncoming.
type LossSimulator struct {
	rtpchain.NoOp

	every    uint16
	incoming bool
	outgoing bool
	dropped  atomic.Uint64
}

// LossOption configures a LossSimulator.
type LossOption func(*LossSimulator)

// DropIncoming also applies the loss pattern to received packets.
func DropIncoming() LossOption {
	return func(s *LossSimulator) {
		s.incoming = true
	}
}

// IncomingOnly applies the loss pattern to received packets only.
func IncomingOnly() LossOption {
	return func(s *LossSimulator) {
		s.incoming = true
		s.outgoing = false
	}
}

// NewLossSimulator drops every packet with seq % every == 0.
func NewLossSimulator(every uint16, opts ...LossOption) (*LossSimulator, error) {
	if every == 0 {
		return nil, errors.New("loss interval must be positive")
	}
	s := &LossSimulator{every: every, outgoing: true}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dropped returns how many packets the simulator has dropped.
func (s *LossSimulator) Dropped() uint64 {
	return s.dropped.Load()
}

// InterceptOutgoingRTP implements rtpchain.Interceptor.
func (s *LossSimulator) InterceptOutgoingRTP(pkt rtpchain.RTPPacket, _ *rtpchain.StreamInfo) rtpchain.RTPResult {
	if s.outgoing && s.hit(pkt) {
		return rtpchain.DropRTP()
	}
	return rtpchain.Keep(pkt)
}

// InterceptIncomingRTP implements rtpchain.Interceptor.
func (s *LossSimulator) InterceptIncomingRTP(pkt rtpchain.RTPPacket, _ *rtpchain.StreamInfo) rtpchain.RTPResult {
	if s.incoming && s.hit(pkt) {
		return rtpchain.DropRTP()
	}
	return rtpchain.Keep(pkt)
}

func (s *LossSimulator) hit(pkt rtpchain.RTPPacket) bool {
	if pkt.Header.SequenceNumber%s.every != 0 {
		return false
	}
	s.dropped.Add(1)
	return true
}
