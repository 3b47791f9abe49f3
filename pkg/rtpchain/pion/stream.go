package pion

import (
	"sync/atomic"
	"time"

	"github.com/pion/interceptor"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
)

// StreamStatus describes a bound stream and the traffic the adapter has
// handed to the chain for it.
type StreamStatus struct {
	Direction  rtpchain.Direction
	SSRC       uint32
	MimeType   string
	Packets    uint64
	Dropped    uint64
	LastPacket time.Time
}

// streamState is the per-stream bookkeeping of a bound local or remote
// stream. The counters are updated from the media goroutine and read by
// Streams, so they are atomics.
type streamState struct {
	dir  rtpchain.Direction
	info *rtpchain.StreamInfo

	packets    atomic.Uint64
	dropped    atomic.Uint64
	lastPacket atomic.Int64 // unix nanos, 0 before the first packet
}

func newStreamState(dir rtpchain.Direction, info *rtpchain.StreamInfo) *streamState {
	return &streamState{dir: dir, info: info}
}

func (s *streamState) observe(now time.Time, dropped bool) {
	s.packets.Add(1)
	if dropped {
		s.dropped.Add(1)
	}
	s.lastPacket.Store(now.UnixNano())
}

func (s *streamState) status() StreamStatus {
	st := StreamStatus{
		Direction: s.dir,
		SSRC:      s.info.SSRC,
		MimeType:  s.info.MimeType,
		Packets:   s.packets.Load(),
		Dropped:   s.dropped.Load(),
	}
	if ns := s.lastPacket.Load(); ns != 0 {
		st.LastPacket = time.Unix(0, ns)
	}
	return st
}

// toStreamInfo converts Pion's negotiated stream description. Extensions
// whose id does not fit a header extension element are left out.
func toStreamInfo(info *interceptor.StreamInfo) *rtpchain.StreamInfo {
	if info == nil {
		return nil
	}
	out := &rtpchain.StreamInfo{
		ID:          info.ID,
		SSRC:        info.SSRC,
		PayloadType: info.PayloadType,
		MimeType:    info.MimeType,
		ClockRate:   info.ClockRate,
		Channels:    info.Channels,
	}
	for _, ext := range info.RTPHeaderExtensions {
		if ext.ID < 1 || ext.ID > 255 {
			continue
		}
		out.HeaderExtensions = append(out.HeaderExtensions, rtpchain.HeaderExtension{
			ID:  uint8(ext.ID),
			URI: ext.URI,
		})
	}
	return out
}
