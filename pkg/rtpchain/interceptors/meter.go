package interceptors

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
	"github.com/thesyncim/rtpchain/pkg/rtpchain/internal"
)

// StreamStats is what a Meter has observed for one RTP source in one
// direction.
type StreamStats struct {
	Direction rtpchain.Direction
	SSRC      uint32

	// Packets and Bytes count every packet the meter saw. Bytes is payload
	// bytes only.
	Packets uint64
	Bytes   uint64

	// Lost is the number of sequence numbers skipped so far. A late packet
	// filling a gap lowers it again.
	Lost int64

	// Reordered counts packets older than the highest sequence number seen.
	Reordered uint64

	// BitrateBps is the payload bitrate over the meter window, 0 until two
	// packets have been seen.
	BitrateBps int64

	// HighestSeq is the highest extended sequence number seen.
	HighestSeq int64

	// LastSeen is when the last packet arrived.
	LastSeen time.Time
}

type streamKey struct {
	dir  rtpchain.Direction
	ssrc uint32
}

type streamMeter struct {
	mu        sync.Mutex
	unwrap    rtpchain.SeqUnwrapper
	first     int64
	highest   int64
	packets   uint64
	bytes     uint64
	reordered uint64
	lastSeen  time.Time
	rate      *rateWindow
}

// Meter counts RTP packets, payload bytes, loss and reordering per source and
// direction. It never changes or drops a packet, so it is usually placed
// first or last in a chain depending on whether it should see packets before
// or after the other interceptors.
type Meter struct {
	rtpchain.NoOp

	clock  internal.Clock
	window time.Duration

	streams sync.Map // streamKey -> *streamMeter
}

// MeterOption configures a Meter.
type MeterOption func(*Meter)

// WithClock sets the time source. Default: the system clock.
func WithClock(c internal.Clock) MeterOption {
	return func(m *Meter) {
		m.clock = c
	}
}

// WithWindow sets the bitrate window. Default: DefaultRateWindow.
func WithWindow(d time.Duration) MeterOption {
	return func(m *Meter) {
		m.window = d
	}
}

// NewMeter creates a Meter.
func NewMeter(opts ...MeterOption) *Meter {
	m := &Meter{
		clock:  internal.MonotonicClock{},
		window: DefaultRateWindow,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// InterceptOutgoingRTP implements rtpchain.Interceptor.
func (m *Meter) InterceptOutgoingRTP(pkt rtpchain.RTPPacket, _ *rtpchain.StreamInfo) rtpchain.RTPResult {
	m.observe(rtpchain.Outgoing, pkt)
	return rtpchain.Keep(pkt)
}

// InterceptIncomingRTP implements rtpchain.Interceptor.
func (m *Meter) InterceptIncomingRTP(pkt rtpchain.RTPPacket, _ *rtpchain.StreamInfo) rtpchain.RTPResult {
	m.observe(rtpchain.Incoming, pkt)
	return rtpchain.Keep(pkt)
}

func (m *Meter) observe(dir rtpchain.Direction, pkt rtpchain.RTPPacket) {
	s := m.stream(streamKey{dir: dir, ssrc: pkt.Header.SSRC})
	now := m.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ext := s.unwrap.Unwrap(pkt.Header.SequenceNumber)
	switch {
	case s.packets == 0:
		s.first, s.highest = ext, ext
	case ext > s.highest:
		s.highest = ext
	default:
		s.reordered++
		s.first = min(s.first, ext)
	}
	s.packets++
	s.bytes += uint64(len(pkt.Payload))
	s.lastSeen = now
	s.rate.add(int64(len(pkt.Payload)), now)
}

func (m *Meter) stream(k streamKey) *streamMeter {
	if v, ok := m.streams.Load(k); ok {
		return v.(*streamMeter)
	}
	v, _ := m.streams.LoadOrStore(k, &streamMeter{rate: newRateWindow(m.window)})
	return v.(*streamMeter)
}

// Snapshot returns the stats for one source, or false if the meter has not
// seen it in that direction.
func (m *Meter) Snapshot(dir rtpchain.Direction, ssrc uint32) (StreamStats, bool) {
	v, ok := m.streams.Load(streamKey{dir: dir, ssrc: ssrc})
	if !ok {
		return StreamStats{}, false
	}
	return v.(*streamMeter).stats(dir, ssrc, m.clock.Now()), true
}

// All returns the stats of every source, ordered by direction then SSRC.
func (m *Meter) All() []StreamStats {
	now := m.clock.Now()
	var out []StreamStats
	m.streams.Range(func(k, v any) bool {
		key := k.(streamKey)
		out = append(out, v.(*streamMeter).stats(key.dir, key.ssrc, now))
		return true
	})
	slices.SortFunc(out, func(a, b StreamStats) int {
		if c := cmp.Compare(a.Direction, b.Direction); c != 0 {
			return c
		}
		return cmp.Compare(a.SSRC, b.SSRC)
	})
	return out
}

func (s *streamMeter) stats(dir rtpchain.Direction, ssrc uint32, now time.Time) StreamStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := StreamStats{
		Direction:  dir,
		SSRC:       ssrc,
		Packets:    s.packets,
		Bytes:      s.bytes,
		Reordered:  s.reordered,
		HighestSeq: s.highest,
		LastSeen:   s.lastSeen,
	}
	if expected := s.highest - s.first + 1; s.packets > 0 {
		st.Lost = max(expected-int64(s.packets), 0)
	}
	st.BitrateBps, _ = s.rate.rate(now)
	return st
}
