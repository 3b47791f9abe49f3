package testutil

import (
	"time"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
	"github.com/thesyncim/rtpchain/pkg/rtpchain/internal"
)

// TimedPacket is an RTP packet with the time it is delivered.
type TimedPacket struct {
	At     time.Time
	Packet rtpchain.RTPPacket
}

// StableTrace generates count packets of size bytes, one every interval,
// advancing clock as it goes.
func StableTrace(clock *internal.MockClock, ssrc uint32, first uint16, count, size int, interval time.Duration) []TimedPacket {
	out := make([]TimedPacket, count)
	for i := range out {
		out[i] = TimedPacket{At: clock.Now(), Packet: RTP(ssrc, first+uint16(i), size)}
		clock.Advance(interval)
	}
	return out
}

// LossyTrace is StableTrace without the packets whose index satisfies lost.
// The clock still advances for the missing packets.
func LossyTrace(clock *internal.MockClock, ssrc uint32, first uint16, count, size int, interval time.Duration, lost func(i int) bool) []TimedPacket {
	all := StableTrace(clock, ssrc, first, count, size, interval)
	out := all[:0]
	for i, p := range all {
		if !lost(i) {
			out = append(out, p)
		}
	}
	return out
}

// ReorderedTrace is StableTrace with each pair at (i, i+1) swapped for every
// i that is a multiple of every, keeping delivery times in order.
func ReorderedTrace(clock *internal.MockClock, ssrc uint32, first uint16, count, size int, interval time.Duration, every int) []TimedPacket {
	out := StableTrace(clock, ssrc, first, count, size, interval)
	if every <= 0 {
		return out
	}
	for i := 0; i+1 < len(out); i += every {
		out[i].Packet, out[i+1].Packet = out[i+1].Packet, out[i].Packet
	}
	return out
}
