package rtpchain

import "sync/atomic"

// Direction is the direction a packet travels relative to the local endpoint.
type Direction int

const (
	// Outgoing packets are about to be sent on the wire.
	Outgoing Direction = iota
	// Incoming packets were received and are about to reach the application.
	Incoming
)

// String returns a string representation of the direction.
func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "outgoing"
	case Incoming:
		return "incoming"
	default:
		return "unknown"
	}
}

// Protocol distinguishes RTP from RTCP.
type Protocol int

const (
	// RTP media packets.
	RTP Protocol = iota
	// RTCP control packets.
	RTCP
)

// String returns a string representation of the protocol.
func (p Protocol) String() string {
	switch p {
	case RTP:
		return "rtp"
	case RTCP:
		return "rtcp"
	default:
		return "unknown"
	}
}

// Event identifies one of the four packet events a Pipeline handles.
type Event struct {
	Direction Direction
	Protocol  Protocol
}

// The four packet events, in Stats order.
var (
	OutgoingRTPEvent  = Event{Outgoing, RTP}
	IncomingRTPEvent  = Event{Incoming, RTP}
	OutgoingRTCPEvent = Event{Outgoing, RTCP}
	IncomingRTCPEvent = Event{Incoming, RTCP}
)

// Events lists every event in a stable order.
var Events = [...]Event{OutgoingRTPEvent, IncomingRTPEvent, OutgoingRTCPEvent, IncomingRTCPEvent}

// String returns e.g. "outgoing rtp".
func (e Event) String() string {
	return e.Direction.String() + " " + e.Protocol.String()
}

func (e Event) index() int {
	return int(e.Protocol)*2 + int(e.Direction)
}

// EventStats holds the counters for one event.
type EventStats struct {
	// Passes is the number of packets that entered the pipeline.
	Passes uint64
	// Dropped is the number of passes that ended in a drop.
	Dropped uint64
	// Panics is the number of hook calls that panicked and were recovered.
	Panics uint64
	// Malformed is the number of hook results replaced because they failed
	// validation.
	Malformed uint64
}

// Stats is a point-in-time copy of a pipeline's counters.
type Stats map[Event]EventStats

type eventCounters struct {
	passes    atomic.Uint64
	dropped   atomic.Uint64
	panics    atomic.Uint64
	malformed atomic.Uint64
}

type counters [4]eventCounters

func (c *counters) of(e Event) *eventCounters {
	return &c[e.index()]
}

func (c *counters) snapshot() Stats {
	s := make(Stats, len(Events))
	for _, e := range Events {
		ec := c.of(e)
		s[e] = EventStats{
			Passes:    ec.passes.Load(),
			Dropped:   ec.dropped.Load(),
			Panics:    ec.panics.Load(),
			Malformed: ec.malformed.Load(),
		}
	}
	return s
}
