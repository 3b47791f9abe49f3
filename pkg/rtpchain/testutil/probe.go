package testutil

import (
	"sync"
	"sync/atomic"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
)

// CallLog records the order in which probes are called. It is safe for
// concurrent use.
type CallLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *CallLog) record(name string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.calls = append(l.calls, name)
	l.mu.Unlock()
}

// Calls returns the recorded probe names in call order.
func (l *CallLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Reset clears the log.
func (l *CallLog) Reset() {
	l.mu.Lock()
	l.calls = nil
	l.mu.Unlock()
}

// Probe is an interceptor that counts its calls, records them in an optional
// CallLog and forwards packets unchanged unless Drop is set.
type Probe struct {
	Name string
	Log  *CallLog

	// Drop makes every hook drop its packet.
	Drop bool

	// Record keeps every RTP packet the probe sees, for Seen.
	Record bool

	outRTP  atomic.Int64
	inRTP   atomic.Int64
	outRTCP atomic.Int64
	inRTCP  atomic.Int64

	mu   sync.Mutex
	last []rtpchain.RTPPacket
}

// NewProbe creates a named probe writing to log, which may be nil.
func NewProbe(name string, log *CallLog) *Probe {
	return &Probe{Name: name, Log: log}
}

// OutgoingRTP returns how often InterceptOutgoingRTP ran.
func (p *Probe) OutgoingRTP() int64 { return p.outRTP.Load() }

// IncomingRTP returns how often InterceptIncomingRTP ran.
func (p *Probe) IncomingRTP() int64 { return p.inRTP.Load() }

// OutgoingRTCP returns how often InterceptOutgoingRTCP ran.
func (p *Probe) OutgoingRTCP() int64 { return p.outRTCP.Load() }

// IncomingRTCP returns how often InterceptIncomingRTCP ran.
func (p *Probe) IncomingRTCP() int64 { return p.inRTCP.Load() }

// Total returns the number of hook calls of any kind.
func (p *Probe) Total() int64 {
	return p.OutgoingRTP() + p.IncomingRTP() + p.OutgoingRTCP() + p.IncomingRTCP()
}

// Seen returns the RTP packets the probe received, in order, if Record is
// set.
func (p *Probe) Seen() []rtpchain.RTPPacket {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]rtpchain.RTPPacket(nil), p.last...)
}

func (p *Probe) seeRTP(pkt rtpchain.RTPPacket) rtpchain.RTPResult {
	p.Log.record(p.Name)
	if p.Record {
		p.mu.Lock()
		p.last = append(p.last, pkt)
		p.mu.Unlock()
	}
	if p.Drop {
		return rtpchain.DropRTP()
	}
	return rtpchain.Keep(pkt)
}

func (p *Probe) seeRTCP(pkt rtpchain.RTCPPacket) rtpchain.RTCPResult {
	p.Log.record(p.Name)
	if p.Drop {
		return rtpchain.DropRTCP()
	}
	return rtpchain.Keep(pkt)
}

// InterceptOutgoingRTP implements rtpchain.Interceptor.
func (p *Probe) InterceptOutgoingRTP(pkt rtpchain.RTPPacket, _ *rtpchain.StreamInfo) rtpchain.RTPResult {
	p.outRTP.Add(1)
	return p.seeRTP(pkt)
}

// InterceptIncomingRTP implements rtpchain.Interceptor.
func (p *Probe) InterceptIncomingRTP(pkt rtpchain.RTPPacket, _ *rtpchain.StreamInfo) rtpchain.RTPResult {
	p.inRTP.Add(1)
	return p.seeRTP(pkt)
}

// InterceptOutgoingRTCP implements rtpchain.Interceptor.
func (p *Probe) InterceptOutgoingRTCP(pkt rtpchain.RTCPPacket) rtpchain.RTCPResult {
	p.outRTCP.Add(1)
	return p.seeRTCP(pkt)
}

// InterceptIncomingRTCP implements rtpchain.Interceptor.
func (p *Probe) InterceptIncomingRTCP(pkt rtpchain.RTCPPacket) rtpchain.RTCPResult {
	p.inRTCP.Add(1)
	return p.seeRTCP(pkt)
}
