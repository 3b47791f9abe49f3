package rtpchain

import (
	"errors"
	"sync/atomic"

	"github.com/pion/logging"
)

// loggerScope is the pion/logging scope used by pipelines.
const loggerScope = "rtpchain"

// Pipeline feeds packets through the interceptors of a Registry.
//
// Every call takes a fresh snapshot of the registry, hands the packet to each
// interceptor in registration order and stops at the first drop. A Pipeline
// is safe for concurrent use; calls for different packets may overlap.
//
// Failures inside the chain never reach the caller:
//   - a hook that panics is recovered and treated as a pass-through
//   - a hook that returns a packet failing Validate is treated as a
//     pass-through: the packet it was given continues down the chain
//
// Both cases are logged and counted in Stats.
type Pipeline struct {
	registry   *Registry
	log        logging.LeveledLogger
	strictRTCP bool
	disabled   atomic.Bool
	stats      counters
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLoggerFactory sets where pipeline diagnostics go.
// Default: pion/logging's default factory.
func WithLoggerFactory(f logging.LoggerFactory) Option {
	return func(p *Pipeline) error {
		if f == nil {
			return errors.New("logger factory must not be nil")
		}
		p.log = f.NewLogger(loggerScope)
		return nil
	}
}

// WithStrictRTCP makes RTCP validation decode each hook result with
// pion/rtcp instead of checking framing only.
func WithStrictRTCP() Option {
	return func(p *Pipeline) error {
		p.strictRTCP = true
		return nil
	}
}

// NewPipeline creates a pipeline over reg.
func NewPipeline(reg *Registry, opts ...Option) (*Pipeline, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	p := &Pipeline{registry: reg}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.log == nil {
		p.log = logging.NewDefaultLoggerFactory().NewLogger(loggerScope)
	}
	return p, nil
}

// Registry returns the registry the pipeline reads.
func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// SetEnabled turns interception on or off. A disabled pipeline returns every
// packet untouched without consulting the registry.
func (p *Pipeline) SetEnabled(enabled bool) {
	p.disabled.Store(!enabled)
}

// Enabled reports whether interception is on.
func (p *Pipeline) Enabled() bool {
	return !p.disabled.Load()
}

// Stats returns a copy of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return p.stats.snapshot()
}

// OutgoingRTP runs an RTP packet about to be sent through the chain.
func (p *Pipeline) OutgoingRTP(pkt RTPPacket, sender *StreamInfo) RTPResult {
	return run(p, OutgoingRTPEvent, pkt, sender, callOutgoingRTP, validateRTP)
}

// IncomingRTP runs a received RTP packet through the chain.
func (p *Pipeline) IncomingRTP(pkt RTPPacket, receiver *StreamInfo) RTPResult {
	return run(p, IncomingRTPEvent, pkt, receiver, callIncomingRTP, validateRTP)
}

// OutgoingRTCP runs an RTCP packet about to be sent through the chain.
func (p *Pipeline) OutgoingRTCP(pkt RTCPPacket) RTCPResult {
	return run(p, OutgoingRTCPEvent, pkt, nil, callOutgoingRTCP, validateRTCP)
}

// IncomingRTCP runs a received RTCP packet through the chain.
func (p *Pipeline) IncomingRTCP(pkt RTCPPacket) RTCPResult {
	return run(p, IncomingRTCPEvent, pkt, nil, callIncomingRTCP, validateRTCP)
}

type hookFunc[T Packet] func(i Interceptor, pkt T, info *StreamInfo) Result[T]

type validateFunc[T Packet] func(p *Pipeline, pkt T) error

func callOutgoingRTP(i Interceptor, pkt RTPPacket, info *StreamInfo) RTPResult {
	return i.InterceptOutgoingRTP(pkt, info)
}

func callIncomingRTP(i Interceptor, pkt RTPPacket, info *StreamInfo) RTPResult {
	return i.InterceptIncomingRTP(pkt, info)
}

func callOutgoingRTCP(i Interceptor, pkt RTCPPacket, _ *StreamInfo) RTCPResult {
	return i.InterceptOutgoingRTCP(pkt)
}

func callIncomingRTCP(i Interceptor, pkt RTCPPacket, _ *StreamInfo) RTCPResult {
	return i.InterceptIncomingRTCP(pkt)
}

func validateRTP(_ *Pipeline, pkt RTPPacket) error {
	return pkt.Validate()
}

func validateRTCP(p *Pipeline, pkt RTCPPacket) error {
	if err := pkt.Validate(); err != nil {
		return err
	}
	if p.strictRTCP {
		_, err := pkt.Packets()
		return err
	}
	return nil
}

func run[T Packet](p *Pipeline, ev Event, pkt T, info *StreamInfo, call hookFunc[T], validate validateFunc[T]) Result[T] {
	if p.disabled.Load() {
		return Keep(pkt)
	}

	c := p.stats.of(ev)
	c.passes.Add(1)

	chain := p.registry.Snapshot()
	current := pkt
	for idx, i := range chain.entries {
		res, recovered := safeCall(call, i, current, info)
		if recovered != nil {
			c.panics.Add(1)
			p.log.Errorf("%s: interceptor %d (%T) panicked, passing packet through: %v", ev, idx, i, recovered)
			continue
		}

		next, kept := res.Get()
		if !kept {
			c.dropped.Add(1)
			return res
		}
		if err := validate(p, next); err != nil {
			c.malformed.Add(1)
			p.log.Warnf("%s: interceptor %d (%T) returned a malformed packet, passing packet through: %v", ev, idx, i, err)
			continue
		}
		current = next
	}
	return Keep(current)
}

func safeCall[T Packet](call hookFunc[T], i Interceptor, pkt T, info *StreamInfo) (res Result[T], recovered any) {
	defer func() {
		if r := recover(); r != nil {
			res, recovered = Keep(pkt), r
		}
	}()
	return call(i, pkt, info), nil
}
