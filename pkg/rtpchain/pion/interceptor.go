package pion

import (
	"cmp"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/logging"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
)

// Interceptor is the Pion interceptor of one PeerConnection. It converts the
// packets Pion reads and writes into rtpchain packets, runs them through the
// connection's Pipeline and turns the results back into wire traffic.
type Interceptor struct {
	interceptor.NoOp

	factory  *InterceptorFactory
	pipeline *rtpchain.Pipeline
	filter   func(*rtpchain.StreamInfo) bool
	log      logging.LeveledLogger

	local  sync.Map // SSRC (uint32) -> *streamState
	remote sync.Map // SSRC (uint32) -> *streamState

	closeOnce sync.Once
}

func newInterceptor(f *InterceptorFactory, p *rtpchain.Pipeline) *Interceptor {
	return &Interceptor{
		factory:  f,
		pipeline: p,
		filter:   f.filter,
		log:      f.loggers.NewLogger(loggerScope),
	}
}

// ID returns the connection id.
func (i *Interceptor) ID() string {
	return i.pipeline.Registry().ID()
}

// Registry returns the connection's chain registry.
func (i *Interceptor) Registry() *rtpchain.Registry {
	return i.pipeline.Registry()
}

// Pipeline returns the connection's pipeline.
func (i *Interceptor) Pipeline() *rtpchain.Pipeline {
	return i.pipeline
}

// Streams returns the bound streams, local ones first, each ordered by SSRC.
func (i *Interceptor) Streams() []StreamStatus {
	var out []StreamStatus
	collect := func(_, v any) bool {
		out = append(out, v.(*streamState).status())
		return true
	}
	i.local.Range(collect)
	i.remote.Range(collect)
	slices.SortFunc(out, func(a, b StreamStatus) int {
		if c := cmp.Compare(a.Direction, b.Direction); c != 0 {
			return c
		}
		return cmp.Compare(a.SSRC, b.SSRC)
	})
	return out
}

// Close empties the connection's registry and forgets the connection.
func (i *Interceptor) Close() error {
	var err error
	i.closeOnce.Do(func() {
		i.factory.remove(i.ID(), i)
		err = i.pipeline.Registry().Close()
	})
	return err
}

func (i *Interceptor) intercepts(info *rtpchain.StreamInfo) bool {
	return i.filter == nil || i.filter(info)
}

// BindLocalStream wraps the writer of an outgoing stream.
func (i *Interceptor) BindLocalStream(info *interceptor.StreamInfo, writer interceptor.RTPWriter) interceptor.RTPWriter {
	sender := toStreamInfo(info)
	if !i.intercepts(sender) {
		return writer
	}
	state := newStreamState(rtpchain.Outgoing, sender)
	i.local.Store(info.SSRC, state)

	return interceptor.RTPWriterFunc(func(header *rtp.Header, payload []byte, a interceptor.Attributes) (int, error) {
		in := rtpchain.FromRTP(header, payload)
		out, kept := i.pipeline.OutgoingRTP(in, sender).Get()
		state.observe(time.Now(), !kept)
		if !kept {
			return 0, nil
		}
		if out.Equal(in) {
			return writer.Write(header, payload, a)
		}

		h := getHeader(header)
		defer putHeader(h)
		if err := out.ApplyTo(h); err != nil {
			i.log.Warnf("ssrc %d: cannot encode intercepted packet, sending original: %v", info.SSRC, err)
			return writer.Write(header, payload, a)
		}
		return writer.Write(h, out.Payload, a)
	})
}

// UnbindLocalStream forgets an outgoing stream.
func (i *Interceptor) UnbindLocalStream(info *interceptor.StreamInfo) {
	i.local.Delete(info.SSRC)
}

// BindRemoteStream wraps the reader of an incoming stream.
func (i *Interceptor) BindRemoteStream(info *interceptor.StreamInfo, reader interceptor.RTPReader) interceptor.RTPReader {
	receiver := toStreamInfo(info)
	if !i.intercepts(receiver) {
		return reader
	}
	state := newStreamState(rtpchain.Incoming, receiver)
	i.remote.Store(info.SSRC, state)

	return interceptor.RTPReaderFunc(func(b []byte, a interceptor.Attributes) (int, interceptor.Attributes, error) {
		for {
			n, attrs, err := reader.Read(b, freshAttributes(a))
			if err != nil {
				return n, attrs, err
			}

			var pkt rtp.Packet
			if err := pkt.Unmarshal(b[:n]); err != nil {
				// Not ours to judge; let the application see it.
				return n, attrs, nil
			}
			in := rtpchain.FromRTP(&pkt.Header, pkt.Payload)
			out, kept := i.pipeline.IncomingRTP(in, receiver).Get()
			state.observe(time.Now(), !kept)
			if !kept {
				continue
			}
			if out.Equal(in) {
				return n, attrs, nil
			}
			// attrs may cache the header as read; the caller must parse the
			// rewritten bytes instead.
			n, err = i.encodeInto(b, &pkt.Header, out)
			return n, freshAttributes(a), err
		}
	})
}

// encodeInto marshals out into b. The payload of out may still point into
// b, so it is encoded into a scratch buffer first.
func (i *Interceptor) encodeInto(b []byte, parsed *rtp.Header, out rtpchain.RTPPacket) (int, error) {
	pkt := rtp.Packet{
		Header: rtp.Header{
			Version:          parsed.Version,
			Extension:        parsed.Extension,
			ExtensionProfile: parsed.ExtensionProfile,
			Extensions:       parsed.Extensions,
		},
		Payload: out.Payload,
	}
	if err := out.ApplyTo(&pkt.Header); err != nil {
		return 0, err
	}
	size := pkt.MarshalSize()
	if size > len(b) {
		return 0, io.ErrShortBuffer
	}

	buf := getBuffer(size)
	defer putBuffer(buf)
	n, err := pkt.MarshalTo(*buf)
	if err != nil {
		return 0, err
	}
	return copy(b, (*buf)[:n]), nil
}

// UnbindRemoteStream forgets an incoming stream.
func (i *Interceptor) UnbindRemoteStream(info *interceptor.StreamInfo) {
	i.remote.Delete(info.SSRC)
}

// BindRTCPWriter wraps the connection's RTCP writer. Each batch is run
// through the chain as one compound packet.
func (i *Interceptor) BindRTCPWriter(writer interceptor.RTCPWriter) interceptor.RTCPWriter {
	return interceptor.RTCPWriterFunc(func(pkts []rtcp.Packet, a interceptor.Attributes) (int, error) {
		in, err := rtpchain.MarshalRTCP(pkts)
		if err != nil {
			i.log.Warnf("cannot encode outgoing RTCP for interception, sending as is: %v", err)
			return writer.Write(pkts, a)
		}
		out, kept := i.pipeline.OutgoingRTCP(in).Get()
		if !kept {
			return 0, nil
		}
		if out.Equal(in) {
			return writer.Write(pkts, a)
		}
		decoded, err := out.Packets()
		if err != nil {
			i.log.Warnf("intercepted RTCP does not decode, sending original: %v", err)
			return writer.Write(pkts, a)
		}
		return writer.Write(decoded, a)
	})
}

// BindRTCPReader wraps the connection's RTCP reader.
func (i *Interceptor) BindRTCPReader(reader interceptor.RTCPReader) interceptor.RTCPReader {
	return interceptor.RTCPReaderFunc(func(b []byte, a interceptor.Attributes) (int, interceptor.Attributes, error) {
		for {
			n, attrs, err := reader.Read(b, freshAttributes(a))
			if err != nil {
				return n, attrs, err
			}
			in := rtpchain.RTCPPacket{Data: b[:n]}
			out, kept := i.pipeline.IncomingRTCP(in).Get()
			if !kept {
				continue
			}
			if out.Equal(in) {
				return n, attrs, nil
			}
			if len(out.Data) > len(b) {
				return 0, attrs, io.ErrShortBuffer
			}
			return copy(b, out.Data), freshAttributes(a), nil
		}
	})
}

// freshAttributes returns a copy of the caller's attributes for one inner
// read. Inner readers cache parsed headers and RTCP packets in the map they
// are given, and that cache must not outlive a dropped or rewritten packet.
func freshAttributes(a interceptor.Attributes) interceptor.Attributes {
	if a == nil {
		return make(interceptor.Attributes)
	}
	return maps.Clone(a)
}
