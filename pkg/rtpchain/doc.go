// Package rtpchain routes RTP and RTCP packets through an ordered chain of
// interceptors before they are sent on the wire or delivered to the
// application.
//
// The package has three parts:
//
//   - a packet model (RTPPacket, RTCPPacket) with conversions to and from
//     github.com/pion/rtp and github.com/pion/rtcp
//   - the Interceptor contract, four hooks that return Keep(packet) or Drop
//   - a Registry holding the chain and a Pipeline walking it for each packet
//
// # Quick Start
//
//	reg := rtpchain.NewRegistry()
//	pipeline, err := rtpchain.NewPipeline(reg)
//	if err != nil {
//	    return err
//	}
//
//	// Drop every packet from one source
//	_ = reg.Add(&rtpchain.Funcs{
//	    OutgoingRTP: func(pkt rtpchain.RTPPacket, _ *rtpchain.StreamInfo) rtpchain.RTPResult {
//	        if pkt.Header.SSRC == 0xDEADBEEF {
//	            return rtpchain.DropRTP()
//	        }
//	        return rtpchain.Keep(pkt)
//	    },
//	})
//
//	// Called by the media engine for each packet
//	if out, ok := pipeline.OutgoingRTP(pkt, sender).Get(); ok {
//	    send(out)
//	}
//
// To intercept the packets of a Pion PeerConnection, register the factory from
// the pion subpackage with the interceptor registry instead of calling the
// Pipeline directly.
//
// # Ordering and Snapshots
//
// The chain order is registration order and is the processing order for every
// packet. Each pass walks the snapshot taken when it started: interceptors
// added mid-pass are not called for that packet, interceptors removed
// mid-pass still are. Add and Remove never wait for passes in flight.
//
// # Drops and Failures
//
// A drop ends the pass; later interceptors do not see the packet and the
// pipeline does not log it. A hook that panics, or returns a packet failing
// Validate, is treated as if it had returned its input unchanged. The failure
// is logged through pion/logging and counted in Stats, and the pass continues.
//
// # Hook Contract
//
// Hooks run on real-time media goroutines. They must return quickly and must
// not block on disk, network or locks held by slower code. The pipeline
// imposes no timeout; a slow hook shows up as stutter in the media flow.
package rtpchain
