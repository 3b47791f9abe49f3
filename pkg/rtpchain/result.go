package rtpchain

// Packet is the set of packet values a Result can carry.
type Packet interface {
	RTPPacket | RTCPPacket
}

// Result is the outcome of one hook call: either a packet to forward or a
// drop. The zero Result is a drop, so forwarding always requires Keep.
type Result[T Packet] struct {
	pkt  T
	kept bool
}

// RTPResult is the outcome of an RTP hook.
type RTPResult = Result[RTPPacket]

// RTCPResult is the outcome of an RTCP hook.
type RTCPResult = Result[RTCPPacket]

// Keep forwards pkt to the next interceptor.
func Keep[T Packet](pkt T) Result[T] {
	return Result[T]{pkt: pkt, kept: true}
}

// Drop discards the packet. Later interceptors are not called.
func Drop[T Packet]() Result[T] {
	return Result[T]{}
}

// Get returns the packet and true, or the zero packet and false for a drop.
func (r Result[T]) Get() (T, bool) {
	return r.pkt, r.kept
}

// Dropped reports whether the result is a drop.
func (r Result[T]) Dropped() bool {
	return !r.kept
}

// KeepRTP is Keep for RTP packets, for call sites where inference cannot help.
func KeepRTP(pkt RTPPacket) RTPResult { return Keep(pkt) }

// KeepRTCP is Keep for RTCP packets.
func KeepRTCP(pkt RTCPPacket) RTCPResult { return Keep(pkt) }

// DropRTP drops an RTP packet.
func DropRTP() RTPResult { return Drop[RTPPacket]() }

// DropRTCP drops an RTCP packet.
func DropRTCP() RTCPResult { return Drop[RTCPPacket]() }
