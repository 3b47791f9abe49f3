package rtpchain

// Interceptor observes or transforms packets flowing through a Pipeline.
//
// Each hook receives the current packet and returns Keep(packet) to forward
// it, possibly modified, or Drop to discard it. Hooks run synchronously on
// the media engine's goroutines, concurrently for different streams, so they
// must return quickly and must not block on disk, network or contended locks.
// A hook that panics is treated as a pass-through for that call.
//
// The sender and receiver arguments describe the stream the packet belongs
// to. They are nil when the caller has no stream context.
type Interceptor interface {
	// InterceptOutgoingRTP is called for every RTP packet about to be sent.
	InterceptOutgoingRTP(pkt RTPPacket, sender *StreamInfo) RTPResult

	// InterceptIncomingRTP is called for every RTP packet received, before it
	// reaches the application.
	InterceptIncomingRTP(pkt RTPPacket, receiver *StreamInfo) RTPResult

	// InterceptOutgoingRTCP is called for every RTCP packet about to be sent.
	InterceptOutgoingRTCP(pkt RTCPPacket) RTCPResult

	// InterceptIncomingRTCP is called for every RTCP packet received.
	InterceptIncomingRTCP(pkt RTCPPacket) RTCPResult
}

// NoOp passes every packet through unchanged. Embed it to implement only the
// hooks you care about.
type NoOp struct{}

// InterceptOutgoingRTP returns pkt unchanged.
func (NoOp) InterceptOutgoingRTP(pkt RTPPacket, _ *StreamInfo) RTPResult { return Keep(pkt) }

// InterceptIncomingRTP returns pkt unchanged.
func (NoOp) InterceptIncomingRTP(pkt RTPPacket, _ *StreamInfo) RTPResult { return Keep(pkt) }

// InterceptOutgoingRTCP returns pkt unchanged.
func (NoOp) InterceptOutgoingRTCP(pkt RTCPPacket) RTCPResult { return Keep(pkt) }

// InterceptIncomingRTCP returns pkt unchanged.
func (NoOp) InterceptIncomingRTCP(pkt RTCPPacket) RTCPResult { return Keep(pkt) }

// Funcs builds an Interceptor from plain functions. A nil field passes the
// packet through. Register a *Funcs: the registry removes interceptors by
// identity, and a Funcs value is not comparable.
type Funcs struct {
	OutgoingRTP  func(pkt RTPPacket, sender *StreamInfo) RTPResult
	IncomingRTP  func(pkt RTPPacket, receiver *StreamInfo) RTPResult
	OutgoingRTCP func(pkt RTCPPacket) RTCPResult
	IncomingRTCP func(pkt RTCPPacket) RTCPResult
}

// InterceptOutgoingRTP implements Interceptor.
func (f *Funcs) InterceptOutgoingRTP(pkt RTPPacket, sender *StreamInfo) RTPResult {
	if f.OutgoingRTP == nil {
		return Keep(pkt)
	}
	return f.OutgoingRTP(pkt, sender)
}

// InterceptIncomingRTP implements Interceptor.
func (f *Funcs) InterceptIncomingRTP(pkt RTPPacket, receiver *StreamInfo) RTPResult {
	if f.IncomingRTP == nil {
		return Keep(pkt)
	}
	return f.IncomingRTP(pkt, receiver)
}

// InterceptOutgoingRTCP implements Interceptor.
func (f *Funcs) InterceptOutgoingRTCP(pkt RTCPPacket) RTCPResult {
	if f.OutgoingRTCP == nil {
		return Keep(pkt)
	}
	return f.OutgoingRTCP(pkt)
}

// InterceptIncomingRTCP implements Interceptor.
func (f *Funcs) InterceptIncomingRTCP(pkt RTCPPacket) RTCPResult {
	if f.IncomingRTCP == nil {
		return Keep(pkt)
	}
	return f.IncomingRTCP(pkt)
}
