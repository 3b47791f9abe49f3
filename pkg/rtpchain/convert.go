package rtpchain

import (
	"fmt"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
)

// RFC 8285 extension profiles.
const (
	extensionProfileOneByte = 0xBEDE
	extensionProfileTwoByte = 0x1000
)

// FromRTP builds a packet from a pion header and payload. Slices are shared
// with the arguments, not copied.
//
// Only RFC 8285 extension elements are modelled. A legacy RFC 3550 extension
// block is left out of Extensions and survives ApplyTo untouched as long as no
// interceptor adds elements of its own.
func FromRTP(h *rtp.Header, payload []byte) RTPPacket {
	p := RTPPacket{
		Header: RTPHeader{
			PayloadType:    h.PayloadType,
			SequenceNumber: h.SequenceNumber,
			Timestamp:      h.Timestamp,
			SSRC:           h.SSRC,
			CSRC:           h.CSRC,
			Marker:         h.Marker,
		},
		Payload: payload,
	}
	if !isRFC8285(h) {
		return p
	}
	ids := h.GetExtensionIDs()
	if len(ids) > 0 {
		p.Extensions = make([]RTPHeaderExtension, 0, len(ids))
		for _, id := range ids {
			p.Extensions = append(p.Extensions, RTPHeaderExtension{ID: id, Value: h.GetExtension(id)})
		}
	}
	return p
}

// ParseRTP decodes a raw RTP packet.
func ParseRTP(raw []byte) (RTPPacket, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(raw); err != nil {
		return RTPPacket{}, fmt.Errorf("%w: %w", ErrMalformedRTP, err)
	}
	return FromRTP(&pkt.Header, pkt.Payload), nil
}

// ApplyTo writes the packet's header fields and extensions into h, keeping
// the fields RTPPacket does not model (version, padding, legacy extension
// block). The extension profile is one-byte when every element fits it and
// two-byte otherwise.
func (p RTPPacket) ApplyTo(h *rtp.Header) error {
	h.PayloadType = p.Header.PayloadType
	h.SequenceNumber = p.Header.SequenceNumber
	h.Timestamp = p.Header.Timestamp
	h.SSRC = p.Header.SSRC
	h.CSRC = p.Header.CSRC
	h.Marker = p.Header.Marker

	if len(p.Extensions) == 0 {
		if isRFC8285(h) {
			h.Extension = false
			h.ExtensionProfile = 0
			h.Extensions = nil
		}
		return nil
	}

	h.Extension = true
	h.ExtensionProfile = extensionProfileFor(p.Extensions)
	h.Extensions = nil
	for _, ext := range p.Extensions {
		if err := h.SetExtension(ext.ID, ext.Value); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedRTP, err)
		}
	}
	return nil
}

// ToRTP converts the packet into a fresh version 2 pion packet.
func (p RTPPacket) ToRTP() (*rtp.Packet, error) {
	pkt := &rtp.Packet{
		Header:  rtp.Header{Version: rtpVersion},
		Payload: p.Payload,
	}
	if err := p.ApplyTo(&pkt.Header); err != nil {
		return nil, err
	}
	return pkt, nil
}

// Marshal encodes the packet to wire format.
func (p RTPPacket) Marshal() ([]byte, error) {
	pkt, err := p.ToRTP()
	if err != nil {
		return nil, err
	}
	return pkt.Marshal()
}

// MarshalRTCP encodes a batch of pion RTCP packets into one compound packet.
func MarshalRTCP(pkts []rtcp.Packet) (RTCPPacket, error) {
	data, err := rtcp.Marshal(pkts)
	if err != nil {
		return RTCPPacket{}, fmt.Errorf("%w: %w", ErrMalformedRTCP, err)
	}
	return RTCPPacket{Data: data}, nil
}

// Packets decodes the compound buffer with pion/rtcp. Interceptors that only
// forward RTCP never need to call it.
func (p RTCPPacket) Packets() ([]rtcp.Packet, error) {
	pkts, err := rtcp.Unmarshal(p.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRTCP, err)
	}
	return pkts, nil
}

func isRFC8285(h *rtp.Header) bool {
	if !h.Extension {
		return true
	}
	return h.ExtensionProfile == extensionProfileOneByte || h.ExtensionProfile == extensionProfileTwoByte
}

func extensionProfileFor(exts []RTPHeaderExtension) uint16 {
	for _, ext := range exts {
		if ext.ID < 1 || ext.ID > 14 || len(ext.Value) < 1 || len(ext.Value) > 16 {
			return extensionProfileTwoByte
		}
	}
	return extensionProfileOneByte
}
