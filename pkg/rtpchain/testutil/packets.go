// Package testutil provides packet builders, probe interceptors, traces and
// browser automation for testing rtpchain and its users.
package testutil

import (
	"encoding/binary"

	"github.com/pion/rtcp"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
)

// Defaults used by the builders.
const (
	DefaultSSRC        = 0x12345678
	DefaultPayloadType = 111 // dynamic PT Pion negotiates for Opus
)

// RTP returns an RTP packet with the given sequence number and a payload of
// size bytes. The timestamp advances 960 ticks per sequence number, one 20ms
// Opus frame at 48 kHz.
func RTP(ssrc uint32, seq uint16, size int) rtpchain.RTPPacket {
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte(int(seq) + i)
	}
	return rtpchain.RTPPacket{
		Header: rtpchain.RTPHeader{
			PayloadType:    DefaultPayloadType,
			SequenceNumber: seq,
			Timestamp:      uint32(seq) * 960,
			SSRC:           ssrc,
		},
		Payload: payload,
	}
}

// RTPSequence returns count packets with consecutive sequence numbers
// starting at first, wrapping at 65535.
func RTPSequence(ssrc uint32, first uint16, count, size int) []rtpchain.RTPPacket {
	pkts := make([]rtpchain.RTPPacket, count)
	for i := range pkts {
		pkts[i] = RTP(ssrc, first+uint16(i), size)
	}
	return pkts
}

// L16 encodes samples as 16-bit big-endian PCM.
func L16(samples ...int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.BigEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// Samples decodes an L16 payload, ignoring a trailing odd byte.
func Samples(payload []byte) []int16 {
	out := make([]int16, len(payload)/2)
	for i := range out {
		out[i] = int16(binary.BigEndian.Uint16(payload[2*i:]))
	}
	return out
}

// ReceiverReport returns an encoded RTCP receiver report for one source.
func ReceiverReport(sender, media uint32) rtpchain.RTCPPacket {
	return mustRTCP(&rtcp.ReceiverReport{
		SSRC: sender,
		Reports: []rtcp.ReceptionReport{{
			SSRC:               media,
			FractionLost:       0,
			TotalLost:          0,
			LastSequenceNumber: 1000,
		}},
	})
}

// PLI returns an encoded picture loss indication.
func PLI(sender, media uint32) rtpchain.RTCPPacket {
	return mustRTCP(&rtcp.PictureLossIndication{SenderSSRC: sender, MediaSSRC: media})
}

func mustRTCP(pkts ...rtcp.Packet) rtpchain.RTCPPacket {
	p, err := rtpchain.MarshalRTCP(pkts)
	if err != nil {
		panic(err)
	}
	return p
}
