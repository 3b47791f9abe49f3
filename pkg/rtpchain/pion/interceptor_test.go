package pion

import (
	"io"
	"sync"
	"testing"

	"github.com/pion/interceptor"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
	"github.com/thesyncim/rtpchain/pkg/rtpchain/interceptors"
	"github.com/thesyncim/rtpchain/pkg/rtpchain/testutil"
)

var opusInfo = &interceptor.StreamInfo{
	ID:          "audio",
	SSRC:        testutil.DefaultSSRC,
	PayloadType: testutil.DefaultPayloadType,
	MimeType:    "audio/opus",
	ClockRate:   48000,
	Channels:    2,
	RTPHeaderExtensions: []interceptor.RTPHeaderExtension{
		{URI: rtpchain.AudioLevelURI, ID: 1},
		{URI: rtpchain.SDESMidURI, ID: 4},
	},
}

var vp8Info = &interceptor.StreamInfo{
	SSRC:      0xBEEF,
	MimeType:  "video/VP8",
	ClockRate: 90000,
}

func newTestInterceptor(t *testing.T, opts ...FactoryOption) (*Interceptor, *rtpchain.Registry) {
	t.Helper()
	f, err := NewInterceptorFactory(opts...)
	require.NoError(t, err)
	i, err := f.NewInterceptor("test")
	require.NoError(t, err)
	c := i.(*Interceptor)
	t.Cleanup(func() { _ = c.Close() })
	return c, c.Registry()
}

// captureRTPWriter records what reaches the wire.
type captureRTPWriter struct {
	mu       sync.Mutex
	headers  []rtp.Header
	payloads [][]byte
}

func (w *captureRTPWriter) Write(h *rtp.Header, payload []byte, _ interceptor.Attributes) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	hc := *h
	hc.Extensions = nil
	for _, id := range h.GetExtensionIDs() {
		_ = hc.SetExtension(id, append([]byte(nil), h.GetExtension(id)...))
	}
	w.headers = append(w.headers, hc)
	w.payloads = append(w.payloads, append([]byte(nil), payload...))
	return h.MarshalSize() + len(payload), nil
}

// queueReader returns queued raw packets, then io.EOF.
type queueReader struct {
	packets [][]byte
}

func (r *queueReader) Read(b []byte, a interceptor.Attributes) (int, interceptor.Attributes, error) {
	if len(r.packets) == 0 {
		return 0, nil, io.EOF
	}
	pkt := r.packets[0]
	r.packets = r.packets[1:]
	if len(pkt) > len(b) {
		return 0, nil, io.ErrShortBuffer
	}
	return copy(b, pkt), a, nil
}

func rawRTP(t *testing.T, pkt rtpchain.RTPPacket) []byte {
	t.Helper()
	raw, err := pkt.Marshal()
	require.NoError(t, err)
	return raw
}

func pionHeader(pkt rtpchain.RTPPacket) *rtp.Header {
	p, err := pkt.ToRTP()
	if err != nil {
		panic(err)
	}
	return &p.Header
}

func TestBindLocalStream_PassThrough(t *testing.T) {
	c, reg := newTestInterceptor(t)
	probe := &testutil.Probe{Name: "p", Record: true}
	require.NoError(t, reg.Add(probe))

	w := &captureRTPWriter{}
	writer := c.BindLocalStream(opusInfo, w)

	pkt := testutil.RTP(testutil.DefaultSSRC, 10, 20).WithExtension(1, []byte{0x90})
	n, err := writer.Write(pionHeader(pkt), pkt.Payload, nil)
	require.NoError(t, err)
	assert.Positive(t, n)

	require.Len(t, w.headers, 1)
	assert.Equal(t, uint16(10), w.headers[0].SequenceNumber)
	assert.Equal(t, []byte{0x90}, w.headers[0].GetExtension(1))
	assert.Equal(t, pkt.Payload, w.payloads[0])
	assert.True(t, probe.Seen()[0].Equal(pkt))
}

func TestBindLocalStream_Drop(t *testing.T) {
	c, reg := newTestInterceptor(t)
	loss, err := interceptors.NewLossSimulator(2)
	require.NoError(t, err)
	require.NoError(t, reg.Add(loss))

	w := &captureRTPWriter{}
	writer := c.BindLocalStream(opusInfo, w)

	for _, pkt := range testutil.RTPSequence(testutil.DefaultSSRC, 1, 10, 20) {
		n, err := writer.Write(pionHeader(pkt), pkt.Payload, nil)
		require.NoError(t, err)
		if pkt.Header.SequenceNumber%2 == 0 {
			assert.Zero(t, n)
		}
	}

	require.Len(t, w.headers, 5)
	for _, h := range w.headers {
		assert.Equal(t, uint16(1), h.SequenceNumber%2)
	}

	streams := c.Streams()
	require.Len(t, streams, 1)
	assert.Equal(t, StreamStatus{
		Direction:  rtpchain.Outgoing,
		SSRC:       testutil.DefaultSSRC,
		MimeType:   "audio/opus",
		Packets:    10,
		Dropped:    5,
		LastPacket: streams[0].LastPacket,
	}, streams[0])
	assert.False(t, streams[0].LastPacket.IsZero())
}

func TestBindLocalStream_Modify(t *testing.T) {
	c, reg := newTestInterceptor(t)
	require.NoError(t, reg.Add(&rtpchain.Funcs{
		OutgoingRTP: func(pkt rtpchain.RTPPacket, sender *rtpchain.StreamInfo) rtpchain.RTPResult {
			pkt.Payload = []byte{1, 2, 3}
			pkt.Header.Marker = true
			return rtpchain.Keep(pkt.WithExtension(sender.ExtensionID(rtpchain.SDESMidURI), []byte("0")))
		},
	}))

	w := &captureRTPWriter{}
	writer := c.BindLocalStream(opusInfo, w)

	pkt := testutil.RTP(testutil.DefaultSSRC, 10, 20)
	h := pionHeader(pkt)
	_, err := writer.Write(h, pkt.Payload, nil)
	require.NoError(t, err)

	require.Len(t, w.headers, 1)
	assert.True(t, w.headers[0].Marker)
	assert.Equal(t, []byte("0"), w.headers[0].GetExtension(4))
	assert.Equal(t, []byte{1, 2, 3}, w.payloads[0])

	assert.False(t, h.Marker, "caller's header is not modified")
	assert.False(t, h.Extension)
}

func TestBindLocalStream_FilteredStreamBypassesChain(t *testing.T) {
	c, reg := newTestInterceptor(t, WithAudioOnly())
	probe := testutil.NewProbe("p", nil)
	require.NoError(t, reg.Add(probe))

	w := &captureRTPWriter{}
	writer := c.BindLocalStream(vp8Info, w)
	pkt := testutil.RTP(vp8Info.SSRC, 1, 20)
	_, err := writer.Write(pionHeader(pkt), pkt.Payload, nil)
	require.NoError(t, err)

	assert.Len(t, w.headers, 1)
	assert.Zero(t, probe.Total())
	assert.Empty(t, c.Streams())
}

func TestBindRemoteStream_DropReadsNext(t *testing.T) {
	c, reg := newTestInterceptor(t)
	loss, err := interceptors.NewLossSimulator(2, interceptors.IncomingOnly())
	require.NoError(t, err)
	require.NoError(t, reg.Add(loss))

	q := &queueReader{}
	for _, pkt := range testutil.RTPSequence(testutil.DefaultSSRC, 1, 6, 20) {
		q.packets = append(q.packets, rawRTP(t, pkt))
	}
	reader := c.BindRemoteStream(opusInfo, q)

	var seqs []uint16
	buf := make([]byte, 1500)
	for {
		n, _, err := reader.Read(buf, nil)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		var p rtp.Packet
		require.NoError(t, p.Unmarshal(buf[:n]))
		seqs = append(seqs, p.SequenceNumber)
	}
	assert.Equal(t, []uint16{1, 3, 5}, seqs)
}

func TestBindRemoteStream_Modify(t *testing.T) {
	grow := func(extra int) *rtpchain.Funcs {
		return &rtpchain.Funcs{
			IncomingRTP: func(pkt rtpchain.RTPPacket, _ *rtpchain.StreamInfo) rtpchain.RTPResult {
				pkt.Payload = append(append([]byte(nil), pkt.Payload...), make([]byte, extra)...)
				pkt.Header.Timestamp++
				return rtpchain.Keep(pkt.WithExtension(1, []byte{0x7F}))
			},
		}
	}

	t.Run("fits", func(t *testing.T) {
		c, reg := newTestInterceptor(t)
		require.NoError(t, reg.Add(grow(4)))

		in := testutil.RTP(testutil.DefaultSSRC, 3, 20)
		reader := c.BindRemoteStream(opusInfo, &queueReader{packets: [][]byte{rawRTP(t, in)}})

		buf := make([]byte, 1500)
		n, _, err := reader.Read(buf, nil)
		require.NoError(t, err)

		out, err := rtpchain.ParseRTP(buf[:n])
		require.NoError(t, err)
		assert.Len(t, out.Payload, 24)
		assert.Equal(t, in.Payload, out.Payload[:20])
		assert.Equal(t, in.Header.Timestamp+1, out.Header.Timestamp)
		assert.Equal(t, []byte{0x7F}, out.Extension(1))
	})

	t.Run("short buffer", func(t *testing.T) {
		c, reg := newTestInterceptor(t)
		require.NoError(t, reg.Add(grow(100)))

		raw := rawRTP(t, testutil.RTP(testutil.DefaultSSRC, 3, 20))
		reader := c.BindRemoteStream(opusInfo, &queueReader{packets: [][]byte{raw}})

		_, _, err := reader.Read(make([]byte, len(raw)+10), nil)
		assert.ErrorIs(t, err, io.ErrShortBuffer)
	})
}

func TestBindRemoteStream_StreamInfo(t *testing.T) {
	c, reg := newTestInterceptor(t)
	var got *rtpchain.StreamInfo
	require.NoError(t, reg.Add(&rtpchain.Funcs{
		IncomingRTP: func(pkt rtpchain.RTPPacket, receiver *rtpchain.StreamInfo) rtpchain.RTPResult {
			got = receiver
			return rtpchain.Keep(pkt)
		},
	}))

	raw := rawRTP(t, testutil.RTP(testutil.DefaultSSRC, 1, 4))
	reader := c.BindRemoteStream(opusInfo, &queueReader{packets: [][]byte{raw}})
	_, _, err := reader.Read(make([]byte, 1500), nil)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, &rtpchain.StreamInfo{
		ID:          "audio",
		SSRC:        testutil.DefaultSSRC,
		PayloadType: testutil.DefaultPayloadType,
		MimeType:    "audio/opus",
		ClockRate:   48000,
		Channels:    2,
		HeaderExtensions: []rtpchain.HeaderExtension{
			{ID: 1, URI: rtpchain.AudioLevelURI},
			{ID: 4, URI: rtpchain.SDESMidURI},
		},
	}, got)

	require.Len(t, c.Streams(), 1)
	c.UnbindRemoteStream(opusInfo)
	assert.Empty(t, c.Streams())
}

// captureRTCPWriter records RTCP batches.
type captureRTCPWriter struct {
	batches [][]rtcp.Packet
}

func (w *captureRTCPWriter) Write(pkts []rtcp.Packet, _ interceptor.Attributes) (int, error) {
	w.batches = append(w.batches, pkts)
	return len(pkts), nil
}

func TestBindRTCPWriter(t *testing.T) {
	pli := []rtcp.Packet{&rtcp.PictureLossIndication{SenderSSRC: 1, MediaSSRC: 2}}

	t.Run("pass through", func(t *testing.T) {
		c, reg := newTestInterceptor(t)
		probe := testutil.NewProbe("p", nil)
		require.NoError(t, reg.Add(probe))

		w := &captureRTCPWriter{}
		_, err := c.BindRTCPWriter(w).Write(pli, nil)
		require.NoError(t, err)
		require.Len(t, w.batches, 1)
		assert.Equal(t, pli, w.batches[0])
		assert.Equal(t, int64(1), probe.OutgoingRTCP())
	})

	t.Run("drop", func(t *testing.T) {
		c, reg := newTestInterceptor(t)
		require.NoError(t, reg.Add(&testutil.Probe{Name: "drop", Drop: true}))

		w := &captureRTCPWriter{}
		n, err := c.BindRTCPWriter(w).Write(pli, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, w.batches)
	})

	t.Run("rewrite", func(t *testing.T) {
		c, reg := newTestInterceptor(t)
		require.NoError(t, reg.Add(&rtpchain.Funcs{
			OutgoingRTCP: func(rtpchain.RTCPPacket) rtpchain.RTCPResult {
				return rtpchain.Keep(testutil.ReceiverReport(7, 8))
			},
		}))

		w := &captureRTCPWriter{}
		_, err := c.BindRTCPWriter(w).Write(pli, nil)
		require.NoError(t, err)
		require.Len(t, w.batches, 1)
		rr, ok := w.batches[0][0].(*rtcp.ReceiverReport)
		require.True(t, ok)
		assert.Equal(t, uint32(7), rr.SSRC)
	})

	t.Run("undecodable result sends original", func(t *testing.T) {
		c, reg := newTestInterceptor(t)
		require.NoError(t, reg.Add(&rtpchain.Funcs{
			OutgoingRTCP: func(rtpchain.RTCPPacket) rtpchain.RTCPResult {
				return rtpchain.Keep(rtpchain.RTCPPacket{Data: []byte{0x81, 206, 0, 9, 0, 0, 0, 0}})
			},
		}))

		w := &captureRTCPWriter{}
		_, err := c.BindRTCPWriter(w).Write(pli, nil)
		require.NoError(t, err)
		require.Len(t, w.batches, 1)
		assert.Equal(t, pli, w.batches[0])
	})
}

func TestBindRTCPReader(t *testing.T) {
	c, reg := newTestInterceptor(t)
	dropPLI := &rtpchain.Funcs{
		IncomingRTCP: func(pkt rtpchain.RTCPPacket) rtpchain.RTCPResult {
			pkts, err := pkt.Packets()
			if err == nil {
				if _, isPLI := pkts[0].(*rtcp.PictureLossIndication); isPLI {
					return rtpchain.DropRTCP()
				}
			}
			return rtpchain.Keep(pkt)
		},
	}
	require.NoError(t, reg.Add(dropPLI))

	rr := testutil.ReceiverReport(5, 6)
	q := &queueReader{packets: [][]byte{
		testutil.PLI(1, 2).Data,
		rr.Data,
	}}
	reader := c.BindRTCPReader(q)

	buf := make([]byte, 1500)
	n, _, err := reader.Read(buf, nil)
	require.NoError(t, err)
	assert.Equal(t, rr.Data, buf[:n])

	_, _, err = reader.Read(buf, nil)
	assert.ErrorIs(t, err, io.EOF)
}

func TestBindRTCPReader_Rewrite(t *testing.T) {
	c, reg := newTestInterceptor(t)
	rr := testutil.ReceiverReport(5, 6)
	require.NoError(t, reg.Add(&rtpchain.Funcs{
		IncomingRTCP: func(rtpchain.RTCPPacket) rtpchain.RTCPResult { return rtpchain.Keep(rr) },
	}))

	pli := testutil.PLI(1, 2).Data
	reader := c.BindRTCPReader(&queueReader{packets: [][]byte{pli, pli}})

	buf := make([]byte, 1500)
	n, _, err := reader.Read(buf, nil)
	require.NoError(t, err)
	assert.Equal(t, rr.Data, buf[:n])

	_, _, err = reader.Read(make([]byte, len(pli)), nil)
	assert.ErrorIs(t, err, io.ErrShortBuffer, "rewritten packet is larger than the buffer")
}

func TestToStreamInfo(t *testing.T) {
	assert.Nil(t, toStreamInfo(nil))

	info := toStreamInfo(&interceptor.StreamInfo{
		SSRC: 1,
		RTPHeaderExtensions: []interceptor.RTPHeaderExtension{
			{URI: "ok", ID: 200},
			{URI: "zero", ID: 0},
			{URI: "too-big", ID: 256},
		},
	})
	assert.Equal(t, []rtpchain.HeaderExtension{{ID: 200, URI: "ok"}}, info.HeaderExtensions)
}
