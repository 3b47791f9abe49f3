package interceptors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
	"github.com/thesyncim/rtpchain/pkg/rtpchain/testutil"
)

func TestNewGain(t *testing.T) {
	tests := []struct {
		factor float64
		ok     bool
	}{
		{0, true},
		{1, true},
		{MaxGain, true},
		{-0.1, false},
		{4.01, false},
	}
	for _, tt := range tests {
		g, err := NewGain(tt.factor)
		if tt.ok {
			require.NoError(t, err)
			assert.Equal(t, tt.factor, g.Factor())
		} else {
			assert.Error(t, err, "factor %v", tt.factor)
		}
	}
}

func TestScaleL16(t *testing.T) {
	tests := []struct {
		name   string
		in     []int16
		factor float64
		want   []int16
	}{
		{"unity", []int16{1, -1, 1000}, 1, []int16{1, -1, 1000}},
		{"double", []int16{100, -100}, 2, []int16{200, -200}},
		{"half", []int16{100, -101}, 0.5, []int16{50, -50}},
		{"silence", []int16{12345, -12345}, 0, []int16{0, 0}},
		{"clip high", []int16{30000}, 2, []int16{32767}},
		{"clip low", []int16{-30000}, 2, []int16{-32768}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testutil.L16(tt.in...)
			orig := append([]byte(nil), in...)
			out := ScaleL16(in, tt.factor)
			assert.Equal(t, tt.want, testutil.Samples(out))
			assert.Equal(t, orig, in, "input is not modified")
		})
	}

	t.Run("odd trailing byte", func(t *testing.T) {
		in := append(testutil.L16(10), 0x7F)
		out := ScaleL16(in, 2)
		require.Len(t, out, 3)
		assert.Equal(t, []int16{20}, testutil.Samples(out))
		assert.Equal(t, byte(0x7F), out[2])
	})

	t.Run("nil and empty", func(t *testing.T) {
		assert.Nil(t, ScaleL16(nil, 2))
		assert.Empty(t, ScaleL16([]byte{}, 2))
	})
}

func TestGain_BothDirections(t *testing.T) {
	g, err := NewGain(3)
	require.NoError(t, err)

	pkt := testutil.RTP(1, 1, 0)
	pkt.Payload = testutil.L16(1000)

	out, ok := g.InterceptOutgoingRTP(pkt, nil).Get()
	require.True(t, ok)
	assert.Equal(t, []int16{3000}, testutil.Samples(out.Payload))

	out, ok = g.InterceptIncomingRTP(pkt, nil).Get()
	require.True(t, ok)
	assert.Equal(t, []int16{3000}, testutil.Samples(out.Payload))
	assert.Equal(t, []int16{1000}, testutil.Samples(pkt.Payload))

	rr := testutil.ReceiverReport(1, 2)
	rout, ok := g.InterceptIncomingRTCP(rr).Get()
	require.True(t, ok)
	assert.True(t, rout.Equal(rr))

	var _ rtpchain.Interceptor = g
}
