package pion

import (
	"testing"

	"github.com/pion/interceptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
	"github.com/thesyncim/rtpchain/pkg/rtpchain/testutil"
)

func TestNewInterceptorFactory_Defaults(t *testing.T) {
	f, err := NewInterceptorFactory()
	require.NoError(t, err)
	assert.NotNil(t, f.loggers)
	assert.Nil(t, f.filter)
	assert.Empty(t, f.Connections())
}

func TestNewInterceptorFactory_InvalidOptions(t *testing.T) {
	_, err := NewInterceptorFactory(WithStreamFilter(nil))
	assert.Error(t, err)

	_, err = NewInterceptorFactory(WithLoggerFactory(nil))
	assert.Error(t, err)
}

func TestInterceptorFactory_ImplementsInterface(t *testing.T) {
	f, err := NewInterceptorFactory()
	require.NoError(t, err)
	var _ interceptor.Factory = f
	var _ interceptor.Interceptor = &Interceptor{}
}

func TestInterceptorFactory_NewInterceptor(t *testing.T) {
	probe := testutil.NewProbe("seed", nil)
	var seededFor, connected string
	f, err := NewInterceptorFactory(
		WithSeed(func(id string) []rtpchain.Interceptor {
			seededFor = id
			return []rtpchain.Interceptor{probe}
		}),
		WithOnConnection(func(id string, c *Interceptor) {
			connected = id
			assert.Equal(t, 1, c.Registry().Len(), "seeded before the callback")
		}),
	)
	require.NoError(t, err)

	i, err := f.NewInterceptor("pc-1")
	require.NoError(t, err)
	c, ok := i.(*Interceptor)
	require.True(t, ok)

	assert.Equal(t, "pc-1", c.ID())
	assert.Equal(t, "pc-1", seededFor)
	assert.Equal(t, "pc-1", connected)
	assert.Equal(t, []string{"pc-1"}, f.Connections())

	reg, ok := f.Registry("pc-1")
	require.True(t, ok)
	assert.Same(t, probe, reg.Snapshot().At(0))

	p, ok := f.Pipeline("pc-1")
	require.True(t, ok)
	assert.Same(t, reg, p.Registry())
	assert.Contains(t, f.Pipelines(), "pc-1")

	_, err = f.NewInterceptor("pc-1")
	assert.Error(t, err, "duplicate id")

	require.NoError(t, c.Close())
	assert.Empty(t, f.Connections())
	_, ok = f.Registry("pc-1")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())
	assert.NoError(t, c.Close(), "close is idempotent")
}

func TestInterceptorFactory_EmptyIDGetsRandomID(t *testing.T) {
	f, err := NewInterceptorFactory()
	require.NoError(t, err)

	a, err := f.NewInterceptor("")
	require.NoError(t, err)
	b, err := f.NewInterceptor("")
	require.NoError(t, err)

	idA, idB := a.(*Interceptor).ID(), b.(*Interceptor).ID()
	assert.NotEmpty(t, idA)
	assert.NotEqual(t, idA, idB)
	assert.Len(t, f.Connections(), 2)
}

func TestInterceptorFactory_ConnectionsAreIndependent(t *testing.T) {
	f, err := NewInterceptorFactory()
	require.NoError(t, err)

	_, err = f.NewInterceptor("a")
	require.NoError(t, err)
	_, err = f.NewInterceptor("b")
	require.NoError(t, err)

	regA, _ := f.Registry("a")
	regB, _ := f.Registry("b")
	require.NoError(t, regA.Add(testutil.NewProbe("only-a", nil)))

	assert.Equal(t, 1, regA.Len())
	assert.Equal(t, 0, regB.Len())
	assert.Equal(t, []string{"a", "b"}, f.Connections())
}

func TestInterceptorFactory_PipelineOptions(t *testing.T) {
	f, err := NewInterceptorFactory(WithPipelineOptions(rtpchain.WithStrictRTCP()))
	require.NoError(t, err)
	_, err = f.NewInterceptor("pc")
	require.NoError(t, err)

	reg, _ := f.Registry("pc")
	p, _ := f.Pipeline("pc")
	require.NoError(t, reg.Add(&rtpchain.Funcs{
		OutgoingRTCP: func(rtpchain.RTCPPacket) rtpchain.RTCPResult {
			return rtpchain.Keep(rtpchain.RTCPPacket{Data: []byte{0x81, 206, 0, 9, 0, 0, 0, 0}})
		},
	}))

	in := testutil.PLI(1, 2)
	out, ok := p.OutgoingRTCP(in).Get()
	require.True(t, ok)
	assert.True(t, out.Equal(in), "strict RTCP validation applies")
}
