package main

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
	"github.com/thesyncim/rtpchain/pkg/rtpchain/interceptors"
)

func TestConfigValidate(t *testing.T) {
	valid := config{duration: time.Second, passers: 1, churn: time.Millisecond, lossEvery: 50}
	require.NoError(t, valid.validate())

	tests := []struct {
		name   string
		modify func(*config)
	}{
		{"no passers", func(c *config) { c.passers = 0 }},
		{"zero churn", func(c *config) { c.churn = 0 }},
		{"zero loss interval", func(c *config) { c.lossEvery = 0 }},
		{"loss interval overflows uint16", func(c *config) { c.lossEvery = math.MaxUint16 + 1 }},
		{"loss interval far out of range", func(c *config) { c.lossEvery = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.modify(&c)
			assert.Error(t, c.validate())
		})
	}

	maxed := valid
	maxed.lossEvery = math.MaxUint16
	assert.NoError(t, maxed.validate())
}

func TestRunSoakTestRejectsBadConfig(t *testing.T) {
	_, err := runSoakTest(context.Background(), config{passers: 1, churn: time.Millisecond, lossEvery: 70000})
	assert.Error(t, err)
}

func TestVerifyFailsOnCorruptedPackets(t *testing.T) {
	reg := rtpchain.NewRegistry()
	p, err := rtpchain.NewPipeline(reg)
	require.NoError(t, err)
	loss, err := interceptors.NewLossSimulator(10)
	require.NoError(t, err)

	bad := verify(SoakResult{Corrupted: 3}, p.Stats(), interceptors.NewMeter(), loss, 0)
	require.Len(t, bad, 1)
	assert.Contains(t, bad[0], "3 packets")

	assert.Empty(t, verify(SoakResult{}, p.Stats(), interceptors.NewMeter(), loss, 0))
}

func TestRunSoakTestShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping soak in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	result, err := runSoakTest(ctx, config{
		duration:  300 * time.Millisecond,
		passers:   2,
		churn:     time.Millisecond,
		lossEvery: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, "PASS", result.Status, "mismatches: %v", result.Mismatches)
	assert.Greater(t, result.Passes, uint64(0))
	assert.Greater(t, result.Dropped, uint64(0))
	assert.Zero(t, result.Corrupted)
	assert.Greater(t, result.ChainChanges, uint64(0))
}
