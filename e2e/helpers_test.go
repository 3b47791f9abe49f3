//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/rtpchain/cmd/interop/server"
)

// startServer runs an interop server on a random port until the test ends.
func startServer(t *testing.T, cfg server.Config) (*server.Server, string) {
	t.Helper()

	log, _ := test.NewNullLogger()
	srv, err := server.NewServer(cfg, log)
	require.NoError(t, err)

	addr, err := srv.Start()
	require.NoError(t, err)
	t.Logf("Server started on %s", addr)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Errorf("server shutdown error: %v", err)
		}
	})
	return srv, addr
}

// fetchStats reads /stats over HTTP.
func fetchStats(t *testing.T, addr string) []server.ConnectionStats {
	t.Helper()

	resp, err := http.Get("http://" + addr + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats []server.ConnectionStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	return stats
}

// waitForStats polls /stats until cond holds for some connection.
func waitForStats(t *testing.T, addr string, timeout time.Duration, cond func(server.ConnectionStats) bool) server.ConnectionStats {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, cs := range fetchStats(t, addr) {
			if cond(cs) {
				return cs
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("stats condition not met within %v: %+v", timeout, fetchStats(t, addr))
	return server.ConnectionStats{}
}
