package server

import (
	"encoding/json"
	"net/http"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
	"github.com/thesyncim/rtpchain/pkg/rtpchain/interceptors"
	rtpchainpion "github.com/thesyncim/rtpchain/pkg/rtpchain/pion"
)

// ConnectionStats is the /stats view of one intercepted connection.
type ConnectionStats struct {
	ID          string                         `json:"id"`
	Enabled     bool                           `json:"enabled"`
	ChainLength int                            `json:"chain_length"`
	Events      map[string]rtpchain.EventStats `json:"events"`
	Streams     []rtpchainpion.StreamStatus    `json:"streams"`
	Meter       []interceptors.StreamStats     `json:"meter,omitempty"`
}

// Stats returns the state of every live connection, ordered by id.
func (s *Server) Stats() []ConnectionStats {
	ids := s.pion.Connections()
	out := make([]ConnectionStats, 0, len(ids))
	for _, id := range ids {
		c, ok := s.pion.Connection(id)
		if !ok {
			continue
		}

		p := c.Pipeline()
		cs := ConnectionStats{
			ID:          id,
			Enabled:     p.Enabled(),
			ChainLength: c.Registry().Len(),
			Events:      make(map[string]rtpchain.EventStats, len(rtpchain.Events)),
			Streams:     c.Streams(),
		}
		for ev, st := range p.Stats() {
			cs.Events[ev.String()] = st
		}
		if m := findMeter(c.Registry().Snapshot()); m != nil {
			cs.Meter = m.All()
		}
		out = append(out, cs)
	}
	return out
}

func findMeter(chain rtpchain.Chain) *interceptors.Meter {
	for _, i := range chain.All() {
		if m, ok := i.(*interceptors.Meter); ok {
			return m
		}
	}
	return nil
}

// HandleStats serves Stats as JSON.
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Stats()); err != nil {
		s.log.WithError(err).Warn("failed to write stats")
	}
}
