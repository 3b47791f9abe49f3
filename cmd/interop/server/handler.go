package server

import (
	"encoding/json"
	"net/http"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
)

// HandleOffer answers a browser offer with a receive-only audio connection.
// Incoming audio runs through the rtpchain interceptors before the track
// reader below sees it.
func (s *Server) HandleOffer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		s.log.WithError(err).Warn("failed to decode offer")
		http.Error(w, "Invalid offer", http.StatusBadRequest)
		return
	}

	pc, err := s.api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		s.log.WithError(err).Error("failed to create peer connection")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if _, err := pc.AddTransceiverFromKind(
		webrtc.RTPCodecTypeAudio,
		webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionRecvonly},
	); err != nil {
		s.log.WithError(err).Error("failed to add transceiver")
		_ = pc.Close()
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		entry := s.log.WithFields(logrus.Fields{
			"codec": track.Codec().MimeType,
			"ssrc":  uint32(track.SSRC()),
		})
		for _, ext := range receiver.GetParameters().HeaderExtensions {
			entry.WithFields(logrus.Fields{"id": ext.ID, "uri": ext.URI}).Debug("negotiated header extension")
		}
		entry.Info("received track")

		go func() {
			buf := make([]byte, 1500)
			for {
				if _, _, err := track.Read(buf); err != nil {
					entry.WithError(err).Info("track read ended")
					return
				}
			}
		}()
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.log.WithField("state", state.String()).Info("connection state changed")
		if state == webrtc.PeerConnectionStateFailed || state == webrtc.PeerConnectionStateClosed {
			_ = pc.Close()
		}
	})

	if err := pc.SetRemoteDescription(offer); err != nil {
		s.log.WithError(err).Warn("failed to set remote description")
		_ = pc.Close()
		http.Error(w, "Invalid offer", http.StatusBadRequest)
		return
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		s.log.WithError(err).Error("failed to create answer")
		_ = pc.Close()
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		s.log.WithError(err).Error("failed to set local description")
		_ = pc.Close()
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	<-gatherComplete

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(pc.LocalDescription()); err != nil {
		s.log.WithError(err).Warn("failed to write answer")
	}
}
