package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"strava-filter/internal/store"
)

// maxWebhookBody bounds a push event payload
const maxWebhookBody = 64 << 10

// Event is a Strava push notification
type Event struct {
	ObjectType     string         `json:"object_type"`
	ObjectID       int64          `json:"object_id"`
	AspectType     string         `json:"aspect_type"`
	OwnerID        int64          `json:"owner_id"`
	SubscriptionID int64          `json:"subscription_id"`
	EventTime      int64          `json:"event_time"`
	Updates        map[string]any `json:"updates"`
}

// Enqueues reports whether the event starts activity processing. Only new
// activities count: our own renames come back as update events.
func (e Event) Enqueues() bool {
	return e.ObjectType == "activity" && e.AspectType == "create"
}

func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge := q.Get("hub.challenge")
	if q.Get("hub.mode") != "subscribe" || challenge == "" {
		writeError(w, http.StatusBadRequest, "invalid subscription request")
		return
	}
	if s.verifyToken == "" || q.Get("hub.verify_token") != s.verifyToken {
		log.Warn().Msg("webhook verification with wrong token")
		writeError(w, http.StatusForbidden, "invalid verify token")
		return
	}

	log.Info().Msg("webhook subscription verified")
	writeJSON(w, http.StatusOK, map[string]string{"hub.challenge": challenge})
}

func (s *Server) handleWebhookEvent(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if s.webhookSecret != "" && !validSignature(payload, r.Header.Get("X-Strava-Signature"), s.webhookSecret) {
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if event.ObjectType == "" || event.ObjectID == 0 || event.AspectType == "" || event.OwnerID == 0 {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	log.Info().
		Int64("athlete_id", event.OwnerID).
		Str("object_type", event.ObjectType).
		Str("aspect", event.AspectType).
		Int64("object_id", event.ObjectID).
		Msg("strava webhook")

	if err := s.recordEvent(r.Context(), event, string(payload)); err != nil {
		log.Error().Err(err).Int64("object_id", event.ObjectID).Msg("recording webhook event")
		writeError(w, http.StatusInternalServerError, "failed to record event")
		return
	}

	// Strava expects a quick 200; processing happens in the worker
	w.WriteHeader(http.StatusOK)
}

func (s *Server) recordEvent(ctx context.Context, event Event, payload string) error {
	_, err := s.store.InsertWebhookEvent(ctx, store.WebhookEvent{
		ObjectID:   event.ObjectID,
		ObjectType: event.ObjectType,
		AspectType: event.AspectType,
		OwnerID:    event.OwnerID,
		RawPayload: payload,
	})
	if err != nil {
		return err
	}

	if !event.Enqueues() {
		return nil
	}
	added, err := s.store.EnqueueActivity(ctx, event.ObjectID, event.OwnerID)
	if err != nil {
		return err
	}
	if !added {
		log.Debug().Int64("activity_id", event.ObjectID).Msg("activity already queued")
	}
	return nil
}

func validSignature(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	expected := mac.Sum(nil)
	received, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, received)
}
