package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"voice-assistant-backend/internal/intent"
	"voice-assistant-backend/internal/metrics"
	"voice-assistant-backend/internal/store"
	"voice-assistant-backend/internal/types"
)

func (s *Server) handleProcessVoice(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.metrics.Request(metrics.OutcomeValidationError)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	in, err := decodeVoiceInput(body)
	if err != nil {
		s.metrics.Request(metrics.OutcomeValidationError)
		var schemaErr errSchema
		if errors.As(err, &schemaErr) {
			s.writeError(w, http.StatusUnprocessableEntity, schemaErr.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The upstream call and the store write run to completion even if the
	// caller goes away; the intent timeout is the only deadline.
	ctx := context.WithoutCancel(r.Context())
	resp, err := s.processVoice(ctx, in)
	if err != nil {
		s.writeRelayError(w, err)
		return
	}
	s.metrics.Request(metrics.OutcomeOK)
	s.writeJSON(w, http.StatusOK, resp)
}

// processVoice classifies the text, logs the interaction and returns the reply.
// Nothing is stored when classification fails.
func (s *Server) processVoice(ctx context.Context, in types.VoiceInput) (types.VoiceResponse, error) {
	start := time.Now()
	res, err := s.intent.Classify(ctx, in.Text)
	s.metrics.IntentCall(time.Since(start), err)
	if err != nil {
		return types.VoiceResponse{}, err
	}

	rec := store.Interaction{
		UserID:    in.User(),
		InputText: in.Text,
		Intent:    res.Intent(),
		Response:  res.Reply(),
		Timestamp: s.now().UTC(),
	}
	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		var storeErr *store.Error
		if !errors.As(err, &storeErr) {
			err = &store.Error{Op: "insert", Err: err}
		}
		return types.VoiceResponse{}, err
	}
	s.metrics.Stored(rec.Intent != nil)
	s.log.Debug("interaction stored",
		zap.String("id", id),
		zap.String("user_id", rec.UserID),
		zap.Stringp("intent", rec.Intent),
	)

	return types.VoiceResponse{Response: rec.Response}, nil
}

// writeRelayError maps the intent and store failure classes to HTTP answers.
func (s *Server) writeRelayError(w http.ResponseWriter, err error) {
	var intentErr *intent.Error
	var storeErr *store.Error
	switch {
	case errors.As(err, &intentErr):
		s.metrics.Request(metrics.OutcomeIntentError)
		s.log.Error("intent service error", zap.Int("status", intentErr.Status), zap.Error(err))
		status := intentErr.Status
		if status < 400 {
			status = http.StatusInternalServerError
		}
		s.writeError(w, status, intentErr.Detail)
	case errors.As(err, &storeErr):
		s.metrics.Request(metrics.OutcomeStoreError)
		s.log.Error("database error", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Database error: "+storeErr.Err.Error())
	default:
		s.metrics.Request(metrics.OutcomeIntentError)
		s.log.Error("unexpected relay error", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "An error occurred: "+err.Error())
	}
}
