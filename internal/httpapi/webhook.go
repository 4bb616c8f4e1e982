package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/faisolarifin/custom-gateway/internal/apperr"
	"github.com/faisolarifin/custom-gateway/internal/logging"
	"github.com/faisolarifin/custom-gateway/internal/payload"
)

// handleHealth answers the health probe on GET {webhook_path}.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Application is healthy",
	})
}

// handleWebhook processes POST {webhook_path}: classify, forward, and
// translate the result. Unrecognized and unparseable payloads are
// acknowledged with success so the upstream does not re-deliver them.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes()))
	if err != nil {
		s.Logger.Error().Err(err).Msg("failed to read request body")
		s.writeJSON(w, http.StatusBadRequest, statusResponse{StatusCode: "06", StatusDesc: "Bad Request"})
		return
	}

	cid := payload.ExtractRequestID(body)
	log := logging.WithRequest(s.Logger, cid)

	msg := NewWebhookMessage(r, body)
	log.Info().
		Int("bodySize", len(msg.Body)).
		Int("headersCount", len(msg.Headers)).
		Msg("received webhook request")

	if !gjson.ValidBytes(body) {
		log.Error().Msg("failed to parse JSON payload")
		s.Alerter.SendErrorAlert("Failed to parse JSON payload", cid)
		s.writeJSON(w, http.StatusOK, statusResponse{StatusCode: "00", StatusDesc: "Success"})
		return
	}

	// A payload may satisfy both predicates; either one means forward.
	isDR := payload.IsDeliveryReceipt(body)
	isFlow := payload.IsInboundFlow(body)
	if !isDR && !isFlow {
		log.Info().Msg("payload matches neither DR nor inbound flow, ignoring")
		s.writeJSON(w, http.StatusOK, statusResponse{StatusCode: "00", StatusDesc: "Success"})
		return
	}
	if isDR {
		log.Info().Msg("detected DR payload")
	}
	if isFlow {
		log.Info().Msg("detected inbound flow payload")
	}

	result, err := s.Forwarder.Forward(r.Context(), msg.Body, cid, cid)
	if err != nil {
		log.Error().Err(err).Msg("failed to process webhook")
		if apperr.IsAuthentication(err) {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":   "Authentication failed",
				"message": err.Error(),
			})
			return
		}
		s.writeJSON(w, http.StatusInternalServerError, statusResponse{StatusCode: "06", StatusDesc: err.Error()})
		return
	}

	status := result.StatusCode
	if status < 100 || status > 599 {
		status = http.StatusBadGateway
	}
	log.Info().Int("status", status).Msg("webhook processed")

	if json.Valid([]byte(result.Body)) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if _, err := w.Write([]byte(result.Body)); err != nil {
			log.Error().Err(err).Msg("failed to write response body")
		}
		return
	}
	s.writeJSON(w, status, statusResponse{StatusCode: "06", StatusDesc: result.Body})
}
