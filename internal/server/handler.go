package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/rode/internal/lang"
	"codeberg.org/snonux/rode/internal/translation"
)

// maxBodyBytes bounds the request body; a single word never comes close.
const maxBodyBytes = 16 << 10

// Translator is the business logic behind the translate endpoint
type Translator interface {
	TranslateWord(ctx context.Context, word string) (*translation.Result, error)
}

type translateRequest struct {
	Word *string `json:"word"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Handler serves the translation endpoint
type Handler struct {
	translator Translator
	pair       lang.Pair
}

// NewHandler creates a new handler for the given language pair
func NewHandler(translator Translator, pair lang.Pair) *Handler {
	return &Handler{translator: translator, pair: pair.Normalized()}
}

// TranslatePath returns the endpoint path, e.g. /translate-ro-de.
func (h *Handler) TranslatePath() string {
	return "/translate-" + h.pair.Slug("-")
}

// Translate handles POST {"word": "..."}.
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}

	if req.Word == nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "field required: word"})
		return
	}

	result, err := h.translator.TranslateWord(r.Context(), *req.Word)

	var upstream *translation.UpstreamError

	switch {
	case err == nil:
		log.Info().
			Str("request_id", RequestID(r.Context())).
			Str("word", result.Input).
			Str("output_word", result.OutputWord).
			Str("strategy", string(result.Strategy)).
			Msg("Translated")

		writeJSON(w, http.StatusOK, result)

	case errors.Is(err, context.Canceled):
		// The client is gone; nobody reads the response.
		log.Debug().Str("request_id", RequestID(r.Context())).Msg("Client canceled translation")

	case errors.Is(err, translation.ErrEmptyWord):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})

	case errors.As(err, &upstream):
		log.Warn().
			Str("request_id", RequestID(r.Context())).
			Str("word", *req.Word).
			Str("stage", string(upstream.Stage)).
			Err(err).
			Msg("Upstream translation failed")

		writeJSON(w, http.StatusBadGateway, errorResponse{Detail: upstream.Message})

	default:
		log.Error().Str("request_id", RequestID(r.Context())).Err(err).Msg("Translation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to write response body")
	}
}
