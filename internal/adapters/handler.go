package adapters

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lingua-prep/backend/internal/engine"
	"github.com/lingua-prep/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) AnkiReview(w http.ResponseWriter, r *http.Request) {
	var req models.AnkiReviewRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.service.ProcessAnkiReview(r.Context(), req)
	respond(w, rec, err)
}

func (h *Handler) ClozeReview(w http.ResponseWriter, r *http.Request) {
	var req models.ClozeReviewRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.service.ProcessClozeReview(r.Context(), req)
	respond(w, rec, err)
}

func (h *Handler) ConjugationReview(w http.ResponseWriter, r *http.Request) {
	var req models.ConjugationReviewRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.service.ProcessConjugationReview(r.Context(), req)
	respond(w, rec, err)
}

func (h *Handler) PronunciationReview(w http.ResponseWriter, r *http.Request) {
	var req models.PronunciationReviewRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.service.ProcessPronunciationReview(r.Context(), req)
	respond(w, rec, err)
}

func (h *Handler) StoryEncounter(w http.ResponseWriter, r *http.Request) {
	var req models.StoryEncounterRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.service.ProcessStoryEncounter(r.Context(), req)
	respond(w, rec, err)
}

func (h *Handler) StoryInteraction(w http.ResponseWriter, r *http.Request) {
	var req models.StoryInteractionRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.service.ProcessStoryInteraction(r.Context(), req)
	respond(w, rec, err)
}

func (h *Handler) GrammarLesson(w http.ResponseWriter, r *http.Request) {
	var req models.GrammarLessonRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.WordIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "word_ids is required"})
		return
	}

	records := h.service.ProcessGrammarLesson(r.Context(), req)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"words_credited": len(records),
		"records":        records,
	})
}

func (h *Handler) GrammarQuiz(w http.ResponseWriter, r *http.Request) {
	var req models.GrammarQuizRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.service.ProcessGrammarQuiz(r.Context(), req)
	respond(w, rec, err)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

func respond(w http.ResponseWriter, rec *models.WordKnowledgeRecord, err error) {
	switch {
	case errors.Is(err, engine.ErrWordNotFound):
		// Not recorded; a retry after creating the word is safe.
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Cannot review a word that has no record yet"})
	case errors.Is(err, engine.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Concurrent update, please retry"})
	case err != nil:
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
