package engine

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/lingua-prep/backend/internal/dedup"
	"github.com/lingua-prep/backend/internal/models"
)

type Handler struct {
	service *Service
	guard   dedup.Guard
}

func NewHandler(service *Service, guard dedup.Guard) *Handler {
	return &Handler{service: service, guard: guard}
}

// ProcessReview accepts the generic review parameters directly. Module
// endpoints in the adapters package are the usual entry point; this one
// serves backfills and integration tests.
func (h *Handler) ProcessReview(w http.ResponseWriter, r *http.Request) {
	var params models.ReviewParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	rec, err := h.service.ProcessReview(r.Context(), params)
	if err != nil {
		writeReviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) GetWordState(w http.ResponseWriter, r *http.Request) {
	userID, wordID, ok := pathIDs(w, r)
	if !ok {
		return
	}

	module := models.ModuleSource(r.URL.Query().Get("module"))
	if !models.ValidModuleSources[module] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "module query param must be a valid module source"})
		return
	}

	pc, err := h.service.GetWordStateForModule(r.Context(), userID, wordID, module)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to derive word state"})
		return
	}
	writeJSON(w, http.StatusOK, pc)
}

func (h *Handler) CreateWord(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.TargetWord == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "target_word is required"})
		return
	}

	rec, err := h.service.CreateWord(r.Context(), req.UserID, req.WordID, req.TargetWord, req.NativeTranslation)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create word: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) GetWord(w http.ResponseWriter, r *http.Request) {
	userID, wordID, ok := pathIDs(w, r)
	if !ok {
		return
	}

	rec, err := h.service.GetWord(r.Context(), userID, wordID)
	if errors.Is(err, ErrWordNotFound) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Word not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load word"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) DueWords(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDVar(w, r)
	if !ok {
		return
	}
	limit := intQueryParam(r.URL.Query(), "limit", 20)

	records, err := h.service.DueWords(r.Context(), userID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load due words"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"words": records,
		"count": len(records),
	})
}

// ReviewedToday surfaces the dedup guard's per-user day view. An `hours`
// query param switches to a rolling window instead of the UTC day bucket.
func (h *Handler) ReviewedToday(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDVar(w, r)
	if !ok {
		return
	}

	if hours := intQueryParam(r.URL.Query(), "hours", 0); hours > 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"word_ids": h.guard.GetWordsReviewedInLastNHours(userID, hours),
			"hours":    hours,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"word_ids": h.guard.GetReviewedWordsToday(userID),
		"modules":  h.guard.GetModulesReviewedToday(userID),
	})
}

func writeReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrWordNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Cannot review a word that has no record yet"})
	case errors.Is(err, ErrVersionConflict):
		// Retry-safe: resubmitting with the same event id is idempotent.
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Concurrent update, please retry"})
	default:
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Review failed: " + err.Error()})
	}
}

func pathIDs(w http.ResponseWriter, r *http.Request) (userID, wordID int64, ok bool) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseInt(vars["userID"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid user id"})
		return 0, 0, false
	}
	wordID, err = strconv.ParseInt(vars["wordID"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid word id"})
		return 0, 0, false
	}
	return userID, wordID, true
}

func userIDVar(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(mux.Vars(r)["userID"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid user id"})
		return 0, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}
