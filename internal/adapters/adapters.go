// Package adapters translates module-specific events into the engine's
// generic review parameters. No scoring logic lives here: the adapters map
// fields, occasionally do module-specific side work (tagging, the
// pronunciation EMA), and hand off to ProcessReview.
package adapters

import (
	"context"
	"fmt"
	"log"

	"github.com/lingua-prep/backend/internal/engine"
	"github.com/lingua-prep/backend/internal/models"
)

// PassingSTTScore is the speech accuracy threshold for a correct
// pronunciation review.
const PassingSTTScore = 70.0

// Pronunciation EMA coefficients: how much of the previous score survives
// each new sample.
const (
	pronunciationCarry  = 0.7
	pronunciationSample = 0.3
)

type Service struct {
	engine *engine.Service
	store  engine.Store
}

func NewService(eng *engine.Service, store engine.Store) *Service {
	return &Service{engine: eng, store: store}
}

// ── Anki (flashcards) ────────────────────────────────────

// ankiWeights maps ratings 2 and 4 to interval weight overrides. Rating 3
// ("good") takes the default multiple-choice weight; rating 1 is incorrect
// and needs no weight at all.
var ankiWeights = map[int]float64{
	2: 0.5, // hard: correct, but earn less spacing
	4: 1.2, // easy: stretch the interval
}

func (s *Service) ProcessAnkiReview(ctx context.Context, req models.AnkiReviewRequest) (*models.WordKnowledgeRecord, error) {
	if req.Rating < 1 || req.Rating > 4 {
		return nil, fmt.Errorf("anki rating must be 1-4, got %d", req.Rating)
	}

	params := models.ReviewParams{
		UserID:         req.UserID,
		WordID:         req.WordID,
		ModuleSource:   models.ModuleAnki,
		InputMode:      models.InputMultipleChoice,
		Correct:        req.Rating > 1,
		ResponseTimeMs: req.ResponseTimeMs,
		SessionID:      req.SessionID,
		EventID:        req.EventID,
	}
	if w, ok := ankiWeights[req.Rating]; ok {
		weight := w
		params.IntervalWeightOverride = &weight
	}

	return s.engine.ProcessReview(ctx, params)
}

// ── Cloze ────────────────────────────────────────────────

func (s *Service) ProcessClozeReview(ctx context.Context, req models.ClozeReviewRequest) (*models.WordKnowledgeRecord, error) {
	var mode models.InputMode
	switch req.AnswerType {
	case models.ClozeTyped:
		mode = models.InputTyping
	case models.ClozeMultipleChoice:
		mode = models.InputMultipleChoice
	default:
		return nil, fmt.Errorf("invalid cloze answer type %q", req.AnswerType)
	}

	return s.engine.ProcessReview(ctx, models.ReviewParams{
		UserID:         req.UserID,
		WordID:         req.WordID,
		ModuleSource:   models.ModuleCloze,
		InputMode:      mode,
		Correct:        req.Correct,
		ResponseTimeMs: req.ResponseTimeMs,
		SessionID:      req.SessionID,
		EventID:        req.EventID,
	})
}

// ── Conjugation ──────────────────────────────────────────

// ProcessConjugationReview tags the word with the drilled grammar concept
// before the review runs, so the mastery update on this same call applies to
// the right concept.
func (s *Service) ProcessConjugationReview(ctx context.Context, req models.ConjugationReviewRequest) (*models.WordKnowledgeRecord, error) {
	if req.ConceptTag != "" {
		if err := s.store.AddWordTag(ctx, req.UserID, req.WordID, req.ConceptTag); err != nil {
			return nil, fmt.Errorf("tag word with concept: %w", err)
		}
	}

	return s.engine.ProcessReview(ctx, models.ReviewParams{
		UserID:         req.UserID,
		WordID:         req.WordID,
		ModuleSource:   models.ModuleConjugation,
		InputMode:      models.InputTyping,
		Correct:        req.Correct,
		ResponseTimeMs: req.ResponseTimeMs,
		SessionID:      req.SessionID,
		EventID:        req.EventID,
	})
}

// ── Pronunciation ────────────────────────────────────────

// ProcessPronunciationReview applies an exponential moving average of the
// raw 0-100 STT score directly to the pronunciation dimension before the
// review's own boolean delta, so the two adjustments stack. The EMA gives
// finer-grained tracking than correct/incorrect alone.
func (s *Service) ProcessPronunciationReview(ctx context.Context, req models.PronunciationReviewRequest) (*models.WordKnowledgeRecord, error) {
	if req.STTScore < 0 || req.STTScore > 100 {
		return nil, fmt.Errorf("stt score must be 0-100, got %v", req.STTScore)
	}

	rec, err := s.store.GetWordRecord(ctx, req.UserID, req.WordID)
	if err != nil {
		return nil, err
	}

	rec.PronunciationScore = engine.Clamp01(
		rec.PronunciationScore*pronunciationCarry + (req.STTScore/100)*pronunciationSample)
	if err := s.store.UpdateWordRecord(ctx, rec); err != nil {
		// The boolean review still carries the signal; the EMA refinement is
		// best-effort under contention.
		log.Printf("[adapters] pronunciation EMA write failed for user %d word %d: %v", req.UserID, req.WordID, err)
	}

	return s.engine.ProcessReview(ctx, models.ReviewParams{
		UserID:         req.UserID,
		WordID:         req.WordID,
		ModuleSource:   models.ModulePronunciation,
		InputMode:      models.InputSpeaking,
		Correct:        req.STTScore >= PassingSTTScore,
		ResponseTimeMs: req.ResponseTimeMs,
		SessionID:      req.SessionID,
		EventID:        req.EventID,
	})
}

// ── Story ────────────────────────────────────────────────

// ProcessStoryEncounter credits a passive word sighting. Seeing a word in
// context is never "wrong": always correct, reading mode, zero response
// time.
func (s *Service) ProcessStoryEncounter(ctx context.Context, req models.StoryEncounterRequest) (*models.WordKnowledgeRecord, error) {
	return s.engine.ProcessReview(ctx, models.ReviewParams{
		UserID:         req.UserID,
		WordID:         req.WordID,
		ModuleSource:   models.ModuleStory,
		InputMode:      models.InputReading,
		Correct:        true,
		ResponseTimeMs: 0,
		SessionID:      req.SessionID,
		EventID:        req.EventID,
	})
}

var storyInteractionModes = map[models.StoryInteractionType]models.InputMode{
	models.StoryFillInBlank:      models.InputTyping,
	models.StoryMultipleChoice:   models.InputMultipleChoice,
	models.StorySpeaking:         models.InputSpeaking,
	models.StoryTappedDefinition: models.InputReading,
	models.StoryHighlight:        models.InputReading,
}

func (s *Service) ProcessStoryInteraction(ctx context.Context, req models.StoryInteractionRequest) (*models.WordKnowledgeRecord, error) {
	mode, ok := storyInteractionModes[req.InteractionType]
	if !ok {
		return nil, fmt.Errorf("invalid story interaction type %q", req.InteractionType)
	}

	return s.engine.ProcessReview(ctx, models.ReviewParams{
		UserID:         req.UserID,
		WordID:         req.WordID,
		ModuleSource:   models.ModuleStory,
		InputMode:      mode,
		Correct:        req.Correct,
		ResponseTimeMs: req.ResponseTimeMs,
		SessionID:      req.SessionID,
		EventID:        req.EventID,
	})
}

// ── Grammar ──────────────────────────────────────────────

// ProcessGrammarLesson awards passive exposure credit to every word the
// completed lesson involved, tagging each with the lesson's concept first.
// Per-word failures are logged and skipped so one missing record doesn't
// void the rest of the lesson.
func (s *Service) ProcessGrammarLesson(ctx context.Context, req models.GrammarLessonRequest) []*models.WordKnowledgeRecord {
	results := make([]*models.WordKnowledgeRecord, 0, len(req.WordIDs))
	for _, wordID := range req.WordIDs {
		if req.ConceptTag != "" {
			if err := s.store.AddWordTag(ctx, req.UserID, wordID, req.ConceptTag); err != nil {
				log.Printf("[adapters] lesson tag failed for user %d word %d: %v", req.UserID, wordID, err)
				continue
			}
		}

		rec, err := s.engine.ProcessReview(ctx, models.ReviewParams{
			UserID:         req.UserID,
			WordID:         wordID,
			ModuleSource:   models.ModuleGrammar,
			InputMode:      models.InputReading,
			Correct:        true,
			ResponseTimeMs: 0,
			SessionID:      req.SessionID,
		})
		if err != nil {
			log.Printf("[adapters] lesson review failed for user %d word %d: %v", req.UserID, wordID, err)
			continue
		}
		results = append(results, rec)
	}
	return results
}

func (s *Service) ProcessGrammarQuiz(ctx context.Context, req models.GrammarQuizRequest) (*models.WordKnowledgeRecord, error) {
	if req.ConceptTag != "" {
		if err := s.store.AddWordTag(ctx, req.UserID, req.WordID, req.ConceptTag); err != nil {
			return nil, fmt.Errorf("tag word with concept: %w", err)
		}
	}

	return s.engine.ProcessReview(ctx, models.ReviewParams{
		UserID:         req.UserID,
		WordID:         req.WordID,
		ModuleSource:   models.ModuleGrammar,
		InputMode:      models.InputTyping,
		Correct:        req.Correct,
		ResponseTimeMs: req.ResponseTimeMs,
		SessionID:      req.SessionID,
		EventID:        req.EventID,
	})
}
