package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/lingua-prep/backend/internal/dedup"
	"github.com/lingua-prep/backend/internal/events"
	"github.com/lingua-prep/backend/internal/models"
)

// historyWindow bounds how much review history a single call loads.
const historyWindow = 50

// MasteryUpdater receives the review outcome for every grammar concept tag
// on the word. Implemented by mastery.Service; injected so tests can observe
// or omit it.
type MasteryUpdater interface {
	UpdateGrammarConceptMastery(ctx context.Context, userID int64, tags []string, correct bool, mode models.InputMode) []string
}

// Service is the unified knowledge engine: the sole writer of word knowledge
// state. Every learning module funnels its signals through ProcessReview and
// reads presentation policy through GetWordStateForModule.
type Service struct {
	store   Store
	guard   dedup.Guard
	bus     *events.Bus
	mastery MasteryUpdater
	locks   *keyedMutex
}

func NewService(store Store, guard dedup.Guard, bus *events.Bus, mastery MasteryUpdater) *Service {
	return &Service{
		store:   store,
		guard:   guard,
		bus:     bus,
		mastery: mastery,
		locks:   newKeyedMutex(),
	}
}

// ── Review Processing ────────────────────────────────────

// ProcessReview reconciles one module review into the word's knowledge
// state: dedupe by event id, decay stale scores, apply the multi-dimensional
// score update, recompute the weighted SM-2 schedule, persist, update
// grammar mastery, mark the guard, and emit wordReviewed. The returned
// record is the canonical post-review state; callers must not re-fetch.
//
// Only ErrWordNotFound and a failed primary persist surface as errors.
// History-append, mastery, and subscriber failures are absorbed and logged.
// There are no retries here: a caller's retry is made safe by the event id.
func (s *Service) ProcessReview(ctx context.Context, p models.ReviewParams) (*models.WordKnowledgeRecord, error) {
	if !models.ValidModuleSources[p.ModuleSource] {
		return nil, fmt.Errorf("invalid module source %q", p.ModuleSource)
	}
	if !models.ValidInputModes[p.InputMode] {
		return nil, fmt.Errorf("invalid input mode %q", p.InputMode)
	}

	now := time.Now().UTC()

	if p.SessionID == "" {
		p.SessionID = uuid.NewString()
	}
	if p.EventID == "" {
		p.EventID = fmt.Sprintf("%d:%d:%s:%s:%d",
			p.UserID, p.WordID, p.ModuleSource, p.SessionID, now.UnixMilli())
	}

	unlock := s.locks.lock(lockKey{p.UserID, p.WordID})
	defer unlock()

	// Idempotency: an already-processed event returns the current persisted
	// state untouched, which makes client retries and at-least-once delivery
	// safe.
	existing, err := s.store.FindReviewHistoryByEventID(ctx, p.EventID)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}
	if existing != nil {
		log.Printf("[engine] duplicate event %s for user %d word %d, returning current state", p.EventID, p.UserID, p.WordID)
		return s.loadRecord(ctx, p.UserID, p.WordID)
	}

	rec, err := s.loadRecord(ctx, p.UserID, p.WordID)
	if err != nil {
		return nil, err
	}

	// Decay before credit: a returning user sees the cost of absence before
	// the benefit of the current review.
	ApplyDecay(rec, now)
	ApplyScoreUpdate(rec, p.InputMode, p.Correct)

	weight := IntervalCreditWeight(p.InputMode)
	if p.IntervalWeightOverride != nil {
		weight = *p.IntervalWeightOverride
	}

	if p.Correct {
		rec.Interval, rec.Repetitions, rec.EaseFactor =
			NextCorrectSchedule(rec.Interval, rec.Repetitions, rec.EaseFactor, weight)
	} else {
		rec.Interval, rec.Repetitions, rec.EaseFactor =
			NextIncorrectSchedule(rec.EaseFactor)
	}
	rec.Status = ComputeStatus(rec.Repetitions, rec.EaseFactor)
	rec.DueDate = now.AddDate(0, 0, rec.Interval)

	rec.ExposureCount++
	rec.LastReviewed = &now
	rec.UpdatedAt = now

	if err := s.store.UpdateWordRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist word record: %w", err)
	}

	entry := models.ModuleReviewEvent{
		UserID:         p.UserID,
		WordID:         p.WordID,
		ModuleSource:   p.ModuleSource,
		Timestamp:      now,
		Correct:        p.Correct,
		ResponseTimeMs: &p.ResponseTimeMs,
		InputMode:      &p.InputMode,
		SessionID:      p.SessionID,
		EventID:        p.EventID,
	}
	if err := s.store.AppendReviewHistory(ctx, &entry); err != nil {
		// Non-fatal: the score update stands even when the log write fails.
		log.Printf("[engine] history append failed for event %s: %v", p.EventID, err)
	} else {
		rec.ModuleHistory = append([]models.ModuleReviewEvent{entry}, rec.ModuleHistory...)
		if len(rec.ModuleHistory) > historyWindow {
			rec.ModuleHistory = rec.ModuleHistory[:historyWindow]
		}
	}

	var updatedTags []string
	if len(rec.Tags) > 0 && s.mastery != nil {
		updatedTags = s.mastery.UpdateGrammarConceptMastery(ctx, p.UserID, rec.Tags, p.Correct, p.InputMode)
	}

	s.guard.MarkReviewed(p.UserID, p.WordID, p.ModuleSource, now, p.Correct)

	s.bus.Emit(models.EventWordReviewed, models.WordReviewedEvent{
		UserID:                 p.UserID,
		WordID:                 p.WordID,
		ModuleSource:           p.ModuleSource,
		InputMode:              p.InputMode,
		Correct:                p.Correct,
		ResponseTimeMs:         p.ResponseTimeMs,
		SessionID:              p.SessionID,
		UpdatedRecord:          rec,
		GrammarConceptsUpdated: updatedTags,
		Timestamp:              now,
	})

	return rec, nil
}

// loadRecord fetches the record plus its bounded recent history window.
func (s *Service) loadRecord(ctx context.Context, userID, wordID int64) (*models.WordKnowledgeRecord, error) {
	rec, err := s.store.GetWordRecord(ctx, userID, wordID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.GetRecentReviewHistory(ctx, userID, wordID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("load review history: %w", err)
	}
	rec.ModuleHistory = history
	return rec, nil
}

// ── Cross-Module State Reading ───────────────────────────

// GetWordStateForModule derives the presentation policy a module should
// apply before showing a word. Read-only; a missing record yields the
// brand-new default rather than an error.
func (s *Service) GetWordStateForModule(ctx context.Context, userID, wordID int64, module models.ModuleSource) (*models.WordPresentationContext, error) {
	rec, err := s.store.GetWordRecord(ctx, userID, wordID)
	if errors.Is(err, ErrWordNotFound) {
		return brandNewContext(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load word record: %w", err)
	}

	history, err := s.store.GetRecentReviewHistory(ctx, userID, wordID, historyWindow)
	if err != nil {
		// The guard check below still answers shouldSkip on its own.
		log.Printf("[engine] history read failed for user %d word %d: %v", userID, wordID, err)
	}
	rec.ModuleHistory = history

	guardSkip := s.guard.WasReviewedRecently(userID, wordID, skipWindow)

	return derivePresentation(rec, module, guardSkip, time.Now().UTC()), nil
}

// ── Word Record CRUD (external precondition surface) ─────

// CreateWord registers a fresh word record. The engine itself never creates
// words during review processing; this is the external collaborator's entry
// point.
func (s *Service) CreateWord(ctx context.Context, userID, wordID int64, targetWord, nativeTranslation string) (*models.WordKnowledgeRecord, error) {
	now := time.Now().UTC()
	rec := &models.WordKnowledgeRecord{
		WordID:            wordID,
		UserID:            userID,
		TargetWord:        targetWord,
		NativeTranslation: nativeTranslation,
		Interval:          1,
		EaseFactor:        MaxEaseFactor,
		DueDate:           now,
		Status:            models.StatusNew,
		Tags:              []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateWordRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("create word record: %w", err)
	}
	return rec, nil
}

// GetWord returns a record with its recent history.
func (s *Service) GetWord(ctx context.Context, userID, wordID int64) (*models.WordKnowledgeRecord, error) {
	return s.loadRecord(ctx, userID, wordID)
}

// DueWords returns up to limit records due for review, earliest first.
func (s *Service) DueWords(ctx context.Context, userID int64, limit int) ([]models.WordKnowledgeRecord, error) {
	return s.store.GetDueWordRecords(ctx, userID, limit)
}
