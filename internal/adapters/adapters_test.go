package adapters

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/lingua-prep/backend/internal/dedup"
	"github.com/lingua-prep/backend/internal/engine"
	"github.com/lingua-prep/backend/internal/events"
	"github.com/lingua-prep/backend/internal/models"
)

// ── In-memory store fake ─────────────────────────────────

type recordKey struct {
	userID int64
	wordID int64
}

type fakeStore struct {
	mu      sync.Mutex
	records map[recordKey]*models.WordKnowledgeRecord
	history []models.ModuleReviewEvent
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[recordKey]*models.WordKnowledgeRecord{}}
}

func (f *fakeStore) put(rec *models.WordKnowledgeRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *rec
	f.records[recordKey{rec.UserID, rec.WordID}] = &clone
}

func (f *fakeStore) GetWordRecord(ctx context.Context, userID, wordID int64) (*models.WordKnowledgeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[recordKey{userID, wordID}]
	if !ok {
		return nil, engine.ErrWordNotFound
	}
	clone := *rec
	clone.Tags = append([]string(nil), rec.Tags...)
	return &clone, nil
}

func (f *fakeStore) CreateWordRecord(ctx context.Context, rec *models.WordKnowledgeRecord) error {
	f.put(rec)
	return nil
}

func (f *fakeStore) UpdateWordRecord(ctx context.Context, rec *models.WordKnowledgeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.records[recordKey{rec.UserID, rec.WordID}]
	if !ok {
		return engine.ErrWordNotFound
	}
	if stored.Version != rec.Version {
		return engine.ErrVersionConflict
	}
	clone := *rec
	clone.Version++
	clone.ModuleHistory = nil
	f.records[recordKey{rec.UserID, rec.WordID}] = &clone
	rec.Version++
	return nil
}

func (f *fakeStore) AppendReviewHistory(ctx context.Context, e *models.ModuleReviewEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	e.ID = f.nextID
	f.history = append(f.history, *e)
	return nil
}

func (f *fakeStore) FindReviewHistoryByEventID(ctx context.Context, eventID string) (*models.ModuleReviewEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.history {
		if f.history[i].EventID == eventID {
			e := f.history[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetRecentReviewHistory(ctx context.Context, userID, wordID int64, limit int) ([]models.ModuleReviewEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ModuleReviewEvent
	for i := len(f.history) - 1; i >= 0 && len(out) < limit; i-- {
		if f.history[i].UserID == userID && f.history[i].WordID == wordID {
			out = append(out, f.history[i])
		}
	}
	return out, nil
}

func (f *fakeStore) AddWordTag(ctx context.Context, userID, wordID int64, tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[recordKey{userID, wordID}]
	if !ok {
		return engine.ErrWordNotFound
	}
	if !rec.HasTag(tag) {
		rec.Tags = append(rec.Tags, tag)
	}
	return nil
}

func (f *fakeStore) GetDueWordRecords(ctx context.Context, userID int64, limit int) ([]models.WordKnowledgeRecord, error) {
	return nil, nil
}

// ── Helpers ──────────────────────────────────────────────

func newTestAdapters(store *fakeStore) *Service {
	eng := engine.NewService(store, dedup.NewMemoryGuard(), events.NewBus(), nil)
	return NewService(eng, store)
}

func seed(store *fakeStore, rec models.WordKnowledgeRecord) {
	now := time.Now().UTC()
	if rec.EaseFactor == 0 {
		rec.EaseFactor = 2.5
	}
	if rec.Interval == 0 {
		rec.Interval = 1
	}
	if rec.Status == "" {
		rec.Status = models.StatusLearning
	}
	rec.DueDate = now
	store.put(&rec)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// ── Anki ─────────────────────────────────────────────────

func TestProcessAnkiReviewEasy(t *testing.T) {
	store := newFakeStore()
	last := time.Now().UTC().Add(-5 * 24 * time.Hour)
	seed(store, models.WordKnowledgeRecord{
		UserID: 1, WordID: 100, TargetWord: "perro",
		Interval: 5, Repetitions: 3, EaseFactor: 2.0,
		ExposureCount: 3, LastReviewed: &last,
	})
	svc := newTestAdapters(store)

	rec, err := svc.ProcessAnkiReview(context.Background(), models.AnkiReviewRequest{
		UserID: 1, WordID: 100, Rating: 4, SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("ProcessAnkiReview: %v", err)
	}

	// EF 2.0 -> 2.1, base 5*2.1 = 10.5, easy override 1.2 -> round(12.6) = 13.
	if rec.Interval != 13 {
		t.Errorf("interval = %d, want 13", rec.Interval)
	}
	if rec.Repetitions != 4 {
		t.Errorf("repetitions = %d, want 4", rec.Repetitions)
	}
	if !approx(rec.EaseFactor, 2.1) {
		t.Errorf("ease factor = %f, want 2.1", rec.EaseFactor)
	}
}

func TestProcessAnkiReviewAgain(t *testing.T) {
	store := newFakeStore()
	seed(store, models.WordKnowledgeRecord{
		UserID: 1, WordID: 100, TargetWord: "perro",
		Interval: 10, Repetitions: 5, EaseFactor: 2.0,
		RecognitionScore: 0.5, ExposureCount: 5,
	})
	svc := newTestAdapters(store)

	rec, err := svc.ProcessAnkiReview(context.Background(), models.AnkiReviewRequest{
		UserID: 1, WordID: 100, Rating: 1, SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("ProcessAnkiReview: %v", err)
	}

	if rec.Repetitions != 0 || rec.Interval != 1 {
		t.Errorf("schedule = %d reps / %d days, want reset to 0/1", rec.Repetitions, rec.Interval)
	}
	if !approx(rec.RecognitionScore, 0.45) {
		t.Errorf("recognition = %f, want 0.45", rec.RecognitionScore)
	}
}

func TestProcessAnkiReviewHardWeight(t *testing.T) {
	store := newFakeStore()
	seed(store, models.WordKnowledgeRecord{
		UserID: 1, WordID: 100, TargetWord: "perro",
		Interval: 10, Repetitions: 5, EaseFactor: 2.0,
		ExposureCount: 5,
	})
	svc := newTestAdapters(store)

	rec, err := svc.ProcessAnkiReview(context.Background(), models.AnkiReviewRequest{
		UserID: 1, WordID: 100, Rating: 2, SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("ProcessAnkiReview: %v", err)
	}

	// Base 10*2.1 = 21, hard override 0.5 -> round(10.5) = 11. Correct, so
	// repetitions still advance.
	if rec.Interval != 11 {
		t.Errorf("interval = %d, want 11", rec.Interval)
	}
	if rec.Repetitions != 6 {
		t.Errorf("repetitions = %d, want 6", rec.Repetitions)
	}
}

func TestProcessAnkiReviewBadRating(t *testing.T) {
	svc := newTestAdapters(newFakeStore())
	if _, err := svc.ProcessAnkiReview(context.Background(), models.AnkiReviewRequest{
		UserID: 1, WordID: 100, Rating: 5,
	}); err == nil {
		t.Fatal("want error for rating 5")
	}
}

// ── Cloze ────────────────────────────────────────────────

func TestProcessClozeReviewModes(t *testing.T) {
	tests := []struct {
		answerType models.ClozeAnswerType
		wantRec    float64
		wantProd   float64
	}{
		{models.ClozeTyped, 0.06, 0.08},
		{models.ClozeMultipleChoice, 0.08, 0.0},
	}

	for _, tt := range tests {
		t.Run(string(tt.answerType), func(t *testing.T) {
			store := newFakeStore()
			seed(store, models.WordKnowledgeRecord{UserID: 1, WordID: 100, TargetWord: "perro"})
			svc := newTestAdapters(store)

			rec, err := svc.ProcessClozeReview(context.Background(), models.ClozeReviewRequest{
				UserID: 1, WordID: 100, AnswerType: tt.answerType, Correct: true, SessionID: "s1",
			})
			if err != nil {
				t.Fatalf("ProcessClozeReview: %v", err)
			}
			if !approx(rec.RecognitionScore, tt.wantRec) {
				t.Errorf("recognition = %f, want %f", rec.RecognitionScore, tt.wantRec)
			}
			if !approx(rec.ProductionScore, tt.wantProd) {
				t.Errorf("production = %f, want %f", rec.ProductionScore, tt.wantProd)
			}
		})
	}
}

func TestProcessClozeReviewBadAnswerType(t *testing.T) {
	svc := newTestAdapters(newFakeStore())
	if _, err := svc.ProcessClozeReview(context.Background(), models.ClozeReviewRequest{
		UserID: 1, WordID: 100, AnswerType: "shouted",
	}); err == nil {
		t.Fatal("want error for unknown answer type")
	}
}

// ── Conjugation ──────────────────────────────────────────

func TestProcessConjugationReviewTags(t *testing.T) {
	store := newFakeStore()
	seed(store, models.WordKnowledgeRecord{UserID: 1, WordID: 100, TargetWord: "hablar"})
	svc := newTestAdapters(store)

	rec, err := svc.ProcessConjugationReview(context.Background(), models.ConjugationReviewRequest{
		UserID: 1, WordID: 100, ConceptTag: "preterite", Correct: true, SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("ProcessConjugationReview: %v", err)
	}

	if !rec.HasTag("preterite") {
		t.Errorf("tags = %v, want preterite present", rec.Tags)
	}
	// Typing mode: production moves.
	if !approx(rec.ProductionScore, 0.08) {
		t.Errorf("production = %f, want 0.08", rec.ProductionScore)
	}
}

func TestProcessConjugationReviewUnknownWord(t *testing.T) {
	svc := newTestAdapters(newFakeStore())
	_, err := svc.ProcessConjugationReview(context.Background(), models.ConjugationReviewRequest{
		UserID: 1, WordID: 100, ConceptTag: "preterite",
	})
	if err == nil {
		t.Fatal("want error when tagging a missing word")
	}
}

// ── Pronunciation ────────────────────────────────────────

func TestProcessPronunciationReviewFailing(t *testing.T) {
	store := newFakeStore()
	seed(store, models.WordKnowledgeRecord{
		UserID: 1, WordID: 100, TargetWord: "perro",
		PronunciationScore: 0.5, ExposureCount: 2,
	})
	svc := newTestAdapters(store)

	rec, err := svc.ProcessPronunciationReview(context.Background(), models.PronunciationReviewRequest{
		UserID: 1, WordID: 100, STTScore: 40, SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("ProcessPronunciationReview: %v", err)
	}

	// EMA first: 0.5*0.7 + 0.4*0.3 = 0.47. Then the incorrect speaking
	// review subtracts 0.05.
	if !approx(rec.PronunciationScore, 0.42) {
		t.Errorf("pronunciation = %f, want 0.42", rec.PronunciationScore)
	}
	if rec.Repetitions != 0 || rec.Interval != 1 {
		t.Errorf("schedule = %d/%d, want failed review reset", rec.Repetitions, rec.Interval)
	}
}

func TestProcessPronunciationReviewPassing(t *testing.T) {
	store := newFakeStore()
	seed(store, models.WordKnowledgeRecord{
		UserID: 1, WordID: 100, TargetWord: "perro",
		PronunciationScore: 0.5, ExposureCount: 2,
	})
	svc := newTestAdapters(store)

	rec, err := svc.ProcessPronunciationReview(context.Background(), models.PronunciationReviewRequest{
		UserID: 1, WordID: 100, STTScore: 70, SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("ProcessPronunciationReview: %v", err)
	}

	// Threshold is inclusive; 70 counts as correct.
	if rec.Repetitions != 1 {
		t.Errorf("repetitions = %d, want 1 (70 is passing)", rec.Repetitions)
	}
	// EMA 0.5*0.7 + 0.7*0.3 = 0.56, then +0.10 pronunciation credit.
	if !approx(rec.PronunciationScore, 0.66) {
		t.Errorf("pronunciation = %f, want 0.66", rec.PronunciationScore)
	}
}

func TestProcessPronunciationReviewBadScore(t *testing.T) {
	svc := newTestAdapters(newFakeStore())
	if _, err := svc.ProcessPronunciationReview(context.Background(), models.PronunciationReviewRequest{
		UserID: 1, WordID: 100, STTScore: 130,
	}); err == nil {
		t.Fatal("want error for out-of-range stt score")
	}
}

// ── Story ────────────────────────────────────────────────

func TestProcessStoryEncounter(t *testing.T) {
	store := newFakeStore()
	seed(store, models.WordKnowledgeRecord{UserID: 1, WordID: 100, TargetWord: "perro"})
	svc := newTestAdapters(store)

	rec, err := svc.ProcessStoryEncounter(context.Background(), models.StoryEncounterRequest{
		UserID: 1, WordID: 100, SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("ProcessStoryEncounter: %v", err)
	}

	if !approx(rec.RecognitionScore, 0.03) {
		t.Errorf("recognition = %f, want 0.03", rec.RecognitionScore)
	}
	if !approx(rec.ContextualUsageScore, 0.06) {
		t.Errorf("contextual = %f, want 0.06", rec.ContextualUsageScore)
	}
	if !approx(rec.ProductionScore, 0.0) {
		t.Errorf("production = %f, want untouched", rec.ProductionScore)
	}
}

func TestProcessStoryInteractionModes(t *testing.T) {
	tests := []struct {
		interaction models.StoryInteractionType
		wantProd    float64
		wantPron    float64
	}{
		{models.StoryFillInBlank, 0.08, 0.0},
		{models.StorySpeaking, 0.04, 0.10},
		{models.StoryTappedDefinition, 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(string(tt.interaction), func(t *testing.T) {
			store := newFakeStore()
			seed(store, models.WordKnowledgeRecord{UserID: 1, WordID: 100, TargetWord: "perro"})
			svc := newTestAdapters(store)

			rec, err := svc.ProcessStoryInteraction(context.Background(), models.StoryInteractionRequest{
				UserID: 1, WordID: 100, InteractionType: tt.interaction, Correct: true, SessionID: "s1",
			})
			if err != nil {
				t.Fatalf("ProcessStoryInteraction: %v", err)
			}
			if !approx(rec.ProductionScore, tt.wantProd) {
				t.Errorf("production = %f, want %f", rec.ProductionScore, tt.wantProd)
			}
			if !approx(rec.PronunciationScore, tt.wantPron) {
				t.Errorf("pronunciation = %f, want %f", rec.PronunciationScore, tt.wantPron)
			}
		})
	}
}

func TestProcessStoryInteractionBadType(t *testing.T) {
	svc := newTestAdapters(newFakeStore())
	if _, err := svc.ProcessStoryInteraction(context.Background(), models.StoryInteractionRequest{
		UserID: 1, WordID: 100, InteractionType: "skimmed",
	}); err == nil {
		t.Fatal("want error for unknown interaction type")
	}
}

// ── Grammar ──────────────────────────────────────────────

func TestProcessGrammarLesson(t *testing.T) {
	store := newFakeStore()
	seed(store, models.WordKnowledgeRecord{UserID: 1, WordID: 100, TargetWord: "hablar"})
	seed(store, models.WordKnowledgeRecord{UserID: 1, WordID: 101, TargetWord: "comer"})
	svc := newTestAdapters(store)

	// Word 999 has no record; the lesson should still credit the others.
	results := svc.ProcessGrammarLesson(context.Background(), models.GrammarLessonRequest{
		UserID: 1, WordIDs: []int64{100, 999, 101}, ConceptTag: "present-tense", SessionID: "s1",
	})

	if len(results) != 2 {
		t.Fatalf("results = %d records, want 2", len(results))
	}
	for _, rec := range results {
		if !rec.HasTag("present-tense") {
			t.Errorf("word %d missing lesson tag", rec.WordID)
		}
		if !approx(rec.RecognitionScore, 0.03) {
			t.Errorf("word %d recognition = %f, want reading credit 0.03", rec.WordID, rec.RecognitionScore)
		}
	}
}

func TestProcessGrammarQuiz(t *testing.T) {
	store := newFakeStore()
	seed(store, models.WordKnowledgeRecord{UserID: 1, WordID: 100, TargetWord: "hablar"})
	svc := newTestAdapters(store)

	rec, err := svc.ProcessGrammarQuiz(context.Background(), models.GrammarQuizRequest{
		UserID: 1, WordID: 100, ConceptTag: "subjunctive", Correct: false, SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("ProcessGrammarQuiz: %v", err)
	}

	if !rec.HasTag("subjunctive") {
		t.Errorf("tags = %v, want subjunctive present", rec.Tags)
	}
	if rec.Repetitions != 0 || rec.Interval != 1 {
		t.Errorf("schedule = %d/%d, want failed-review reset", rec.Repetitions, rec.Interval)
	}
}
