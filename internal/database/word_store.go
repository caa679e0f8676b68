package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"

	"github.com/lib/pq"

	"github.com/lingua-prep/backend/internal/engine"
	"github.com/lingua-prep/backend/internal/models"
)

// WordStore is the Postgres implementation of engine.Store.
//
// Two of the four knowledge dimensions (production, pronunciation) persist on
// the legacy 0-100 integer scale; the other two persist as 0-1 floats. The
// engine works uniformly in 0-1, so this file is the only place the
// conversion happens.
type WordStore struct {
	db *sql.DB
}

func NewWordStore(db *sql.DB) *WordStore {
	return &WordStore{db: db}
}

const wordRecordColumns = `user_id, word_id, target_word, native_translation,
	interval_days, ease_factor, due_date, repetitions,
	recognition_score, production_score, pronunciation_score, contextual_usage_score,
	exposure_count, tags, status, last_reviewed, version, created_at, updated_at`

// toLegacyScale converts an internal 0-1 score to the stored 0-100 integer.
func toLegacyScale(score float64) int {
	return int(math.Round(score * 100))
}

// fromLegacyScale converts a stored 0-100 integer to the internal 0-1 scale.
func fromLegacyScale(stored int) float64 {
	return float64(stored) / 100
}

func scanWordRecord(row interface{ Scan(...interface{}) error }) (*models.WordKnowledgeRecord, error) {
	var rec models.WordKnowledgeRecord
	var production, pronunciation int
	var lastReviewed sql.NullTime

	err := row.Scan(
		&rec.UserID, &rec.WordID, &rec.TargetWord, &rec.NativeTranslation,
		&rec.Interval, &rec.EaseFactor, &rec.DueDate, &rec.Repetitions,
		&rec.RecognitionScore, &production, &pronunciation, &rec.ContextualUsageScore,
		&rec.ExposureCount, pq.Array(&rec.Tags), &rec.Status, &lastReviewed,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.ProductionScore = fromLegacyScale(production)
	rec.PronunciationScore = fromLegacyScale(pronunciation)
	if lastReviewed.Valid {
		t := lastReviewed.Time
		rec.LastReviewed = &t
	}
	return &rec, nil
}

func (s *WordStore) GetWordRecord(ctx context.Context, userID, wordID int64) (*models.WordKnowledgeRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+wordRecordColumns+` FROM word_records WHERE user_id = $1 AND word_id = $2`,
		userID, wordID,
	)
	rec, err := scanWordRecord(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrWordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get word record: %w", err)
	}
	return rec, nil
}

func (s *WordStore) CreateWordRecord(ctx context.Context, rec *models.WordKnowledgeRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO word_records
		 (user_id, word_id, target_word, native_translation,
		  interval_days, ease_factor, due_date, repetitions,
		  recognition_score, production_score, pronunciation_score, contextual_usage_score,
		  exposure_count, tags, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		rec.UserID, rec.WordID, rec.TargetWord, rec.NativeTranslation,
		rec.Interval, rec.EaseFactor, rec.DueDate, rec.Repetitions,
		rec.RecognitionScore, toLegacyScale(rec.ProductionScore),
		toLegacyScale(rec.PronunciationScore), rec.ContextualUsageScore,
		rec.ExposureCount, pq.Array(rec.Tags), rec.Status,
	)
	if err != nil {
		return fmt.Errorf("create word record: %w", err)
	}
	return nil
}

// UpdateWordRecord writes all mutable fields in one statement, guarded by
// the optimistic version check. Zero rows updated means another writer got
// there first. A best-effort mirror keeps the legacy stats table current.
func (s *WordStore) UpdateWordRecord(ctx context.Context, rec *models.WordKnowledgeRecord) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE word_records SET
		    interval_days = $3, ease_factor = $4, due_date = $5, repetitions = $6,
		    recognition_score = $7, production_score = $8,
		    pronunciation_score = $9, contextual_usage_score = $10,
		    exposure_count = $11, tags = $12, status = $13, last_reviewed = $14,
		    version = version + 1, updated_at = NOW()
		 WHERE user_id = $1 AND word_id = $2 AND version = $15`,
		rec.UserID, rec.WordID,
		rec.Interval, rec.EaseFactor, rec.DueDate, rec.Repetitions,
		rec.RecognitionScore, toLegacyScale(rec.ProductionScore),
		toLegacyScale(rec.PronunciationScore), rec.ContextualUsageScore,
		rec.ExposureCount, pq.Array(rec.Tags), rec.Status, rec.LastReviewed,
		rec.Version,
	)
	if err != nil {
		return fmt.Errorf("update word record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update word record: %w", err)
	}
	if affected == 0 {
		return engine.ErrVersionConflict
	}
	rec.Version++

	s.mirrorLegacyStats(ctx, rec)

	return nil
}

// mirrorLegacyStats keeps the pre-migration stats table in sync for readers
// that still consume it. Best-effort: failures are logged, never surfaced.
func (s *WordStore) mirrorLegacyStats(ctx context.Context, rec *models.WordKnowledgeRecord) {
	learned := rec.Status == models.StatusKnown || rec.Status == models.StatusMastered
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO legacy_word_stats (user_id, word_id, interval_days, ease_factor, repetitions, is_learned, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (user_id, word_id) DO UPDATE SET
		    interval_days = EXCLUDED.interval_days,
		    ease_factor = EXCLUDED.ease_factor,
		    repetitions = EXCLUDED.repetitions,
		    is_learned = EXCLUDED.is_learned,
		    updated_at = NOW()`,
		rec.UserID, rec.WordID, rec.Interval, rec.EaseFactor, rec.Repetitions, learned,
	)
	if err != nil {
		log.Printf("[database] legacy stats mirror failed for user %d word %d: %v", rec.UserID, rec.WordID, err)
	}
}

func (s *WordStore) AppendReviewHistory(ctx context.Context, e *models.ModuleReviewEvent) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO review_history
		 (user_id, word_id, module_source, reviewed_at, correct, response_time_ms, input_mode, session_id, event_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		e.UserID, e.WordID, e.ModuleSource, e.Timestamp, e.Correct,
		e.ResponseTimeMs, e.InputMode, e.SessionID, e.EventID,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("append review history: %w", err)
	}
	return nil
}

func (s *WordStore) FindReviewHistoryByEventID(ctx context.Context, eventID string) (*models.ModuleReviewEvent, error) {
	e, err := scanReviewEvent(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, word_id, module_source, reviewed_at, correct, response_time_ms, input_mode, session_id, event_id
		 FROM review_history WHERE event_id = $1`,
		eventID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find review history by event id: %w", err)
	}
	return e, nil
}

func (s *WordStore) GetRecentReviewHistory(ctx context.Context, userID, wordID int64, limit int) ([]models.ModuleReviewEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, word_id, module_source, reviewed_at, correct, response_time_ms, input_mode, session_id, event_id
		 FROM review_history
		 WHERE user_id = $1 AND word_id = $2
		 ORDER BY reviewed_at DESC, id DESC
		 LIMIT $3`,
		userID, wordID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get recent review history: %w", err)
	}
	defer rows.Close()

	var history []models.ModuleReviewEvent
	for rows.Next() {
		e, err := scanReviewEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review history: %w", err)
		}
		history = append(history, *e)
	}
	return history, rows.Err()
}

func scanReviewEvent(row interface{ Scan(...interface{}) error }) (*models.ModuleReviewEvent, error) {
	var e models.ModuleReviewEvent
	var responseTime sql.NullInt64
	var inputMode sql.NullString

	err := row.Scan(&e.ID, &e.UserID, &e.WordID, &e.ModuleSource, &e.Timestamp,
		&e.Correct, &responseTime, &inputMode, &e.SessionID, &e.EventID)
	if err != nil {
		return nil, err
	}

	if responseTime.Valid {
		ms := int(responseTime.Int64)
		e.ResponseTimeMs = &ms
	}
	if inputMode.Valid {
		m := models.InputMode(inputMode.String)
		e.InputMode = &m
	}
	return &e, nil
}

func (s *WordStore) AddWordTag(ctx context.Context, userID, wordID int64, tag string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE word_records
		 SET tags = array_append(tags, $3), updated_at = NOW()
		 WHERE user_id = $1 AND word_id = $2 AND NOT ($3 = ANY(tags))`,
		userID, wordID, tag,
	)
	if err != nil {
		return fmt.Errorf("add word tag: %w", err)
	}
	return nil
}

func (s *WordStore) GetDueWordRecords(ctx context.Context, userID int64, limit int) ([]models.WordKnowledgeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+wordRecordColumns+` FROM word_records
		 WHERE user_id = $1 AND due_date <= NOW()
		 ORDER BY due_date ASC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get due word records: %w", err)
	}
	defer rows.Close()

	var records []models.WordKnowledgeRecord
	for rows.Next() {
		rec, err := scanWordRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan word record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
