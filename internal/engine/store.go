package engine

import (
	"context"
	"errors"

	"github.com/lingua-prep/backend/internal/models"
)

var (
	// ErrWordNotFound means the referenced word has no knowledge record.
	// The engine never creates words from nothing; word existence is an
	// external precondition, so callers must treat this as "cannot review
	// yet", not as a transient failure.
	ErrWordNotFound = errors.New("word record not found")

	// ErrVersionConflict means a concurrent writer updated the record
	// between this call's read and write. The caller may safely retry;
	// event ids make retries idempotent.
	ErrVersionConflict = errors.New("word record version conflict")
)

// Store is the persistence surface the engine requires. The production
// implementation is database.WordStore; tests use an in-memory fake.
type Store interface {
	// GetWordRecord returns the record for (user, word), or ErrWordNotFound.
	GetWordRecord(ctx context.Context, userID, wordID int64) (*models.WordKnowledgeRecord, error)

	// CreateWordRecord inserts a fresh record (status new, zero scores).
	CreateWordRecord(ctx context.Context, rec *models.WordKnowledgeRecord) error

	// UpdateWordRecord persists all mutable fields, guarded by the record's
	// version. Returns ErrVersionConflict when the stored version has moved.
	UpdateWordRecord(ctx context.Context, rec *models.WordKnowledgeRecord) error

	// AppendReviewHistory adds one immutable log entry. Failures here are
	// non-fatal to the review; callers log and continue.
	AppendReviewHistory(ctx context.Context, e *models.ModuleReviewEvent) error

	// FindReviewHistoryByEventID returns the entry with the given event id,
	// or nil when absent. This is the idempotency check.
	FindReviewHistoryByEventID(ctx context.Context, eventID string) (*models.ModuleReviewEvent, error)

	// GetRecentReviewHistory returns up to limit entries for (user, word),
	// most recent first.
	GetRecentReviewHistory(ctx context.Context, userID, wordID int64, limit int) ([]models.ModuleReviewEvent, error)

	// AddWordTag idempotently adds a grammar concept tag to the record.
	AddWordTag(ctx context.Context, userID, wordID int64, tag string) error

	// GetDueWordRecords returns up to limit records due for review,
	// earliest due date first.
	GetDueWordRecords(ctx context.Context, userID int64, limit int) ([]models.WordKnowledgeRecord, error)
}
