package mastery

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lingua-prep/backend/internal/models"
)

// Store is the persistence surface for concept mastery rows. PGStore is the
// production implementation; tests use an in-memory fake.
type Store interface {
	GetOrCreateConceptMastery(ctx context.Context, userID int64, tag string) (*models.GrammarConceptMastery, error)
	UpdateConceptMastery(ctx context.Context, userID int64, tag string, score float64, exposure int) error
	ListConceptMastery(ctx context.Context, userID int64) ([]models.GrammarConceptMastery, error)
}

type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) GetOrCreateConceptMastery(ctx context.Context, userID int64, tag string) (*models.GrammarConceptMastery, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO concept_mastery (user_id, concept_tag) VALUES ($1, $2)
		 ON CONFLICT (user_id, concept_tag) DO NOTHING`,
		userID, tag,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert concept mastery: %w", err)
	}

	var m models.GrammarConceptMastery
	err = s.db.QueryRowContext(ctx,
		`SELECT user_id, concept_tag, mastery_score, exposure_count, last_updated
		 FROM concept_mastery WHERE user_id = $1 AND concept_tag = $2`,
		userID, tag,
	).Scan(&m.UserID, &m.ConceptTag, &m.MasteryScore, &m.ExposureCount, &m.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("get concept mastery: %w", err)
	}
	return &m, nil
}

func (s *PGStore) UpdateConceptMastery(ctx context.Context, userID int64, tag string, score float64, exposure int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE concept_mastery
		 SET mastery_score = $3, exposure_count = $4, last_updated = NOW()
		 WHERE user_id = $1 AND concept_tag = $2`,
		userID, tag, score, exposure,
	)
	if err != nil {
		return fmt.Errorf("update concept mastery: %w", err)
	}
	return nil
}

func (s *PGStore) ListConceptMastery(ctx context.Context, userID int64) ([]models.GrammarConceptMastery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, concept_tag, mastery_score, exposure_count, last_updated
		 FROM concept_mastery WHERE user_id = $1
		 ORDER BY mastery_score ASC, concept_tag ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list concept mastery: %w", err)
	}
	defer rows.Close()

	var list []models.GrammarConceptMastery
	for rows.Next() {
		var m models.GrammarConceptMastery
		if err := rows.Scan(&m.UserID, &m.ConceptTag, &m.MasteryScore, &m.ExposureCount, &m.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan concept mastery: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
