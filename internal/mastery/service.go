package mastery

import (
	"context"
	"log"

	"github.com/lingua-prep/backend/internal/engine"
	"github.com/lingua-prep/backend/internal/models"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// UpdateGrammarConceptMastery folds one review outcome into every tagged
// concept. The review weight is the input mode's interval credit weight, so
// a typed answer moves concept mastery more than a multiple-choice one.
// Per-tag store failures are isolated: one tag's failure never prevents the
// other tags in the same call from updating. Returns the tags that updated.
func (s *Service) UpdateGrammarConceptMastery(ctx context.Context, userID int64, tags []string, correct bool, mode models.InputMode) []string {
	if len(tags) == 0 {
		return nil
	}

	weight := engine.IntervalCreditWeight(mode)
	reviewScore := ReviewScore(correct)

	updated := make([]string, 0, len(tags))
	for _, tag := range tags {
		m, err := s.store.GetOrCreateConceptMastery(ctx, userID, tag)
		if err != nil {
			log.Printf("[mastery] get concept %q for user %d: %v", tag, userID, err)
			continue
		}

		newScore := WeightedAverage(m.MasteryScore, m.ExposureCount, reviewScore, weight)
		if err := s.store.UpdateConceptMastery(ctx, userID, tag, newScore, m.ExposureCount+1); err != nil {
			log.Printf("[mastery] update concept %q for user %d: %v", tag, userID, err)
			continue
		}
		updated = append(updated, tag)
	}
	return updated
}

// ListForUser returns a user's concept masteries, weakest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]models.GrammarConceptMastery, error) {
	return s.store.ListConceptMastery(ctx, userID)
}
