package engine

import (
	"time"

	"github.com/lingua-prep/backend/internal/models"
)

const (
	// Threshold above which a knowledge dimension counts as established.
	establishedThreshold = 0.6

	// Window within which a correct review suppresses re-presentation.
	skipWindow = 2 * time.Hour
)

// brandNewContext is what a module sees for a word with no record yet.
func brandNewContext() *models.WordPresentationContext {
	return &models.WordPresentationContext{
		IsNew:               true,
		SuggestedDifficulty: models.DifficultyScaffold,
	}
}

// derivePresentation computes the presentation policy for a module from the
// current record. guardSkip carries the dedup guard's independent answer to
// "correct review within the skip window"; it is ORed with the
// history-derived answer because the guard may be more current than a stale
// read. This is the single derivation shared by the state reader; nothing
// else re-implements these rules.
func derivePresentation(rec *models.WordKnowledgeRecord, module models.ModuleSource, guardSkip bool, now time.Time) *models.WordPresentationContext {
	pc := &models.WordPresentationContext{
		IsNew:                  rec.ExposureCount == 0,
		RecognitionEstablished: rec.RecognitionScore > establishedThreshold,
		ProductionEstablished:  rec.ProductionScore > establishedThreshold,
		ShouldSkip:             guardSkip,
	}

	startOfToday := now.UTC().Truncate(24 * time.Hour)

	for i := range rec.ModuleHistory {
		e := &rec.ModuleHistory[i]
		if pc.LastReviewedAt == nil || e.Timestamp.After(*pc.LastReviewedAt) {
			ts := e.Timestamp
			mod := e.ModuleSource
			pc.LastReviewedAt = &ts
			pc.LastReviewedModule = &mod
		}
		if e.ModuleSource != module && !e.Timestamp.UTC().Before(startOfToday) {
			pc.ReviewedTodayInOtherModule = true
		}
		// Exclusive boundary: an entry exactly skipWindow old does not skip.
		if e.Correct && now.Sub(e.Timestamp) < skipWindow {
			pc.ShouldSkip = true
		}
	}

	switch {
	case rec.RecognitionScore < 0.3:
		pc.SuggestedDifficulty = models.DifficultyScaffold
	case rec.RecognitionScore >= establishedThreshold && rec.ProductionScore >= establishedThreshold:
		pc.SuggestedDifficulty = models.DifficultyChallenge
	default:
		pc.SuggestedDifficulty = models.DifficultyStandard
	}

	return pc
}
