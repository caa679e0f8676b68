package engine

import (
	"math"
	"time"

	"github.com/lingua-prep/backend/internal/models"
)

// scoreDelta is the per-dimension credit a correct review earns.
type scoreDelta struct {
	Recognition   float64
	Production    float64
	Pronunciation float64
	Contextual    float64
}

// correctDeltas maps each input mode to the knowledge credit it provides.
// A multiple-choice hit says something about recognition but nothing about
// production; speaking credits pronunciation most heavily; reading is the
// weakest signal but the only one that earns contextual usage.
var correctDeltas = map[models.InputMode]scoreDelta{
	models.InputMultipleChoice: {Recognition: 0.08},
	models.InputTyping:         {Recognition: 0.06, Production: 0.08},
	models.InputSpeaking:       {Recognition: 0.04, Production: 0.04, Pronunciation: 0.10},
	models.InputReading:        {Recognition: 0.03, Contextual: 0.06},
}

const (
	incorrectPenalty = 0.05

	// Scores start decaying after this many days without review.
	decayGraceDays = 30.0
	decayBase      = 0.98
)

// Clamp01 bounds a knowledge score to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ApplyScoreUpdate adjusts the record's four knowledge dimensions for one
// review. On correct, each dimension gains the input mode's fixed delta.
// On incorrect, recognition and production lose a fixed penalty;
// pronunciation is only penalized when the user actually spoke, and
// contextual usage is never penalized.
func ApplyScoreUpdate(rec *models.WordKnowledgeRecord, mode models.InputMode, correct bool) {
	if correct {
		d := correctDeltas[mode]
		rec.RecognitionScore = Clamp01(rec.RecognitionScore + d.Recognition)
		rec.ProductionScore = Clamp01(rec.ProductionScore + d.Production)
		rec.PronunciationScore = Clamp01(rec.PronunciationScore + d.Pronunciation)
		rec.ContextualUsageScore = Clamp01(rec.ContextualUsageScore + d.Contextual)
		return
	}

	rec.RecognitionScore = Clamp01(rec.RecognitionScore - incorrectPenalty)
	rec.ProductionScore = Clamp01(rec.ProductionScore - incorrectPenalty)
	if mode == models.InputSpeaking {
		rec.PronunciationScore = Clamp01(rec.PronunciationScore - incorrectPenalty)
	}
}

// DecayFactor returns the multiplicative decay for a review gap of the given
// length. Gaps of 30 days or less do not decay.
func DecayFactor(daysSinceReview float64) float64 {
	if daysSinceReview <= decayGraceDays {
		return 1.0
	}
	return math.Pow(decayBase, daysSinceReview-decayGraceDays)
}

// ApplyDecay attenuates recognition, production, and contextual usage when
// the word has gone unreviewed past the grace period. Pronunciation is
// exempt: articulation is a motor skill and is modeled as non-decaying.
// Decay runs before any new credit, so a returning user sees the cost of
// absence before the benefit of the current review.
func ApplyDecay(rec *models.WordKnowledgeRecord, now time.Time) {
	if rec.LastReviewed == nil {
		return
	}
	days := now.Sub(*rec.LastReviewed).Hours() / 24
	factor := DecayFactor(days)
	if factor >= 1.0 {
		return
	}
	rec.RecognitionScore = Clamp01(rec.RecognitionScore * factor)
	rec.ProductionScore = Clamp01(rec.ProductionScore * factor)
	rec.ContextualUsageScore = Clamp01(rec.ContextualUsageScore * factor)
}
