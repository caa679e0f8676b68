package engine

import (
	"math"

	"github.com/lingua-prep/backend/internal/models"
)

// SM-2 ease factor bounds and adjustments.
const (
	MinEaseFactor = 1.3
	MaxEaseFactor = 2.5

	easeFactorGain    = 0.1
	easeFactorPenalty = 0.2
)

// intervalCreditWeights scale the raw scheduling interval by how strong a
// signal the input mode provides. Recognizing a word among four choices earns
// less spacing credit than producing it; passive reading earns the least.
// The same table weights grammar concept mastery updates.
var intervalCreditWeights = map[models.InputMode]float64{
	models.InputMultipleChoice: 0.6,
	models.InputTyping:         1.0,
	models.InputSpeaking:       1.0,
	models.InputReading:        0.3,
}

// IntervalCreditWeight returns the default interval credit weight for an
// input mode.
func IntervalCreditWeight(mode models.InputMode) float64 {
	if w, ok := intervalCreditWeights[mode]; ok {
		return w
	}
	return 1.0
}

// ClampEaseFactor bounds an ease factor to [1.3, 2.5].
func ClampEaseFactor(ef float64) float64 {
	if ef < MinEaseFactor {
		return MinEaseFactor
	}
	if ef > MaxEaseFactor {
		return MaxEaseFactor
	}
	return ef
}

// NextCorrectSchedule computes the scheduling state after a correct review.
// The ease factor is adjusted at the fixed "Good" SM-2 baseline (+0.1,
// clamped), repetitions increment, and the base interval (1 day, then 3,
// then previous × EF) is scaled by the interval credit weight and floored at
// one day.
func NextCorrectSchedule(prevInterval, prevRepetitions int, prevEF, weight float64) (interval, repetitions int, ef float64) {
	ef = ClampEaseFactor(prevEF + easeFactorGain)
	repetitions = prevRepetitions + 1

	var base float64
	switch repetitions {
	case 1:
		base = 1
	case 2:
		base = 3
	default:
		base = float64(prevInterval) * ef
	}

	interval = int(math.Round(base * weight))
	if interval < 1 {
		interval = 1
	}
	return interval, repetitions, ef
}

// NextIncorrectSchedule computes the scheduling state after an incorrect
// review: ease factor drops, repetitions and interval reset. The penalty
// ignores input mode entirely; a miss is an unambiguous signal regardless of
// format.
func NextIncorrectSchedule(prevEF float64) (interval, repetitions int, ef float64) {
	ef = prevEF - easeFactorPenalty
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}
	return 1, 0, ef
}

// ComputeStatus derives the word status from scheduling state. Status is a
// pure function of repetitions and ease factor; it is never stored
// independently of them.
func ComputeStatus(repetitions int, ef float64) models.WordStatus {
	if repetitions >= 8 && ef >= 2.0 {
		return models.StatusMastered
	}
	if repetitions >= 4 {
		return models.StatusKnown
	}
	return models.StatusLearning
}
