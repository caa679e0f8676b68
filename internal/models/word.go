package models

import "time"

// ── Enums ────────────────────────────────────────────────

// ModuleSource identifies which learning activity generated a review.
type ModuleSource string

const (
	ModuleStory         ModuleSource = "story"
	ModuleAnki          ModuleSource = "anki"
	ModuleCloze         ModuleSource = "cloze"
	ModuleConjugation   ModuleSource = "conjugation"
	ModulePronunciation ModuleSource = "pronunciation"
	ModuleGrammar       ModuleSource = "grammar"
)

var ValidModuleSources = map[ModuleSource]bool{
	ModuleStory:         true,
	ModuleAnki:          true,
	ModuleCloze:         true,
	ModuleConjugation:   true,
	ModulePronunciation: true,
	ModuleGrammar:       true,
}

// InputMode is the cognitive channel of a review: recognition, production,
// pronunciation, or passive exposure.
type InputMode string

const (
	InputMultipleChoice InputMode = "multipleChoice"
	InputTyping         InputMode = "typing"
	InputSpeaking       InputMode = "speaking"
	InputReading        InputMode = "reading"
)

var ValidInputModes = map[InputMode]bool{
	InputMultipleChoice: true,
	InputTyping:         true,
	InputSpeaking:       true,
	InputReading:        true,
}

// WordStatus is derived from repetitions and ease factor; it is never set
// independently of a scheduling update.
type WordStatus string

const (
	StatusNew      WordStatus = "new"
	StatusLearning WordStatus = "learning"
	StatusKnown    WordStatus = "known"
	StatusMastered WordStatus = "mastered"
)

// SuggestedDifficulty is the presentation policy a module should apply.
type SuggestedDifficulty string

const (
	DifficultyScaffold  SuggestedDifficulty = "scaffold"
	DifficultyStandard  SuggestedDifficulty = "standard"
	DifficultyChallenge SuggestedDifficulty = "challenge"
)

// ── Word Knowledge Record ────────────────────────────────

// WordKnowledgeRecord aggregates everything known about one (user, word)
// pair across all learning modules. It is mutated exclusively by the review
// processor. All four knowledge dimensions are floats in [0,1]; interval is
// at least 1 day; ease factor stays within [1.3, 2.5].
type WordKnowledgeRecord struct {
	WordID            int64  `json:"word_id"`
	UserID            int64  `json:"user_id"`
	TargetWord        string `json:"target_word"`
	NativeTranslation string `json:"native_translation"`

	// Scheduling (SM-2 derived)
	Interval    int        `json:"interval"`
	EaseFactor  float64    `json:"ease_factor"`
	DueDate     time.Time  `json:"due_date"`
	Repetitions int        `json:"repetitions"`

	// Knowledge dimensions, each in [0,1]
	RecognitionScore     float64 `json:"recognition_score"`
	ProductionScore      float64 `json:"production_score"`
	PronunciationScore   float64 `json:"pronunciation_score"`
	ContextualUsageScore float64 `json:"contextual_usage_score"`

	ExposureCount int        `json:"exposure_count"`
	Tags          []string   `json:"tags"`
	Status        WordStatus `json:"status"`
	LastReviewed  *time.Time `json:"last_reviewed,omitempty"`

	// Recent review events, most recent first. Loaded as a bounded window,
	// not the full log.
	ModuleHistory []ModuleReviewEvent `json:"module_history,omitempty"`

	// Optimistic concurrency token; incremented on every store update.
	Version int `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasTag reports whether the record already carries the given grammar tag.
func (r *WordKnowledgeRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
