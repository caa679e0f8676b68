package models

// ── Module Adapter Requests ──────────────────────────────

// AnkiReviewRequest carries a flashcard self-rating, 1 (again) to 4 (easy).
type AnkiReviewRequest struct {
	UserID         int64  `json:"user_id"`
	WordID         int64  `json:"word_id"`
	Rating         int    `json:"rating"`
	ResponseTimeMs int    `json:"response_time_ms"`
	SessionID      string `json:"session_id"`
	EventID        string `json:"event_id,omitempty"`
}

// ClozeAnswerType distinguishes typed cloze answers from multiple choice.
type ClozeAnswerType string

const (
	ClozeTyped          ClozeAnswerType = "typed"
	ClozeMultipleChoice ClozeAnswerType = "multipleChoice"
)

type ClozeReviewRequest struct {
	UserID         int64           `json:"user_id"`
	WordID         int64           `json:"word_id"`
	AnswerType     ClozeAnswerType `json:"answer_type"`
	Correct        bool            `json:"correct"`
	ResponseTimeMs int             `json:"response_time_ms"`
	SessionID      string          `json:"session_id"`
	EventID        string          `json:"event_id,omitempty"`
}

type ConjugationReviewRequest struct {
	UserID         int64  `json:"user_id"`
	WordID         int64  `json:"word_id"`
	ConceptTag     string `json:"concept_tag"`
	Correct        bool   `json:"correct"`
	ResponseTimeMs int    `json:"response_time_ms"`
	SessionID      string `json:"session_id"`
	EventID        string `json:"event_id,omitempty"`
}

// PronunciationReviewRequest carries a raw speech-to-text accuracy score on
// the 0-100 scale.
type PronunciationReviewRequest struct {
	UserID         int64   `json:"user_id"`
	WordID         int64   `json:"word_id"`
	STTScore       float64 `json:"stt_score"`
	ResponseTimeMs int     `json:"response_time_ms"`
	SessionID      string  `json:"session_id"`
	EventID        string  `json:"event_id,omitempty"`
}

// StoryInteractionType is what the reader did with a word inside a story.
type StoryInteractionType string

const (
	StoryFillInBlank      StoryInteractionType = "fillInBlank"
	StoryMultipleChoice   StoryInteractionType = "multipleChoice"
	StorySpeaking         StoryInteractionType = "speaking"
	StoryTappedDefinition StoryInteractionType = "tappedDefinition"
	StoryHighlight        StoryInteractionType = "highlight"
)

// StoryEncounterRequest is a passive sighting of a word while reading.
type StoryEncounterRequest struct {
	UserID    int64  `json:"user_id"`
	WordID    int64  `json:"word_id"`
	SessionID string `json:"session_id"`
	EventID   string `json:"event_id,omitempty"`
}

// StoryInteractionRequest is an active in-story exercise on a word.
type StoryInteractionRequest struct {
	UserID          int64                `json:"user_id"`
	WordID          int64                `json:"word_id"`
	InteractionType StoryInteractionType `json:"interaction_type"`
	Correct         bool                 `json:"correct"`
	ResponseTimeMs  int                  `json:"response_time_ms"`
	SessionID       string               `json:"session_id"`
	EventID         string               `json:"event_id,omitempty"`
}

// GrammarLessonRequest credits passive exposure for every word a completed
// lesson involved, and tags each with the lesson's concept.
type GrammarLessonRequest struct {
	UserID     int64   `json:"user_id"`
	WordIDs    []int64 `json:"word_ids"`
	ConceptTag string  `json:"concept_tag"`
	SessionID  string  `json:"session_id"`
}

type GrammarQuizRequest struct {
	UserID         int64  `json:"user_id"`
	WordID         int64  `json:"word_id"`
	ConceptTag     string `json:"concept_tag"`
	Correct        bool   `json:"correct"`
	ResponseTimeMs int    `json:"response_time_ms"`
	SessionID      string `json:"session_id"`
	EventID        string `json:"event_id,omitempty"`
}

// ── Engine Surface Requests ──────────────────────────────

type CreateWordRequest struct {
	UserID            int64  `json:"user_id"`
	WordID            int64  `json:"word_id"`
	TargetWord        string `json:"target_word"`
	NativeTranslation string `json:"native_translation"`
}
