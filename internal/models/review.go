package models

import "time"

// ── Review History ───────────────────────────────────────

// ModuleReviewEvent is one immutable entry in a word's review log.
type ModuleReviewEvent struct {
	ID             int64        `json:"id"`
	UserID         int64        `json:"user_id"`
	WordID         int64        `json:"word_id"`
	ModuleSource   ModuleSource `json:"module_source"`
	Timestamp      time.Time    `json:"timestamp"`
	Correct        bool         `json:"correct"`
	ResponseTimeMs *int         `json:"response_time_ms,omitempty"`
	InputMode      *InputMode   `json:"input_mode,omitempty"`
	SessionID      string       `json:"session_id"`
	EventID        string       `json:"event_id"`
}

// ── Review Processor Contract ────────────────────────────

// ReviewParams is the generic input every module adapter maps onto.
type ReviewParams struct {
	UserID         int64        `json:"user_id"`
	WordID         int64        `json:"word_id"`
	ModuleSource   ModuleSource `json:"module_source"`
	InputMode      InputMode    `json:"input_mode"`
	Correct        bool         `json:"correct"`
	ResponseTimeMs int          `json:"response_time_ms"`
	SessionID      string       `json:"session_id"`

	// EventID is the idempotency key. Auto-generated when empty.
	EventID string `json:"event_id,omitempty"`

	// IntervalWeightOverride bypasses the input mode's default interval
	// credit weight. Used by the Anki adapter for Hard/Easy ratings.
	IntervalWeightOverride *float64 `json:"interval_weight_override,omitempty"`
}

// ── Event Bus Payload ────────────────────────────────────

// EventWordReviewed is the bus event name for completed reviews.
const EventWordReviewed = "wordReviewed"

// WordReviewedEvent is the payload emitted after every processed review.
type WordReviewedEvent struct {
	UserID                 int64                `json:"user_id"`
	WordID                 int64                `json:"word_id"`
	ModuleSource           ModuleSource         `json:"module_source"`
	InputMode              InputMode            `json:"input_mode"`
	Correct                bool                 `json:"correct"`
	ResponseTimeMs         int                  `json:"response_time_ms"`
	SessionID              string               `json:"session_id"`
	UpdatedRecord          *WordKnowledgeRecord `json:"updated_record"`
	GrammarConceptsUpdated []string             `json:"grammar_concepts_updated"`
	Timestamp              time.Time            `json:"timestamp"`
}
