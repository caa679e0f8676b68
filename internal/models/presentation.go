package models

import "time"

// WordPresentationContext is the derived presentation policy a module reads
// before showing a word. Computed fresh from the current record plus the
// dedup guard's in-memory state; never persisted.
type WordPresentationContext struct {
	IsNew                      bool                `json:"is_new"`
	RecognitionEstablished     bool                `json:"recognition_established"`
	ProductionEstablished      bool                `json:"production_established"`
	LastReviewedModule         *ModuleSource       `json:"last_reviewed_module,omitempty"`
	LastReviewedAt             *time.Time          `json:"last_reviewed_at,omitempty"`
	ReviewedTodayInOtherModule bool                `json:"reviewed_today_in_other_module"`
	SuggestedDifficulty        SuggestedDifficulty `json:"suggested_difficulty"`
	ShouldSkip                 bool                `json:"should_skip"`
}

// ErrorResponse is the uniform error body for HTTP handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}
