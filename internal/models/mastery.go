package models

import "time"

// GrammarConceptMastery is the aggregate confidence for one grammar concept,
// one row per (user, concept tag). Updated by a weighted moving average on
// every tagged review, so it swings hard early and stabilizes as exposure
// grows.
type GrammarConceptMastery struct {
	UserID        int64     `json:"user_id"`
	ConceptTag    string    `json:"concept_tag"`
	MasteryScore  float64   `json:"mastery_score"`
	ExposureCount int       `json:"exposure_count"`
	LastUpdated   time.Time `json:"last_updated"`
}
