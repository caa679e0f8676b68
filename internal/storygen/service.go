package storygen

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lingua-prep/backend/internal/events"
	"github.com/lingua-prep/backend/internal/models"
)

const (
	// How many recently reviewed words to keep per user.
	recentWordCap = 20

	// How many of the weakest grammar concepts a story targets.
	weakConceptCap = 3

	weakConceptThreshold = 0.6
)

// ConceptLister supplies a user's grammar concept masteries, weakest first.
// Implemented by mastery.Service.
type ConceptLister interface {
	ListForUser(ctx context.Context, userID int64) ([]models.GrammarConceptMastery, error)
}

// Story is a generated practice story and what went into it.
type Story struct {
	Content          string    `json:"content"`
	WordsUsed        []string  `json:"words_used"`
	ConceptsTargeted []string  `json:"concepts_targeted"`
	Model            string    `json:"model"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// Service listens for completed reviews and generates practice stories from
// each user's recently reviewed vocabulary, favoring their weakest grammar
// concepts.
type Service struct {
	llm      LLMClient
	model    string
	concepts ConceptLister

	mu     sync.Mutex
	recent map[int64][]string
}

func NewService(llm LLMClient, model string, concepts ConceptLister) *Service {
	return &Service{
		llm:      llm,
		model:    model,
		concepts: concepts,
		recent:   make(map[int64][]string),
	}
}

// SubscribeTo registers the service as a wordReviewed consumer.
func (s *Service) SubscribeTo(bus *events.Bus) {
	bus.Subscribe(models.EventWordReviewed, s.handleWordReviewed)
}

// handleWordReviewed runs on the bus's dispatch goroutine; it must stay
// cheap and never block.
func (s *Service) handleWordReviewed(payload interface{}) {
	ev, ok := payload.(models.WordReviewedEvent)
	if !ok || ev.UpdatedRecord == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	words := s.recent[ev.UserID]
	for _, w := range words {
		if w == ev.UpdatedRecord.TargetWord {
			return // already queued for the next story
		}
	}
	words = append(words, ev.UpdatedRecord.TargetWord)
	if len(words) > recentWordCap {
		words = words[len(words)-recentWordCap:]
	}
	s.recent[ev.UserID] = words
}

// RecentWords returns the words queued for a user's next story.
func (s *Service) RecentWords(userID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.recent[userID]...)
}

// GenerateStory produces a practice story from the user's recently reviewed
// words and weakest grammar concepts.
func (s *Service) GenerateStory(ctx context.Context, userID int64) (*Story, error) {
	words := s.RecentWords(userID)
	if len(words) == 0 {
		return nil, fmt.Errorf("no recently reviewed words for user %d", userID)
	}

	var weak []string
	if s.concepts != nil {
		masteries, err := s.concepts.ListForUser(ctx, userID)
		if err != nil {
			// A story without concept targeting is still a story.
			log.Printf("[storygen] concept lookup failed for user %d: %v", userID, err)
		}
		for _, m := range masteries {
			if m.MasteryScore < weakConceptThreshold && len(weak) < weakConceptCap {
				weak = append(weak, m.ConceptTag)
			}
		}
	}

	resp, err := s.llm.Generate(ctx, StorySystemPrompt(), BuildStoryPrompt(words, weak))
	if err != nil {
		return nil, fmt.Errorf("generate story: %w", err)
	}

	return &Story{
		Content:          resp.Content,
		WordsUsed:        words,
		ConceptsTargeted: weak,
		Model:            s.model,
		GeneratedAt:      time.Now().UTC(),
	}, nil
}
