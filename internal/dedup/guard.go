// Package dedup tracks "was this word just reviewed" without a store
// round-trip. The guard is advisory: the state reader always derives the same
// answer from persisted history as well, so a cold or unavailable guard never
// breaks the skip contract.
package dedup

import (
	"sync"
	"time"

	"github.com/lingua-prep/backend/internal/models"
)

// retention is how long a mark stays queryable.
const retention = 24 * time.Hour

// ReviewMark records the most recent review of one (user, word).
type ReviewMark struct {
	ModuleSource models.ModuleSource
	Timestamp    time.Time
	Correct      bool
}

// Guard is the process-local review tracker. MemoryGuard serves a single
// process; RedisGuard backs the same contract with a shared TTL store for
// multi-instance deployments.
type Guard interface {
	MarkReviewed(userID, wordID int64, module models.ModuleSource, ts time.Time, correct bool)

	// WasReviewedRecently reports whether the most recent mark is within the
	// window and was correct.
	WasReviewedRecently(userID, wordID int64, window time.Duration) bool

	GetLastReview(userID, wordID int64) (ReviewMark, bool)
	GetReviewedWordsToday(userID int64) []int64
	GetWordsReviewedInLastNHours(userID int64, hours int) []int64
	GetModulesReviewedToday(userID int64) []models.ModuleSource

	// Purge drops marks older than the retention period.
	Purge()
}

type wordKey struct {
	UserID int64
	WordID int64
}

type dayUserKey struct {
	Day    string
	UserID int64
}

// MemoryGuard is the single-process Guard: mutex-guarded maps, purged
// periodically by a scheduler job.
type MemoryGuard struct {
	mu    sync.RWMutex
	last  map[wordKey]ReviewMark
	byDay map[dayUserKey]map[int64]ReviewMark
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{
		last:  make(map[wordKey]ReviewMark),
		byDay: make(map[dayUserKey]map[int64]ReviewMark),
	}
}

func dayOf(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}

func (g *MemoryGuard) MarkReviewed(userID, wordID int64, module models.ModuleSource, ts time.Time, correct bool) {
	mark := ReviewMark{ModuleSource: module, Timestamp: ts, Correct: correct}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.last[wordKey{userID, wordID}] = mark

	dk := dayUserKey{dayOf(ts), userID}
	bucket, ok := g.byDay[dk]
	if !ok {
		bucket = make(map[int64]ReviewMark)
		g.byDay[dk] = bucket
	}
	bucket[wordID] = mark
}

func (g *MemoryGuard) WasReviewedRecently(userID, wordID int64, window time.Duration) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	mark, ok := g.last[wordKey{userID, wordID}]
	if !ok || !mark.Correct {
		return false
	}
	return time.Since(mark.Timestamp) < window
}

func (g *MemoryGuard) GetLastReview(userID, wordID int64) (ReviewMark, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	mark, ok := g.last[wordKey{userID, wordID}]
	return mark, ok
}

func (g *MemoryGuard) GetReviewedWordsToday(userID int64) []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	bucket := g.byDay[dayUserKey{dayOf(time.Now()), userID}]
	words := make([]int64, 0, len(bucket))
	for wordID := range bucket {
		words = append(words, wordID)
	}
	return words
}

func (g *MemoryGuard) GetWordsReviewedInLastNHours(userID int64, hours int) []int64 {
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	g.mu.RLock()
	defer g.mu.RUnlock()

	var words []int64
	for key, mark := range g.last {
		if key.UserID == userID && mark.Timestamp.After(cutoff) {
			words = append(words, key.WordID)
		}
	}
	return words
}

func (g *MemoryGuard) GetModulesReviewedToday(userID int64) []models.ModuleSource {
	g.mu.RLock()
	defer g.mu.RUnlock()

	bucket := g.byDay[dayUserKey{dayOf(time.Now()), userID}]
	seen := make(map[models.ModuleSource]bool)
	var modules []models.ModuleSource
	for _, mark := range bucket {
		if !seen[mark.ModuleSource] {
			seen[mark.ModuleSource] = true
			modules = append(modules, mark.ModuleSource)
		}
	}
	return modules
}

func (g *MemoryGuard) Purge() {
	now := time.Now()
	today := dayOf(now)
	yesterday := dayOf(now.Add(-retention))

	g.mu.Lock()
	defer g.mu.Unlock()

	for key, mark := range g.last {
		if now.Sub(mark.Timestamp) > retention {
			delete(g.last, key)
		}
	}
	for dk := range g.byDay {
		if dk.Day != today && dk.Day != yesterday {
			delete(g.byDay, dk)
		}
	}
}
