package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
)

const previewKeyPrefix = "timetable:preview:"

// timetablePreview is a generated but not yet committed run.
type timetablePreview struct {
	RunID        string            `json:"runId"`
	TermID       string            `json:"termId"`
	AcademicYear string            `json:"academicYear"`
	Number       int               `json:"semesterNumber"`
	GeneratedAt  time.Time         `json:"generatedAt"`
	Result       *scheduler.Result `json:"result"`
}

type previewStore interface {
	Save(ctx context.Context, preview timetablePreview) error
	Get(ctx context.Context, runID string) (*timetablePreview, bool, error)
	Delete(ctx context.Context, runID string) error
}

// memoryPreviewStore keeps previews in process. Used when the Redis preview cache is
// disabled; previews are then only visible to the instance that generated them.
type memoryPreviewStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]timetablePreview
}

func newMemoryPreviewStore(ttl time.Duration) *memoryPreviewStore {
	return &memoryPreviewStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]timetablePreview),
	}
}

func (s *memoryPreviewStore) Save(_ context.Context, preview timetablePreview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	s.items[preview.RunID] = preview
	return nil
}

func (s *memoryPreviewStore) Get(_ context.Context, runID string) (*timetablePreview, bool, error) {
	s.mu.RLock()
	preview, ok := s.items[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.now().Sub(preview.GeneratedAt) > s.ttl {
		s.mu.Lock()
		delete(s.items, runID)
		s.mu.Unlock()
		return nil, false, nil
	}
	return &preview, true, nil
}

func (s *memoryPreviewStore) Delete(_ context.Context, runID string) error {
	s.mu.Lock()
	delete(s.items, runID)
	s.mu.Unlock()
	return nil
}

// purgeLocked drops expired previews so abandoned runs do not accumulate.
func (s *memoryPreviewStore) purgeLocked() {
	now := s.now()
	for id, preview := range s.items {
		if now.Sub(preview.GeneratedAt) > s.ttl {
			delete(s.items, id)
		}
	}
}

// cachePreviewStore shares previews between instances through Redis.
type cachePreviewStore struct {
	cache *CacheService
	ttl   time.Duration
}

func (s *cachePreviewStore) Save(ctx context.Context, preview timetablePreview) error {
	return s.cache.Set(ctx, previewKeyPrefix+preview.RunID, preview, s.ttl)
}

func (s *cachePreviewStore) Get(ctx context.Context, runID string) (*timetablePreview, bool, error) {
	var preview timetablePreview
	hit, err := s.cache.Get(ctx, previewKeyPrefix+runID, &preview)
	if err != nil || !hit {
		return nil, false, err
	}
	return &preview, true, nil
}

func (s *cachePreviewStore) Delete(ctx context.Context, runID string) error {
	return s.cache.Delete(ctx, previewKeyPrefix+runID)
}

func newPreviewStore(cache *CacheService, ttl time.Duration) previewStore {
	if cache.Enabled() {
		return &cachePreviewStore{cache: cache, ttl: ttl}
	}
	return newMemoryPreviewStore(ttl)
}
