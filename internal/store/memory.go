package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storyforge/storyforge/internal/domain"
)

// MemoryStore is the in-memory story registry. It owns the canonical
// copy of every story; callers get clones and mutate only through
// store operations, which are the sole place updated_at is refreshed.
type MemoryStore struct {
	mu      sync.RWMutex
	stories map[string]domain.UserStory
	order   []string

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stories: make(map[string]domain.UserStory),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Tests use this to make
// timestamps deterministic.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Insert stores a new story. An empty identifier gets a fresh UUID;
// a duplicate identifier fails with ErrDuplicateID. The stored copy
// gets created_at stamped, test_status defaulted to not_tested, and
// updated_at cleared.
func (m *MemoryStore) Insert(_ context.Context, story domain.UserStory) (domain.UserStory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if story.ID == "" {
		story.ID = uuid.New().String()
	}
	if _, exists := m.stories[story.ID]; exists {
		return domain.UserStory{}, ErrDuplicateID
	}

	if story.TestStatus == "" {
		story.TestStatus = domain.StatusNotTested
	}
	story.CreatedAt = m.now()
	story.UpdatedAt = nil

	m.stories[story.ID] = story.Clone()
	m.order = append(m.order, story.ID)

	return story, nil
}

// Get returns a copy of the story with the given identifier.
func (m *MemoryStore) Get(_ context.Context, id string) (domain.UserStory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	story, ok := m.stories[id]
	if !ok {
		return domain.UserStory{}, ErrNotFound
	}
	return story.Clone(), nil
}

// UpdateTestStatus sets the story's test status and refreshes
// updated_at. Setting the same status twice is idempotent apart from
// the timestamp, which always reflects the most recent call.
func (m *MemoryStore) UpdateTestStatus(_ context.Context, id string, status domain.TestStatus) (domain.UserStory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	story, ok := m.stories[id]
	if !ok {
		return domain.UserStory{}, ErrNotFound
	}

	story.TestStatus = status
	updated := m.now()
	story.UpdatedAt = &updated
	m.stories[id] = story

	return story.Clone(), nil
}

// Delete removes the story permanently. No soft delete, no versioning.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.stories[id]; !ok {
		return ErrNotFound
	}
	delete(m.stories, id)

	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns a snapshot of all stories in insertion order.
func (m *MemoryStore) List(_ context.Context) ([]domain.UserStory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.UserStory, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.stories[id].Clone())
	}
	return out, nil
}

// Count returns the number of stored stories.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stories), nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
