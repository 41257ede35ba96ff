// Package store implements the story registry. MemoryStore is the
// canonical in-memory contract; SQLiteStore implements the same
// interface for durable storage.
package store

import (
	"context"
	"errors"

	"github.com/storyforge/storyforge/internal/domain"
)

// Sentinel errors surfaced to callers. Neither is retried internally.
var (
	ErrNotFound    = errors.New("story not found")
	ErrDuplicateID = errors.New("story id already exists")
)

// Store is the story registry contract. Implementations must make
// each operation atomic: a concurrent reader observes either the pre-
// or post-mutation state of a story, never a partial update. Updates
// to different stories must not block one another beyond the critical
// section.
type Store interface {
	// Insert stores a new story, assigning an identifier when the
	// story carries none and stamping created_at. Fails with
	// ErrDuplicateID when the identifier is already present.
	Insert(ctx context.Context, story domain.UserStory) (domain.UserStory, error)

	// Get returns a copy of the story, or ErrNotFound.
	Get(ctx context.Context, id string) (domain.UserStory, error)

	// UpdateTestStatus sets the story's test status and refreshes
	// updated_at, returning the updated copy. Fails with ErrNotFound.
	UpdateTestStatus(ctx context.Context, id string, status domain.TestStatus) (domain.UserStory, error)

	// Delete removes the story permanently. Fails with ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns a snapshot of all stories in insertion order.
	List(ctx context.Context) ([]domain.UserStory, error)

	// Count returns the number of stored stories.
	Count(ctx context.Context) (int, error)

	// Close releases any underlying resources.
	Close() error
}
