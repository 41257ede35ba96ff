// Package generate defines the boundary to the text-generation
// collaborator that drafts story content. The engine never generates
// INVEST flags or story text itself; it receives candidates through
// this interface and validates them afterwards.
package generate

import (
	"context"

	"github.com/storyforge/storyforge/internal/domain"
)

// Generator drafts candidate user stories from raw notes. Returned
// stories must arrive with invest_criteria already populated and must
// not exceed maxStories. Implementations own their retry and timeout
// policy; the engine treats a call as a single bounded-latency step.
type Generator interface {
	Generate(ctx context.Context, notes domain.RawNotes, maxStories int) ([]domain.UserStory, error)
}
