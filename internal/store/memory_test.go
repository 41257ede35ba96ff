package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge/storyforge/internal/domain"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newFixedStore() (*MemoryStore, *time.Time) {
	current := baseTime
	s := NewMemoryStore()
	s.SetClock(func() time.Time { return current })
	return s, &current
}

func sampleStory() domain.UserStory {
	return domain.UserStory{
		Title:       "As a customer, I want to pay by card so that checkout is quick",
		Description: "Card payments",
		InvestCriteria: domain.InvestCriteria{
			Independent: true, Negotiable: true, Valuable: true, Estimable: true,
		},
		DefinitionOfDone: "Card payments succeed end to end",
		AcceptanceCriteria: []domain.GherkinScenario{
			{
				ScenarioTitle: "Successful payment",
				Steps: []domain.GherkinStep{
					{Keyword: domain.KeywordGiven, Text: "a cart"},
					{Keyword: domain.KeywordWhen, Text: "a valid card is submitted"},
					{Keyword: domain.KeywordThen, Text: "the order is confirmed"},
				},
			},
		},
	}
}

func TestMemoryStore_InsertAssignsIDAndTimestamps(t *testing.T) {
	s, _ := newFixedStore()

	saved, err := s.Insert(context.Background(), sampleStory())

	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, baseTime, saved.CreatedAt)
	assert.Nil(t, saved.UpdatedAt)
	assert.Equal(t, domain.StatusNotTested, saved.TestStatus)
}

func TestMemoryStore_InsertRejectsDuplicateID(t *testing.T) {
	s, _ := newFixedStore()

	story := sampleStory()
	story.ID = "fixed-id"
	_, err := s.Insert(context.Background(), story)
	require.NoError(t, err)

	_, err = s.Insert(context.Background(), story)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestMemoryStore_GetRoundTrip(t *testing.T) {
	s, _ := newFixedStore()

	saved, err := s.Insert(context.Background(), sampleStory())
	require.NoError(t, err)

	fetched, err := s.Get(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, fetched)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	s, _ := newFixedStore()

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateTestStatus(t *testing.T) {
	s, current := newFixedStore()

	saved, err := s.Insert(context.Background(), sampleStory())
	require.NoError(t, err)

	*current = baseTime.Add(time.Minute)
	updated, err := s.UpdateTestStatus(context.Background(), saved.ID, domain.StatusPassed)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPassed, updated.TestStatus)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, baseTime.Add(time.Minute), *updated.UpdatedAt)
}

func TestMemoryStore_UpdateTestStatusIdempotent(t *testing.T) {
	s, current := newFixedStore()

	saved, err := s.Insert(context.Background(), sampleStory())
	require.NoError(t, err)

	*current = baseTime.Add(time.Minute)
	first, err := s.UpdateTestStatus(context.Background(), saved.ID, domain.StatusFailed)
	require.NoError(t, err)

	*current = baseTime.Add(2 * time.Minute)
	second, err := s.UpdateTestStatus(context.Background(), saved.ID, domain.StatusFailed)
	require.NoError(t, err)

	assert.Equal(t, first.TestStatus, second.TestStatus)
	// updated_at always reflects the most recent call
	assert.Equal(t, baseTime.Add(2*time.Minute), *second.UpdatedAt)
	assert.True(t, !second.UpdatedAt.Before(*first.UpdatedAt))
}

func TestMemoryStore_UpdateTestStatusNotFound(t *testing.T) {
	s, _ := newFixedStore()

	_, err := s.UpdateTestStatus(context.Background(), "missing", domain.StatusPassed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	s, _ := newFixedStore()

	saved, err := s.Insert(context.Background(), sampleStory())
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), saved.ID))

	_, err = s.Get(context.Background(), saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(context.Background(), saved.ID), ErrNotFound)
}

func TestMemoryStore_ListInsertionOrder(t *testing.T) {
	s, _ := newFixedStore()

	var ids []string
	for i := 0; i < 3; i++ {
		saved, err := s.Insert(context.Background(), sampleStory())
		require.NoError(t, err)
		ids = append(ids, saved.ID)
	}

	// Deleting the middle story keeps the remaining order stable
	require.NoError(t, s.Delete(context.Background(), ids[1]))

	stories, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, ids[0], stories[0].ID)
	assert.Equal(t, ids[2], stories[1].ID)

	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryStore_CallersCannotMutateCanonicalCopy(t *testing.T) {
	s, _ := newFixedStore()

	saved, err := s.Insert(context.Background(), sampleStory())
	require.NoError(t, err)

	fetched, err := s.Get(context.Background(), saved.ID)
	require.NoError(t, err)
	fetched.AcceptanceCriteria[0].Steps[0].Text = "tampered"

	again, err := s.Get(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "a cart", again.AcceptanceCriteria[0].Steps[0].Text)
}

func TestMemoryStore_ConcurrentUpdatesToDifferentStories(t *testing.T) {
	s := NewMemoryStore()

	var ids []string
	for i := 0; i < 10; i++ {
		saved, err := s.Insert(context.Background(), sampleStory())
		require.NoError(t, err)
		ids = append(ids, saved.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateTestStatus(context.Background(), id, domain.StatusPassed)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stories, err := s.List(context.Background())
	require.NoError(t, err)
	for _, story := range stories {
		assert.Equal(t, domain.StatusPassed, story.TestStatus)
	}
}
