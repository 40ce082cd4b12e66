package memory

import (
	"context"
	"testing"

	"classpoll-backend/internal/models"
	"classpoll-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activePoll(id string) *models.Poll {
	return &models.Poll{
		ID:       id,
		Question: "q",
		Status:   models.PollStatusActive,
		Options: []models.PollOption{
			{Idx: 0, Text: "a"},
			{Idx: 1, Text: "b"},
		},
	}
}

func TestSingleActivePollConstraint(t *testing.T) {
	stores := NewStores()
	ctx := context.Background()

	require.NoError(t, stores.Polls.Create(ctx, activePoll("p1")))
	err := stores.Polls.Create(ctx, activePoll("p2"))
	assert.ErrorIs(t, err, store.ErrActivePollExists)

	// Completing the first frees the slot.
	_, transitioned, err := stores.Polls.SetCompleted(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, transitioned)
	require.NoError(t, stores.Polls.Create(ctx, activePoll("p2")))
}

func TestSetCompletedReportsTransition(t *testing.T) {
	stores := NewStores()
	ctx := context.Background()

	require.NoError(t, stores.Polls.Create(ctx, activePoll("p1")))

	_, transitioned, err := stores.Polls.SetCompleted(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, transitioned)

	_, transitioned, err = stores.Polls.SetCompleted(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, transitioned, "second completion is not a transition")

	_, _, err = stores.Polls.SetCompleted(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVoteUniqueness(t *testing.T) {
	stores := NewStores()
	ctx := context.Background()

	require.NoError(t, stores.Polls.Create(ctx, activePoll("p1")))
	require.NoError(t, stores.Votes.Create(ctx, &models.Vote{PollID: "p1", SessionID: "s1", OptionIndex: 0}))

	err := stores.Votes.Create(ctx, &models.Vote{PollID: "p1", SessionID: "s1", OptionIndex: 1})
	assert.ErrorIs(t, err, store.ErrDuplicateVote)
}

func TestIncrementCount(t *testing.T) {
	stores := NewStores()
	ctx := context.Background()

	require.NoError(t, stores.Polls.Create(ctx, activePoll("p1")))
	require.NoError(t, stores.Votes.IncrementCount(ctx, "p1", 1))
	require.NoError(t, stores.Votes.IncrementCount(ctx, "p1", 1))

	poll, err := stores.Polls.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, poll.TotalVotes)
	assert.Equal(t, 0, poll.Options[0].VoteCount)
	assert.Equal(t, 2, poll.Options[1].VoteCount)

	assert.ErrorIs(t, stores.Votes.IncrementCount(ctx, "p1", 5), store.ErrNotFound)
	assert.ErrorIs(t, stores.Votes.IncrementCount(ctx, "missing", 0), store.ErrNotFound)
}

func TestCloneIsolation(t *testing.T) {
	stores := NewStores()
	ctx := context.Background()

	require.NoError(t, stores.Polls.Create(ctx, activePoll("p1")))

	poll, err := stores.Polls.GetByID(ctx, "p1")
	require.NoError(t, err)
	poll.Options[0].VoteCount = 99

	fresh, err := stores.Polls.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Options[0].VoteCount, "readers must not alias stored state")
}

func TestReset(t *testing.T) {
	stores := NewStores()
	ctx := context.Background()

	require.NoError(t, stores.Polls.Create(ctx, activePoll("p1")))
	stores.Reset()

	_, err := stores.Polls.GetByID(ctx, "p1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
