package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"classpoll-backend/internal/apperr"
	"classpoll-backend/internal/models"
	"classpoll-backend/internal/store"
)

// VoteService records and deduplicates votes. Duplicate detection is
// two-tier: an in-process key set for fast rejects, with the store's
// uniqueness constraint on (poll, session) as the authoritative tiebreaker.
type VoteService struct {
	mu    sync.RWMutex
	voted map[string]struct{}

	votes store.VoteStore
	polls store.PollStore
}

func NewVoteService(votes store.VoteStore, polls store.PollStore) *VoteService {
	return &VoteService{
		voted: make(map[string]struct{}),
		votes: votes,
		polls: polls,
	}
}

type OptionResult struct {
	Text      string `json:"text"`
	VoteCount int    `json:"voteCount"`
}

type PollResults struct {
	PollID     string         `json:"pollId"`
	Question   string         `json:"question"`
	Options    []OptionResult `json:"options"`
	TotalVotes int            `json:"totalVotes"`
	Status     string         `json:"status"`
}

func dedupKey(pollID, sessionID string) string {
	return pollID + ":" + sessionID
}

func (s *VoteService) alreadyVoted(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.voted[key]
	return ok
}

func (s *VoteService) markVoted(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voted[key] = struct{}{}
}

// RecordVote enforces one vote per (poll, session). The deadline check runs
// against EndsAt regardless of stored status, since the expiry timer may not
// have fired yet.
func (s *VoteService) RecordVote(ctx context.Context, pollID string, optionIndex int, sessionID, studentName string) error {
	key := dedupKey(pollID, sessionID)
	if s.alreadyVoted(key) {
		return apperr.Conflict("you have already voted on this poll")
	}

	poll, err := s.polls.GetByID(ctx, pollID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("poll not found")
	}
	if err != nil {
		return storeFailure("poll lookup", err)
	}
	if poll.Status != models.PollStatusActive {
		return apperr.Conflict("this poll has ended")
	}
	if time.Now().After(poll.EndsAt) {
		return apperr.Expired("timer has expired for this poll")
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return apperr.Validation("invalid option selected")
	}

	err = s.votes.Create(ctx, &models.Vote{
		PollID:      pollID,
		SessionID:   sessionID,
		OptionIndex: optionIndex,
		StudentName: studentName,
		CreatedAt:   time.Now(),
	})
	if errors.Is(err, store.ErrDuplicateVote) {
		// A concurrent submission beat the fast-path check.
		s.markVoted(key)
		return apperr.Conflict("you have already voted on this poll")
	}
	if err != nil {
		return storeFailure("vote write", err)
	}

	if err := s.votes.IncrementCount(ctx, pollID, optionIndex); err != nil {
		return storeFailure("vote count update", err)
	}

	s.markVoted(key)
	return nil
}

func (s *VoteService) Results(ctx context.Context, pollID string) (*PollResults, error) {
	poll, err := s.polls.GetByID(ctx, pollID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("poll not found")
	}
	if err != nil {
		return nil, storeFailure("poll lookup", err)
	}

	results := &PollResults{
		PollID:     poll.ID,
		Question:   poll.Question,
		Options:    make([]OptionResult, 0, len(poll.Options)),
		TotalVotes: poll.TotalVotes,
		Status:     poll.Status,
	}
	for _, opt := range poll.Options {
		results.Options = append(results.Options, OptionResult{Text: opt.Text, VoteCount: opt.VoteCount})
	}
	return results, nil
}

// HasVoted consults the fast-path set first, then the durable store,
// backfilling the set so a restarted process converges.
func (s *VoteService) HasVoted(ctx context.Context, pollID, sessionID string) (bool, error) {
	key := dedupKey(pollID, sessionID)
	if s.alreadyVoted(key) {
		return true, nil
	}

	_, err := s.votes.Get(ctx, pollID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeFailure("vote lookup", err)
	}

	s.markVoted(key)
	return true, nil
}

func (s *VoteService) GetVote(ctx context.Context, pollID, sessionID string) (*models.Vote, error) {
	vote, err := s.votes.Get(ctx, pollID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("vote not found")
	}
	if err != nil {
		return nil, storeFailure("vote lookup", err)
	}
	return vote, nil
}

// ClearPollCache drops the fast-path keys for a completed poll, bounding the
// set's memory to live polls.
func (s *VoteService) ClearPollCache(pollID string) {
	prefix := pollID + ":"
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.voted {
		if strings.HasPrefix(key, prefix) {
			delete(s.voted, key)
		}
	}
}
