package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"classpoll-backend/internal/apperr"
	"classpoll-backend/internal/models"
	"classpoll-backend/internal/store"

	"github.com/google/uuid"
)

const (
	MinOptions       = 2
	MaxOptions       = 6
	MinTimerDuration = 10
	MaxTimerDuration = 300
)

// PollService owns the single-active-poll invariant and the
// active -> completed transition. Timer expiry and any manual path converge
// on Complete, whose idempotence guarantees one transition and one
// completion-hook call per poll.
type PollService struct {
	mu     sync.Mutex
	store  store.PollStore
	timers *TimerService

	onCompleted func(*models.Poll)
}

func NewPollService(polls store.PollStore, timers *TimerService) *PollService {
	return &PollService{store: polls, timers: timers}
}

// SetCompletionHook registers the callback invoked exactly once when a poll
// transitions to completed. Set during wiring, before any poll is created.
func (s *PollService) SetCompletionHook(fn func(*models.Poll)) {
	s.onCompleted = fn
}

func (s *PollService) Create(ctx context.Context, question string, options []string, timerDuration int, createdBy string) (*models.Poll, error) {
	if strings.TrimSpace(question) == "" {
		return nil, apperr.Validation("question is required")
	}
	if len(options) < MinOptions || len(options) > MaxOptions {
		return nil, apperr.Validation("polls need between 2 and 6 options")
	}
	for _, text := range options {
		if strings.TrimSpace(text) == "" {
			return nil, apperr.Validation("option text cannot be empty")
		}
	}
	if timerDuration < MinTimerDuration || timerDuration > MaxTimerDuration {
		return nil, apperr.Validation("timer must be between 10 and 300 seconds")
	}

	// The mutex serializes check-then-insert within this process; the store's
	// single-active constraint is the tiebreaker across processes.
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.store.GetActive(ctx)
	if err != nil {
		return nil, storeFailure("active poll lookup", err)
	}
	if active != nil {
		return nil, apperr.Conflict("a poll is already active; complete it before creating a new one")
	}

	now := time.Now()
	poll := &models.Poll{
		ID:            uuid.NewString(),
		Question:      question,
		TimerDuration: timerDuration,
		Status:        models.PollStatusActive,
		CreatedBy:     createdBy,
		StartedAt:     now,
		EndsAt:        now.Add(time.Duration(timerDuration) * time.Second),
		CreatedAt:     now,
	}
	for i, text := range options {
		poll.Options = append(poll.Options, models.PollOption{PollID: poll.ID, Idx: i, Text: text})
	}

	if err := s.store.Create(ctx, poll); err != nil {
		if errors.Is(err, store.ErrActivePollExists) {
			return nil, apperr.Conflict("a poll is already active; complete it before creating a new one")
		}
		return nil, storeFailure("poll create", err)
	}

	pollID := poll.ID
	s.timers.Start(pollID, poll.EndsAt, func() { s.expire(pollID) })
	return poll, nil
}

func (s *PollService) expire(pollID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.Complete(ctx, pollID); err != nil {
		log.Printf("poll: expiry completion for %s failed: %v", pollID, err)
	}
}

// Complete transitions active -> completed. Already-completed polls are
// returned as-is without re-firing the completion hook, which resolves the
// race between the timer callback and any other completion path.
func (s *PollService) Complete(ctx context.Context, pollID string) (*models.Poll, error) {
	poll, transitioned, err := s.store.SetCompleted(ctx, pollID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("poll not found")
	}
	if err != nil {
		return nil, storeFailure("poll complete", err)
	}

	if transitioned {
		s.timers.Cancel(pollID)
		if s.onCompleted != nil {
			s.onCompleted(poll)
		}
	}
	return poll, nil
}

// GetActive returns the current active poll, or nil. An active poll whose
// deadline passed while no timer is armed (process restart) is completed on
// the spot, so the read path self-heals.
func (s *PollService) GetActive(ctx context.Context) (*models.Poll, error) {
	poll, err := s.store.GetActive(ctx)
	if err != nil {
		return nil, storeFailure("active poll lookup", err)
	}
	if poll == nil {
		return nil, nil
	}
	if time.Now().After(poll.EndsAt) && !s.timers.IsActive(poll.ID) {
		if _, err := s.Complete(ctx, poll.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return poll, nil
}

func (s *PollService) GetByID(ctx context.Context, pollID string) (*models.Poll, error) {
	poll, err := s.store.GetByID(ctx, pollID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("poll not found")
	}
	if err != nil {
		return nil, storeFailure("poll lookup", err)
	}
	return poll, nil
}

// History returns completed polls, most recently created first.
func (s *PollService) History(ctx context.Context) ([]models.Poll, error) {
	polls, err := s.store.History(ctx)
	if err != nil {
		return nil, storeFailure("poll history", err)
	}
	return polls, nil
}

func (s *PollService) RemainingMS(endsAt time.Time) int64 {
	return s.timers.RemainingMS(endsAt)
}

// ResumeActive re-arms the timer for an active poll found at startup, or
// completes it if its deadline already passed.
func (s *PollService) ResumeActive(ctx context.Context) error {
	poll, err := s.store.GetActive(ctx)
	if err != nil {
		return storeFailure("active poll lookup", err)
	}
	if poll == nil {
		return nil
	}
	pollID := poll.ID
	s.timers.Start(pollID, poll.EndsAt, func() { s.expire(pollID) })
	return nil
}
