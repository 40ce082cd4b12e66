package services

import (
	"log"
	"sync"
	"time"
)

// TimerService schedules one-shot expiry callbacks keyed by poll id. At most
// one timer exists per id; starting a new one supersedes the old.
type TimerService struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTimerService() *TimerService {
	return &TimerService{timers: make(map[string]*time.Timer)}
}

// Start arms a timer for pollID. If endsAt already passed, onExpiry runs
// immediately on the calling goroutine.
func (s *TimerService) Start(pollID string, endsAt time.Time, onExpiry func()) {
	s.Cancel(pollID)

	remaining := time.Until(endsAt)
	if remaining <= 0 {
		s.fire(pollID, onExpiry)
		return
	}

	s.mu.Lock()
	s.timers[pollID] = time.AfterFunc(remaining, func() {
		s.mu.Lock()
		delete(s.timers, pollID)
		s.mu.Unlock()
		s.fire(pollID, onExpiry)
	})
	s.mu.Unlock()
}

// fire keeps a panicking callback from taking the process down; the poll
// stays completable through the idempotent manual path.
func (s *TimerService) fire(pollID string, onExpiry func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("timer: expiry callback for poll %s panicked: %v", pollID, r)
		}
	}()
	onExpiry()
}

func (s *TimerService) Cancel(pollID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[pollID]; ok {
		t.Stop()
		delete(s.timers, pollID)
	}
}

func (s *TimerService) IsActive(pollID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[pollID]
	return ok
}

// RemainingMS reports milliseconds until endsAt, floored at zero.
func (s *TimerService) RemainingMS(endsAt time.Time) int64 {
	remaining := time.Until(endsAt).Milliseconds()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Stop cancels every armed timer; teardown hook for tests and shutdown.
func (s *TimerService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
