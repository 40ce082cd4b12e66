// Package memory is an in-process store adapter. It backs the test suites and
// the STORE_DRIVER=memory mode, and mirrors the guarantees the postgres
// adapter gets from its constraints: vote uniqueness, a single active poll,
// and atomic counter increments.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"classpoll-backend/internal/models"
	"classpoll-backend/internal/store"
)

type state struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	polls    map[string]models.Poll
	votes    map[string]models.Vote
	seq      []string // poll ids in creation order
}

// Stores bundles the three ports over one shared state table.
type Stores struct {
	Sessions *SessionStore
	Polls    *PollStore
	Votes    *VoteStore

	st *state
}

func NewStores() *Stores {
	st := &state{}
	st.reset()
	return &Stores{
		Sessions: &SessionStore{st: st},
		Polls:    &PollStore{st: st},
		Votes:    &VoteStore{st: st},
		st:       st,
	}
}

// Reset drops all state; test isolation hook.
func (s *Stores) Reset() {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.reset()
}

func (st *state) reset() {
	st.sessions = make(map[string]models.Session)
	st.polls = make(map[string]models.Poll)
	st.votes = make(map[string]models.Vote)
	st.seq = nil
}

func voteKey(pollID, sessionID string) string {
	return pollID + ":" + sessionID
}

func clonePoll(p models.Poll) *models.Poll {
	cp := p
	cp.Options = make([]models.PollOption, len(p.Options))
	copy(cp.Options, p.Options)
	return &cp
}

type SessionStore struct {
	st *state
}

func (s *SessionStore) Upsert(_ context.Context, session *models.Session) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.sessions[session.SessionID] = *session
	return nil
}

func (s *SessionStore) GetByID(_ context.Context, sessionID string) (*models.Session, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	session, ok := s.st.sessions[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &session, nil
}

func (s *SessionStore) GetByConnection(_ context.Context, connectionID string) (*models.Session, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	for _, session := range s.st.sessions {
		if session.ConnectionID == connectionID {
			out := session
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *SessionStore) SetConnection(_ context.Context, sessionID, connectionID string) (*models.Session, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	session, ok := s.st.sessions[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	session.ConnectionID = connectionID
	session.Connected = true
	s.st.sessions[sessionID] = session
	return &session, nil
}

func (s *SessionStore) MarkDisconnected(_ context.Context, connectionID string) (*models.Session, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for id, session := range s.st.sessions {
		if session.ConnectionID == connectionID {
			session.Connected = false
			s.st.sessions[id] = session
			return &session, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	delete(s.st.sessions, sessionID)
	return nil
}

func (s *SessionStore) ListConnectedByRole(_ context.Context, role string) ([]models.Session, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	var out []models.Session
	for _, session := range s.st.sessions {
		if session.Role == role && session.Connected {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *SessionStore) NameTaken(_ context.Context, name, role string) (bool, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	for _, session := range s.st.sessions {
		if session.Connected && session.Role == role && strings.EqualFold(session.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

type PollStore struct {
	st *state
}

func (s *PollStore) Create(_ context.Context, p *models.Poll) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, existing := range s.st.polls {
		if existing.Status == models.PollStatusActive {
			return store.ErrActivePollExists
		}
	}
	s.st.polls[p.ID] = *clonePoll(*p)
	s.st.seq = append(s.st.seq, p.ID)
	return nil
}

func (s *PollStore) GetByID(_ context.Context, id string) (*models.Poll, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	poll, ok := s.st.polls[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clonePoll(poll), nil
}

func (s *PollStore) GetActive(_ context.Context) (*models.Poll, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	for _, poll := range s.st.polls {
		if poll.Status == models.PollStatusActive {
			return clonePoll(poll), nil
		}
	}
	return nil, nil
}

func (s *PollStore) SetCompleted(_ context.Context, id string) (*models.Poll, bool, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	poll, ok := s.st.polls[id]
	if !ok {
		return nil, false, store.ErrNotFound
	}
	transitioned := poll.Status == models.PollStatusActive
	poll.Status = models.PollStatusCompleted
	s.st.polls[id] = poll
	return clonePoll(poll), transitioned, nil
}

func (s *PollStore) History(_ context.Context) ([]models.Poll, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	var out []models.Poll
	// newest first
	for i := len(s.st.seq) - 1; i >= 0; i-- {
		poll := s.st.polls[s.st.seq[i]]
		if poll.Status == models.PollStatusCompleted {
			out = append(out, *clonePoll(poll))
		}
	}
	return out, nil
}

type VoteStore struct {
	st *state
}

func (s *VoteStore) Create(_ context.Context, v *models.Vote) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	key := voteKey(v.PollID, v.SessionID)
	if _, exists := s.st.votes[key]; exists {
		return store.ErrDuplicateVote
	}
	s.st.votes[key] = *v
	return nil
}

func (s *VoteStore) Get(_ context.Context, pollID, sessionID string) (*models.Vote, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	vote, ok := s.st.votes[voteKey(pollID, sessionID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &vote, nil
}

func (s *VoteStore) IncrementCount(_ context.Context, pollID string, optionIndex int) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	poll, ok := s.st.polls[pollID]
	if !ok || optionIndex < 0 || optionIndex >= len(poll.Options) {
		return store.ErrNotFound
	}
	options := make([]models.PollOption, len(poll.Options))
	copy(options, poll.Options)
	options[optionIndex].VoteCount++
	poll.Options = options
	poll.TotalVotes++
	s.st.polls[pollID] = poll
	return nil
}
