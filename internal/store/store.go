// Package store declares the persistence ports for sessions, polls, and
// votes. Adapters translate engine-specific failures into the sentinel errors
// below; services translate those into the apperr taxonomy.
package store

import (
	"context"
	"errors"

	"classpoll-backend/internal/models"
)

var (
	ErrNotFound         = errors.New("store: not found")
	ErrDuplicateVote    = errors.New("store: duplicate vote")
	ErrActivePollExists = errors.New("store: active poll exists")
)

type SessionStore interface {
	Upsert(ctx context.Context, s *models.Session) error
	GetByID(ctx context.Context, sessionID string) (*models.Session, error)
	GetByConnection(ctx context.Context, connectionID string) (*models.Session, error)
	// SetConnection rebinds the transport handle and marks the session
	// connected. Returns ErrNotFound for unknown sessions.
	SetConnection(ctx context.Context, sessionID, connectionID string) (*models.Session, error)
	// MarkDisconnected flips the connected flag for whichever session holds
	// the connection; the row is retained.
	MarkDisconnected(ctx context.Context, connectionID string) (*models.Session, error)
	Delete(ctx context.Context, sessionID string) error
	ListConnectedByRole(ctx context.Context, role string) ([]models.Session, error)
	NameTaken(ctx context.Context, name, role string) (bool, error)
}

type PollStore interface {
	// Create persists the poll and its options. Returns ErrActivePollExists
	// when another active poll is already stored; the uniqueness guarantee is
	// the adapter's, not the caller's.
	Create(ctx context.Context, p *models.Poll) error
	GetByID(ctx context.Context, id string) (*models.Poll, error)
	// GetActive returns (nil, nil) when no poll is active.
	GetActive(ctx context.Context) (*models.Poll, error)
	// SetCompleted transitions active->completed. The bool reports whether
	// this call performed the transition (false when already completed).
	SetCompleted(ctx context.Context, id string) (*models.Poll, bool, error)
	History(ctx context.Context) ([]models.Poll, error)
}

type VoteStore interface {
	// Create returns ErrDuplicateVote when a vote for (PollID, SessionID)
	// already exists.
	Create(ctx context.Context, v *models.Vote) error
	Get(ctx context.Context, pollID, sessionID string) (*models.Vote, error)
	// IncrementCount bumps the option's vote count and the poll total by one
	// in a single atomic update.
	IncrementCount(ctx context.Context, pollID string, optionIndex int) error
}
