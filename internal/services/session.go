package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"classpoll-backend/internal/apperr"
	"classpoll-backend/internal/models"
	"classpoll-backend/internal/store"
)

// SessionService tracks participant identity, role, and the current live
// connection. Session records survive disconnects; only a kick removes them.
type SessionService struct {
	store store.SessionStore
}

func NewSessionService(sessions store.SessionStore) *SessionService {
	return &SessionService{store: sessions}
}

// RegisterOrUpdate upserts a session and marks it connected. The caller is
// expected to have rejected a taken name already; two simultaneous joins with
// the same name can both land (known race, see DESIGN.md).
func (s *SessionService) RegisterOrUpdate(ctx context.Context, sessionID, connectionID, name, role string) (*models.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.Validation("session id is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if !models.ValidRole(role) {
		return nil, apperr.Validation("role must be teacher or student")
	}

	session, err := s.store.GetByID(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		session = &models.Session{SessionID: sessionID, CreatedAt: time.Now()}
	} else if err != nil {
		return nil, storeFailure("session lookup", err)
	}

	session.ConnectionID = connectionID
	session.Name = name
	session.Role = role
	session.Connected = true
	session.UpdatedAt = time.Now()

	if err := s.store.Upsert(ctx, session); err != nil {
		return nil, storeFailure("session upsert", err)
	}
	return session, nil
}

func (s *SessionService) Reconnect(ctx context.Context, sessionID, connectionID string) (*models.Session, error) {
	session, err := s.store.SetConnection(ctx, sessionID, connectionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("session not found")
	}
	if err != nil {
		return nil, storeFailure("session reconnect", err)
	}
	return session, nil
}

// MarkDisconnected flips the connected flag for the session holding
// connectionID. Returns (nil, nil) when the connection never joined.
func (s *SessionService) MarkDisconnected(ctx context.Context, connectionID string) (*models.Session, error) {
	session, err := s.store.MarkDisconnected(ctx, connectionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeFailure("session disconnect", err)
	}
	return session, nil
}

// Remove hard-deletes a session; used only by kick.
func (s *SessionService) Remove(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return storeFailure("session remove", err)
	}
	return nil
}

func (s *SessionService) GetByID(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.store.GetByID(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("session not found")
	}
	if err != nil {
		return nil, storeFailure("session lookup", err)
	}
	return session, nil
}

func (s *SessionService) GetByConnection(ctx context.Context, connectionID string) (*models.Session, error) {
	session, err := s.store.GetByConnection(ctx, connectionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("session not found")
	}
	if err != nil {
		return nil, storeFailure("session lookup", err)
	}
	return session, nil
}

func (s *SessionService) ListConnectedByRole(ctx context.Context, role string) ([]models.Session, error) {
	sessions, err := s.store.ListConnectedByRole(ctx, role)
	if err != nil {
		return nil, storeFailure("session list", err)
	}
	return sessions, nil
}

// NameTaken checks currently-connected sessions of the same role,
// case-insensitively.
func (s *SessionService) NameTaken(ctx context.Context, name, role string) (bool, error) {
	taken, err := s.store.NameTaken(ctx, name, role)
	if err != nil {
		return false, storeFailure("name check", err)
	}
	return taken, nil
}

// storeFailure logs the underlying persistence error and returns the generic
// typed failure surfaced to callers.
func storeFailure(op string, err error) error {
	log.Printf("store: %s failed: %v", op, err)
	return apperr.Store("storage failure")
}
