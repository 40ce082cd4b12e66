package postgres

import (
	"context"
	"errors"

	"classpoll-backend/internal/models"
	"classpoll-backend/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Upsert(ctx context.Context, session *models.Session) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"connection_id", "name", "role", "connected", "updated_at"}),
		}).
		Create(session).Error
}

func (s *SessionStore) GetByID(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).First(&session, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionStore) GetByConnection(ctx context.Context, connectionID string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).First(&session, "connection_id = ?", connectionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionStore) SetConnection(ctx context.Context, sessionID, connectionID string) (*models.Session, error) {
	res := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{"connection_id": connectionID, "connected": true})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetByID(ctx, sessionID)
}

func (s *SessionStore) MarkDisconnected(ctx context.Context, connectionID string) (*models.Session, error) {
	session, err := s.GetByConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(session).Update("connected", false).Error; err != nil {
		return nil, err
	}
	session.Connected = false
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Delete(&models.Session{}, "session_id = ?", sessionID).Error
}

func (s *SessionStore) ListConnectedByRole(ctx context.Context, role string) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Where("role = ? AND connected = ?", role, true).
		Order("created_at ASC").
		Find(&sessions).Error
	return sessions, err
}

func (s *SessionStore) NameTaken(ctx context.Context, name, role string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("LOWER(name) = LOWER(?) AND role = ? AND connected = ?", name, role, true).
		Count(&count).Error
	return count > 0, err
}
