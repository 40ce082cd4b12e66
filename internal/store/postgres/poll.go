package postgres

import (
	"context"
	"errors"

	"classpoll-backend/internal/models"
	"classpoll-backend/internal/store"

	"gorm.io/gorm"
)

type PollStore struct {
	db *gorm.DB
}

func NewPollStore(db *gorm.DB) *PollStore {
	return &PollStore{db: db}
}

// Create inserts the poll and its options. The partial unique index on
// polls.status (see database.AutoMigrate) rejects a second active row, which
// is what makes concurrent creates safe across processes.
func (s *PollStore) Create(ctx context.Context, p *models.Poll) error {
	err := s.db.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.ErrActivePollExists
	}
	return err
}

func (s *PollStore) GetByID(ctx context.Context, id string) (*models.Poll, error) {
	var poll models.Poll
	err := s.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("idx ASC")
		}).
		First(&poll, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

func (s *PollStore) GetActive(ctx context.Context) (*models.Poll, error) {
	var poll models.Poll
	err := s.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("idx ASC")
		}).
		First(&poll, "status = ?", models.PollStatusActive).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

func (s *PollStore) SetCompleted(ctx context.Context, id string) (*models.Poll, bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Poll{}).
		Where("id = ? AND status = ?", id, models.PollStatusActive).
		Update("status", models.PollStatusCompleted)
	if res.Error != nil {
		return nil, false, res.Error
	}

	poll, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return poll, res.RowsAffected > 0, nil
}

func (s *PollStore) History(ctx context.Context) ([]models.Poll, error) {
	var polls []models.Poll
	err := s.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("idx ASC")
		}).
		Where("status = ?", models.PollStatusCompleted).
		Order("created_at DESC").
		Find(&polls).Error
	return polls, err
}
