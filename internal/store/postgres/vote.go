package postgres

import (
	"context"
	"errors"

	"classpoll-backend/internal/models"
	"classpoll-backend/internal/store"

	"gorm.io/gorm"
)

type VoteStore struct {
	db *gorm.DB
}

func NewVoteStore(db *gorm.DB) *VoteStore {
	return &VoteStore{db: db}
}

func (s *VoteStore) Create(ctx context.Context, v *models.Vote) error {
	err := s.db.WithContext(ctx).Create(v).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.ErrDuplicateVote
	}
	return err
}

func (s *VoteStore) Get(ctx context.Context, pollID, sessionID string) (*models.Vote, error) {
	var vote models.Vote
	err := s.db.WithContext(ctx).
		First(&vote, "poll_id = ? AND session_id = ?", pollID, sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// IncrementCount moves both counters inside one transaction so concurrent
// votes for different options never lose an update.
func (s *VoteStore) IncrementCount(ctx context.Context, pollID string, optionIndex int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PollOption{}).
			Where("poll_id = ? AND idx = ?", pollID, optionIndex).
			Update("vote_count", gorm.Expr("vote_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return tx.Model(&models.Poll{}).
			Where("id = ?", pollID).
			Update("total_votes", gorm.Expr("total_votes + ?", 1)).Error
	})
}
