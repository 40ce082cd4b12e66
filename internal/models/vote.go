package models

import "time"

// Vote rows are guarded by idx_vote_unique: at most one vote may exist per
// (poll, session) pair. The ledger relies on this constraint as the
// authoritative duplicate check.
type Vote struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	PollID      string    `gorm:"size:36;not null;uniqueIndex:idx_vote_unique" json:"pollId"`
	SessionID   string    `gorm:"size:64;not null;uniqueIndex:idx_vote_unique" json:"sessionId"`
	OptionIndex int       `gorm:"not null" json:"optionIndex"`
	StudentName string    `gorm:"size:100" json:"studentName"`
	CreatedAt   time.Time `json:"created_at"`
}
