package models

import "time"

type Poll struct {
	ID            string       `gorm:"primaryKey;size:36" json:"id"`
	Question      string       `gorm:"size:500;not null" json:"question"`
	Options       []PollOption `gorm:"foreignKey:PollID" json:"options"`
	TimerDuration int          `gorm:"not null" json:"timerDuration"`
	Status        string       `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedBy     string       `gorm:"size:100" json:"createdBy"`
	StartedAt     time.Time    `json:"startedAt"`
	EndsAt        time.Time    `json:"endsAt"`
	TotalVotes    int          `gorm:"not null;default:0" json:"totalVotes"`
	CreatedAt     time.Time    `json:"created_at"`
}

const (
	PollStatusActive    = "active"
	PollStatusCompleted = "completed"
)

type PollOption struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	PollID    string `gorm:"size:36;not null;index" json:"-"`
	Idx       int    `gorm:"not null" json:"idx"`
	Text      string `gorm:"size:500;not null" json:"text"`
	VoteCount int    `gorm:"not null;default:0" json:"voteCount"`
}
