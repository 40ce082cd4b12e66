package models

import "time"

type Session struct {
	SessionID    string    `gorm:"primaryKey;size:64" json:"sessionId"`
	ConnectionID string    `gorm:"size:64;index" json:"-"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Role         string    `gorm:"size:10;not null" json:"role"`
	Connected    bool      `gorm:"not null;default:false" json:"connected"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

func ValidRole(role string) bool {
	return role == RoleTeacher || role == RoleStudent
}
