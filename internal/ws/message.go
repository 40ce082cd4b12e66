package ws

import "encoding/json"

// Message is the outbound event envelope.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Envelope is the inbound counterpart; Data stays raw until the dispatcher
// knows the event type.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Room names for the role-scoped audiences.
const (
	RoomTeachers = "teacher"
	RoomStudents = "student"
)

// SessionRoom addresses a single session across reconnects.
func SessionRoom(sessionID string) string {
	return "session:" + sessionID
}
