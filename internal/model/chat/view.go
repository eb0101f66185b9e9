package chat

import "time"

// SessionView is the client-facing snapshot of a conversation.
type SessionView struct {
	ID            string    `json:"id"`
	Step          string    `json:"step"`
	Authenticated bool      `json:"authenticated"`
	Messages      []Message `json:"messages"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
