package domain

import "time"

type MessageRole string

const (
	MessageRoleUser MessageRole = "USER"
	MessageRoleBot  MessageRole = "BOT"
)

type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"-"`
	Content        string      `json:"content"`
	Role           MessageRole `json:"role"`
	CreatedAt      time.Time   `json:"createdAt"`
}
