package domain

import "time"

const (
	NewConversationTitle = "New Chat"
	maxTitleRunes        = 50
)

type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ConversationSummary agrega el total de mensajes para los listados.
type ConversationSummary struct {
	Conversation
	MessageCount int `json:"messageCount"`
}

// TitleFromMessage recorta el primer mensaje a 50 caracteres y agrega "...".
func TitleFromMessage(message string) string {
	runes := []rune(message)
	if len(runes) > maxTitleRunes {
		return string(runes[:maxTitleRunes]) + "..."
	}
	return message
}
