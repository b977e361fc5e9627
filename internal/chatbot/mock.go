package chatbot

import (
	"context"
	"sync"
)

// MockClient permite tests sin levantar el chatbot real.
type MockClient struct {
	mu        sync.Mutex
	Reply     string
	Err       error
	Questions []string
	Histories [][]HistoryEntry
}

func (m *MockClient) Ask(_ context.Context, question string, history []HistoryEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Questions = append(m.Questions, question)
	m.Histories = append(m.Histories, history)
	return m.Reply, m.Err
}
