package model

import "github.com/m-mizutani/goerr/v2"

// ChatMemory is a bounded window over the running conversation. When the
// window overflows the oldest messages are evicted first. A system message is
// pinned at the head and never evicted.
type ChatMemory struct {
	capacity int
	messages []Message
}

// NewChatMemory creates a memory retaining at most capacity messages
func NewChatMemory(capacity int) (*ChatMemory, error) {
	if capacity < 1 {
		return nil, goerr.New("chat memory capacity must be positive", goerr.V("capacity", capacity))
	}

	return &ChatMemory{
		capacity: capacity,
		messages: make([]Message, 0, capacity),
	}, nil
}

// Add appends msg and evicts old messages until the window fits. Adding a
// system message replaces the current one.
func (m *ChatMemory) Add(msg Message) {
	if msg.Role == RoleSystem {
		for i, existing := range m.messages {
			if existing.Role == RoleSystem {
				m.messages = append(m.messages[:i], m.messages[i+1:]...)
				break
			}
		}
		m.messages = append([]Message{msg}, m.messages...)
	} else {
		m.messages = append(m.messages, msg)
	}

	for len(m.messages) > m.capacity {
		m.evictOldest()
	}
}

func (m *ChatMemory) evictOldest() {
	// Only called while len(m.messages) > capacity >= 1, so a non-system
	// message always exists
	idx := 0
	if m.messages[0].Role == RoleSystem {
		idx = 1
	}

	evicted := m.messages[idx]
	end := idx + 1

	// Observations without their tool call request are rejected by providers
	if evicted.HasToolCalls() {
		for end < len(m.messages) && m.messages[end].Role == RoleTool {
			end++
		}
	}

	m.messages = append(m.messages[:idx], m.messages[end:]...)
}

// Messages returns a copy of the retained messages, oldest first
func (m *ChatMemory) Messages() []Message {
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len returns the number of retained messages
func (m *ChatMemory) Len() int {
	return len(m.messages)
}

// Capacity returns the maximum number of retained messages
func (m *ChatMemory) Capacity() int {
	return m.capacity
}

// Clear drops every message including the system message
func (m *ChatMemory) Clear() {
	m.messages = m.messages[:0]
}
