// Package gateway implements the messaging-gateway mock the agent under test
// sends through. It captures every outbound send for later inspection and
// serves a simulated per-phone message history back to the agent.
package gateway

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// CapturedMessage is one outbound send recorded by the mock.
type CapturedMessage struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"` // "text" or "menu_<subtype>"
	Timestamp     string           `json:"timestamp"`
	TimestampUnix int64            `json:"timestamp_unix"`
	Phone         string           `json:"phone"`
	Text          string           `json:"text"`
	MenuType      string           `json:"menu_type,omitempty"`
	Choices       []string         `json:"choices,omitempty"`
	Sections      []map[string]any `json:"sections,omitempty"`
	ButtonText    string           `json:"button_text,omitempty"`
	FooterText    string           `json:"footer_text,omitempty"`
}

// HistoryMessage is one entry of the simulated conversation history served
// back to the agent via the history-lookup endpoint.
type HistoryMessage struct {
	ID        string `json:"id"`
	ChatID    string `json:"chatid"`
	Text      string `json:"text"`
	FromMe    bool   `json:"fromMe"`
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"type"`
}

// Store owns the captured and history buffers. It is passed to the HTTP
// handlers explicitly — there is no package-level state — and supports the
// full and partial resets the test-control endpoints expose.
type Store struct {
	mu       sync.Mutex
	captured []CapturedMessage
	history  map[string][]HistoryMessage // phone → messages
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{history: make(map[string][]HistoryMessage)}
}

// Capture records an outbound send and mirrors it into the phone's simulated
// history so the agent sees its own messages when it asks for context.
func (s *Store) Capture(msg CapturedMessage) CapturedMessage {
	now := time.Now()
	msg.ID = uuid.NewString()
	msg.Timestamp = now.Format(time.RFC3339Nano)
	msg.TimestampUnix = now.Unix()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.captured = append(s.captured, msg)
	s.history[msg.Phone] = append(s.history[msg.Phone], HistoryMessage{
		ID:        msg.ID,
		ChatID:    msg.Phone + "@s.whatsapp.net",
		Text:      msg.Text,
		FromMe:    true,
		Timestamp: msg.TimestampUnix,
		Type:      historyType(msg),
	})
	return msg
}

func historyType(msg CapturedMessage) string {
	if msg.MenuType != "" {
		return msg.MenuType
	}
	return "text"
}

// Count returns the number of captured messages.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.captured)
}

// All returns a snapshot of every captured message in arrival order.
func (s *Store) All() []CapturedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CapturedMessage, len(s.captured))
	copy(out, s.captured)
	return out
}

// Latest returns the most recent n captured messages in arrival order.
func (s *Store) Latest(n int) []CapturedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || len(s.captured) == 0 {
		return []CapturedMessage{}
	}
	if n > len(s.captured) {
		n = len(s.captured)
	}
	out := make([]CapturedMessage, n)
	copy(out, s.captured[len(s.captured)-n:])
	return out
}

// ForPhone returns the captured messages addressed to one phone.
func (s *Store) ForPhone(phone string) []CapturedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []CapturedMessage
	for _, m := range s.captured {
		if m.Phone == phone {
			out = append(out, m)
		}
	}
	if out == nil {
		out = []CapturedMessage{}
	}
	return out
}

// History returns up to limit of the most recent simulated history entries
// for a phone.
func (s *Store) History(phone string, limit int) []HistoryMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.history[phone]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]HistoryMessage, len(msgs))
	copy(out, msgs)
	return out
}

// InjectHistory seeds prior turns for a phone, backdating timestamps one
// minute apart so they read as a past conversation.
func (s *Store) InjectHistory(phone string, entries []HistoryMessage) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := time.Now().Unix() - int64(len(entries)*60)
	for i, e := range entries {
		e.ID = uuid.NewString()
		e.ChatID = phone + "@s.whatsapp.net"
		e.Timestamp = base + int64(i*60)
		if e.Type == "" {
			e.Type = "text"
		}
		s.history[phone] = append(s.history[phone], e)
	}
	return len(entries)
}

// ClearCaptured drops all captured messages, keeping history.
func (s *Store) ClearCaptured() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captured = nil
}

// ClearHistory drops all simulated history, keeping captures.
func (s *Store) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = make(map[string][]HistoryMessage)
}

// ClearAll drops both buffers.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captured = nil
	s.history = make(map[string][]HistoryMessage)
}

// PhonesWithHistory lists the phones that currently have simulated history.
func (s *Store) PhonesWithHistory() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	phones := make([]string, 0, len(s.history))
	for p := range s.history {
		phones = append(phones, p)
	}
	return phones
}
