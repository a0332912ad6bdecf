package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultName   = "New Chat"
	maxNameRunes  = 30
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrInvalidRole = errors.New("message role must be user or assistant")
	ErrEmptyName   = errors.New("session name cannot be empty")
)

// Service owns the in-memory session collection, newest first, and saves
// through its Store after every mutation. In-process callers are
// serialized with a mutex; the backing file has no cross-process
// protection, same as the catalog.
type Service struct {
	mu       sync.Mutex
	store    Store
	sessions []ChatSession
}

func NewService(store Store) (*Service, error) {
	sessions, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return &Service{store: store, sessions: sessions}, nil
}

// Create starts an empty session named "New Chat" and puts it first.
func (s *Service) Create() (*ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := ChatSession{
		ID:        uuid.NewString(),
		Name:      defaultName,
		Messages:  []ChatMessage{},
		CreatedAt: time.Now(),
	}
	s.sessions = append([]ChatSession{session}, s.sessions...)
	if err := s.persistLocked(); err != nil {
		return nil, err
	}

	out := cloneSession(session)
	return &out, nil
}

// List returns all sessions, newest first.
func (s *Service) List() []ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChatSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, cloneSession(sess))
	}
	return out
}

func (s *Service) Get(id string) (*ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	out := cloneSession(s.sessions[idx])
	return &out, nil
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return ErrNotFound
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	return s.persistLocked()
}

// AppendMessage stores one turn. After the first assistant reply a
// session still carrying the default name is renamed from its first user
// message, truncated to 30 runes.
func (s *Service) AppendMessage(sessionID, role, content string) (*ChatMessage, error) {
	if role != RoleUser && role != RoleAssistant {
		return nil, ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(sessionID)
	if idx < 0 {
		return nil, ErrNotFound
	}

	msg := ChatMessage{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
	}
	s.sessions[idx].Messages = append(s.sessions[idx].Messages, msg)

	if role == RoleAssistant && s.sessions[idx].Name == defaultName {
		if name := firstUserMessageName(s.sessions[idx].Messages); name != "" {
			s.sessions[idx].Name = name
		}
	}

	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *Service) ClearMessages(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(sessionID)
	if idx < 0 {
		return ErrNotFound
	}
	s.sessions[idx].Messages = []ChatMessage{}
	return s.persistLocked()
}

func (s *Service) Rename(sessionID, name string) error {
	if name == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(sessionID)
	if idx < 0 {
		return ErrNotFound
	}
	s.sessions[idx].Name = name
	return s.persistLocked()
}

func (s *Service) indexLocked(id string) int {
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) persistLocked() error {
	if err := s.store.Save(s.sessions); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}

func firstUserMessageName(messages []ChatMessage) string {
	for _, m := range messages {
		if m.Role != RoleUser {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) > maxNameRunes {
			return string(runes[:maxNameRunes]) + "..."
		}
		return m.Content
	}
	return ""
}

func cloneSession(sess ChatSession) ChatSession {
	out := sess
	out.Messages = append([]ChatMessage(nil), sess.Messages...)
	return out
}
