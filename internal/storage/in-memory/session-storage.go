package in_memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/strudelvibe/vibe-bot/internal/model"
)

type SessionStorage struct {
	sessions  []model.Session
	activeID  uuid.UUID
	hasActive bool
}

func NewSessionStorage() *SessionStorage {
	return &SessionStorage{
		sessions: make([]model.Session, 0),
	}
}

func (s *SessionStorage) ListSessions(_ context.Context) ([]model.Session, error) {
	sessions := make([]model.Session, len(s.sessions))
	copy(sessions, s.sessions)
	return sessions, nil
}

func (s *SessionStorage) SaveSessions(_ context.Context, sessions []model.Session) error {
	s.sessions = make([]model.Session, len(sessions))
	copy(s.sessions, sessions)
	return nil
}

func (s *SessionStorage) ActiveSessionID(_ context.Context) (uuid.UUID, error) {
	if !s.hasActive {
		return uuid.Nil, model.ErrNoActiveSession
	}
	return s.activeID, nil
}

func (s *SessionStorage) SetActiveSessionID(_ context.Context, id uuid.UUID) error {
	s.activeID = id
	s.hasActive = true
	return nil
}

func (s *SessionStorage) ClearActiveSessionID(_ context.Context) error {
	s.activeID = uuid.Nil
	s.hasActive = false
	return nil
}
