package key_value

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/strudelvibe/vibe-bot/internal/model"
)

type messageInternal struct {
	Role    model.MessageRole `json:"role"`
	Content string            `json:"content"`
	Model   string            `json:"model,omitempty"`
}

type sessionInternal struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Messages  []messageInternal `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
}

type SessionStorage struct {
	rdb *redis.Client
}

func NewSessionStorage(rdb *redis.Client) *SessionStorage {
	return &SessionStorage{
		rdb: rdb,
	}
}

func (s *SessionStorage) ListSessions(ctx context.Context) ([]model.Session, error) {
	sessionsRaw, err := s.rdb.Get(ctx, sessionsKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.Session{}, nil
		}
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}
	var sessionsInt []sessionInternal
	if err = json.Unmarshal([]byte(sessionsRaw), &sessionsInt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sessions: %w", err)
	}

	sessions := make([]model.Session, 0, len(sessionsInt))
	for _, sessionInt := range sessionsInt {
		session, err := parseSessionInternal(sessionInt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *SessionStorage) SaveSessions(ctx context.Context, sessions []model.Session) error {
	sessionsInt := make([]sessionInternal, 0, len(sessions))
	for _, session := range sessions {
		sessionsInt = append(sessionsInt, toSessionInternal(session))
	}
	sessionsJSON, err := json.Marshal(sessionsInt)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	if err = s.rdb.Set(ctx, sessionsKey(), sessionsJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}

func (s *SessionStorage) ActiveSessionID(ctx context.Context) (uuid.UUID, error) {
	idStr, err := s.rdb.Get(ctx, activeSessionKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, model.ErrNoActiveSession
		}
		return uuid.Nil, fmt.Errorf("failed to get active session id: %w", err)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse active session id %s: %w", idStr, err)
	}
	return id, nil
}

func (s *SessionStorage) SetActiveSessionID(ctx context.Context, id uuid.UUID) error {
	if err := s.rdb.Set(ctx, activeSessionKey(), id.String(), 0).Err(); err != nil {
		return fmt.Errorf("failed to save active session id: %w", err)
	}
	return nil
}

func (s *SessionStorage) ClearActiveSessionID(ctx context.Context) error {
	if err := s.rdb.Del(ctx, activeSessionKey()).Err(); err != nil {
		return fmt.Errorf("failed to clear active session id: %w", err)
	}
	return nil
}

func toSessionInternal(session model.Session) sessionInternal {
	messagesInt := make([]messageInternal, 0, len(session.Messages))
	for _, msg := range session.Messages {
		messagesInt = append(
			messagesInt, messageInternal{
				Role:    msg.Role,
				Content: msg.Content,
				Model:   msg.Model,
			},
		)
	}
	return sessionInternal{
		ID:        session.ID.String(),
		Name:      session.Name,
		Messages:  messagesInt,
		CreatedAt: session.CreatedAt,
	}
}

func parseSessionInternal(sessionInt sessionInternal) (model.Session, error) {
	id, err := uuid.Parse(sessionInt.ID)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to parse session id %s: %w", sessionInt.ID, err)
	}
	messages := make([]model.Message, 0, len(sessionInt.Messages))
	for _, msg := range sessionInt.Messages {
		messages = append(
			messages, model.Message{
				Role:    msg.Role,
				Content: msg.Content,
				Model:   msg.Model,
			},
		)
	}
	return model.Session{
		ID:        id,
		Name:      sessionInt.Name,
		Messages:  messages,
		CreatedAt: sessionInt.CreatedAt,
	}, nil
}

func sessionsKey() string {
	return "sessions"
}

func activeSessionKey() string {
	return "active_session_id"
}
