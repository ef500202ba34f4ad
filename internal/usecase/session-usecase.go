package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/strudelvibe/vibe-bot/internal/model"
)

var (
	ErrInvalidImportFormat = errors.New("invalid format")
	ErrNoValidSessions     = errors.New("no valid sessions found")
	ErrMessageOutOfRange   = errors.New("message index out of range")
)

// sessionNameLimit caps auto-derived session names.
const sessionNameLimit = 30

type SessionStorage interface {
	ListSessions(ctx context.Context) ([]model.Session, error)
	SaveSessions(ctx context.Context, sessions []model.Session) error
	ActiveSessionID(ctx context.Context) (uuid.UUID, error)
	SetActiveSessionID(ctx context.Context, id uuid.UUID) error
	ClearActiveSessionID(ctx context.Context) error
}

type SessionUsecaseDeps struct {
	SessionStorage SessionStorage
}

// SessionUsecase owns the session list and the active session id. Every
// mutation is a read-modify-write of the full list followed by a single
// persist, so no partial write is ever visible.
type SessionUsecase struct {
	SessionUsecaseDeps
}

func NewSessionUsecase(deps SessionUsecaseDeps) *SessionUsecase {
	return &SessionUsecase{
		SessionUsecaseDeps: deps,
	}
}

// CreateSession prepends a fresh session with the placeholder name and makes
// it active.
func (s *SessionUsecase) CreateSession(ctx context.Context) (model.Session, error) {
	sessions, err := s.SessionStorage.ListSessions(ctx)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	session := model.Session{
		ID:        uuid.New(),
		Name:      model.DefaultSessionName,
		Messages:  make([]model.Message, 0),
		CreatedAt: time.Now(),
	}
	sessions = append([]model.Session{session}, sessions...)
	if err = s.SessionStorage.SaveSessions(ctx, sessions); err != nil {
		return model.Session{}, fmt.Errorf("failed to save sessions: %w", err)
	}
	if err = s.SessionStorage.SetActiveSessionID(ctx, session.ID); err != nil {
		return model.Session{}, fmt.Errorf("failed to set active session: %w", err)
	}
	return session, nil
}

func (s *SessionUsecase) ListSessions(ctx context.Context) ([]model.Session, error) {
	return s.SessionStorage.ListSessions(ctx)
}

// ActiveSession returns the session the active id points to. A missing or
// dangling id reports model.ErrNoActiveSession.
func (s *SessionUsecase) ActiveSession(ctx context.Context) (model.Session, error) {
	activeID, err := s.SessionStorage.ActiveSessionID(ctx)
	if err != nil {
		return model.Session{}, err
	}
	sessions, err := s.SessionStorage.ListSessions(ctx)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, session := range sessions {
		if session.ID == activeID {
			return session, nil
		}
	}
	return model.Session{}, model.ErrNoActiveSession
}

// ActiveOrCreateSession is the auto-creation transition: the zero-session
// state is transient and resolves to a new active session here.
func (s *SessionUsecase) ActiveOrCreateSession(ctx context.Context) (model.Session, error) {
	session, err := s.ActiveSession(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNoActiveSession) {
			return s.CreateSession(ctx)
		}
		return model.Session{}, err
	}
	return session, nil
}

func (s *SessionUsecase) SetActiveSession(ctx context.Context, id uuid.UUID) error {
	sessions, err := s.SessionStorage.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, session := range sessions {
		if session.ID == id {
			return s.SessionStorage.SetActiveSessionID(ctx, id)
		}
	}
	return model.ErrSessionNotFound
}

func (s *SessionUsecase) RenameSession(ctx context.Context, id uuid.UUID, name string) error {
	return s.updateSession(
		ctx, id, func(session *model.Session) error {
			session.Name = name
			return nil
		},
	)
}

// AutoNameSession derives a session name from the first user message. It is
// a no-op once the session has a non-placeholder name.
func (s *SessionUsecase) AutoNameSession(ctx context.Context, id uuid.UUID, text string) error {
	return s.updateSession(
		ctx, id, func(session *model.Session) error {
			if session.Name != model.DefaultSessionName {
				return nil
			}
			session.Name = DeriveSessionName(text)
			return nil
		},
	)
}

// DeriveSessionName truncates text to the display limit, marking truncation
// with an ellipsis.
func DeriveSessionName(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.DefaultSessionName
	}
	runes := []rune(text)
	if len(runes) <= sessionNameLimit {
		return text
	}
	return string(runes[:sessionNameLimit]) + "..."
}

// DeleteSession removes a session. When the active session is deleted, the
// first remaining session becomes active, or the system goes session-less.
func (s *SessionUsecase) DeleteSession(ctx context.Context, id uuid.UUID) error {
	sessions, err := s.SessionStorage.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	remaining := make([]model.Session, 0, len(sessions))
	found := false
	for _, session := range sessions {
		if session.ID == id {
			found = true
			continue
		}
		remaining = append(remaining, session)
	}
	if !found {
		return model.ErrSessionNotFound
	}
	if err = s.SessionStorage.SaveSessions(ctx, remaining); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}

	activeID, err := s.SessionStorage.ActiveSessionID(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNoActiveSession) {
			return nil
		}
		return err
	}
	if activeID != id {
		return nil
	}
	if len(remaining) > 0 {
		return s.SessionStorage.SetActiveSessionID(ctx, remaining[0].ID)
	}
	return s.SessionStorage.ClearActiveSessionID(ctx)
}

// DeleteAllSessions clears the whole list. Confirmation of this destructive
// action is the caller's responsibility.
func (s *SessionUsecase) DeleteAllSessions(ctx context.Context) error {
	if err := s.SessionStorage.SaveSessions(ctx, []model.Session{}); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return s.SessionStorage.ClearActiveSessionID(ctx)
}

func (s *SessionUsecase) AppendMessage(ctx context.Context, id uuid.UUID, message model.Message) error {
	return s.updateSession(
		ctx, id, func(session *model.Session) error {
			session.Messages = append(session.Messages, message)
			return nil
		},
	)
}

func (s *SessionUsecase) ReplaceMessages(ctx context.Context, id uuid.UUID, messages []model.Message) error {
	return s.updateSession(
		ctx, id, func(session *model.Session) error {
			session.Messages = make([]model.Message, len(messages))
			copy(session.Messages, messages)
			return nil
		},
	)
}

// EditMessage rewrites the content of one message in place, preserving its
// role and position.
func (s *SessionUsecase) EditMessage(ctx context.Context, id uuid.UUID, index int, content string) error {
	return s.updateSession(
		ctx, id, func(session *model.Session) error {
			if index < 0 || index >= len(session.Messages) {
				return ErrMessageOutOfRange
			}
			session.Messages[index].Content = content
			return nil
		},
	)
}

func (s *SessionUsecase) updateSession(
	ctx context.Context, id uuid.UUID, update func(session *model.Session) error,
) error {
	sessions, err := s.SessionStorage.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	for i := range sessions {
		if sessions[i].ID != id {
			continue
		}
		if err = update(&sessions[i]); err != nil {
			return err
		}
		if err = s.SessionStorage.SaveSessions(ctx, sessions); err != nil {
			return fmt.Errorf("failed to save sessions: %w", err)
		}
		return nil
	}
	return model.ErrSessionNotFound
}

type messageExport struct {
	Role    model.MessageRole `json:"role"`
	Content string            `json:"content"`
	Model   string            `json:"model,omitempty"`
}

type sessionExport struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	// Messages is a pointer so an absent array is distinguishable from an
	// empty one: sessions without a messages array are rejected on import.
	Messages  *[]messageExport `json:"messages"`
	CreatedAt *time.Time       `json:"createdAt,omitempty"`
}

// ExportSession serializes one session as a pretty-printed JSON document.
func (s *SessionUsecase) ExportSession(ctx context.Context, id uuid.UUID) ([]byte, error) {
	sessions, err := s.SessionStorage.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, session := range sessions {
		if session.ID == id {
			return json.MarshalIndent(toSessionExport(session), "", "  ")
		}
	}
	return nil, model.ErrSessionNotFound
}

// ExportAll serializes the full session list.
func (s *SessionUsecase) ExportAll(ctx context.Context) ([]byte, error) {
	sessions, err := s.SessionStorage.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	exports := make([]sessionExport, 0, len(sessions))
	for _, session := range sessions {
		exports = append(exports, toSessionExport(session))
	}
	return json.MarshalIndent(exports, "", "  ")
}

// ImportSessions accepts either a single-session document or an array of
// sessions. Imported ids are never trusted: every imported session gets a
// freshly minted id. Sessions without a messages array are skipped; when
// nothing valid remains the existing state is left untouched. On success the
// imported sessions are prepended and the first becomes active.
func (s *SessionUsecase) ImportSessions(ctx context.Context, blob []byte) ([]model.Session, error) {
	var exports []sessionExport
	if err := json.Unmarshal(blob, &exports); err != nil {
		var single sessionExport
		if err = json.Unmarshal(blob, &single); err != nil {
			return nil, ErrInvalidImportFormat
		}
		exports = []sessionExport{single}
	}

	imported := make([]model.Session, 0, len(exports))
	for _, export := range exports {
		if export.Messages == nil {
			continue
		}
		messages := make([]model.Message, 0, len(*export.Messages))
		for _, msg := range *export.Messages {
			messages = append(
				messages, model.Message{
					Role:    msg.Role,
					Content: msg.Content,
					Model:   msg.Model,
				},
			)
		}
		name := strings.TrimSpace(export.Name)
		if name == "" {
			name = model.DefaultSessionName
		}
		createdAt := time.Now()
		if export.CreatedAt != nil && !export.CreatedAt.IsZero() {
			createdAt = *export.CreatedAt
		}
		imported = append(
			imported, model.Session{
				ID:        uuid.New(),
				Name:      name,
				Messages:  messages,
				CreatedAt: createdAt,
			},
		)
	}
	if len(imported) == 0 {
		return nil, ErrNoValidSessions
	}

	sessions, err := s.SessionStorage.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	sessions = append(append([]model.Session{}, imported...), sessions...)
	if err = s.SessionStorage.SaveSessions(ctx, sessions); err != nil {
		return nil, fmt.Errorf("failed to save sessions: %w", err)
	}
	if err = s.SessionStorage.SetActiveSessionID(ctx, imported[0].ID); err != nil {
		return nil, fmt.Errorf("failed to set active session: %w", err)
	}
	return imported, nil
}

func toSessionExport(session model.Session) sessionExport {
	messages := make([]messageExport, 0, len(session.Messages))
	for _, msg := range session.Messages {
		messages = append(
			messages, messageExport{
				Role:    msg.Role,
				Content: msg.Content,
				Model:   msg.Model,
			},
		)
	}
	createdAt := session.CreatedAt
	return sessionExport{
		ID:        session.ID.String(),
		Name:      session.Name,
		Messages:  &messages,
		CreatedAt: &createdAt,
	}
}
