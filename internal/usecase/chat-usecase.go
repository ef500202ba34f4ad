package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/strudelvibe/vibe-bot/config"
	"github.com/strudelvibe/vibe-bot/internal/model"
	"github.com/strudelvibe/vibe-bot/pkg/extract"
)

type ChatState string

const (
	StateIdle             = ChatState("idle")
	StateAwaitingResponse = ChatState("awaiting_response")
)

var (
	ErrEmptyMessage      = errors.New("message is blank")
	ErrMissingCredential = errors.New("api key is not configured")
	ErrBusy              = errors.New("a completion is already in flight")
)

type Completer interface {
	Complete(
		ctx context.Context, credential, modelID string, transcript []model.Message, userText string,
	) (string, error)
}

type ChatUsecaseDeps struct {
	Sessions  *SessionUsecase
	Settings  *SettingsUsecase
	Completer Completer
	Player    *PlayerUsecase
}

// ChatUsecase orchestrates one chat round trip. It is a two-state machine:
// Idle and AwaitingResponse, with AwaitingResponse covering exactly the
// suspension on the network call.
type ChatUsecase struct {
	ChatUsecaseDeps
	cfg config.Chat

	mu    sync.Mutex
	state ChatState
}

func NewChatUsecase(deps ChatUsecaseDeps, cfg config.Chat) *ChatUsecase {
	return &ChatUsecase{
		ChatUsecaseDeps: deps,
		cfg:             cfg,
		state:           StateIdle,
	}
}

func (c *ChatUsecase) State() ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit runs the Idle -> AwaitingResponse -> Idle round trip. Guard
// failures (blank text, missing credential, request already in flight)
// return before any state is mutated. A remote failure is recorded as a
// synthetic assistant message and reported as the returned message, not as
// an error.
func (c *ChatUsecase) Submit(ctx context.Context, text string) (model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Message{}, ErrEmptyMessage
	}
	credential, err := c.Settings.Credential(ctx)
	if err != nil {
		return model.Message{}, err
	}
	if credential == "" {
		return model.Message{}, ErrMissingCredential
	}

	if err = c.enterAwaiting(); err != nil {
		return model.Message{}, err
	}
	defer c.enterIdle()

	session, err := c.Sessions.ActiveOrCreateSession(ctx)
	if err != nil {
		return model.Message{}, err
	}
	userMessage := model.Message{
		Role:    model.MessageRoleUser,
		Content: text,
	}
	if err = c.Sessions.AppendMessage(ctx, session.ID, userMessage); err != nil {
		return model.Message{}, err
	}

	modelID, err := c.Settings.ActiveModel(ctx)
	if err != nil {
		return model.Message{}, err
	}

	reply, err := c.Completer.Complete(ctx, credential, modelID, session.Messages, text)
	if err != nil {
		failure := model.Message{
			Role:    model.MessageRoleAssistant,
			Content: fmt.Sprintf("Error: %s", err),
		}
		if appendErr := c.Sessions.AppendMessage(ctx, session.ID, failure); appendErr != nil {
			return model.Message{}, appendErr
		}
		return failure, nil
	}

	displayName, err := c.Settings.ModelDisplayName(ctx, modelID)
	if err != nil {
		log.Printf("failed to resolve model name: %v", err)
		displayName = modelID
	}
	answer := model.Message{
		Role:    model.MessageRoleAssistant,
		Content: reply,
		Model:   displayName,
	}
	if err = c.Sessions.AppendMessage(ctx, session.ID, answer); err != nil {
		return model.Message{}, err
	}
	if err = c.Sessions.AutoNameSession(ctx, session.ID, text); err != nil {
		return model.Message{}, err
	}

	if code := c.extractSnippet(reply); code != "" {
		if err = c.Player.Update(ctx, code); err != nil {
			log.Printf("failed to update player: %v", err)
		}
	}
	return answer, nil
}

// EditMessage rewrites stored content only. It is accepted in either state
// and never triggers a new completion or a re-extraction.
func (c *ChatUsecase) EditMessage(ctx context.Context, sessionID uuid.UUID, index int, content string) error {
	return c.Sessions.EditMessage(ctx, sessionID, index, content)
}

func (c *ChatUsecase) extractSnippet(reply string) string {
	if c.cfg.LooseExtraction {
		return extract.SnippetLoose(reply)
	}
	return extract.Snippet(reply)
}

func (c *ChatUsecase) enterAwaiting() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrBusy
	}
	c.state = StateAwaitingResponse
	return nil
}

func (c *ChatUsecase) enterIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
}
