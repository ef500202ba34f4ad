package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/strudelvibe/vibe-bot/config"
	"github.com/strudelvibe/vibe-bot/internal/model"
)

type SettingsStorage interface {
	Credential(ctx context.Context) (string, error)
	SetCredential(ctx context.Context, credential string) error
	ActiveModel(ctx context.Context) (string, error)
	SetActiveModel(ctx context.Context, modelID string) error
	ActiveSnippet(ctx context.Context) (string, error)
	SetActiveSnippet(ctx context.Context, snippet string) error
	Bookmarks(ctx context.Context) ([]model.Bookmark, error)
	SetBookmarks(ctx context.Context, bookmarks []model.Bookmark) error
}

type SettingsUsecaseDeps struct {
	SettingsStorage SettingsStorage
}

type SettingsUsecase struct {
	SettingsUsecaseDeps
	cfg config.OpenRouter
}

func NewSettingsUsecase(deps SettingsUsecaseDeps, cfg config.OpenRouter) *SettingsUsecase {
	return &SettingsUsecase{
		SettingsUsecaseDeps: deps,
		cfg:                 cfg,
	}
}

// EnsureDefaults seeds empty settings slots on startup: the credential from
// the environment (when provided) and the stock bookmark set.
func (s *SettingsUsecase) EnsureDefaults(ctx context.Context) error {
	credential, err := s.Credential(ctx)
	if err != nil {
		return err
	}
	if credential == "" && s.cfg.APIKey != "" {
		if err = s.SetCredential(ctx, s.cfg.APIKey); err != nil {
			return err
		}
	}

	bookmarks, err := s.SettingsStorage.Bookmarks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bookmarks: %w", err)
	}
	if bookmarks == nil {
		if err = s.SettingsStorage.SetBookmarks(ctx, model.DefaultBookmarks()); err != nil {
			return fmt.Errorf("failed to seed bookmarks: %w", err)
		}
	}
	return nil
}

func (s *SettingsUsecase) Credential(ctx context.Context) (string, error) {
	return s.SettingsStorage.Credential(ctx)
}

func (s *SettingsUsecase) SetCredential(ctx context.Context, credential string) error {
	return s.SettingsStorage.SetCredential(ctx, strings.TrimSpace(credential))
}

// ActiveModel falls back to the configured default model while no model has
// been picked.
func (s *SettingsUsecase) ActiveModel(ctx context.Context) (string, error) {
	modelID, err := s.SettingsStorage.ActiveModel(ctx)
	if err != nil {
		return "", err
	}
	if modelID == "" {
		return s.cfg.DefaultModel, nil
	}
	return modelID, nil
}

// SetActiveModel stores a model id verbatim; it does not have to be in the
// bookmark set.
func (s *SettingsUsecase) SetActiveModel(ctx context.Context, modelID string) error {
	return s.SettingsStorage.SetActiveModel(ctx, strings.TrimSpace(modelID))
}

func (s *SettingsUsecase) ActiveSnippet(ctx context.Context) (string, error) {
	return s.SettingsStorage.ActiveSnippet(ctx)
}

func (s *SettingsUsecase) SetActiveSnippet(ctx context.Context, snippet string) error {
	return s.SettingsStorage.SetActiveSnippet(ctx, snippet)
}

func (s *SettingsUsecase) Bookmarks(ctx context.Context) ([]model.Bookmark, error) {
	return s.SettingsStorage.Bookmarks(ctx)
}

// AddBookmark appends a bookmark, replacing any existing entry with the same
// model id.
func (s *SettingsUsecase) AddBookmark(ctx context.Context, bookmark model.Bookmark) error {
	bookmarks, err := s.SettingsStorage.Bookmarks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bookmarks: %w", err)
	}
	updated := make([]model.Bookmark, 0, len(bookmarks)+1)
	for _, existing := range bookmarks {
		if existing.ID == bookmark.ID {
			continue
		}
		updated = append(updated, existing)
	}
	updated = append(updated, bookmark)
	return s.SettingsStorage.SetBookmarks(ctx, updated)
}

// ModelDisplayName resolves a model id through the bookmark set, falling back
// to the raw id.
func (s *SettingsUsecase) ModelDisplayName(ctx context.Context, modelID string) (string, error) {
	bookmarks, err := s.SettingsStorage.Bookmarks(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get bookmarks: %w", err)
	}
	return model.BookmarkName(bookmarks, modelID), nil
}
