package key_value

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/strudelvibe/vibe-bot/internal/model"
)

type bookmarkInternal struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SettingsStorage persists the scalar settings slots: credential, active
// model id, model bookmarks and the snippet the player currently renders.
// Every slot is independent; an unset slot reads back as its zero value.
type SettingsStorage struct {
	rdb *redis.Client
}

func NewSettingsStorage(rdb *redis.Client) *SettingsStorage {
	return &SettingsStorage{
		rdb: rdb,
	}
}

func (s *SettingsStorage) Credential(ctx context.Context) (string, error) {
	return s.getString(ctx, credentialKey())
}

func (s *SettingsStorage) SetCredential(ctx context.Context, credential string) error {
	return s.setString(ctx, credentialKey(), credential)
}

func (s *SettingsStorage) ActiveModel(ctx context.Context) (string, error) {
	return s.getString(ctx, activeModelKey())
}

func (s *SettingsStorage) SetActiveModel(ctx context.Context, modelID string) error {
	return s.setString(ctx, activeModelKey(), modelID)
}

func (s *SettingsStorage) ActiveSnippet(ctx context.Context) (string, error) {
	return s.getString(ctx, activeSnippetKey())
}

func (s *SettingsStorage) SetActiveSnippet(ctx context.Context, snippet string) error {
	return s.setString(ctx, activeSnippetKey(), snippet)
}

func (s *SettingsStorage) Bookmarks(ctx context.Context) ([]model.Bookmark, error) {
	bookmarksRaw, err := s.rdb.Get(ctx, bookmarksKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}
	var bookmarksInt []bookmarkInternal
	if err = json.Unmarshal([]byte(bookmarksRaw), &bookmarksInt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmarks: %w", err)
	}
	bookmarks := make([]model.Bookmark, 0, len(bookmarksInt))
	for _, bookmarkInt := range bookmarksInt {
		bookmarks = append(
			bookmarks, model.Bookmark{
				ID:   bookmarkInt.ID,
				Name: bookmarkInt.Name,
			},
		)
	}
	return bookmarks, nil
}

func (s *SettingsStorage) SetBookmarks(ctx context.Context, bookmarks []model.Bookmark) error {
	bookmarksInt := make([]bookmarkInternal, 0, len(bookmarks))
	for _, bookmark := range bookmarks {
		bookmarksInt = append(
			bookmarksInt, bookmarkInternal{
				ID:   bookmark.ID,
				Name: bookmark.Name,
			},
		)
	}
	bookmarksJSON, err := json.Marshal(bookmarksInt)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmarks: %w", err)
	}
	if err = s.rdb.Set(ctx, bookmarksKey(), bookmarksJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to save bookmarks: %w", err)
	}
	return nil
}

func (s *SettingsStorage) getString(ctx context.Context, key string) (string, error) {
	value, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

func (s *SettingsStorage) setString(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func credentialKey() string {
	return "credential"
}

func activeModelKey() string {
	return "active_model_id"
}

func activeSnippetKey() string {
	return "active_snippet"
}

func bookmarksKey() string {
	return "bookmarked_models"
}
