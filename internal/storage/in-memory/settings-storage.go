package in_memory

import (
	"context"

	"github.com/strudelvibe/vibe-bot/internal/model"
)

type SettingsStorage struct {
	credential    string
	activeModel   string
	activeSnippet string
	bookmarks     []model.Bookmark
}

func NewSettingsStorage() *SettingsStorage {
	return &SettingsStorage{}
}

func (s *SettingsStorage) Credential(_ context.Context) (string, error) {
	return s.credential, nil
}

func (s *SettingsStorage) SetCredential(_ context.Context, credential string) error {
	s.credential = credential
	return nil
}

func (s *SettingsStorage) ActiveModel(_ context.Context) (string, error) {
	return s.activeModel, nil
}

func (s *SettingsStorage) SetActiveModel(_ context.Context, modelID string) error {
	s.activeModel = modelID
	return nil
}

func (s *SettingsStorage) ActiveSnippet(_ context.Context) (string, error) {
	return s.activeSnippet, nil
}

func (s *SettingsStorage) SetActiveSnippet(_ context.Context, snippet string) error {
	s.activeSnippet = snippet
	return nil
}

func (s *SettingsStorage) Bookmarks(_ context.Context) ([]model.Bookmark, error) {
	if s.bookmarks == nil {
		return nil, nil
	}
	bookmarks := make([]model.Bookmark, len(s.bookmarks))
	copy(bookmarks, s.bookmarks)
	return bookmarks, nil
}

func (s *SettingsStorage) SetBookmarks(_ context.Context, bookmarks []model.Bookmark) error {
	s.bookmarks = make([]model.Bookmark, len(bookmarks))
	copy(s.bookmarks, bookmarks)
	return nil
}
