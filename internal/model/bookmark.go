package model

// Bookmark is a saved remote model choice. The id is passed through to the
// completion endpoint verbatim; the active model id does not have to be
// bookmarked (free typing is allowed).
type Bookmark struct {
	ID   string
	Name string
}

// DefaultBookmarks returns the seed set of free OpenRouter models.
func DefaultBookmarks() []Bookmark {
	return []Bookmark{
		{ID: "google/gemini-2.0-flash-exp:free", Name: "Gemini 2.0 Flash (Free)"},
		{ID: "google/gemini-2.0-pro-exp-02-05:free", Name: "Gemini 2.0 Pro (Free)"},
		{ID: "google/gemma-2-9b-it:free", Name: "Gemma 2 9B (Free)"},
		{ID: "meta-llama/llama-3.3-70b-instruct:free", Name: "Llama 3.3 70B (Free)"},
		{ID: "meta-llama/llama-3.2-3b-instruct:free", Name: "Llama 3.2 3B (Free)"},
		{ID: "deepseek/deepseek-r1:free", Name: "DeepSeek R1 (Free)"},
		{ID: "deepseek/deepseek-r1-distill-llama-70b:free", Name: "DeepSeek R1 Distill 70B (Free)"},
		{ID: "qwen/qwen-2.5-coder-32b-instruct:free", Name: "Qwen 2.5 Coder 32B (Free)"},
		{ID: "mistralai/mistral-7b-instruct:free", Name: "Mistral 7B (Free)"},
		{ID: "nousresearch/hermes-3-llama-3.1-405b:free", Name: "Hermes 3 405B (Free)"},
	}
}

// BookmarkName resolves a model id to its bookmarked display name, falling
// back to the raw id for models typed in by hand.
func BookmarkName(bookmarks []Bookmark, id string) string {
	for _, b := range bookmarks {
		if b.ID == id {
			return b.Name
		}
	}
	return id
}
