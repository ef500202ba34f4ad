// Package strudel drives the embedded strudel.cc REPL. The REPL has no
// incremental-update contract, so every snippet change rebuilds the embed
// from scratch.
package strudel

import (
	"encoding/base64"
	"sync"
)

const replBaseURL = "https://strudel.cc/"

// ShareURL builds a strudel.cc link that opens the REPL preloaded with code.
// The REPL reads the code from the URL fragment as base64.
func ShareURL(code string) string {
	return replBaseURL + "#" + base64.StdEncoding.EncodeToString([]byte(code))
}

// EmbedWidget is the shipped player widget: it holds the share link for the
// current snippet. Reset discards the previous embed entirely and builds a
// fresh one.
type EmbedWidget struct {
	mu  sync.Mutex
	url string
}

func NewEmbedWidget() *EmbedWidget {
	return &EmbedWidget{}
}

func (w *EmbedWidget) Reset(code string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if code == "" {
		w.url = ""
		return nil
	}
	w.url = ShareURL(code)
	return nil
}

// URL returns the share link for the snippet the widget currently renders,
// or "" when nothing has been rendered yet.
func (w *EmbedWidget) URL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.url
}
