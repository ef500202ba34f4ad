package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Widget is the rendering widget boundary. The widget has no incremental
// update contract, so Reset must tear it down and reinitialize it with code.
type Widget interface {
	Reset(code string) error
}

type PlayerUsecaseDeps struct {
	Settings *SettingsUsecase
	Widget   Widget
}

// PlayerUsecase keeps the widget in sync with the active snippet. Snippets
// are normalized before forwarding and the widget is only reset when the
// normalized value actually changes.
type PlayerUsecase struct {
	PlayerUsecaseDeps
	current string
}

func NewPlayerUsecase(deps PlayerUsecaseDeps) *PlayerUsecase {
	return &PlayerUsecase{
		PlayerUsecaseDeps: deps,
	}
}

// Restore replays the persisted snippet into the widget on startup, or the
// fallback when nothing was persisted yet.
func (p *PlayerUsecase) Restore(ctx context.Context, fallback string) error {
	snippet, err := p.Settings.ActiveSnippet(ctx)
	if err != nil {
		return err
	}
	if snippet == "" {
		snippet = fallback
	}
	return p.Update(ctx, snippet)
}

// Update normalizes snippet and forwards it to the widget. An empty snippet
// (before or after normalization) means "no code available" and leaves the
// player untouched.
func (p *PlayerUsecase) Update(ctx context.Context, snippet string) error {
	normalized := NormalizeSnippet(snippet)
	if normalized == "" || normalized == p.current {
		return nil
	}
	if err := p.Settings.SetActiveSnippet(ctx, normalized); err != nil {
		return fmt.Errorf("failed to persist snippet: %w", err)
	}
	p.current = normalized
	if err := p.Widget.Reset(normalized); err != nil {
		return fmt.Errorf("failed to reset widget: %w", err)
	}
	return nil
}

// Current returns the snippet the widget currently renders.
func (p *PlayerUsecase) Current() string {
	return p.current
}

// asciiFold maps the "fancy" punctuation remote models like to emit onto the
// plain ASCII the widget accepts.
var asciiFold = map[rune]string{
	'‘': "'", '’': "'", '‚': "'", '‛': "'",
	'“': `"`, '”': `"`, '„': `"`,
	'–': "-", '—': "-", '―': "-", '−': "-",
	'…': "...",
	' ': " ",
}

// NormalizeSnippet folds smart quotes and dash variants to ASCII and strips
// every character outside the basic Latin range.
func NormalizeSnippet(snippet string) string {
	var b strings.Builder
	b.Grow(len(snippet))
	for _, r := range snippet {
		if folded, ok := asciiFold[r]; ok {
			b.WriteString(folded)
			continue
		}
		if r > unicode.MaxASCII {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
