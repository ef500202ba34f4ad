package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strudelvibe/vibe-bot/config"
	in_memory "github.com/strudelvibe/vibe-bot/internal/storage/in-memory"
)

func newPlayerFixture() (*PlayerUsecase, *SettingsUsecase, *fakeWidget) {
	settings := NewSettingsUsecase(
		SettingsUsecaseDeps{
			SettingsStorage: in_memory.NewSettingsStorage(),
		},
		config.OpenRouter{},
	)
	widget := &fakeWidget{}
	player := NewPlayerUsecase(
		PlayerUsecaseDeps{
			Settings: settings,
			Widget:   widget,
		},
	)
	return player, settings, widget
}

func TestNormalizeSnippet(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		want    string
	}{
		{
			name:    "plain ascii passes through",
			snippet: `note("c3 eb3 g3").s("sawtooth")`,
			want:    `note("c3 eb3 g3").s("sawtooth")`,
		},
		{
			name:    "smart quotes folded",
			snippet: "note(“c e g”).s(‘piano’)",
			want:    `note("c e g").s('piano')`,
		},
		{
			name:    "dashes and ellipsis folded",
			snippet: "s(\"bd sd\") — hh…",
			want:    `s("bdsd") - hh...`,
		},
		{
			name:    "non-breaking space becomes space",
			snippet: "note(\"c e\")",
			want:    `note("c e")`,
		},
		{
			name:    "surrounding whitespace trimmed",
			snippet: "  \n s(\"bd\") \t ",
			want:    `s("bd")`,
		},
		{
			name:    "only exotic characters",
			snippet: "♩♪♫",
			want:    "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSnippet(tt.snippet))
		})
	}
}

func TestPlayerUpdate(t *testing.T) {
	ctx := context.Background()
	player, settings, widget := newPlayerFixture()

	require.NoError(t, player.Update(ctx, `s("bd sd")`))
	assert.Equal(t, []string{`s("bd sd")`}, widget.resets)
	assert.Equal(t, `s("bd sd")`, player.Current())

	snippet, err := settings.ActiveSnippet(ctx)
	require.NoError(t, err)
	assert.Equal(t, `s("bd sd")`, snippet)

	// identical snippet does not reset the widget again
	require.NoError(t, player.Update(ctx, `s("bd sd")`))
	assert.Len(t, widget.resets, 1)

	// surrounding whitespace normalizes to the same snippet
	require.NoError(t, player.Update(ctx, "  s(\"bd sd\")\n"))
	assert.Len(t, widget.resets, 1)

	require.NoError(t, player.Update(ctx, `s("hh*8")`))
	assert.Equal(t, []string{`s("bd sd")`, `s("hh*8")`}, widget.resets)
}

func TestPlayerUpdateEmptySnippet(t *testing.T) {
	ctx := context.Background()
	player, settings, widget := newPlayerFixture()
	require.NoError(t, player.Update(ctx, `s("bd")`))

	require.NoError(t, player.Update(ctx, ""))
	require.NoError(t, player.Update(ctx, "   \n"))

	assert.Len(t, widget.resets, 1)
	snippet, err := settings.ActiveSnippet(ctx)
	require.NoError(t, err)
	assert.Equal(t, `s("bd")`, snippet)
}

func TestPlayerRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("uses fallback when nothing persisted", func(t *testing.T) {
		player, _, widget := newPlayerFixture()
		require.NoError(t, player.Restore(ctx, `note("c3 eb3 g3 bb3").s("sawtooth")`))
		assert.Equal(t, []string{`note("c3 eb3 g3 bb3").s("sawtooth")`}, widget.resets)
	})

	t.Run("prefers persisted snippet", func(t *testing.T) {
		player, settings, widget := newPlayerFixture()
		require.NoError(t, settings.SetActiveSnippet(ctx, `s("jazz")`))
		require.NoError(t, player.Restore(ctx, `note("c")`))
		assert.Equal(t, []string{`s("jazz")`}, widget.resets)
	})
}
