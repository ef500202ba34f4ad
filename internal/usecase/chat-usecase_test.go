package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strudelvibe/vibe-bot/config"
	"github.com/strudelvibe/vibe-bot/internal/model"
	in_memory "github.com/strudelvibe/vibe-bot/internal/storage/in-memory"
)

type fakeCompleter struct {
	reply string
	err   error
	// block, when non-nil, holds Complete until released so a test can
	// observe the AwaitingResponse state.
	block       chan struct{}
	started     chan struct{}
	transcripts [][]model.Message
}

func (f *fakeCompleter) Complete(
	_ context.Context, _, _ string, transcript []model.Message, _ string,
) (string, error) {
	f.transcripts = append(f.transcripts, transcript)
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.block != nil {
		<-f.block
	}
	return f.reply, f.err
}

type fakeWidget struct {
	resets []string
}

func (w *fakeWidget) Reset(code string) error {
	w.resets = append(w.resets, code)
	return nil
}

type chatFixture struct {
	chat     *ChatUsecase
	sessions *SessionUsecase
	settings *SettingsUsecase
	widget   *fakeWidget
}

func newChatFixture(t *testing.T, completer Completer, cfg config.Chat) chatFixture {
	t.Helper()
	sessions := newSessionUsecase()
	settings := NewSettingsUsecase(
		SettingsUsecaseDeps{
			SettingsStorage: in_memory.NewSettingsStorage(),
		},
		config.OpenRouter{DefaultModel: "test/model"},
	)
	widget := &fakeWidget{}
	player := NewPlayerUsecase(
		PlayerUsecaseDeps{
			Settings: settings,
			Widget:   widget,
		},
	)
	chat := NewChatUsecase(
		ChatUsecaseDeps{
			Sessions:  sessions,
			Settings:  settings,
			Completer: completer,
			Player:    player,
		}, cfg,
	)
	return chatFixture{chat: chat, sessions: sessions, settings: settings, widget: widget}
}

func TestSubmitRoundTrip(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{reply: "Here you go:\n```javascript\nnote(\"c e g\")\n```\nEnjoy!"}
	f := newChatFixture(t, completer, config.Chat{})
	require.NoError(t, f.settings.SetCredential(ctx, "sk-or-test"))

	answer, err := f.chat.Submit(ctx, "a calm piano arpeggio")
	require.NoError(t, err)
	assert.Equal(t, model.MessageRoleAssistant, answer.Role)
	assert.Equal(t, "test/model", answer.Model)
	assert.Equal(t, StateIdle, f.chat.State())

	// transcript sent to the model excludes the just-entered user message
	require.Len(t, completer.transcripts, 1)
	assert.Empty(t, completer.transcripts[0])

	active, err := f.sessions.ActiveSession(ctx)
	require.NoError(t, err)
	require.Len(t, active.Messages, 2)
	assert.Equal(t, model.MessageRoleUser, active.Messages[0].Role)
	assert.Equal(t, "a calm piano arpeggio", active.Messages[0].Content)
	assert.Equal(t, model.MessageRoleAssistant, active.Messages[1].Role)
	assert.Equal(t, "a calm piano arpeggio", active.Name)

	assert.Equal(t, []string{`note("c e g")`}, f.widget.resets)
	snippet, err := f.settings.ActiveSnippet(ctx)
	require.NoError(t, err)
	assert.Equal(t, `note("c e g")`, snippet)
}

func TestSubmitSecondExchangeSendsHistory(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{reply: "no code here"}
	f := newChatFixture(t, completer, config.Chat{})
	require.NoError(t, f.settings.SetCredential(ctx, "sk-or-test"))

	_, err := f.chat.Submit(ctx, "first")
	require.NoError(t, err)
	_, err = f.chat.Submit(ctx, "second")
	require.NoError(t, err)

	require.Len(t, completer.transcripts, 2)
	require.Len(t, completer.transcripts[1], 2)
	assert.Equal(t, "first", completer.transcripts[1][0].Content)
	assert.Equal(t, "no code here", completer.transcripts[1][1].Content)
}

func TestSubmitBlankMessage(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, &fakeCompleter{}, config.Chat{})
	require.NoError(t, f.settings.SetCredential(ctx, "sk-or-test"))

	_, err := f.chat.Submit(ctx, "   ")
	require.ErrorIs(t, err, ErrEmptyMessage)

	sessions, err := f.sessions.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSubmitMissingCredential(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, &fakeCompleter{}, config.Chat{})

	_, err := f.chat.Submit(ctx, "some text")
	require.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, StateIdle, f.chat.State())

	// no state mutated
	sessions, err := f.sessions.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSubmitRemoteFailure(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{err: errors.New("Invalid model")}
	f := newChatFixture(t, completer, config.Chat{})
	require.NoError(t, f.settings.SetCredential(ctx, "sk-or-test"))

	answer, err := f.chat.Submit(ctx, "broken request")
	require.NoError(t, err)
	assert.Equal(t, model.MessageRoleAssistant, answer.Role)
	assert.Equal(t, "Error: Invalid model", answer.Content)
	assert.Equal(t, StateIdle, f.chat.State())

	active, err := f.sessions.ActiveSession(ctx)
	require.NoError(t, err)
	require.Len(t, active.Messages, 2)
	assert.Equal(t, "broken request", active.Messages[0].Content)
	assert.Equal(t, "Error: Invalid model", active.Messages[1].Content)

	// snippet untouched on failure
	assert.Empty(t, f.widget.resets)
}

func TestSubmitWhileAwaitingResponse(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{
		reply:   "done",
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	f := newChatFixture(t, completer, config.Chat{})
	require.NoError(t, f.settings.SetCredential(ctx, "sk-or-test"))

	started := completer.started
	firstDone := make(chan error, 1)
	go func() {
		_, err := f.chat.Submit(ctx, "first")
		firstDone <- err
	}()

	<-started
	assert.Equal(t, StateAwaitingResponse, f.chat.State())
	_, err := f.chat.Submit(ctx, "second")
	require.ErrorIs(t, err, ErrBusy)

	close(completer.block)
	require.NoError(t, <-firstDone)
	assert.Equal(t, StateIdle, f.chat.State())
}

func TestSubmitNoFencedBlockLeavesSnippet(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{reply: "Try raising the filter cutoff."}
	f := newChatFixture(t, completer, config.Chat{})
	require.NoError(t, f.settings.SetCredential(ctx, "sk-or-test"))
	require.NoError(t, f.settings.SetActiveSnippet(ctx, `s("bd")`))

	_, err := f.chat.Submit(ctx, "make it brighter")
	require.NoError(t, err)

	assert.Empty(t, f.widget.resets)
	snippet, err := f.settings.ActiveSnippet(ctx)
	require.NoError(t, err)
	assert.Equal(t, `s("bd")`, snippet)
}

func TestSubmitLooseExtraction(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{reply: `note("c e g").s("piano")`}
	f := newChatFixture(t, completer, config.Chat{LooseExtraction: true})
	require.NoError(t, f.settings.SetCredential(ctx, "sk-or-test"))

	_, err := f.chat.Submit(ctx, "simple chord")
	require.NoError(t, err)
	assert.Equal(t, []string{`note("c e g").s("piano")`}, f.widget.resets)
}

func TestEditMessageIsInert(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{reply: "```js\ns(\"bd sd\")\n```"}
	f := newChatFixture(t, completer, config.Chat{})
	require.NoError(t, f.settings.SetCredential(ctx, "sk-or-test"))

	_, err := f.chat.Submit(ctx, "a beat")
	require.NoError(t, err)
	require.Len(t, f.widget.resets, 1)

	active, err := f.sessions.ActiveSession(ctx)
	require.NoError(t, err)
	require.NoError(t, f.chat.EditMessage(ctx, active.ID, 1, "```js\ns(\"hh*8\")\n```"))

	// edit rewrites content only: no new completion, no re-extraction
	require.Len(t, completer.transcripts, 1)
	assert.Equal(t, []string{`s("bd sd")`}, f.widget.resets)

	active, err = f.sessions.ActiveSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "```js\ns(\"hh*8\")\n```", active.Messages[1].Content)
}
