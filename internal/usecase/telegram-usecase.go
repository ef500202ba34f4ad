package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/sourcegraph/conc"
	"github.com/strudelvibe/vibe-bot/config"
	"github.com/strudelvibe/vibe-bot/internal/model"
	"github.com/strudelvibe/vibe-bot/pkg/local"
	"github.com/strudelvibe/vibe-bot/pkg/strudel"
)

const (
	CommandStart     = "start"
	CommandHelp      = "help"
	CommandNew       = "new"
	CommandSessions  = "sessions"
	CommandUse       = "use"
	CommandRename    = "rename"
	CommandDelete    = "delete"
	CommandClear     = "clear"
	CommandModel     = "model"
	CommandModels    = "models"
	CommandBookmark  = "bookmark"
	CommandKey       = "key"
	CommandExport    = "export"
	CommandExportAll = "exportall"
	CommandEdit      = "edit"
	CommandCode      = "code"
)

const (
	callbackModelPrefix = "model:"
	callbackClearYes    = "clear:confirm"
	callbackClearNo     = "clear:cancel"
)

// typingInterval keeps the "typing..." indicator alive while the completion
// call is in flight (Telegram drops it after ~5 seconds).
const typingInterval = 4 * time.Second

// maxImportSize caps uploaded session files.
const maxImportSize = 10 << 20

var (
	textStart = local.NewSet(
		"Welcome to Strudel Vibe Coder! Describe a sound (e.g. \"acid techno bass\") and I will generate a Strudel pattern for it. Use /help to see all commands.",
		local.NewTrans(
			local.Rus,
			"Привет! Опиши звук (например, \"acid techno bass\"), и я сгенерирую паттерн Strudel. /help — список команд.",
		),
	)
	textHelp = local.NewSet(
		"Describe a sound to generate a pattern.\n\n" +
			"/new - start a new session\n" +
			"/sessions - list sessions\n" +
			"/use <n> - switch to session n\n" +
			"/rename <name> - rename the active session\n" +
			"/delete - delete the active session\n" +
			"/clear - delete all sessions\n" +
			"/model <id> - set the model by id\n" +
			"/models - pick a bookmarked model\n" +
			"/bookmark <id> <name> - bookmark a model\n" +
			"/key <key> - set your OpenRouter API key\n" +
			"/export - export the active session as JSON\n" +
			"/exportall - export all sessions\n" +
			"/edit <n> <text> - rewrite message n of the active session\n" +
			"/code - show the current pattern and player link\n\n" +
			"Send a JSON file exported earlier to import sessions.",
	)
	textNoAccess = local.NewSet(
		"You are not allowed to use this bot",
		local.NewTrans(local.Rus, "У вас нет доступа к этому боту"),
	)
	textServerError = local.NewSet(
		"Something wrong with me. Try later",
		local.NewTrans(local.Rus, "Что-то со мной не так. Попробуйте позже"),
	)
	textBusy = local.NewSet(
		"Still working on the previous request",
		local.NewTrans(local.Rus, "Ещё обрабатываю предыдущий запрос"),
	)
	textMissingKey = local.NewSet(
		"OpenRouter API key is not set. Send /key <your key> first.",
		local.NewTrans(local.Rus, "Ключ OpenRouter не задан. Сначала отправьте /key <ваш ключ>."),
	)
	textKeySaved        = local.NewSet("API key saved")
	textKeyUsage        = local.NewSet("Usage: /key <your OpenRouter API key>")
	textModelSetFormat  = local.NewSet("Model set to %s")
	textModelUsage      = local.NewSet("Usage: /model <model id>")
	textSelectModel     = local.NewSet("Select a model")
	textNoBookmarks     = local.NewSet("No bookmarked models yet")
	textBookmarkUsage   = local.NewSet("Usage: /bookmark <model id> <display name>")
	textBookmarkedFmt   = local.NewSet("Bookmarked %s as %q")
	textSessionFormat   = local.NewSet("Started session %q")
	textRenameUsage     = local.NewSet("Usage: /rename <new name>")
	textRenamedFormat   = local.NewSet("Session renamed to %q")
	textNoSessions      = local.NewSet("No sessions yet. Send a message to start one.")
	textUseUsage        = local.NewSet("Usage: /use <session number from /sessions>")
	textSwitchedFormat  = local.NewSet("Switched to session %q")
	textDeletedFormat   = local.NewSet("Deleted session %q")
	textConfirmClear    = local.NewSet("Delete ALL sessions? This cannot be undone.")
	textClearCancelled  = local.NewSet("Cancelled")
	textClearedAll      = local.NewSet("All sessions deleted")
	textEditUsage       = local.NewSet("Usage: /edit <message number> <new content>")
	textEditOutOfRange  = local.NewSet("No message with that number in the active session")
	textEdited          = local.NewSet("Message updated")
	textNoSnippet       = local.NewSet("No pattern yet. Describe a sound to generate one.")
	textImportedFormat  = local.NewSet("Imported %d session(s)")
	textImportBadFile   = local.NewSet("Invalid format: expected a session JSON document")
	textImportNoneValid = local.NewSet("No valid sessions found in that file")
	textUnknownCommand  = local.NewSet("I don't know that command")
)

type TelegramUsecaseDeps struct {
	Bot      *api.BotAPI
	Chat     *ChatUsecase
	Sessions *SessionUsecase
	Settings *SettingsUsecase
	Player   *PlayerUsecase
	// Widget is the same embed widget the player renders into; the bot reads
	// its share link to attach to replies.
	Widget *strudel.EmbedWidget
}

type TelegramUsecase struct {
	TelegramUsecaseDeps
	cfg          config.Telegram
	language     local.Language
	allowedUsers map[int64]struct{}
}

func NewTelegramUsecase(cfg config.Telegram, deps TelegramUsecaseDeps) (*TelegramUsecase, error) {
	allowedUsers := make(map[int64]struct{})
	for _, userID := range cfg.AllowedTelegramID {
		allowedUsers[userID] = struct{}{}
	}

	_, err := deps.Bot.Request(
		api.NewSetMyCommands(
			[]api.BotCommand{
				{Command: CommandHelp, Description: "Show all commands"},
				{Command: CommandNew, Description: "Start a new session"},
				{Command: CommandSessions, Description: "List sessions"},
				{Command: CommandModels, Description: "Pick a bookmarked model"},
				{Command: CommandCode, Description: "Show the current pattern"},
				{Command: CommandExport, Description: "Export the active session"},
				{Command: CommandClear, Description: "Delete all sessions"},
			}...,
		),
	)
	if err != nil {
		return nil, err
	}

	return &TelegramUsecase{
		TelegramUsecaseDeps: deps,
		cfg:                 cfg,
		language:            local.Language(cfg.Language),
		allowedUsers:        allowedUsers,
	}, nil
}

func (t *TelegramUsecase) Run() error {
	u := api.NewUpdate(0)
	u.Timeout = 60

	updates := t.Bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message != nil {
			if err := t.handleMessage(update); err != nil {
				log.Printf("error handling message: %v", err)
			}
		}
		if update.CallbackQuery != nil {
			if err := t.handleCallbackQuery(update); err != nil {
				log.Printf("error handling callback query: %v", err)
			}
		}
	}
	return nil
}

func (t *TelegramUsecase) handleMessage(update api.Update) error {
	ctx := context.Background()
	chatID := update.Message.Chat.ID

	if len(t.allowedUsers) > 0 {
		if _, ok := t.allowedUsers[chatID]; !ok {
			t.sendText(chatID, textNoAccess.Text(t.language))
			return nil
		}
	}

	if update.Message.Document != nil {
		return t.handleImport(ctx, chatID, update.Message.Document)
	}

	if update.Message.IsCommand() {
		return t.handleCommand(ctx, chatID, update.Message.Command(), update.Message.CommandArguments())
	}

	return t.handleChat(ctx, chatID, update.Message.Text)
}

func (t *TelegramUsecase) handleCommand(ctx context.Context, chatID int64, command, args string) error {
	switch command {
	case CommandStart:
		t.sendText(chatID, textStart.Text(t.language))
	case CommandHelp:
		t.sendText(chatID, textHelp.Text(t.language))
	case CommandNew:
		session, err := t.Sessions.CreateSession(ctx)
		if err != nil {
			t.sendText(chatID, textServerError.Text(t.language))
			return fmt.Errorf("failed to create session: %w", err)
		}
		t.sendText(chatID, textSessionFormat.Format(t.language, session.Name))
	case CommandSessions:
		return t.handleListSessions(ctx, chatID)
	case CommandUse:
		return t.handleUse(ctx, chatID, args)
	case CommandRename:
		return t.handleRename(ctx, chatID, args)
	case CommandDelete:
		return t.handleDelete(ctx, chatID)
	case CommandClear:
		msg := api.NewMessage(chatID, textConfirmClear.Text(t.language))
		msg.ReplyMarkup = api.NewInlineKeyboardMarkup(
			api.NewInlineKeyboardRow(
				api.NewInlineKeyboardButtonData("Delete all", callbackClearYes),
				api.NewInlineKeyboardButtonData("Cancel", callbackClearNo),
			),
		)
		if _, err := t.Bot.Send(msg); err != nil {
			return fmt.Errorf("failed to send confirmation: %w", err)
		}
	case CommandModel:
		modelID := strings.TrimSpace(args)
		if modelID == "" {
			t.sendText(chatID, textModelUsage.Text(t.language))
			return nil
		}
		return t.setActiveModel(ctx, chatID, modelID)
	case CommandModels:
		return t.sendModelsKeyboard(ctx, chatID)
	case CommandBookmark:
		return t.handleBookmark(ctx, chatID, args)
	case CommandKey:
		credential := strings.TrimSpace(args)
		if credential == "" {
			t.sendText(chatID, textKeyUsage.Text(t.language))
			return nil
		}
		if err := t.Settings.SetCredential(ctx, credential); err != nil {
			t.sendText(chatID, textServerError.Text(t.language))
			return fmt.Errorf("failed to save credential: %w", err)
		}
		t.sendText(chatID, textKeySaved.Text(t.language))
	case CommandExport:
		return t.handleExport(ctx, chatID, false)
	case CommandExportAll:
		return t.handleExport(ctx, chatID, true)
	case CommandEdit:
		return t.handleEdit(ctx, chatID, args)
	case CommandCode:
		return t.handleCode(chatID)
	default:
		t.sendText(chatID, textUnknownCommand.Text(t.language))
	}
	return nil
}

func (t *TelegramUsecase) handleChat(ctx context.Context, chatID int64, text string) error {
	done := make(chan struct{})
	wg := conc.NewWaitGroup()
	wg.Go(
		func() {
			for {
				if _, err := t.Bot.Request(api.NewChatAction(chatID, api.ChatTyping)); err != nil {
					log.Printf("failed to send chat action: %v", err)
				}
				select {
				case <-done:
					return
				case <-time.After(typingInterval):
				}
			}
		},
	)

	answer, err := t.Chat.Submit(ctx, text)
	close(done)
	wg.Wait()

	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			return nil
		case errors.Is(err, ErrMissingCredential):
			t.sendText(chatID, textMissingKey.Text(t.language))
			return nil
		case errors.Is(err, ErrBusy):
			t.sendText(chatID, textBusy.Text(t.language))
			return nil
		default:
			t.sendText(chatID, textServerError.Text(t.language))
			return fmt.Errorf("failed to submit message: %w", err)
		}
	}

	reply := answer.Content
	if url := t.playerURL(); url != "" {
		reply += "\n\n▶ " + url
	}
	t.sendText(chatID, reply)
	return nil
}

func (t *TelegramUsecase) handleCallbackQuery(update api.Update) error {
	ctx := context.Background()
	chatID := update.CallbackQuery.Message.Chat.ID
	data := update.CallbackQuery.Data

	callback := api.NewCallback(update.CallbackQuery.ID, "")
	if _, err := t.Bot.Request(callback); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}

	switch {
	case strings.HasPrefix(data, callbackModelPrefix):
		return t.setActiveModel(ctx, chatID, strings.TrimPrefix(data, callbackModelPrefix))
	case data == callbackClearYes:
		if err := t.Sessions.DeleteAllSessions(ctx); err != nil {
			t.sendText(chatID, textServerError.Text(t.language))
			return fmt.Errorf("failed to delete all sessions: %w", err)
		}
		t.sendText(chatID, textClearedAll.Text(t.language))
	case data == callbackClearNo:
		t.sendText(chatID, textClearCancelled.Text(t.language))
	}
	return nil
}

func (t *TelegramUsecase) handleListSessions(ctx context.Context, chatID int64) error {
	sessions, err := t.Sessions.ListSessions(ctx)
	if err != nil {
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		t.sendText(chatID, textNoSessions.Text(t.language))
		return nil
	}
	active, err := t.Sessions.ActiveSession(ctx)
	if err != nil && !errors.Is(err, model.ErrNoActiveSession) {
		return fmt.Errorf("failed to get active session: %w", err)
	}

	result := strings.Builder{}
	for i, session := range sessions {
		marker := "  "
		if session.ID == active.ID {
			marker = "▸ "
		}
		result.WriteString(
			fmt.Sprintf("%s%d) %s (%d messages)\n", marker, i+1, session.Name, len(session.Messages)),
		)
	}
	t.sendText(chatID, result.String())
	return nil
}

func (t *TelegramUsecase) handleUse(ctx context.Context, chatID int64, args string) error {
	index, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		t.sendText(chatID, textUseUsage.Text(t.language))
		return nil
	}
	sessions, err := t.Sessions.ListSessions(ctx)
	if err != nil {
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if index < 1 || index > len(sessions) {
		t.sendText(chatID, textUseUsage.Text(t.language))
		return nil
	}
	session := sessions[index-1]
	if err = t.Sessions.SetActiveSession(ctx, session.ID); err != nil {
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to set active session: %w", err)
	}
	t.sendText(chatID, textSwitchedFormat.Format(t.language, session.Name))
	return nil
}

func (t *TelegramUsecase) handleRename(ctx context.Context, chatID int64, args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		t.sendText(chatID, textRenameUsage.Text(t.language))
		return nil
	}
	session, err := t.Sessions.ActiveOrCreateSession(ctx)
	if err != nil {
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to get active session: %w", err)
	}
	if err = t.Sessions.RenameSession(ctx, session.ID, name); err != nil {
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to rename session: %w", err)
	}
	t.sendText(chatID, textRenamedFormat.Format(t.language, name))
	return nil
}

func (t *TelegramUsecase) handleDelete(ctx context.Context, chatID int64) error {
	session, err := t.Sessions.ActiveSession(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNoActiveSession) {
			t.sendText(chatID, textNoSessions.Text(t.language))
			return nil
		}
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to get active session: %w", err)
	}
	if err = t.Sessions.DeleteSession(ctx, session.ID); err != nil {
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to delete session: %w", err)
	}
	t.sendText(chatID, textDeletedFormat.Format(t.language, session.Name))
	return nil
}

func (t *TelegramUsecase) handleEdit(ctx context.Context, chatID int64, args string) error {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 {
		t.sendText(chatID, textEditUsage.Text(t.language))
		return nil
	}
	index, err := strconv.Atoi(parts[0])
	if err != nil {
		t.sendText(chatID, textEditUsage.Text(t.language))
		return nil
	}
	session, err := t.Sessions.ActiveSession(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNoActiveSession) {
			t.sendText(chatID, textNoSessions.Text(t.language))
			return nil
		}
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to get active session: %w", err)
	}
	if err = t.Chat.EditMessage(ctx, session.ID, index-1, parts[1]); err != nil {
		if errors.Is(err, ErrMessageOutOfRange) {
			t.sendText(chatID, textEditOutOfRange.Text(t.language))
			return nil
		}
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to edit message: %w", err)
	}
	t.sendText(chatID, textEdited.Text(t.language))
	return nil
}

func (t *TelegramUsecase) handleCode(chatID int64) error {
	snippet := t.Player.Current()
	if snippet == "" {
		t.sendText(chatID, textNoSnippet.Text(t.language))
		return nil
	}
	reply := snippet
	if url := t.playerURL(); url != "" {
		reply += "\n\n▶ " + url
	}
	t.sendText(chatID, reply)
	return nil
}

func (t *TelegramUsecase) handleExport(ctx context.Context, chatID int64, all bool) error {
	var blob []byte
	var fileName string
	if all {
		exported, err := t.Sessions.ExportAll(ctx)
		if err != nil {
			t.sendText(chatID, textServerError.Text(t.language))
			return fmt.Errorf("failed to export sessions: %w", err)
		}
		blob, fileName = exported, "sessions.json"
	} else {
		session, err := t.Sessions.ActiveSession(ctx)
		if err != nil {
			if errors.Is(err, model.ErrNoActiveSession) {
				t.sendText(chatID, textNoSessions.Text(t.language))
				return nil
			}
			t.sendText(chatID, textServerError.Text(t.language))
			return fmt.Errorf("failed to get active session: %w", err)
		}
		exported, err := t.Sessions.ExportSession(ctx, session.ID)
		if err != nil {
			t.sendText(chatID, textServerError.Text(t.language))
			return fmt.Errorf("failed to export session: %w", err)
		}
		blob, fileName = exported, "session.json"
	}

	doc := api.NewDocument(
		chatID, api.FileBytes{
			Name:  fileName,
			Bytes: blob,
		},
	)
	if _, err := t.Bot.Send(doc); err != nil {
		return fmt.Errorf("failed to send export: %w", err)
	}
	return nil
}

func (t *TelegramUsecase) handleImport(ctx context.Context, chatID int64, document *api.Document) error {
	fileURL, err := t.Bot.GetFileDirectURL(document.FileID)
	if err != nil {
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to resolve file url: %w", err)
	}
	resp, err := http.Get(fileURL)
	if err != nil {
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	blob, err := io.ReadAll(io.LimitReader(resp.Body, maxImportSize))
	if err != nil {
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to read file: %w", err)
	}

	imported, err := t.Sessions.ImportSessions(ctx, blob)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidImportFormat):
			t.sendText(chatID, textImportBadFile.Text(t.language))
			return nil
		case errors.Is(err, ErrNoValidSessions):
			t.sendText(chatID, textImportNoneValid.Text(t.language))
			return nil
		default:
			t.sendText(chatID, textServerError.Text(t.language))
			return fmt.Errorf("failed to import sessions: %w", err)
		}
	}
	t.sendText(chatID, textImportedFormat.Format(t.language, len(imported)))
	return nil
}

func (t *TelegramUsecase) handleBookmark(ctx context.Context, chatID int64, args string) error {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		t.sendText(chatID, textBookmarkUsage.Text(t.language))
		return nil
	}
	bookmark := model.Bookmark{
		ID:   parts[0],
		Name: strings.TrimSpace(parts[1]),
	}
	if err := t.Settings.AddBookmark(ctx, bookmark); err != nil {
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to add bookmark: %w", err)
	}
	t.sendText(chatID, textBookmarkedFmt.Format(t.language, bookmark.ID, bookmark.Name))
	return nil
}

func (t *TelegramUsecase) sendModelsKeyboard(ctx context.Context, chatID int64) error {
	bookmarks, err := t.Settings.Bookmarks(ctx)
	if err != nil {
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to get bookmarks: %w", err)
	}
	if len(bookmarks) == 0 {
		t.sendText(chatID, textNoBookmarks.Text(t.language))
		return nil
	}

	rows := make([][]api.InlineKeyboardButton, 0, len(bookmarks))
	for _, bookmark := range bookmarks {
		rows = append(
			rows, api.NewInlineKeyboardRow(
				api.NewInlineKeyboardButtonData(bookmark.Name, callbackModelPrefix+bookmark.ID),
			),
		)
	}
	msg := api.NewMessage(chatID, textSelectModel.Text(t.language))
	msg.ReplyMarkup = api.NewInlineKeyboardMarkup(rows...)
	if _, err = t.Bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send models keyboard: %w", err)
	}
	return nil
}

func (t *TelegramUsecase) setActiveModel(ctx context.Context, chatID int64, modelID string) error {
	if err := t.Settings.SetActiveModel(ctx, modelID); err != nil {
		t.sendText(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to set active model: %w", err)
	}
	name, err := t.Settings.ModelDisplayName(ctx, modelID)
	if err != nil {
		name = modelID
	}
	t.sendText(chatID, textModelSetFormat.Format(t.language, name))
	return nil
}

func (t *TelegramUsecase) playerURL() string {
	return t.Widget.URL()
}

func (t *TelegramUsecase) sendText(chatID int64, text string) {
	if _, err := t.Bot.Send(api.NewMessage(chatID, text)); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}
