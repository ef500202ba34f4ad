package app

import (
	"context"
	"fmt"
	"log"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/redis/go-redis/v9"
	"github.com/strudelvibe/vibe-bot/config"
	key_value "github.com/strudelvibe/vibe-bot/internal/storage/key-value"
	"github.com/strudelvibe/vibe-bot/internal/usecase"
	"github.com/strudelvibe/vibe-bot/pkg/strudel"
)

func Run(cfg *config.Config) error {
	ctx := context.Background()

	bot, err := api.NewBotAPI(cfg.Telegram.TelegramAPIToken)
	if err != nil {
		return fmt.Errorf("failed to create new bot: %w", err)
	}
	log.Printf("Authorized on account %s", bot.Self.UserName)

	rdb := redis.NewClient(
		&redis.Options{
			Addr: cfg.Redis.Endpoint,
		},
	)

	settingsStorage := key_value.NewSettingsStorage(rdb)
	settingsUsecase := usecase.NewSettingsUsecase(
		usecase.SettingsUsecaseDeps{
			SettingsStorage: settingsStorage,
		}, cfg.OpenRouter,
	)
	if err = settingsUsecase.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	sessionStorage := key_value.NewSessionStorage(rdb)
	sessionUsecase := usecase.NewSessionUsecase(
		usecase.SessionUsecaseDeps{
			SessionStorage: sessionStorage,
		},
	)

	widget := strudel.NewEmbedWidget()
	playerUsecase := usecase.NewPlayerUsecase(
		usecase.PlayerUsecaseDeps{
			Settings: settingsUsecase,
			Widget:   widget,
		},
	)
	if err = playerUsecase.Restore(ctx, cfg.Chat.DefaultSnippet); err != nil {
		return fmt.Errorf("failed to restore player: %w", err)
	}

	openRouterUsecase := usecase.NewOpenRouterUsecase(cfg.OpenRouter)

	chatUsecase := usecase.NewChatUsecase(
		usecase.ChatUsecaseDeps{
			Sessions:  sessionUsecase,
			Settings:  settingsUsecase,
			Completer: openRouterUsecase,
			Player:    playerUsecase,
		}, cfg.Chat,
	)

	telegramUsecase, err := usecase.NewTelegramUsecase(
		cfg.Telegram, usecase.TelegramUsecaseDeps{
			Bot:      bot,
			Chat:     chatUsecase,
			Sessions: sessionUsecase,
			Settings: settingsUsecase,
			Player:   playerUsecase,
			Widget:   widget,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create telegram usecase: %w", err)
	}

	return telegramUsecase.Run()
}
