package config

import (
	"github.com/ilyakaznacheev/cleanenv"
)

type OpenRouter struct {
	BaseURL string `yaml:"base_url" env:"OPENROUTER_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	// APIKey seeds the stored credential on first start. The credential can
	// also be set at runtime with /key, so the seed is optional.
	APIKey       string `env:"OPENROUTER_API_KEY"`
	DefaultModel string `yaml:"default_model" env:"OPENROUTER_MODEL" env-default:"google/gemini-2.0-flash-exp:free"`
	// Referer and AppTitle are the attribution headers OpenRouter asks
	// clients to send.
	Referer     string `yaml:"referer" env:"OPENROUTER_REFERER" env-default:"https://strudel.cc"`
	AppTitle    string `yaml:"app_title" env:"OPENROUTER_APP_TITLE" env-default:"Strudel Vibe Coder"`
	TokenBudget int    `yaml:"token_budget" env:"OPENROUTER_TOKEN_BUDGET" env-default:"3500"`
}

type Telegram struct {
	TelegramAPIToken  string  `env:"TELEGRAM_APITOKEN,required"`
	AllowedTelegramID []int64 `yaml:"allowed_telegram_id" env:"ALLOWED_TELEGRAM_ID" envSeparator:","`
	Language          string  `yaml:"language" env:"BOT_LANGUAGE" env-default:"en"`
}

type Redis struct {
	Endpoint string `yaml:"endpoint" env:"REDIS_ENDPOINT" env-default:"localhost:6379"`
}

type Chat struct {
	// LooseExtraction revives the old heuristic that treats a whole
	// un-fenced reply as code when it contains pattern markers. Off by
	// default: only fenced blocks are trusted.
	LooseExtraction bool `yaml:"loose_extraction" env:"CHAT_LOOSE_EXTRACTION" env-default:"false"`
	// DefaultSnippet is what the player renders before any chat happens.
	DefaultSnippet string `yaml:"default_snippet" env:"CHAT_DEFAULT_SNIPPET" env-default:"note(\"c3 eb3 g3 bb3\").s(\"sawtooth\").lpf(1000).lpq(2)"`
}

type Config struct {
	OpenRouter OpenRouter `yaml:"openrouter"`
	Telegram   Telegram   `yaml:"telegram"`
	Redis      Redis      `yaml:"redis"`
	Chat       Chat       `yaml:"chat"`
}

func LoadConfig(cfgPath string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(cfgPath, &cfg); err != nil {
		return nil, err
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
