package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/strudelvibe/vibe-bot/config"
	"github.com/strudelvibe/vibe-bot/internal/app"
)

func main() {
	cfgPath := flag.String("config", "config.yml", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err = app.Run(cfg); err != nil {
		log.Fatalf("app stopped: %v", err)
	}
}
