package main

import (
	"log"

	"catdist/internal/analysis/pipeline"
	"catdist/internal/api"
	"catdist/internal/config"
	"catdist/internal/settings"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	server := api.NewServer(
		pipeline.NewEngine(cfg.Limits),
		settings.NewCache(settings.Defaults(cfg.Chart)),
	)
	if err := server.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Server failed:", err)
	}
}
