package main

import (
	"log"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/app"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; the real environment wins.
	_ = godotenv.Load()

	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
