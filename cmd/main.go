package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/leadpitch/leadpitch/internal/app"
	"github.com/leadpitch/leadpitch/internal/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Initialize()

	server, err := app.New()
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	log.Fatal(server.Listen())
}
