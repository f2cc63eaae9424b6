package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mottoworks/botto/internal/bot"
	"github.com/mottoworks/botto/internal/setup"
)

func main() {
	app, err := setup.InitializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Cleanup()

	discordBot, err := bot.New(app.Config, app.Storage, app.Logger)
	if err != nil {
		log.Printf("Failed to create bot: %v", err)
		return
	}

	ctx := context.Background()
	if err := discordBot.Start(ctx); err != nil {
		log.Printf("Failed to start bot: %v", err)
		return
	}

	log.Println("Bot has been started. Waiting for interrupt signal to gracefully shutdown...")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	discordBot.Close(ctx)
}
