package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/mvpbot/mvpbot/internal/bot"
	"github.com/mvpbot/mvpbot/internal/config"
	"github.com/mvpbot/mvpbot/internal/meme"
	"github.com/mvpbot/mvpbot/internal/mvp"
	"github.com/mvpbot/mvpbot/internal/store/jsonfile"
	"github.com/mvpbot/mvpbot/internal/store/sqlite"
	"github.com/mvpbot/mvpbot/internal/telegram"
)

var log = logrus.StandardLogger().WithFields(logrus.Fields{
	"component": "main",
})

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	var db mvp.DB
	switch cfg.Storage {
	case config.StorageSQLite:
		sdb, cleanup, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		defer cleanup()
		db = sdb
	case config.StorageJSONFile:
		db, err = jsonfile.New(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open jsonfile store: %w", err)
		}
	}
	log.WithField("storage", cfg.Storage).Info("store ready")

	session, cleanup, err := telegram.NewSession(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}
	defer cleanup()
	log.WithField("bot", session.Name()).Info("connected to telegram")

	memes := meme.NewClient(meme.DefaultBaseURL, cfg.ImgflipUser, cfg.ImgflipPass)
	svc := mvp.NewService(db)

	return bot.New(svc, session, memes, session.Name()).Listen(ctx, session.Messages())
}
