package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ytnotify/bot"
	"ytnotify/config"
	"ytnotify/notify"
	"ytnotify/poller"
	"ytnotify/store"
	"ytnotify/youtube"
)

// telegramHTTPClient bounds every bot API call, including message sends and
// member lookups; the library's default client has no timeout, and a hung
// send would otherwise stall the polling cycle indefinitely. The bound must
// exceed the 60s update long poll, which rides the same client.
func telegramHTTPClient(timeout time.Duration) *http.Client {
	const longPollFloor = 90 * time.Second
	if timeout < longPollFloor {
		timeout = longPollFloor
	}
	return &http.Client{Timeout: timeout}
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config error", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		if errors.Is(err, store.ErrCorrupt) {
			logger.Error("state file is corrupt, refusing to start", "path", cfg.StorePath, "error", err)
		} else {
			logger.Error("store open error", "path", cfg.StorePath, "error", err)
		}
		os.Exit(1)
	}
	defer st.Close()

	var source youtube.Source
	switch cfg.Source {
	case config.SourceRSS:
		source = youtube.NewRSSClient()
	default:
		source, err = youtube.NewClient(ctx, cfg.APIKey)
		if err != nil {
			logger.Error("youtube client error", "error", err)
			os.Exit(1)
		}
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, telegramHTTPClient(cfg.CallTimeout))
	if err != nil {
		logger.Error("telegram init error", "error", err)
		os.Exit(1)
	}
	logger.Info("authorized", "bot", api.Self.UserName)

	notifier := notify.NewTelegramNotifier(api)

	engine := poller.New(st, source, notifier, logger)
	engine.RecencyFactor = cfg.RecencyFactor
	engine.CallTimeout = cfg.CallTimeout

	engine.ReconcileNames(ctx)

	sched := poller.NewScheduler(st.CheckInterval(), engine.RunCycle, logger)
	sched.Start(ctx)
	sched.Kick()

	front := bot.New(api, st, source, notifier, sched, logger)
	front.Run(ctx)

	sched.Stop()
	logger.Info("shut down")
}
