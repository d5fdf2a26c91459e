package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"study-proxy/api/internal/app"
	"study-proxy/api/internal/config"
	"study-proxy/api/internal/handle"
	"study-proxy/api/internal/httpserver"
	"study-proxy/api/internal/logging"
	"study-proxy/api/internal/metrics"
	"study-proxy/api/internal/telegram"
	"study-proxy/api/internal/util"
)

func main() {
	opts, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, err := logging.Init(opts.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := opts.Validate(true); err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, opts, log)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close()
	go a.RunRetention(ctx, time.Hour)

	bot, err := tgbotapi.NewBotAPI(opts.TelegramBotToken)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	log.WithField("bot", bot.Self.UserName).Info("telegram bot authorized")

	r := &telegram.Router{
		Bot:     bot,
		Gen:     a.Service,
		Engines: a.Engines,
		Log:     log,
		Timeout: opts.UpstreamTimeout,
	}
	if a.Repo != nil {
		r.History = a.Repo
	}
	// каждый апдейт в своей горутине: вызов LLM может идти минутами
	dispatch := func(upd tgbotapi.Update) { go r.HandleUpdate(upd) }

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Health(a.Ping()))
	mux.Handle("/metrics", metrics.Handler())

	if webhookURL := strings.TrimSpace(opts.WebhookURL); webhookURL != "" {
		path := "/webhook/" + util.SHA256Hex([]byte(bot.Token))[:16]
		if err := setWebhook(bot, strings.TrimRight(webhookURL, "/")+path); err != nil {
			log.Fatalf("set webhook: %v", err)
		}
		mux.HandleFunc(path, telegram.WebhookHandler(bot.HandleUpdate, dispatch, log))
		log.WithField("path", path).Info("webhook mode")
	} else {
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			log.WithError(err).Warn("delete webhook")
		}
		go telegram.RunPolling(ctx, bot, dispatch, log)
		log.Info("polling mode")
	}

	h := handle.Middleware(log, metrics.Get(), mux)
	srv := httpserver.New(opts.Port, h, 30*time.Second, log)
	if err := srv.Run(ctx); err != nil {
		log.WithError(err).Error("http server")
		a.Close()
		os.Exit(1)
	}
}

func setWebhook(bot *tgbotapi.BotAPI, public string) error {
	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	_, err = bot.Request(wh)
	return err
}
