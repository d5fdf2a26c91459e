package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"study-proxy/api/internal/app"
	"study-proxy/api/internal/config"
	"study-proxy/api/internal/handle"
	"study-proxy/api/internal/httpserver"
	"study-proxy/api/internal/logging"
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
	if err := opts.Validate(false); err != nil {
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

	h := handle.New(a.Service, handle.Options{
		Timeout:        opts.UpstreamTimeout,
		MaxUploadBytes: opts.MaxUploadBytes,
		UploadDir:      opts.UploadDir,
		Ping:           a.Ping(),
	})

	// ответ пишется после upstream-вызова, поэтому write timeout больше его дедлайна
	srv := httpserver.New(opts.Port, h.Router(log), opts.UpstreamTimeout+30*time.Second, log)
	if err := srv.Run(ctx); err != nil {
		log.WithError(err).Error("http server")
		a.Close()
		os.Exit(1)
	}
}
