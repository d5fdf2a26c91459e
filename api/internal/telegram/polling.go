package telegram

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Updater is the long-polling part of *tgbotapi.BotAPI.
type Updater interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

const pollTimeout = 30 // seconds

func newPollBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 15 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// RunPolling long-polls until ctx is done, retrying failed GetUpdates calls
// with exponential backoff.
func RunPolling(ctx context.Context, api Updater, handle func(tgbotapi.Update), log *logrus.Logger) {
	offset := 0
	bo := backoff.WithContext(newPollBackOff(), ctx)
	for ctx.Err() == nil {
		var updates []tgbotapi.Update
		op := func() error {
			u := tgbotapi.NewUpdate(offset)
			u.Timeout = pollTimeout
			var err error
			updates, err = api.GetUpdates(u)
			if d := retryAfter(err); d > 0 {
				// Telegram просит подождать (429)
				select {
				case <-ctx.Done():
				case <-time.After(d):
				}
			}
			return err
		}
		notify := func(err error, d time.Duration) {
			log.WithError(err).WithField("retry_in", d).Warn("polling error")
		}
		if err := backoff.RetryNotify(op, bo, notify); err != nil {
			log.WithError(err).Info("polling stopped")
			return
		}
		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}
	}
}

func retryAfter(err error) time.Duration {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
		return time.Duration(tgErr.RetryAfter) * time.Second
	}
	return 0
}

// WebhookHandler decodes updates pushed by Telegram.
func WebhookHandler(parse func(*http.Request) (*tgbotapi.Update, error), handle func(tgbotapi.Update), log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		upd, err := parse(r)
		if err != nil {
			log.WithError(err).Warn("bad webhook update")
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		handle(*upd)
		w.WriteHeader(http.StatusOK)
	}
}
