package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"study-proxy/api/internal/extract"
	"study-proxy/api/internal/llm"
	"study-proxy/api/internal/service"
	"study-proxy/api/internal/store"
)

const (
	defaultDebounce = 1200 * time.Millisecond
	maxMessageRunes = 4000
)

// Bot is the part of *tgbotapi.BotAPI the router needs.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Generator interface {
	Article(ctx context.Context, engine, topic string) (extract.ArticleResult, error)
	Questions(ctx context.Context, engine string, in service.QuestionsInput) (extract.QuestionSet, error)
	Evaluate(ctx context.Context, engine string, in service.EvaluateInput) (extract.EvaluationResult, error)
}

type History interface {
	Recent(ctx context.Context, chatID int64, limit int) ([]store.Generation, error)
}

type Router struct {
	Bot     Bot
	Gen     Generator
	History History // nil without a store
	Engines *llm.Engines
	Log     *logrus.Logger
	Timeout time.Duration

	Debounce time.Duration
	Download func(url string) ([]byte, error)

	chatEngine sync.Map // chatID -> engine name
	batches    sync.Map // key -> *photoBatch
}

// HandleUpdate blocks until the update is answered; album photos are
// answered later, after the debounce.
func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	switch {
	case msg.IsCommand():
		r.HandleCommand(msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(msg)
	case msg.Text != "":
		r.send(msg.Chat.ID, "Send /help to see what I can do.")
	}
}

func (r *Router) reqContext(chatID int64) (context.Context, context.CancelFunc) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return service.WithChatID(ctx, chatID), cancel
}

func (r *Router) engineFor(chatID int64) string {
	if v, ok := r.chatEngine.Load(chatID); ok {
		return v.(string)
	}
	return ""
}

func (r *Router) log(chatID int64) *logrus.Entry {
	l := r.Log
	if l == nil {
		l = logrus.StandardLogger()
	}
	return l.WithField("chat_id", chatID)
}

func (r *Router) send(chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageRunes) {
		if _, err := r.Bot.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			r.log(chatID).WithError(err).Warn("send message")
			return
		}
	}
}

// sendError answers with a message the user can act on; details go to the log.
func (r *Router) sendError(chatID int64, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		r.send(chatID, "⚠️ "+err.Error())
	case llm.IsUpstream(err), errors.Is(err, extract.ErrInsufficientContent), errors.Is(err, extract.ErrMissingField):
		r.log(chatID).WithError(err).Error(op + " failed")
		r.send(chatID, "❌ The model did not return a usable answer. Please try again.")
	default:
		r.log(chatID).WithError(err).Error(op + " failed")
		r.send(chatID, fmt.Sprintf("❌ %s failed.", op))
	}
}
