package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"study-proxy/api/internal/config"
	"study-proxy/api/internal/service"
)

const helpText = `I write study material with an LLM.

/article <topic> - an article about a technical topic
/questions <syllabus> - 5 short and 5 descriptive questions
/engine [name] - show or switch the engine
/history - your recent generations

Send one photo of a syllabus to get questions.
Send an album of two photos (question, then answer) to get the answer graded.`

const historyLimit = 5

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "article":
		r.article(cid, args)
	case "questions":
		r.questions(cid, args)
	case "engine":
		r.engine(cid, args)
	case "history":
		r.history(cid)
	default:
		r.send(cid, "Unknown command. Send /help.")
	}
}

func (r *Router) article(cid int64, topic string) {
	ctx, cancel := r.reqContext(cid)
	defer cancel()
	r.typing(cid)
	out, err := r.Gen.Article(ctx, r.engineFor(cid), topic)
	if err != nil {
		r.sendError(cid, "Article", err)
		return
	}
	r.send(cid, out.Article)
}

func (r *Router) questions(cid int64, syllabus string) {
	ctx, cancel := r.reqContext(cid)
	defer cancel()
	r.typing(cid)
	out, err := r.Gen.Questions(ctx, r.engineFor(cid), service.QuestionsInput{Text: syllabus})
	if err != nil {
		r.sendError(cid, "Questions", err)
		return
	}
	r.send(cid, formatQuestions(out))
}

func (r *Router) engine(cid int64, arg string) {
	names := r.Engines.Names()
	if arg == "" {
		cur := r.engineFor(cid)
		if cur == "" {
			cur = r.Engines.Default()
		}
		r.send(cid, fmt.Sprintf("Current engine: %s\nAvailable: %s\nUsage: /engine <name>", cur, strings.Join(names, ", ")))
		return
	}
	name := config.NormalizeEngine(arg)
	eng, err := r.Engines.GetEngine(name)
	if err != nil {
		r.send(cid, "Unknown engine. Available: "+strings.Join(names, ", "))
		return
	}
	r.chatEngine.Store(cid, eng.Name())
	r.send(cid, fmt.Sprintf("✅ Engine: %s (%s)", eng.Name(), eng.GetModel()))
}

func (r *Router) history(cid int64) {
	if r.History == nil {
		r.send(cid, "History is not enabled.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	gens, err := r.History.Recent(ctx, cid, historyLimit)
	if err != nil {
		r.sendError(cid, "History", err)
		return
	}
	r.send(cid, formatHistory(gens))
}

func (r *Router) typing(cid int64) {
	_, _ = r.Bot.Send(tgbotapi.NewChatAction(cid, tgbotapi.ChatTyping))
}
