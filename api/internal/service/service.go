package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"study-proxy/api/internal/extract"
	"study-proxy/api/internal/llm"
	"study-proxy/api/internal/logging"
	"study-proxy/api/internal/metrics"
	"study-proxy/api/internal/prompt"
	"study-proxy/api/internal/store"
	"study-proxy/api/internal/util"
)

// Recorder persists successful generations. Failures are logged, never returned.
type Recorder interface {
	Save(ctx context.Context, g store.Generation) error
}

type Service struct {
	Engines  *llm.Engines
	Prompts  *prompt.Library
	Recorder Recorder // optional
	Metrics  *metrics.Metrics
}

func New(engines *llm.Engines, prompts *prompt.Library, rec Recorder) *Service {
	if prompts == nil {
		prompts = prompt.MustDefault()
	}
	return &Service{Engines: engines, Prompts: prompts, Recorder: rec, Metrics: metrics.Get()}
}

type chatIDKey struct{}

// WithChatID tags generations recorded under ctx with a Telegram chat.
func WithChatID(ctx context.Context, chatID int64) context.Context {
	return context.WithValue(ctx, chatIDKey{}, chatID)
}

func chatID(ctx context.Context) int64 {
	id, _ := ctx.Value(chatIDKey{}).(int64)
	return id
}

func (s *Service) Article(ctx context.Context, engine, topic string) (extract.ArticleResult, error) {
	topic, err := checkTopic(topic)
	if err != nil {
		return extract.ArticleResult{}, err
	}
	eng, err := s.engine(engine)
	if err != nil {
		return extract.ArticleResult{}, err
	}
	p, err := s.Prompts.Article(topic)
	if err != nil {
		return extract.ArticleResult{}, err
	}
	raw, err := s.chat(ctx, eng, p)
	if err != nil {
		return extract.ArticleResult{}, err
	}
	out, err := extract.Article(raw)
	if err != nil {
		return out, s.extractFailed(ctx, store.KindArticle, raw, err)
	}
	s.record(ctx, store.KindArticle, eng, out, []byte(topic))
	return out, nil
}

func (s *Service) Questions(ctx context.Context, engine string, in QuestionsInput) (extract.QuestionSet, error) {
	in, err := checkSyllabus(in)
	if err != nil {
		return extract.QuestionSet{}, err
	}
	eng, err := s.engine(engine)
	if err != nil {
		return extract.QuestionSet{}, err
	}
	var (
		p   llm.Prompt
		key []byte
	)
	if in.Image != nil {
		p, err = s.Prompts.QuestionsFromImage(*in.Image)
		key = in.Image.Data
	} else {
		p, err = s.Prompts.Questions(in.Text)
		key = []byte(in.Text)
	}
	if err != nil {
		return extract.QuestionSet{}, err
	}
	raw, err := s.chat(ctx, eng, p)
	if err != nil {
		return extract.QuestionSet{}, err
	}
	out, err := extract.Questions(raw)
	if err != nil {
		return out, s.extractFailed(ctx, store.KindQuestions, raw, err)
	}
	s.record(ctx, store.KindQuestions, eng, out, key)
	return out, nil
}

func (s *Service) Evaluate(ctx context.Context, engine string, in EvaluateInput) (extract.EvaluationResult, error) {
	q, err := checkImage("question_image", in.Question)
	if err != nil {
		return extract.EvaluationResult{}, err
	}
	a, err := checkImage("answer_image", in.Answer)
	if err != nil {
		return extract.EvaluationResult{}, err
	}
	eng, err := s.engine(engine)
	if err != nil {
		return extract.EvaluationResult{}, err
	}
	p, err := s.Prompts.Evaluation(q, a)
	if err != nil {
		return extract.EvaluationResult{}, err
	}
	raw, err := s.chat(ctx, eng, p)
	if err != nil {
		return extract.EvaluationResult{}, err
	}
	out, err := extract.Evaluation(raw)
	if err != nil {
		return out, s.extractFailed(ctx, store.KindEvaluation, raw, err)
	}
	s.record(ctx, store.KindEvaluation, eng, out, q.Data, a.Data)
	return out, nil
}

func (s *Service) engine(name string) (llm.Engine, error) {
	eng, err := s.Engines.GetEngine(name)
	if err != nil {
		return nil, &InputError{Field: "engine", Msg: err.Error(), Err: err}
	}
	return eng, nil
}

func (s *Service) chat(ctx context.Context, eng llm.Engine, p llm.Prompt) (string, error) {
	log := logging.FromContext(ctx).WithFields(logrus.Fields{"engine": eng.Name(), "model": eng.GetModel()})
	start := time.Now()
	reply, err := eng.Chat(ctx, p)
	took := time.Since(start)
	if s.Metrics != nil {
		s.Metrics.Upstream(eng.Name(), llm.Outcome(err), took)
	}
	if err != nil {
		log.WithError(err).WithField("took", took).Error("upstream call failed")
		return "", err
	}
	log.WithField("took", took).Debug("upstream call done")
	return reply.Text, nil
}

func (s *Service) extractFailed(ctx context.Context, kind, raw string, err error) error {
	if s.Metrics != nil {
		s.Metrics.ExtractionFailure(kind, extract.KindName(err))
	}
	logging.FromContext(ctx).WithError(err).
		WithField("reply", util.ClampRunes(raw, 500)).
		Error("model reply does not fit the response contract")
	return err
}

func (s *Service) record(ctx context.Context, kind string, eng llm.Engine, result any, input ...[]byte) {
	if s.Recorder == nil {
		return
	}
	js, err := json.Marshal(result)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("marshal generation")
		return
	}
	g := store.Generation{
		ChatID:    chatID(ctx),
		Kind:      kind,
		Engine:    eng.Name(),
		Model:     eng.GetModel(),
		InputHash: util.SHA256Hex(input...),
		Result:    js,
	}
	// запись не должна зависеть от отмены запроса
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Recorder.Save(rctx, g); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("kind", kind).Warnf("record %s generation", kind)
	}
}
