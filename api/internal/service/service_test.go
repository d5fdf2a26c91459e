package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"study-proxy/api/internal/extract"
	"study-proxy/api/internal/llm"
	"study-proxy/api/internal/store"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

type fakeEngine struct {
	name  string
	reply string
	err   error

	mu      sync.Mutex
	prompts []llm.Prompt
}

func (f *fakeEngine) Name() string     { return f.name }
func (f *fakeEngine) GetModel() string { return f.name + "-model" }

func (f *fakeEngine) Chat(_ context.Context, p llm.Prompt) (llm.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return llm.Reply{}, f.err
	}
	return llm.Reply{Text: f.reply, Model: f.GetModel()}, nil
}

func (f *fakeEngine) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type memRecorder struct {
	saved []store.Generation
	err   error
}

func (m *memRecorder) Save(_ context.Context, g store.Generation) error {
	m.saved = append(m.saved, g)
	return m.err
}

func newService(eng *fakeEngine, rec Recorder) *Service {
	engs := llm.NewEngines(eng.name)
	engs.Register(eng)
	return New(engs, nil, rec)
}

const questionsReply = `{"short_questions":["a","b","c","d","e"],"descriptive_questions":["f","g","h","i","j"]}`

func TestArticle(t *testing.T) {
	eng := &fakeEngine{name: "sambanova", reply: "\n  An article body.  \n"}
	rec := &memRecorder{}
	s := newService(eng, rec)

	out, err := s.Article(WithChatID(context.Background(), 7), "", " Quantum Computing ")
	require.NoError(t, err)
	require.Equal(t, "An article body.", out.Article)
	require.Equal(t, "Generate an article about Quantum Computing.", eng.prompts[0].User)

	require.Len(t, rec.saved, 1)
	require.Equal(t, store.KindArticle, rec.saved[0].Kind)
	require.Equal(t, int64(7), rec.saved[0].ChatID)
	require.Equal(t, "sambanova-model", rec.saved[0].Model)
	require.JSONEq(t, `{"article":"An article body."}`, string(rec.saved[0].Result))
}

func TestArticle_InvalidInput(t *testing.T) {
	tests := []struct {
		topic string
		msg   string
	}{
		{topic: "", msg: "No topic provided"},
		{topic: "   ", msg: "Empty topic provided"},
	}
	for _, tt := range tests {
		eng := &fakeEngine{name: "sambanova", reply: "x"}
		_, err := newService(eng, nil).Article(context.Background(), "", tt.topic)
		require.ErrorIs(t, err, ErrInvalidInput)
		require.EqualError(t, err, tt.msg)
		require.Zero(t, eng.calls())
	}
}

func TestUnknownEngineIsInvalidInput(t *testing.T) {
	eng := &fakeEngine{name: "sambanova", reply: "x"}
	_, err := newService(eng, nil).Article(context.Background(), "mistral", "go")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, llm.ErrUnknownEngine)
	require.Zero(t, eng.calls())
}

func TestQuestions_Text(t *testing.T) {
	eng := &fakeEngine{name: "sambanova", reply: "```json\n" + questionsReply + "\n```"}
	out, err := newService(eng, nil).Questions(context.Background(), "", QuestionsInput{Text: " Unit 1 "})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, out.ShortQuestions)
	require.Equal(t, []string{"f", "g", "h", "i", "j"}, out.DescriptiveQuestions)
	require.Contains(t, eng.prompts[0].User, "Unit 1")
	require.Empty(t, eng.prompts[0].Images)
}

func TestQuestions_Image(t *testing.T) {
	eng := &fakeEngine{name: "sambanova", reply: questionsReply}
	_, err := newService(eng, nil).Questions(context.Background(), "", QuestionsInput{
		Image: &llm.Image{Data: pngBytes},
	})
	require.NoError(t, err)
	require.Len(t, eng.prompts[0].Images, 1)
	require.Equal(t, "image/png", eng.prompts[0].Images[0].MIME)
}

func TestQuestions_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   QuestionsInput
	}{
		{name: "both", in: QuestionsInput{Text: "x", Image: &llm.Image{Data: pngBytes}}},
		{name: "neither", in: QuestionsInput{}},
		{name: "blank text", in: QuestionsInput{Text: " \n "}},
		{name: "empty image", in: QuestionsInput{Image: &llm.Image{}}},
		{name: "not an image", in: QuestionsInput{Image: &llm.Image{MIME: "text/plain", Data: []byte("hello")}}},
		{name: "too long", in: QuestionsInput{Text: strings.Repeat("abcd", MaxSyllabusTokens+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &fakeEngine{name: "sambanova", reply: questionsReply}
			_, err := newService(eng, nil).Questions(context.Background(), "", tt.in)
			require.ErrorIs(t, err, ErrInvalidInput)
			require.Zero(t, eng.calls())
		})
	}
}

func TestQuestions_AtTokenLimit(t *testing.T) {
	eng := &fakeEngine{name: "sambanova", reply: questionsReply}
	_, err := newService(eng, nil).Questions(context.Background(), "", QuestionsInput{
		Text: strings.Repeat("abcd", MaxSyllabusTokens),
	})
	require.NoError(t, err)
}

func TestQuestions_ExtractionFailureIsNotRecorded(t *testing.T) {
	eng := &fakeEngine{name: "sambanova", reply: "1. only\n2. two"}
	rec := &memRecorder{}
	_, err := newService(eng, rec).Questions(context.Background(), "", QuestionsInput{Text: "x"})
	require.ErrorIs(t, err, extract.ErrInsufficientContent)
	require.Equal(t, 1, eng.calls())
	require.Empty(t, rec.saved)
}

func TestEvaluate(t *testing.T) {
	eng := &fakeEngine{name: "gemini", reply: "Mostly right.\nScore: 8/10"}
	rec := &memRecorder{err: errors.New("db down")}
	s := newService(eng, rec)

	out, err := s.Evaluate(context.Background(), "gemini", EvaluateInput{
		Question: llm.Image{Data: pngBytes},
		Answer:   llm.Image{MIME: "image/jpeg", Data: []byte{0xFF, 0xD8, 0xFF}},
	})
	require.NoError(t, err, "recorder failures are not surfaced")
	require.Equal(t, 8, out.Score)
	require.Equal(t, "Mostly right.\nScore: 8/10", out.Evaluation)

	imgs := eng.prompts[0].Images
	require.Len(t, imgs, 2)
	require.Equal(t, "image/png", imgs[0].MIME)
	require.Equal(t, "image/jpeg", imgs[1].MIME)
	require.Len(t, rec.saved, 1)
}

func TestEvaluate_MissingImage(t *testing.T) {
	eng := &fakeEngine{name: "sambanova"}
	_, err := newService(eng, nil).Evaluate(context.Background(), "", EvaluateInput{Question: llm.Image{Data: pngBytes}})
	var ie *InputError
	require.ErrorAs(t, err, &ie)
	require.Equal(t, "answer_image", ie.Field)
	require.Zero(t, eng.calls())
}

func TestUpstreamErrorPassesThrough(t *testing.T) {
	upstream := &llm.ErrUpstreamRejected{Engine: "sambanova", Status: 429, Body: "slow down"}
	eng := &fakeEngine{name: "sambanova", err: upstream}
	_, err := newService(eng, nil).Article(context.Background(), "", "go")
	require.ErrorIs(t, err, upstream)
	require.True(t, llm.IsUpstream(err))
	require.Equal(t, 1, eng.calls())
}

func TestEstimateTokens(t *testing.T) {
	require.Equal(t, 0, EstimateTokens(""))
	require.Equal(t, 1, EstimateTokens("abc"))
	require.Equal(t, 1, EstimateTokens("абвг"))
	require.Equal(t, 2, EstimateTokens("abcde"))
}
