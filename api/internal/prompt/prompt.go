package prompt

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"study-proxy/api/internal/extract"
	"study-proxy/api/internal/llm"
)

const (
	ArticleSystem = "You are a highly knowledgeable assistant specialized in engineering and technical subjects. " +
		"You will only respond to technical questions and topics. " +
		"Your responses should be lucid, easy to understand, and rich with real-life examples to illustrate your points."

	questionsSystem = `You are an experienced examiner who writes exam questions from a course syllabus.
Write exactly {{ .PerKind }} short questions (answerable in one or two sentences) and exactly {{ .PerKind }} descriptive questions (requiring a detailed answer).
Reply ONLY with a JSON object that conforms to this JSON Schema. Any text outside the JSON is an error.
{{ .Schema | trim }}`

	evaluationSystem = `You are a strict but fair examiner.
You receive two images: the first contains the question, the second contains the student's handwritten or typed answer.
Judge correctness, completeness and clarity. Give a score from {{ .MinScore }} to {{ .MaxScore }}.
Reply ONLY with a JSON object that conforms to this JSON Schema. Any text outside the JSON is an error.
{{ .Schema | trim }}`
)

// Names of the templates; a file <dir>/<name>.txt overrides the built-in text.
const (
	ArticleSystemName      = "article.system"
	ArticleUserName        = "article.user"
	QuestionsSystemName    = "questions.system"
	QuestionsUserName      = "questions.user"
	QuestionsImageUserName = "questions_image.user"
	EvaluationSystemName   = "evaluation.system"
	EvaluationUserName     = "evaluation.user"
)

var builtin = map[string]string{
	ArticleSystemName:      ArticleSystem,
	ArticleUserName:        `Generate an article about {{ .Topic }}.`,
	QuestionsSystemName:    questionsSystem,
	QuestionsUserName:      "Syllabus:\n{{ .Syllabus | trim }}\n\nWrite the questions now.",
	QuestionsImageUserName: "The attached image is a course syllabus. Read it carefully and write the questions now.",
	EvaluationSystemName:   evaluationSystem,
	EvaluationUserName:     "Evaluate the answer in the second image against the question in the first image.",
}

// Library renders the prompts for every generation kind.
type Library struct {
	tmpl map[string]*template.Template
}

// New parses the built-in templates and any overrides found in dir.
// An empty dir means built-ins only.
func New(dir string) (*Library, error) {
	l := &Library{tmpl: make(map[string]*template.Template, len(builtin))}
	for name, text := range builtin {
		if dir != "" {
			p := filepath.Join(dir, name+".txt")
			if b, err := os.ReadFile(p); err == nil && len(bytes.TrimSpace(b)) > 0 {
				text = strings.TrimSpace(string(b))
			}
		}
		t, err := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", name, err)
		}
		l.tmpl[name] = t
	}
	return l, nil
}

// MustDefault is the built-in library.
func MustDefault() *Library {
	l, err := New("")
	if err != nil {
		panic(err)
	}
	return l
}

func (l *Library) Article(topic string) (llm.Prompt, error) {
	data := map[string]any{"Topic": topic}
	return l.build(ArticleSystemName, ArticleUserName, data)
}

func (l *Library) Questions(syllabus string) (llm.Prompt, error) {
	data := questionsData()
	data["Syllabus"] = syllabus
	return l.build(QuestionsSystemName, QuestionsUserName, data)
}

func (l *Library) QuestionsFromImage(syllabus llm.Image) (llm.Prompt, error) {
	p, err := l.build(QuestionsSystemName, QuestionsImageUserName, questionsData())
	if err != nil {
		return llm.Prompt{}, err
	}
	p.Images = []llm.Image{syllabus}
	return p, nil
}

func (l *Library) Evaluation(question, answer llm.Image) (llm.Prompt, error) {
	data := map[string]any{
		"Schema":   extract.EvaluationSchema,
		"MinScore": extract.MinScore,
		"MaxScore": extract.MaxScore,
	}
	p, err := l.build(EvaluationSystemName, EvaluationUserName, data)
	if err != nil {
		return llm.Prompt{}, err
	}
	p.Images = []llm.Image{question, answer}
	return p, nil
}

func questionsData() map[string]any {
	return map[string]any{
		"Schema":  extract.QuestionsSchema,
		"PerKind": extract.QuestionsPerKind,
	}
}

func (l *Library) build(systemName, userName string, data map[string]any) (llm.Prompt, error) {
	system, err := l.render(systemName, data)
	if err != nil {
		return llm.Prompt{}, err
	}
	user, err := l.render(userName, data)
	if err != nil {
		return llm.Prompt{}, err
	}
	return llm.Prompt{System: system, User: user}, nil
}

func (l *Library) render(name string, data map[string]any) (string, error) {
	t, ok := l.tmpl[name]
	if !ok {
		return "", fmt.Errorf("prompt %q not found", name)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return b.String(), nil
}
