package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"study-proxy/api/internal/llm"
)

func TestArticle(t *testing.T) {
	p, err := MustDefault().Article("Artificial Intelligence in Healthcare")
	require.NoError(t, err)
	require.Equal(t, ArticleSystem, p.System)
	require.Equal(t, "Generate an article about Artificial Intelligence in Healthcare.", p.User)
	require.Empty(t, p.Images)
}

func TestQuestions(t *testing.T) {
	p, err := MustDefault().Questions("  Unit 1: Thermodynamics  ")
	require.NoError(t, err)
	require.Contains(t, p.System, "exactly 5 short questions")
	require.Contains(t, p.System, `"short_questions"`)
	require.Contains(t, p.User, "Syllabus:\nUnit 1: Thermodynamics\n")
}

func TestQuestionsFromImage(t *testing.T) {
	img := llm.Image{MIME: "image/png", Data: []byte{1}}
	p, err := MustDefault().QuestionsFromImage(img)
	require.NoError(t, err)
	require.Equal(t, []llm.Image{img}, p.Images)
	require.Contains(t, p.User, "attached image")
}

func TestEvaluation(t *testing.T) {
	q := llm.Image{MIME: "image/png", Data: []byte{1}}
	a := llm.Image{MIME: "image/jpeg", Data: []byte{2}}
	p, err := MustDefault().Evaluation(q, a)
	require.NoError(t, err)
	require.Equal(t, []llm.Image{q, a}, p.Images)
	require.Contains(t, p.System, "from 0 to 10")
	require.Contains(t, p.System, `"score"`)
}

func TestNew_OverrideFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ArticleUserName+".txt"), []byte("Write about {{ .Topic | upper }}\n"), 0o644))

	l, err := New(dir)
	require.NoError(t, err)
	p, err := l.Article("go")
	require.NoError(t, err)
	require.Equal(t, "Write about GO", p.User)
	require.Equal(t, ArticleSystem, p.System)
}

func TestNew_BadOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ArticleUserName+".txt"), []byte("{{ .Topic "), 0o644))

	_, err := New(dir)
	require.Error(t, err)
}
