package telegram

import (
	"encoding/json"
	"fmt"
	"strings"

	"study-proxy/api/internal/extract"
	"study-proxy/api/internal/store"
)

func formatQuestions(q extract.QuestionSet) string {
	var b strings.Builder
	b.WriteString("Short questions:\n")
	for i, s := range q.ShortQuestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\nDescriptive questions:\n")
	for i, s := range q.DescriptiveQuestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatEvaluation(e extract.EvaluationResult) string {
	return fmt.Sprintf("Score: %d/%d\n\n%s", e.Score, extract.MaxScore, e.Evaluation)
}

func formatHistory(gens []store.Generation) string {
	if len(gens) == 0 {
		return "No generations yet."
	}
	var b strings.Builder
	b.WriteString("Recent generations:\n")
	for _, g := range gens {
		fmt.Fprintf(&b, "• %s %s (%s/%s) %s\n",
			g.CreatedAt.Format("2006-01-02 15:04"), g.Kind, g.Engine, g.Model, summary(g))
	}
	return strings.TrimRight(b.String(), "\n")
}

func summary(g store.Generation) string {
	switch g.Kind {
	case store.KindEvaluation:
		var e extract.EvaluationResult
		if json.Unmarshal(g.Result, &e) == nil {
			return fmt.Sprintf("score %d/%d", e.Score, extract.MaxScore)
		}
	case store.KindArticle:
		var a extract.ArticleResult
		if json.Unmarshal(g.Result, &a) == nil {
			return "- " + firstLine(a.Article, 60)
		}
	case store.KindQuestions:
		var q extract.QuestionSet
		if json.Unmarshal(g.Result, &q) == nil && len(q.ShortQuestions) > 0 {
			return "- " + firstLine(q.ShortQuestions[0], 60)
		}
	}
	return ""
}

func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	r := []rune(strings.TrimSpace(s))
	if len(r) > max {
		return string(r[:max]) + "…"
	}
	return string(r)
}

// splitMessage cuts text into parts of at most max runes, preferring line breaks.
func splitMessage(text string, max int) []string {
	r := []rune(text)
	if len(r) <= max {
		return []string{text}
	}
	var out []string
	for len(r) > max {
		cut := max
		for i := max; i > max/2; i-- {
			if r[i-1] == '\n' {
				cut = i
				break
			}
		}
		out = append(out, string(r[:cut]))
		r = r[cut:]
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}
