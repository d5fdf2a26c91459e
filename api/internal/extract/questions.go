package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

const (
	shapeQuestions = "questions"

	// QuestionsPerKind is the exact number of short and of descriptive questions.
	QuestionsPerKind = 5
)

// QuestionSet is the /generate-questions response contract.
type QuestionSet struct {
	ShortQuestions       []string `json:"short_questions"`
	DescriptiveQuestions []string `json:"descriptive_questions"`
}

var (
	numberedLine = regexp.MustCompile(`^\s*(?:[-*]\s+)?(?:\*\*)?\(?(\d{1,2})[.):](?:\*\*)?\s+(.+?)\s*$`)
	leadingIndex = regexp.MustCompile(`^\s*(?:Q\s*)?\d{1,2}[.):]\s+`)
)

// Questions recovers five short and five descriptive questions from a model reply.
//
// A JSON object is preferred; otherwise numbered lines are taken in order,
// 1–5 as short and 6–10 as descriptive. When the model put everything into
// one list of at least ten, that list is split 5/5.
func Questions(raw string) (QuestionSet, error) {
	var short, descriptive []string

	if obj, ok := findObject(raw); ok {
		short = listField(obj, "short_questions", "simple_questions", "short", "simple")
		descriptive = listField(obj, "descriptive_questions", "complex_questions", "descriptive", "complex")
		if len(short) == 0 && len(descriptive) == 0 {
			short = listField(obj, "questions")
		}
	}

	if len(short) == 0 && len(descriptive) == 0 {
		items := numberedItems(raw)
		short = head(items, 0, QuestionsPerKind)
		descriptive = head(items, QuestionsPerKind, 2*QuestionsPerKind)
	}

	short, descriptive = rebalance(short, descriptive)

	if len(short) < QuestionsPerKind {
		return QuestionSet{}, insufficient(shapeQuestions, "short_questions", "got %d, need %d", len(short), QuestionsPerKind)
	}
	if len(descriptive) < QuestionsPerKind {
		return QuestionSet{}, insufficient(shapeQuestions, "descriptive_questions", "got %d, need %d", len(descriptive), QuestionsPerKind)
	}

	out := QuestionSet{
		ShortQuestions:       short[:QuestionsPerKind],
		DescriptiveQuestions: descriptive[:QuestionsPerKind],
	}
	if err := validate(questionsSchemaName, out); err != nil {
		return QuestionSet{}, insufficient(shapeQuestions, "questions", "%v", err)
	}
	return out, nil
}

// rebalance splits a single oversized list 5/5 when the other one is empty.
func rebalance(short, descriptive []string) ([]string, []string) {
	switch {
	case len(short) == 0 && len(descriptive) >= 2*QuestionsPerKind:
		return descriptive[:QuestionsPerKind], descriptive[QuestionsPerKind:]
	case len(descriptive) == 0 && len(short) >= 2*QuestionsPerKind:
		return short[:QuestionsPerKind], short[QuestionsPerKind:]
	}
	return short, descriptive
}

// numberedItems returns the text of every numbered line in order of appearance.
func numberedItems(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if q := cleanItem(m[2]); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// listField decodes an array of strings or of {"question": ...} objects.
func listField(obj map[string]json.RawMessage, names ...string) []string {
	v, ok := field(obj, names...)
	if !ok {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(v, &elems); err != nil {
		return nil
	}
	out := make([]string, 0, len(elems))
	for _, el := range elems {
		var s string
		if err := json.Unmarshal(el, &s); err != nil {
			var o map[string]json.RawMessage
			if err := json.Unmarshal(el, &o); err != nil {
				continue
			}
			s = stringField(o, "question", "text", "q")
		}
		if s = cleanItem(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func cleanItem(s string) string {
	s = strings.TrimSpace(s)
	s = leadingIndex.ReplaceAllString(s, "")
	s = strings.TrimSpace(strings.Trim(s, "*"))
	return s
}

func head(items []string, from, to int) []string {
	if from >= len(items) {
		return nil
	}
	if to > len(items) {
		to = len(items)
	}
	return items[from:to]
}
