package extract

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"study-proxy/api/internal/util"
)

const (
	shapeEvaluation = "evaluation"

	MinScore = 0
	MaxScore = 10
)

// EvaluationResult is the /evaluate-answer response contract.
type EvaluationResult struct {
	Evaluation string `json:"evaluation"`
	Score      int    `json:"score"`
}

var (
	jsonScore   = regexp.MustCompile(`(?i)"score"\s*:\s*(\d+)`)
	textScore   = regexp.MustCompile(`(?i)score:\s*(\d+)\s*/\s*10`)
	leadingInts = regexp.MustCompile(`^\s*(\d+)`)
	objectStart = regexp.MustCompile(`\{\s*"`)
	evalString  = regexp.MustCompile(`(?s)"(?:evaluation|feedback)"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// Evaluation recovers the feedback text and the 0..10 score from a model reply.
func Evaluation(raw string) (EvaluationResult, error) {
	var (
		out   EvaluationResult
		score int
		found bool
	)

	if obj, ok := findObject(raw); ok {
		out.Evaluation = stringField(obj, "evaluation", "feedback")
		score, found = intField(obj, "score")
	} else if objectStart.MatchString(raw) {
		out.Evaluation = evaluationFromBrokenJSON(raw)
	} else {
		out.Evaluation = util.StripCodeFences(raw)
	}
	if !found {
		score, found = scoreFromText(raw)
	}

	if out.Evaluation == "" {
		return EvaluationResult{}, missing(shapeEvaluation, "evaluation", "no evaluation text in reply")
	}
	if !found {
		return EvaluationResult{}, missing(shapeEvaluation, "score", "no score in reply")
	}
	if score < MinScore || score > MaxScore {
		return EvaluationResult{}, missing(shapeEvaluation, "score", "score %d outside %d..%d", score, MinScore, MaxScore)
	}
	out.Score = score

	if err := validate(evaluationSchemaName, out); err != nil {
		return EvaluationResult{}, missing(shapeEvaluation, "evaluation", "%v", err)
	}
	return out, nil
}

// evaluationFromBrokenJSON pulls the evaluation string out of an object that
// failed to parse. The raw reply is never used as feedback in that case.
func evaluationFromBrokenJSON(raw string) string {
	m := evalString.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// scoreFromText applies the regex fallbacks: "score": N, then Score: N/10.
func scoreFromText(raw string) (int, bool) {
	for _, re := range []*regexp.Regexp{jsonScore, textScore} {
		if m := re.FindStringSubmatch(raw); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// intField accepts 8, 7.6 (rounded), "8" and "8/10".
func intField(obj map[string]json.RawMessage, names ...string) (int, bool) {
	v, ok := field(obj, names...)
	if !ok {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return int(math.Round(f)), true
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if m := leadingInts.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
