package extract

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func numbered(from, to int, prefix string) string {
	var b strings.Builder
	for i := from; i <= to; i++ {
		fmt.Fprintf(&b, "%d. %s question %d?\n", i, prefix, i)
	}
	return b.String()
}

func TestQuestions_JSON(t *testing.T) {
	raw := "Sure! Here they are:\n```json\n" + `{
  "short_questions": ["S1?", "S2?", "S3?", "S4?", "S5?"],
  "descriptive_questions": ["D1?", "D2?", "D3?", "D4?", "D5?"]
}` + "\n```\nGood luck!"

	got, err := Questions(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"S1?", "S2?", "S3?", "S4?", "S5?"}, got.ShortQuestions)
	require.Equal(t, []string{"D1?", "D2?", "D3?", "D4?", "D5?"}, got.DescriptiveQuestions)
}

func TestQuestions_JSONAliasesAndObjects(t *testing.T) {
	raw := `{"simple_questions": [{"question": "1. S1"}, "S2", "S3", "S4", "S5", "S6"],
	         "complex_questions": ["D1", "D2", "D3", "D4", "D5"]}`

	got, err := Questions(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"S1", "S2", "S3", "S4", "S5"}, got.ShortQuestions)
	require.Equal(t, []string{"D1", "D2", "D3", "D4", "D5"}, got.DescriptiveQuestions)
}

func TestQuestions_TenNumberedLinesSplitInOrder(t *testing.T) {
	raw := "Short questions:\n" + numbered(1, 5, "short") + "\nDescriptive questions:\n" + numbered(6, 10, "long")

	got, err := Questions(raw)
	require.NoError(t, err)
	require.Equal(t, []string{
		"short question 1?", "short question 2?", "short question 3?", "short question 4?", "short question 5?",
	}, got.ShortQuestions)
	require.Equal(t, []string{
		"long question 6?", "long question 7?", "long question 8?", "long question 9?", "long question 10?",
	}, got.DescriptiveQuestions)
}

func TestQuestions_RestartedNumberingUsesPosition(t *testing.T) {
	raw := "**Short**\n" + numbered(1, 5, "short") + "**Descriptive**\n" + numbered(1, 5, "long")

	got, err := Questions(raw)
	require.NoError(t, err)
	require.Equal(t, "short question 1?", got.ShortQuestions[0])
	require.Equal(t, "long question 1?", got.DescriptiveQuestions[0])
	require.Equal(t, "long question 5?", got.DescriptiveQuestions[4])
}

func TestQuestions_OversizedSingleListIsSplit(t *testing.T) {
	items := make([]string, 12)
	for i := range items {
		items[i] = fmt.Sprintf("%q", fmt.Sprintf("Q%d", i+1))
	}
	tests := []struct {
		name string
		raw  string
	}{
		{"only short", `{"short_questions": [` + strings.Join(items, ",") + `], "descriptive_questions": []}`},
		{"only descriptive", `{"short_questions": [], "descriptive_questions": [` + strings.Join(items, ",") + `]}`},
		{"flat list", `{"questions": [` + strings.Join(items, ",") + `]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Questions(tt.raw)
			require.NoError(t, err)
			require.Equal(t, []string{"Q1", "Q2", "Q3", "Q4", "Q5"}, got.ShortQuestions)
			require.Equal(t, []string{"Q6", "Q7", "Q8", "Q9", "Q10"}, got.DescriptiveQuestions)
		})
	}
}

func TestQuestions_InsufficientContent(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"nine numbered lines", numbered(1, 9, "q"), "descriptive_questions"},
		{"no list at all", "I cannot help with that.", "short_questions"},
		{"json short list", `{"short_questions": ["a","b","c"], "descriptive_questions": ["d","e","f","g","h"]}`, "short_questions"},
		{"blank items dropped", `{"short_questions": ["a","b","c","d"," "], "descriptive_questions": ["d","e","f","g","h"]}`, "short_questions"},
		{"nine in one list not split", `{"short_questions": ["1","2","3","4","5","6","7","8","9"]}`, "descriptive_questions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Questions(tt.raw)
			require.ErrorIs(t, err, ErrInsufficientContent)

			var xerr *Error
			require.True(t, errors.As(err, &xerr))
			require.Equal(t, tt.field, xerr.Field)
			require.Equal(t, "insufficient_content", KindName(err))
		})
	}
}

func TestQuestions_Idempotent(t *testing.T) {
	raw := numbered(1, 10, "q")
	first, err := Questions(raw)
	require.NoError(t, err)
	second, err := Questions(raw)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestNumberedItems(t *testing.T) {
	raw := strings.Join([]string{
		"Here you go",
		"1. First",
		"  2) Second",
		"- 3: Third",
		"**4.** Fourth",
		"(5) Fifth",
		"not numbered",
		"2024 was a year",
	}, "\n")
	require.Equal(t, []string{"First", "Second", "Third", "Fourth", "Fifth"}, numberedItems(raw))
}
