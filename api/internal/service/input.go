package service

import (
	"strings"
	"unicode/utf8"

	"study-proxy/api/internal/llm"
	"study-proxy/api/internal/util"
)

const (
	MaxTokens         = 16384
	ReservedTokens    = 1000
	MaxSyllabusTokens = MaxTokens - ReservedTokens
)

// QuestionsInput carries the syllabus as text or as an image, never both.
type QuestionsInput struct {
	Text  string
	Image *llm.Image
}

// EvaluateInput is a question image and the student's answer image.
type EvaluateInput struct {
	Question llm.Image
	Answer   llm.Image
}

// EstimateTokens is a rough ⌈runes/4⌉ count.
func EstimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + 3) / 4
}

func checkTopic(topic string) (string, error) {
	if topic == "" {
		return "", invalid("topic", "No topic provided")
	}
	t := strings.TrimSpace(topic)
	if t == "" {
		return "", invalid("topic", "Empty topic provided")
	}
	return t, nil
}

func checkSyllabus(in QuestionsInput) (QuestionsInput, error) {
	hasText := strings.TrimSpace(in.Text) != ""
	hasImage := in.Image != nil
	switch {
	case hasText && hasImage:
		return in, invalid("syllabus", "Provide either syllabus_text or syllabus_image, not both")
	case hasImage:
		img, err := checkImage("syllabus_image", *in.Image)
		if err != nil {
			return in, err
		}
		return QuestionsInput{Image: &img}, nil
	case in.Text != "":
		if !hasText {
			return in, invalid("syllabus_text", "Empty syllabus provided")
		}
	default:
		return in, invalid("syllabus", "No syllabus provided")
	}
	text := strings.TrimSpace(in.Text)
	if n := EstimateTokens(text); n > MaxSyllabusTokens {
		return in, invalid("syllabus_text", "Syllabus is too long: about %d tokens, limit is %d", n, MaxSyllabusTokens)
	}
	return QuestionsInput{Text: text}, nil
}

func checkImage(field string, img llm.Image) (llm.Image, error) {
	if len(img.Data) == 0 {
		return img, invalid(field, "No %s provided", field)
	}
	mime := util.PickMIME(img.MIME, img.Data)
	if !util.IsImageMIME(mime) {
		return img, invalid(field, "%s must be a JPEG, PNG, WebP or GIF image, got %s", field, mime)
	}
	if mime == "image/jpg" {
		mime = "image/jpeg"
	}
	return llm.Image{MIME: mime, Data: img.Data}, nil
}
