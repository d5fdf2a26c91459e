package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"study-proxy/api/internal/util"
)

var greedyObject = regexp.MustCompile(`(?s)\{.*\}`)

// findObject returns the first JSON object embedded in raw.
// The greedy {...} span is tried first; when it does not parse (prose with
// braces around the object, two objects), each balanced object is tried in order.
func findObject(raw string) (map[string]json.RawMessage, bool) {
	s := util.StripCodeFences(raw)

	if span := greedyObject.FindString(s); span != "" {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(span), &obj); err == nil {
			return obj, true
		}
	}

	for start := strings.IndexByte(s, '{'); start >= 0; {
		if span, ok := balancedObject(s[start:]); ok {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal([]byte(span), &obj); err == nil {
				return obj, true
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, false
}

// balancedObject returns the prefix of s (which starts with '{') up to the
// matching closing brace. Braces inside JSON strings are ignored.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// field returns the first present key among names.
func field(obj map[string]json.RawMessage, names ...string) (json.RawMessage, bool) {
	for _, n := range names {
		if v, ok := obj[n]; ok && len(v) > 0 && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

func stringField(obj map[string]json.RawMessage, names ...string) string {
	v, ok := field(obj, names...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
