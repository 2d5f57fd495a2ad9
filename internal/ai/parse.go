package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrBadResponse reports model output that is not a usable lesson.
var ErrBadResponse = errors.New("invalid lesson response")

// parseLesson decodes a model response. Code fences and text around the
// first JSON object are tolerated.
func parseLesson(raw string) (Lesson, error) {
	var out Lesson
	js := stripCodeFences(raw)
	if err := json.Unmarshal([]byte(js), &out); err != nil {
		s := findFirstJSON(js)
		if s == "" {
			return Lesson{}, fmt.Errorf("%w: no JSON object found: %v", ErrBadResponse, err)
		}
		out = Lesson{}
		if err2 := json.Unmarshal([]byte(s), &out); err2 != nil {
			return Lesson{}, fmt.Errorf("%w: %v (original error: %v)", ErrBadResponse, err2, err)
		}
	}
	out.Title = strings.TrimSpace(out.Title)
	if out.Title == "" {
		return Lesson{}, fmt.Errorf("%w: missing title", ErrBadResponse)
	}
	if len(out.ContentBlocks) == 0 {
		return Lesson{}, fmt.Errorf("%w: no content blocks", ErrBadResponse)
	}
	return withDefaults(out), nil
}

func withDefaults(l Lesson) Lesson {
	if l.ContentBlocks == nil {
		l.ContentBlocks = []ContentBlock{}
	}
	for i := range l.ContentBlocks {
		if l.ContentBlocks[i].Type == "" {
			l.ContentBlocks[i].Type = "concept"
		}
	}
	if l.Objectives == nil {
		l.Objectives = []string{}
	}
	if q := bytes.TrimSpace(l.Quiz); len(q) == 0 || bytes.Equal(q, []byte("null")) {
		l.Quiz = json.RawMessage("{}")
	}
	return l
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// findFirstJSON returns the first balanced {...} object in s. Braces inside
// JSON strings are skipped.
func findFirstJSON(s string) string {
	start, depth := -1, 0
	inString, escaped := false, false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if start != -1 {
				inString = true
			}
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
