package store

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Course struct {
	ID           string
	Title        string
	Description  string
	ThumbnailURL string
}

// DefaultCourse is the course every catalog lesson is filed under.
var DefaultCourse = Course{
	ID:           "ai_ds_mastery",
	Title:        "AI & Data Science Mastery",
	Description:  "Comprehensive curriculum covering Python, Pandas, NumPy, and Computer Vision.",
	ThumbnailURL: "https://images.unsplash.com/photo-1555949963-aa79dcee981c?auto=format&fit=crop&q=80&w=1000",
}

type Lesson struct {
	ID           string
	CourseID     string
	LessonNumber int
	Title        string
	UnitTitle    string
	VideoID      string // empty is stored as NULL
	Published    bool
}

type Block struct {
	LessonID   string
	OrderIndex int
	Type       string
	Content    string
	Meta       map[string]any
}

type catalogLesson struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	LessonNumber int    `json:"lessonNumber"`
	Unit         *struct {
		Title string `json:"title"`
	} `json:"unit"`
	VideoID      string        `json:"videoId"`
	Theory       []theoryBlock `json:"theory"`
	CodeExamples []struct {
		Title       string `json:"title"`
		Code        string `json:"code"`
		Explanation string `json:"explanation"`
	} `json:"codeExamples"`
}

type theoryBlock struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Duration    any      `json:"duration"`
	Caption     string   `json:"caption"`
	URL         string   `json:"url"`
	Code        string   `json:"code"`
	Language    string   `json:"language"`
	Items       []string `json:"items"`
	Image       string   `json:"image"`
	KeyTakeaway string   `json:"keyTakeaway"`
	Diagram     *struct {
		Code  string `json:"code"`
		Title string `json:"title"`
	} `json:"diagram"`
}

var firstNumber = regexp.MustCompile(`\d+`)

// MapCatalog turns catalog entries into rows. Blocks are grouped by lesson
// id and numbered from 0 in output order.
func MapCatalog(courseID string, entries []json.RawMessage) ([]Lesson, map[string][]Block, error) {
	lessons := make([]Lesson, 0, len(entries))
	blocks := make(map[string][]Block, len(entries))
	for i, raw := range entries {
		var cl catalogLesson
		if err := json.Unmarshal(raw, &cl); err != nil {
			return nil, nil, fmt.Errorf("lesson %d: %w", i, err)
		}
		if cl.ID == "" {
			return nil, nil, fmt.Errorf("lesson %d: missing id", i)
		}
		lessons = append(lessons, mapLesson(courseID, cl))
		blocks[cl.ID] = mapBlocks(cl)
	}
	return lessons, blocks, nil
}

func mapLesson(courseID string, cl catalogLesson) Lesson {
	n := cl.LessonNumber
	if n == 0 {
		if m := firstNumber.FindString(cl.ID); m != "" {
			n, _ = strconv.Atoi(m)
		}
	}
	unit := "General"
	if cl.Unit != nil && cl.Unit.Title != "" {
		unit = cl.Unit.Title
	}
	return Lesson{
		ID:           cl.ID,
		CourseID:     courseID,
		LessonNumber: n,
		Title:        cl.Title,
		UnitTitle:    unit,
		VideoID:      cl.VideoID,
		Published:    true,
	}
}

func mapBlocks(cl catalogLesson) []Block {
	var out []Block
	add := func(typ, content string, meta map[string]any) {
		out = append(out, Block{LessonID: cl.ID, OrderIndex: len(out), Type: typ, Content: content, Meta: meta})
	}
	for _, tb := range cl.Theory {
		typ, content, meta := mapTheory(tb)
		add(typ, content, meta)
		if tb.Diagram != nil {
			title := tb.Diagram.Title
			if title == "" {
				title = "Diagram"
			}
			add("code", tb.Diagram.Code, map[string]any{"language": "mermaid", "title": title})
		}
	}
	for _, ex := range cl.CodeExamples {
		meta := map[string]any{"language": "python"}
		setIf(meta, "title", ex.Title)
		setIf(meta, "explanation", ex.Explanation)
		add("code", ex.Code, meta)
	}
	return out
}

func mapTheory(tb theoryBlock) (string, string, map[string]any) {
	meta := map[string]any{}
	setIf(meta, "title", tb.Title)
	if tb.Duration != nil {
		meta["duration"] = tb.Duration
	}
	switch {
	case tb.Type == "image":
		content := tb.Caption
		if content == "" {
			content = "Image"
		}
		setIf(meta, "image_url", tb.URL)
		setIf(meta, "caption", tb.Caption)
		return "image", content, meta
	case tb.Code != "":
		lang := tb.Language
		if lang == "" {
			lang = "python"
		}
		meta["language"] = lang
		return "code", tb.Code, meta
	case tb.Type == "list":
		items := make([]string, len(tb.Items))
		for i, it := range tb.Items {
			items[i] = "- " + it
		}
		return "text", strings.Join(items, "\n"), meta
	}
	setIf(meta, "image_url", tb.Image)
	setIf(meta, "key_takeaway", tb.KeyTakeaway)
	return "text", tb.Content, meta
}

func setIf(m map[string]any, k, v string) {
	if v != "" {
		m[k] = v
	}
}
