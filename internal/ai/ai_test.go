package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
)

const lessonJSON = `{
  "title": "Data Literacy",
  "objectives": ["Read a chart"],
  "contentBlocks": [
    {"type": "concept", "title": "Charts", "content": "A chart {shows} data.", "image": "assets/h/img_p1_0.png"}
  ],
  "quiz": {"questions": []}
}`

func TestParseLesson(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"plain", lessonJSON},
		{"json fence", "```json\n" + lessonJSON + "\n```"},
		{"bare fence", "```\n" + lessonJSON + "\n```"},
		{"chatter around object", "Here is the lesson:\n" + lessonJSON + "\nHope it helps {:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := parseLesson(tt.raw)
			if err != nil {
				t.Fatalf("parseLesson: %v", err)
			}
			if l.Title != "Data Literacy" || len(l.ContentBlocks) != 1 {
				t.Fatalf("lesson = %+v", l)
			}
			if l.ContentBlocks[0].Image != "assets/h/img_p1_0.png" {
				t.Errorf("image = %q", l.ContentBlocks[0].Image)
			}
			if string(l.Quiz) != `{"questions": []}` {
				t.Errorf("quiz = %s", l.Quiz)
			}
		})
	}
}

func TestParseLesson_Defaults(t *testing.T) {
	l, err := parseLesson(`{"title":" T ","contentBlocks":[{"title":"x","content":"y"}]}`)
	if err != nil {
		t.Fatalf("parseLesson: %v", err)
	}
	if l.Title != "T" {
		t.Errorf("title = %q", l.Title)
	}
	if l.Objectives == nil || len(l.Objectives) != 0 {
		t.Errorf("objectives = %#v, want empty slice", l.Objectives)
	}
	if string(l.Quiz) != "{}" {
		t.Errorf("quiz = %s, want {}", l.Quiz)
	}
	if l.ContentBlocks[0].Type != "concept" {
		t.Errorf("type = %q, want concept", l.ContentBlocks[0].Type)
	}
}

func TestParseLesson_Rejects(t *testing.T) {
	for name, raw := range map[string]string{
		"no json":   "sorry, I cannot help",
		"no title":  `{"contentBlocks":[{"content":"x"}]}`,
		"no blocks": `{"title":"x","contentBlocks":[]}`,
		"broken":    `{"title": "x", "contentBlocks": [`,
	} {
		if _, err := parseLesson(raw); !errors.Is(err, ErrBadResponse) {
			t.Errorf("%s: err = %v, want ErrBadResponse", name, err)
		}
	}
}

func TestFindFirstJSON_SkipsBracesInStrings(t *testing.T) {
	got := findFirstJSON(`x {"a":"}{","b":{"c":1}} y {"d":2}`)
	if got != `{"a":"}{","b":{"c":1}}` {
		t.Errorf("findFirstJSON = %q", got)
	}
}

const sampleMarkdown = "\n\n## Page 1\n\n![Image](assets/h/img_p1_0.png)\nIntroduction to AI\nMachines that learn.\n![Image](assets/h/img_p1_1.png)" +
	"\n\n\n## Page 2\n" +
	"\n\n\n## Page 3\n\nData is everything."

func TestNoop(t *testing.T) {
	l, err := Noop{}.Enrich(context.Background(), sampleMarkdown)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if l.Title != "Introduction to AI" {
		t.Errorf("title = %q", l.Title)
	}
	if len(l.ContentBlocks) != 2 {
		t.Fatalf("blocks = %+v, want 2 (empty page dropped)", l.ContentBlocks)
	}
	first := l.ContentBlocks[0]
	if first.Title != "Page 1" || first.Image != "assets/h/img_p1_0.png" || first.Content != "Introduction to AI\nMachines that learn." {
		t.Errorf("block 0 = %+v", first)
	}
	if l.ContentBlocks[1].Title != "Page 3" || l.ContentBlocks[1].Content != "Data is everything." {
		t.Errorf("block 1 = %+v", l.ContentBlocks[1])
	}
	if string(l.Quiz) != "{}" || l.Objectives == nil {
		t.Errorf("defaults missing: %+v", l)
	}
}

func TestNoop_EmptyDocument(t *testing.T) {
	l, err := Noop{Title: "handbook"}.Enrich(context.Background(), "")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if l.Title != "handbook" || len(l.ContentBlocks) != 0 {
		t.Errorf("lesson = %+v", l)
	}
	b, _ := json.Marshal(l)
	if !strings.Contains(string(b), `"contentBlocks":[]`) {
		t.Errorf("json = %s, want empty contentBlocks array", b)
	}
}

type stubEnricher struct {
	got    string
	lesson Lesson
	err    error
}

func (s *stubEnricher) Enrich(_ context.Context, md string) (Lesson, error) {
	s.got = md
	return s.lesson, s.err
}

func TestEnrichedPath(t *testing.T) {
	tests := map[string]string{
		"out/handbook_extracted.md": "out/handbook_enriched.json",
		"out/notes.md":              "out/notes_enriched.json",
	}
	for in, want := range tests {
		if got := EnrichedPath(in); got != want {
			t.Errorf("EnrichedPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnrichFile(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "handbook_extracted.md")
	if err := os.WriteFile(md, []byte(sampleMarkdown), 0o644); err != nil {
		t.Fatal(err)
	}
	stub := &stubEnricher{lesson: Lesson{
		Title:         "AI",
		Objectives:    []string{},
		ContentBlocks: []ContentBlock{{Type: "concept", Title: "t", Content: "c"}},
		Quiz:          json.RawMessage(`{}`),
	}}

	out, lesson, err := EnrichFile(context.Background(), stub, md)
	if err != nil {
		t.Fatalf("EnrichFile: %v", err)
	}
	if stub.got != sampleMarkdown {
		t.Error("enricher did not receive the markdown")
	}
	if out != filepath.Join(dir, "handbook_enriched.json") || lesson.Title != "AI" {
		t.Errorf("out = %q, lesson = %+v", out, lesson)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "{\n  \"title\": \"AI\",") {
		t.Errorf("enriched json not indented:\n%s", b)
	}
}

func TestEnrichFile_FailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "x_extracted.md")
	if err := os.WriteFile(md, []byte("text"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := EnrichFile(context.Background(), &stubEnricher{err: ErrBadResponse}, md)
	if !errors.Is(err, ErrBadResponse) {
		t.Fatalf("err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "x_enriched.json")); !os.IsNotExist(err) {
		t.Error("json written after failure")
	}
}

func TestOpenAI_Enrich(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		content, _ := json.Marshal("```json\n" + lessonJSON + "\n```")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",`+
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":`+string(content)+`}}]}`)
	}))
	defer srv.Close()

	o, err := NewOpenAI("test-key", "", srv.URL, option.WithMaxRetries(0))
	if err != nil {
		t.Fatal(err)
	}
	l, err := o.Enrich(context.Background(), "## Page 1\nhello")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if l.Title != "Data Literacy" {
		t.Errorf("title = %q", l.Title)
	}
	if body["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", body["model"])
	}
	if rf, _ := body["response_format"].(map[string]any); rf["type"] != "json_object" {
		t.Errorf("response_format = %v", body["response_format"])
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", body["messages"])
	}
}

func TestNewClientsRequireKeys(t *testing.T) {
	if _, err := NewOpenAI("", "", ""); err == nil {
		t.Error("NewOpenAI accepted an empty key")
	}
	if _, err := NewGemini(context.Background(), "", ""); err == nil {
		t.Error("NewGemini accepted an empty key")
	}
}
