package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"text/template"

	"github.com/amishk599/autojob/internal/model"
)

// mockProvider is a stub LLMProvider for testing.
type mockProvider struct {
	response string
	err      error
	prompts  []string
}

func (m *mockProvider) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

func newTestTagger(provider LLMProvider) *LLMTagger {
	tmpl := template.Must(template.New("test").Parse("{{.Company}}|{{.Role}}|{{.Content}}"))
	return NewLLMTagger(provider, tmpl, nil)
}

func TestSuggestTags_SkipsEmptyContent(t *testing.T) {
	provider := &mockProvider{}
	tags, err := newTestTagger(provider).SuggestTags(context.Background(), model.RecordInput{Company: "ByteDance", Role: "AI Engineer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tags != nil {
		t.Errorf("expected nil tags, got %v", tags)
	}
	if len(provider.prompts) != 0 {
		t.Error("provider should not be called without content")
	}
}

func TestSuggestTags_RendersPromptAndParses(t *testing.T) {
	provider := &mockProvider{response: `{"tags":["Python"," LLM ","python","","Beijing"]}`}
	tags, err := newTestTagger(provider).SuggestTags(context.Background(), model.RecordInput{
		Company: " ByteDance ",
		Role:    "AI Engineer",
		Content: "Build agents with Python.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := strings.Join(tags, ","); got != "Python,LLM,Beijing" {
		t.Errorf("tags = %q, want Python,LLM,Beijing", got)
	}
	if provider.prompts[0] != "ByteDance|AI Engineer|Build agents with Python." {
		t.Errorf("prompt = %q", provider.prompts[0])
	}
}

func TestSuggestTags_CapsPromptContent(t *testing.T) {
	provider := &mockProvider{response: `{"tags":["x"]}`}
	_, err := newTestTagger(provider).SuggestTags(context.Background(), model.RecordInput{
		Company: "A", Role: "B", Content: strings.Repeat("字", maxPromptContent+100),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := strings.Count(provider.prompts[0], "字"); n != maxPromptContent {
		t.Errorf("prompt carried %d content runes, want %d", n, maxPromptContent)
	}
}

func TestSuggestTags_ProviderError(t *testing.T) {
	provider := &mockProvider{err: errors.New("timeout")}
	_, err := newTestTagger(provider).SuggestTags(context.Background(), model.RecordInput{Content: "jd"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSuggestTags_BadJSON(t *testing.T) {
	provider := &mockProvider{response: "not json"}
	_, err := newTestTagger(provider).SuggestTags(context.Background(), model.RecordInput{Content: "jd"})
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestMergeTags(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		lists [][]string
		want  string
	}{
		{"order kept", 0, [][]string{{"Python", "AI"}, {"ByteDance"}}, "Python,AI,ByteDance"},
		{"case-insensitive dedup", 0, [][]string{{"AI", "Beijing"}, {"ai", "BEIJING", "Go"}}, "AI,Beijing,Go"},
		{"blanks dropped", 0, [][]string{{" ", ""}, {" Go "}}, "Go"},
		{"limit", 2, [][]string{{"a", "b", "c"}}, "a,b"},
		{"nothing", 0, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeTags(tt.limit, tt.lists...)
			if got == nil {
				t.Fatal("MergeTags returned nil")
			}
			if s := strings.Join(got, ","); s != tt.want {
				t.Errorf("MergeTags = %q, want %q", s, tt.want)
			}
		})
	}
}

func TestTagExtractionTemplate_Renders(t *testing.T) {
	var b strings.Builder
	err := TagExtractionTemplate.Execute(&b, struct{ Company, Role, Content string }{"Shopee", "Backend Engineer", "Go microservices"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	out := b.String()
	for _, want := range []string{"Company: Shopee", "Role: Backend Engineer", "Go microservices"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered prompt missing %q", want)
		}
	}
}
