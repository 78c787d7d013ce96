package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/autojob/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.Date(2026, 2, 14, 9, 30, 0, 0, time.Local)

func newTestJSONStore(t *testing.T) *JSONFileStore {
	t.Helper()
	s := NewJSONFileStore(filepath.Join(t.TempDir(), "jd_database.json"), discardLogger())
	s.now = func() time.Time { return fixedNow }
	return s
}

func byteDanceInput() model.RecordInput {
	return model.RecordInput{
		Company:  "ByteDance",
		Role:     "AI Engineer",
		Location: "Beijing",
		Salary:   "25k-40k/月",
		Content:  "We are looking for engineers to build LLM infrastructure.",
		Tags:     "Python, AI, Beijing",
	}
}

func mustSave(t *testing.T, s model.RecordStore, in model.RecordInput) model.JobRecord {
	t.Helper()
	rec, err := s.Save(in)
	if err != nil {
		t.Fatalf("Save(%s/%s): %v", in.Company, in.Role, err)
	}
	return rec
}

func TestJSONStore_SaveThenQuery(t *testing.T) {
	s := newTestJSONStore(t)
	mustSave(t, s, byteDanceInput())

	res := s.Query("Python")
	if !res.Found() {
		t.Fatalf("Query(Python) status = %v, want matched", res.Status)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(res.Matches))
	}
	got := res.Matches[0]
	if got.Company != "ByteDance" {
		t.Errorf("Company = %q, want ByteDance", got.Company)
	}
	if got.Date != "2026-02-14" {
		t.Errorf("Date = %q, want 2026-02-14", got.Date)
	}
	if got.Salary != "25k-40k/月" {
		t.Errorf("Salary = %q", got.Salary)
	}
}

func TestJSONStore_CaseInsensitiveMatching(t *testing.T) {
	s := newTestJSONStore(t)
	in := byteDanceInput()
	in.Content = "Artificial intelligence platform team."
	mustSave(t, s, in)

	for _, q := range []string{"ai", "AI", "artificial", "Artificial"} {
		if res := s.Query(q); !res.Found() {
			t.Errorf("Query(%q) status = %v, want matched", q, res.Status)
		}
	}
	if res := s.Query("Kubernetes"); res.Status != model.QueryNoMatch {
		t.Errorf("Query(Kubernetes) status = %v, want no_match", res.Status)
	}
}

func TestJSONStore_AnyTokenMatches(t *testing.T) {
	s := newTestJSONStore(t)
	mustSave(t, s, byteDanceInput())

	res := s.Query("Nonexistent, Python")
	if len(res.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(res.Matches))
	}
}

func TestJSONStore_ValidationLeavesStoreUnchanged(t *testing.T) {
	s := newTestJSONStore(t)

	in := byteDanceInput()
	in.Company = ""
	_, err := s.Save(in)
	var vErr *model.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *model.ValidationError, got %v", err)
	}
	var sErr *model.StorageError
	if errors.As(err, &sErr) {
		t.Fatal("validation failure reported as storage error")
	}

	if res := s.Query("Python"); res.Found() {
		t.Errorf("rejected record is queryable: %+v", res.Matches)
	}
	if n := len(s.All()); n != 0 {
		t.Errorf("All() = %d records, want 0", n)
	}
}

func TestJSONStore_MissingFileIsEmpty(t *testing.T) {
	s := newTestJSONStore(t)

	res := s.Query("Python")
	if res.Status != model.QueryEmptyStore {
		t.Fatalf("status = %v, want empty_store", res.Status)
	}
	if res.Found() {
		t.Error("Found() = true on empty store")
	}

	// The file is created lazily as an empty array.
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("backing file not created: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("backing file = %q, want []", data)
	}
}

func TestJSONStore_InvalidTags(t *testing.T) {
	s := newTestJSONStore(t)
	mustSave(t, s, byteDanceInput())

	for _, q := range []string{"", "   ", ",, ,", "\t\n"} {
		if res := s.Query(q); res.Status != model.QueryInvalidTags {
			t.Errorf("Query(%q) status = %v, want invalid_tags", q, res.Status)
		}
	}
}

func TestJSONStore_ContentTruncation(t *testing.T) {
	s := newTestJSONStore(t)
	in := byteDanceInput()
	in.Content = strings.Repeat("a", 1000)
	mustSave(t, s, in)

	res := s.Query("ByteDance")
	if len(res.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(res.Matches))
	}
	want := strings.Repeat("a", ContentPreviewLimit) + TruncationMarker
	if res.Matches[0].Content != want {
		t.Errorf("Content len = %d, want %d", len(res.Matches[0].Content), len(want))
	}

	// Stored content is untouched.
	all := s.All()
	if len(all[0].Content) != 1000 {
		t.Errorf("stored Content len = %d, want 1000", len(all[0].Content))
	}
}

func TestJSONStore_TruncationCountsCharactersNotBytes(t *testing.T) {
	s := newTestJSONStore(t)
	in := byteDanceInput()
	in.Content = strings.Repeat("岗", 600)
	mustSave(t, s, in)

	got := s.Query("AI").Matches[0].Content
	if want := strings.Repeat("岗", 500) + "..."; got != want {
		t.Errorf("Content has %d runes, want 503", len([]rune(got)))
	}
}

func TestJSONStore_SearchesFullContentNotPreview(t *testing.T) {
	s := newTestJSONStore(t)
	in := byteDanceInput()
	in.Content = strings.Repeat("x", 800) + " Kubernetes"
	mustSave(t, s, in)

	if res := s.Query("kubernetes"); !res.Found() {
		t.Error("token beyond the preview limit did not match")
	}
}

func TestJSONStore_SurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jd_database.json")
	first := NewJSONFileStore(path, discardLogger())
	saved := mustSave(t, first, byteDanceInput())

	// A fresh instance simulates a process restart.
	second := NewJSONFileStore(path, discardLogger())
	all := second.All()
	if len(all) != 1 {
		t.Fatalf("reloaded records = %d, want 1", len(all))
	}
	got := all[0]
	if got.Company != saved.Company || got.Role != saved.Role || got.Location != saved.Location ||
		got.Salary != saved.Salary || got.Content != saved.Content || got.Date != saved.Date {
		t.Errorf("reloaded record = %+v, want %+v", got, saved)
	}
	if strings.Join(got.Tags, ",") != "Python,AI,Beijing" {
		t.Errorf("reloaded tags = %q", got.Tags)
	}
}

func TestJSONStore_InsertionOrderAndDuplicates(t *testing.T) {
	s := newTestJSONStore(t)
	a := byteDanceInput()
	b := byteDanceInput()
	b.Company = "Shopee"
	b.Location = "Shanghai"
	mustSave(t, s, a)
	mustSave(t, s, b)
	mustSave(t, s, a) // duplicates accumulate

	res := s.Query("Python")
	if len(res.Matches) != 3 {
		t.Fatalf("matches = %d, want 3", len(res.Matches))
	}
	order := []string{res.Matches[0].Company, res.Matches[1].Company, res.Matches[2].Company}
	if strings.Join(order, ",") != "ByteDance,Shopee,ByteDance" {
		t.Errorf("order = %v", order)
	}
}

func TestJSONStore_CorruptFileIsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "truncated json", content: `[{"company": "Acme", "role":`},
		{name: "object instead of array", content: `{"company": "Acme"}`},
		{name: "empty file", content: ``},
		{name: "null", content: `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestJSONStore(t)
			if err := os.WriteFile(s.Path(), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if res := s.Query("Acme"); res.Status != model.QueryEmptyStore {
				t.Errorf("status = %v, want empty_store", res.Status)
			}

			// Saving over a corrupt file yields a well-formed store.
			mustSave(t, s, byteDanceInput())
			if n := len(s.All()); n != 1 {
				t.Errorf("records after save = %d, want 1", n)
			}
		})
	}
}

func TestJSONStore_MalformedRecordDoesNotHideOthers(t *testing.T) {
	s := newTestJSONStore(t)
	content := `[
  {"company": "ByteDance", "role": "AI Engineer", "tags": ["Python", "LLM"], "date": "2026-02-01"},
  {"company": "Shopee", "role": "Backend", "tags": "Go", "date": 20260202},
  "not a record",
  {"company": "Tencent", "role": "Data Engineer", "tags": ["Spark", 7]}
]`
	if err := os.WriteFile(s.Path(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if res := s.Query("Python"); !res.Found() || res.Matches[0].Company != "ByteDance" {
		t.Fatalf("Query(Python) = %+v, want the ByteDance record", res)
	}

	all := s.All()
	if len(all) != 3 {
		t.Fatalf("records = %d, want 3 (non-object element dropped)", len(all))
	}
	shopee := all[1]
	if shopee.Company != "Shopee" || len(shopee.Tags) != 0 || shopee.Date != "20260202" {
		t.Errorf("repaired record = %+v", shopee)
	}
	if got := strings.Join(all[2].Tags, ","); got != "Spark" {
		t.Errorf("tags = %q, want only the string tags", got)
	}

	// A save keeps every readable record.
	mustSave(t, s, byteDanceInput())
	if n := len(s.All()); n != 4 {
		t.Errorf("records after save = %d, want 4", n)
	}
	if res := s.Query("Shopee"); !res.Found() {
		t.Errorf("Shopee lost after save, status = %v", res.Status)
	}
}

func TestJSONStore_NullTagsLoadAsEmpty(t *testing.T) {
	s := newTestJSONStore(t)
	content := `[{"company": "Acme", "role": "Dev", "location": "", "salary": "", "content": "", "tags": null, "date": "2025-01-01"}]`
	if err := os.WriteFile(s.Path(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	res := s.Query("acme")
	if len(res.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(res.Matches))
	}
	if res.Matches[0].Tags == nil {
		t.Error("Tags = nil, want empty slice")
	}
}

func TestJSONStore_FileFormat(t *testing.T) {
	s := newTestJSONStore(t)
	mustSave(t, s, model.RecordInput{
		Company: "字节跳动",
		Role:    "算法工程师",
		Content: "熟悉 C++ & Go, <b>加分</b>",
		Tags:    "北京 算法",
	})

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "字节跳动") || !strings.Contains(text, "<b>加分</b>") {
		t.Errorf("non-ASCII or HTML text escaped on disk:\n%s", text)
	}
	if !strings.Contains(text, "\n  {\n    \"company\"") {
		t.Errorf("file is not two-space indented:\n%s", text)
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("file is not a JSON array: %v", err)
	}
	wantKeys := []string{"company", "role", "location", "salary", "content", "tags", "date"}
	if len(raw[0]) != len(wantKeys) {
		t.Errorf("record has %d keys, want %d: %v", len(raw[0]), len(wantKeys), raw[0])
	}
	for _, k := range wantKeys {
		if _, ok := raw[0][k]; !ok {
			t.Errorf("record missing key %q", k)
		}
	}
	if _, err := os.Stat(s.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}
}

func TestJSONStore_WriteFailureIsStorageError(t *testing.T) {
	// A regular file where the parent directory should be makes every write fail.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	s := NewJSONFileStore(filepath.Join(blocker, "jd_database.json"), discardLogger())

	_, err := s.Save(byteDanceInput())
	var sErr *model.StorageError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected *model.StorageError, got %v", err)
	}
	var vErr *model.ValidationError
	if errors.As(err, &vErr) {
		t.Error("storage failure reported as validation error")
	}
}

func TestJSONStore_ConcurrentSavesAreNotLost(t *testing.T) {
	s := newTestJSONStore(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := byteDanceInput()
			in.Role = fmt.Sprintf("Engineer %d", i)
			if _, err := s.Save(in); err != nil {
				t.Errorf("Save %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if got := len(s.All()); got != n {
		t.Errorf("records = %d, want %d", got, n)
	}
}

func TestJSONStore_QueryResultIsACopy(t *testing.T) {
	s := newTestJSONStore(t)
	mustSave(t, s, byteDanceInput())

	res := s.Query("Python")
	res.Matches[0].Tags[0] = "mutated"

	if got := s.All()[0].Tags[0]; got != "Python" {
		t.Errorf("stored tag = %q after caller mutation", got)
	}
}
