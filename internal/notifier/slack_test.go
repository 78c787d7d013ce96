package notifier

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/autojob/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRecord(role, company string) model.JobRecord {
	return model.JobRecord{
		Company:  company,
		Role:     role,
		Location: "Beijing",
		Salary:   "25k-40k/月",
		Content:  "Build LLM agents.",
		Tags:     []string{"Python", "AI"},
		Date:     "2026-02-14",
	}
}

// newTestSlack returns a notifier that records sleeps instead of blocking.
func newTestSlack(url string, client *http.Client) (*SlackNotifier, *[]time.Duration) {
	var slept []time.Duration
	n := NewSlackNotifier(url, client, discardLogger())
	n.sleep = func(d time.Duration) { slept = append(slept, d) }
	return n, &slept
}

func TestSlackNotifier_EmptyRecords(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n, _ := newTestSlack(srv.URL, srv.Client())

	if err := n.Notify(nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify([]model.JobRecord{}); err != nil {
		t.Errorf("Notify([]) = %v, want nil", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 HTTP calls, got %d", c)
	}
}

func TestSlackNotifier_SingleRecord(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n, _ := newTestSlack(srv.URL, srv.Client())
	if err := n.Notify([]model.JobRecord{sampleRecord("AI Engineer", "ByteDance")}); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if got := payload.Blocks[0].Text.Text; got != "📌 ByteDance: AI Engineer" {
		t.Errorf("header text = %q, want company: role", got)
	}
	if got := payload.Blocks[1].Fields[0].Text; got != "*Company:*\nByteDance" {
		t.Errorf("company field = %q", got)
	}
	if got := payload.Blocks[2].Fields[0].Text; got != "*Salary:*\n25k-40k/月" {
		t.Errorf("salary field = %q", got)
	}
	if got := payload.Blocks[3].Text.Text; got != "*Tags:* Python, AI" {
		t.Errorf("tags section = %q", got)
	}
}

func TestSlackNotifier_MultipleRecordsPauseBetweenMessages(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n, slept := newTestSlack(srv.URL, srv.Client())
	records := []model.JobRecord{
		sampleRecord("Engineer 1", "A"),
		sampleRecord("Engineer 2", "B"),
		sampleRecord("Engineer 3", "C"),
	}

	if err := n.Notify(records); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}
	if c := calls.Load(); c != 3 {
		t.Errorf("expected 3 HTTP calls, got %d", c)
	}
	if len(*slept) != 2 || (*slept)[0] != 500*time.Millisecond {
		t.Errorf("sleeps = %v, want two 500ms pauses", *slept)
	}
}

func TestSlackNotifier_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n, _ := newTestSlack(srv.URL, srv.Client())
	records := []model.JobRecord{
		sampleRecord("A", "X"),
		sampleRecord("B", "Y"),
		sampleRecord("C", "Z"),
	}

	if err := n.Notify(records); err == nil {
		t.Error("expected error when all messages fail, got nil")
	}
}

func TestSlackNotifier_PartialFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
		} else {
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	n, _ := newTestSlack(srv.URL, srv.Client())
	records := []model.JobRecord{
		sampleRecord("Fails", "A"),
		sampleRecord("Succeeds", "B"),
	}

	if err := n.Notify(records); err != nil {
		t.Errorf("expected nil (partial success), got %v", err)
	}
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
		} else {
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	n, slept := newTestSlack(srv.URL, srv.Client())
	if err := n.Notify([]model.JobRecord{sampleRecord("Rate Limited", "Test")}); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
	if len(*slept) != 1 || (*slept)[0] != 2*time.Second {
		t.Errorf("sleeps = %v, want one 2s Retry-After wait", *slept)
	}
}

func TestSlackNotifier_PayloadFormat(t *testing.T) {
	rec := model.JobRecord{
		Company: "TestCo",
		Role:    "SRE",
		Content: strings.Repeat("x", 400),
		Tags:    []string{},
		Date:    "2026-02-14",
	}

	payload := buildPayload(rec)

	// header, two field sections, content, divider (no tags section)
	if len(payload.Blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(payload.Blocks))
	}
	if payload.Blocks[0].Type != "header" {
		t.Errorf("block[0] type = %q, want header", payload.Blocks[0].Type)
	}
	if payload.Blocks[1].Type != "section" || len(payload.Blocks[1].Fields) != 2 {
		t.Errorf("block[1] not a 2-field section")
	}
	if got := payload.Blocks[1].Fields[1].Text; got != "*Location:*\n-" {
		t.Errorf("empty location field = %q", got)
	}
	if got := payload.Blocks[3].Text.Text; got != strings.Repeat("x", 280)+"..." {
		t.Errorf("content preview length = %d", len(got))
	}
	if payload.Blocks[4].Type != "divider" {
		t.Errorf("block[4] type = %q, want divider", payload.Blocks[4].Type)
	}
}

func TestSendTestMessage(t *testing.T) {
	var got []model.JobRecord
	fake := notifyFunc(func(records []model.JobRecord) error {
		got = records
		return nil
	})
	if err := SendTestMessage(fake); err != nil {
		t.Fatalf("SendTestMessage: %v", err)
	}
	if len(got) != 1 || got[0].Company != "autojob" || len(got[0].Date) != len("2006-01-02") {
		t.Errorf("test record = %+v", got)
	}
}

type notifyFunc func([]model.JobRecord) error

func (f notifyFunc) Notify(records []model.JobRecord) error { return f(records) }
