package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/amishk599/autojob/internal/adapter"
	"github.com/amishk599/autojob/internal/ai"
	"github.com/amishk599/autojob/internal/model"
)

const (
	defaultLocation = "unspecified"
	defaultSalary   = "negotiable"
)

// ErrNoUsablePage is returned when no search result yields enough JD text.
var ErrNoUsablePage = errors.New("no search result had a usable job description")

// Target is one company/role pair to keep in the JD cache.
type Target struct {
	Company  string
	Role     string
	Location string
	Salary   string
	Tags     string
}

// Result describes the outcome of one harvest.
type Result struct {
	Cached    bool // true when an existing record satisfied the target
	Record    model.JobRecord
	SourceURL string
}

// TargetPoller owns the cache-first pipeline for a single target:
// cache lookup → search → fetch → tag → save → notify.
type TargetPoller struct {
	target          Target
	store           model.RecordStore
	searcher        model.WebSearcher
	fetcher         model.PageFetcher
	tagger          model.TagSuggester
	notifier        model.Notifier
	minContentChars int
	logger          *slog.Logger
}

// NewTargetPoller creates a poller wired with all its dependencies.
func NewTargetPoller(
	target Target,
	store model.RecordStore,
	searcher model.WebSearcher,
	fetcher model.PageFetcher,
	tagger model.TagSuggester,
	notifier model.Notifier,
	minContentChars int,
	logger *slog.Logger,
) *TargetPoller {
	return &TargetPoller{
		target:          target,
		store:           store,
		searcher:        searcher,
		fetcher:         fetcher,
		tagger:          tagger,
		notifier:        notifier,
		minContentChars: minContentChars,
		logger:          logger,
	}
}

// Name identifies the target in logs.
func (p *TargetPoller) Name() string {
	return p.target.Company + " / " + p.target.Role
}

// Poll runs one harvest cycle and discards the result.
func (p *TargetPoller) Poll(ctx context.Context) error {
	_, err := p.Harvest(ctx)
	return err
}

// Harvest returns the cached record for the target if one exists, otherwise
// searches for the posting, saves the first page with enough text, and
// notifies about the new record.
func (p *TargetPoller) Harvest(ctx context.Context) (Result, error) {
	if rec, ok := p.cached(); ok {
		p.logger.Info("cache hit, skipping search", "company", rec.Company, "role", rec.Role, "date", rec.Date)
		return Result{Cached: true, Record: rec}, nil
	}

	query := adapter.JDQuery(p.target.Company, p.target.Role)
	results, err := p.searcher.Search(ctx, query, adapter.JDResultCount)
	if err != nil {
		return Result{}, fmt.Errorf("harvesting %s: searching: %w", p.Name(), err)
	}

	content, sourceURL, err := p.firstUsablePage(ctx, results)
	if err != nil {
		return Result{}, fmt.Errorf("harvesting %s: %w", p.Name(), err)
	}

	in := model.RecordInput{
		Company:  p.target.Company,
		Role:     p.target.Role,
		Location: orDefault(p.target.Location, defaultLocation),
		Salary:   orDefault(p.target.Salary, defaultSalary),
		Content:  content,
	}
	in.Tags = p.tags(ctx, in)

	rec, err := p.store.Save(in)
	if err != nil {
		return Result{}, fmt.Errorf("harvesting %s: saving: %w", p.Name(), err)
	}

	if err := p.notifier.Notify([]model.JobRecord{rec}); err != nil {
		return Result{Record: rec, SourceURL: sourceURL}, fmt.Errorf("harvesting %s: notifying: %w", p.Name(), err)
	}

	p.logger.Info("cached new job description",
		"company", rec.Company,
		"role", rec.Role,
		"source", sourceURL,
		"chars", utf8.RuneCountInString(content),
		"tags", len(rec.Tags),
	)
	return Result{Record: rec, SourceURL: sourceURL}, nil
}

// cached looks for an existing record with the same company and role.
func (p *TargetPoller) cached() (model.JobRecord, bool) {
	res := p.store.Query(p.target.Company)
	for _, rec := range res.Matches {
		if strings.EqualFold(strings.TrimSpace(rec.Company), strings.TrimSpace(p.target.Company)) &&
			strings.EqualFold(strings.TrimSpace(rec.Role), strings.TrimSpace(p.target.Role)) {
			return rec, true
		}
	}
	return model.JobRecord{}, false
}

func (p *TargetPoller) firstUsablePage(ctx context.Context, results []model.SearchResult) (string, string, error) {
	for _, r := range results {
		text, err := p.fetcher.FetchPage(ctx, r.URL)
		if err != nil {
			if ctx.Err() != nil {
				return "", "", ctx.Err()
			}
			p.logger.Warn("fetching search result failed", "url", r.URL, "error", err)
			continue
		}
		if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < p.minContentChars {
			p.logger.Debug("search result too short", "url", r.URL, "chars", n, "min", p.minContentChars)
			continue
		}
		return strings.TrimSpace(text), r.URL, nil
	}
	return "", "", fmt.Errorf("%w (%d results)", ErrNoUsablePage, len(results))
}

// tags merges the configured tags, company, role, and suggested tags.
// A failing suggester is logged and skipped.
func (p *TargetPoller) tags(ctx context.Context, in model.RecordInput) string {
	var suggested []string
	if p.tagger != nil {
		got, err := p.tagger.SuggestTags(ctx, in)
		if err != nil {
			p.logger.Warn("tag suggestion failed", "company", in.Company, "role", in.Role, "error", err)
		}
		for _, t := range got {
			suggested = append(suggested, model.SplitTags(t)...)
		}
	}

	merged := ai.MergeTags(0,
		model.SplitTags(p.target.Tags),
		model.SplitTags(in.Company),
		model.SplitTags(in.Role),
		suggested,
	)
	return strings.Join(merged, ", ")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
