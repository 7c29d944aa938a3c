// Package pipeline orchestrates article ingestion and regeneration. Both
// pipelines process articles strictly sequentially and isolate faults at
// per-article granularity: a batch always runs to completion and reports a
// per-article outcome instead of aborting.
package pipeline

import (
	"context"
	"time"

	"newsdesk/internal/model"
)

// Relevance gates. The ingest/regenerate asymmetry matches observed product
// behavior and is kept until clarified.
const (
	ingestRelevanceGate = 6
	regenRelevanceGate  = 7

	exemplarLimit = 5
)

// Source fetches candidate articles from the news API.
type Source interface {
	Fetch(ctx context.Context) ([]model.Article, error)
	FetchRange(ctx context.Context, from, to time.Time) ([]model.Article, error)
}

// Analyst scores and categorizes an article against approved exemplars.
type Analyst interface {
	Analyze(ctx context.Context, title, content string, exemplars []model.Exemplar) (model.AnalysisResult, error)
}

// PostGenerator writes a LinkedIn post for an article.
type PostGenerator interface {
	GeneratePost(ctx context.Context, title, summary string, category model.Category) (string, error)
}

// ImageGenerator renders and stores an illustrative image, returning its
// relative storage path.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, title, summary string) (string, error)
}

// Store is the article persistence contract the pipelines depend on.
type Store interface {
	Exists(ctx context.Context, sourceURL string) (bool, error)
	Create(ctx context.Context, a model.StoredArticle) (model.StoredArticle, error)
	Update(ctx context.Context, id int64, upd model.ArticleUpdate) (model.StoredArticle, error)
	Get(ctx context.Context, id int64) (model.StoredArticle, error)
	All(ctx context.Context) ([]model.StoredArticle, error)
	ListApproved(ctx context.Context, limit int) ([]model.StoredArticle, error)
}

// Outcome is the terminal state of one article within a batch.
type Outcome string

const (
	OutcomeSaved   Outcome = "saved"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// ArticleResult records one article's terminal state. It replaces
// catch-and-continue exception flow with an explicit result channel.
type ArticleResult struct {
	ArticleID int64   `json:"article_id,omitempty"`
	Title     string  `json:"title"`
	SourceURL string  `json:"source_url,omitempty"`
	Outcome   Outcome `json:"outcome"`
	Reason    string  `json:"reason,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Report is the aggregate outcome of one pipeline run.
type Report struct {
	Kind       string          `json:"kind"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Results    []ArticleResult `json:"results"`
}

func newReport(kind string) *Report {
	return &Report{Kind: kind, StartedAt: time.Now().UTC()}
}

func (r *Report) add(res ArticleResult) {
	r.Results = append(r.Results, res)
}

func (r *Report) finish() {
	r.FinishedAt = time.Now().UTC()
}

// Count returns the number of results with the given outcome.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Failures returns the failed results.
func (r *Report) Failures() []ArticleResult {
	var out []ArticleResult
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			out = append(out, res)
		}
	}
	return out
}

// HasFailures reports whether any article in the batch failed.
func (r *Report) HasFailures() bool {
	return r.Count(OutcomeFailed) > 0
}

// exemplars loads the top approved articles used to ground analysis. With a
// single writer active per batch, approvals cannot change mid-run, so one
// load per batch is equivalent to one per article.
func exemplars(ctx context.Context, store Store) ([]model.Exemplar, error) {
	approved, err := store.ListApproved(ctx, exemplarLimit)
	if err != nil {
		return nil, err
	}
	out := make([]model.Exemplar, 0, len(approved))
	for _, a := range approved {
		out = append(out, a.Exemplar())
	}
	return out, nil
}
