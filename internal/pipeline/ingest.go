package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsdesk/internal/model"
)

// Ingestor runs the fetch → dedup → analyze → gate → generate → persist
// sequence over one batch of candidate articles.
type Ingestor struct {
	source  Source
	analyst Analyst
	posts   PostGenerator
	images  ImageGenerator
	store   Store
}

// NewIngestor wires an ingestion pipeline.
func NewIngestor(source Source, analyst Analyst, posts PostGenerator, images ImageGenerator, store Store) *Ingestor {
	return &Ingestor{source: source, analyst: analyst, posts: posts, images: images, store: store}
}

// Run ingests one batch. When both bounds are non-zero the date-range fetch
// variant is used; otherwise the source's default window applies. A fetch
// failure is fatal to the run; every later failure is absorbed at
// per-article scope and recorded in the report.
func (p *Ingestor) Run(ctx context.Context, from, to time.Time) (*Report, error) {
	report := newReport("ingest")

	var articles []model.Article
	var err error
	if !from.IsZero() && !to.IsZero() {
		articles, err = p.source.FetchRange(ctx, from, to)
	} else {
		articles, err = p.source.Fetch(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}
	slog.Info("ingest: fetched articles", "count", len(articles))

	exs, err := exemplars(ctx, p.store)
	if err != nil {
		return nil, fmt.Errorf("load exemplars: %w", err)
	}

	for i, article := range articles {
		slog.Info("ingest: processing article",
			"index", i+1, "total", len(articles),
			"title", article.Title, "source_url", article.SourceURL)
		res := p.processOne(ctx, article, exs)
		report.add(res)
		switch res.Outcome {
		case OutcomeSaved:
			slog.Info("ingest: article saved", "title", article.Title, "article_id", res.ArticleID)
		case OutcomeSkipped:
			slog.Warn("ingest: article skipped", "title", article.Title, "reason", res.Reason)
		case OutcomeFailed:
			slog.Error("ingest: article failed",
				"title", article.Title, "source_url", article.SourceURL, "err", res.Error)
		}
	}

	report.finish()
	slog.Info("ingest: batch complete",
		"saved", report.Count(OutcomeSaved),
		"skipped", report.Count(OutcomeSkipped),
		"failed", report.Count(OutcomeFailed))
	return report, nil
}

func (p *Ingestor) processOne(ctx context.Context, article model.Article, exs []model.Exemplar) ArticleResult {
	res := ArticleResult{Title: article.Title, SourceURL: article.SourceURL}

	exists, err := p.store.Exists(ctx, article.SourceURL)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Error = fmt.Sprintf("check duplicate: %v", err)
		return res
	}
	if exists {
		res.Outcome = OutcomeSkipped
		res.Reason = "duplicate"
		return res
	}

	analysis, err := p.analyst.Analyze(ctx, article.Title, article.OriginalContent(), exs)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Error = fmt.Sprintf("analyze: %v", err)
		return res
	}
	if analysis.RelevanceScore < ingestRelevanceGate {
		res.Outcome = OutcomeSkipped
		res.Reason = fmt.Sprintf("low relevance score %d", analysis.RelevanceScore)
		return res
	}
	slog.Info("ingest: analysis complete",
		"title", article.Title,
		"category", analysis.Category,
		"score", analysis.RelevanceScore)

	post, err := p.posts.GeneratePost(ctx, article.Title, article.Description, analysis.Category)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Error = fmt.Sprintf("generate post: %v", err)
		return res
	}

	// An image is a nice-to-have: failure degrades to a record without one
	// instead of dropping the article.
	var imagePath *string
	if rel, err := p.images.GenerateImage(ctx, article.Title, analysis.Summary); err != nil {
		slog.Error("ingest: image generation failed, saving without image",
			"title", article.Title, "err", err)
	} else {
		imagePath = &rel
	}

	created, err := p.store.Create(ctx, model.StoredArticle{
		Title:             article.Title,
		OriginalContent:   article.OriginalContent(),
		Summary:           analysis.Summary,
		SourceName:        article.SourceName,
		SourceURL:         article.SourceURL,
		Category:          analysis.Category,
		PublishedAt:       article.PublishedAt,
		RelevanceScore:    analysis.RelevanceScore,
		LinkedInPost:      &post,
		GeneratedImageURL: imagePath,
	})
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Error = fmt.Sprintf("save article: %v", err)
		return res
	}

	res.Outcome = OutcomeSaved
	res.ArticleID = created.ID
	return res
}
