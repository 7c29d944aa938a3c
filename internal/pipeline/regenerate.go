package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"newsdesk/internal/model"
)

// Selection names the aspects of a stored article to regenerate.
type Selection struct {
	Analysis bool
	Post     bool
	Image    bool
}

// Any reports whether at least one aspect is selected.
func (s Selection) Any() bool {
	return s.Analysis || s.Post || s.Image
}

// ErrNothingSelected is returned when a regeneration run selects no aspect.
var ErrNothingSelected = errors.New("no regeneration aspects selected")

// Regenerator re-runs enrichment steps against already-stored articles.
// Unlike ingestion, an image failure here is a visible per-article failure:
// regeneration is an explicit user request, so silent partial success is
// worse than a reported failure.
type Regenerator struct {
	analyst Analyst
	posts   PostGenerator
	images  ImageGenerator
	store   Store
}

// NewRegenerator wires a regeneration pipeline.
func NewRegenerator(analyst Analyst, posts PostGenerator, images ImageGenerator, store Store) *Regenerator {
	return &Regenerator{analyst: analyst, posts: posts, images: images, store: store}
}

// Run regenerates the selected aspects for one article (articleID > 0) or
// for all stored articles. Already-applied per-field updates are kept even
// when a later step fails; there is no batch rollback.
func (p *Regenerator) Run(ctx context.Context, articleID int64, sel Selection) (*Report, error) {
	if !sel.Any() {
		return nil, ErrNothingSelected
	}
	report := newReport("regenerate")

	var articles []model.StoredArticle
	if articleID > 0 {
		a, err := p.store.Get(ctx, articleID)
		if err != nil {
			return nil, err
		}
		articles = []model.StoredArticle{a}
	} else {
		all, err := p.store.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("list articles: %w", err)
		}
		articles = all
	}

	var exs []model.Exemplar
	if sel.Analysis {
		loaded, err := exemplars(ctx, p.store)
		if err != nil {
			return nil, fmt.Errorf("load exemplars: %w", err)
		}
		exs = loaded
	}

	for _, article := range articles {
		slog.Info("regenerate: processing article", "article_id", article.ID, "title", article.Title)
		res := p.processOne(ctx, article, sel, exs)
		report.add(res)
		switch res.Outcome {
		case OutcomeUpdated:
			slog.Info("regenerate: article updated", "article_id", article.ID)
		case OutcomeSkipped:
			slog.Warn("regenerate: remaining steps skipped", "article_id", article.ID, "reason", res.Reason)
		case OutcomeFailed:
			slog.Error("regenerate: article failed",
				"article_id", article.ID, "title", article.Title, "err", res.Error)
		}
	}

	report.finish()
	slog.Info("regenerate: batch complete",
		"updated", report.Count(OutcomeUpdated),
		"skipped", report.Count(OutcomeSkipped),
		"failed", report.Count(OutcomeFailed))
	return report, nil
}

func (p *Regenerator) processOne(ctx context.Context, article model.StoredArticle, sel Selection, exs []model.Exemplar) ArticleResult {
	res := ArticleResult{ArticleID: article.ID, Title: article.Title, SourceURL: article.SourceURL}
	current := article

	if sel.Analysis {
		analysis, err := p.analyst.Analyze(ctx, current.Title, current.OriginalContent, exs)
		if err != nil {
			res.Outcome = OutcomeFailed
			res.Error = fmt.Sprintf("analyze: %v", err)
			return res
		}
		updated, err := p.store.Update(ctx, current.ID, model.ArticleUpdate{
			Category:       &analysis.Category,
			Summary:        &analysis.Summary,
			RelevanceScore: &analysis.RelevanceScore,
		})
		if err != nil {
			res.Outcome = OutcomeFailed
			res.Error = fmt.Sprintf("save analysis: %v", err)
			return res
		}
		current = updated
		slog.Info("regenerate: analysis updated",
			"article_id", current.ID,
			"category", analysis.Category,
			"score", analysis.RelevanceScore)

		// Gate on the freshly computed score only. When analysis was not
		// selected, post/image proceed on the stored score unchecked.
		if analysis.RelevanceScore < regenRelevanceGate {
			res.Outcome = OutcomeSkipped
			res.Reason = fmt.Sprintf("low relevance score %d, remaining steps skipped", analysis.RelevanceScore)
			return res
		}
	}

	if sel.Post {
		post, err := p.posts.GeneratePost(ctx, current.Title, current.Summary, current.Category)
		if err != nil {
			res.Outcome = OutcomeFailed
			res.Error = fmt.Sprintf("generate post: %v", err)
			return res
		}
		updated, err := p.store.Update(ctx, current.ID, model.ArticleUpdate{LinkedInPost: &post})
		if err != nil {
			res.Outcome = OutcomeFailed
			res.Error = fmt.Sprintf("save post: %v", err)
			return res
		}
		current = updated
	}

	if sel.Image {
		rel, err := p.images.GenerateImage(ctx, current.Title, current.Summary)
		if err != nil {
			res.Outcome = OutcomeFailed
			res.Error = fmt.Sprintf("generate image: %v", err)
			return res
		}
		if _, err := p.store.Update(ctx, current.ID, model.ArticleUpdate{GeneratedImageURL: &rel}); err != nil {
			res.Outcome = OutcomeFailed
			res.Error = fmt.Sprintf("save image path: %v", err)
			return res
		}
	}

	res.Outcome = OutcomeUpdated
	return res
}
