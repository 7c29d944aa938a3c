// Package handler exposes the stored articles for human review: listing,
// detail, and approval mutation.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"newsdesk/internal/model"
	"newsdesk/internal/store"
)

// ArticleStore is the persistence contract the handlers depend on.
type ArticleStore interface {
	List(ctx context.Context, f store.ListFilter) ([]model.StoredArticle, int, error)
	Get(ctx context.Context, id int64) (model.StoredArticle, error)
	Update(ctx context.Context, id int64, upd model.ArticleUpdate) (model.StoredArticle, error)
}

// RunReports serves the latest pipeline run reports.
type RunReports interface {
	LatestReport(ctx context.Context, kind string) ([]byte, error)
}

type ArticleHandler struct {
	store ArticleStore
	runs  RunReports
}

func NewArticleHandler(store ArticleStore, runs RunReports) *ArticleHandler {
	return &ArticleHandler{store: store, runs: runs}
}

const (
	defaultPageSize = 15
	maxPageSize     = 100
)

// ListArticles returns a filtered, paginated listing ordered by relevance
// score descending then publish date descending.
func (h *ArticleHandler) ListArticles(c *gin.Context) {
	f := store.ListFilter{
		Search:         c.Query("search"),
		Category:       c.Query("category"),
		ApprovalStatus: c.Query("approval_status"),
		MinScore:       intQuery(c, "min_score", 0),
		MaxScore:       intQuery(c, "max_score", 0),
		Limit:          intQuery(c, "limit", defaultPageSize),
		Offset:         intQuery(c, "offset", 0),
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Category != "" && !model.Category(f.Category).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
		return
	}
	if f.ApprovalStatus != "" && !model.ApprovalStatus(f.ApprovalStatus).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approval status"})
		return
	}

	articles, total, err := h.store.List(c.Request.Context(), f)
	if err != nil {
		slog.Error("handler: list articles failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}

	items := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		items = append(items, toArticleResponse(a))
	}
	c.JSON(http.StatusOK, listResponse{
		Articles: items,
		Total:    total,
		Limit:    f.Limit,
		Offset:   f.Offset,
	})
}

// GetArticle returns one article by id.
func (h *ArticleHandler) GetArticle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}
	article, err := h.store.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		slog.Error("handler: get article failed", "article_id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	c.JSON(http.StatusOK, toArticleResponse(article))
}

type approvalRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateApproval sets the approval status of an article. Only "approved"
// and "rejected" are accepted; everything else is rejected.
func (h *ArticleHandler) UpdateApproval(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	status := model.ApprovalStatus(req.Status)
	if status != model.ApprovalApproved && status != model.ApprovalRejected {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "status must be approved or rejected"})
		return
	}

	article, err := h.store.Update(c.Request.Context(), id, model.ArticleUpdate{ApprovalStatus: &status})
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		slog.Error("handler: approval update failed", "article_id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"new_status": article.ApprovalStatus,
	})
}

// LatestRun returns the latest recorded report of an "ingest" or
// "regenerate" run.
func (h *ArticleHandler) LatestRun(c *gin.Context) {
	kind := c.Param("kind")
	if kind != "ingest" && kind != "regenerate" {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown run kind"})
		return
	}
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run reports not configured"})
		return
	}
	raw, err := h.runs.LatestReport(c.Request.Context(), kind)
	if err != nil {
		slog.Error("handler: latest run lookup failed", "kind", kind, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "run report lookup failed"})
		return
	}
	if raw == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run recorded"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

type articleResponse struct {
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	OriginalContent   string  `json:"original_content"`
	Summary           string  `json:"summary"`
	SourceName        string  `json:"source_name"`
	SourceURL         string  `json:"source_url"`
	Category          string  `json:"category"`
	PublishedAt       string  `json:"published_at"`
	RelevanceScore    int     `json:"relevance_score"`
	LinkedInPost      *string `json:"linkedin_post"`
	GeneratedImageURL *string `json:"generated_image_url"`
	ApprovalStatus    string  `json:"approval_status"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

type listResponse struct {
	Articles []articleResponse `json:"articles"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

func toArticleResponse(a model.StoredArticle) articleResponse {
	return articleResponse{
		ID:                a.ID,
		Title:             a.Title,
		OriginalContent:   a.OriginalContent,
		Summary:           a.Summary,
		SourceName:        a.SourceName,
		SourceURL:         a.SourceURL,
		Category:          string(a.Category),
		PublishedAt:       a.PublishedAt.UTC().Format(time.RFC3339),
		RelevanceScore:    a.RelevanceScore,
		LinkedInPost:      a.LinkedInPost,
		GeneratedImageURL: a.GeneratedImageURL,
		ApprovalStatus:    string(a.ApprovalStatus),
		CreatedAt:         a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
