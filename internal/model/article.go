package model

import (
	"strings"
	"time"
)

// Category classifies an article's editorial angle.
type Category string

const (
	CategoryTips        Category = "tips"
	CategoryCaseStudies Category = "case_studies"
	CategoryInsights    Category = "insights"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTips, CategoryCaseStudies, CategoryInsights:
		return true
	}
	return false
}

// ApprovalStatus is the human triage state of a stored article. It is
// independent of the automated relevance score.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is one of the known approval states.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Article is a raw candidate article as returned by the news source.
// The source URL is its external identity.
type Article struct {
	Title       string
	Description string
	Content     string
	SourceName  string
	SourceURL   string
	PublishedAt time.Time
}

// OriginalContent is the concatenated description+content persisted on
// the stored record and fed to the analyst.
func (a Article) OriginalContent() string {
	if strings.TrimSpace(a.Content) == "" {
		return a.Description
	}
	return a.Description + "\n" + a.Content
}

// AnalysisResult is the analyst's structured judgment of one article.
type AnalysisResult struct {
	Category             Category `json:"category"`
	Summary              string   `json:"summary"`
	RelevanceScore       int      `json:"relevance_score"`
	ScoreExplanation     string   `json:"score_explanation"`
	SimilarityToApproved string   `json:"similarity_to_approved"`
}

// Exemplar is a previously approved stored article supplied as
// in-context grounding to the analyst.
type Exemplar struct {
	Title    string
	Content  string
	Score    int
	Category Category
}

// StoredArticle is the persistent unit of record.
type StoredArticle struct {
	ID                int64          `json:"id"`
	Title             string         `json:"title"`
	OriginalContent   string         `json:"original_content"`
	Summary           string         `json:"summary"`
	SourceName        string         `json:"source_name"`
	SourceURL         string         `json:"source_url"`
	Category          Category       `json:"category"`
	PublishedAt       time.Time      `json:"published_at"`
	RelevanceScore    int            `json:"relevance_score"`
	LinkedInPost      *string        `json:"linkedin_post"`
	GeneratedImageURL *string        `json:"generated_image_url"`
	ApprovalStatus    ApprovalStatus `json:"approval_status"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Exemplar converts a stored article to analyst grounding input.
func (a StoredArticle) Exemplar() Exemplar {
	return Exemplar{
		Title:    a.Title,
		Content:  a.OriginalContent,
		Score:    a.RelevanceScore,
		Category: a.Category,
	}
}

// ArticleUpdate is a partial update of a stored article. Nil fields are
// left untouched.
type ArticleUpdate struct {
	Category          *Category
	Summary           *string
	RelevanceScore    *int
	LinkedInPost      *string
	GeneratedImageURL *string
	ApprovalStatus    *ApprovalStatus
}

// Empty reports whether the update carries no field at all.
func (u ArticleUpdate) Empty() bool {
	return u.Category == nil && u.Summary == nil && u.RelevanceScore == nil &&
		u.LinkedInPost == nil && u.GeneratedImageURL == nil && u.ApprovalStatus == nil
}
