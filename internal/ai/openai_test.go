package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/model"
)

// chatServer fakes the chat completions endpoint, answering every request
// with the given assistant content.
func chatServer(t *testing.T, content string) (*httptest.Server, *[]string) {
	t.Helper()
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for _, m := range req.Messages {
			prompts = append(prompts, m.Content)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &prompts
}

func newTestClient(srv *httptest.Server) *Client {
	return New(Config{
		APIKey:         "test-key",
		BaseURL:        srv.URL + "/v1",
		ChatModel:      "gpt-4o",
		AnalysisModel:  "o1",
		ContentContext: "We curate practical workplace improvement content.",
		PostLanguage:   "Farsi",
	})
}

func TestAnalyze_ValidResponse(t *testing.T) {
	srv, prompts := chatServer(t, `{
		"category": "tips",
		"summary": "Practical advice on async communication.",
		"relevance_score": 8,
		"score_explanation": "Highly actionable.",
		"similarity_to_approved": "Close to prior approved tips."
	}`)
	c := newTestClient(srv)

	exemplars := []model.Exemplar{
		{Title: "Approved one", Content: "Body", Score: 9, Category: model.CategoryTips},
	}
	res, err := c.Analyze(context.Background(), "Async habits", "Some content", exemplars)
	require.NoError(t, err)

	assert.Equal(t, model.CategoryTips, res.Category)
	assert.Equal(t, "Practical advice on async communication.", res.Summary)
	assert.Equal(t, 8, res.RelevanceScore)
	assert.Equal(t, "Highly actionable.", res.ScoreExplanation)
	assert.Equal(t, "Close to prior approved tips.", res.SimilarityToApproved)

	// Exemplars and editorial context are inlined into the prompt.
	require.Len(t, *prompts, 1)
	assert.Contains(t, (*prompts)[0], "Approved one")
	assert.Contains(t, (*prompts)[0], "Score: 9/10")
	assert.Contains(t, (*prompts)[0], "We curate practical workplace improvement content.")
}

func TestAnalyze_FencedJSON(t *testing.T) {
	srv, _ := chatServer(t, "```json\n{\"category\":\"insights\",\"summary\":\"S\",\"relevance_score\":6,\"score_explanation\":\"E\",\"similarity_to_approved\":\"X\"}\n```")
	c := newTestClient(srv)

	res, err := c.Analyze(context.Background(), "T", "C", nil)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryInsights, res.Category)
	assert.Equal(t, 6, res.RelevanceScore)
}

func TestAnalyze_ContractViolations(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"not json", "I think this article is great."},
		{"missing score", `{"category":"tips","summary":"S","score_explanation":"E","similarity_to_approved":"X"}`},
		{"score zero", `{"category":"tips","summary":"S","relevance_score":0,"score_explanation":"E","similarity_to_approved":"X"}`},
		{"score eleven", `{"category":"tips","summary":"S","relevance_score":11,"score_explanation":"E","similarity_to_approved":"X"}`},
		{"unknown category", `{"category":"opinion","summary":"S","relevance_score":5,"score_explanation":"E","similarity_to_approved":"X"}`},
		{"missing summary", `{"category":"tips","relevance_score":5,"score_explanation":"E","similarity_to_approved":"X"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := chatServer(t, tc.content)
			c := newTestClient(srv)
			_, err := c.Analyze(context.Background(), "T", "C", nil)
			require.ErrorIs(t, err, ErrAnalysisUnparsable)
		})
	}
}

func TestAnalyze_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(srv)

	_, err := c.Analyze(context.Background(), "T", "C", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAnalysisUnparsable)
}

func TestGeneratePost_ReturnsContent(t *testing.T) {
	srv, prompts := chatServer(t, "  A LinkedIn post with #hashtags\n\nand paragraphs.  ")
	c := newTestClient(srv)

	post, err := c.GeneratePost(context.Background(), "Title", "Summary", model.CategoryCaseStudies)
	require.NoError(t, err)
	assert.Equal(t, "A LinkedIn post with #hashtags\n\nand paragraphs.", post)

	require.Len(t, *prompts, 1)
	assert.Contains(t, (*prompts)[0], "Farsi")
	assert.Contains(t, (*prompts)[0], "Category: case_studies")
}

func TestGeneratePost_Failures(t *testing.T) {
	t.Run("upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, fmt.Sprintf(`{"error": {"message": %q}}`, "rate limited"), http.StatusTooManyRequests)
		}))
		t.Cleanup(srv.Close)
		c := newTestClient(srv)
		_, err := c.GeneratePost(context.Background(), "T", "S", model.CategoryTips)
		require.ErrorIs(t, err, ErrGenerationFailed)
	})

	t.Run("empty output", func(t *testing.T) {
		srv, _ := chatServer(t, "   ")
		c := newTestClient(srv)
		_, err := c.GeneratePost(context.Background(), "T", "S", model.CategoryTips)
		require.ErrorIs(t, err, ErrGenerationFailed)
	})
}
