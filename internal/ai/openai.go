// Package ai wraps the OpenAI chat API for article analysis and
// LinkedIn post generation.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsdesk/internal/model"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrAnalysisUnparsable means the model response did not decode to a
	// well-formed analysis result. No retry is performed here; retry policy
	// belongs to the caller.
	ErrAnalysisUnparsable = errors.New("analysis response unparsable")
	// ErrGenerationFailed means the upstream generation call failed or
	// returned empty output.
	ErrGenerationFailed = errors.New("generation failed")
)

// Config holds settings for the OpenAI-backed clients.
type Config struct {
	APIKey         string
	BaseURL        string // optional
	ChatModel      string
	AnalysisModel  string
	ContentContext string
	PostLanguage   string
}

// Client implements article analysis and post generation using the OpenAI
// Chat Completions API.
type Client struct {
	client         *openai.Client
	chatModel      string
	analysisModel  string
	contentContext string
	postLanguage   string
}

// New creates an OpenAI client from config.
func New(cfg Config) *Client {
	var c *openai.Client
	if cfg.BaseURL != "" {
		cc := openai.DefaultConfig(cfg.APIKey)
		cc.BaseURL = cfg.BaseURL
		c = openai.NewClientWithConfig(cc)
	} else {
		c = openai.NewClient(cfg.APIKey)
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = "gpt-4o"
	}
	analysisModel := cfg.AnalysisModel
	if analysisModel == "" {
		analysisModel = "o1"
	}
	language := strings.TrimSpace(cfg.PostLanguage)
	if language == "" {
		language = "Farsi"
	}
	return &Client{
		client:         c,
		chatModel:      chatModel,
		analysisModel:  analysisModel,
		contentContext: cfg.ContentContext,
		postLanguage:   language,
	}
}

// Analyze scores and categorizes an article against the supplied approved
// exemplars. The exemplars ground the model's scoring in a known-good
// baseline.
func (c *Client) Analyze(ctx context.Context, title, content string, exemplars []model.Exemplar) (model.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 300*time.Second)
	defer cancel()

	prompt := buildAnalysisPrompt(c.contentContext, title, content, exemplars)
	out, err := c.create(ctx, c.analysisModel, "", prompt)
	if err != nil {
		slog.Error("ai: analysis request failed", "title", title, "err", err)
		return model.AnalysisResult{}, fmt.Errorf("analyze article: %w", err)
	}
	res, err := decodeAnalysis(out)
	if err != nil {
		slog.Error("ai: analysis response rejected", "title", title, "err", err)
		return model.AnalysisResult{}, err
	}
	return res, nil
}

// GeneratePost writes a LinkedIn post for the article in the configured
// language. The output is treated as opaque text beyond non-emptiness.
func (c *Client) GeneratePost(ctx context.Context, title, summary string, category model.Category) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(`Create a professional LinkedIn post in %s language about this article:
Title: %s
Summary: %s
Category: %s

The post should:
1. Be engaging and professional
2. Highlight key takeaways from each major section of the article, explaining each point thoroughly
3. Include relevant hashtags at the end
4. Maintain proper %[1]s grammar and writing style
5. Be formatted for LinkedIn with proper line breaks
6. Include a call to action
7. Use line breaks between paragraphs (use actual newlines)
8. Format the text with:
   - Empty lines between paragraphs
   - Separate hashtags with spaces
   - Clear visual hierarchy
9. Keep technical terms, product names, or specific concepts that don't have meaningful %[1]s translations in English
10. Provide clear explanations for any technical concepts or industry-specific terms

Return the post with proper line breaks preserved, ready to be copied directly to LinkedIn.`,
		c.postLanguage, title, summary, category)

	out, err := c.create(ctx, c.chatModel, "", prompt)
	if err != nil {
		slog.Error("ai: post generation failed", "title", title, "err", err)
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	post := strings.TrimSpace(out)
	if post == "" {
		return "", fmt.Errorf("%w: empty post", ErrGenerationFailed)
	}
	return post, nil
}

func (c *Client) create(ctx context.Context, chatModel, system, user string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: user,
	})
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    chatModel,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildAnalysisPrompt(contentContext, title, content string, exemplars []model.Exemplar) string {
	b := &strings.Builder{}
	if len(exemplars) > 0 {
		b.WriteString("Here are some examples of previously approved articles and their scores:\n\n")
		for _, ex := range exemplars {
			fmt.Fprintf(b, "Title: %s\n", ex.Title)
			fmt.Fprintf(b, "Content: %s\n", ex.Content)
			fmt.Fprintf(b, "Score: %d/10\n", ex.Score)
			fmt.Fprintf(b, "Category: %s\n\n", ex.Category)
		}
	}
	return fmt.Sprintf(`Based on the following article and context, please analyze and categorize the content:

CONTEXT:
%s

%s
ARTICLE TO ANALYZE:
Title: %s
Content: %s

Please analyze this article considering:
1. How well it matches our editorial goals and focus
2. Its similarity to previously approved high-scoring articles
3. The practicality and actionability of its content
4. The relevance to workplace improvement
5. The quality and depth of insights provided

Respond in JSON format:
{
    "category": "category_here (choose exactly one of: tips, case_studies, insights)",
    "summary": "concise_2_3_sentence_summary_here",
    "relevance_score": number_between_1_and_10,
    "score_explanation": "detailed_explanation_of_score_considering_all_factors",
    "similarity_to_approved": "explanation_of_how_it_compares_to_approved_articles"
}`, contentContext, b.String(), title, content)
}

// decodeAnalysis validates-then-decodes the model output. Any deviation
// from the expected shape is a contract violation, not something to clamp.
func decodeAnalysis(out string) (model.AnalysisResult, error) {
	var parsed struct {
		Category             string `json:"category"`
		Summary              string `json:"summary"`
		RelevanceScore       *int   `json:"relevance_score"`
		ScoreExplanation     string `json:"score_explanation"`
		SimilarityToApproved string `json:"similarity_to_approved"`
	}
	if err := json.Unmarshal([]byte(cleanJSONResponse(out)), &parsed); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("%w: %v", ErrAnalysisUnparsable, err)
	}
	if parsed.RelevanceScore == nil {
		return model.AnalysisResult{}, fmt.Errorf("%w: relevance_score missing", ErrAnalysisUnparsable)
	}
	if err := (validation.Errors{
		"category": validation.Validate(parsed.Category,
			validation.Required,
			validation.In(string(model.CategoryTips), string(model.CategoryCaseStudies), string(model.CategoryInsights)),
		),
		"summary":         validation.Validate(parsed.Summary, validation.Required),
		"relevance_score": validation.Validate(*parsed.RelevanceScore, validation.Min(1), validation.Max(10)),
	}).Filter(); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("%w: %v", ErrAnalysisUnparsable, err)
	}
	return model.AnalysisResult{
		Category:             model.Category(parsed.Category),
		Summary:              parsed.Summary,
		RelevanceScore:       *parsed.RelevanceScore,
		ScoreExplanation:     parsed.ScoreExplanation,
		SimilarityToApproved: parsed.SimilarityToApproved,
	}, nil
}

// cleanJSONResponse strips markdown code fences some models wrap around
// JSON output.
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
