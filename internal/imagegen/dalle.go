// Package imagegen derives an image prompt from article content and
// renders it with the OpenAI image API, persisting the result locally.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrGenerationFailed means prompt derivation, image synthesis, or the
	// download of the rendered image failed upstream.
	ErrGenerationFailed = errors.New("image generation failed")
	// ErrStorageWriteFailed means the local write could not complete. Kept
	// distinct so callers can decide whether to retain a record without an
	// image.
	ErrStorageWriteFailed = errors.New("image storage write failed")
)

// Config holds settings for the DALL-E generator.
type Config struct {
	APIKey     string
	BaseURL    string // optional
	ChatModel  string // model used to derive the image prompt
	ImageModel string
	Size       string
	Quality    string
	StorageDir string
}

// DallE generates article images in two stages: a chat call derives the
// prompt, then the image API renders it.
type DallE struct {
	client     *openai.Client
	httpClient *http.Client
	chatModel  string
	imageModel string
	size       string
	quality    string
	storageDir string
	now        func() time.Time
}

// NewDallE creates a generator from config.
func NewDallE(cfg Config) *DallE {
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
	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = openai.CreateImageModelDallE3
	}
	size := cfg.Size
	if size == "" {
		size = openai.CreateImageSize1024x1024
	}
	quality := cfg.Quality
	if quality == "" {
		quality = openai.CreateImageQualityStandard
	}
	return &DallE{
		client:     c,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		chatModel:  chatModel,
		imageModel: imageModel,
		size:       size,
		quality:    quality,
		storageDir: cfg.StorageDir,
		now:        time.Now,
	}
}

// GenerateImage renders an illustrative image for the article and stores it
// under articles/YYYY/MM/<unique>.png inside the storage dir. It returns
// the relative path; callers compose it with the storage base location.
func (d *DallE) GenerateImage(ctx context.Context, title, summary string) (string, error) {
	start := time.Now()

	prompt, err := d.derivePrompt(ctx, title, summary)
	if err != nil {
		return "", err
	}
	slog.Info("imagegen: prompt derived", "title", title, "prompt_len", len(prompt))

	resp, err := d.client.CreateImage(ctx, openai.ImageRequest{
		Model:          d.imageModel,
		Prompt:         prompt,
		Size:           d.size,
		Quality:        d.quality,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		slog.Error("imagegen: image synthesis failed", "title", title, "err", err)
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(resp.Data) == 0 || strings.TrimSpace(resp.Data[0].URL) == "" {
		return "", fmt.Errorf("%w: empty image data", ErrGenerationFailed)
	}

	rel := path.Join("articles", d.now().Format("2006/01"), uuid.NewString()+".png")
	if err := d.download(ctx, resp.Data[0].URL, rel); err != nil {
		return "", err
	}
	slog.Info("imagegen: image saved", "path", rel, "duration", time.Since(start))
	return rel, nil
}

// derivePrompt asks the chat model for a DALL-E prompt tailored to the
// article.
func (d *DallE) derivePrompt(ctx context.Context, title, summary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(`Create a detailed DALL-E prompt for a professional business image based on this article:
Title: %s
Summary: %s

The prompt should:
1. Be detailed and specific
2. Focus on professional and business-related imagery
3. Include style specifications (e.g., professional, modern, corporate)
4. Specify composition and mood
5. Be optimized for DALL-E image generation
6. Avoid any text or words in the image
7. Create an abstract or metaphorical representation of the concept

Return only the prompt text, without any explanations or quotation marks.`, title, summary)

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		slog.Error("imagegen: prompt derivation failed", "title", title, "err", err)
		return "", fmt.Errorf("%w: derive prompt: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty prompt", ErrGenerationFailed)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// download fetches the rendered image and writes it below the storage dir.
func (d *DallE) download(ctx context.Context, imageURL, rel string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("%w: build download request: %v", ErrGenerationFailed, err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: download image: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download status=%d", ErrGenerationFailed, resp.StatusCode)
	}

	abs := filepath.Join(d.storageDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("%w: create image dir: %v", ErrStorageWriteFailed, err)
	}
	f, err := os.Create(abs)
	if err != nil {
		return fmt.Errorf("%w: create image file: %v", ErrStorageWriteFailed, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("%w: write image file: %v", ErrStorageWriteFailed, err)
	}
	return nil
}
