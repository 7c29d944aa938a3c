package imagegen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var relPathPattern = regexp.MustCompile(`^articles/\d{4}/\d{2}/[0-9a-f-]{36}\.png$`)

// fakeOpenAI serves the two generation stages plus the rendered image
// download. Each stage can be failed independently.
type fakeOpenAI struct {
	srv        *httptest.Server
	promptFail bool
	imageFail  bool
	imageBytes []byte
}

func newFakeOpenAI(t *testing.T) *fakeOpenAI {
	t.Helper()
	f := &fakeOpenAI{imageBytes: []byte("fake-png-bytes")}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if f.promptFail {
			http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "An abstract corporate scene"}},
			},
		})
	})
	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		if f.imageFail {
			http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"url": f.srv.URL + "/rendered.png"}},
		})
	})
	mux.HandleFunc("/rendered.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(f.imageBytes)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeOpenAI) generator(storageDir string) *DallE {
	return NewDallE(Config{
		APIKey:     "test-key",
		BaseURL:    f.srv.URL + "/v1",
		StorageDir: storageDir,
	})
}

func TestGenerateImage_StoresUnderDatedPath(t *testing.T) {
	f := newFakeOpenAI(t)
	dir := t.TempDir()

	rel, err := f.generator(dir).GenerateImage(context.Background(), "Title", "Summary")
	require.NoError(t, err)
	assert.Regexp(t, relPathPattern, rel)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, f.imageBytes, data)
}

func TestGenerateImage_UniquePaths(t *testing.T) {
	f := newFakeOpenAI(t)
	g := f.generator(t.TempDir())

	first, err := g.GenerateImage(context.Background(), "T", "S")
	require.NoError(t, err)
	second, err := g.GenerateImage(context.Background(), "T", "S")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestGenerateImage_PromptStageFailure(t *testing.T) {
	f := newFakeOpenAI(t)
	f.promptFail = true

	_, err := f.generator(t.TempDir()).GenerateImage(context.Background(), "T", "S")
	require.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateImage_SynthesisFailure(t *testing.T) {
	f := newFakeOpenAI(t)
	f.imageFail = true

	_, err := f.generator(t.TempDir()).GenerateImage(context.Background(), "T", "S")
	require.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateImage_StorageWriteFailure(t *testing.T) {
	f := newFakeOpenAI(t)

	// Using a regular file as the storage dir makes the write fail.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := f.generator(blocker).GenerateImage(context.Background(), "T", "S")
	require.ErrorIs(t, err, ErrStorageWriteFailed)
	assert.NotErrorIs(t, err, ErrGenerationFailed)
}
