package pipeline_test

import (
	"context"
	"errors"
	"time"

	"newsdesk/internal/model"
)

var errNotFound = errors.New("fake: article not found")

type fakeSource struct {
	articles    []model.Article
	err         error
	fetchCalls  int
	rangeCalls  int
	gotFrom     time.Time
	gotTo       time.Time
}

func (s *fakeSource) Fetch(ctx context.Context) ([]model.Article, error) {
	s.fetchCalls++
	return s.articles, s.err
}

func (s *fakeSource) FetchRange(ctx context.Context, from, to time.Time) ([]model.Article, error) {
	s.rangeCalls++
	s.gotFrom, s.gotTo = from, to
	return s.articles, s.err
}

type fakeAnalyst struct {
	results      map[string]model.AnalysisResult
	errs         map[string]error
	analyzed     []string
	gotExemplars []model.Exemplar
}

func (a *fakeAnalyst) Analyze(ctx context.Context, title, content string, exemplars []model.Exemplar) (model.AnalysisResult, error) {
	a.analyzed = append(a.analyzed, title)
	a.gotExemplars = exemplars
	if err := a.errs[title]; err != nil {
		return model.AnalysisResult{}, err
	}
	return a.results[title], nil
}

type fakePosts struct {
	post  string
	err   error
	calls []string
}

func (p *fakePosts) GeneratePost(ctx context.Context, title, summary string, category model.Category) (string, error) {
	p.calls = append(p.calls, title)
	if p.err != nil {
		return "", p.err
	}
	if p.post == "" {
		return "generated post for " + title, nil
	}
	return p.post, nil
}

type fakeImages struct {
	path  string
	err   error
	calls []string
}

func (i *fakeImages) GenerateImage(ctx context.Context, title, summary string) (string, error) {
	i.calls = append(i.calls, title)
	if i.err != nil {
		return "", i.err
	}
	if i.path == "" {
		return "articles/2025/03/generated.png", nil
	}
	return i.path, nil
}

type fakeStore struct {
	existing  map[string]bool
	articles  map[int64]model.StoredArticle
	approved  []model.StoredArticle
	nextID    int64
	created   []model.StoredArticle
	updates   map[int64][]model.ArticleUpdate
	createErr error
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		existing: map[string]bool{},
		articles: map[int64]model.StoredArticle{},
		updates:  map[int64][]model.ArticleUpdate{},
	}
}

func (s *fakeStore) put(a model.StoredArticle) {
	if a.ID == 0 {
		s.nextID++
		a.ID = s.nextID
	} else if a.ID > s.nextID {
		s.nextID = a.ID
	}
	s.articles[a.ID] = a
	s.existing[a.SourceURL] = true
}

func (s *fakeStore) Exists(ctx context.Context, sourceURL string) (bool, error) {
	return s.existing[sourceURL], nil
}

func (s *fakeStore) Create(ctx context.Context, a model.StoredArticle) (model.StoredArticle, error) {
	if s.createErr != nil {
		return model.StoredArticle{}, s.createErr
	}
	s.nextID++
	a.ID = s.nextID
	a.ApprovalStatus = model.ApprovalPending
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	s.articles[a.ID] = a
	s.existing[a.SourceURL] = true
	s.created = append(s.created, a)
	return a, nil
}

func (s *fakeStore) Update(ctx context.Context, id int64, upd model.ArticleUpdate) (model.StoredArticle, error) {
	if s.updateErr != nil {
		return model.StoredArticle{}, s.updateErr
	}
	a, ok := s.articles[id]
	if !ok {
		return model.StoredArticle{}, errNotFound
	}
	if upd.Category != nil {
		a.Category = *upd.Category
	}
	if upd.Summary != nil {
		a.Summary = *upd.Summary
	}
	if upd.RelevanceScore != nil {
		a.RelevanceScore = *upd.RelevanceScore
	}
	if upd.LinkedInPost != nil {
		a.LinkedInPost = upd.LinkedInPost
	}
	if upd.GeneratedImageURL != nil {
		a.GeneratedImageURL = upd.GeneratedImageURL
	}
	if upd.ApprovalStatus != nil {
		a.ApprovalStatus = *upd.ApprovalStatus
	}
	a.UpdatedAt = time.Now().UTC()
	s.articles[id] = a
	s.updates[id] = append(s.updates[id], upd)
	return a, nil
}

func (s *fakeStore) Get(ctx context.Context, id int64) (model.StoredArticle, error) {
	a, ok := s.articles[id]
	if !ok {
		return model.StoredArticle{}, errNotFound
	}
	return a, nil
}

func (s *fakeStore) All(ctx context.Context) ([]model.StoredArticle, error) {
	out := make([]model.StoredArticle, 0, len(s.articles))
	for id := int64(1); id <= s.nextID; id++ {
		if a, ok := s.articles[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) ListApproved(ctx context.Context, limit int) ([]model.StoredArticle, error) {
	if len(s.approved) > limit {
		return s.approved[:limit], nil
	}
	return s.approved, nil
}

func strPtr(s string) *string { return &s }
