// Package content holds the device-local editorial state: rich-text
// articles and promotional banners. Unlike the CRM collections these never
// round-trip to the backend; they live entirely in device storage.
package content

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crmkit/portal-api/internal/storage"
)

var ErrNotFound = errors.New("content: not found")

// Article is a locally-authored rich-text article.
type Article struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	CoverURL    string   `json:"coverUrl,omitempty"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"` // draft, published
	ContentHTML string   `json:"contentHtml"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// ArticleInput is the write payload for articles.
type ArticleInput struct {
	Title       string   `json:"title" binding:"required"`
	CoverURL    string   `json:"coverUrl,omitempty"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status" binding:"required,oneof=draft published"`
	ContentHTML string   `json:"contentHtml"`
}

// ArticleStore persists the article array under a fixed storage key.
type ArticleStore struct {
	mu      sync.Mutex
	storage *storage.Store
}

// NewArticleStore creates an article store over device storage.
func NewArticleStore(st *storage.Store) *ArticleStore {
	return &ArticleStore{storage: st}
}

// List returns all articles. Missing or corrupt data degrades to empty.
func (s *ArticleStore) List() []Article {
	var list []Article
	s.storage.Load(storage.KeyArticles, &list)
	return list
}

// Create appends a new article and persists.
func (s *ArticleStore) Create(in ArticleInput) (Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	a := Article{
		ID:          uuid.NewString(),
		Title:       in.Title,
		CoverURL:    in.CoverURL,
		Tags:        in.Tags,
		Status:      in.Status,
		ContentHTML: in.ContentHTML,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	list := append([]Article{a}, s.List()...)
	if err := s.storage.Save(storage.KeyArticles, list); err != nil {
		return Article{}, err
	}
	return a, nil
}

// Update replaces an article's editable fields and persists.
func (s *ArticleStore) Update(id string, in ArticleInput) (Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.List()
	for i := range list {
		if list[i].ID != id {
			continue
		}
		list[i].Title = in.Title
		list[i].CoverURL = in.CoverURL
		list[i].Tags = in.Tags
		list[i].Status = in.Status
		list[i].ContentHTML = in.ContentHTML
		list[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)

		if err := s.storage.Save(storage.KeyArticles, list); err != nil {
			return Article{}, err
		}
		return list[i], nil
	}
	return Article{}, ErrNotFound
}

// Delete removes an article and persists.
func (s *ArticleStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.List()
	for i := range list {
		if list[i].ID == id {
			list = append(list[:i], list[i+1:]...)
			return s.storage.Save(storage.KeyArticles, list)
		}
	}
	return ErrNotFound
}
