package content

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crmkit/portal-api/internal/storage"
)

// Banner is a promotional placement slot.
type Banner struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Position  string `json:"position"` // HOME_TOP, HOME_MID, ...
	Status    string `json:"status"`   // DRAFT, ONLINE, OFFLINE
	ImageURL  string `json:"imageUrl,omitempty"`
	LinkURL   string `json:"linkUrl,omitempty"`
	Locale    string `json:"locale,omitempty"`
	StartAt   string `json:"startAt,omitempty"`
	EndAt     string `json:"endAt,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// BannerInput is the write payload for banners.
type BannerInput struct {
	Name     string `json:"name" binding:"required"`
	Position string `json:"position" binding:"required"`
	Status   string `json:"status" binding:"required,oneof=DRAFT ONLINE OFFLINE"`
	ImageURL string `json:"imageUrl,omitempty"`
	LinkURL  string `json:"linkUrl,omitempty"`
	Locale   string `json:"locale,omitempty"`
	StartAt  string `json:"startAt,omitempty"`
	EndAt    string `json:"endAt,omitempty"`
}

// BannerStore persists the banner array under a fixed storage key.
type BannerStore struct {
	mu      sync.Mutex
	storage *storage.Store
}

// NewBannerStore creates a banner store over device storage.
func NewBannerStore(st *storage.Store) *BannerStore {
	return &BannerStore{storage: st}
}

// List returns all banners. Missing or corrupt data degrades to empty.
func (s *BannerStore) List() []Banner {
	var list []Banner
	s.storage.Load(storage.KeyBanners, &list)
	return list
}

// Create appends a new banner and persists.
func (s *BannerStore) Create(in BannerInput) (Banner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	b := Banner{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Position:  in.Position,
		Status:    in.Status,
		ImageURL:  in.ImageURL,
		LinkURL:   in.LinkURL,
		Locale:    in.Locale,
		StartAt:   in.StartAt,
		EndAt:     in.EndAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	list := append([]Banner{b}, s.List()...)
	if err := s.storage.Save(storage.KeyBanners, list); err != nil {
		return Banner{}, err
	}
	return b, nil
}

// Update replaces a banner's editable fields and persists.
func (s *BannerStore) Update(id string, in BannerInput) (Banner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.List()
	for i := range list {
		if list[i].ID != id {
			continue
		}
		list[i].Name = in.Name
		list[i].Position = in.Position
		list[i].Status = in.Status
		list[i].ImageURL = in.ImageURL
		list[i].LinkURL = in.LinkURL
		list[i].Locale = in.Locale
		list[i].StartAt = in.StartAt
		list[i].EndAt = in.EndAt
		list[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)

		if err := s.storage.Save(storage.KeyBanners, list); err != nil {
			return Banner{}, err
		}
		return list[i], nil
	}
	return Banner{}, ErrNotFound
}

// Delete removes a banner and persists.
func (s *BannerStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.List()
	for i := range list {
		if list[i].ID == id {
			list = append(list[:i], list[i+1:]...)
			return s.storage.Save(storage.KeyBanners, list)
		}
	}
	return ErrNotFound
}
