package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Well-known storage keys. Each holds a single JSON-serialized value.
const (
	KeyAuth     = "crm.auth"
	KeySpot     = "crm.spot.orders"
	KeyArticles = "crm.articles"
	KeyBanners  = "crm.banners"
)

// Record is a single persisted JSON blob. Revision increases on every write
// so that external writers to the same database file can be detected.
type Record struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	Revision  int64 `gorm:"index"`
	UpdatedAt time.Time
}

// Store is the device-local persisted state: a key/value table of JSON
// blobs. Reads are fail-soft; a missing or corrupt value degrades to the
// caller's zero value instead of returning an error.
type Store struct {
	db *gorm.DB

	mu          sync.Mutex
	subscribers map[int]func(key string)
	nextSub     int
	seen        map[string]int64
}

// Open opens (or creates) the store backed by the sqlite file at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}

	s := &Store{
		db:          db,
		subscribers: make(map[int]func(key string)),
		seen:        make(map[string]int64),
	}

	// Baseline revisions so Watch only reports writes after open.
	var records []Record
	if err := db.Find(&records).Error; err == nil {
		for _, r := range records {
			s.seen[r.Key] = r.Revision
		}
	}

	return s, nil
}

// Load reads the value under key into dest. It returns false, leaving dest
// untouched, when the key is absent or the stored JSON does not parse.
func (s *Store) Load(key string, dest any) bool {
	var record Record
	if err := s.db.Where("key = ?", key).First(&record).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("storage read failed")
		}
		return false
	}

	if err := json.Unmarshal([]byte(record.Value), dest); err != nil {
		log.Warn().Str("key", key).Msg("corrupt stored value, using default")
		return false
	}

	return true
}

// Save serializes value under key and notifies subscribers.
func (s *Store) Save(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	rev := time.Now().UnixNano()
	record := Record{Key: key, Value: string(raw), Revision: rev, UpdatedAt: time.Now()}
	if err := s.db.Save(&record).Error; err != nil {
		return err
	}

	s.mu.Lock()
	s.seen[key] = rev
	s.mu.Unlock()

	s.notify(key)
	return nil
}

// Delete removes the value under key and notifies subscribers.
func (s *Store) Delete(key string) error {
	if err := s.db.Where("key = ?", key).Delete(&Record{}).Error; err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.seen, key)
	s.mu.Unlock()

	s.notify(key)
	return nil
}

// Subscribe registers fn to run after any change to any key. The returned
// function cancels the subscription. Subscribers cannot tell whether a
// change originated in this process or was picked up by Watch.
func (s *Store) Subscribe(fn func(key string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Watch polls for revisions written by other processes sharing the same
// database file and feeds them to subscribers. Blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	logger := log.With().Str("component", "storage_watcher").Logger()
	logger.Info().Dur("interval", interval).Msg("starting storage watcher")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down storage watcher")
			return
		case <-ticker.C:
			s.pollExternal(logger)
		}
	}
}

func (s *Store) pollExternal(logger zerolog.Logger) {
	var records []Record
	if err := s.db.Select("key", "revision").Find(&records).Error; err != nil {
		logger.Error().Err(err).Msg("failed to poll storage revisions")
		return
	}

	var changed []string
	s.mu.Lock()
	for _, r := range records {
		if r.Revision > s.seen[r.Key] {
			s.seen[r.Key] = r.Revision
			changed = append(changed, r.Key)
		}
	}
	s.mu.Unlock()

	for _, key := range changed {
		logger.Debug().Str("key", key).Msg("external storage change detected")
		s.notify(key)
	}
}

func (s *Store) notify(key string) {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}
