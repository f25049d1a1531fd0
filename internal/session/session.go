package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crmkit/portal-api/internal/storage"
)

// Identity carries the optional user fields returned by the login endpoint.
type Identity struct {
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Session is the device's single authentication state: the bearer token
// plus whatever identity the backend supplied alongside it.
type Session struct {
	Token      string    `json:"token"`
	User       *Identity `json:"user,omitempty"`
	LoggedInAt time.Time `json:"loggedInAt"`
}

// Store holds the current session, persisted under a fixed storage key.
// All mutations notify subscribers, including mutations that arrive through
// the storage layer from another process sharing the database file.
type Store struct {
	storage *storage.Store

	mu          sync.Mutex
	subscribers map[int]func()
	nextSub     int
}

// NewStore creates a session store on top of the device storage. It hooks
// the storage change feed so external writes to the session key are
// indistinguishable from local ones to subscribers.
func NewStore(st *storage.Store) *Store {
	s := &Store{
		storage:     st,
		subscribers: make(map[int]func()),
	}

	st.Subscribe(func(key string) {
		if key == storage.KeyAuth {
			s.broadcast()
		}
	})

	return s
}

// Get returns the current session, or false when unauthenticated. A corrupt
// persisted session degrades to unauthenticated.
func (s *Store) Get() (Session, bool) {
	var sess Session
	if !s.storage.Load(storage.KeyAuth, &sess) {
		return Session{}, false
	}
	if sess.Token == "" {
		return Session{}, false
	}
	return sess, true
}

// Set persists the session and notifies subscribers.
func (s *Store) Set(sess Session) error {
	if err := s.storage.Save(storage.KeyAuth, sess); err != nil {
		return err
	}
	log.Info().Time("logged_in_at", sess.LoggedInAt).Msg("session stored")
	return nil
}

// Clear removes the session and notifies subscribers.
func (s *Store) Clear() error {
	if err := s.storage.Delete(storage.KeyAuth); err != nil {
		return err
	}
	log.Info().Msg("session cleared")
	return nil
}

// Token returns the current bearer token, or empty when unauthenticated.
func (s *Store) Token() string {
	sess, ok := s.Get()
	if !ok {
		return ""
	}
	return sess.Token
}

// IsAuthenticated reports whether a credential is present.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Subscribe registers fn to run after every session change. The returned
// function cancels the subscription.
func (s *Store) Subscribe(fn func()) func() {
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

func (s *Store) broadcast() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
