package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/songzhibin97/futuresbot/internal/models"
	"github.com/songzhibin97/futuresbot/internal/trading"
)

// Session holds one visitor's credentials and bot. Requests sharing a cookie
// run concurrently, so the state is only reached through its methods.
type Session struct {
	ID string

	mu          sync.Mutex
	credentials models.Credentials
	bot         *trading.Bot

	lastSeen time.Time // guarded by Store.mu
}

// Initialized reports whether a bot has been set up for this session
func (s *Session) Initialized() bool {
	return s.Bot() != nil
}

// Bot returns the current bot, or nil before initialization and after the session ended.
// Callers keep the returned value for the whole request.
func (s *Session) Bot() *trading.Bot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bot
}

// Credentials returns the credentials the current bot was built from
func (s *Session) Credentials() models.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credentials
}

// State returns the credentials and bot as one consistent pair
func (s *Session) State() (models.Credentials, *trading.Bot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credentials, s.bot
}

// Attach stores a freshly initialized bot together with the credentials it was built from
func (s *Session) Attach(creds models.Credentials, bot *trading.Bot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = creds
	s.bot = bot
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = models.Credentials{}
	s.bot = nil
}

// Store keeps live sessions in memory; nothing is persisted.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store whose sessions end after ttl without a request.
// A ttl <= 0 keeps sessions until End is called.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Start creates a new empty session
func (s *Store) Start() (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{ID: id, lastSeen: s.now()}
	s.sessions[id] = sess
	return sess, nil
}

// Get returns a live session and refreshes its idle timer
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess, true
}

// End tears a session down, dropping its credentials and bot
func (s *Store) End(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.clear()
		delete(s.sessions, id)
	}
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()
	return len(s.sessions)
}

func (s *Store) expireLocked() {
	if s.ttl <= 0 {
		return
	}

	deadline := s.now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(deadline) {
			sess.clear()
			delete(s.sessions, id)
		}
	}
}

func newID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
