package flow

import (
	"strconv"
	"sync"
	"time"

	"github.com/rewired-gh/oddsbot/internal/models"
)

type choiceKind int

const (
	choiceLeague choiceKind = iota
	choiceGame
	choiceMarket
)

// choice is what an option token resolves to. Game and market choices carry the data they
// were offered with, so an older prompt still acts on the game it was shown for.
type choice struct {
	kind  choiceKind
	value string        // sport key, game ID or market key
	games []models.Game // full league payload, for game choices
	game  *models.Game  // selected game, for market choices
}

// Session holds the state of one /odds interaction.
type Session struct {
	ID string

	mu       sync.Mutex
	choices  map[string]choice
	next     uint64
	lastSeen time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:       id,
		choices:  make(map[string]choice),
		lastSeen: now,
	}
}

// offer registers a choice and returns the option that selects it.
func (s *Session) offer(c choice, label string) Option {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := strconv.FormatUint(s.next, 36)
	s.next++
	s.choices[token] = c
	return Option{Label: label, Token: token}
}

// resolve looks a token up and marks the session active.
func (s *Session) resolve(token string, now time.Time) (choice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.choices[token]
	if ok {
		s.lastSeen = now
	}
	return c, ok
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// registry is a thread-safe set of live sessions with idle expiry and a size cap.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	max      int
	idle     time.Duration
}

func newRegistry(max int, idle time.Duration) *registry {
	return &registry{
		sessions: make(map[string]*Session),
		max:      max,
		idle:     idle,
	}
}

// add stores a session, evicting the least recently active one when full.
func (r *registry) add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max > 0 && len(r.sessions) >= r.max {
		var oldestID string
		var oldest time.Time
		for id, existing := range r.sessions {
			seen := existing.idleSince()
			if oldestID == "" || seen.Before(oldest) {
				oldestID, oldest = id, seen
			}
		}
		delete(r.sessions, oldestID)
	}
	r.sessions[s.ID] = s
}

// get returns a live session; expired sessions are removed on access.
func (r *registry) get(id string, now time.Time) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if now.Sub(s.idleSince()) > r.idle {
		r.mu.Lock()
		delete(r.sessions, id)
		r.mu.Unlock()
		return nil, false
	}
	return s, true
}

// sweep removes expired sessions and returns how many were dropped.
func (r *registry) sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.idleSince()) > r.idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
