package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds running aggregates for one curation session: how many files
// were processed and how well they validated.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu             sync.Mutex
	processedFiles int
	scoreSum       float64
	lastScore      float64
	lastActivity   time.Time
}

// Stats is a point-in-time view of a Session.
type Stats struct {
	ID                     string    `json:"id" yaml:"id"`
	ProcessedFiles         int       `json:"processed_files" yaml:"processed_files"`
	AverageValidationScore float64   `json:"average_validation_score" yaml:"average_validation_score"`
	LastValidationScore    float64   `json:"last_validation_score" yaml:"last_validation_score"`
	CreatedAt              time.Time `json:"created_at" yaml:"created_at"`
	LastActivity           time.Time `json:"last_activity,omitzero" yaml:"last_activity,omitempty"`
}

// New starts a session with a random identifier.
func New() *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
	}
}

// Observe records one processed file and its completeness score.
func (s *Session) Observe(score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processedFiles++
	s.scoreSum += score
	s.lastScore = score
	s.lastActivity = time.Now()
}

// Stats returns the current aggregates.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		ID:                  s.ID,
		ProcessedFiles:      s.processedFiles,
		LastValidationScore: s.lastScore,
		CreatedAt:           s.CreatedAt,
		LastActivity:        s.lastActivity,
	}
	if s.processedFiles > 0 {
		st.AverageValidationScore = s.scoreSum / float64(s.processedFiles)
	}
	return st
}

// Store keeps sessions in memory, keyed by id.
type Store struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, exists := s.sessions[id]
	return sess, exists
}

// GetOrCreate returns the session for id, creating a new one when id is
// empty or unknown.
func (s *Store) GetOrCreate(id string) *Session {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess
		}
	}
	sess := New()
	s.Set(sess)
	return sess
}

func (s *Store) Set(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *Store) GetAll() map[string]*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*Session, len(s.sessions))
	for k, v := range s.sessions {
		result[k] = v
	}
	return result
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Prune drops sessions idle for longer than maxIdle and returns how many
// were removed.
func (s *Store) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		st := sess.Stats()
		last := st.LastActivity
		if last.IsZero() {
			last = st.CreatedAt
		}
		if last.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
