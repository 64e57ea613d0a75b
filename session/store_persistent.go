package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/wayfarer/wayfarer/internal/metrics"
	"github.com/wayfarer/wayfarer/storage"
)

const (
	sessionBucket     = "__sessions"
	sessionRecordType = "SESSION"
	cleanupInterval   = 5 * time.Minute
)

// PersistentStore stores sessions in a storage.Repository so they survive
// server restarts. Expired sessions are swept in the background.
type PersistentStore struct {
	repo     storage.Repository
	logger   *slog.Logger
	stopOnce sync.Once
	stopCh   chan struct{}
}

var _ Store = (*PersistentStore)(nil)

// NewPersistentStore creates a session store backed by the given repository
// and starts the background sweeper. Call Close to stop it.
func NewPersistentStore(repo storage.Repository, logger *slog.Logger) *PersistentStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PersistentStore{
		repo:   repo,
		logger: logger.With("component", "session_store"),
		stopCh: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Close stops the background cleanup goroutine.
func (s *PersistentStore) Close() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

func (s *PersistentStore) Get(token string, now time.Time) (Session, bool) {
	if token == "" {
		return Session{}, false
	}
	data, err := s.repo.Get(sessionBucket, sessionRecordType, token)
	if err != nil {
		return Session{}, false
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		s.Delete(token)
		return Session{}, false
	}
	if session.Expired(now) {
		s.Delete(token)
		return Session{}, false
	}
	return session, true
}

func (s *PersistentStore) Put(token string, session Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.repo.Put(sessionBucket, sessionRecordType, token, data); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	return nil
}

func (s *PersistentStore) Delete(token string) {
	_ = s.repo.Delete(sessionBucket, sessionRecordType, token)
}

// cleanupLoop periodically removes expired sessions from storage.
func (s *PersistentStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweepExpired(time.Now())
		}
	}
}

func (s *PersistentStore) sweepExpired(now time.Time) int {
	tokens, err := s.repo.List(sessionBucket, sessionRecordType)
	if err != nil {
		s.logger.Warn("listing sessions for sweep failed", "error", err)
		return 0
	}
	removed := 0
	for _, token := range tokens {
		data, err := s.repo.Get(sessionBucket, sessionRecordType, token)
		if err != nil {
			continue
		}
		var session Session
		if err := json.Unmarshal(data, &session); err != nil || session.Expired(now) {
			s.Delete(token)
			removed++
		}
	}
	metrics.RecordSessionsSwept(removed)
	if removed > 0 {
		s.logger.Debug("swept expired sessions", "count", removed)
	}
	return removed
}
