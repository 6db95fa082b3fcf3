package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// InMemoryStore implements Store using a map guarded by a mutex. It is
// suitable for single-instance deployments and testing; state is not
// shared across processes.
type InMemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryStore creates an in-memory store and starts a background
// goroutine that evicts expired entries.
func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// Get returns the cached fingerprint for a record, or "" on a miss.
func (s *InMemoryStore) Get(ctx context.Context, tenantID, recordID uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[fingerprintKey("", tenantID, recordID)]
	if !exists || time.Now().After(e.expiresAt) {
		return "", nil
	}
	return e.value, nil
}

// Set stores a record fingerprint with the standard TTL.
func (s *InMemoryStore) Set(ctx context.Context, tenantID, recordID uuid.UUID, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[fingerprintKey("", tenantID, recordID)] = entry{
		value:     fingerprint,
		expiresAt: time.Now().Add(fingerprintTTL),
	}
	return nil
}

// Invalidate drops the cached fingerprint for a record.
func (s *InMemoryStore) Invalidate(ctx context.Context, tenantID, recordID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, fingerprintKey("", tenantID, recordID))
	return nil
}

// MarkDelivery marks a webhook delivery as seen with a TTL. It returns
// true if the delivery was newly marked, false if it was already seen.
func (s *InMemoryStore) MarkDelivery(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := deliveryKey("", deliveryID)
	if e, exists := s.entries[key]; exists && time.Now().Before(e.expiresAt) {
		return false, nil
	}

	s.entries[key] = entry{
		value:     "1",
		expiresAt: time.Now().Add(ttl),
	}
	return true, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

var _ Store = (*InMemoryStore)(nil)
