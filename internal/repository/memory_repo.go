package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"text-stock-tracker/internal/domain"
)

// MemoryStore implementa UserRepository y LookupRepository en memoria.
// Sirve para tests, la consola y despliegues sin DATABASE_URL.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	records []domain.LookupRecord
	nextID  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]domain.User)}
}

// Users expone el store como UserRepository.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Lookups expone el store como LookupRepository.
func (s *MemoryStore) Lookups() LookupRepository { return memoryLookups{s} }

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, user domain.User) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[user.PhoneNumber]; ok {
		return false, nil
	}
	m.s.users[user.PhoneNumber] = user
	return true, nil
}

func (m memoryUsers) GetByPhone(_ context.Context, phone string) (domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	u, ok := m.s.users[phone]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return u, nil
}

type memoryLookups struct{ s *MemoryStore }

func (m memoryLookups) Create(_ context.Context, record domain.LookupRecord) (domain.LookupRecord, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.nextID++
	record.ID = m.s.nextID
	m.s.records = append(m.s.records, record)
	return record, nil
}

func (m memoryLookups) LatestSince(_ context.Context, userID string, since time.Time) (domain.LookupRecord, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var (
		best  domain.LookupRecord
		found bool
	)
	for _, rec := range m.s.records {
		if rec.UserID != userID || !rec.SentAt.After(since) {
			continue
		}
		if !found || rec.SentAt.After(best.SentAt) || (rec.SentAt.Equal(best.SentAt) && rec.ID > best.ID) {
			best = rec
			found = true
		}
	}
	if !found {
		return domain.LookupRecord{}, pgx.ErrNoRows
	}
	return best, nil
}

func (m memoryLookups) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	kept := m.s.records[:0]
	var deleted int64
	for _, rec := range m.s.records {
		if rec.SentAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	m.s.records = kept
	return deleted, nil
}
