package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"text-stock-tracker/internal/domain"
	"text-stock-tracker/internal/repository"
)

var (
	ErrStoreNotConfigured = errors.New("conversation store not configured")
	ErrInvalidSender      = errors.New("sender id required")
	ErrInvalidSymbol      = errors.New("symbol must be 1-5 characters")
)

// ConversationStore guarda usuarios y el último ticker consultado por cada uno.
type ConversationStore struct {
	logger  *zap.Logger
	users   repository.UserRepository
	lookups repository.LookupRepository
	locker  SenderLocker
	now     func() time.Time
}

func NewConversationStore(logger *zap.Logger, users repository.UserRepository, lookups repository.LookupRepository, locker SenderLocker) *ConversationStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewMemorySenderLocker()
	}
	return &ConversationStore{
		logger:  logger,
		users:   users,
		lookups: lookups,
		locker:  locker,
		now:     time.Now,
	}
}

// LockSender toma el lock del remitente; el llamador debe invocar unlock.
func (s *ConversationStore) LockSender(ctx context.Context, senderID string) (func(), error) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return nil, ErrInvalidSender
	}
	return s.locker.Lock(ctx, senderID)
}

// EnsureUser busca el usuario por teléfono y lo crea si no existe.
func (s *ConversationStore) EnsureUser(ctx context.Context, senderID string) (domain.User, bool, error) {
	if s == nil || s.users == nil {
		return domain.User{}, false, ErrStoreNotConfigured
	}
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return domain.User{}, false, ErrInvalidSender
	}

	user, err := s.users.GetByPhone(ctx, senderID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, false, fmt.Errorf("get user: %w", err)
	}

	user = domain.User{
		ID:          uuid.NewString(),
		PhoneNumber: senderID,
		CreatedAt:   s.now().UTC(),
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("create user: %w", err)
	}
	if !created {
		// Otro request lo creó entre el SELECT y el INSERT.
		existing, err := s.users.GetByPhone(ctx, senderID)
		if err != nil {
			return domain.User{}, false, fmt.Errorf("get user after conflict: %w", err)
		}
		return existing, false, nil
	}
	s.logger.Info("user created", zap.String("user_id", user.ID))
	return user, true, nil
}

// RecordLookup agrega un registro; sentAt cero significa "ahora".
func (s *ConversationStore) RecordLookup(ctx context.Context, user domain.User, symbol string, sentAt time.Time) (domain.LookupRecord, error) {
	if s == nil || s.lookups == nil {
		return domain.LookupRecord{}, ErrStoreNotConfigured
	}
	if strings.TrimSpace(user.ID) == "" {
		return domain.LookupRecord{}, ErrInvalidSender
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || len(symbol) > domain.MaxSymbolLength {
		return domain.LookupRecord{}, ErrInvalidSymbol
	}
	if sentAt.IsZero() {
		sentAt = s.now()
	}

	rec, err := s.lookups.Create(ctx, domain.LookupRecord{
		UserID: user.ID,
		Symbol: symbol,
		SentAt: sentAt.UTC(),
	})
	if err != nil {
		return domain.LookupRecord{}, fmt.Errorf("create lookup: %w", err)
	}
	return rec, nil
}

// RecentLookup devuelve el registro más reciente con sent_at estrictamente
// posterior a now-within.
func (s *ConversationStore) RecentLookup(ctx context.Context, user domain.User, within time.Duration) (domain.LookupRecord, bool, error) {
	if s == nil || s.lookups == nil {
		return domain.LookupRecord{}, false, ErrStoreNotConfigured
	}
	since := s.now().Add(-within).UTC()
	rec, err := s.lookups.LatestSince(ctx, user.ID, since)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LookupRecord{}, false, nil
	}
	if err != nil {
		return domain.LookupRecord{}, false, fmt.Errorf("latest lookup: %w", err)
	}
	return rec, true, nil
}
