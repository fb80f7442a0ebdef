package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
)

// SessionStore persists payment sessions. All session state lives in the
// store and is re-read on each call; the adapter keeps nothing in process.
type SessionStore interface {
	// Create persists a new session.
	Create(ctx context.Context, session *PaymentSession) error

	// FindByReference returns the session for a reference, or
	// ErrSessionNotFound.
	FindByReference(ctx context.Context, reference string) (*PaymentSession, error)

	// Transition atomically moves a session from any of the given states to
	// the target state. It is the per-session mutual exclusion guard: at
	// most one transition away from a non-terminal state succeeds, and a
	// duplicate caller observes applied=false with the current session.
	Transition(ctx context.Context, reference string, from []SessionStatus, to SessionStatus) (*PaymentSession, bool, error)

	// ExpireBefore cancels sessions still awaiting payment that were
	// created before the cutoff, returning how many were swept.
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ============================================================================
// In-memory store
// ============================================================================

// MemorySessionStore is a mutex-guarded in-memory SessionStore used in tests
// and when no database DSN is configured.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*PaymentSession // keyed by reference
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*PaymentSession),
	}
}

// Create persists a new session.
func (s *MemorySessionStore) Create(ctx context.Context, session *PaymentSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	stored := *session
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.sessions[stored.Reference] = &stored
	*session = stored
	return nil
}

// FindByReference returns the session for a reference.
func (s *MemorySessionStore) FindByReference(ctx context.Context, reference string) (*PaymentSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[reference]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

// Transition performs the compare-and-swap under the store mutex.
func (s *MemorySessionStore) Transition(ctx context.Context, reference string, from []SessionStatus, to SessionStatus) (*PaymentSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[reference]
	if !ok {
		return nil, false, ErrSessionNotFound
	}

	for _, status := range from {
		if session.Status == status {
			session.Status = to
			session.UpdatedAt = time.Now()
			copied := *session
			return &copied, true, nil
		}
	}
	copied := *session
	return &copied, false, nil
}

// ExpireBefore cancels stale non-terminal sessions.
func (s *MemorySessionStore) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var swept int64
	for _, session := range s.sessions {
		if !session.Status.Terminal() && session.CreatedAt.Before(cutoff) {
			session.Status = StatusCancelled
			session.UpdatedAt = time.Now()
			swept++
		}
	}
	return swept, nil
}

var _ SessionStore = (*MemorySessionStore)(nil)

// ============================================================================
// GORM store
// ============================================================================

// GormSessionStore is the database-backed SessionStore. The transition guard
// is a conditional UPDATE, so concurrent callbacks serialize on the row.
type GormSessionStore struct {
	db *gorm.DB
}

// NewGormSessionStore creates a store over the given database handle and
// migrates the payment_sessions table.
func NewGormSessionStore(db *gorm.DB) (*GormSessionStore, error) {
	if err := db.AutoMigrate(&PaymentSession{}); err != nil {
		return nil, err
	}
	return &GormSessionStore{db: db}, nil
}

// TableName maps PaymentSession to its table.
func (PaymentSession) TableName() string {
	return "payment_sessions"
}

// Create persists a new session.
func (s *GormSessionStore) Create(ctx context.Context, session *PaymentSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

// FindByReference returns the session for a reference.
func (s *GormSessionStore) FindByReference(ctx context.Context, reference string) (*PaymentSession, error) {
	var session PaymentSession
	err := s.db.WithContext(ctx).Where("reference = ?", reference).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Transition performs the compare-and-swap as a conditional UPDATE and
// checks rows affected, so exactly one concurrent caller wins.
func (s *GormSessionStore) Transition(ctx context.Context, reference string, from []SessionStatus, to SessionStatus) (*PaymentSession, bool, error) {
	result := s.db.WithContext(ctx).
		Model(&PaymentSession{}).
		Where("reference = ? AND status IN ?", reference, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, false, result.Error
	}

	session, err := s.FindByReference(ctx, reference)
	if err != nil {
		return nil, false, err
	}
	return session, result.RowsAffected > 0, nil
}

// ExpireBefore cancels stale non-terminal sessions in one statement.
func (s *GormSessionStore) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&PaymentSession{}).
		Where("status IN ? AND created_at < ?", []SessionStatus{StatusPending, StatusAwaitingCallback}, cutoff).
		Updates(map[string]interface{}{
			"status":     StatusCancelled,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

var _ SessionStore = (*GormSessionStore)(nil)
