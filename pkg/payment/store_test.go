package payment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/baltmart/storefront/pkg/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSession(t *testing.T, store payment.SessionStore, reference string, status payment.SessionStatus) {
	t.Helper()
	err := store.Create(context.Background(), &payment.PaymentSession{
		ID:        "sess-" + reference,
		Reference: reference,
		CartID:    "cart-1",
		Provider:  "stub",
		Amount:    1000,
		Currency:  "EUR",
		Status:    status,
	})
	require.NoError(t, err)
}

func TestMemorySessionStore_FindByReference(t *testing.T) {
	store := payment.NewMemorySessionStore()
	seedSession(t, store, "ord-1", payment.StatusPending)

	session, err := store.FindByReference(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", session.Reference)

	_, err = store.FindByReference(context.Background(), "ord-missing")
	assert.ErrorIs(t, err, payment.ErrSessionNotFound)
}

func TestMemorySessionStore_Transition(t *testing.T) {
	store := payment.NewMemorySessionStore()
	seedSession(t, store, "ord-1", payment.StatusPending)

	session, applied, err := store.Transition(context.Background(), "ord-1",
		[]payment.SessionStatus{payment.StatusPending}, payment.StatusAwaitingCallback)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, payment.StatusAwaitingCallback, session.Status)

	// Same precondition no longer holds.
	session, applied, err = store.Transition(context.Background(), "ord-1",
		[]payment.SessionStatus{payment.StatusPending}, payment.StatusAwaitingCallback)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, payment.StatusAwaitingCallback, session.Status)
}

func TestMemorySessionStore_Transition_NotFound(t *testing.T) {
	store := payment.NewMemorySessionStore()

	_, _, err := store.Transition(context.Background(), "ord-missing",
		[]payment.SessionStatus{payment.StatusPending}, payment.StatusConfirmed)
	assert.ErrorIs(t, err, payment.ErrSessionNotFound)
}

func TestMemorySessionStore_Transition_Concurrent(t *testing.T) {
	store := payment.NewMemorySessionStore()
	seedSession(t, store, "ord-1", payment.StatusAwaitingCallback)

	const callers = 16
	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, applied, err := store.Transition(context.Background(), "ord-1",
				[]payment.SessionStatus{payment.StatusPending, payment.StatusAwaitingCallback},
				payment.StatusConfirmed)
			require.NoError(t, err)
			if applied {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Exactly one caller performs the terminal transition.
	assert.Equal(t, 1, wins)

	session, err := store.FindByReference(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusConfirmed, session.Status)
}

func TestMemorySessionStore_ExpireBefore(t *testing.T) {
	store := payment.NewMemorySessionStore()
	err := store.Create(context.Background(), &payment.PaymentSession{
		Reference: "ord-old",
		Status:    payment.StatusAwaitingCallback,
		CreatedAt: time.Now().Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	err = store.Create(context.Background(), &payment.PaymentSession{
		Reference: "ord-done",
		Status:    payment.StatusConfirmed,
		CreatedAt: time.Now().Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	seedSession(t, store, "ord-new", payment.StatusPending)

	swept, err := store.ExpireBefore(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	// Terminal sessions are never swept, however old.
	done, err := store.FindByReference(context.Background(), "ord-done")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusConfirmed, done.Status)
}

func TestSessionStatus_Terminal(t *testing.T) {
	assert.False(t, payment.StatusPending.Terminal())
	assert.False(t, payment.StatusAwaitingCallback.Terminal())
	assert.True(t, payment.StatusConfirmed.Terminal())
	assert.True(t, payment.StatusCancelled.Terminal())
	assert.True(t, payment.StatusFailed.Terminal())
}
