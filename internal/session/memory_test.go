package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradechat-bot/server/internal/conversation"
	"github.com/tradechat-bot/server/internal/intent"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	state := conversation.NewState()
	state.Domain = intent.DomainExport
	require.NoError(t, store.Set(ctx, "s1", state))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, intent.DomainExport, got.Domain)
}

func TestMemoryStoreReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	state := conversation.NewState()
	state.Filters["country"] = "China"
	require.NoError(t, store.Set(ctx, "s1", state))

	got, _ := store.Get(ctx, "s1")
	got.Filters["country"] = "Russia"

	again, _ := store.Get(ctx, "s1")
	require.Equal(t, "China", again.Filters["country"])
}

func TestMemoryStoreUnknownSessionYieldsFreshState(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	got, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.Empty(t, got.Domain)
	require.NotNil(t, got.Filters)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	now := time.Now()
	store.now = func() time.Time { return now }

	state := conversation.NewState()
	state.Domain = intent.DomainImport
	require.NoError(t, store.Set(ctx, "s1", state))

	now = now.Add(30 * time.Second)
	got, _ := store.Get(ctx, "s1")
	require.Equal(t, intent.DomainImport, got.Domain)

	now = now.Add(2 * time.Minute)
	got, _ = store.Get(ctx, "s1")
	require.Empty(t, got.Domain)
}

func TestNormalizeID(t *testing.T) {
	require.Equal(t, "default", NormalizeID(""))
	require.Equal(t, "abc", NormalizeID("abc"))
}

func TestLockerSerializesSameSession(t *testing.T) {
	locker := NewLocker()

	var mu sync.Mutex
	var order []int

	release := locker.Lock("s1")

	done := make(chan struct{})
	go func() {
		r := locker.Lock("s1")
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		r()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	release()

	<-done
	require.Equal(t, []int{1, 2}, order)
}

func TestLockerIndependentSessions(t *testing.T) {
	locker := NewLocker()

	r1 := locker.Lock("a")
	defer r1()

	done := make(chan struct{})
	go func() {
		r2 := locker.Lock("b")
		r2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent session lock blocked")
	}
}
