package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T) (*Memory, *time.Time) {
	t.Helper()
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestMemory_SetGetDelete(t *testing.T) {
	m, _ := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "otp:0101234", "123456", time.Minute))
	v, err := m.Get(ctx, "otp:0101234")
	require.NoError(t, err)
	assert.Equal(t, "123456", v)

	require.NoError(t, m.Delete(ctx, "otp:0101234"))
	_, err = m.Get(ctx, "otp:0101234")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Expiry(t *testing.T) {
	m, now := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	*now = now.Add(59 * time.Second)
	_, err := m.Get(ctx, "k")
	require.NoError(t, err)

	*now = now.Add(time.Second)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Expire(ctx, "k", time.Minute), ErrNotFound)
}

func TestMemory_ExpireExtends(t *testing.T) {
	m, now := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "sess", "1", time.Minute))
	*now = now.Add(50 * time.Second)
	require.NoError(t, m.Expire(ctx, "sess", time.Minute))
	*now = now.Add(50 * time.Second)

	v, err := m.Get(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestMemory_Sweep(t *testing.T) {
	m, now := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1", time.Second))
	require.NoError(t, m.Set(ctx, "b", "2", 0))
	*now = now.Add(2 * time.Second)
	m.sweep()

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.NotContains(t, m.data, "a")
	assert.Contains(t, m.data, "b")
}
