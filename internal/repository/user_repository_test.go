package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/re-earth/re-earth-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDB_NilAndBack(t *testing.T) {
	db := testutil.OpenTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	users.SetDB(nil)
	_, err := users.ExistsEmail(ctx, "a@example.com")
	assert.True(t, errors.Is(err, ErrDBNotReady))

	users.SetDB(db)
	taken, err := users.ExistsEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, taken)
}

// Run with -race: SetDB swaps the handle while other goroutines read through it.
func TestSetDB_SwapWhileReading(t *testing.T) {
	db := testutil.OpenTestDB(t)
	users := NewUserRepository(db)
	items := NewItemRepository(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			users.SetDB(db)
			items.SetDB(db)
		}
	}()

	errs := make(chan error, 200)
	for g := 0; g < 2; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if _, err := users.ExistsLoginID(ctx, "nobody"); err != nil {
					errs <- err
				}
				if _, err := items.List(ctx, ""); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}
