package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibe-commerce/internal/domain"
)

// runContract exercises behaviour every backend must share. missingID must be
// well formed for the backend but not present in it.
func runContract(t *testing.T, repo Repository, missingID string) {
	ctx := context.Background()
	reset := func(t *testing.T) {
		t.Helper()
		require.NoError(t, repo.DeleteAll(ctx))
	}

	t.Run("add creates then merges", func(t *testing.T) {
		reset(t)
		first, created, err := repo.AddOrIncrement(ctx, domain.CartItem{ProductID: 1, Title: "Shirt", Price: 10, Image: "shirt.png", Quantity: 2})
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEmpty(t, first.ID)
		assert.Equal(t, 2, first.Quantity)

		second, created, err := repo.AddOrIncrement(ctx, domain.CartItem{ProductID: 1, Title: "Other", Price: 99, Quantity: 3})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 5, second.Quantity)
		assert.Equal(t, "Shirt", second.Title)
		assert.Equal(t, 10.0, second.Price)
		assert.Equal(t, "shirt.png", second.Image)

		items, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 5, items[0].Quantity)
		assert.Equal(t, "Shirt", items[0].Title)
	})

	t.Run("concurrent adds do not lose updates", func(t *testing.T) {
		reset(t)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := repo.AddOrIncrement(ctx, domain.CartItem{ProductID: 7, Title: "Mug", Price: 4.5, Quantity: 1})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		item, err := repo.FindByProductID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 10, item.Quantity)
	})

	t.Run("insert save and lookup", func(t *testing.T) {
		reset(t)
		_, err := repo.FindByProductID(ctx, 3)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		inserted, err := repo.Insert(ctx, domain.CartItem{ProductID: 3, Title: "Hat", Price: 12.25, Quantity: 1})
		require.NoError(t, err)

		inserted.Quantity = 4
		require.NoError(t, repo.Save(ctx, *inserted))

		got, err := repo.FindByProductID(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, inserted.ID, got.ID)
		assert.Equal(t, 4, got.Quantity)

		err = repo.Save(ctx, domain.CartItem{ID: missingID, ProductID: 3, Title: "Hat", Quantity: 1})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete by id", func(t *testing.T) {
		reset(t)
		item, _, err := repo.AddOrIncrement(ctx, domain.CartItem{ProductID: 9, Title: "Bag", Price: 30, Quantity: 1})
		require.NoError(t, err)

		for _, bad := range []string{"not-an-id", "urn:uuid:" + missingID, "{" + missingID + "}"} {
			removed, err := repo.DeleteByID(ctx, bad)
			require.NoError(t, err, bad)
			assert.False(t, removed, bad)
		}

		removed, err := repo.DeleteByID(ctx, missingID)
		require.NoError(t, err)
		assert.False(t, removed)

		items, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 1)

		removed, err = repo.DeleteByID(ctx, item.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		items, err = repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("take all empties the cart", func(t *testing.T) {
		reset(t)
		taken, err := repo.TakeAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, taken)

		_, _, err = repo.AddOrIncrement(ctx, domain.CartItem{ProductID: 1, Title: "Shirt", Price: 10, Quantity: 2})
		require.NoError(t, err)
		_, _, err = repo.AddOrIncrement(ctx, domain.CartItem{ProductID: 2, Title: "Mug", Price: 4.5, Quantity: 1})
		require.NoError(t, err)

		_, _, err = repo.AddOrIncrement(ctx, domain.CartItem{ProductID: 1, Title: "Shirt", Price: 10, Quantity: 1})
		require.NoError(t, err)

		taken, err = repo.TakeAll(ctx)
		require.NoError(t, err)
		require.Len(t, taken, 2)
		assert.Equal(t, int64(1), taken[0].ProductID)
		assert.Equal(t, 3, taken[0].Quantity)
		assert.Equal(t, int64(2), taken[1].ProductID)

		again, err := repo.TakeAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, again)

		items, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("valid id", func(t *testing.T) {
		assert.True(t, repo.ValidID(missingID))
		assert.False(t, repo.ValidID(""))
		assert.False(t, repo.ValidID("not-an-id"))
		assert.False(t, repo.ValidID("urn:uuid:"+missingID))
		assert.False(t, repo.ValidID("{"+missingID+"}"))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
}
