package cart

import (
	"context"

	"vibe-commerce/internal/domain"
)

// Repository persists the cart line set. Implementations must keep productId
// unique across live rows and never store a quantity below one.
type Repository interface {
	FindAll(ctx context.Context) ([]domain.CartItem, error)
	// FindByProductID returns domain.ErrNotFound when no row carries productID.
	FindByProductID(ctx context.Context, productID int64) (*domain.CartItem, error)
	Insert(ctx context.Context, item domain.CartItem) (*domain.CartItem, error)
	Save(ctx context.Context, item domain.CartItem) error
	// AddOrIncrement inserts item, or atomically adds item.Quantity to the row
	// already holding item.ProductID. Title, price and image of an existing row
	// are left untouched. The bool reports whether a row was created.
	AddOrIncrement(ctx context.Context, item domain.CartItem) (*domain.CartItem, bool, error)
	// DeleteByID reports false when nothing matched, including malformed ids.
	DeleteByID(ctx context.Context, id string) (bool, error)
	DeleteAll(ctx context.Context) error
	// TakeAll reads and removes every row as one unit where the backend allows
	// it, and returns what was removed.
	TakeAll(ctx context.Context) ([]domain.CartItem, error)
	// ValidID reports whether id is well formed for this backend. It does no I/O.
	ValidID(id string) bool
	Ping(ctx context.Context) error
}
