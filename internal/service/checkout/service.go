package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vibe-commerce/internal/domain"
)

const receiptPrefix = "VIBE-"

type cartTaker interface {
	TakeAll(ctx context.Context) ([]domain.CartItem, error)
}

// Service turns the current cart into a receipt and leaves the cart empty.
type Service struct {
	repo  cartTaker
	now   func() time.Time
	newID func() string
}

func New(repo cartTaker) *Service {
	return &Service{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Checkout snapshots and clears the cart in one step. It fails with
// domain.ErrEmptyCart when there is nothing to check out.
func (s *Service) Checkout(ctx context.Context) (*domain.Receipt, error) {
	items, err := s.repo.TakeAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	lines := make([]domain.ReceiptLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, domain.ReceiptLine{
			Name:     it.Title,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}

	return &domain.Receipt{
		ID:        receiptPrefix + s.newID(),
		Items:     lines,
		Total:     domain.Total(items),
		CreatedAt: s.now().UTC(),
	}, nil
}
