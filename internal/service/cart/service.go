package cart

import (
	"context"
	"fmt"
	"math"
	"strings"

	"vibe-commerce/internal/domain"
)

// MaxQuantity is the largest quantity a single line can hold.
const MaxQuantity = math.MaxInt32

// Service implements the cart operations over a single shared store.
type Service struct {
	repo cartRepo
}

type cartRepo interface {
	FindAll(ctx context.Context) ([]domain.CartItem, error)
	AddOrIncrement(ctx context.Context, item domain.CartItem) (*domain.CartItem, bool, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	ValidID(id string) bool
}

// New returns a Service backed by repo.
func New(repo cartRepo) *Service {
	return &Service{repo: repo}
}

// AddInput carries an add-to-cart request. Pointer fields distinguish a
// missing value from a zero one.
type AddInput struct {
	ProductID *int64
	Quantity  *int
	Title     string
	Price     *float64
	Image     string
}

func (in AddInput) validate() error {
	switch {
	case in.ProductID == nil || *in.ProductID <= 0:
		return fmt.Errorf("%w: productId required", domain.ErrValidation)
	case in.Quantity == nil || *in.Quantity <= 0:
		return fmt.Errorf("%w: quantity must be a positive integer", domain.ErrValidation)
	case *in.Quantity > MaxQuantity:
		return fmt.Errorf("%w: quantity must not exceed %d", domain.ErrValidation, MaxQuantity)
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("%w: name required", domain.ErrValidation)
	case in.Price == nil:
		return fmt.Errorf("%w: price required", domain.ErrValidation)
	case *in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	return nil
}

// Get returns every line in the cart together with the rounded total.
func (s *Service) Get(ctx context.Context) (domain.CartView, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return domain.CartView{}, err
	}
	return domain.NewCartView(items), nil
}

// AddItem merges into the existing line for the product or creates one. The
// bool is true when a new line was created.
func (s *Service) AddItem(ctx context.Context, in AddInput) (*domain.CartItem, bool, error) {
	if err := in.validate(); err != nil {
		return nil, false, err
	}
	return s.repo.AddOrIncrement(ctx, domain.CartItem{
		ProductID: *in.ProductID,
		Title:     strings.TrimSpace(in.Title),
		Price:     *in.Price,
		Image:     strings.TrimSpace(in.Image),
		Quantity:  *in.Quantity,
	})
}

// RemoveItem deletes the line with the given id. Malformed ids are reported
// exactly like unknown ones.
func (s *Service) RemoveItem(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" || !s.repo.ValidID(id) {
		return domain.ErrNotFound
	}
	removed, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrNotFound
	}
	return nil
}
