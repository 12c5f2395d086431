package domain

import "time"

// CartItem is one line of the shared cart. Title, Price and Image are captured
// when the product is first added and never re-synced with the catalog.
type CartItem struct {
	ID        string    `json:"id"`
	ProductID int64     `json:"productId"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	Image     string    `json:"image,omitempty"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

// CartView is the cart as seen by clients: every stored line plus the total.
type CartView struct {
	Items []CartItem
	Total Money
}

// NewCartView derives the view from the current row set.
func NewCartView(items []CartItem) CartView {
	if items == nil {
		items = []CartItem{}
	}
	return CartView{Items: items, Total: Total(items)}
}
