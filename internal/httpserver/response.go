package httpserver

import "vibe-commerce/internal/domain"

// isoMillis matches the millisecond UTC timestamps the storefront parses.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type cartResponse struct {
	Items []domain.CartItem `json:"items"`
	Total float64           `json:"total"`
}

type receiptResponse struct {
	ReceiptID         string                `json:"receiptId"`
	Items             []receiptLineResponse `json:"items"`
	Total             float64               `json:"total"`
	CheckoutTimestamp string                `json:"checkoutTimestamp"`
}

type receiptLineResponse struct {
	Name  string  `json:"name"`
	Qty   int     `json:"qty"`
	Price float64 `json:"price"`
}

func toCartResponse(view domain.CartView) cartResponse {
	items := view.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartResponse{
		Items: items,
		Total: view.Total.InexactFloat64(),
	}
}

func toReceiptResponse(r domain.Receipt) receiptResponse {
	lines := make([]receiptLineResponse, 0, len(r.Items))
	for _, l := range r.Items {
		lines = append(lines, receiptLineResponse{Name: l.Name, Qty: l.Quantity, Price: l.Price})
	}
	return receiptResponse{
		ReceiptID:         r.ID,
		Items:             lines,
		Total:             r.Total.InexactFloat64(),
		CheckoutTimestamp: r.CreatedAt.UTC().Format(isoMillis),
	}
}
