package domain

import "time"

// Receipt summarises a checkout. It is returned once and never stored.
type Receipt struct {
	ID        string
	Items     []ReceiptLine
	Total     Money
	CreatedAt time.Time
}

// ReceiptLine is one purchased product at its cart price.
type ReceiptLine struct {
	Name     string
	Quantity int
	Price    float64
}
