package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"vibe-commerce/internal/domain"
	cartsvc "vibe-commerce/internal/service/cart"
)

// DemoCSV is loaded when no file is given.
const DemoCSV = `productId,quantity,name,price,image
1,1,Fjallraven Foldsack No. 1 Backpack,109.95,https://fakestoreapi.com/img/81fPKd-2AYL._AC_SL1500_.jpg
2,2,Mens Casual Premium Slim Fit T-Shirts,22.3,https://fakestoreapi.com/img/71-3HjGNDUL._AC_SY879._SX._UX._SY._UY_.jpg
`

type itemAdder interface {
	AddItem(ctx context.Context, in cartsvc.AddInput) (*domain.CartItem, bool, error)
}

// Result counts what a run did to the cart.
type Result struct {
	Created int
	Merged  int
}

// CSVSeeder adds one cart line per CSV row through the cart service, so rows
// for a product already in the cart merge like any other add.
type CSVSeeder struct {
	reader *csv.Reader
	cart   itemAdder
}

func NewCSVSeeder(r io.Reader, cart itemAdder) *CSVSeeder {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true
	return &CSVSeeder{reader: csvr, cart: cart}
}

// Run stops at the first row the cart rejects and reports how far it got.
func (s *CSVSeeder) Run(ctx context.Context) (Result, error) {
	var res Result

	headers, err := s.reader.Read()
	if err != nil {
		return res, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range []string{"productid", "quantity", "name", "price"} {
		if _, ok := index[col]; !ok {
			return res, fmt.Errorf("missing column %q", col)
		}
	}

	line := 1
	for {
		record, err := s.reader.Read()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		line++
		if err != nil {
			return res, fmt.Errorf("read row %d: %w", line, err)
		}

		in, err := parseRow(record, index)
		if err != nil {
			return res, fmt.Errorf("row %d: %w", line, err)
		}
		_, created, err := s.cart.AddItem(ctx, in)
		if err != nil {
			return res, fmt.Errorf("row %d: %w", line, err)
		}
		if created {
			res.Created++
		} else {
			res.Merged++
		}
	}
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (cartsvc.AddInput, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var in cartsvc.AddInput
	if v := field("productid"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return in, fmt.Errorf("%w: productId %q", domain.ErrValidation, v)
		}
		in.ProductID = &id
	}
	if v := field("quantity"); v != "" {
		qty, err := strconv.Atoi(v)
		if err != nil {
			return in, fmt.Errorf("%w: quantity %q", domain.ErrValidation, v)
		}
		in.Quantity = &qty
	}
	if v := field("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return in, fmt.Errorf("%w: price %q", domain.ErrValidation, v)
		}
		in.Price = &price
	}
	in.Title = field("name")
	in.Image = field("image")
	return in, nil
}
