package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"vibe-commerce/internal/db"
	"vibe-commerce/internal/domain"
)

const itemColumns = `id::text, product_id, title, price, image, quantity, added_at`

// numeric_value_out_of_range
const sqlStateOutOfRange = "22003"

type postgresRepo struct {
	conn *db.Lazy[*pgxpool.Pool]
}

func NewPostgres(conn *db.Lazy[*pgxpool.Pool]) Repository {
	return &postgresRepo{conn: conn}
}

func (r *postgresRepo) pool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := r.conn.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres unavailable: %w", err)
	}
	return pool, nil
}

func (r *postgresRepo) FindAll(ctx context.Context) ([]domain.CartItem, error) {
	pool, err := r.pool(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, `
SELECT `+itemColumns+`
FROM cart_items
ORDER BY added_at ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	return collectItems(rows)
}

func (r *postgresRepo) FindByProductID(ctx context.Context, productID int64) (*domain.CartItem, error) {
	pool, err := r.pool(ctx)
	if err != nil {
		return nil, err
	}
	item, err := scanItem(pool.QueryRow(ctx, `
SELECT `+itemColumns+`
FROM cart_items
WHERE product_id = $1
`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find cart item: %w", err)
	}
	return item, nil
}

func (r *postgresRepo) Insert(ctx context.Context, in domain.CartItem) (*domain.CartItem, error) {
	pool, err := r.pool(ctx)
	if err != nil {
		return nil, err
	}
	item, err := scanItem(pool.QueryRow(ctx, `
INSERT INTO cart_items (product_id, title, price, image, quantity)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+itemColumns,
		in.ProductID, in.Title, in.Price, in.Image, in.Quantity))
	if err != nil {
		return nil, fmt.Errorf("insert cart item: %w", err)
	}
	return item, nil
}

func (r *postgresRepo) Save(ctx context.Context, in domain.CartItem) error {
	if !r.ValidID(in.ID) {
		return domain.ErrNotFound
	}
	pool, err := r.pool(ctx)
	if err != nil {
		return err
	}
	cmd, err := pool.Exec(ctx, `
UPDATE cart_items
SET title = $1, price = $2, image = $3, quantity = $4
WHERE id = $5
`, in.Title, in.Price, in.Image, in.Quantity, in.ID)
	if err != nil {
		return fmt.Errorf("save cart item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) AddOrIncrement(ctx context.Context, in domain.CartItem) (*domain.CartItem, bool, error) {
	pool, err := r.pool(ctx)
	if err != nil {
		return nil, false, err
	}
	// xmax is zero only on a freshly inserted tuple.
	row := pool.QueryRow(ctx, `
INSERT INTO cart_items (product_id, title, price, image, quantity)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (product_id) DO UPDATE
SET quantity = cart_items.quantity + EXCLUDED.quantity
RETURNING `+itemColumns+`, (xmax = 0)
`, in.ProductID, in.Title, in.Price, in.Image, in.Quantity)

	var item domain.CartItem
	var created bool
	if err := row.Scan(
		&item.ID,
		&item.ProductID,
		&item.Title,
		&item.Price,
		&item.Image,
		&item.Quantity,
		&item.AddedAt,
		&created,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == sqlStateOutOfRange {
			return nil, false, fmt.Errorf("%w: quantity out of range", domain.ErrValidation)
		}
		return nil, false, fmt.Errorf("upsert cart item: %w", err)
	}
	item.AddedAt = item.AddedAt.UTC()
	return &item, created, nil
}

func (r *postgresRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if !r.ValidID(id) {
		return false, nil
	}
	pool, err := r.pool(ctx)
	if err != nil {
		return false, err
	}
	cmd, err := pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete cart item: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresRepo) DeleteAll(ctx context.Context) error {
	pool, err := r.pool(ctx)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `DELETE FROM cart_items`); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// TakeAll removes and returns the rows in a single statement, so the snapshot
// and the cleared set are always identical.
func (r *postgresRepo) TakeAll(ctx context.Context) ([]domain.CartItem, error) {
	pool, err := r.pool(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin checkout: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
WITH taken AS (
	DELETE FROM cart_items
	RETURNING id, product_id, title, price, image, quantity, added_at
)
SELECT `+itemColumns+`
FROM taken
ORDER BY added_at ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("take cart items: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}
	return items, nil
}

// ValidID accepts only the canonical hyphenated form. uuid.Parse also takes
// urn and braced forms, which the uuid column input rejects.
func (r *postgresRepo) ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *postgresRepo) Ping(ctx context.Context) error {
	pool, err := r.pool(ctx)
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

func scanItem(row pgx.Row) (*domain.CartItem, error) {
	var item domain.CartItem
	if err := row.Scan(
		&item.ID,
		&item.ProductID,
		&item.Title,
		&item.Price,
		&item.Image,
		&item.Quantity,
		&item.AddedAt,
	); err != nil {
		return nil, err
	}
	item.AddedAt = item.AddedAt.UTC()
	return &item, nil
}

func collectItems(rows pgx.Rows) ([]domain.CartItem, error) {
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return items, nil
}
