package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ironfuel/cartapi/internal/domain"
	"github.com/ironfuel/cartapi/pkg/database"
	apperrors "github.com/ironfuel/cartapi/pkg/errors"
)

const lineColumns = `id, user_email, product_id, product_name, price, quantity, image_url, created_at`

const (
	upsertLineQuery = `
		INSERT INTO cart (user_email, product_id, product_name, price, quantity, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_email, product_id)
		DO UPDATE SET quantity = cart.quantity + EXCLUDED.quantity
		RETURNING ` + lineColumns

	listLinesQuery = `
		SELECT ` + lineColumns + `
		FROM cart
		WHERE user_email = $1
		ORDER BY created_at DESC, id DESC`

	setQuantityQuery = `
		UPDATE cart SET quantity = $1
		WHERE id = $2
		RETURNING ` + lineColumns

	deleteLineQuery = `
		DELETE FROM cart
		WHERE id = $1
		RETURNING ` + lineColumns

	clearCartQuery = `DELETE FROM cart WHERE user_email = $1`
)

// DB is the pool surface the repository needs.
type DB interface {
	database.DBTX
	Ping(ctx context.Context) error
}

// CartRepository implements repository.CartRepository on PostgreSQL.
type CartRepository struct {
	db           DB
	queryTimeout time.Duration
}

// NewCartRepository creates a repository bounding every round trip by
// queryTimeout. A zero timeout leaves the caller's deadline in charge.
func NewCartRepository(db DB, queryTimeout time.Duration) *CartRepository {
	return &CartRepository{db: db, queryTimeout: queryTimeout}
}

func (r *CartRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

func scanLine(row pgx.Row) (*domain.CartLine, error) {
	var l domain.CartLine
	if err := row.Scan(
		&l.ID, &l.UserEmail, &l.ProductID, &l.ProductName,
		&l.Price, &l.Quantity, &l.ImageURL, &l.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &l, nil
}

// AddOrMerge inserts or merges in one statement. Concurrent calls for the
// same (user_email, product_id) serialize on the unique constraint, so no
// increment is lost and no duplicate line appears.
func (r *CartRepository) AddOrMerge(ctx context.Context, line domain.NewLine) (_ *domain.CartLine, err error) {
	ctx, end := database.TraceQuery(ctx, "AddOrMerge", upsertLineQuery)
	defer func() { end(err) }()
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	l, err := scanLine(r.db.QueryRow(ctx, upsertLineQuery,
		line.UserEmail, line.ProductID, line.ProductName, line.Price, line.Quantity, line.ImageURL,
	))
	if err != nil {
		return nil, apperrors.StoreUnavailable(fmt.Errorf("upsert cart line: %w", err))
	}
	return l, nil
}

// ListByUser returns the customer's lines, newest first.
func (r *CartRepository) ListByUser(ctx context.Context, userEmail string) (_ []domain.CartLine, err error) {
	ctx, end := database.TraceQuery(ctx, "ListByUser", listLinesQuery)
	defer func() { end(err) }()
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, listLinesQuery, userEmail)
	if err != nil {
		return nil, apperrors.StoreUnavailable(fmt.Errorf("list cart lines: %w", err))
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, apperrors.StoreUnavailable(fmt.Errorf("scan cart line: %w", err))
		}
		lines = append(lines, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreUnavailable(fmt.Errorf("iterate cart lines: %w", err))
	}
	return lines, nil
}

// SetQuantity overwrites the quantity of line id.
func (r *CartRepository) SetQuantity(ctx context.Context, id string, quantity int) (_ *domain.CartLine, err error) {
	if uuid.Validate(id) != nil {
		return nil, apperrors.NotFound("cart line", id)
	}

	ctx, end := database.TraceQuery(ctx, "SetQuantity", setQuantityQuery)
	defer func() { end(err) }()
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	l, err := scanLine(r.db.QueryRow(ctx, setQuantityQuery, quantity, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("cart line", id)
	}
	if err != nil {
		return nil, apperrors.StoreUnavailable(fmt.Errorf("update cart line quantity: %w", err))
	}
	return l, nil
}

// Delete removes line id and returns its last state.
func (r *CartRepository) Delete(ctx context.Context, id string) (_ *domain.CartLine, err error) {
	if uuid.Validate(id) != nil {
		return nil, apperrors.NotFound("cart line", id)
	}

	ctx, end := database.TraceQuery(ctx, "Delete", deleteLineQuery)
	defer func() { end(err) }()
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	l, err := scanLine(r.db.QueryRow(ctx, deleteLineQuery, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("cart line", id)
	}
	if err != nil {
		return nil, apperrors.StoreUnavailable(fmt.Errorf("delete cart line: %w", err))
	}
	return l, nil
}

// ClearByUser removes every line of the customer. Clearing an empty cart
// succeeds with zero rows.
func (r *CartRepository) ClearByUser(ctx context.Context, userEmail string) (_ int64, err error) {
	ctx, end := database.TraceQuery(ctx, "ClearByUser", clearCartQuery)
	defer func() { end(err) }()
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, clearCartQuery, userEmail)
	if err != nil {
		return 0, apperrors.StoreUnavailable(fmt.Errorf("clear cart: %w", err))
	}
	return tag.RowsAffected(), nil
}

// Ping checks the store connection.
func (r *CartRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.Ping(ctx)
}
