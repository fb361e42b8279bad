package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironfuel/cartapi/internal/domain"
	"github.com/ironfuel/cartapi/pkg/database"
	apperrors "github.com/ironfuel/cartapi/pkg/errors"
)

const lineID = "7c0e9c5e-8a3c-4c1e-9d8e-2b1f3a4c5d6e"

var columns = []string{
	"id", "user_email", "product_id", "product_name", "price", "quantity", "image_url", "created_at",
}

var createdAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newLine() domain.NewLine {
	return domain.NewLine{
		UserEmail:   "lifter@example.com",
		ProductID:   "whey-1kg",
		ProductName: "Whey Protein 1kg",
		Price:       decimal.RequireFromString("19.99"),
		Quantity:    2,
		ImageURL:    "https://cdn.example/whey.png",
	}
}

func lineRow(rows *pgxmock.Rows, id string, quantity int) *pgxmock.Rows {
	n := newLine()
	return rows.AddRow(id, n.UserEmail, n.ProductID, n.ProductName, n.Price, quantity, n.ImageURL, createdAt)
}

func setup(t *testing.T) (pgxmock.PgxPoolIface, *CartRepository) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewCartRepository(mock, time.Second)
}

// ─── AddOrMerge ──────────────────────────────────────────────────────────────

func TestCartRepository_AddOrMerge_SingleUpsertStatement(t *testing.T) {
	mock, repo := setup(t)
	n := newLine()

	mock.ExpectQuery(`INSERT INTO cart .+ ON CONFLICT \(user_email, product_id\) DO UPDATE SET quantity = cart.quantity \+ EXCLUDED.quantity RETURNING`).
		WithArgs(n.UserEmail, n.ProductID, n.ProductName, n.Price, n.Quantity, n.ImageURL).
		WillReturnRows(lineRow(pgxmock.NewRows(columns), lineID, 5))

	line, err := repo.AddOrMerge(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, lineID, line.ID)
	assert.Equal(t, 5, line.Quantity)
	assert.True(t, line.Price.Equal(n.Price))
	assert.Equal(t, createdAt, line.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_AddOrMerge_StoreError(t *testing.T) {
	mock, repo := setup(t)
	n := newLine()

	mock.ExpectQuery(`INSERT INTO cart`).
		WithArgs(n.UserEmail, n.ProductID, n.ProductName, n.Price, n.Quantity, n.ImageURL).
		WillReturnError(errors.New("connection reset by peer"))

	line, err := repo.AddOrMerge(context.Background(), n)
	assert.Nil(t, line)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "connection reset by peer")
}

// ─── ListByUser ──────────────────────────────────────────────────────────────

func TestCartRepository_ListByUser(t *testing.T) {
	mock, repo := setup(t)

	rows := pgxmock.NewRows(columns)
	lineRow(rows, lineID, 2)
	lineRow(rows, "0b7e2c1d-1111-4a2b-9c3d-4e5f6a7b8c9d", 1)

	mock.ExpectQuery(`SELECT .+ FROM cart WHERE user_email = \$1 ORDER BY created_at DESC, id DESC`).
		WithArgs("lifter@example.com").
		WillReturnRows(rows)

	lines, err := repo.ListByUser(context.Background(), "lifter@example.com")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, lineID, lines[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_ListByUser_EmptyIsNotNil(t *testing.T) {
	mock, repo := setup(t)

	mock.ExpectQuery(`SELECT .+ FROM cart`).
		WithArgs("nobody@example.com").
		WillReturnRows(pgxmock.NewRows(columns))

	lines, err := repo.ListByUser(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}

func TestCartRepository_ListByUser_RowError(t *testing.T) {
	mock, repo := setup(t)

	rows := lineRow(pgxmock.NewRows(columns), lineID, 1).RowError(0, errors.New("conn closed"))
	mock.ExpectQuery(`SELECT .+ FROM cart`).WithArgs("lifter@example.com").WillReturnRows(rows)

	_, err := repo.ListByUser(context.Background(), "lifter@example.com")
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}

func TestCartRepository_ListByUser_QueryError(t *testing.T) {
	mock, repo := setup(t)

	mock.ExpectQuery(`SELECT .+ FROM cart`).WithArgs("lifter@example.com").
		WillReturnError(context.DeadlineExceeded)

	_, err := repo.ListByUser(context.Background(), "lifter@example.com")
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ─── SetQuantity ─────────────────────────────────────────────────────────────

func TestCartRepository_SetQuantity(t *testing.T) {
	mock, repo := setup(t)

	mock.ExpectQuery(`UPDATE cart SET quantity = \$1 WHERE id = \$2 RETURNING`).
		WithArgs(7, lineID).
		WillReturnRows(lineRow(pgxmock.NewRows(columns), lineID, 7))

	line, err := repo.SetQuantity(context.Background(), lineID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, line.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_SetQuantity_NotFound(t *testing.T) {
	mock, repo := setup(t)

	mock.ExpectQuery(`UPDATE cart`).WithArgs(3, lineID).WillReturnError(pgx.ErrNoRows)

	line, err := repo.SetQuantity(context.Background(), lineID, 3)
	assert.Nil(t, line)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_SetQuantity_MalformedIDSkipsStore(t *testing.T) {
	mock, repo := setup(t)

	_, err := repo.SetQuantity(context.Background(), "42", 3)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─── Delete ──────────────────────────────────────────────────────────────────

func TestCartRepository_Delete_ReturnsRemovedLine(t *testing.T) {
	mock, repo := setup(t)

	mock.ExpectQuery(`DELETE FROM cart WHERE id = \$1 RETURNING`).
		WithArgs(lineID).
		WillReturnRows(lineRow(pgxmock.NewRows(columns), lineID, 2))
	mock.ExpectQuery(`DELETE FROM cart WHERE id = \$1 RETURNING`).
		WithArgs(lineID).
		WillReturnError(pgx.ErrNoRows)

	line, err := repo.Delete(context.Background(), lineID)
	require.NoError(t, err)
	assert.Equal(t, "whey-1kg", line.ProductID)

	_, err = repo.Delete(context.Background(), lineID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_Delete_StoreError(t *testing.T) {
	mock, repo := setup(t)

	mock.ExpectQuery(`DELETE FROM cart`).WithArgs(lineID).WillReturnError(errors.New("broken pipe"))

	_, err := repo.Delete(context.Background(), lineID)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}

// ─── ClearByUser ─────────────────────────────────────────────────────────────

func TestCartRepository_ClearByUser(t *testing.T) {
	mock, repo := setup(t)

	mock.ExpectExec(`DELETE FROM cart WHERE user_email = \$1`).
		WithArgs("lifter@example.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM cart WHERE user_email = \$1`).
		WithArgs("lifter@example.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	n, err := repo.ClearByUser(context.Background(), "lifter@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = repo.ClearByUser(context.Background(), "lifter@example.com")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_ClearByUser_StoreError(t *testing.T) {
	mock, repo := setup(t)

	mock.ExpectExec(`DELETE FROM cart`).WithArgs("lifter@example.com").
		WillReturnError(errors.New("dial tcp: i/o timeout"))

	_, err := repo.ClearByUser(context.Background(), "lifter@example.com")
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}

func TestCartRepository_Ping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing().WillReturnError(errors.New("no route to host"))

	err = NewCartRepository(mock, time.Second).Ping(context.Background())
	assert.EqualError(t, err, "no route to host")
}
