package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/precify-erp/precify/internal/platform/db"
)

// PostgresRepository persists products in the products table. Numeric columns
// are read through text casts so decimal values round-trip without float
// conversion.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]Product, error) {
	return pgStore{conn: r.pool}.FindAll(ctx)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (Product, error) {
	return pgStore{conn: r.pool}.FindByID(ctx, id)
}

func (r *PostgresRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return pgStore{conn: r.pool}.ExistsByID(ctx, id)
}

func (r *PostgresRepository) Save(ctx context.Context, p Product) (Product, error) {
	return pgStore{conn: r.pool}.Save(ctx, p)
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id int64) error {
	return pgStore{conn: r.pool}.DeleteByID(ctx, id)
}

// WithTx runs fn against a transactional view of the repository. Mutations go
// through here so the read-all/compute/write-all sequence commits atomically.
func (r *PostgresRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, pgStore{conn: tx})
	})
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pgStore struct {
	conn querier
}

const productColumns = `
	id, name, category,
	purchase_cost::text, estimated_quantity, desired_margin::text,
	tax_fraction::text, monthly_fixed_cost::text,
	fixed_cost_per_unit::text, total_base_cost::text, ideal_price::text,
	gross_profit_per_unit::text, gross_margin::text, monthly_profit::text,
	revenue::text,
	created_at, updated_at`

func (s pgStore) FindAll(ctx context.Context) ([]Product, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pricing: list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("pricing: scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pricing: list products: %w", err)
	}
	return products, nil
}

func (s pgStore) FindByID(ctx context.Context, id int64) (Product, error) {
	row := s.conn.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return Product{}, fmt.Errorf("pricing: get product %d: %w", id, err)
	}
	return p, nil
}

func (s pgStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pricing: check product %d: %w", id, err)
	}
	return exists, nil
}

func (s pgStore) Save(ctx context.Context, p Product) (Product, error) {
	if p.ID == 0 {
		return s.insert(ctx, p)
	}
	return s.update(ctx, p)
}

func (s pgStore) insert(ctx context.Context, p Product) (Product, error) {
	row := s.conn.QueryRow(ctx, `
		INSERT INTO products (
			name, category, purchase_cost, estimated_quantity, desired_margin,
			tax_fraction, monthly_fixed_cost,
			fixed_cost_per_unit, total_base_cost, ideal_price,
			gross_profit_per_unit, gross_margin, monthly_profit, revenue
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+productColumns,
		p.Name, p.Category, p.PurchaseCost.String(), p.EstimatedQuantity,
		p.DesiredMargin.String(), p.TaxFraction.String(), p.MonthlyFixedCost.String(),
		p.FixedCostPerUnit.String(), p.TotalBaseCost.String(), p.IdealPrice.String(),
		p.GrossProfitPerUnit.String(), p.GrossMargin.String(), p.MonthlyProfit.String(),
		p.Revenue.String(),
	)
	saved, err := scanProduct(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, fmt.Errorf("%w: name %q", ErrAlreadyExists, p.Name)
		}
		return Product{}, fmt.Errorf("pricing: insert product %q: %w", p.Name, err)
	}
	return saved, nil
}

func (s pgStore) update(ctx context.Context, p Product) (Product, error) {
	row := s.conn.QueryRow(ctx, `
		UPDATE products SET
			name = $2, category = $3, purchase_cost = $4, estimated_quantity = $5,
			desired_margin = $6, tax_fraction = $7, monthly_fixed_cost = $8,
			fixed_cost_per_unit = $9, total_base_cost = $10, ideal_price = $11,
			gross_profit_per_unit = $12, gross_margin = $13, monthly_profit = $14,
			revenue = $15,
			updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID,
		p.Name, p.Category, p.PurchaseCost.String(), p.EstimatedQuantity,
		p.DesiredMargin.String(), p.TaxFraction.String(), p.MonthlyFixedCost.String(),
		p.FixedCostPerUnit.String(), p.TotalBaseCost.String(), p.IdealPrice.String(),
		p.GrossProfitPerUnit.String(), p.GrossMargin.String(), p.MonthlyProfit.String(),
		p.Revenue.String(),
	)
	saved, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: id %d", ErrNotFound, p.ID)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, fmt.Errorf("%w: name %q", ErrAlreadyExists, p.Name)
		}
		return Product{}, fmt.Errorf("pricing: update product %d: %w", p.ID, err)
	}
	return saved, nil
}

func (s pgStore) DeleteByID(ctx context.Context, id int64) error {
	tag, err := s.conn.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pricing: delete product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p   Product
		raw [11]string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Category,
		&raw[0], &p.EstimatedQuantity, &raw[1], &raw[2], &raw[3],
		&raw[4], &raw[5], &raw[6], &raw[7], &raw[8], &raw[9], &raw[10],
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return Product{}, err
	}

	fields := []*decimal.Decimal{
		&p.PurchaseCost, &p.DesiredMargin, &p.TaxFraction, &p.MonthlyFixedCost,
		&p.FixedCostPerUnit, &p.TotalBaseCost, &p.IdealPrice,
		&p.GrossProfitPerUnit, &p.GrossMargin, &p.MonthlyProfit, &p.Revenue,
	}
	for i, field := range fields {
		d, err := decimal.NewFromString(raw[i])
		if err != nil {
			return Product{}, fmt.Errorf("decode numeric column: %w", err)
		}
		*field = d
	}
	return p, nil
}
