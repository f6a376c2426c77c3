// Package products provides the PostgreSQL-backed product catalog. Every
// product row references its owning user.
package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/models"
)

const selectProduct = `SELECT p.id, p.name, p.description, p.price, p.category, p.is_available,
		        p.image_path, p.created_at, p.owner_id, u.username
		 FROM products p
		 JOIN users u ON u.id = p.owner_id`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	query :=
		`INSERT INTO products (name, description, price, category, is_available, image_path, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		p.Name, nullString(p.Description), p.Price, p.Category, p.IsAvailable, p.ImagePath, p.OwnerID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, selectProduct+` ORDER BY p.created_at, p.id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, selectProduct+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// Update writes every mutable column of p. Ownership is never changed.
func (r *PostgresRepository) Update(ctx context.Context, p *models.Product) error {
	query :=
		`UPDATE products
		 SET name = $1, description = $2, price = $3, category = $4, is_available = $5, image_path = $6
		 WHERE id = $7`

	res, err := r.db.ExecContext(ctx, query,
		p.Name, nullString(p.Description), p.Price, p.Category, p.IsAvailable, p.ImagePath, p.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	var (
		p           models.Product
		description sql.NullString
		imagePath   sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &description, &p.Price, &p.Category, &p.IsAvailable,
		&imagePath, &p.CreatedAt, &p.OwnerID, &p.OwnerUserName)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	if imagePath.Valid {
		p.ImagePath = &imagePath.String
	}
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
