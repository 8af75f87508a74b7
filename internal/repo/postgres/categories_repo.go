package postgres

import (
	"context"

	"github.com/geocoder89/storefront/internal/domain/catalog"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCategoriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CategoriesRepo {
	return &CategoriesRepo{pool: pool, prom: prom}
}

func (r *CategoriesRepo) List(ctx context.Context) ([]catalog.Category, error) {
	output := make([]catalog.Category, 0)

	err := r.prom.ObserveDB("categories.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, description, created_at FROM categories ORDER BY name ASC, id ASC`)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var c catalog.Category

			if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
				return err
			}

			output = append(output, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *CategoriesRepo) Create(ctx context.Context, req catalog.CreateCategoryRequest) (catalog.Category, error) {
	var c catalog.Category

	err := r.prom.ObserveDB("categories.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO categories (name, description)
			VALUES ($1, $2)
			RETURNING id, name, description, created_at`,
			req.Name, req.Description,
		).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	})

	if err != nil {
		return catalog.Category{}, err
	}

	return c, nil
}

// Delete removes a category. Products that referenced it keep their
// category_id and read back with a nil category_name.
func (r *CategoriesRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.prom.ObserveDB("categories.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return catalog.ErrCategoryNotFound
	}

	return nil
}
