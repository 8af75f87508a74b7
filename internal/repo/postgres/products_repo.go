package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/storefront/internal/domain/catalog"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// selectProducts reads products with their category name. LEFT JOIN keeps
// products whose category is gone.
const selectProducts = `SELECT p.id, p.name, p.description, p.price::float8, p.category_id,
		p.quantity, p.image_url, p.created_at, c.name AS category_name
	FROM products p
	LEFT JOIN categories c ON p.category_id = c.id`

type ProductsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProductsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProductsRepo {
	return &ProductsRepo{pool: pool, prom: prom}
}

func scanProduct(row pgx.Row, p *catalog.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.CategoryID,
		&p.Quantity,
		&p.ImageURL,
		&p.CreatedAt,
		&p.CategoryName,
	)
}

func (r *ProductsRepo) List(ctx context.Context) ([]catalog.Product, error) {
	output := make([]catalog.Product, 0)

	err := r.prom.ObserveDB("products.list", func() error {
		rows, err := r.pool.Query(ctx, selectProducts+` ORDER BY p.created_at DESC, p.id DESC`)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var p catalog.Product

			if err := scanProduct(rows, &p); err != nil {
				return err
			}

			output = append(output, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *ProductsRepo) GetByID(ctx context.Context, id int64) (catalog.Product, error) {
	var p catalog.Product

	err := r.prom.ObserveDB("products.get", func() error {
		return scanProduct(r.pool.QueryRow(ctx, selectProducts+` WHERE p.id = $1`, id), &p)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Product{}, catalog.ErrProductNotFound
		}
		return catalog.Product{}, err
	}

	return p, nil
}

// Create inserts a product. category_id is stored as given; it is not checked
// against categories.
func (r *ProductsRepo) Create(ctx context.Context, req catalog.ProductRequest) (catalog.Product, error) {
	var p catalog.Product

	// CTE keeps the insert and the category lookup in one statement.
	err := r.prom.ObserveDB("products.create", func() error {
		return scanProduct(r.pool.QueryRow(ctx,
			`WITH p AS (
				INSERT INTO products (name, description, price, category_id, quantity, image_url)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING *
			)
			SELECT p.id, p.name, p.description, p.price::float8, p.category_id,
				p.quantity, p.image_url, p.created_at, c.name
			FROM p LEFT JOIN categories c ON p.category_id = c.id`,
			req.Name, req.Description, req.Price, req.CategoryID, req.QuantityValue(), req.ImageURL,
		), &p)
	})

	if err != nil {
		return catalog.Product{}, err
	}

	return p, nil
}

func (r *ProductsRepo) Update(ctx context.Context, id int64, req catalog.ProductRequest) (catalog.Product, error) {
	var p catalog.Product

	err := r.prom.ObserveDB("products.update", func() error {
		return scanProduct(r.pool.QueryRow(ctx,
			`WITH p AS (
				UPDATE products
				SET name = $2,
					description = $3,
					price = $4,
					category_id = $5,
					quantity = $6,
					image_url = $7
				WHERE id = $1
				RETURNING *
			)
			SELECT p.id, p.name, p.description, p.price::float8, p.category_id,
				p.quantity, p.image_url, p.created_at, c.name
			FROM p LEFT JOIN categories c ON p.category_id = c.id`,
			id, req.Name, req.Description, req.Price, req.CategoryID, req.QuantityValue(), req.ImageURL,
		), &p)
	})

	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Product{}, catalog.ErrProductNotFound
		}
		return catalog.Product{}, err
	}

	return p, nil
}

func (r *ProductsRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.prom.ObserveDB("products.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return catalog.ErrProductNotFound
	}

	return nil
}
