package sqlite

import (
	"context"
	"time"

	"github.com/geocoder89/storefront/internal/domain/catalog"
	"gorm.io/gorm"
)

// productView is a product row plus the joined category name.
type productView struct {
	ID           int64
	Name         string
	Description  *string
	Price        float64
	CategoryID   *int64
	Quantity     int
	ImageURL     *string
	CreatedAt    int64
	CategoryName *string
}

func (v productView) toDomain() catalog.Product {
	return catalog.Product{
		ID:           v.ID,
		Name:         v.Name,
		Description:  v.Description,
		Price:        v.Price,
		CategoryID:   v.CategoryID,
		Quantity:     v.Quantity,
		ImageURL:     v.ImageURL,
		CreatedAt:    millis(v.CreatedAt),
		CategoryName: v.CategoryName,
	}
}

const (
	productColumns = `p.id, p.name, p.description, p.price, p.category_id, p.quantity, p.image_url, p.created_at`

	// RETURNING may not join, so the category name comes from a subquery.
	returningProduct = ` RETURNING id, name, description, price, category_id, quantity, image_url, created_at,
		(SELECT c.name FROM categories c WHERE c.id = products.category_id) AS category_name`
)

type ProductsRepo struct {
	db *gorm.DB
}

func NewProductsRepo(db *gorm.DB) *ProductsRepo {
	return &ProductsRepo{db: db}
}

func (r *ProductsRepo) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("products AS p").
		Select(productColumns + ", c.name AS category_name").
		Joins("LEFT JOIN categories c ON p.category_id = c.id")
}

func (r *ProductsRepo) List(ctx context.Context) ([]catalog.Product, error) {
	var views []productView
	if err := r.base(ctx).Order("p.created_at DESC, p.id DESC").Scan(&views).Error; err != nil {
		return nil, err
	}

	out := make([]catalog.Product, 0, len(views))
	for _, v := range views {
		out = append(out, v.toDomain())
	}
	return out, nil
}

func (r *ProductsRepo) GetByID(ctx context.Context, id int64) (catalog.Product, error) {
	var v productView
	res := r.base(ctx).Where("p.id = ?", id).Limit(1).Scan(&v)

	if res.Error != nil {
		return catalog.Product{}, res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return v.toDomain(), nil
}

func (r *ProductsRepo) Create(ctx context.Context, req catalog.ProductRequest) (catalog.Product, error) {
	var v productView
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO products (name, description, price, category_id, quantity, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`+returningProduct,
		req.Name, req.Description, req.Price, req.CategoryID, req.QuantityValue(), req.ImageURL, time.Now().UnixMilli(),
	).Scan(&v).Error

	if err != nil {
		return catalog.Product{}, err
	}
	return v.toDomain(), nil
}

func (r *ProductsRepo) Update(ctx context.Context, id int64, req catalog.ProductRequest) (catalog.Product, error) {
	var v productView
	res := r.db.WithContext(ctx).Raw(
		`UPDATE products
		SET name = ?, description = ?, price = ?, category_id = ?, quantity = ?, image_url = ?
		WHERE id = ?`+returningProduct,
		req.Name, req.Description, req.Price, req.CategoryID, req.QuantityValue(), req.ImageURL, id,
	).Scan(&v)

	if res.Error != nil {
		return catalog.Product{}, res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return v.toDomain(), nil
}

func (r *ProductsRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Exec(`DELETE FROM products WHERE id = ?`, id)

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return catalog.ErrProductNotFound
	}

	return nil
}
