package sqlite

import (
	"context"

	"github.com/geocoder89/storefront/internal/domain/catalog"
	"gorm.io/gorm"
)

type categoryRow struct {
	ID          int64 `gorm:"primaryKey"`
	Name        string
	Description *string
	CreatedAt   int64 `gorm:"autoCreateTime:milli"`
}

func (categoryRow) TableName() string { return "categories" }

func (r categoryRow) toDomain() catalog.Category {
	return catalog.Category{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   millis(r.CreatedAt),
	}
}

type CategoriesRepo struct {
	db *gorm.DB
}

func NewCategoriesRepo(db *gorm.DB) *CategoriesRepo {
	return &CategoriesRepo{db: db}
}

func (r *CategoriesRepo) List(ctx context.Context) ([]catalog.Category, error) {
	var rows []categoryRow
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]catalog.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *CategoriesRepo) Create(ctx context.Context, req catalog.CreateCategoryRequest) (catalog.Category, error) {
	row := categoryRow{Name: req.Name, Description: req.Description}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return catalog.Category{}, err
	}
	return row.toDomain(), nil
}

func (r *CategoriesRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&categoryRow{}, id)

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return catalog.ErrCategoryNotFound
	}

	return nil
}
