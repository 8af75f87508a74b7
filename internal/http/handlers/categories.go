package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/storefront/internal/domain/catalog"
	"github.com/gin-gonic/gin"
)

type CategoriesStore interface {
	List(ctx context.Context) ([]catalog.Category, error)
	Create(ctx context.Context, req catalog.CreateCategoryRequest) (catalog.Category, error)
	Delete(ctx context.Context, id int64) error
}

type CategoriesHandler struct {
	repo CategoriesStore
}

func NewCategoriesHandler(repo CategoriesStore) *CategoriesHandler {
	return &CategoriesHandler{repo: repo}
}

func (h *CategoriesHandler) ListCategories(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	categories, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list categories", err)
		return
	}

	ctx.JSON(http.StatusOK, categories)
}

func (h *CategoriesHandler) CreateCategory(ctx *gin.Context) {
	var req catalog.CreateCategoryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Create(cctx, req)

	if err != nil {
		RespondInternal(ctx, "Could not create category", err)
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

func (h *CategoriesHandler) DeleteCategory(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			RespondNotFound(ctx, "Category not found")
			return
		}
		RespondInternal(ctx, "Could not delete category", err)
		return
	}

	RespondMessage(ctx, http.StatusOK, "Category deleted successfully")
}
