package handlers_test

import (
	"context"

	"github.com/geocoder89/storefront/internal/domain/catalog"
	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProductsRepo struct {
	listFn   func(ctx context.Context) ([]catalog.Product, error)
	getFn    func(ctx context.Context, id int64) (catalog.Product, error)
	createFn func(ctx context.Context, req catalog.ProductRequest) (catalog.Product, error)
	updateFn func(ctx context.Context, id int64, req catalog.ProductRequest) (catalog.Product, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (f *fakeProductsRepo) List(ctx context.Context) ([]catalog.Product, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return []catalog.Product{}, nil
}

func (f *fakeProductsRepo) GetByID(ctx context.Context, id int64) (catalog.Product, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return catalog.Product{}, nil
}

func (f *fakeProductsRepo) Create(ctx context.Context, req catalog.ProductRequest) (catalog.Product, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return catalog.Product{}, nil
}

func (f *fakeProductsRepo) Update(ctx context.Context, id int64, req catalog.ProductRequest) (catalog.Product, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return catalog.Product{}, nil
}

func (f *fakeProductsRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

type fakeCategoriesRepo struct {
	listFn   func(ctx context.Context) ([]catalog.Category, error)
	createFn func(ctx context.Context, req catalog.CreateCategoryRequest) (catalog.Category, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (f *fakeCategoriesRepo) List(ctx context.Context) ([]catalog.Category, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return []catalog.Category{}, nil
}

func (f *fakeCategoriesRepo) Create(ctx context.Context, req catalog.CreateCategoryRequest) (catalog.Category, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return catalog.Category{}, nil
}

func (f *fakeCategoriesRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

type fakeUsersRepo struct {
	getFn    func(ctx context.Context, identifier string) (user.User, error)
	createFn func(ctx context.Context, username, email, passwordHash, role string) (user.User, error)
}

func (f *fakeUsersRepo) GetByUsernameOrEmail(ctx context.Context, identifier string) (user.User, error) {
	if f.getFn != nil {
		return f.getFn(ctx, identifier)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) Create(ctx context.Context, username, email, passwordHash, role string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, username, email, passwordHash, role)
	}
	return user.User{ID: 1, Username: username, Email: email, PasswordHash: passwordHash, Role: role}, nil
}

type fakeTokens struct {
	issued []string
	err    error
}

func (f *fakeTokens) IssueToken(username, role string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.issued = append(f.issued, username+":"+role)
	return "token-for-" + username, nil
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}
