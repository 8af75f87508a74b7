package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/http/handlers"
	"github.com/geocoder89/storefront/internal/http/middlewares"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UsersStore is what the auth handler and middleware need from the user table.
type UsersStore interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (user.User, error)
	Create(ctx context.Context, username, email, passwordHash, role string) (user.User, error)
}

type TokenService interface {
	middlewares.TokenVerifier
	handlers.TokenIssuer
}

// Deps is everything the router wires together. Prom and Metrics are optional.
type Deps struct {
	Users      UsersStore
	Categories handlers.CategoriesStore
	Products   handlers.ProductsStore
	Tokens     TokenService
	Ping       func(ctx context.Context) error

	Prom    *observability.Prom
	Metrics http.Handler
}

func NewRouter(log *slog.Logger, deps Deps, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.OTELServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	// health
	ping := deps.Ping
	if ping == nil {
		ping = func(context.Context) error { return nil }
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	// wire up handlers
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Users, deps.Tokens, deps.Prom)
	categoriesHandler := handlers.NewCategoriesHandler(deps.Categories)
	productsHandler := handlers.NewProductsHandler(deps.Products)

	authMW := middlewares.NewAuthMiddleware(deps.Tokens, deps.Users, deps.Prom)

	api := r.Group(cfg.BasePath)

	// public
	api.POST("/register", middlewares.RequireJSON(), authHandler.Register)
	api.POST("/login", middlewares.RequireJSON(), authHandler.Login)

	// any signed-in user
	authed := api.Group("")
	authed.Use(authMW.RequireAuth())
	authed.GET("/products", productsHandler.ListProducts)
	authed.GET("/products/:id", productsHandler.GetProductByID)

	// admin only; content type is checked after the caller is known
	admin := api.Group("/admin")
	admin.Use(authMW.RequireAuth(), authMW.RequireRole(user.RoleAdmin), middlewares.RequireJSON())

	admin.POST("/products", productsHandler.CreateProduct)
	admin.PUT("/products/:id", productsHandler.UpdateProduct)
	admin.DELETE("/products/:id", productsHandler.DeleteProduct)

	admin.GET("/categories", categoriesHandler.ListCategories)
	admin.POST("/categories", categoriesHandler.CreateCategory)
	admin.DELETE("/categories/:id", categoriesHandler.DeleteCategory)

	return r
}
