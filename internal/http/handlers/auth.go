package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/geocoder89/storefront/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByUsernameOrEmail(ctx context.Context, identifier string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, username, email, passwordHash, role string) (user.User, error)
}

type TokenIssuer interface {
	IssueToken(username, role string) (string, error)
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	tokens     TokenIssuer
	prom       *observability.Prom
}

func NewAuthHandler(users UserReader, userWriter UserWriter, tokens TokenIssuer, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		tokens:     tokens,
		prom:       prom,
	}
}

type LoginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    user.Summary `json:"user"`
}

// Register always creates a plain "user"; admins are seeded out of band.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.prom.AuthEvent("register", false)

		if errors.Is(err, security.ErrPasswordTooLong) {
			RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{{
				Field:   "password",
				Rule:    "max",
				Param:   strconv.Itoa(security.MaxPasswordBytes),
				Message: "must be at most " + strconv.Itoa(security.MaxPasswordBytes) + " bytes",
			}}})
			return
		}

		RespondInternal(ctx, "Could not register user", err)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	_, err = h.userWriter.Create(cctx, req.Username, req.Email, hash, user.RoleUser)

	if err != nil {
		h.prom.AuthEvent("register", false)

		if errors.Is(err, user.ErrAlreadyExists) {
			RespondConflict(ctx, "user_exists", "Username or email is already in use")
			return
		}

		RespondInternal(ctx, "Could not register user", err)
		return
	}

	h.prom.AuthEvent("register", true)
	RespondMessage(ctx, http.StatusCreated, "User registered successfully")
}

// Login accepts a username or an email in the username field.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	found, err := h.users.GetByUsernameOrEmail(cctx, req.Username)
	if err != nil {
		h.prom.AuthEvent("login", false)

		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "invalid_credentials", "Invalid credentials")
			return
		}

		RespondInternal(ctx, "Could not log in", err)
		return
	}

	if !security.VerifyPassword(found.PasswordHash, req.Password) {
		h.prom.AuthEvent("login", false)
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid credentials")
		return
	}

	token, err := h.tokens.IssueToken(found.Username, found.Role)

	if err != nil {
		h.prom.AuthEvent("login", false)
		RespondInternal(ctx, "Could not generate token", err)
		return
	}

	h.prom.AuthEvent("login", true)
	ctx.JSON(http.StatusOK, LoginResponse{
		Message: "Login successful",
		Token:   token,
		User:    found.Summary(),
	})
}
