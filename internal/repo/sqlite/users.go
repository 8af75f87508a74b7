package sqlite

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/storefront/internal/domain/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRow struct {
	ID           int64 `gorm:"primaryKey"`
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    int64 `gorm:"autoCreateTime:milli"`
}

func (userRow) TableName() string { return "users" }

func (r userRow) toDomain() user.User {
	return user.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		CreatedAt:    millis(r.CreatedAt),
	}
}

type UsersRepo struct {
	db *gorm.DB
}

func NewUsersRepo(db *gorm.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

// GetByUsernameOrEmail prefers a username match when the identifier is one
// account's username and another's email.
func (r *UsersRepo) GetByUsernameOrEmail(ctx context.Context, identifier string) (user.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		Clauses(clause.OrderBy{Expression: clause.Expr{SQL: "username = ? DESC", Vars: []interface{}{identifier}, WithoutParentheses: true}}).
		Take(&row).Error
	return row.toDomain(), mapUserErr(err)
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&row).Error
	return row.toDomain(), mapUserErr(err)
}

func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash, role string) (user.User, error) {
	row := userRow{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrAlreadyExists
		}
		return user.User{}, err
	}

	return row.toDomain(), nil
}

func mapUserErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
