package ports

import (
	"context"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

// AuthRepository defines the interface for user authentication persistence.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UserDirectory
}

// UserDirectory resolves a user by id. The KYC engine reads names from it
// for registry matching and never writes users.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
