package ports

import (
	"context"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

// RegisterInput carries sign-up data. Role is user or owner.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
