package auth

import (
	"context"
	"errors"

	"github.com/ZClee128/xieka/internal/domain"
)

// ErrInvalidCode means the email/code pair did not verify.
var ErrInvalidCode = errors.New("invalid email or verification code")

// Verifier is the verification-code collaborator. The store only cares about
// the returned user or failure; sending and checking codes is opaque to it.
type Verifier interface {
	RequestCode(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (domain.User, error)
}
