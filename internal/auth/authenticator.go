// Package auth handles user accounts and sessions: password registration and
// login, signed session tokens, and resolving the current user of a request.
package auth

import (
	"context"

	"github.com/mmynk/spendsplit/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// Services depend on it so the password flow can be replaced by another
// credential type without touching them.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, name, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
