package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/spendsplit/internal/ledger"
	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/storage/memory"
)

func newTestAuthenticator() (*PasswordAuthenticator, *memory.Store) {
	store := memory.New()
	a := NewPasswordAuthenticator(store)
	a.cost = bcrypt.MinCost
	return a, store
}

func TestPasswordAuthenticator_Register(t *testing.T) {
	a, _ := newTestAuthenticator()
	ctx := context.Background()

	user, err := a.Register(ctx, " alice@example.com ", "Alice", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == "" || user.Email != "alice@example.com" {
		t.Errorf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "password123" {
		t.Error("password stored in plain text")
	}

	tests := []struct {
		name     string
		email    string
		userName string
		password string
		wantErr  error
	}{
		{"duplicate email", "alice@example.com", "Alice", "password123", ErrEmailExists},
		{"duplicate email other case", "ALICE@example.com", "Alice", "password123", ErrEmailExists},
		{"weak password", "bob@example.com", "Bob", "short", ErrWeakPassword},
		{"bad email", "not-an-email", "Bob", "password123", ErrInvalidEmail},
		{"missing name", "bob@example.com", "  ", "password123", ErrNameRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.email, tt.userName, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPasswordAuthenticator_Authenticate(t *testing.T) {
	a, _ := newTestAuthenticator()
	ctx := context.Background()

	registered, err := a.Register(ctx, "alice@example.com", "Alice", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	user, err := a.Authenticate(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("ID = %s, want %s", user.ID, registered.ID)
	}

	if _, err := a.Authenticate(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := a.Authenticate(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "u1", Email: "alice@example.com"}

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "alice@example.com" || claims.Subject != "u1" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("other-secret", time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTManager("test-secret", -time.Minute)
		tok, err := expired.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if _, err := m.Validate(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Validate(strings.Repeat("x", 20)); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestContextIdentity(t *testing.T) {
	store := memory.New()
	alice := &models.User{Name: "Alice", Email: "alice@example.com"}
	if err := store.CreateUser(context.Background(), alice); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	identity := NewContextIdentity(store)

	if _, err := identity.CurrentUser(context.Background()); !errors.Is(err, ledger.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated without session, got %v", err)
	}

	ctx := ContextWithUser(context.Background(), alice.ID, alice.Email)
	if UserIDFromContext(ctx) != alice.ID || EmailFromContext(ctx) != alice.Email {
		t.Errorf("context round trip failed")
	}
	user, err := identity.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if user.Name != "Alice" {
		t.Errorf("Name = %s, want Alice", user.Name)
	}

	stale := ContextWithUser(context.Background(), "deleted", "")
	if _, err := identity.CurrentUser(stale); !errors.Is(err, ledger.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated for unknown user, got %v", err)
	}
}
