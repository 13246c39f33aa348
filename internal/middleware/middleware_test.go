package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/spendsplit/internal/auth"
	"github.com/mmynk/spendsplit/internal/models"
)

type empty struct{}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"Bearer a b", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func callWith(interceptor connect.UnaryInterceptorFunc, header string) (string, error) {
	var seen string
	next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		seen = GetUserID(ctx)
		return connect.NewResponse(&empty{}), nil
	}

	req := connect.NewRequest(&empty{})
	if header != "" {
		req.Header().Set("Authorization", header)
	}
	_, err := interceptor(next)(context.Background(), req)
	return seen, err
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	tests := []struct {
		name   string
		header string
		code   connect.Code
	}{
		{"valid token", "Bearer " + token, 0},
		{"missing header", "", connect.CodeUnauthenticated},
		{"wrong scheme", "Token " + token, connect.CodeUnauthenticated},
		{"garbage token", "Bearer not-a-jwt", connect.CodeUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := callWith(RequireAuth(jwtManager), tt.header)
			if tt.code == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if userID != "alice" {
					t.Errorf("expected user alice in context, got %q", userID)
				}
				return
			}
			if connect.CodeOf(err) != tt.code {
				t.Errorf("expected code %v, got %v (%v)", tt.code, connect.CodeOf(err), err)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	userID, err := callWith(OptionalAuth(jwtManager), "Bearer "+token)
	if err != nil || userID != "alice" {
		t.Errorf("valid token: got %q, %v", userID, err)
	}

	userID, err = callWith(OptionalAuth(jwtManager), "Bearer bogus")
	if err != nil || userID != "" {
		t.Errorf("invalid token should pass anonymously: got %q, %v", userID, err)
	}
}

func TestMetricsInterceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	ok := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&empty{}), nil
	}
	fail := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("missing"))
	}

	interceptor := MetricsInterceptor(m)
	for i := 0; i < 2; i++ {
		if _, err := interceptor(ok)(context.Background(), connect.NewRequest(&empty{})); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := interceptor(fail)(context.Background(), connect.NewRequest(&empty{})); err == nil {
		t.Fatal("expected error")
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("", "ok")); got != 2 {
		t.Errorf("expected 2 ok calls, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("", "not_found")); got != 1 {
		t.Errorf("expected 1 not_found call, got %v", got)
	}

	if _, err := NewMetrics(reg); err == nil {
		t.Error("registering twice should fail")
	}
}
