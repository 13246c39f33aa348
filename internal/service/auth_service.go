package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/spendsplit/internal/auth"
	"github.com/mmynk/spendsplit/internal/ledger"
	"github.com/mmynk/spendsplit/internal/models"
)

// AuthServiceName is the fully-qualified name of the auth service.
const AuthServiceName = "spendsplit.v1.AuthService"

// Auth service procedure paths.
const (
	RegisterProcedure       = "/" + AuthServiceName + "/Register"
	LoginProcedure          = "/" + AuthServiceName + "/Login"
	GetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"
)

// AuthService handles account registration, login and session lookup.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	identity      ledger.Identity
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, identity ledger.Identity) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		identity:      identity,
	}
}

// NewAuthServiceHandler builds an HTTP handler serving every auth procedure.
// Register and Login are public, so the handler must not sit behind
// middleware.RequireAuth; GetCurrentUser checks the session itself.
func NewAuthServiceHandler(svc *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)

	mux := http.NewServeMux()
	mux.Handle(RegisterProcedure, connect.NewUnaryHandler(RegisterProcedure, svc.Register, opts...))
	mux.Handle(LoginProcedure, connect.NewUnaryHandler(LoginProcedure, svc.Login, opts...))
	mux.Handle(GetCurrentUserProcedure, connect.NewUnaryHandler(GetCurrentUserProcedure, svc.GetCurrentUser, opts...))

	return "/" + AuthServiceName + "/", mux
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error) {
	slog.Info("Register request", "email", req.Msg.Email)

	user, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.Name, req.Msg.Password)
	if err != nil {
		slog.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError("Register", err)
	}

	resp, err := s.session(user)
	if err != nil {
		return nil, toConnectError("Register", err)
	}

	slog.Info("User registered successfully", "user_id", user.ID)
	return connect.NewResponse(resp), nil
}

// Login authenticates a user and returns a session token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error) {
	slog.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Warn("Login failed", "email", req.Msg.Email)
		}
		return nil, toConnectError("Login", err)
	}

	resp, err := s.session(user)
	if err != nil {
		return nil, toConnectError("Login", err)
	}

	slog.Info("User logged in successfully", "user_id", user.ID)
	return connect.NewResponse(resp), nil
}

// GetCurrentUser returns the user behind the request's session.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error) {
	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, toConnectError("GetCurrentUser", err)
	}
	return connect.NewResponse(&GetCurrentUserResponse{User: toUser(user)}), nil
}

func (s *AuthService) session(user *models.User) (*AuthResponse, error) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		User:      toUser(user),
		Token:     token,
		ExpiresAt: time.Now().Add(s.jwtManager.TokenDuration()).UnixMilli(),
	}, nil
}
