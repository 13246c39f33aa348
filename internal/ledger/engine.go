// Package ledger is the balance engine of spendsplit. It resolves the current
// user, pulls the records a question needs from storage, and reduces them with
// the calculator. Nothing it computes is cached or stored: every call starts
// from the raw expenses and settlements.
//
// Writes go straight to the store, which is responsible for making each one
// atomic. The engine itself holds no locks.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/notify"
	"github.com/mmynk/spendsplit/internal/storage"
)

// Engine answers balance queries and applies mutations for the current user.
type Engine struct {
	store     storage.Store
	identity  Identity
	sender    notify.Sender
	validator *inputValidator
	now       func() time.Time
	loc       *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithSender sets where notification emails go. Defaults to notify.NopSender.
func WithSender(s notify.Sender) Option {
	return func(e *Engine) { e.sender = s }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the time zone used for calendar-year and month boundaries.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// New creates an engine over store.
func New(store storage.Store, identity Identity, opts ...Option) (*Engine, error) {
	v, err := newInputValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	e := &Engine{
		store:     store,
		identity:  identity,
		sender:    notify.NopSender{},
		validator: v,
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// currentUser resolves the caller. Only identity errors wrapping
// ErrUnauthenticated mean there is no caller; anything else, such as a store
// outage, is returned as an internal failure.
func (e *Engine) currentUser(ctx context.Context) (*models.User, error) {
	user, err := e.identity.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve current user: %w", err)
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// clock returns the current time in the engine's location.
func (e *Engine) clock() time.Time {
	return e.now().In(e.loc)
}
