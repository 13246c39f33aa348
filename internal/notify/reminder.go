package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/spendsplit/internal/calculator"
	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/storage"
)

// DefaultReminderSchedule runs the debtor reminder daily at midnight.
const DefaultReminderSchedule = "0 0 * * *"

// maxConcurrentSends bounds parallel SMTP sessions.
const maxConcurrentSends = 4

// Reminder emails every user who owes money in the personal ledger.
type Reminder struct {
	store   storage.Reader
	sender  Sender
	timeout time.Duration
}

// NewReminder creates a reminder job.
func NewReminder(store storage.Reader, sender Sender) *Reminder {
	return &Reminder{
		store:   store,
		sender:  sender,
		timeout: 45 * time.Second,
	}
}

// Start schedules the job on a new cron runner and starts it.
// The caller stops the returned runner on shutdown.
func (r *Reminder) Start(schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultReminderSchedule
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		sent, err := r.Run(ctx)
		if err != nil {
			slog.Error("Debtor reminder run failed", "error", err, "sent", sent)
			return
		}
		slog.Info("Debtor reminders sent", "sent", sent)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule debtor reminder: %w", err)
	}

	c.Start()
	slog.Info("Debtor reminder scheduled", "schedule", schedule)
	return c, nil
}

// Run computes every user's outstanding personal debts and emails a summary
// to each debtor. It returns how many reminders were delivered. Send failures
// are collected; one failed recipient never stops the others.
func (r *Reminder) Run(ctx context.Context) (int, error) {
	users, err := r.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}
	expenses, err := r.store.ExpensesByScope(ctx, models.Personal)
	if err != nil {
		return 0, fmt.Errorf("failed to get personal expenses: %w", err)
	}
	settlements, err := r.store.SettlementsByScope(ctx, models.Personal, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get personal settlements: %w", err)
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	var messages []Message
	for _, u := range users {
		totals := calculator.GlobalBalances(u.ID, expenses, settlements)
		youOwe, _ := calculator.Outstanding(totals.ByUser)
		if len(youOwe) == 0 {
			continue
		}

		debts := make([]Debt, len(youOwe))
		for i, c := range youOwe {
			name, ok := names[c.UserID]
			if !ok {
				name = "Unknown"
			}
			debts[i] = Debt{Name: name, Amount: c.Amount}
		}
		messages = append(messages, DebtorReminder(u, debts))
	}

	return r.sendAll(ctx, messages)
}

func (r *Reminder) sendAll(ctx context.Context, messages []Message) (int, error) {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sent int
		errs []error
	)
	sem := make(chan struct{}, maxConcurrentSends)

dispatch:
	for _, msg := range messages {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		// A slot freed after cancellation does not start another send.
		if err := ctx.Err(); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("reminders not dispatched: %w", err))
			mu.Unlock()
			break dispatch
		}

		wg.Add(1)
		go func(msg Message) {
			defer wg.Done()
			defer func() { <-sem }()

			err := r.sender.Send(ctx, msg)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("reminder to %s: %w", msg.To, err))
				return
			}
			sent++
		}(msg)
	}

	wg.Wait()
	return sent, errors.Join(errs...)
}
