package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/mmynk/spendsplit/internal/models"
)

// Debt is one line of a reminder: who the recipient owes and how much.
type Debt struct {
	Name   string
	Amount float64
}

var (
	expenseAddedHTML = template.Must(template.New("expense").Parse(
		`<p>Hi {{.To}},</p>
<p>{{.By}} added <strong>{{.Description}}</strong> ({{printf "%.2f" .Total}}). Your share is <strong>{{printf "%.2f" .Share}}</strong>.</p>`))

	settlementHTML = template.Must(template.New("settlement").Parse(
		`<p>Hi {{.To}},</p>
<p>{{.By}} recorded a payment of <strong>{{printf "%.2f" .Amount}}</strong> from {{.Payer}} to {{.Receiver}}.{{if .Note}} Note: {{.Note}}{{end}}</p>`))

	reminderHTML = template.Must(template.New("reminder").Parse(
		`<p>Hi {{.To}},</p>
<p>You have outstanding balances:</p>
<ul>{{range .Debts}}<li>{{.Name}}: {{printf "%.2f" .Amount}}</li>{{end}}</ul>
<p>Total: <strong>{{printf "%.2f" .Total}}</strong></p>`))
)

// ExpenseAdded tells to that creator added an expense with a share for them.
func ExpenseAdded(to, creator *models.User, e *models.Expense, share float64) Message {
	data := map[string]any{
		"To":          to.Name,
		"By":          creator.Name,
		"Description": e.Description,
		"Total":       e.Amount,
		"Share":       share,
	}
	return Message{
		To:      to.Email,
		Subject: fmt.Sprintf("New expense: %s", e.Description),
		HTML:    render(expenseAddedHTML, data),
		Text: fmt.Sprintf("%s added %s (%.2f). Your share is %.2f.",
			creator.Name, e.Description, e.Amount, share),
	}
}

// SettlementRecorded tells to that a payment between payer and receiver was recorded.
func SettlementRecorded(to, creator, payer, receiver *models.User, s *models.Settlement) Message {
	data := map[string]any{
		"To":       to.Name,
		"By":       creator.Name,
		"Amount":   s.Amount,
		"Payer":    payer.Name,
		"Receiver": receiver.Name,
		"Note":     s.Note,
	}
	return Message{
		To:      to.Email,
		Subject: fmt.Sprintf("Payment recorded: %.2f", s.Amount),
		HTML:    render(settlementHTML, data),
		Text: fmt.Sprintf("%s recorded a payment of %.2f from %s to %s.",
			creator.Name, s.Amount, payer.Name, receiver.Name),
	}
}

// DebtorReminder summarises everything to still owes.
func DebtorReminder(to *models.User, debts []Debt) Message {
	var total float64
	lines := make([]string, len(debts))
	for i, d := range debts {
		total += d.Amount
		lines[i] = fmt.Sprintf("- %s: %.2f", d.Name, d.Amount)
	}
	data := map[string]any{
		"To":    to.Name,
		"Debts": debts,
		"Total": total,
	}
	return Message{
		To:      to.Email,
		Subject: fmt.Sprintf("Reminder: you owe %.2f", total),
		HTML:    render(reminderHTML, data),
		Text:    "You have outstanding balances:\n" + strings.Join(lines, "\n"),
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}
