package calculator

import (
	"errors"
	"math"
	"testing"

	"github.com/mmynk/spendsplit/internal/models"
)

func sumSplits(splits []models.Split) float64 {
	var total float64
	for _, s := range splits {
		total += s.Amount
	}
	return total
}

func TestEqualSplits(t *testing.T) {
	tests := []struct {
		name       string
		amount     float64
		payer      string
		users      []string
		wantErr    bool
		wantShares []float64
	}{
		{
			name:       "two people even amount",
			amount:     100,
			payer:      "alice",
			users:      []string{"alice", "bob"},
			wantShares: []float64{50, 50},
		},
		{
			name:       "three people remainder goes to first",
			amount:     100,
			payer:      "alice",
			users:      []string{"alice", "bob", "carol"},
			wantShares: []float64{33.34, 33.33, 33.33},
		},
		{
			name:       "ninety between three",
			amount:     90,
			payer:      "bob",
			users:      []string{"alice", "bob", "carol"},
			wantShares: []float64{30, 30, 30},
		},
		{
			name:    "no participants",
			amount:  10,
			users:   nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := EqualSplits(tt.amount, tt.payer, tt.users)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EqualSplits() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			for i, want := range tt.wantShares {
				if math.Abs(splits[i].Amount-want) > 1e-9 {
					t.Errorf("split[%d] = %v, want %v", i, splits[i].Amount, want)
				}
				if splits[i].Paid != (splits[i].UserID == tt.payer) {
					t.Errorf("split[%d] paid = %v for user %s", i, splits[i].Paid, splits[i].UserID)
				}
			}
			if err := ValidateSplitTotal(tt.amount, splits); err != nil {
				t.Errorf("splits do not add up: %v", err)
			}
		})
	}
}

func TestPercentageSplits(t *testing.T) {
	tests := []struct {
		name       string
		amount     float64
		shares     []Share
		wantErr    error
		wantShares []float64
	}{
		{
			name:       "70/30",
			amount:     200,
			shares:     []Share{{"alice", 70}, {"bob", 30}},
			wantShares: []float64{140, 60},
		},
		{
			name:       "thirds with leftover cent",
			amount:     10,
			shares:     []Share{{"alice", 33.33}, {"bob", 33.33}, {"carol", 33.34}},
			wantShares: []float64{3.34, 3.33, 3.33},
		},
		{
			name:    "not adding up to 100",
			amount:  10,
			shares:  []Share{{"alice", 50}, {"bob", 40}},
			wantErr: ErrPercentTotal,
		},
		{
			name:    "empty",
			amount:  10,
			wantErr: ErrNoSplitUsers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := PercentageSplits(tt.amount, "alice", tt.shares)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("PercentageSplits() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("PercentageSplits() unexpected error: %v", err)
			}
			for i, want := range tt.wantShares {
				if math.Abs(splits[i].Amount-want) > 1e-9 {
					t.Errorf("split[%d] = %v, want %v", i, splits[i].Amount, want)
				}
			}
			if math.Abs(sumSplits(splits)-tt.amount) > Tolerance {
				t.Errorf("sum = %v, want %v", sumSplits(splits), tt.amount)
			}
		})
	}
}

func TestValidateSplitTotal(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		splits  []models.Split
		wantErr bool
	}{
		{"exact match", 100, []models.Split{{UserID: "a", Amount: 60}, {UserID: "b", Amount: 40}}, false},
		{"within tolerance", 100, []models.Split{{UserID: "a", Amount: 33.33}, {UserID: "b", Amount: 33.33}, {UserID: "c", Amount: 33.33}}, false},
		{"exactly one cent off", 10, []models.Split{{UserID: "a", Amount: 9.99}}, false},
		{"two cents off", 10, []models.Split{{UserID: "a", Amount: 9.98}}, true},
		{"over", 10, []models.Split{{UserID: "a", Amount: 6}, {UserID: "b", Amount: 6}}, true},
		{"no splits", 10, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSplitTotal(tt.amount, tt.splits)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSplitTotal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrSplitMismatch) {
				t.Errorf("expected ErrSplitMismatch, got %v", err)
			}
		})
	}
}

func TestExactSplits(t *testing.T) {
	t.Run("marks payer paid", func(t *testing.T) {
		splits, err := ExactSplits(30, "a", []models.Split{{UserID: "a", Amount: 10}, {UserID: "b", Amount: 20}})
		if err != nil {
			t.Fatalf("ExactSplits failed: %v", err)
		}
		if !splits[0].Paid || splits[1].Paid {
			t.Errorf("paid flags = %v, %v", splits[0].Paid, splits[1].Paid)
		}
	})

	t.Run("keeps caller paid flags", func(t *testing.T) {
		splits, err := ExactSplits(30, "a", []models.Split{{UserID: "a", Amount: 10}, {UserID: "b", Amount: 10, Paid: true}, {UserID: "c", Amount: 10}})
		if err != nil {
			t.Fatalf("ExactSplits failed: %v", err)
		}
		if !splits[0].Paid || !splits[1].Paid || splits[2].Paid {
			t.Errorf("paid flags = %v, %v, %v", splits[0].Paid, splits[1].Paid, splits[2].Paid)
		}
	})

	t.Run("rejects mismatch", func(t *testing.T) {
		_, err := ExactSplits(30, "a", []models.Split{{UserID: "b", Amount: 20}})
		if !errors.Is(err, ErrSplitMismatch) {
			t.Errorf("expected ErrSplitMismatch, got %v", err)
		}
	})

	t.Run("rejects negative", func(t *testing.T) {
		if _, err := ExactSplits(0, "a", []models.Split{{UserID: "b", Amount: -5}, {UserID: "c", Amount: 5}}); err == nil {
			t.Error("expected error for negative amount")
		}
	})

	t.Run("rejects empty", func(t *testing.T) {
		if _, err := ExactSplits(10, "a", nil); !errors.Is(err, ErrNoSplitUsers) {
			t.Errorf("expected ErrNoSplitUsers, got %v", err)
		}
	})
}
