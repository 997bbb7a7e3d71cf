package types

import (
	"encoding/json"
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"Native", Native(1_500_000_000_000_000_000), 1_500_000_000_000_000_000, "eth", "Ξ1.500000000000000000"},
		{"Token", Token("TOK", 100), 100, "tok", "TOK 100"},
		{"USD", USD(4900), 4900, "usd", "$49.00"},
		{"EUR", EUR(19900), 19900, "eur", "€199.00"},
		{"Zero USD", Zero("USD"), 0, "usd", "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return Native(100).Add(Native(200)) }, Native(300)},
		{"Subtract", func() Money { return Native(500).Subtract(Native(200)) }, Native(300)},
		{"Multiply", func() Money { return Token("tok", 1).Multiply(100) }, Token("tok", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op(); !got.Equal(tt.expected) {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMultiplyChecked(t *testing.T) {
	if got, ok := Native(2).MultiplyChecked(100); !ok || got.Amount != 200 {
		t.Errorf("MultiplyChecked(100) = %v, %v", got, ok)
	}
	if _, ok := Native(1 << 40).MultiplyChecked(1 << 40); ok {
		t.Error("expected overflow to be reported")
	}
	if _, ok := Native(1).MultiplyChecked(-1); ok {
		t.Error("expected negative quantity to be rejected")
	}
	if got, ok := Native(0).MultiplyChecked(1 << 62); !ok || !got.IsZero() {
		t.Errorf("zero fee should never overflow, got %v, %v", got, ok)
	}
}

func TestMoneyCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on currency mismatch")
		}
	}()
	_ = Native(1).Add(Token("tok", 1))
}

func TestRegisterDenomination(t *testing.T) {
	RegisterDenomination("gld", 2)
	if got := Token("gld", 1234).FormatMajor(); got != "12.34" {
		t.Errorf("FormatMajor: got %s, want 12.34", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(Native(200))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var restored Money
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !restored.Equal(Native(200)) {
		t.Errorf("got %v, want %v", restored, Native(200))
	}
}
