// Package types provides common value types used across provenance.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Money is an amount of value in the smallest unit of its denomination.
// All arithmetic is integer-only.
//
// Examples:
//   - Native(200) = 200 wei, the native currency that accompanies a call
//   - Token("tok", 100) = 100 units of a fungible sale token
//   - USD(4900) = $49.00
type Money struct {
	Amount   int64  `json:"amount"`   // Smallest unit (wei, token units, cents)
	Currency string `json:"currency"` // Lowercase denomination code: "eth", "tok", "usd"
}

// NativeCurrency is the denomination of value that accompanies a call.
const NativeCurrency = "eth"

// Native creates a Money value in the native currency, expressed in wei.
func Native(wei int64) Money { return Money{Amount: wei, Currency: NativeCurrency} }

// Token creates a Money value denominated in a fungible token.
func Token(symbol string, units int64) Money {
	return Money{Amount: units, Currency: strings.ToLower(symbol)}
}

// USD creates a Money value in US Dollars (cents).
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// EUR creates a Money value in Euros (cents).
func EUR(cents int64) Money { return Money{Amount: cents, Currency: "eur"} }

// Zero returns a zero Money value in the specified currency.
func Zero(currency string) Money { return Money{Amount: 0, Currency: strings.ToLower(currency)} }

// Arithmetic operations

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// Multiply multiplies the Money by a quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty, Currency: m.Currency}
}

// MultiplyChecked multiplies the Money by a quantity and reports whether the
// result fits in an int64. Quantities and amounts must be non-negative.
func (m Money) MultiplyChecked(qty int64) (Money, bool) {
	if m.Amount < 0 || qty < 0 {
		return Money{}, false
	}
	if m.Amount != 0 && qty > (1<<63-1)/m.Amount {
		return Money{}, false
	}
	return Money{Amount: m.Amount * qty, Currency: m.Currency}, true
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal returns true if both Money values are equal (same amount and currency).
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// SameCurrency reports whether both values share a denomination.
func (m Money) SameCurrency(other Money) bool {
	return m.Currency == other.Currency
}

// LessThan returns true if this Money is less than other. Panics if currencies don't match.
func (m Money) LessThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount < other.Amount
}

// GreaterThan returns true if this Money is greater than other. Panics if currencies don't match.
func (m Money) GreaterThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount > other.Amount
}

// Formatting methods

// FormatMajor returns the amount in major units without a symbol:
// "49.00" for USD(4900), "100" for Token("tok", 100).
func (m Money) FormatMajor() string {
	places := int32(CurrencyDecimals(m.Currency))
	return decimal.New(m.Amount, -places).StringFixed(places)
}

// String returns a human-readable string with the currency symbol.
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. The display field is ignored.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Amount = raw.Amount
	m.Currency = raw.Currency
	return nil
}

// Helper functions

// assertSameCurrency panics if currencies don't match.
func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

var (
	denomMu       sync.RWMutex
	denomDecimals = map[string]int{
		NativeCurrency: 18,
		"usd":          2,
		"eur":          2,
	}
	denomSymbols = map[string]string{
		NativeCurrency: "Ξ",
		"usd":          "$",
		"eur":          "€",
	}
)

// RegisterDenomination records the display decimals of a token so that
// FormatMajor renders it in major units. Unknown denominations have 0 decimals.
func RegisterDenomination(code string, decimals int) {
	denomMu.Lock()
	defer denomMu.Unlock()
	denomDecimals[strings.ToLower(code)] = decimals
}

// CurrencyDecimals returns the number of decimal places for a denomination.
func CurrencyDecimals(currency string) int {
	denomMu.RLock()
	defer denomMu.RUnlock()
	return denomDecimals[strings.ToLower(currency)]
}

// currencySymbol returns the symbol for a denomination code.
func currencySymbol(currency string) string {
	denomMu.RLock()
	defer denomMu.RUnlock()
	if sym, ok := denomSymbols[strings.ToLower(currency)]; ok {
		return sym
	}
	return strings.ToUpper(currency) + " "
}
