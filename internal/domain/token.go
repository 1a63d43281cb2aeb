package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"fundhub/internal/money"
)

// Token identifies the currency a milestone or donation is denominated in.
type Token struct {
	Name     string `json:"name,omitempty"`
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`

	// hasDecimals records that Decimals was declared, so 0 is kept as is.
	hasDecimals bool
}

// WithDecimals returns t with an explicitly declared number of decimals.
func (t Token) WithDecimals(n int) Token {
	t.Decimals = n
	t.hasDecimals = true
	return t
}

// Normalize applies the 18-decimal default when decimals were never declared.
func (t Token) Normalize() Token {
	if !t.hasDecimals && t.Decimals == 0 {
		t.Decimals = money.Decimals
	}
	return t
}

func (t *Token) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name     string `json:"name"`
		Symbol   string `json:"symbol"`
		Address  string `json:"address"`
		Decimals *int   `json:"decimals"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = Token{Name: raw.Name, Symbol: raw.Symbol, Address: raw.Address}
	if raw.Decimals != nil {
		*t = t.WithDecimals(*raw.Decimals)
	}
	return nil
}

// Validate checks the token carries the fields the core relies on.
func (t Token) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("%w: token symbol is required", ErrInvalidRecord)
	}
	if t.Decimals < 0 || t.Decimals > money.Decimals {
		return fmt.Errorf("%w: token %s has %d decimals", ErrInvalidRecord, t.Symbol, t.Decimals)
	}
	return nil
}

// Same reports whether both tokens denote the same currency.
func (t Token) Same(o Token) bool {
	if t.Address != "" && o.Address != "" {
		return strings.EqualFold(t.Address, o.Address)
	}
	return strings.EqualFold(t.Symbol, o.Symbol)
}

// ParseAmount parses user input and rejects precision the token cannot carry.
func (t Token) ParseAmount(s string) (money.Money, error) {
	m, err := money.FromDecimalString(s)
	if err != nil {
		return money.Money{}, err
	}
	if _, err := m.ToSmallestUnit(t.Decimals); err != nil {
		return money.Money{}, err
	}
	return m, nil
}

// SmallestUnit renders m in the token's smallest unit for the chain gateway.
func (t Token) SmallestUnit(m money.Money) (string, error) {
	return m.ToSmallestUnit(t.Decimals)
}
