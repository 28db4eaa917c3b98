package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// moneyScale is the number of fractional digits carried by every amount.
const moneyScale = 2

// Money is an exact decimal amount. The zero value is 0.00.
type Money struct {
	amount decimal.Decimal
}

var (
	ZeroMoney     = Money{}
	minimalAmount = decimal.New(1, -moneyScale)
)

func NewMoney(d decimal.Decimal) Money {
	return Money{amount: d}
}

func MoneyFromInt(units int64) Money {
	return Money{amount: decimal.NewFromInt(units)}
}

// ParseMoney parses a decimal string such as "10.50".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid monetary amount %q: %w", s, err)
	}
	return Money{amount: d}, nil
}

// MustParseMoney is ParseMoney for constants and tests.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func SumMoney(amounts ...Money) Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.amount)
	}
	return Money{amount: total}
}

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

func (m Money) Mul(quantity int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(quantity)))}
}

func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// HasValidScale reports whether the amount fits in cents.
func (m Money) HasValidScale() bool {
	return m.amount.Equal(m.amount.Round(moneyScale))
}

// IsChargeable reports whether the amount is at least 0.01 and fits in cents.
func (m Money) IsChargeable() bool {
	return m.amount.GreaterThanOrEqual(minimalAmount) && m.HasValidScale()
}

func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

func (m Money) String() string {
	return m.amount.StringFixed(moneyScale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	m.amount = d
	return nil
}

func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	m.amount = d
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.amount.StringFixed(moneyScale), nil
}
