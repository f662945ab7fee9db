package model

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// maxBudget is the largest unsigned 128-bit integer.
var maxBudget = decimal.NewFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)), 0)

// Budget is a unit-less unsigned 128-bit amount. The zero value is 0.
//
// It encodes to JSON as a bare number and to SQL as its decimal string, so
// values above 2^53 survive round trips through both.
type Budget struct {
	d decimal.Decimal
}

// NewBudget returns the budget for n.
func NewBudget(n uint64) Budget {
	return Budget{d: decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)}
}

// maxBudgetDigits is the number of decimal digits in 2^128-1.
const maxBudgetDigits = 39

// ParseBudget parses a decimal integer in [0, 2^128-1].
func ParseBudget(s string) (Budget, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Budget{}, fmt.Errorf("%w: %s", ErrInvalidBudget, quoteInput(s))
	}
	return budgetFromDecimal(d, s)
}

// MustParseBudget is like ParseBudget but panics on error.
func MustParseBudget(s string) Budget {
	b, err := ParseBudget(s)
	if err != nil {
		panic(err)
	}
	return b
}

// budgetFromDecimal validates d. The exponent is bounded before anything
// rescales d, since rescaling materializes 10^|exponent|.
func budgetFromDecimal(d decimal.Decimal, raw string) (Budget, error) {
	in := quoteInput(raw)
	if exp := d.Exponent(); exp > maxBudgetDigits || exp < -maxBudgetDigits {
		return Budget{}, fmt.Errorf("%w: %s is out of range", ErrInvalidBudget, in)
	}
	if len(d.Coefficient().String()) > 2*maxBudgetDigits+1 {
		return Budget{}, fmt.Errorf("%w: %s is out of range", ErrInvalidBudget, in)
	}
	switch {
	case !d.IsInteger():
		return Budget{}, fmt.Errorf("%w: %s is not an integer", ErrInvalidBudget, in)
	case d.Sign() < 0:
		return Budget{}, fmt.Errorf("%w: %s is negative", ErrInvalidBudget, in)
	case d.Cmp(maxBudget) > 0:
		return Budget{}, fmt.Errorf("%w: %s exceeds 128 bits", ErrInvalidBudget, in)
	}
	return Budget{d: d.Truncate(0)}, nil
}

// quoteInput quotes s for an error message, shortening long input.
func quoteInput(s string) string {
	const max = 48
	if len(s) > max {
		return strconv.Quote(s[:max]) + "..."
	}
	return strconv.Quote(s)
}

// String returns the decimal form of the budget.
func (b Budget) String() string {
	return b.d.String()
}

// Equal reports whether two budgets hold the same amount.
func (b Budget) Equal(o Budget) bool {
	return b.d.Equal(o.d)
}

// IsZero reports whether the budget is 0.
func (b Budget) IsZero() bool {
	return b.d.IsZero()
}

// MarshalJSON encodes the budget as a bare JSON number.
func (b Budget) MarshalJSON() ([]byte, error) {
	return []byte(b.d.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (b *Budget) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: null", ErrInvalidBudget)
	}
	data = bytes.Trim(data, `"`)
	parsed, err := ParseBudget(string(data))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Value implements driver.Valuer.
func (b Budget) Value() (driver.Value, error) {
	return b.d.String(), nil
}

// Scan implements sql.Scanner.
func (b *Budget) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan budget: %w", err)
	}
	parsed, err := budgetFromDecimal(d, fmt.Sprint(src))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
