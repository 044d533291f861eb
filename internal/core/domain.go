package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense TxType = "expense"
	Income  TxType = "income"

	// DefaultCurrency is used when a transaction does not specify one.
	DefaultCurrency = "INR"

	// DateLayout is the wire and storage format for transaction dates.
	DateLayout = "2006-01-02"
)

type (
	TxType string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID           int64           `json:"id,omitempty"`
		Date         Date            `json:"date"`
		Description  string          `json:"description"`
		Amount       decimal.Decimal `json:"amount"`
		Currency     string          `json:"currency,omitempty"`
		MainCategory string          `json:"main_category"`
		SubCategory  string          `json:"sub_category"`
		Type         TxType          `json:"type"`
		Person       string          `json:"person,omitempty"`
		Group        string          `json:"group,omitempty"`
		SplitRatio   float64         `json:"split_ratio"`
	}
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyMainCategory = errors.New("empty main category")
	ErrEmptySubCategory  = errors.New("empty sub category")
	ErrInvalidType       = errors.New("type must be 'expense' or 'income'")
	ErrInvalidSplitRatio = errors.New("split ratio must be in (0, 1]")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrLongDescription   = errors.New("description too long (max 200 characters)")
)

// IsValidationError reports whether err is a client-input problem rather
// than an internal failure.
func IsValidationError(err error) bool {
	for _, e := range []error{
		ErrInvalidDate, ErrInvalidAmount, ErrEmptyDescription,
		ErrEmptyMainCategory, ErrEmptySubCategory, ErrInvalidType,
		ErrInvalidSplitRatio, ErrUnknownCategory, ErrLongDescription,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func (t TxType) Valid() bool {
	return t == Expense || t == Income
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today truncates the given instant to a calendar date.
func Today(now time.Time) Date {
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Normalize fills defaults for optional fields. It does not validate.
func (t *Transaction) Normalize(now time.Time) {
	if t.Date.IsZero() {
		t.Date = Today(now)
	}
	if strings.TrimSpace(t.Currency) == "" {
		t.Currency = DefaultCurrency
	}
	if t.SplitRatio == 0 {
		t.SplitRatio = 1
	}
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrLongDescription
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.MainCategory) == "" {
		return ErrEmptyMainCategory
	}
	if strings.TrimSpace(t.SubCategory) == "" {
		return ErrEmptySubCategory
	}
	if t.SplitRatio <= 0 || t.SplitRatio > 1 {
		return ErrInvalidSplitRatio
	}
	return nil
}

// Signed returns the amount signed by transaction type: expenses negative,
// income positive.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}
