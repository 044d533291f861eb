package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validTransaction() Transaction {
	return Transaction{
		Date:         NewDate(2026, 8, 23),
		Description:  "groceries",
		Amount:       decimal.RequireFromString("250.50"),
		Currency:     DefaultCurrency,
		MainCategory: "Food",
		SubCategory:  "groceries",
		Type:         Expense,
		SplitRatio:   1,
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.RequireFromString("-5") }, ErrInvalidAmount},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"empty main", func(tx *Transaction) { tx.MainCategory = "" }, ErrEmptyMainCategory},
		{"empty sub", func(tx *Transaction) { tx.SubCategory = "" }, ErrEmptySubCategory},
		{"zero split", func(tx *Transaction) { tx.SplitRatio = 0 }, ErrInvalidSplitRatio},
		{"split above one", func(tx *Transaction) { tx.SplitRatio = 1.5 }, ErrInvalidSplitRatio},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTransaction()
			tc.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestTransactionValidateLongDescription(t *testing.T) {
	tx := validTransaction()
	for len(tx.Description) <= 200 {
		tx.Description += "x"
	}
	if err := tx.Validate(); !errors.Is(err, ErrLongDescription) {
		t.Fatalf("got %v, want %v", err, ErrLongDescription)
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	now := time.Date(2026, 8, 23, 15, 4, 5, 0, time.UTC)
	tx := Transaction{Description: "chai", Amount: decimal.NewFromInt(10), Type: Expense}
	tx.Normalize(now)

	if got := tx.Date.String(); got != "2026-08-23" {
		t.Fatalf("date = %s", got)
	}
	if tx.Currency != DefaultCurrency {
		t.Fatalf("currency = %s", tx.Currency)
	}
	if tx.SplitRatio != 1 {
		t.Fatalf("split ratio = %v", tx.SplitRatio)
	}
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	tx := validTransaction()
	tx.Currency = "USD"
	tx.SplitRatio = 0.5
	tx.Normalize(time.Now())

	if tx.Currency != "USD" || tx.SplitRatio != 0.5 {
		t.Fatalf("normalize overwrote explicit values: %+v", tx)
	}
	if got := tx.Date.String(); got != "2026-08-23" {
		t.Fatalf("date changed: %s", got)
	}
}

// Amounts must survive a JSON round trip without any floating-point drift.
func TestTransactionJSONRoundTrip(t *testing.T) {
	original := validTransaction()
	original.ID = 7
	original.Amount = decimal.RequireFromString("20.1")
	original.Person = "Deepak"
	original.Group = "friends"
	original.SplitRatio = 0.25

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Transaction
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !decoded.Amount.Equal(original.Amount) {
		t.Fatalf("amount drifted: %s != %s", decoded.Amount, original.Amount)
	}
	if decoded.Amount.String() != "20.1" {
		t.Fatalf("amount formatting changed: %s", decoded.Amount)
	}
	if decoded.Date.String() != original.Date.String() {
		t.Fatalf("date drifted: %s != %s", decoded.Date, original.Date)
	}
	if decoded.Description != original.Description ||
		decoded.MainCategory != original.MainCategory ||
		decoded.SubCategory != original.SubCategory ||
		decoded.Type != original.Type ||
		decoded.Person != original.Person ||
		decoded.Group != original.Group ||
		decoded.SplitRatio != original.SplitRatio ||
		decoded.ID != original.ID {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, original)
	}
}

func TestDateUnmarshalRejectsBadFormats(t *testing.T) {
	for _, input := range []string{`"23-08-2026"`, `"2026/08/23"`, `"not a date"`, `42`} {
		var d Date
		if err := json.Unmarshal([]byte(input), &d); err == nil {
			t.Fatalf("accepted %s", input)
		}
	}
}

func TestSigned(t *testing.T) {
	tx := validTransaction()
	if !tx.Signed().Equal(tx.Amount.Neg()) {
		t.Fatalf("expense should be negative, got %s", tx.Signed())
	}
	tx.Type = Income
	if !tx.Signed().Equal(tx.Amount) {
		t.Fatalf("income should be positive, got %s", tx.Signed())
	}
}
