package taxonomy

import (
	"testing"

	"paisa/internal/core"
)

func TestValidateMembership(t *testing.T) {
	tax := New()

	cases := []struct {
		txType core.TxType
		main   string
		sub    string
		want   bool
	}{
		{core.Expense, "Food", "panipuris", true},
		{core.Expense, "Personal", "movie ticket", true},
		{core.Expense, "food", "PANIPURIS", true}, // case-insensitive
		{core.Expense, "Food", "salary", false},   // sub under wrong main
		{core.Expense, "Gadgets", "phone", false}, // unknown main
		{core.Expense, "Employment", "salary", false},
		{core.Income, "Employment", "salary", true},
		{core.Income, "Other", "reimbursement", true},
		{core.Income, "Food", "groceries", false},
		{"", "Food", "groceries", true}, // empty type searches both
		{"", "Employment", "salary", true},
	}

	for _, tc := range cases {
		if got := tax.Validate(tc.txType, tc.main, tc.sub); got != tc.want {
			t.Errorf("Validate(%q, %q, %q) = %v, want %v", tc.txType, tc.main, tc.sub, got, tc.want)
		}
	}
}

func TestHierarchyConsistency(t *testing.T) {
	tax := New()

	for _, txType := range []core.TxType{core.Expense, core.Income} {
		for main, subs := range tax.Hierarchy(txType) {
			if len(subs) == 0 {
				t.Errorf("%s/%s has no subcategories", txType, main)
			}
			for _, sub := range subs {
				if !tax.Validate(txType, main, sub) {
					t.Errorf("Validate(%s, %s, %s) = false for a listed pair", txType, main, sub)
				}
			}
		}
	}
}

func TestSuggestKeywordHints(t *testing.T) {
	tax := New()

	cases := []struct {
		desc   string
		txType core.TxType
		want   Pair
	}{
		{"panipuris", core.Expense, Pair{"Food", "panipuris"}},
		{"a movie ticket", core.Expense, Pair{"Personal", "movie ticket"}},
		{"sabji", core.Expense, Pair{"Food", "sabji"}},
		{"salary", core.Income, Pair{"Employment", "salary"}},
		{"monthly salary credit", core.Income, Pair{"Employment", "salary"}},
	}

	for _, tc := range cases {
		if got := tax.Suggest(tc.desc, tc.txType); got != tc.want {
			t.Errorf("Suggest(%q, %s) = %+v, want %+v", tc.desc, tc.txType, got, tc.want)
		}
	}
}

func TestSuggestFuzzyMatch(t *testing.T) {
	tax := New()

	// Close misspelling of a known subcategory.
	got := tax.Suggest("grocerie", core.Expense)
	if got != (Pair{"Food", "groceries"}) {
		t.Fatalf("Suggest(grocerie) = %+v", got)
	}
}

func TestSuggestFallbacks(t *testing.T) {
	tax := New()

	if got := tax.Suggest("zxqwv flibbertigibbet", core.Expense); got != (Pair{"Miscellaneous", "unexpected"}) {
		t.Fatalf("expense fallback = %+v", got)
	}
	if got := tax.Suggest("zxqwv flibbertigibbet", core.Income); got != (Pair{"Other", "reimbursement"}) {
		t.Fatalf("income fallback = %+v", got)
	}
}

// Every suggestion must be a pair that Validate accepts, so parser drafts
// never fail category validation downstream.
func TestSuggestAlwaysValid(t *testing.T) {
	tax := New()

	descriptions := []string{
		"panipuris", "movie ticket", "rent payment", "fuel for the bike",
		"random nonsense xyzzy", "", "salary", "a gift for mom",
	}
	for _, txType := range []core.TxType{core.Expense, core.Income} {
		for _, desc := range descriptions {
			p := tax.Suggest(desc, txType)
			if !tax.Validate(txType, p.Main, p.Sub) {
				t.Errorf("Suggest(%q, %s) = %+v fails Validate", desc, txType, p)
			}
		}
	}
}

func TestSuggestMemoized(t *testing.T) {
	tax := New()

	first := tax.Suggest("panipuris near office", core.Expense)
	second := tax.Suggest("panipuris near office", core.Expense)
	if first != second {
		t.Fatalf("memoized suggestion differs: %+v != %+v", first, second)
	}
	if _, ok := tax.suggestions.Get("expense|panipuris near office"); !ok {
		t.Fatal("suggestion was not cached")
	}
}

func TestMainFor(t *testing.T) {
	tax := New()

	if main, ok := tax.MainFor("panipuris"); !ok || main != "Food" {
		t.Fatalf("MainFor(panipuris) = %s, %v", main, ok)
	}
	if _, ok := tax.MainFor("no such subcategory"); ok {
		t.Fatal("MainFor accepted an unknown subcategory")
	}
}
