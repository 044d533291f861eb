// Package taxonomy holds the static category hierarchy used to classify
// transactions. The hierarchy is loaded once at process start and is
// read-only afterwards, so concurrent readers need no locking.
package taxonomy

import (
	"strings"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"paisa/internal/cache"
	"paisa/internal/core"
)

// Fuzzy-match acceptance thresholds (0-100 similarity score).
const (
	phraseScoreThreshold = 80
	wordScoreThreshold   = 85
)

var expenditureCategories = map[string][]string{
	"Housing":        {"rent", "mortgage", "property tax", "home insurance", "maintenance", "repairs", "utilities", "maid"},
	"Transportation": {"car payment", "fuel", "public transit", "maintenance", "insurance", "parking", "tolls", "auto rickshaw", "metro"},
	"Food":           {"groceries", "dining out", "takeout", "coffee", "alcohol", "snacks", "panipuris", "sabji", "dhaba", "sweets", "kirana"},
	"Healthcare":     {"insurance", "doctor", "dentist", "pharmacy", "hospital", "optical", "fitness", "ayurveda"},
	"Personal":       {"clothing", "entertainment", "hobbies", "subscriptions", "gifts", "beauty", "electronics", "movie ticket", "jewelry"},
	"Debt":           {"credit card", "student loan", "personal loan", "payday loan", "debt consolidation", "EMI"},
	"Savings":        {"emergency fund", "retirement", "investments", "education fund", "vacation fund", "FD", "RD"},
	"Education":      {"tuition", "books", "supplies", "courses", "software", "conferences", "coaching"},
	"Charity":        {"donations", "gifts", "religious", "political", "community support", "temple", "pooja"},
	"Miscellaneous":  {"pet care", "child care", "legal fees", "taxes", "fines", "unexpected", "festivals"},
}

var incomeCategories = map[string][]string{
	"Employment":  {"salary", "wages", "bonus", "commission", "tips", "overtime", "stipend"},
	"Business":    {"self-employment", "freelance", "consulting", "sales", "royalties", "shop income"},
	"Investments": {"dividends", "interest", "capital gains", "rental income", "retirement", "MF returns"},
	"Government":  {"social security", "unemployment", "disability", "stimulus", "tax refund", "pension"},
	"Other":       {"gifts", "inheritance", "lottery", "alimony", "crowdfunding", "reimbursement", "wedding gift"},
}

// keywordHints maps common description tokens straight to a category pair,
// short-circuiting the fuzzy lookup for frequent vocabulary.
var keywordHints = map[string]Pair{
	"panipuris": {"Food", "panipuris"},
	"movie":     {"Personal", "movie ticket"},
	"ticket":    {"Personal", "movie ticket"},
	"sabji":     {"Food", "sabji"},
	"groceries": {"Food", "groceries"},
	"clothes":   {"Personal", "clothing"},
	"clothing":  {"Personal", "clothing"},
	"salary":    {"Employment", "salary"},
	"kirana":    {"Food", "kirana"},
	"dhaba":     {"Food", "dhaba"},
	"sweets":    {"Food", "sweets"},
	"auto":      {"Transportation", "auto rickshaw"},
	"rickshaw":  {"Transportation", "auto rickshaw"},
	"emi":       {"Debt", "EMI"},
	"gift":      {"Other", "gifts"},
}

// Pair is a main/sub category classification.
type Pair struct {
	Main string
	Sub  string
}

// Taxonomy answers validation and suggestion queries against the static
// hierarchy. Suggestion results are memoized because fuzzy scoring is the
// only non-trivial work on the request path.
type Taxonomy struct {
	subToMain   map[string]string
	expenseSubs []string
	incomeSubs  []string
	suggestions *cache.LRU[Pair]
}

func New() *Taxonomy {
	t := &Taxonomy{
		subToMain:   make(map[string]string),
		suggestions: cache.NewLRU[Pair](512, time.Hour),
	}
	for main, subs := range expenditureCategories {
		for _, sub := range subs {
			t.subToMain[strings.ToLower(sub)] = main
		}
		t.expenseSubs = append(t.expenseSubs, subs...)
	}
	for main, subs := range incomeCategories {
		for _, sub := range subs {
			t.subToMain[strings.ToLower(sub)] = main
		}
		t.incomeSubs = append(t.incomeSubs, subs...)
	}
	return t
}

// Hierarchy returns the category map for the given transaction type, or the
// merged map when txType is empty. Callers must treat the result as read-only.
func (t *Taxonomy) Hierarchy(txType core.TxType) map[string][]string {
	switch txType {
	case core.Expense:
		return expenditureCategories
	case core.Income:
		return incomeCategories
	default:
		merged := make(map[string][]string, len(expenditureCategories)+len(incomeCategories))
		for k, v := range expenditureCategories {
			merged[k] = v
		}
		for k, v := range incomeCategories {
			merged[k] = v
		}
		return merged
	}
}

// Validate reports whether main exists in the hierarchy for txType and sub
// belongs to main's subcategory list. Comparison is case-insensitive.
func (t *Taxonomy) Validate(txType core.TxType, main, sub string) bool {
	categories := t.Hierarchy(txType)
	for name, subs := range categories {
		if !strings.EqualFold(name, main) {
			continue
		}
		for _, s := range subs {
			if strings.EqualFold(s, sub) {
				return true
			}
		}
		return false
	}
	return false
}

// MainFor returns the main category owning the given subcategory.
func (t *Taxonomy) MainFor(sub string) (string, bool) {
	main, ok := t.subToMain[strings.ToLower(sub)]
	return main, ok
}

func (t *Taxonomy) subcategories(txType core.TxType) []string {
	switch txType {
	case core.Income:
		return t.incomeSubs
	default:
		return t.expenseSubs
	}
}

// Suggest classifies a free-text description. Lookup order: direct keyword
// hints, fuzzy match of the whole phrase, fuzzy match per word, then a
// type-specific fallback. The fallback is always a valid pair, so drafts
// built from suggestions pass Validate.
func (t *Taxonomy) Suggest(description string, txType core.TxType) Pair {
	description = strings.ToLower(strings.TrimSpace(description))
	if !txType.Valid() {
		txType = core.Expense
	}

	cacheKey := string(txType) + "|" + description
	if p, ok := t.suggestions.Get(cacheKey); ok {
		return p
	}

	p := t.suggest(description, txType)
	t.suggestions.Set(cacheKey, p)
	return p
}

func (t *Taxonomy) suggest(description string, txType core.TxType) Pair {
	for keyword, pair := range keywordHints {
		if strings.Contains(description, keyword) && t.Validate(txType, pair.Main, pair.Sub) {
			return pair
		}
	}

	subs := t.subcategories(txType)

	if match, err := fuzzy.ExtractOne(description, subs); err == nil && match != nil {
		if match.Score >= phraseScoreThreshold {
			if main, ok := t.MainFor(match.Match); ok && t.Validate(txType, main, match.Match) {
				return Pair{Main: main, Sub: match.Match}
			}
		}
	}

	for _, word := range strings.Fields(description) {
		match, err := fuzzy.ExtractOne(word, subs)
		if err != nil || match == nil || match.Score < wordScoreThreshold {
			continue
		}
		if main, ok := t.MainFor(match.Match); ok && t.Validate(txType, main, match.Match) {
			return Pair{Main: main, Sub: match.Match}
		}
	}

	if txType == core.Income {
		return Pair{Main: "Other", Sub: "reimbursement"}
	}
	return Pair{Main: "Miscellaneous", Sub: "unexpected"}
}
