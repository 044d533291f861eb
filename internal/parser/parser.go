// Package parser extracts transaction drafts from free-form text.
//
// Parsing is rule based: the input is segmented on "and", each segment is
// scanned for an action verb, a currency-like number and an item phrase, and
// the item phrase is classified against the category taxonomy. A segment
// without a number produces a per-segment error rather than failing the whole
// input.
package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"paisa/internal/core"
	"paisa/internal/taxonomy"
)

// actionVerbs maps spending/earning verbs to the inferred transaction type.
var actionVerbs = map[string]core.TxType{
	"paid":     core.Expense,
	"bought":   core.Expense,
	"spent":    core.Expense,
	"received": core.Income,
	"earned":   core.Income,
	"got":      core.Income,
}

// timeWords maps relative-date phrases to day offsets from today.
var timeWords = map[string]int{
	"today":     0,
	"yesterday": -1,
	"tomorrow":  1,
	"last week": -7,
	"next week": 7,
}

// groupWords maps shared-expense group names to their default member counts.
var groupWords = map[string]int{
	"common":  2,
	"family":  3,
	"friends": 4,
}

var (
	segmentRe = regexp.MustCompile(`\s+and\s+`)
	amountRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:rupees?|rs\.?|inr|₹)?`)
	itemRe    = regexp.MustCompile(`\b(?:for|on|worth of|of)\b\s+(?:(?:a|an|the)\s+)?(.+?)(?:\s+\b(?:by|with|from)\b\s+.*)?$`)
	personRe  = regexp.MustCompile(`\b(?:by|from)\s+([a-z]+)`)
	membersRe = regexp.MustCompile(`(\d+)\s*(?:people|persons|members)`)

	// words trimmed off fallback descriptions once amounts are removed
	stopWords = map[string]bool{
		"for": true, "on": true, "of": true, "worth": true, "from": true,
		"by": true, "with": true, "a": true, "an": true, "the": true,
	}
)

// Result is the outcome of parsing one input text. Drafts and Errors are
// positional over the input's segments; a draft-less result with no errors
// means no amount was detected anywhere.
type Result struct {
	Drafts []core.Transaction
	Errors []string
}

// Empty reports whether nothing transaction-like was found in the input.
func (r Result) Empty() bool {
	return len(r.Drafts) == 0 && len(r.Errors) == 0
}

type Parser struct {
	tax *taxonomy.Taxonomy
	now func() time.Time
}

func New(tax *taxonomy.Taxonomy) *Parser {
	return &Parser{tax: tax, now: time.Now}
}

// NewWithClock is used by tests to pin relative-date resolution.
func NewWithClock(tax *taxonomy.Taxonomy, now func() time.Time) *Parser {
	return &Parser{tax: tax, now: now}
}

// Parse splits the input on "and" and extracts one draft per segment that
// contains an amount. The last action verb seen carries over to later
// segments, so "I paid 20 for X and 50 for Y" yields two expense drafts.
func (p *Parser) Parse(text string) Result {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return Result{}
	}

	var res Result
	currentType := core.Expense
	seenAmount := false

	for _, segment := range segmentRe.Split(text, -1) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		verb, txType := findVerb(segment)
		if verb != "" {
			currentType = txType
		}

		amountMatch := amountRe.FindStringSubmatch(segment)
		if amountMatch == nil {
			// Only report segments once an amount has appeared somewhere;
			// an input with no numbers at all is a parse miss, not an error.
			if seenAmount || verb != "" {
				res.Errors = append(res.Errors, fmt.Sprintf("no amount found in %q", segment))
			}
			continue
		}
		seenAmount = true

		amount, err := core.ParseAmount(amountMatch[1])
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("invalid amount in %q", segment))
			continue
		}

		draft := core.Transaction{
			Date:        core.Today(p.now()),
			Amount:      amount,
			Currency:    core.DefaultCurrency,
			Type:        currentType,
			SplitRatio:  1,
			Description: descriptionFor(segment, verb),
		}

		pair := p.tax.Suggest(draft.Description, draft.Type)
		draft.MainCategory = pair.Main
		draft.SubCategory = pair.Sub

		if person := extractPerson(segment, verb); person != "" {
			draft.Person = person
		}
		applyTimeWords(&draft, segment, p.now())
		applyGroupWords(&draft, segment)

		res.Drafts = append(res.Drafts, draft)
	}

	// An input where no segment carried a number reports "nothing found"
	// rather than a pile of per-segment errors.
	if len(res.Drafts) == 0 && !seenAmount {
		return Result{}
	}
	return res
}

func findVerb(segment string) (string, core.TxType) {
	for _, word := range strings.Fields(segment) {
		if txType, ok := actionVerbs[strings.Trim(word, ".,!?")]; ok {
			return strings.Trim(word, ".,!?"), txType
		}
	}
	return "", core.Expense
}

// descriptionFor prefers the item phrase after for/on/of; otherwise it falls
// back to whatever follows the action verb, stripped of amounts and filler.
func descriptionFor(segment, verb string) string {
	if m := itemRe.FindStringSubmatch(segment); m != nil {
		item := strings.TrimSpace(m[1])
		if hasLetter(item) {
			return item
		}
	}
	rest := segment
	if verb != "" {
		if _, after, ok := strings.Cut(segment, verb); ok {
			rest = after
		}
	}
	rest = amountRe.ReplaceAllString(rest, " ")
	words := strings.Fields(rest)
	for len(words) > 0 && stopWords[words[0]] {
		words = words[1:]
	}
	for len(words) > 0 && stopWords[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	if len(words) == 0 {
		return strings.TrimSpace(segment)
	}
	return strings.Join(words, " ")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return true
		}
	}
	return false
}

// extractPerson looks for "by <name>" / "from <name>", then falls back to a
// leading proper noun ("Deepak paid 100 ...").
func extractPerson(segment, verb string) string {
	if m := personRe.FindStringSubmatch(segment); m != nil {
		return title(m[1])
	}
	if strings.HasPrefix(segment, "i ") {
		return ""
	}
	fields := strings.Fields(segment)
	if len(fields) < 2 {
		return ""
	}
	first := fields[0]
	if first == verb {
		return ""
	}
	if _, isVerb := actionVerbs[first]; isVerb {
		return ""
	}
	for _, r := range first {
		if r < 'a' || r > 'z' {
			return ""
		}
	}
	return title(first)
}

func applyTimeWords(draft *core.Transaction, segment string, now time.Time) {
	// Multi-word phrases first so "last week" wins over no match on "week".
	for phrase, offset := range timeWords {
		if strings.Contains(segment, phrase) {
			draft.Date = core.Today(now.AddDate(0, 0, offset))
			return
		}
	}
}

func applyGroupWords(draft *core.Transaction, segment string) {
	for group, members := range groupWords {
		if !strings.Contains(segment, group) {
			continue
		}
		draft.Group = group
		if m := membersRe.FindStringSubmatch(segment); m != nil {
			n := 0
			for _, r := range m[1] {
				n = n*10 + int(r-'0')
			}
			if n > 0 {
				members = n
			}
		}
		draft.SplitRatio = 1 / float64(members)
		return
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
