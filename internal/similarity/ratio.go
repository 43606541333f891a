package similarity

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Scorer rates how close two names are, from 0 (nothing in common) to 100
// (identical). Implementations must be commutative.
type Scorer interface {
	Ratio(a, b string) int
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(a, b string) int

func (f ScorerFunc) Ratio(a, b string) int { return f(a, b) }

// IndelRatio is the classic fuzzy "ratio": both strings are lower-cased and
// stripped of punctuation, then scored by their longest common subsequence,
// which equals a Levenshtein distance where a substitution costs two.
type IndelRatio struct{}

// Default is the scorer used by the matcher unless replaced.
var Default Scorer = IndelRatio{}

// Ratio returns round(100 * 2*lcs / (len(a)+len(b))) over runes.
func (IndelRatio) Ratio(a, b string) int {
	pa, pb := Process(a), Process(b)
	if pa == "" || pb == "" {
		return 0
	}
	total := utf8.RuneCountInString(pa) + utf8.RuneCountInString(pb)
	return int(math.Round(100 * float64(2*edlib.LCS(pa, pb)) / float64(total)))
}

// Process lower-cases s, turns every rune that is neither a letter nor a digit
// into a space and trims the ends. Inner runs of spaces are kept.
func Process(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.TrimSpace(mapped)
}
