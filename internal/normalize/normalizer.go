package normalize

import (
	"regexp"
	"strings"
)

// Normalizer strips marketing words, bracketed notes and CPU model tokens from
// product names so that the same machine sold by different shops compares equal.
type Normalizer struct {
	noisePhrases *regexp.Regexp
	brackets     *regexp.Regexp
	cpuModels    *regexp.Regexp
}

// Default is the shared normalizer used when callers do not build their own.
var Default = New()

// New creates a normalizer with the catalog's noise tables
func New() *Normalizer {
	return &Normalizer{
		// "máy tính xách tay" (laptop) must come before "máy tính" (computer)
		noisePhrases: regexp.MustCompile(`(?i)máy tính xách tay|máy tính|gaming|laptop`),
		brackets:     regexp.MustCompile(`\(.*?\)`),
		// R5 7530U, i3-1215U, R7 3700X
		cpuModels: regexp.MustCompile(`\b(?:[Rr]\d{1,2}|[Ii]\d{1,2})[- ]?[A-Za-z]?\d{3,4}\d{1,2}[A-Za-z]?[A-Za-z]?\b`),
	}
}

// Normalize returns the comparable form of a product name. Whitespace left
// behind by removals is kept as is; only the ends are trimmed.
//
// Passes repeat until the name stops changing, so a removal that joins two
// fragments into a new noise word ("lapgamingtop") is caught as well. Every
// pass that changes the name makes it shorter, which bounds the loop.
func (n *Normalizer) Normalize(name string) string {
	for {
		next := n.pass(name)
		if next == name {
			return name
		}
		name = next
	}
}

// NormalizePtr treats a missing name as empty.
func (n *Normalizer) NormalizePtr(name *string) string {
	if name == nil {
		return ""
	}
	return n.Normalize(*name)
}

func (n *Normalizer) pass(name string) string {
	name = n.noisePhrases.ReplaceAllString(name, "")
	name = n.brackets.ReplaceAllString(name, "")
	name = n.cpuModels.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// Normalize runs the Default normalizer.
func Normalize(name string) string {
	return Default.Normalize(name)
}
