package prune

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/pbxprune/internal/pbxproj"
)

// DefaultMaxSamples caps the findings kept in a Report when the caller does
// not set VerifyOptions.MaxSamples.
const DefaultMaxSamples = 10

// VerifyOptions configures Verify.
type VerifyOptions struct {
	// Keywords are searched both case-sensitively and case-insensitively.
	Keywords []string

	// Identifiers are searched verbatim.
	Identifiers []string

	// MaxSamples caps Report.Samples. Zero means DefaultMaxSamples.
	MaxSamples int

	// Project, when set, attributes findings to their enclosing object and
	// enables the dangling-reference check. It must be parsed from lines.
	Project *pbxproj.Project
}

// FindingKind says how a residual occurrence was found.
type FindingKind string

const (
	FindingKeyword       FindingKind = "keyword"        // exact-case keyword match
	FindingKeywordFolded FindingKind = "keyword-folded" // matched only after case folding
	FindingIdentifier    FindingKind = "identifier"
)

// Finding locates one residual occurrence.
type Finding struct {
	Kind   FindingKind `json:"kind"`
	Term   string      `json:"term"`
	Line   int         `json:"line"`   // 1-based
	Column int         `json:"column"` // 1-based byte offset in the (folded) line
	Text   string      `json:"text"`
	Object string      `json:"object,omitempty"`
	ISA    string      `json:"isa,omitempty"`
}

// Report is the outcome of Verify.
type Report struct {
	Pass bool `json:"pass"`

	// Count is the number of residual occurrences: FoldedCount plus
	// IdentifierCount. Every exact keyword match is also a folded one.
	Count           int `json:"count"`
	ExactCount      int `json:"exact_count"`
	FoldedCount     int `json:"folded_count"`
	IdentifierCount int `json:"identifier_count"`

	Samples []Finding `json:"samples,omitempty"`

	// Dangling lists references to objects the document no longer defines.
	Dangling []pbxproj.DanglingRef `json:"dangling,omitempty"`
}

// Verify scans lines for residual keywords and identifiers.
// It never modifies lines.
func Verify(lines []string, opts VerifyOptions) Report {
	maxSamples := opts.MaxSamples
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}

	folder := cases.Fold()
	fold := func(s string) string {
		return folder.String(norm.NFC.String(s))
	}

	exact := NewKeywordMatcher(opts.Keywords...).Keywords()
	folded := make([]string, 0, len(exact))
	seen := make(map[string]bool)
	for _, kw := range exact {
		f := fold(kw)
		if !seen[f] {
			seen[f] = true
			folded = append(folded, f)
		}
	}
	byLength(exact)
	byLength(folded)
	ids := NewIdentifierMatcher(opts.Identifiers...).Identifiers()

	var report Report
	sample := func(f Finding) {
		if len(report.Samples) >= maxSamples {
			return
		}
		if opts.Project != nil {
			if obj, ok := opts.Project.ObjectAt(f.Line); ok {
				f.Object = obj.ID
				f.ISA = obj.ISA
			}
		}
		report.Samples = append(report.Samples, f)
	}

	for i, line := range lines {
		n := i + 1
		text := strings.TrimSpace(line)

		c, kw, at := countTerms(line, exact)
		report.ExactCount += c
		if c > 0 {
			sample(Finding{Kind: FindingKeyword, Term: kw, Line: n, Column: at + 1, Text: text})
		}

		if len(folded) > 0 {
			fl := fold(line)
			fc, kw, at := countTerms(fl, folded)
			report.FoldedCount += fc
			if fc > 0 && c == 0 {
				sample(Finding{Kind: FindingKeywordFolded, Term: kw, Line: n, Column: at + 1, Text: text})
			}
		}

		for _, id := range ids {
			if c := strings.Count(line, id); c > 0 {
				report.IdentifierCount += c
				sample(Finding{Kind: FindingIdentifier, Term: id, Line: n, Column: strings.Index(line, id) + 1, Text: text})
			}
		}
	}

	if opts.Project != nil {
		report.Dangling = opts.Project.Dangling()
	}

	report.Count = report.FoldedCount + report.IdentifierCount
	report.Pass = report.Count == 0 && len(report.Dangling) == 0
	return report
}

// countTerms counts the occurrences of terms in s without overlap, scanning
// left to right and taking the first term that matches at each offset, so
// terms must be ordered longest first. It also returns the first match and
// its byte offset.
func countTerms(s string, terms []string) (n int, first string, at int) {
	at = -1
	for i := 0; i < len(s); {
		j := slices.IndexFunc(terms, func(t string) bool {
			return strings.HasPrefix(s[i:], t)
		})
		if j < 0 {
			i++
			continue
		}
		if n == 0 {
			first, at = terms[j], i
		}
		n++
		i += len(terms[j])
	}
	return n, first, at
}

func byLength(terms []string) {
	slices.SortStableFunc(terms, func(a, b string) int {
		return len(b) - len(a)
	})
}
