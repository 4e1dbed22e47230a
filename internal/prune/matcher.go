package prune

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/pbxprune/internal/pbxproj"
)

// Matcher decides whether a manifest line belongs to a target.
type Matcher interface {
	Match(line string) bool
}

// Mode selects the matching strategy.
type Mode string

const (
	// ModeIdentifier matches lines containing a listed object identifier.
	// Precise, but every identifier must be enumerated up front.
	ModeIdentifier Mode = "identifier"

	// ModeKeyword matches lines containing a keyword as a case-sensitive
	// substring. Over-broad: "Watch" also matches WatchlistView.
	ModeKeyword Mode = "keyword"

	// ModeBoth matches a line when either strategy does.
	ModeBoth Mode = "both"
)

// ValidModes lists the accepted matching modes.
var ValidModes = []Mode{ModeIdentifier, ModeKeyword, ModeBoth}

// IdentifierMatcher matches lines containing any target identifier verbatim.
type IdentifierMatcher struct {
	ids []string
}

// NewIdentifierMatcher creates a matcher for the given identifiers.
// Duplicates are dropped.
func NewIdentifierMatcher(ids ...string) *IdentifierMatcher {
	return &IdentifierMatcher{ids: uniqueSorted(ids)}
}

// Match implements Matcher.
func (m *IdentifierMatcher) Match(line string) bool {
	for _, id := range m.ids {
		if strings.Contains(line, id) {
			return true
		}
	}
	return false
}

// Identifiers returns the target identifiers in sorted order.
func (m *IdentifierMatcher) Identifiers() []string {
	return slices.Clone(m.ids)
}

// KeywordMatcher matches lines containing any keyword as a case-sensitive
// substring.
type KeywordMatcher struct {
	keywords []string
}

// NewKeywordMatcher creates a matcher for the given keywords.
// Empty keywords are ignored; they would match every line.
func NewKeywordMatcher(keywords ...string) *KeywordMatcher {
	var kept []string
	for _, kw := range keywords {
		if kw != "" {
			kept = append(kept, kw)
		}
	}
	return &KeywordMatcher{keywords: uniqueSorted(kept)}
}

// Match implements Matcher.
func (m *KeywordMatcher) Match(line string) bool {
	for _, kw := range m.keywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

// Keywords returns the target keywords in sorted order.
func (m *KeywordMatcher) Keywords() []string {
	return slices.Clone(m.keywords)
}

// AnyMatcher matches a line when any of its matchers does.
type AnyMatcher []Matcher

// Match implements Matcher.
func (m AnyMatcher) Match(line string) bool {
	for _, inner := range m {
		if inner.Match(line) {
			return true
		}
	}
	return false
}

// NewMatcher builds the matcher for a mode.
func NewMatcher(mode Mode, ids, keywords []string) (Matcher, error) {
	switch mode {
	case ModeIdentifier:
		if len(ids) == 0 {
			return nil, fmt.Errorf("mode %q requires at least one identifier", mode)
		}
		return NewIdentifierMatcher(ids...), nil
	case ModeKeyword:
		km := NewKeywordMatcher(keywords...)
		if len(km.keywords) == 0 {
			return nil, fmt.Errorf("mode %q requires at least one keyword", mode)
		}
		return km, nil
	case ModeBoth:
		km := NewKeywordMatcher(keywords...)
		if len(ids) == 0 && len(km.keywords) == 0 {
			return nil, fmt.Errorf("mode %q requires identifiers or keywords", mode)
		}
		return AnyMatcher{NewIdentifierMatcher(ids...), km}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q: must be one of %v", mode, ValidModes)
	}
}

// Verdict is the classification of a single line.
type Verdict int

const (
	// Unrelated lines are kept.
	Unrelated Verdict = iota
	// StartsBlock lines open a record whose whole span is removed.
	StartsBlock
	// StandaloneReference lines are removed on their own.
	StandaloneReference
)

func (v Verdict) String() string {
	switch v {
	case StartsBlock:
		return "starts-block"
	case StandaloneReference:
		return "standalone-reference"
	default:
		return "unrelated"
	}
}

// Classification is the verdict for a line plus the structure it was
// derived from.
type Classification struct {
	Verdict  Verdict
	Delta    int    // net delimiter delta of the line
	RecordID string // identifier of the record the line defines, if any
}

// Classify decides what to do with a line.
// A matching line that leaves delimiters open (the "= {" / "= (" suffix
// case) starts a block. A matching line with a zero delta, such as a leaf
// array entry or a one-line record, is a standalone reference. A matching
// line with a negative delta would close an enclosing block and is reported
// as a StructuralError by the caller.
func Classify(line string, m Matcher) (Classification, error) {
	if !m.Match(line) {
		return Classification{Verdict: Unrelated}, nil
	}

	info, err := pbxproj.ScanLine(line)
	if err != nil {
		return Classification{}, err
	}

	c := Classification{Delta: info.Delta, RecordID: info.RecordID}
	if info.Delta > 0 {
		c.Verdict = StartsBlock
	} else {
		c.Verdict = StandaloneReference
	}
	return c, nil
}

func uniqueSorted(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}
