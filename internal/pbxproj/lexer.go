package pbxproj

import (
	"fmt"
	"regexp"

	"github.com/alecthomas/participle/v2/lexer"
)

// manifestLexer defines tokens for the pbxproj plist dialect.
// Order matters: comments must win over bare strings, which may contain
// slashes themselves (e.g. shellPath = /bin/sh).
var manifestLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Header line: // !$*UTF8*$!
	{Name: "LineComment", Pattern: `//[^\n]*`},
	// Annotations Xcode writes after identifiers: /* AppDelegate.swift */
	{Name: "Comment", Pattern: `/\*(?:[^*]|\*+[^*/])*\*+/`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	// Unquoted values: identifiers, keys, numbers, paths
	{Name: "Ident", Pattern: `[^\s{}()=;,"]+`},
	{Name: "Punct", Pattern: `[{}()=;,]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var (
	symbols        = manifestLexer.Symbols()
	tokLineComment = symbols["LineComment"]
	tokComment     = symbols["Comment"]
	tokString      = symbols["String"]
	tokIdent       = symbols["Ident"]
	tokPunct       = symbols["Punct"]
	tokWhitespace  = symbols["Whitespace"]
)

// identifierPattern matches the 24-digit hexadecimal object identifiers
// Xcode generates.
var identifierPattern = regexp.MustCompile(`^[0-9A-F]{24}$`)

// IsIdentifier reports whether s is an object identifier.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// LineInfo summarizes the structural tokens of a single manifest line.
type LineInfo struct {
	// Delta is the number of opening delimiters ({ and () minus the number
	// of closing delimiters on the line.
	Delta int

	// RecordID is the object identifier when the line starts an object
	// definition ("ID /* comment */ = ..."), empty otherwise.
	RecordID string
}

// ScanLine tokenizes one line of a manifest.
// Delimiters inside quoted strings and comments do not count toward Delta.
func ScanLine(line string) (LineInfo, error) {
	lex, err := manifestLexer.LexString("", line)
	if err != nil {
		return LineInfo{}, fmt.Errorf("tokenize line: %w", err)
	}

	var info LineInfo
	var lead []lexer.Token // first two significant tokens
	for {
		tok, err := lex.Next()
		if err != nil {
			return LineInfo{}, fmt.Errorf("tokenize line: %w", err)
		}
		if tok.EOF() {
			break
		}
		if isTrivia(tok) {
			continue
		}
		if tok.Type == tokPunct {
			switch tok.Value {
			case "{", "(":
				info.Delta++
			case "}", ")":
				info.Delta--
			}
		}
		if len(lead) < 2 {
			lead = append(lead, tok)
		}
	}

	if len(lead) == 2 && lead[0].Type == tokIdent && IsIdentifier(lead[0].Value) && lead[1].Value == "=" {
		info.RecordID = lead[0].Value
	}
	return info, nil
}

// BalanceError reports a delimiter imbalance found by CheckBalance.
type BalanceError struct {
	Line  int // 1-based line where the imbalance was detected (0 = end of input)
	Depth int // nesting depth at that point
}

func (e *BalanceError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("unbalanced delimiters: %d block(s) left open at end of input", e.Depth)
	}
	return fmt.Sprintf("unbalanced delimiters: line %d closes a block that was never opened", e.Line)
}

// CheckBalance verifies that every opening delimiter in lines has a matching
// closer and that no closer appears before its opener.
func CheckBalance(lines []string) error {
	depth := 0
	for i, line := range lines {
		info, err := ScanLine(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		depth += info.Delta
		if depth < 0 {
			return &BalanceError{Line: i + 1, Depth: depth}
		}
	}
	if depth != 0 {
		return &BalanceError{Depth: depth}
	}
	return nil
}

// isTrivia reports whether tok carries no structure.
func isTrivia(tok lexer.Token) bool {
	return tok.Type == tokWhitespace || tok.Type == tokComment || tok.Type == tokLineComment
}
