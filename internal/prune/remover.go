package prune

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/pbxprune/internal/pbxproj"
)

// RemovalKind distinguishes whole-block removals from single lines.
type RemovalKind string

const (
	// KindBlock is a multi-line span: a record or entry whose delimiters
	// open on its first line and close on its last.
	KindBlock RemovalKind = "block"
	// KindLine is a single self-contained line, such as an array entry or
	// a one-line record.
	KindLine RemovalKind = "line"
)

// Removal describes one removed span. Line numbers refer to the input.
type Removal struct {
	Kind      RemovalKind `json:"kind"`
	RecordID  string      `json:"record_id,omitempty"` // set when the span defines a record
	StartLine int         `json:"start_line"`
	EndLine   int         `json:"end_line"`
	Lines     int         `json:"lines"` // number of lines removed
	Pass      int         `json:"pass"`  // 1 = target matcher, >1 = reference sweep
	Text      string      `json:"text"`  // first removed line, trimmed
}

// Result is the outcome of a removal.
type Result struct {
	// Lines is the retained document, in input order.
	Lines []string `json:"-"`

	// Removals lists removed spans ordered by start line.
	Removals []Removal `json:"removals"`

	// RemovedIDs lists identifiers of removed records, sorted.
	RemovedIDs []string `json:"removed_ids"`

	// Passes is the number of scans performed, including reference sweeps.
	Passes int `json:"passes"`
}

// LinesRemoved returns the total number of removed lines.
func (r *Result) LinesRemoved() int {
	n := 0
	for _, rm := range r.Removals {
		n += rm.Lines
	}
	return n
}

// numberedLine keeps the input line number across passes.
type numberedLine struct {
	n    int
	text string
}

// Remove performs a single forward scan, dropping every record and
// standalone reference m selects. Retained lines keep their order and
// content.
//
// A matched line that is the only value of one of its object's fields
// (e.g. "target = ID;") takes the whole object with it, since the object
// is invalid without the field. This needs the input to parse; otherwise
// such a line is removed on its own.
func Remove(lines []string, m Matcher) (*Result, error) {
	kept, removals, err := removePass(number(lines), m, 1, parseInput(lines))
	if err != nil {
		return nil, err
	}
	return newResult(kept, removals, 1), nil
}

// Prune removes every record and reference m selects, then sweeps the
// retained lines for references to the removed records until none remain.
// A swept one-line record (e.g. a PBXBuildFile whose fileRef was removed)
// is itself a removed record, so sweeping repeats until it finds nothing new.
//
// An object removed because one of its fields matched is a removed record
// too, and its identifier is swept like the others.
//
// The result is checked structurally before it is returned: if the input
// parses as a manifest the output must too; otherwise, if the input's
// delimiters balance, the output's must as well.
func Prune(lines []string, m Matcher) (*Result, error) {
	proj := parseInput(lines)
	kept, removals, err := removePass(number(lines), m, 1, proj)
	if err != nil {
		return nil, err
	}
	slog.Debug("target pass complete", "removed_spans", len(removals), "kept_lines", len(kept))

	swept := make(map[string]bool)
	pending := recordIDs(removals)
	pass := 1
	for len(pending) > 0 {
		for _, id := range pending {
			swept[id] = true
		}
		pass++

		var more []Removal
		kept, more, err = removePass(kept, NewIdentifierMatcher(pending...), pass, proj)
		if err != nil {
			return nil, err
		}
		slog.Debug("reference sweep complete", "pass", pass, "identifiers", len(pending), "removed_spans", len(more))
		removals = append(removals, more...)

		pending = pending[:0]
		for _, id := range recordIDs(more) {
			if !swept[id] {
				pending = append(pending, id)
			}
		}
	}

	result := newResult(kept, removals, pass)
	if err := checkStructure(proj != nil, lines, result.Lines); err != nil {
		return nil, err
	}
	return result, nil
}

// removePass drops what m selects from in. proj is the parsed input, or nil
// when the input does not parse.
func removePass(in []numberedLine, m Matcher, pass int, proj *pbxproj.Project) ([]numberedLine, []Removal, error) {
	owners, err := linkOwners(in, m, proj)
	if err != nil {
		return nil, nil, err
	}

	kept := make([]numberedLine, 0, len(in))
	var removals []Removal

	var open *Removal // block currently being skipped
	depth := 0
	until := 0 // last line of an object removed by its span

	for _, ln := range in {
		// Earlier passes may have removed the object's last lines.
		if open != nil && until > 0 && ln.n > until {
			removals = append(removals, *open)
			open, until = nil, 0
		}

		if open != nil {
			open.EndLine = ln.n
			open.Lines++
			if until > 0 {
				if ln.n >= until {
					removals = append(removals, *open)
					open, until = nil, 0
				}
				continue
			}
			info, err := pbxproj.ScanLine(ln.text)
			if err != nil {
				return nil, nil, newTokenizeError(ln.n, err)
			}
			depth += info.Delta
			if depth <= 0 {
				removals = append(removals, *open)
				open = nil
			}
			continue
		}

		if obj, ok := owners[ln.n]; ok {
			rm := newRemoval(KindBlock, obj.ID, ln, pass)
			if obj.EndLine <= ln.n {
				removals = append(removals, rm)
				continue
			}
			open, until = &rm, obj.EndLine
			continue
		}

		c, err := Classify(ln.text, m)
		if err != nil {
			return nil, nil, newTokenizeError(ln.n, err)
		}

		switch c.Verdict {
		case Unrelated:
			kept = append(kept, ln)
		case StandaloneReference:
			if c.Delta < 0 {
				return nil, nil, newUnbalancedLineError(ln.n, c.Delta)
			}
			removals = append(removals, newRemoval(KindLine, c.RecordID, ln, pass))
		case StartsBlock:
			rm := newRemoval(KindBlock, c.RecordID, ln, pass)
			open = &rm
			depth = max(1, c.Delta)
		}
	}

	if open != nil {
		if until == 0 {
			return nil, nil, newUnterminatedError(open.StartLine, depth)
		}
		removals = append(removals, *open)
	}
	return kept, removals, nil
}

// linkOwners finds the matched lines that hold a single-identifier field of
// a multi-line object and returns those objects keyed by their first line.
func linkOwners(in []numberedLine, m Matcher, proj *pbxproj.Project) (map[int]pbxproj.Object, error) {
	if proj == nil {
		return nil, nil
	}
	owners := make(map[int]pbxproj.Object)
	for _, ln := range in {
		c, err := Classify(ln.text, m)
		if err != nil {
			return nil, newTokenizeError(ln.n, err)
		}
		if c.Verdict != StandaloneReference || c.Delta != 0 || c.RecordID != "" {
			continue
		}
		obj, link, ok := proj.LinkAt(ln.n)
		if !ok {
			continue
		}
		if obj.ID == proj.RootObject {
			return nil, newRootLinkError(ln.n, link.Key)
		}
		owners[obj.StartLine] = obj
	}
	return owners, nil
}

func newRemoval(kind RemovalKind, id string, ln numberedLine, pass int) Removal {
	return Removal{
		Kind:      kind,
		RecordID:  id,
		StartLine: ln.n,
		EndLine:   ln.n,
		Lines:     1,
		Pass:      pass,
		Text:      strings.TrimSpace(ln.text),
	}
}

func newResult(kept []numberedLine, removals []Removal, passes int) *Result {
	slices.SortStableFunc(removals, func(a, b Removal) int {
		return a.StartLine - b.StartLine
	})

	lines := make([]string, len(kept))
	for i, ln := range kept {
		lines[i] = ln.text
	}

	ids := recordIDs(removals)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if ids == nil {
		ids = []string{}
	}
	if removals == nil {
		removals = []Removal{}
	}

	return &Result{
		Lines:      lines,
		Removals:   removals,
		RemovedIDs: ids,
		Passes:     passes,
	}
}

func number(lines []string) []numberedLine {
	out := make([]numberedLine, len(lines))
	for i, text := range lines {
		out[i] = numberedLine{n: i + 1, text: text}
	}
	return out
}

func recordIDs(removals []Removal) []string {
	var ids []string
	for _, rm := range removals {
		if rm.RecordID != "" {
			ids = append(ids, rm.RecordID)
		}
	}
	return ids
}

// parseInput returns the parsed input, or nil if it does not parse.
func parseInput(lines []string) *pbxproj.Project {
	proj, err := pbxproj.Parse("input", []byte(strings.Join(lines, "\n")))
	if err != nil {
		slog.Debug("input does not parse, removing matched lines only", "error", err)
		return nil
	}
	return proj
}

func checkStructure(parsed bool, in, out []string) error {
	if parsed {
		if _, err := pbxproj.Parse("output", []byte(strings.Join(out, "\n"))); err != nil {
			return &StructuralError{
				Code:    ErrCodeInvalidOutput,
				Message: "pruned manifest no longer parses",
				Err:     err,
			}
		}
		return nil
	}

	if err := pbxproj.CheckBalance(in); err != nil {
		slog.Warn("input is not balanced, skipping output balance check", "error", err)
		return nil
	}
	if err := pbxproj.CheckBalance(out); err != nil {
		return &StructuralError{
			Code:    ErrCodeInvalidOutput,
			Message: "pruned manifest has unbalanced delimiters",
			Err:     err,
		}
	}
	return nil
}
