package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/pbxprune/internal/prune"
)

func formatRemoval(rm prune.Removal) string {
	span := fmt.Sprintf("%d", rm.StartLine)
	if rm.EndLine != rm.StartLine {
		span = fmt.Sprintf("%d-%d", rm.StartLine, rm.EndLine)
	}
	pass := ""
	if rm.Pass > 1 {
		pass = " (sweep)"
	}
	return fmt.Sprintf("%-5s %-9s %s%s", rm.Kind, span, rm.Text, pass)
}

func formatVerification(r prune.Report) string {
	if r.Pass {
		return "Verification: PASS (no residual references)\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Verification: FAIL (%d residual occurrence(s), %d exact-case, %d dangling reference(s))\n",
		r.Count, r.ExactCount, len(r.Dangling))
	for _, f := range r.Samples {
		where := ""
		if f.Object != "" {
			where = fmt.Sprintf(" [%s %s]", f.ISA, f.Object)
		}
		fmt.Fprintf(&b, "  line %d:%d %s %q%s: %s\n", f.Line, f.Column, f.Kind, f.Term, where, f.Text)
	}
	for _, d := range r.Dangling {
		from := "rootObject"
		if d.From != "" {
			from = fmt.Sprintf("%s %s", d.ISA, d.From)
		}
		fmt.Fprintf(&b, "  line %d: %s references undefined %s\n", d.Line, from, d.ID)
	}
	return b.String()
}

func verificationMessage(r prune.Report) string {
	if len(r.Dangling) > 0 && r.Count == 0 {
		return fmt.Sprintf("verification failed: %d dangling reference(s)", len(r.Dangling))
	}
	return fmt.Sprintf("verification failed: %d residual occurrence(s)", r.Count)
}
