package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pbxprune/internal/pbxproj"
)

// InspectedObject is an object the matcher selects.
type InspectedObject struct {
	pbxproj.Object
	ReferencedBy []string `json:"referenced_by,omitempty"`
}

// InspectResult is the outcome of the inspect command.
type InspectResult struct {
	Path         string            `json:"path"`
	RootObject   string            `json:"root_object"`
	Objects      int               `json:"objects"`
	MatchedLines int               `json:"matched_lines"`
	Selected     []InspectedObject `json:"selected"`
}

func (r *InspectResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d object(s), %d matched line(s), %d selected record(s)\n",
		r.Path, r.Objects, r.MatchedLines, len(r.Selected))
	for _, obj := range r.Selected {
		fmt.Fprintf(&b, "  %s %-24s lines %d-%d", obj.ID, obj.ISA, obj.StartLine, obj.EndLine)
		if len(obj.ReferencedBy) > 0 {
			fmt.Fprintf(&b, " <- %s", strings.Join(obj.ReferencedBy, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{}

	cmd := &cobra.Command{
		Use:   "inspect [manifest]",
		Short: "List the records a prune would select",
		Long: `Parse a manifest and list the records whose definition line the matcher
selects, with their isa, line span and the objects that reference them.
Nothing is modified.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, opts, args, cmd)
		},
	}

	addMatchFlags(cmd, opts)
	return cmd
}

func runInspect(rootOpts *RootOptions, opts *MatchOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	cfg, err := opts.resolve(cmd, args)
	if err != nil {
		return configError(formatter, err)
	}
	m, err := cfg.Matcher()
	if err != nil {
		return configError(formatter, err)
	}

	doc, err := readManifest(formatter, cfg.Path)
	if err != nil {
		return err
	}

	proj, err := pbxproj.Parse(cfg.Path, doc.Raw)
	if err != nil {
		_ = formatter.Error(ErrCodeParseFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot parse manifest", err)
	}
	formatter.VerboseLog("Parsed %d object(s), root object %s", len(proj.Objects), proj.RootObject)

	result := &InspectResult{
		Path:       cfg.Path,
		RootObject: proj.RootObject,
		Objects:    len(proj.Objects),
		Selected:   []InspectedObject{},
	}
	for _, line := range doc.Lines {
		if m.Match(line) {
			result.MatchedLines++
		}
	}
	for _, obj := range proj.Objects {
		if obj.StartLine < 1 || obj.StartLine > len(doc.Lines) {
			continue
		}
		if !m.Match(doc.Lines[obj.StartLine-1]) {
			continue
		}
		result.Selected = append(result.Selected, InspectedObject{
			Object:       obj,
			ReferencedBy: proj.ReferencesTo(obj.ID),
		})
	}

	return formatter.Success(result)
}
