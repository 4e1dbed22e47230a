package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pbxprune/internal/prune"
)

// VerifyResult is the outcome of the verify command.
type VerifyResult struct {
	Path   string       `json:"path"`
	Lines  int          `json:"lines"`
	Report prune.Report `json:"report"`
}

func (r *VerifyResult) String() string {
	s := fmt.Sprintf("Verified %s (%d lines)\n%s", r.Path, r.Lines, formatVerification(r.Report))
	return strings.TrimRight(s, "\n")
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{}

	cmd := &cobra.Command{
		Use:   "verify [manifest]",
		Short: "Check a manifest for residual target references",
		Long: `Search a manifest for the target's keywords, case-sensitively and after
Unicode case folding, for its identifiers (identifier and both modes) and for
references to objects the manifest does not define. Nothing is modified.

Exits 1 when anything is found.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, opts, args, cmd)
		},
	}

	addMatchFlags(cmd, opts)
	return cmd
}

func runVerify(rootOpts *RootOptions, opts *MatchOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	cfg, err := opts.resolve(cmd, args)
	if err != nil {
		return configError(formatter, err)
	}

	doc, err := readManifest(formatter, cfg.Path)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Verifying %s against keywords %v", cfg.Path, cfg.VerifyKeywords())

	result := &VerifyResult{
		Path:   cfg.Path,
		Lines:  len(doc.Lines),
		Report: verifyLines(cfg, doc.Lines),
	}

	if !result.Report.Pass {
		msg := verificationMessage(result.Report)
		if err := formatter.Failure(ErrCodeVerification, msg, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(result)
}
