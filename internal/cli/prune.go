package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pbxprune/internal/config"
	"github.com/roach88/pbxprune/internal/journal"
	"github.com/roach88/pbxprune/internal/manifest"
	"github.com/roach88/pbxprune/internal/prune"
)

// PruneOptions holds flags for the prune command.
type PruneOptions struct {
	MatchOptions
	DryRun bool

	runIDs journal.RunIDGenerator
	now    func() time.Time
}

// PruneReport is the outcome of a prune run.
type PruneReport struct {
	RunID        string          `json:"run_id"`
	Path         string          `json:"path"`
	Mode         string          `json:"mode"`
	DryRun       bool            `json:"dry_run"`
	Written      bool            `json:"written"`
	LinesIn      int             `json:"lines_in"`
	LinesOut     int             `json:"lines_out"`
	LinesRemoved int             `json:"lines_removed"`
	Passes       int             `json:"passes"`
	Removals     []prune.Removal `json:"removals"`
	RemovedIDs   []string        `json:"removed_ids"`
	InputDigest  string          `json:"input_digest"`
	OutputDigest string          `json:"output_digest"`
	Verification prune.Report    `json:"verification"`
	Journal      string          `json:"journal,omitempty"`
}

func (r *PruneReport) runID() string { return r.RunID }

func (r *PruneReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s mode)\n", r.RunID, r.Mode)
	fmt.Fprintf(&b, "Removed %d line(s) in %d span(s) over %d pass(es): %d -> %d lines\n",
		r.LinesRemoved, len(r.Removals), r.Passes, r.LinesIn, r.LinesOut)
	for _, rm := range r.Removals {
		fmt.Fprintf(&b, "  %s\n", formatRemoval(rm))
	}
	if len(r.RemovedIDs) > 0 {
		fmt.Fprintf(&b, "Removed records: %s\n", strings.Join(r.RemovedIDs, ", "))
	}
	switch {
	case r.DryRun:
		fmt.Fprintf(&b, "Dry run: %s not modified\n", r.Path)
	case r.Written:
		fmt.Fprintf(&b, "Wrote %s\n", r.Path)
	default:
		fmt.Fprintf(&b, "Nothing to remove: %s not modified\n", r.Path)
	}
	if r.Journal != "" {
		fmt.Fprintf(&b, "Journaled to %s\n", r.Journal)
	}
	b.WriteString(formatVerification(r.Verification))
	return strings.TrimRight(b.String(), "\n")
}

// NewPruneCommand creates the prune command.
func NewPruneCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PruneOptions{
		runIDs: journal.UUIDv7Generator{},
		now:    time.Now,
	}

	cmd := &cobra.Command{
		Use:   "prune [manifest]",
		Short: "Remove a target's records and references from a manifest",
		Long: `Remove every record and reference the matcher selects from an Xcode
project manifest, sweep the references left pointing at removed records,
write the result back atomically and verify no trace of the target remains.

Exit status is 0 when verification passes, 1 when residual references remain
and 2 when the manifest could not be processed (nothing is written then).`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(cmd.Context(), rootOpts, opts, args, cmd)
		},
	}

	addMatchFlags(cmd, &opts.MatchOptions)
	addJournalFlag(cmd, &opts.MatchOptions)
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "report removals without writing")

	return cmd
}

func runPrune(ctx context.Context, rootOpts *RootOptions, opts *PruneOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
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

	report := &PruneReport{
		RunID:   opts.runIDs.Generate(),
		Path:    cfg.Path,
		Mode:    cfg.Mode,
		DryRun:  opts.DryRun,
		LinesIn: len(doc.Lines),
	}
	started := opts.now().UTC()
	formatter.Progress("Pruning %s (%s mode)", cfg.Path, cfg.Mode)
	slog.Debug("prune started", "run_id", report.RunID, "path", cfg.Path, "mode", cfg.Mode, "lines", len(doc.Lines))

	result, err := prune.Prune(doc.Lines, m)
	if err != nil {
		return structuralError(formatter, err)
	}
	output := manifest.Join(result.Lines)

	report.LinesOut = len(result.Lines)
	report.LinesRemoved = result.LinesRemoved()
	report.Passes = result.Passes
	report.Removals = result.Removals
	report.RemovedIDs = result.RemovedIDs
	report.InputDigest = journal.Digest(doc.Raw)
	report.OutputDigest = journal.Digest(output)
	report.Verification = verifyLines(cfg, result.Lines)

	if cfg.Journal != "" {
		if err := journalRun(ctx, cfg, report, started, doc.Raw); err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "journal write failed", err)
		}
		report.Journal = cfg.Journal
	}

	if !opts.DryRun && len(result.Removals) > 0 {
		if err := doc.WriteLines(result.Lines); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot write manifest", err)
		}
		report.Written = true
	}
	slog.Debug("prune finished", "run_id", report.RunID, "removed_lines", report.LinesRemoved, "written", report.Written)

	if !report.Verification.Pass {
		msg := verificationMessage(report.Verification)
		if err := formatter.Failure(ErrCodeVerification, msg, report); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(report)
}

// verifyLines runs the verifier over pruned lines.
func verifyLines(cfg *config.Config, lines []string) prune.Report {
	vopts := cfg.VerifyOptions()
	vopts.Project = parseQuietly(cfg.Path, lines)
	return prune.Verify(lines, vopts)
}

// journalRun records the run. The manifest path is stored absolute so that
// restore finds it from any working directory.
func journalRun(ctx context.Context, cfg *config.Config, report *PruneReport, started time.Time, original []byte) error {
	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return fmt.Errorf("resolve manifest path: %w", err)
	}

	j, err := journal.Open(cfg.Journal)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := j.Close(); closeErr != nil {
			slog.Error("error closing journal", "error", closeErr)
		}
	}()

	run := journal.Run{
		ID:           report.RunID,
		Path:         path,
		Mode:         report.Mode,
		StartedAt:    started,
		InputDigest:  report.InputDigest,
		OutputDigest: report.OutputDigest,
		LinesIn:      report.LinesIn,
		LinesOut:     report.LinesOut,
		Passes:       report.Passes,
		Verified:     report.Verification.Pass,
		Residual:     report.Verification.Count,
		DryRun:       report.DryRun,
	}
	return j.WriteRun(ctx, run, original, report.Removals)
}
