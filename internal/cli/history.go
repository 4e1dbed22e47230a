package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pbxprune/internal/config"
	"github.com/roach88/pbxprune/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	MatchOptions
	Record string
}

// HistoryResult lists journaled runs.
type HistoryResult struct {
	Journal string        `json:"journal"`
	Record  string        `json:"record,omitempty"`
	Runs    []journal.Run `json:"runs"`
}

func (r *HistoryResult) String() string {
	if len(r.Runs) == 0 {
		return fmt.Sprintf("No runs in %s", r.Journal)
	}

	var b strings.Builder
	for _, run := range r.Runs {
		status := "PASS"
		if !run.Verified {
			status = fmt.Sprintf("FAIL(%d)", run.Residual)
		}
		dry := ""
		if run.DryRun {
			dry = " dry-run"
		}
		fmt.Fprintf(&b, "%s  %s  %-10s %4d -> %-4d %-8s %s%s\n",
			run.ID, run.StartedAt.Format(time.RFC3339), run.Mode, run.LinesIn, run.LinesOut, status, run.Path, dry)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled prune runs",
		Long: `List the prune runs recorded in the journal, newest first. With --record,
list only the runs that removed that object.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "configuration file (YAML)")
	addJournalFlag(cmd, &opts.MatchOptions)
	cmd.Flags().StringVar(&opts.Record, "record", "", "only runs that removed this object identifier")

	return cmd
}

func runHistory(rootOpts *RootOptions, opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	ctx := cmd.Context()

	j, cfg, err := openJournal(formatter, &opts.MatchOptions, cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot read journal", err)
	}

	if opts.Record != "" {
		ids, err := j.FindRemovalsOf(ctx, opts.Record)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot read journal", err)
		}
		keep := make(map[string]bool, len(ids))
		for _, id := range ids {
			keep[id] = true
		}
		filtered := runs[:0]
		for _, run := range runs {
			if keep[run.ID] {
				filtered = append(filtered, run)
			}
		}
		runs = filtered
	}
	if runs == nil {
		runs = []journal.Run{}
	}

	return formatter.Success(&HistoryResult{Journal: cfg.Journal, Record: opts.Record, Runs: runs})
}

// openJournal resolves the journal path from flags or config and opens it.
func openJournal(formatter *OutputFormatter, opts *MatchOptions, cmd *cobra.Command) (*journal.Journal, *config.Config, error) {
	cfg, err := opts.resolve(cmd, nil)
	if err != nil {
		return nil, nil, configError(formatter, err)
	}
	if cfg.Journal == "" {
		return nil, nil, configError(formatter, errors.New("no journal: pass --journal or set journal in the config file"))
	}

	slog.Debug("opening journal", "path", cfg.Journal)
	j, err := journal.Open(cfg.Journal)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return nil, nil, WrapExitError(ExitCommandError, "cannot open journal", err)
	}
	return j, cfg, nil
}
