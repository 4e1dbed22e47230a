package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pbxprune/internal/journal"
	"github.com/roach88/pbxprune/internal/manifest"
)

// RestoreOptions holds flags for the restore command.
type RestoreOptions struct {
	MatchOptions
	Output string
}

// RestoreResult is the outcome of the restore command.
type RestoreResult struct {
	RunID  string `json:"run_id"`
	Path   string `json:"path"`
	Bytes  int    `json:"bytes"`
	Digest string `json:"digest"`
}

func (r *RestoreResult) runID() string { return r.RunID }

func (r *RestoreResult) String() string {
	return fmt.Sprintf("Restored %s from run %s (%d bytes, digest %s)", r.Path, r.RunID, r.Bytes, r.Digest)
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestoreOptions{}

	cmd := &cobra.Command{
		Use:   "restore <run-id>",
		Short: "Write back the manifest a journaled run started from",
		Long: `Write back the original manifest content stored for a run. The content is
checked against the digest recorded for the run before anything is written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "configuration file (YAML)")
	addJournalFlag(cmd, &opts.MatchOptions)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write here instead of the run's path")

	return cmd
}

func runRestore(rootOpts *RootOptions, opts *RestoreOptions, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	ctx := cmd.Context()

	j, _, err := openJournal(formatter, &opts.MatchOptions, cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	run, err := j.ReadRun(ctx, runID)
	if err != nil {
		return journalReadError(formatter, err)
	}
	content, err := j.Original(ctx, runID)
	if err != nil {
		return journalReadError(formatter, err)
	}

	path := run.Path
	if opts.Output != "" {
		path = opts.Output
	}
	perm := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	formatter.VerboseLog("Restoring run %s to %s", runID, path)
	if err := manifest.Write(path, content, perm); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot write manifest", err)
	}

	return formatter.Success(&RestoreResult{
		RunID:  runID,
		Path:   path,
		Bytes:  len(content),
		Digest: run.InputDigest,
	})
}

func journalReadError(formatter *OutputFormatter, err error) error {
	code := ErrCodeJournal
	var mismatch *journal.DigestMismatchError
	switch {
	case errors.Is(err, journal.ErrRunNotFound):
		code = ErrCodeRunNotFound
	case errors.As(err, &mismatch):
		code = ErrCodeDigest
	}
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, "cannot restore run", err)
}
