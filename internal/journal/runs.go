package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/pbxprune/internal/prune"
)

// ErrRunNotFound is returned when a run ID is not in the journal.
var ErrRunNotFound = errors.New("run not found")

// DigestMismatchError reports stored content whose digest no longer matches
// the digest recorded for the run.
type DigestMismatchError struct {
	RunID    string
	Expected string
	Actual   string
}

func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("run %s: content digest %s does not match recorded %s", e.RunID, e.Actual, e.Expected)
}

// timeLayout is fixed-width so started_at sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one journaled prune.
type Run struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	Mode         string    `json:"mode"`
	StartedAt    time.Time `json:"started_at"`
	InputDigest  string    `json:"input_digest"`
	OutputDigest string    `json:"output_digest"`
	LinesIn      int       `json:"lines_in"`
	LinesOut     int       `json:"lines_out"`
	Passes       int       `json:"passes"`
	Verified     bool      `json:"verified"`
	Residual     int       `json:"residual"`
	DryRun       bool      `json:"dry_run"`
}

// WriteRun records a run, its original content and its removals in one
// transaction.
func (j *Journal) WriteRun(ctx context.Context, run Run, original []byte, removals []prune.Removal) error {
	packed, err := compress(original)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, path, mode, started_at, input_digest, output_digest,
		 lines_in, lines_out, passes, verified, residual, dry_run, original)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Path,
		run.Mode,
		run.StartedAt.UTC().Format(timeLayout),
		run.InputDigest,
		run.OutputDigest,
		run.LinesIn,
		run.LinesOut,
		run.Passes,
		boolToInt(run.Verified),
		run.Residual,
		boolToInt(run.DryRun),
		packed,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	for i, rm := range removals {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO removals
			(run_id, seq, kind, record_id, start_line, end_line, lines, pass, text)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			i,
			string(rm.Kind),
			rm.RecordID,
			rm.StartLine,
			rm.EndLine,
			rm.Lines,
			rm.Pass,
			rm.Text,
		)
		if err != nil {
			return fmt.Errorf("write removal %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

const runColumns = `id, path, mode, started_at, input_digest, output_digest,
	lines_in, lines_out, passes, verified, residual, dry_run`

// ReadRun returns a run by ID.
func (j *Journal) ReadRun(ctx context.Context, id string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (j *Journal) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ReadRemovals returns the removals of a run in recorded order.
func (j *Journal) ReadRemovals(ctx context.Context, runID string) ([]prune.Removal, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT kind, record_id, start_line, end_line, lines, pass, text
		FROM removals
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read removals: %w", err)
	}
	defer rows.Close()

	removals := []prune.Removal{}
	for rows.Next() {
		var rm prune.Removal
		var kind string
		if err := rows.Scan(&kind, &rm.RecordID, &rm.StartLine, &rm.EndLine, &rm.Lines, &rm.Pass, &rm.Text); err != nil {
			return nil, fmt.Errorf("read removals: %w", err)
		}
		rm.Kind = prune.RemovalKind(kind)
		removals = append(removals, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read removals: %w", err)
	}
	return removals, nil
}

// FindRemovalsOf returns the IDs of runs that removed the record id,
// newest first.
func (j *Journal) FindRemovalsOf(ctx context.Context, recordID string) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT DISTINCT r.id, r.started_at
		FROM removals m JOIN runs r ON r.id = m.run_id
		WHERE m.record_id = ?
		ORDER BY r.started_at DESC, r.id DESC
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("find removals: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id, startedAt string
		if err := rows.Scan(&id, &startedAt); err != nil {
			return nil, fmt.Errorf("find removals: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Original returns the content a run started from, after checking it
// against the run's input digest.
func (j *Journal) Original(ctx context.Context, runID string) ([]byte, error) {
	var packed []byte
	var digest string
	err := j.db.QueryRowContext(ctx, `SELECT original, input_digest FROM runs WHERE id = ?`, runID).Scan(&packed, &digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("read original: %w", err)
	}

	content, err := decompress(packed)
	if err != nil {
		return nil, fmt.Errorf("read original: %w", err)
	}
	if actual := Digest(content); actual != digest {
		return nil, &DigestMismatchError{RunID: runID, Expected: digest, Actual: actual}
	}
	return content, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var startedAt string
	var verified, dryRun int
	err := row.Scan(
		&run.ID,
		&run.Path,
		&run.Mode,
		&startedAt,
		&run.InputDigest,
		&run.OutputDigest,
		&run.LinesIn,
		&run.LinesOut,
		&run.Passes,
		&verified,
		&run.Residual,
		&dryRun,
	)
	if err != nil {
		return Run{}, err
	}

	run.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	run.Verified = verified != 0
	run.DryRun = dryRun != 0
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
