// Package journal keeps an append-only SQLite record of finished
// signing runs. It is an audit log: rows are written once when a run
// ends and read back only for listing, never fed into a new run.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/LeJamon/xrpl-ladder/internal/core/signing"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	created_at   TEXT NOT NULL,
	account      TEXT NOT NULL,
	currency     TEXT NOT NULL,
	issuer       TEXT NOT NULL,
	requested    INTEGER NOT NULL,
	signed_count INTEGER NOT NULL,
	aborted      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS outcomes (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	position INTEGER NOT NULL,
	status   TEXT NOT NULL,
	tx_hash  TEXT NOT NULL,
	reason   TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

// Run is one recorded signing run.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Account     string
	Currency    string
	Issuer      string
	Requested   int
	SignedCount int
	Aborted     bool
}

// OutcomeRow is one recorded per-descriptor outcome.
type OutcomeRow struct {
	Position int
	Status   string
	TxHash   string
	Reason   string
}

// Journal is a handle on the journal database.
type Journal struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the journal at path.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: ping %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: init schema: %w", err)
	}
	return &Journal{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends a finished run and its outcomes in one transaction
// and returns the generated run id.
func (j *Journal) Record(ctx context.Context, account, currency, issuer string, result signing.BatchResult) (string, error) {
	runID := uuid.NewString()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("journal: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, account, currency, issuer, requested, signed_count, aborted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339), account, currency, issuer,
		result.Requested, result.SignedCount, boolToInt(result.Aborted))
	if err != nil {
		return "", fmt.Errorf("journal: insert run: %w", err)
	}

	for i, outcome := range result.Outcomes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO outcomes (run_id, position, status, tx_hash, reason) VALUES (?, ?, ?, ?, ?)`,
			runID, i+1, outcome.Status.String(), outcome.TxHash, outcome.Reason)
		if err != nil {
			return "", fmt.Errorf("journal: insert outcome %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("journal: commit: %w", err)
	}

	j.logger.Info("run recorded",
		zap.String("run_id", runID),
		zap.Int("signed", result.SignedCount),
		zap.Int("requested", result.Requested))
	return runID, nil
}

// Runs lists recorded runs, most recent first.
func (j *Journal) Runs(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, created_at, account, currency, issuer, requested, signed_count, aborted
		 FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("journal: query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt string
		var aborted int
		if err := rows.Scan(&r.ID, &createdAt, &r.Account, &r.Currency, &r.Issuer,
			&r.Requested, &r.SignedCount, &aborted); err != nil {
			return nil, fmt.Errorf("journal: scan run: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("journal: run %s created_at %q: %w", r.ID, createdAt, err)
		}
		r.Aborted = aborted != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outcomes lists the recorded outcomes of one run in submission order.
func (j *Journal) Outcomes(ctx context.Context, runID string) ([]OutcomeRow, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT position, status, tx_hash, reason FROM outcomes WHERE run_id = ? ORDER BY position`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("journal: query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []OutcomeRow
	for rows.Next() {
		var o OutcomeRow
		if err := rows.Scan(&o.Position, &o.Status, &o.TxHash, &o.Reason); err != nil {
			return nil, fmt.Errorf("journal: scan outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
