package payout

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"

	"github.com/burakmert236/goodswipe-escrow/common/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Journal is the durable record of every transfer the ledger requested.
type Journal interface {
	Record(ctx context.Context, transfers []models.Transfer) error
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
	// Retryable returns transfers with fewer than maxAttempts sends that
	// either failed or have stayed pending for longer than staleAfter,
	// oldest first.
	Retryable(ctx context.Context, maxAttempts int, staleAfter time.Duration, limit int) ([]models.Transfer, error)
	ListByTournament(ctx context.Context, tournamentId string) ([]models.Transfer, error)
}

type SQLJournal struct {
	db    *sqlx.DB
	clock clockwork.Clock
}

var _ Journal = (*SQLJournal)(nil)

// OpenSQLJournal connects to a sqlite database. The pool is limited to a
// single connection since sqlite serializes writers anyway.
func OpenSQLJournal(dsn string, clock clockwork.Clock) (*SQLJournal, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open payout journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	return NewSQLJournal(db, clock), nil
}

func NewSQLJournal(db *sqlx.DB, clock clockwork.Clock) *SQLJournal {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SQLJournal{db: db, clock: clock}
}

// Migrate applies the embedded schema migrations.
func (j *SQLJournal) Migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(j.db.DB, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// m.Close would close the shared database handle.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

func (j *SQLJournal) Close() error {
	return j.db.Close()
}

func (j *SQLJournal) Record(ctx context.Context, transfers []models.Transfer) error {
	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := j.clock.Now().UTC()
	for _, t := range transfers {
		_, err := tx.ExecContext(ctx, `INSERT INTO transfers
			(id, tournament_id, account_id, amount, kind, prize_rank, status, attempts, last_error, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0, '', ?, ?)`,
			t.Id, t.TournamentId, t.AccountId, strconv.FormatUint(t.Amount, 10),
			string(t.Kind), int64(t.Rank), string(models.TransferStatusPending), now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to record transfer %s: %w", t.Id, err)
		}
	}

	return tx.Commit()
}

func (j *SQLJournal) MarkSent(ctx context.Context, id string) error {
	return j.mark(ctx, id, models.TransferStatusSent, "")
}

func (j *SQLJournal) MarkFailed(ctx context.Context, id string, reason string) error {
	return j.mark(ctx, id, models.TransferStatusFailed, reason)
}

func (j *SQLJournal) mark(ctx context.Context, id string, status models.TransferStatus, reason string) error {
	result, err := j.db.ExecContext(ctx,
		`UPDATE transfers SET status = ?, attempts = attempts + 1, last_error = ?, updated_at = ? WHERE id = ?`,
		string(status), reason, j.clock.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update transfer %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("transfer %s not found", id)
	}
	return nil
}

// A pending row older than the cutoff was journaled but its outcome never
// recorded: the process stopped before sending, or MarkSent failed after
// the gateway accepted it.
func (j *SQLJournal) Retryable(ctx context.Context, maxAttempts int, staleAfter time.Duration, limit int) ([]models.Transfer, error) {
	cutoff := j.clock.Now().UTC().Add(-staleAfter)

	var transfers []models.Transfer
	err := j.db.SelectContext(ctx, &transfers,
		`SELECT * FROM transfers
		WHERE attempts < ? AND (status = ? OR (status = ? AND updated_at < ?))
		ORDER BY created_at ASC, id ASC LIMIT ?`,
		maxAttempts, string(models.TransferStatusFailed), string(models.TransferStatusPending), cutoff, limit,
	)
	return transfers, err
}

func (j *SQLJournal) ListByTournament(ctx context.Context, tournamentId string) ([]models.Transfer, error) {
	var transfers []models.Transfer
	err := j.db.SelectContext(ctx, &transfers,
		`SELECT * FROM transfers WHERE tournament_id = ? ORDER BY created_at ASC, prize_rank ASC, id ASC`,
		tournamentId,
	)
	return transfers, err
}
