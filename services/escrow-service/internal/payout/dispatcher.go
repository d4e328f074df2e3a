// Package payout sends the transfers produced by the ledger and keeps a
// journal of their outcome. Ledger state never depends on a transfer
// succeeding.
package payout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
	"github.com/burakmert236/goodswipe-escrow/common/logger"
	"github.com/burakmert236/goodswipe-escrow/common/models"
)

const (
	DefaultMaxAttempts    = 5
	DefaultPendingTimeout = 5 * time.Minute
	retryBatchSize        = 100
)

type Dispatcher struct {
	journal        Journal
	gateway        Gateway
	logger         *logger.Logger
	maxAttempts    int
	pendingTimeout time.Duration
}

// NewDispatcher builds a dispatcher. Transfers left pending for longer than
// pendingTimeout are resent by Retry.
func NewDispatcher(journal Journal, gateway Gateway, logger *logger.Logger, maxAttempts int, pendingTimeout time.Duration) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if pendingTimeout <= 0 {
		pendingTimeout = DefaultPendingTimeout
	}
	return &Dispatcher{
		journal:        journal,
		gateway:        gateway,
		logger:         logger.With("component", "payout"),
		maxAttempts:    maxAttempts,
		pendingTimeout: pendingTimeout,
	}
}

// Dispatch journals the transfers as pending and sends each one. Every
// failed send is reported in the returned error; the rest still go out.
func (d *Dispatcher) Dispatch(ctx context.Context, transfers []models.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}

	for i := range transfers {
		if transfers[i].Id == "" {
			transfers[i].Id = uuid.New().String()
		}
		transfers[i].Status = models.TransferStatusPending
	}

	if err := d.journal.Record(ctx, transfers); err != nil {
		d.logger.Error("Failed to journal transfers", "count", len(transfers), "error", err)
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to journal transfers")
	}

	var errs error
	for _, transfer := range transfers {
		errs = multierr.Append(errs, d.send(ctx, transfer))
	}

	if errs != nil {
		return apperrors.Wrap(errs, apperrors.CodeTransferError, "some transfers failed")
	}
	return nil
}

// Retry resends failed and stale pending transfers that have attempts left
// and returns how many went through.
func (d *Dispatcher) Retry(ctx context.Context) (int, error) {
	failed, err := d.journal.Retryable(ctx, d.maxAttempts, d.pendingTimeout, retryBatchSize)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load retryable transfers")
	}

	sent := 0
	var errs error
	for _, transfer := range failed {
		if err := d.send(ctx, transfer); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		sent++
	}

	if len(failed) > 0 {
		d.logger.Info("Retried transfers", "total", len(failed), "sent", sent)
	}

	return sent, errs
}

func (d *Dispatcher) send(ctx context.Context, transfer models.Transfer) error {
	if err := d.gateway.Send(ctx, transfer); err != nil {
		d.logger.Warn("Transfer failed",
			"transfer_id", transfer.Id,
			"account_id", transfer.AccountId,
			"amount", transfer.Amount,
			"error", err,
		)
		if markErr := d.journal.MarkFailed(ctx, transfer.Id, err.Error()); markErr != nil {
			return multierr.Append(err, markErr)
		}
		return fmt.Errorf("transfer %s: %w", transfer.Id, err)
	}

	return d.journal.MarkSent(ctx, transfer.Id)
}
