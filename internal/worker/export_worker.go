// Package worker consumes transaction events and mirrors the rows
// into the configured spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"moneypal/internal/amqp"
	"moneypal/internal/apperr"
	"moneypal/internal/export"
	"moneypal/internal/storage"
)

// ExportWorker drives the database-to-sheet pipeline. Events carry
// only ids; the worker always reads the current row from the store,
// so a burst of updates collapses into whatever the row says now.
type ExportWorker struct {
	store     *storage.Store
	sheet     export.RowWriter
	batchSize int
}

func NewExportWorker(store *storage.Store, sheet export.RowWriter, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ExportWorker{store: store, sheet: sheet, batchSize: batchSize}
}

// HandleEvent processes one transaction event. Returning an error
// requeues the delivery.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	slog.InfoContext(ctx, "processing transaction event",
		"event_id", msg.EventID,
		"action", msg.Action,
		"transaction_id", msg.TransactionID)

	if msg.Action == amqp.ActionDeleted {
		// The sheet is an append-only mirror; deletions stay in it.
		slog.DebugContext(ctx, "skipping deleted transaction", "transaction_id", msg.TransactionID)
		return nil
	}

	row, err := w.store.GetTransactionRow(ctx, msg.TransactionID, msg.UserID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			// Row deleted between publish and consume.
			slog.WarnContext(ctx, "transaction vanished before export", "transaction_id", msg.TransactionID)
			return nil
		}
		return fmt.Errorf("load transaction %d: %w", msg.TransactionID, err)
	}

	return w.exportRow(ctx, row)
}

// StartupSweep exports everything still pending, catching rows whose
// publish failed while the broker was down.
func (w *ExportWorker) StartupSweep(ctx context.Context) error {
	for {
		rows, err := w.store.PendingExportTransactions(ctx, w.batchSize)
		if err != nil {
			return fmt.Errorf("load pending transactions: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		slog.InfoContext(ctx, "sweeping pending exports", "count", len(rows))
		for _, row := range rows {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := w.exportRow(ctx, row); err != nil {
				// Row is marked ERROR; keep sweeping the rest.
				slog.ErrorContext(ctx, "sweep export failed",
					"transaction_id", row.ID, "error", err)
			}
		}
		if len(rows) < w.batchSize {
			return nil
		}
	}
}

func (w *ExportWorker) exportRow(ctx context.Context, row storage.TransactionRow) error {
	if err := w.sheet.AppendTransaction(ctx, row); err != nil {
		if markErr := w.store.MarkExportError(ctx, row.ID); markErr != nil {
			slog.ErrorContext(ctx, "failed to mark export error",
				"transaction_id", row.ID, "error", markErr)
		}
		return fmt.Errorf("append transaction %d: %w", row.ID, err)
	}
	if err := w.store.MarkExported(ctx, row.ID); err != nil {
		return fmt.Errorf("mark transaction %d exported: %w", row.ID, err)
	}
	return nil
}
