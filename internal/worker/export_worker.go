// Package worker exports stored transactions to the spreadsheet, driven by
// queue messages with a periodic sweep as backup.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"paisa/internal/amqp"
	"paisa/internal/core"
	"paisa/internal/export"
)

// Store is the subset of the repository the worker needs.
type Store interface {
	Get(ctx context.Context, id int64) (core.Transaction, error)
	PendingExport(ctx context.Context, limit int) ([]int64, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64) error
}

type ExportWorker struct {
	store     Store
	sheet     export.RowAppender
	batchSize int
}

func NewExportWorker(store Store, sheet export.RowAppender, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		store:     store,
		sheet:     sheet,
		batchSize: batchSize,
	}
}

// HandleExportMessage exports the transaction named by one queue message.
// A failed append marks the row 'error' and returns the failure so the
// delivery is requeued.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ExportMessage) error {
	return w.exportOne(ctx, msg.ID)
}

// ProcessPending sweeps rows still marked 'pending'. It catches transactions
// whose queue message was lost, and keeps going past individual failures.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	ids, err := w.store.PendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Sweeping pending exports", "count", len(ids))

	var failed int
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.exportOne(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", id, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d pending exports failed", failed, len(ids))
	}
	return nil
}

func (w *ExportWorker) exportOne(ctx context.Context, id int64) error {
	t, err := w.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", id, err)
	}

	rowRef, err := w.sheet.Append(ctx, t)
	if err != nil {
		if markErr := w.store.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append transaction %d: %w", id, err)
	}

	if err := w.store.MarkExported(ctx, id); err != nil {
		return fmt.Errorf("mark exported %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", id,
		"row", rowRef)

	return nil
}
