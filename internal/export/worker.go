package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/amqp"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/log"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/storage"
)

// RowAppender is the slice of the Sheets client the worker needs.
type RowAppender interface {
	Append(ctx context.Context, rows []Row) error
}

var _ RowAppender = (*SheetsClient)(nil)

// Worker turns ledger events into spreadsheet rows. Events carry ids
// only, so each one is resolved against the database before export.
type Worker struct {
	repo      *storage.Repository
	sheets    RowAppender
	batchSize int
	logger    *log.Logger
}

func NewWorker(repo *storage.Repository, sheets RowAppender, batchSize int, logger *log.Logger) *Worker {
	return &Worker{
		repo:      repo,
		sheets:    sheets,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentExport),
	}
}

// flushInterval bounds how long a partially filled batch can sit.
const flushInterval = 5 * time.Second

// Run consumes deliveries until the channel closes or the context is
// cancelled. Deliveries are acked only after their batch reaches the
// spreadsheet; a failed flush requeues the whole batch.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp091.Delivery) error {
	batch := make([]Row, 0, w.batchSize)
	pending := make([]amqp091.Delivery, 0, w.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.sheets.Append(ctx, batch); err != nil {
			w.logger.ErrorContext(ctx, "Batch export failed, requeueing",
				"rows", len(batch), "error", err)
			for _, d := range pending {
				_ = d.Nack(false, true)
			}
		} else {
			w.logger.InfoContext(ctx, "Batch exported", "rows", len(batch))
			for _, d := range pending {
				_ = d.Ack(false)
			}
		}
		batch = batch[:0]
		pending = pending[:0]
	}

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()
		case <-ticker.C:
			flush()
		case d, ok := <-deliveries:
			if !ok {
				flush()
				return errors.New("delivery channel closed")
			}
			row, err := w.buildRow(ctx, d.Body)
			if err != nil {
				w.logger.ErrorContext(ctx, "Dropping undecodable event", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			batch = append(batch, row)
			pending = append(pending, d)
			if len(batch) >= w.batchSize {
				flush()
			}
		}
	}
}

// buildRow resolves an event against the current database state. A
// transaction that no longer exists exports as an id-only line, which
// also covers delete events.
func (w *Worker) buildRow(ctx context.Context, body []byte) (Row, error) {
	msg, err := amqp.LedgerEventMessageFromJSON(body)
	if err != nil {
		return Row{}, fmt.Errorf("decode event: %w", err)
	}

	row := Row{
		Event:         msg.Event,
		TransactionID: msg.TransactionID,
		BudgetID:      msg.BudgetID,
		CategoryID:    msg.CategoryID,
		ExportedAt:    time.Now(),
	}

	id, err := uuid.Parse(msg.TransactionID)
	if err != nil {
		return Row{}, fmt.Errorf("event %s: bad transaction id %q: %w", msg.Event, msg.TransactionID, err)
	}

	t, err := w.repo.Queries().GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return row, nil
	}
	if err != nil {
		return Row{}, fmt.Errorf("load transaction %s: %w", id, err)
	}

	row.Type = string(t.Type)
	row.Amount = t.Amount
	row.Name = t.Name
	row.TransactionDate = t.TransactionDate
	row.AuthorUserID = t.AuthorUserID
	return row, nil
}
