package export

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/amqp"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/log"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/storage"
)

type fakeAppender struct {
	batches  [][]Row
	failNext bool
}

func (f *fakeAppender) Append(_ context.Context, rows []Row) error {
	if f.failNext {
		f.failNext = false
		return errors.New("quota exceeded")
	}
	batch := make([]Row, len(rows))
	copy(batch, rows)
	f.batches = append(f.batches, batch)
	return nil
}

type fakeAcker struct {
	acks     int
	nacks    int
	requeued bool
}

func (f *fakeAcker) Ack(uint64, bool) error { f.acks++; return nil }

func (f *fakeAcker) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacks++
	f.requeued = requeue
	return nil
}

func (f *fakeAcker) Reject(uint64, bool) error { return nil }

func seedTransaction(t *testing.T) (*storage.Repository, core.Transaction) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	q := repo.Queries()
	now := time.Now()

	user := core.User{ID: 42, FirstName: "Ada", CreatedAt: now, UpdatedAt: now}
	if err := q.InsertUser(ctx, user); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	budget := core.Budget{
		ID: uuid.New(), Name: "Household",
		TotalAmount: core.Money{Cents: 100000},
		Owner:       core.OwnerUser(42),
		Balance:     core.Money{Cents: 100000},
		CreatedAt:   now, UpdatedAt: now,
	}
	if err := q.InsertBudget(ctx, budget); err != nil {
		t.Fatalf("insert budget: %v", err)
	}
	category := core.Category{
		ID: uuid.New(), Name: "Food", BudgetID: budget.ID,
		LimitAmount: core.Money{Cents: 20000},
		Balance:     core.Money{Cents: 20000},
		CreatedAt:   now, UpdatedAt: now,
	}
	if err := q.InsertCategory(ctx, category); err != nil {
		t.Fatalf("insert category: %v", err)
	}
	tx := core.Transaction{
		ID: uuid.New(), Type: core.Expense,
		Amount: core.Money{Cents: 5000}, Name: "Groceries",
		TransactionDate: now, BudgetID: budget.ID, CategoryID: category.ID,
		AuthorUserID: 42, CreatedAt: now, UpdatedAt: now,
	}
	if err := q.InsertTransaction(ctx, tx); err != nil {
		t.Fatalf("insert transaction: %v", err)
	}
	return repo, tx
}

func eventBody(t *testing.T, event string, tx core.Transaction) []byte {
	t.Helper()
	msg := amqp.NewLedgerEventMessage(event, tx.ID.String(), tx.BudgetID.String(), tx.CategoryID.String())
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	return body
}

func TestBuildRowResolvesTransaction(t *testing.T) {
	repo, tx := seedTransaction(t)
	w := NewWorker(repo, &fakeAppender{}, 10, log.New(log.DefaultConfig()))

	row, err := w.buildRow(context.Background(), eventBody(t, amqp.EventTransactionCreated, tx))
	if err != nil {
		t.Fatalf("buildRow: %v", err)
	}
	if row.Event != amqp.EventTransactionCreated || row.TransactionID != tx.ID.String() {
		t.Fatalf("unexpected row identity: %+v", row)
	}
	if row.Type != "expense" || row.Amount.Cents != 5000 || row.Name != "Groceries" || row.AuthorUserID != 42 {
		t.Fatalf("row not resolved from stored transaction: %+v", row)
	}
}

func TestBuildRowMissingTransactionExportsIDsOnly(t *testing.T) {
	repo, tx := seedTransaction(t)
	w := NewWorker(repo, &fakeAppender{}, 10, log.New(log.DefaultConfig()))

	gone := tx
	gone.ID = uuid.New()
	row, err := w.buildRow(context.Background(), eventBody(t, amqp.EventTransactionDeleted, gone))
	if err != nil {
		t.Fatalf("buildRow: %v", err)
	}
	if row.TransactionID != gone.ID.String() {
		t.Fatalf("expected id carried through, got %q", row.TransactionID)
	}
	if row.Type != "" || row.Amount.Cents != 0 || row.Name != "" || row.AuthorUserID != 0 {
		t.Fatalf("deleted transaction must export ids only: %+v", row)
	}
}

func TestBuildRowRejectsBadPayload(t *testing.T) {
	repo, _ := seedTransaction(t)
	w := NewWorker(repo, &fakeAppender{}, 10, log.New(log.DefaultConfig()))

	if _, err := w.buildRow(context.Background(), []byte("not json")); err == nil {
		t.Fatal("expected error for undecodable payload")
	}
	msg := amqp.NewLedgerEventMessage(amqp.EventTransactionCreated, "not-a-uuid", "", "")
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	if _, err := w.buildRow(context.Background(), body); err == nil {
		t.Fatal("expected error for unparseable transaction id")
	}
}

func TestRunFlushesFullBatchAndAcks(t *testing.T) {
	repo, tx := seedTransaction(t)
	appender := &fakeAppender{}
	w := NewWorker(repo, appender, 2, log.New(log.DefaultConfig()))

	acker := &fakeAcker{}
	deliveries := make(chan amqp091.Delivery, 2)
	deliveries <- amqp091.Delivery{Acknowledger: acker, Body: eventBody(t, amqp.EventTransactionCreated, tx)}
	deliveries <- amqp091.Delivery{Acknowledger: acker, Body: eventBody(t, amqp.EventTransactionUpdated, tx)}
	close(deliveries)

	if err := w.Run(context.Background(), deliveries); err == nil {
		t.Fatal("expected error when delivery channel closes")
	}
	if len(appender.batches) != 1 || len(appender.batches[0]) != 2 {
		t.Fatalf("expected one batch of two rows, got %v", appender.batches)
	}
	if acker.acks != 2 || acker.nacks != 0 {
		t.Fatalf("expected both deliveries acked, got acks=%d nacks=%d", acker.acks, acker.nacks)
	}
}

func TestRunRequeuesBatchOnFlushFailure(t *testing.T) {
	repo, tx := seedTransaction(t)
	appender := &fakeAppender{failNext: true}
	w := NewWorker(repo, appender, 1, log.New(log.DefaultConfig()))

	acker := &fakeAcker{}
	deliveries := make(chan amqp091.Delivery, 1)
	deliveries <- amqp091.Delivery{Acknowledger: acker, Body: eventBody(t, amqp.EventTransactionCreated, tx)}
	close(deliveries)

	_ = w.Run(context.Background(), deliveries)
	if acker.nacks != 1 || !acker.requeued {
		t.Fatalf("expected failed batch requeued, got nacks=%d requeued=%v", acker.nacks, acker.requeued)
	}
}
