package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"paisa/internal/amqp"
	"paisa/internal/core"
)

type fakeStore struct {
	transactions map[int64]core.Transaction
	pending      []int64
	exported     []int64
	errored      []int64
}

func (f *fakeStore) Get(ctx context.Context, id int64) (core.Transaction, error) {
	t, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, errors.New("not found")
	}
	return t, nil
}

func (f *fakeStore) PendingExport(ctx context.Context, limit int) ([]int64, error) {
	if limit < len(f.pending) {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeStore) MarkExported(ctx context.Context, id int64) error {
	f.exported = append(f.exported, id)
	return nil
}

func (f *fakeStore) MarkExportError(ctx context.Context, id int64) error {
	f.errored = append(f.errored, id)
	return nil
}

type fakeAppender struct {
	appended []core.Transaction
	failFor  map[int64]bool
}

func (f *fakeAppender) Append(ctx context.Context, t core.Transaction) (string, error) {
	if f.failFor[t.ID] {
		return "", errors.New("sheet unavailable")
	}
	f.appended = append(f.appended, t)
	return "Transactions!A2:J2", nil
}

func storedTransaction(id int64) core.Transaction {
	return core.Transaction{
		ID:           id,
		Date:         core.Today(time.Now()),
		Description:  "panipuris",
		Amount:       decimal.NewFromInt(20),
		Currency:     core.DefaultCurrency,
		MainCategory: "Food",
		SubCategory:  "panipuris",
		Type:         core.Expense,
		SplitRatio:   1,
	}
}

func TestHandleExportMessage(t *testing.T) {
	store := &fakeStore{transactions: map[int64]core.Transaction{7: storedTransaction(7)}}
	sheet := &fakeAppender{}
	w := NewExportWorker(store, sheet, 10)

	msg := amqp.NewExportMessage(7)
	if err := w.HandleExportMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sheet.appended) != 1 || sheet.appended[0].ID != 7 {
		t.Fatalf("appended = %+v", sheet.appended)
	}
	if len(store.exported) != 1 || store.exported[0] != 7 {
		t.Fatalf("exported = %v", store.exported)
	}
}

func TestHandleExportMessageAppendFailure(t *testing.T) {
	store := &fakeStore{transactions: map[int64]core.Transaction{7: storedTransaction(7)}}
	sheet := &fakeAppender{failFor: map[int64]bool{7: true}}
	w := NewExportWorker(store, sheet, 10)

	if err := w.HandleExportMessage(context.Background(), amqp.NewExportMessage(7)); err == nil {
		t.Fatal("append failure must propagate so the message is requeued")
	}
	if len(store.errored) != 1 || store.errored[0] != 7 {
		t.Fatalf("errored = %v", store.errored)
	}
	if len(store.exported) != 0 {
		t.Fatalf("exported = %v, want none", store.exported)
	}
}

func TestProcessPending(t *testing.T) {
	store := &fakeStore{
		transactions: map[int64]core.Transaction{
			1: storedTransaction(1),
			2: storedTransaction(2),
			3: storedTransaction(3),
		},
		pending: []int64{1, 2, 3},
	}
	sheet := &fakeAppender{failFor: map[int64]bool{2: true}}
	w := NewExportWorker(store, sheet, 10)

	err := w.ProcessPending(context.Background())
	if err == nil {
		t.Fatal("sweep with failures should report an error")
	}
	if len(sheet.appended) != 2 {
		t.Fatalf("appended = %d, want 2 (sweep continues past failures)", len(sheet.appended))
	}
	if len(store.exported) != 2 || len(store.errored) != 1 {
		t.Fatalf("exported = %v, errored = %v", store.exported, store.errored)
	}
}

func TestProcessPendingEmpty(t *testing.T) {
	w := NewExportWorker(&fakeStore{}, &fakeAppender{}, 10)
	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("empty sweep: %v", err)
	}
}
