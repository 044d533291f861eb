package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"paisa/internal/core"
	"paisa/internal/parser"
	"paisa/internal/storage"
	"paisa/internal/taxonomy"
)

type fakeRepo struct {
	inserted []core.Transaction
	nextID   int64
	failWith error
}

func (f *fakeRepo) Insert(ctx context.Context, t core.Transaction) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.nextID++
	f.inserted = append(f.inserted, t)
	return f.nextID, nil
}

func (f *fakeRepo) List(ctx context.Context, _ storage.Filters) ([]core.Transaction, error) {
	return f.inserted, nil
}

func (f *fakeRepo) SpendingSummary(ctx context.Context) ([]storage.CategoryTotal, error) {
	return nil, nil
}

type fakeQueue struct {
	published []int64
	failWith  error
}

func (f *fakeQueue) PublishTransactionExport(ctx context.Context, id int64) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.published = append(f.published, id)
	return nil
}

func newTestService(repo *fakeRepo, queue ExportQueue) *TransactionService {
	tax := taxonomy.New()
	return NewTransactionService(repo, tax, parser.New(tax), queue)
}

func validInput() core.Transaction {
	return core.Transaction{
		Date:         core.Today(time.Now()),
		Description:  "panipuris",
		Amount:       decimal.NewFromInt(20),
		MainCategory: "Food",
		SubCategory:  "panipuris",
		Type:         core.Expense,
	}
}

func TestCreateStoresAndPublishes(t *testing.T) {
	repo := &fakeRepo{}
	queue := &fakeQueue{}
	svc := newTestService(repo, queue)

	stored, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if stored.ID != 1 {
		t.Fatalf("id = %d", stored.ID)
	}
	if stored.Currency != core.DefaultCurrency || stored.SplitRatio != 1 {
		t.Fatalf("defaults not applied: %+v", stored)
	}
	if len(queue.published) != 1 || queue.published[0] != 1 {
		t.Fatalf("published = %v", queue.published)
	}
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, nil)

	in := validInput()
	in.MainCategory = "Gadgets"
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("err = %v, want ErrUnknownCategory", err)
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("inserted %d rows for an invalid transaction", len(repo.inserted))
	}

	in = validInput()
	in.SubCategory = "salary" // valid sub, wrong main
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("err = %v, want ErrUnknownCategory", err)
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("inserted %d rows for an invalid transaction", len(repo.inserted))
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, nil)

	in := validInput()
	in.Amount = decimal.Zero
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	if len(repo.inserted) != 0 {
		t.Fatal("invalid transaction reached the store")
	}
}

func TestCreateSurvivesQueueFailure(t *testing.T) {
	repo := &fakeRepo{}
	queue := &fakeQueue{failWith: errors.New("broker down")}
	svc := newTestService(repo, queue)

	stored, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create should not fail on publish error: %v", err)
	}
	if stored.ID != 1 {
		t.Fatalf("id = %d", stored.ID)
	}
}

func TestCreateFromTextSuccess(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, nil)

	res, err := svc.CreateFromText(context.Background(),
		"I paid 20 rupees for Panipuris and 50 rupees for a movie ticket")
	if err != nil {
		t.Fatalf("create from text: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s, errors = %v", res.Status, res.Errors)
	}
	if len(res.Transactions) != 2 {
		t.Fatalf("transactions = %d", len(res.Transactions))
	}
	if res.Transactions[0].ID != 1 || res.Transactions[1].ID != 2 {
		t.Fatalf("ids = %d, %d", res.Transactions[0].ID, res.Transactions[1].ID)
	}
	if res.Transactions[0].Amount.String() != "20" || res.Transactions[1].Amount.String() != "50" {
		t.Fatalf("amounts = %s, %s", res.Transactions[0].Amount, res.Transactions[1].Amount)
	}
}

func TestCreateFromTextEmpty(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil)

	res, err := svc.CreateFromText(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("parse miss is not an error: %v", err)
	}
	if res.Status != StatusEmpty {
		t.Fatalf("status = %s", res.Status)
	}
	if res.Message != "no transaction detected" {
		t.Fatalf("message = %q", res.Message)
	}
	if len(res.Transactions) != 0 {
		t.Fatalf("transactions = %d", len(res.Transactions))
	}
}

func TestCreateFromTextPartial(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil)

	res, err := svc.CreateFromText(context.Background(),
		"I paid 20 rupees for chai and bought some pens")
	if err != nil {
		t.Fatalf("create from text: %v", err)
	}
	if res.Status != StatusPartial {
		t.Fatalf("status = %s", res.Status)
	}
	if len(res.Transactions) != 1 || len(res.Errors) != 1 {
		t.Fatalf("transactions = %d, errors = %v", len(res.Transactions), res.Errors)
	}
}

func TestCreateFromTextStorageFailure(t *testing.T) {
	repo := &fakeRepo{failWith: errors.New("disk full")}
	svc := newTestService(repo, nil)

	if _, err := svc.CreateFromText(context.Background(), "I paid 20 for chai"); err == nil {
		t.Fatal("storage failure must surface as an error")
	}
}
