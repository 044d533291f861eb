// Package services holds the application logic between the HTTP layer and
// the store.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"paisa/internal/core"
	"paisa/internal/parser"
	"paisa/internal/storage"
	"paisa/internal/taxonomy"
)

// TextStatus summarizes the outcome of a free-text submission.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusError   = "error"
	StatusEmpty   = "empty"
)

// TextResult is the response body for free-text submissions. Transactions
// holds the stored records; Errors holds per-segment parse or validation
// failures.
type TextResult struct {
	Status       string             `json:"status"`
	Transactions []core.Transaction `json:"transactions"`
	Errors       []string           `json:"errors,omitempty"`
	Message      string             `json:"message,omitempty"`
}

// Repository is the subset of the store the service needs.
type Repository interface {
	Insert(ctx context.Context, t core.Transaction) (int64, error)
	List(ctx context.Context, f storage.Filters) ([]core.Transaction, error)
	SpendingSummary(ctx context.Context) ([]storage.CategoryTotal, error)
}

// ExportQueue publishes export requests for stored transactions. Optional;
// the service degrades to store-only when nil.
type ExportQueue interface {
	PublishTransactionExport(ctx context.Context, id int64) error
}

type TransactionService struct {
	repo   Repository
	tax    *taxonomy.Taxonomy
	parser *parser.Parser
	queue  ExportQueue
}

func NewTransactionService(repo Repository, tax *taxonomy.Taxonomy, p *parser.Parser, queue ExportQueue) *TransactionService {
	return &TransactionService{
		repo:   repo,
		tax:    tax,
		parser: p,
		queue:  queue,
	}
}

// Create validates and stores a single structured transaction, returning the
// stored record with its assigned id.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Normalize(time.Now())

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if !s.tax.Validate(t.Type, t.MainCategory, t.SubCategory) {
		return core.Transaction{}, fmt.Errorf("%w: %s / %s", core.ErrUnknownCategory, t.MainCategory, t.SubCategory)
	}

	id, err := s.repo.Insert(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("store transaction: %w", err)
	}
	t.ID = id

	s.publishExport(ctx, id)
	return t, nil
}

// CreateFromText parses free text into transaction drafts and stores every
// valid one. Storage failures abort with an error; parse and validation
// misses are reported per segment in the result.
func (s *TransactionService) CreateFromText(ctx context.Context, text string) (TextResult, error) {
	parsed := s.parser.Parse(text)
	if parsed.Empty() {
		return TextResult{
			Status:       StatusEmpty,
			Transactions: []core.Transaction{},
			Message:      "no transaction detected",
		}, nil
	}

	res := TextResult{Transactions: []core.Transaction{}, Errors: parsed.Errors}
	for _, draft := range parsed.Drafts {
		if err := draft.Validate(); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", draft.Description, err))
			continue
		}

		id, err := s.repo.Insert(ctx, draft)
		if err != nil {
			return TextResult{}, fmt.Errorf("store transaction: %w", err)
		}
		draft.ID = id
		res.Transactions = append(res.Transactions, draft)

		s.publishExport(ctx, id)
	}

	switch {
	case len(res.Transactions) == 0:
		res.Status = StatusError
		res.Message = "no transactions could be saved"
	case len(res.Errors) > 0:
		res.Status = StatusPartial
		res.Message = fmt.Sprintf("saved %d transaction(s), %d segment(s) failed",
			len(res.Transactions), len(res.Errors))
	default:
		res.Status = StatusSuccess
		res.Message = fmt.Sprintf("saved %d transaction(s)", len(res.Transactions))
	}

	slog.InfoContext(ctx, "Processed text submission",
		"status", res.Status,
		"saved", len(res.Transactions),
		"errors", len(res.Errors),
		"text_preview", preview(text))

	return res, nil
}

// List returns stored transactions filtered by type and a trailing day window.
func (s *TransactionService) List(ctx context.Context, f storage.Filters) ([]core.Transaction, error) {
	return s.repo.List(ctx, f)
}

// SpendingSummary returns current-month expense totals per main category.
func (s *TransactionService) SpendingSummary(ctx context.Context) ([]storage.CategoryTotal, error) {
	return s.repo.SpendingSummary(ctx)
}

// publishExport enqueues the export best-effort. The record is already
// committed; the worker's pending sweep picks up anything the queue misses.
func (s *TransactionService) publishExport(ctx context.Context, id int64) {
	if s.queue == nil {
		return
	}
	if err := s.queue.PublishTransactionExport(ctx, id); err != nil {
		slog.WarnContext(ctx, "Failed to publish export message", "id", id, "error", err)
	}
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > 60 {
		return text[:60] + "..."
	}
	return text
}
