package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"paisa/internal/core"
	"paisa/internal/services"
	"paisa/internal/storage"
)

const (
	// maxBodyBytes caps request bodies; free text and single records are
	// both small.
	maxBodyBytes = 64 * 1024

	// defaultDaysBack is the listing window when ?days is absent.
	defaultDaysBack = 365
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Today             string
		ExpenseCategories map[string][]string
		IncomeCategories  map[string][]string
	}{
		Today:             core.Today(time.Now()).String(),
		ExpenseCategories: s.tax.Hierarchy(core.Expense),
		IncomeCategories:  s.tax.Hierarchy(core.Income),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	case http.MethodGet:
		s.handleListTransactions(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCreateTransaction accepts either a structured JSON transaction or a
// free-text body, selected by Content-Type.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		s.createFromJSON(w, r)
	case strings.HasPrefix(contentType, "text/plain"), contentType == "":
		s.createFromText(w, r)
	default:
		writeError(w, http.StatusUnsupportedMediaType, "use application/json or text/plain")
	}
}

func (s *Server) createFromJSON(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	stored, err := s.svc.Create(r.Context(), t)
	if err != nil {
		if core.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to create transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store transaction")
		return
	}

	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) createFromText(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	res, err := s.svc.CreateFromText(r.Context(), string(body))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to process text submission", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store transactions")
		return
	}

	// A text with no detectable transaction is not a client error.
	switch res.Status {
	case services.StatusEmpty:
		writeJSON(w, http.StatusOK, res)
	case services.StatusError:
		writeJSON(w, http.StatusBadRequest, res)
	default:
		writeJSON(w, http.StatusCreated, res)
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filters, err := parseListFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions, err := s.svc.List(r.Context(), filters)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}

	writeJSON(w, http.StatusOK, struct {
		Transactions []core.Transaction `json:"transactions"`
		Count        int                `json:"count"`
	}{Transactions: transactions, Count: len(transactions)})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	totals, err := s.svc.SpendingSummary(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build spending summary", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	if totals == nil {
		totals = []storage.CategoryTotal{}
	}

	writeJSON(w, http.StatusOK, struct {
		Month      string                  `json:"month"`
		Categories []storage.CategoryTotal `json:"categories"`
	}{Month: time.Now().Format("2006-01"), Categories: totals})
}
