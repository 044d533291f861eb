package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"paisa/internal/core"
	"paisa/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}

// parseListFilters reads the type and days query parameters. days defaults
// to a one-year window; days=0 means no window.
func parseListFilters(r *http.Request) (storage.Filters, error) {
	f := storage.Filters{DaysBack: defaultDaysBack}

	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		t := core.TxType(v)
		if !t.Valid() {
			return storage.Filters{}, fmt.Errorf("invalid type %q: must be 'expense' or 'income'", v)
		}
		f.Type = t
	}

	if v := strings.TrimSpace(r.URL.Query().Get("days")); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			return storage.Filters{}, fmt.Errorf("invalid days %q: must be a non-negative number", v)
		}
		f.DaysBack = days
	}

	return f, nil
}
