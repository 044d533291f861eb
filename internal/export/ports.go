// Package export defines the outbound port for pushing stored transactions
// to an external spreadsheet.
package export

import (
	"context"

	"paisa/internal/core"
)

// RowAppender appends one transaction as a spreadsheet row and returns a
// reference to the written range.
type RowAppender interface {
	Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
