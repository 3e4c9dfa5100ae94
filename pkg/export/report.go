// Package export renders tabular reports for download.
package export

import (
	"errors"
	"time"
)

// ErrNoColumns is returned when a report declares no columns.
var ErrNoColumns = errors.New("report requires at least one column")

// Report is a titled table. Each row holds one cell per column.
type Report struct {
	Title       string
	Columns     []string
	Rows        [][]string
	GeneratedAt time.Time
}

// Renderer turns a report into file bytes.
type Renderer interface {
	Render(r Report) ([]byte, error)
	ContentType() string
	Extension() string
}

func (r Report) cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
