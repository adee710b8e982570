// Package table renders arbitrary row types into a declarative table
// document: headers, cells, expansion content and state, without knowing
// anything about row semantics. Cell content and expanded content come from
// injected renderer functions.
package table

import (
	"sort"

	"github.com/google/uuid"

	"github.com/ehr/chart/internal/platform/errfmt"
)

// DefaultEmptyMessage is shown when a populated table has zero rows and the
// definition supplies no override.
const DefaultEmptyMessage = "No data available"

// State is the rendering state of a table.
type State string

const (
	StateLoading   State = "loading"
	StateError     State = "error"
	StateEmpty     State = "empty"
	StatePopulated State = "populated"
)

// Column pairs a cell key with its header text.
type Column struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

// SortableColumn marks a column key as sortable. Keys absent from the
// sortable list default to not sortable; keys that match no column are
// ignored.
type SortableColumn struct {
	Key      string `json:"key"`
	Sortable bool   `json:"sortable"`
}

// Header is a rendered column header.
type Header struct {
	Key      string `json:"key"`
	Header   string `json:"header"`
	Sortable bool   `json:"sortable"`
	Scope    string `json:"scope"`
}

// Cell is one rendered table cell.
type Cell struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Class string `json:"class,omitempty"`
}

// Row is one rendered table row. Expanded is nil when the row has no
// expansion affordance.
type Row struct {
	ID       string  `json:"id"`
	Cells    []Cell  `json:"cells"`
	Expanded *string `json:"expanded,omitempty"`
}

// Rendered is the full table document handed to the client.
type Rendered struct {
	Title     string   `json:"title"`
	AriaLabel string   `json:"ariaLabel"`
	State     State    `json:"state"`
	Message   string   `json:"message,omitempty"`
	Headers   []Header `json:"headers"`
	Rows      []Row    `json:"rows"`
}

// Definition describes how to render a table over rows of type T.
type Definition[T any] struct {
	Title             string
	AriaLabel         string
	Columns           []Column
	Sortable          []SortableColumn
	EmptyStateMessage string

	// RowID extracts a stable row identifier; rows without one get a
	// generated id so expansion and class lookup stay keyed per render.
	RowID func(T) string
	// RenderCell produces the display value for a row/column pair.
	RenderCell func(T, string) string
	// RenderExpanded produces the expanded content for a row, or nil to
	// suppress the expand affordance for that row. May itself be nil.
	RenderExpanded func(T) *string
}

// Options are the per-render inputs.
type Options struct {
	Loading bool
	Err     error
	// SortBy is a column key; the render sorts ascending by that column's
	// rendered value when the column is sortable, and is ignored otherwise.
	SortBy string
	// RowClasses maps row ids to a CSS class applied to every cell of the
	// matching row.
	RowClasses map[string]string
}

// Render produces the table document. A nil row slice renders as empty.
func (d Definition[T]) Render(rows []T, opts Options) Rendered {
	out := Rendered{
		Title:     d.Title,
		AriaLabel: d.AriaLabel,
		Headers:   d.headers(),
		Rows:      []Row{},
	}
	if out.AriaLabel == "" {
		out.AriaLabel = d.Title
	}

	switch {
	case opts.Loading:
		out.State = StateLoading
		return out
	case opts.Err != nil:
		out.State = StateError
		out.Message = errfmt.Normalize(opts.Err).Message
		return out
	case len(rows) == 0:
		out.State = StateEmpty
		out.Message = d.EmptyStateMessage
		if out.Message == "" {
			out.Message = DefaultEmptyMessage
		}
		return out
	}

	out.State = StatePopulated
	for _, r := range rows {
		out.Rows = append(out.Rows, d.renderRow(r, opts.RowClasses))
	}

	if opts.SortBy != "" && d.sortable(opts.SortBy) {
		sortRowsBy(out.Rows, opts.SortBy)
	}
	return out
}

func (d Definition[T]) headers() []Header {
	sortable := make(map[string]bool, len(d.Sortable))
	for _, s := range d.Sortable {
		sortable[s.Key] = s.Sortable
	}
	headers := make([]Header, 0, len(d.Columns))
	for _, col := range d.Columns {
		headers = append(headers, Header{
			Key:      col.Key,
			Header:   col.Header,
			Sortable: sortable[col.Key],
			Scope:    "col",
		})
	}
	return headers
}

func (d Definition[T]) sortable(key string) bool {
	for _, h := range d.headers() {
		if h.Key == key {
			return h.Sortable
		}
	}
	return false
}

func (d Definition[T]) renderRow(r T, classes map[string]string) Row {
	id := ""
	if d.RowID != nil {
		id = d.RowID(r)
	}
	if id == "" {
		id = uuid.New().String()
	}

	row := Row{ID: id}
	class := classes[id]
	for _, col := range d.Columns {
		row.Cells = append(row.Cells, Cell{
			Key:   col.Key,
			Value: d.RenderCell(r, col.Key),
			Class: class,
		})
	}
	if d.RenderExpanded != nil {
		row.Expanded = d.RenderExpanded(r)
	}
	return row
}

// sortRowsBy sorts rows ascending by the rendered value of the given column.
func sortRowsBy(rows []Row, key string) {
	value := func(r Row) string {
		for _, c := range r.Cells {
			if c.Key == key {
				return c.Value
			}
		}
		return ""
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return value(rows[i]) < value(rows[j])
	})
}
