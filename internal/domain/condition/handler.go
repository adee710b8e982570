package condition

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/chart/internal/platform/dateutil"
	"github.com/ehr/chart/internal/platform/errfmt"
	"github.com/ehr/chart/internal/platform/fetch"
	"github.com/ehr/chart/internal/platform/fhirclient"
	"github.com/ehr/chart/internal/platform/notify"
	"github.com/ehr/chart/internal/platform/table"
)

const notAvailable = "Not available"

// Handler serves the patient conditions table.
type Handler struct {
	svc      *Service
	notifier *notify.Channel
	logger   zerolog.Logger
	tableDef table.Definition[FormattedCondition]
}

// NewHandler creates a new condition handler.
func NewHandler(svc *Service, notifier *notify.Channel, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		notifier: notifier,
		logger:   logger,
		tableDef: tableDefinition(),
	}
}

// RegisterRoutes registers the condition routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:patientId/conditions", h.GetConditions)
}

// GetConditions renders the conditions table for one patient. The optional
// ?status=active query parameter narrows the table to active conditions.
func (h *Handler) GetConditions(c echo.Context) error {
	f := fetch.New(h.load, h.notifier, h.logger)
	snap := f.Fetch(c.Request().Context(), c.Param("patientId"))

	if snap.Err != nil {
		var ue *fhirclient.UnauthorizedError
		if errors.As(snap.Err, &ue) {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "unauthorized",
				"login": ue.LoginPath,
			})
		}
		if errors.Is(snap.Err, fetch.ErrInvalidPatientID) {
			return c.JSON(http.StatusBadRequest, errfmt.Normalize(snap.Err))
		}
	}

	rows := snap.Data
	if c.QueryParam("status") == "active" {
		rows = onlyActive(rows)
	}

	doc := h.tableDef.Render(rows, table.Options{
		Err:    snap.Err,
		SortBy: c.QueryParam("sort"),
	})
	return c.JSON(http.StatusOK, doc)
}

func onlyActive(conditions []FormattedCondition) []FormattedCondition {
	out := make([]FormattedCondition, 0, len(conditions))
	for _, f := range conditions {
		if f.Status == StatusActive {
			out = append(out, f)
		}
	}
	return out
}

func (h *Handler) load(ctx context.Context, patientID string) ([]FormattedCondition, error) {
	raw, err := h.svc.GetConditions(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return h.svc.Format(raw), nil
}

func tableDefinition() table.Definition[FormattedCondition] {
	return table.Definition[FormattedCondition]{
		Title:     "Conditions",
		AriaLabel: "Patient conditions",
		Columns: []table.Column{
			{Key: "display", Header: "Condition"},
			{Key: "status", Header: "Status"},
			{Key: "onsetDate", Header: "Onset Date"},
			{Key: "recorder", Header: "Provider"},
			{Key: "recordedDate", Header: "Recorded Date"},
		},
		Sortable: []table.SortableColumn{
			{Key: "display", Sortable: true},
			{Key: "status", Sortable: true},
			{Key: "onsetDate", Sortable: true},
			{Key: "recorder", Sortable: true},
			{Key: "recordedDate", Sortable: true},
		},
		EmptyStateMessage: "No conditions found",
		RowID:             func(f FormattedCondition) string { return f.ID },
		RenderCell:        renderCell,
		RenderExpanded:    renderExpanded,
	}
}

func renderCell(f FormattedCondition, key string) string {
	switch key {
	case "display":
		if f.Display != "" {
			return f.Display
		}
		return f.CodeDisplay
	case "status":
		return string(f.Status)
	case "onsetDate":
		if formatted := dateutil.FormatDateTime(f.OnsetDate).FormattedResult; formatted != "" {
			return formatted
		}
		return notAvailable
	case "recorder":
		if f.Recorder == nil || *f.Recorder == "" {
			return notAvailable
		}
		return *f.Recorder
	case "recordedDate":
		if formatted := dateutil.FormatDateTime(f.RecordedDate).FormattedResult; formatted != "" {
			return formatted
		}
		return notAvailable
	}
	return ""
}

func renderExpanded(f FormattedCondition) *string {
	if len(f.Note) == 0 {
		return nil
	}
	joined := strings.Join(f.Note, ", ")
	return &joined
}
