package allergy

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

// Handler serves the patient allergies table.
type Handler struct {
	svc      *Service
	notifier *notify.Channel
	logger   zerolog.Logger
	tableDef table.Definition[FormattedAllergy]
}

// NewHandler creates a new allergy handler.
func NewHandler(svc *Service, notifier *notify.Channel, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		notifier: notifier,
		logger:   logger,
		tableDef: tableDefinition(),
	}
}

// RegisterRoutes registers the allergy routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:patientId/allergies", h.GetAllergies)
}

// GetAllergies renders the allergies table for one patient. The optional
// ?sort= query parameter names a sortable column to order by.
func (h *Handler) GetAllergies(c echo.Context) error {
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

	doc := h.tableDef.Render(snap.Data, table.Options{
		Err:        snap.Err,
		SortBy:     c.QueryParam("sort"),
		RowClasses: severeRowClasses(snap.Data),
	})
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) load(ctx context.Context, patientID string) ([]FormattedAllergy, error) {
	raw, err := h.svc.GetAllergies(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return h.svc.Format(raw), nil
}

// severeRowClasses highlights rows whose allergy severity is severe.
func severeRowClasses(allergies []FormattedAllergy) map[string]string {
	classes := map[string]string{}
	for _, a := range allergies {
		if a.ID != "" && a.Severity == "severe" {
			classes[a.ID] = SevereRowClass
		}
	}
	return classes
}

func tableDefinition() table.Definition[FormattedAllergy] {
	return table.Definition[FormattedAllergy]{
		Title:     "Allergies",
		AriaLabel: "Patient allergies",
		Columns: []table.Column{
			{Key: "display", Header: "Allergy"},
			{Key: "severity", Header: "Severity"},
			{Key: "manifestation", Header: "Reaction(s)"},
			{Key: "status", Header: "Status"},
			{Key: "recorder", Header: "Provider"},
			{Key: "recordedDate", Header: "Recorded Date"},
		},
		Sortable: []table.SortableColumn{
			{Key: "display", Sortable: true},
			{Key: "severity", Sortable: true},
			{Key: "manifestation", Sortable: false},
			{Key: "status", Sortable: true},
			{Key: "recorder", Sortable: true},
			{Key: "recordedDate", Sortable: true},
		},
		EmptyStateMessage: "No allergies found",
		RowID:             func(a FormattedAllergy) string { return a.ID },
		RenderCell:        renderCell,
		RenderExpanded:    renderExpanded,
	}
}

func renderCell(a FormattedAllergy, key string) string {
	switch key {
	case "display":
		return a.Display
	case "status":
		return a.Status
	case "manifestation":
		if a.Reactions == nil {
			return notAvailable
		}
		parts := make([]string, 0, len(a.Reactions))
		for _, r := range a.Reactions {
			parts = append(parts, strings.Join(r.Manifestation, ", "))
		}
		return strings.Join(parts, ", ")
	case "severity":
		severity := a.Severity
		if severity == "" {
			severity = "Unknown"
		}
		return capitalize(severity)
	case "recorder":
		if a.Recorder == nil || *a.Recorder == "" {
			return notAvailable
		}
		return *a.Recorder
	case "recordedDate":
		if formatted := dateutil.FormatDateTime(a.RecordedDate).FormattedResult; formatted != "" {
			return formatted
		}
		return notAvailable
	}
	return ""
}

// renderExpanded shows the allergy's notes; rows without notes have no
// expand affordance.
func renderExpanded(a FormattedAllergy) *string {
	if len(a.Note) == 0 {
		return nil
	}
	joined := strings.Join(a.Note, ", ")
	return &joined
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
