package medication

import (
	"context"
	"errors"
	"fmt"
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

const notSpecified = "Not specified"

// Handler serves the patient treatments table.
type Handler struct {
	svc      *Service
	notifier *notify.Channel
	logger   zerolog.Logger
	tableDef table.Definition[FormattedMedication]
}

// NewHandler creates a new medication handler.
func NewHandler(svc *Service, notifier *notify.Channel, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		notifier: notifier,
		logger:   logger,
		tableDef: tableDefinition(),
	}
}

// RegisterRoutes registers the treatment routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:patientId/treatments", h.GetTreatments)
}

// GetTreatments renders the treatments table for one patient. Fetch
// failures surface as the table's error state.
func (h *Handler) GetTreatments(c echo.Context) error {
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

	doc := h.tableDef.Render(snap.Data, table.Options{Err: snap.Err})
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) load(ctx context.Context, patientID string) ([]FormattedMedication, error) {
	raw, err := h.svc.GetMedicationRequests(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return h.svc.Format(raw), nil
}

// tableDefinition carries no sortable column list: the treatments view
// renders in upstream order.
func tableDefinition() table.Definition[FormattedMedication] {
	return table.Definition[FormattedMedication]{
		Title:     "Treatments",
		AriaLabel: "Patient treatments",
		Columns: []table.Column{
			{Key: "display", Header: "Medication"},
			{Key: "status", Header: "Status"},
			{Key: "dosage", Header: "Dosage"},
			{Key: "route", Header: "Route"},
			{Key: "frequency", Header: "Frequency"},
			{Key: "duration", Header: "Duration"},
			{Key: "prescribedDate", Header: "Prescribed Date"},
			{Key: "provider", Header: "Provider"},
		},
		EmptyStateMessage: "No treatments found",
		RowID:             func(m FormattedMedication) string { return m.ID },
		RenderCell:        renderCell,
		RenderExpanded:    renderExpanded,
	}
}

func renderCell(m FormattedMedication, key string) string {
	switch key {
	case "display":
		return m.Display
	case "status":
		return m.Status
	case "dosage":
		if m.Dosage == nil || m.Dosage.Value == nil {
			return notSpecified
		}
		return fmt.Sprintf("%g %s", *m.Dosage.Value, m.Dosage.Unit)
	case "route":
		if m.Route == "" {
			return notSpecified
		}
		return m.Route
	case "frequency":
		if m.Frequency == "" {
			return notSpecified
		}
		return m.Frequency
	case "duration":
		if m.Duration == "" {
			return notSpecified
		}
		return m.Duration
	case "prescribedDate":
		if formatted := dateutil.FormatDateTime(m.PrescribedDate).FormattedResult; formatted != "" {
			return formatted
		}
		return notSpecified
	case "provider":
		if m.Provider == nil || *m.Provider == "" {
			return notSpecified
		}
		return *m.Provider
	}
	return ""
}

// renderExpanded shows reason, administration instructions and notes; a
// row with neither instructions nor notes has no expand affordance.
func renderExpanded(m FormattedMedication) *string {
	if len(m.Notes) == 0 && m.AdministrationInstructions == "" {
		return nil
	}

	var parts []string
	if m.Reason != "" {
		parts = append(parts, "Reason: "+m.Reason)
	}
	if m.AdministrationInstructions != "" {
		parts = append(parts, "Instructions: "+m.AdministrationInstructions)
	}
	if len(m.Notes) > 0 {
		parts = append(parts, "Notes: "+strings.Join(m.Notes, "; "))
	}
	joined := strings.Join(parts, "\n")
	return &joined
}
