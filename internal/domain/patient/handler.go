package patient

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/chart/internal/platform/errfmt"
	"github.com/ehr/chart/internal/platform/fetch"
	"github.com/ehr/chart/internal/platform/fhirclient"
	"github.com/ehr/chart/internal/platform/notify"
)

// Handler serves the patient header panel.
type Handler struct {
	svc      *Service
	notifier *notify.Channel
	logger   zerolog.Logger
}

// NewHandler creates a new patient handler.
func NewHandler(svc *Service, notifier *notify.Channel, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, notifier: notifier, logger: logger}
}

// RegisterRoutes registers the patient routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:patientId", h.GetPatient)
}

// Response is the patient endpoint payload: the display projection plus
// its header summary lines.
type Response struct {
	Patient FormattedPatientData `json:"patient"`
	Summary Summary              `json:"summary"`
}

// GetPatient returns the formatted patient and its summary. Unlike the
// tabular views there is no degraded rendering here: fetch failures
// surface as error responses.
func (h *Handler) GetPatient(c echo.Context) error {
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
		return c.JSON(http.StatusBadGateway, errfmt.Normalize(snap.Err))
	}

	return c.JSON(http.StatusOK, snap.Data)
}

func (h *Handler) load(ctx context.Context, patientID string) (Response, error) {
	p, err := h.svc.GetPatient(ctx, patientID)
	if err != nil {
		return Response{}, err
	}
	formatted := Format(p)
	return Response{Patient: formatted, Summary: Summarize(formatted)}, nil
}
