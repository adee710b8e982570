package condition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/ehr/chart/internal/platform/errfmt"
	"github.com/ehr/chart/internal/platform/fhirclient"
	"github.com/ehr/chart/internal/platform/notify"
	"github.com/ehr/chart/pkg/fhir"
)

// Service fetches Condition resources for a patient and flattens them for
// display.
type Service struct {
	client   *fhirclient.Client
	notifier *notify.Channel
	logger   zerolog.Logger
}

// NewService creates a new condition service.
func NewService(client *fhirclient.Client, notifier *notify.Channel, logger zerolog.Logger) *Service {
	return &Service{client: client, notifier: notifier, logger: logger}
}

// GetConditions fetches the patient's conditions. Upstream failures are
// swallowed: the client has already notified, and the caller gets an empty
// slice. A 401 propagates so the handler can redirect to login.
func (s *Service) GetConditions(ctx context.Context, patientID string) ([]fhir.Condition, error) {
	path := "/Condition?patient=" + url.QueryEscape(patientID)
	bundle, err := s.client.SearchBundle(ctx, path)
	if err != nil {
		var ue *fhirclient.UnauthorizedError
		if errors.As(err, &ue) {
			return nil, err
		}
		s.logger.Warn().Err(err).Str("patient_id", patientID).Msg("condition fetch failed")
		return []fhir.Condition{}, nil
	}

	out := make([]fhir.Condition, 0, len(bundle.Entry))
	for _, raw := range bundle.Resources() {
		var c fhir.Condition
		if err := json.Unmarshal(raw, &c); err != nil {
			d := errfmt.Normalize(err)
			s.notifier.ShowError(d.Title, d.Message, 0)
			return []fhir.Condition{}, nil
		}
		out = append(out, c)
	}
	return out, nil
}

// Format flattens conditions for display. The batch is all-or-nothing: a
// condition whose code carries no coding entry raises a notification and
// discards the whole batch.
func (s *Service) Format(conditions []fhir.Condition) []FormattedCondition {
	out := make([]FormattedCondition, 0, len(conditions))
	for _, c := range conditions {
		f, err := formatOne(c)
		if err != nil {
			d := errfmt.Normalize(err)
			s.notifier.ShowError(d.Title, d.Message, 0)
			return []FormattedCondition{}
		}
		out = append(out, f)
	}
	return out
}

func formatOne(c fhir.Condition) (FormattedCondition, error) {
	if c.Code == nil || len(c.Code.Coding) == 0 {
		return FormattedCondition{}, fmt.Errorf("condition %s has no code coding", c.ID)
	}
	coding := c.Code.Coding[0]

	f := FormattedCondition{
		ID:           c.ID,
		Display:      c.Code.Text,
		Status:       mapStatus(c),
		OnsetDate:    c.OnsetDateTime,
		RecordedDate: c.RecordedDate,
		Code:         coding.Code,
		CodeDisplay:  coding.Display,
	}
	if c.Recorder != nil && c.Recorder.Display != "" {
		recorder := c.Recorder.Display
		f.Recorder = &recorder
	}
	for _, n := range c.Note {
		f.Note = append(f.Note, n.Text)
	}
	return f, nil
}

// mapStatus collapses the FHIR clinical-status code space: "active" is
// Active, everything else (including a missing status) is Inactive.
func mapStatus(c fhir.Condition) Status {
	if c.ClinicalStatus == nil || len(c.ClinicalStatus.Coding) == 0 {
		return StatusInactive
	}
	switch c.ClinicalStatus.Coding[0].Code {
	case fhir.ConditionActive:
		return StatusActive
	default:
		return StatusInactive
	}
}
