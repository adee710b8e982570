package allergy

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

// Service fetches AllergyIntolerance resources for a patient and flattens
// them for display.
type Service struct {
	client   *fhirclient.Client
	notifier *notify.Channel
	logger   zerolog.Logger
}

// NewService creates a new allergy service.
func NewService(client *fhirclient.Client, notifier *notify.Channel, logger zerolog.Logger) *Service {
	return &Service{client: client, notifier: notifier, logger: logger}
}

// GetAllergies fetches the patient's allergies. Upstream failures are
// swallowed here: the client has already raised a notification, and the
// caller gets an empty slice so the table renders its empty state. A 401
// is the exception; it propagates so the handler can redirect to login.
func (s *Service) GetAllergies(ctx context.Context, patientID string) ([]fhir.AllergyIntolerance, error) {
	path := "/AllergyIntolerance?patient=" + url.QueryEscape(patientID)
	bundle, err := s.client.SearchBundle(ctx, path)
	if err != nil {
		var ue *fhirclient.UnauthorizedError
		if errors.As(err, &ue) {
			return nil, err
		}
		s.logger.Warn().Err(err).Str("patient_id", patientID).Msg("allergy fetch failed")
		return []fhir.AllergyIntolerance{}, nil
	}

	out := make([]fhir.AllergyIntolerance, 0, len(bundle.Entry))
	for _, raw := range bundle.Resources() {
		var a fhir.AllergyIntolerance
		if err := json.Unmarshal(raw, &a); err != nil {
			d := errfmt.Normalize(err)
			s.notifier.ShowError(d.Title, d.Message, 0)
			return []fhir.AllergyIntolerance{}, nil
		}
		out = append(out, a)
	}
	return out, nil
}

// Format flattens allergies for display. The whole batch is all-or-nothing:
// the first malformed element raises a notification and yields an empty
// slice, never partial results.
func (s *Service) Format(allergies []fhir.AllergyIntolerance) []FormattedAllergy {
	out := make([]FormattedAllergy, 0, len(allergies))
	for _, a := range allergies {
		f, err := formatOne(a)
		if err != nil {
			d := errfmt.Normalize(err)
			s.notifier.ShowError(d.Title, d.Message, 0)
			return []FormattedAllergy{}
		}
		out = append(out, f)
	}
	return out
}

func formatOne(a fhir.AllergyIntolerance) (FormattedAllergy, error) {
	if a.ClinicalStatus == nil {
		return FormattedAllergy{}, fmt.Errorf("allergy %s has no clinical status", a.ID)
	}
	if a.Code == nil {
		return FormattedAllergy{}, fmt.Errorf("allergy %s has no code", a.ID)
	}

	status := "Unknown"
	if len(a.ClinicalStatus.Coding) > 0 && a.ClinicalStatus.Coding[0].Display != "" {
		status = a.ClinicalStatus.Coding[0].Display
	}

	severity := "Unknown"
	if len(a.Reaction) > 0 && a.Reaction[0].Severity != "" {
		severity = a.Reaction[0].Severity
	}

	f := FormattedAllergy{
		ID:           a.ID,
		Display:      a.Code.Text,
		Category:     a.Category,
		Criticality:  a.Criticality,
		Status:       status,
		RecordedDate: a.RecordedDate,
		Severity:     severity,
	}
	if a.Recorder != nil && a.Recorder.Display != "" {
		recorder := a.Recorder.Display
		f.Recorder = &recorder
	}

	for _, r := range a.Reaction {
		reaction := Reaction{Severity: r.Severity}
		for _, m := range r.Manifestation {
			if len(m.Coding) == 0 {
				return FormattedAllergy{}, fmt.Errorf("allergy %s reaction manifestation has no coding", a.ID)
			}
			reaction.Manifestation = append(reaction.Manifestation, m.Coding[0].Display)
		}
		f.Reactions = append(f.Reactions, reaction)
	}

	for _, n := range a.Note {
		f.Note = append(f.Note, n.Text)
	}
	return f, nil
}
