package medication

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/chart/internal/platform/errfmt"
	"github.com/ehr/chart/internal/platform/fhirclient"
	"github.com/ehr/chart/internal/platform/notify"
	"github.com/ehr/chart/pkg/fhir"
)

// Service fetches MedicationRequest resources for a patient and flattens
// them for display.
type Service struct {
	client   *fhirclient.Client
	notifier *notify.Channel
	logger   zerolog.Logger
}

// NewService creates a new medication service.
func NewService(client *fhirclient.Client, notifier *notify.Channel, logger zerolog.Logger) *Service {
	return &Service{client: client, notifier: notifier, logger: logger}
}

// GetMedicationRequests fetches the patient's medication requests. Unlike
// the allergy and condition services, failures propagate to the caller, so
// the treatments table renders an error state instead of an empty one. The
// search includes the referenced Medication resources; entries of other
// types are filtered out here.
func (s *Service) GetMedicationRequests(ctx context.Context, patientID string) ([]fhir.MedicationRequest, error) {
	path := "/MedicationRequest?patient=" + url.QueryEscape(patientID) + "&_include=MedicationRequest:medication"
	bundle, err := s.client.SearchBundle(ctx, path)
	if err != nil {
		return nil, err
	}

	out := make([]fhir.MedicationRequest, 0, len(bundle.Entry))
	for _, raw := range bundle.Resources() {
		if fhir.ResourceType(raw) != fhir.TypeMedicationRequest {
			continue
		}
		var mr fhir.MedicationRequest
		if err := json.Unmarshal(raw, &mr); err != nil {
			wrapped := fmt.Errorf("decode medication request: %w", err)
			d := errfmt.Normalize(wrapped)
			s.notifier.ShowError(d.Title, d.Message, 0)
			return nil, wrapped
		}
		out = append(out, mr)
	}
	return out, nil
}

// Format flattens medication requests for display. A request missing its
// id or status is invalid and poisons the whole batch: a notification is
// raised and an empty slice returned.
func (s *Service) Format(requests []fhir.MedicationRequest) []FormattedMedication {
	out := make([]FormattedMedication, 0, len(requests))
	for _, r := range requests {
		f, err := formatOne(r)
		if err != nil {
			d := errfmt.Normalize(err)
			s.notifier.ShowError(d.Title, d.Message, 0)
			return []FormattedMedication{}
		}
		out = append(out, f)
	}
	return out
}

func formatOne(r fhir.MedicationRequest) (FormattedMedication, error) {
	if r.ID == "" || r.Status == "" {
		return FormattedMedication{}, fmt.Errorf("invalid medication request format")
	}

	f := FormattedMedication{
		ID:             r.ID,
		Display:        medicationName(r),
		Status:         r.Status,
		Frequency:      frequencyString(r.DosageInstruction),
		Duration:       durationString(r),
		PrescribedDate: r.AuthoredOn,
	}

	if len(r.DosageInstruction) > 0 {
		dosage := r.DosageInstruction[0]
		f.AdministrationInstructions = dosage.Text
		if dosage.Route != nil {
			f.Route = dosage.Route.Text
		}
		if len(dosage.DoseAndRate) > 0 && dosage.DoseAndRate[0].DoseQuantity != nil {
			q := dosage.DoseAndRate[0].DoseQuantity
			f.Dosage = &DosageAmount{Value: q.Value, Unit: q.Unit}
		}
	}

	if r.Requester != nil && r.Requester.Display != "" {
		provider := r.Requester.Display
		f.Provider = &provider
	}
	if len(r.ReasonCode) > 0 {
		f.Reason = r.ReasonCode[0].Text
	}
	for _, n := range r.Note {
		f.Notes = append(f.Notes, n.Text)
	}
	return f, nil
}

// medicationName resolves the display name: coded text, then first coding
// display, then the referenced medication's display.
func medicationName(r fhir.MedicationRequest) string {
	if c := r.MedicationCodeableConcept; c != nil {
		if c.Text != "" {
			return c.Text
		}
		if len(c.Coding) > 0 && c.Coding[0].Display != "" {
			return c.Coding[0].Display
		}
	}
	if r.MedicationReference != nil && r.MedicationReference.Display != "" {
		return r.MedicationReference.Display
	}
	return UnknownMedication
}

// frequencyString renders "{n} time(s) per {period} {unit}" from the first
// dosage instruction's timing repeat, or "" when any component is missing.
func frequencyString(instructions []fhir.Dosage) string {
	if len(instructions) == 0 || instructions[0].Timing == nil || instructions[0].Timing.Repeat == nil {
		return ""
	}
	repeat := instructions[0].Timing.Repeat
	if repeat.Frequency == 0 || repeat.Period == 0 || repeat.PeriodUnit == "" {
		return ""
	}
	return fmt.Sprintf("%d time(s) per %g %s", repeat.Frequency, repeat.Period, strings.ToLower(repeat.PeriodUnit))
}

// durationString renders "{n} day(s)" from the dispense validity period,
// rounding partial days up, or "" when either bound is missing or
// unparsable.
func durationString(r fhir.MedicationRequest) string {
	if r.DispenseRequest == nil || r.DispenseRequest.ValidityPeriod == nil {
		return ""
	}
	period := r.DispenseRequest.ValidityPeriod
	if period.Start == "" || period.End == "" {
		return ""
	}
	start, err := parseInstant(period.Start)
	if err != nil {
		return ""
	}
	end, err := parseInstant(period.End)
	if err != nil {
		return ""
	}
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	return fmt.Sprintf("%d day(s)", days)
}

func parseInstant(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable instant %q", s)
}
