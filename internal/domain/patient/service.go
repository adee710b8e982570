package patient

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ehr/chart/internal/platform/dateutil"
	"github.com/ehr/chart/internal/platform/fhirclient"
	"github.com/ehr/chart/internal/platform/notify"
	"github.com/ehr/chart/pkg/fhir"
)

// Service fetches and formats Patient resources.
type Service struct {
	client   *fhirclient.Client
	notifier *notify.Channel
	logger   zerolog.Logger
}

// NewService creates a new patient service.
func NewService(client *fhirclient.Client, notifier *notify.Channel, logger zerolog.Logger) *Service {
	return &Service{client: client, notifier: notifier, logger: logger}
}

// GetPatient fetches one patient by id. Failures propagate; the client has
// already raised a notification for anything but a 401.
func (s *Service) GetPatient(ctx context.Context, patientID string) (*fhir.Patient, error) {
	var p fhir.Patient
	if err := s.client.Get(ctx, "/Patient/"+url.PathEscape(patientID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Format projects a patient for display. Each field tolerates missing
// substructure independently.
func Format(p *fhir.Patient) FormattedPatientData {
	f := FormattedPatientData{
		ID:          p.ID,
		FullName:    FormatName(p),
		Identifiers: identifierMap(p.Identifier),
	}
	if p.Gender != "" {
		gender := p.Gender
		f.Gender = &gender
	}
	if p.BirthDate != "" {
		birthDate := p.BirthDate
		f.BirthDate = &birthDate
		f.Age = dateutil.CalculateAge(p.BirthDate)
	}
	if len(p.Address) > 0 {
		f.FormattedAddress = FormatAddress(&p.Address[0])
	}
	if len(p.Telecom) > 0 {
		f.FormattedContact = FormatContact(&p.Telecom[0])
	}
	return f
}

// FormatName joins the first name's given parts and family name, or
// returns nil when neither is present.
func FormatName(p *fhir.Patient) *string {
	if len(p.Name) == 0 {
		return nil
	}
	name := p.Name[0]
	given := strings.Join(name.Given, " ")
	if given == "" && name.Family == "" {
		return nil
	}
	full := strings.TrimSpace(given + " " + name.Family)
	return &full
}

// FormatAddress renders one address as a comma-joined line: address lines,
// nested extension values, city, then "state postalCode".
func FormatAddress(addr *fhir.Address) *string {
	if addr == nil {
		return nil
	}

	parts := make([]string, 0, len(addr.Line)+4)
	for _, line := range addr.Line {
		if line != "" {
			parts = append(parts, line)
		}
	}
	parts = append(parts, addressExtensions(addr)...)

	if addr.City != "" {
		parts = append(parts, addr.City)
	}
	switch {
	case addr.State != "" && addr.PostalCode != "":
		parts = append(parts, addr.State+" "+addr.PostalCode)
	case addr.State != "":
		parts = append(parts, addr.State)
	case addr.PostalCode != "":
		parts = append(parts, addr.PostalCode)
	}

	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, ", ")
	return &joined
}

// addressExtensions collects valueString leaves one level below the
// address's extension entries.
func addressExtensions(addr *fhir.Address) []string {
	var out []string
	for _, ext := range addr.Extension {
		for _, nested := range ext.Extension {
			if nested.ValueString != "" {
				out = append(out, nested.ValueString)
			}
		}
	}
	return out
}

// FormatContact renders one telecom entry as "system: value", or nil when
// either part is missing.
func FormatContact(t *fhir.ContactPoint) *string {
	if t == nil || t.System == "" || t.Value == "" {
		return nil
	}
	formatted := fmt.Sprintf("%s: %s", t.System, t.Value)
	return &formatted
}

// identifierMap keys identifier values by their type text; entries missing
// either part are skipped.
func identifierMap(identifiers []fhir.Identifier) map[string]string {
	out := map[string]string{}
	for _, id := range identifiers {
		if id.Type == nil || id.Type.Text == "" || id.Value == "" {
			continue
		}
		out[id.Type.Text] = id.Value
	}
	return out
}

// Summarize builds the single-line header rendering of a formatted
// patient.
func Summarize(f FormattedPatientData) Summary {
	s := Summary{FullName: f.FullName}

	if len(f.Identifiers) > 0 {
		parts := make([]string, 0, len(f.Identifiers))
		for _, key := range sortedKeys(f.Identifiers) {
			parts = append(parts, key+": "+f.Identifiers[key])
		}
		s.Identifiers = strings.Join(parts, " | ")
	}

	var details []string
	if f.Gender != nil {
		details = append(details, *f.Gender)
	}
	if f.Age != nil {
		details = append(details, fmt.Sprintf("%d Years, %d Months, %d Days", f.Age.Years, f.Age.Months, f.Age.Days))
	}
	if f.BirthDate != nil {
		details = append(details, *f.BirthDate)
	}
	s.Details = strings.Join(details, " | ")

	var contact []string
	if f.FormattedAddress != nil {
		contact = append(contact, *f.FormattedAddress)
	}
	if f.FormattedContact != nil {
		contact = append(contact, *f.FormattedContact)
	}
	s.Contact = strings.Join(contact, " | ")

	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
