package patient

import "github.com/ehr/chart/internal/platform/dateutil"

// FormattedPatientData is the display-ready projection of a FHIR Patient.
// Unlike the batch formatters, every field is independently nil-safe:
// missing substructure yields a nil field, never a failure of the whole
// record.
type FormattedPatientData struct {
	ID               string            `json:"id"`
	FullName         *string           `json:"fullName"`
	Gender           *string           `json:"gender"`
	BirthDate        *string           `json:"birthDate"`
	FormattedAddress *string           `json:"formattedAddress"`
	FormattedContact *string           `json:"formattedContact"`
	Identifiers      map[string]string `json:"identifiers"`
	Age              *dateutil.Age     `json:"age"`
}

// Summary is the single-line rendering of a patient header panel: each
// line joins its non-empty parts with " | ".
type Summary struct {
	FullName    *string `json:"fullName"`
	Identifiers string  `json:"identifiers,omitempty"`
	Details     string  `json:"details,omitempty"`
	Contact     string  `json:"contact,omitempty"`
}
