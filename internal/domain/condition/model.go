package condition

// Status is the display status of a condition.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// FormattedCondition is the display-ready projection of a FHIR Condition.
// Status collapses the FHIR clinical-status code space to Active/Inactive:
// anything other than "active" renders Inactive.
type FormattedCondition struct {
	ID           string   `json:"id"`
	Display      string   `json:"display"`
	Status       Status   `json:"status"`
	OnsetDate    string   `json:"onsetDate,omitempty"`
	RecordedDate string   `json:"recordedDate,omitempty"`
	Recorder     *string  `json:"recorder,omitempty"`
	Code         string   `json:"code,omitempty"`
	CodeDisplay  string   `json:"codeDisplay,omitempty"`
	Note         []string `json:"note,omitempty"`
}
