package allergy

// Reaction is one allergy reaction flattened for display: the display text
// of each manifestation plus the reaction's severity.
type Reaction struct {
	Manifestation []string `json:"manifestation"`
	Severity      string   `json:"severity,omitempty"`
}

// FormattedAllergy is the display-ready projection of a FHIR
// AllergyIntolerance. Status is never empty; it falls back to "Unknown"
// when the clinical-status coding carries no display text. Severity mirrors
// the first reaction's severity, or "Unknown" when there are no reactions.
type FormattedAllergy struct {
	ID           string     `json:"id"`
	Display      string     `json:"display"`
	Category     []string   `json:"category,omitempty"`
	Criticality  string     `json:"criticality,omitempty"`
	Status       string     `json:"status"`
	RecordedDate string     `json:"recordedDate,omitempty"`
	Recorder     *string    `json:"recorder,omitempty"`
	Reactions    []Reaction `json:"reactions,omitempty"`
	Severity     string     `json:"severity"`
	Note         []string   `json:"note,omitempty"`
}

// SevereRowClass is applied to every cell of a severe allergy's row.
const SevereRowClass = "criticalCell"
