package medication

// DosageAmount is a dose value/unit pair.
type DosageAmount struct {
	Value *float64 `json:"value,omitempty"`
	Unit  string   `json:"unit,omitempty"`
}

// FormattedMedication is the display-ready projection of a FHIR
// MedicationRequest. Display resolves through an ordered preference (coded
// text, first coding display, referenced-medication display) and falls back
// to "Unknown Medication".
type FormattedMedication struct {
	ID                         string        `json:"id"`
	Display                    string        `json:"display"`
	Status                     string        `json:"status"`
	Dosage                     *DosageAmount `json:"dosage,omitempty"`
	Route                      string        `json:"route,omitempty"`
	Frequency                  string        `json:"frequency,omitempty"`
	Duration                   string        `json:"duration,omitempty"`
	PrescribedDate             string        `json:"prescribedDate,omitempty"`
	Provider                   *string       `json:"provider,omitempty"`
	Reason                     string        `json:"reason,omitempty"`
	Notes                      []string      `json:"notes,omitempty"`
	AdministrationInstructions string        `json:"administrationInstructions,omitempty"`
}

// UnknownMedication is the display fallback when a request names its
// medication neither by concept nor by reference.
const UnknownMedication = "Unknown Medication"
