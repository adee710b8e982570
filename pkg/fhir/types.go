// Package fhir holds the FHIR R4 value shapes this service reads from an
// upstream FHIR server. Only the fields the display layer consumes are
// modeled; unknown fields are ignored on decode and resources are passed
// through without shape validation.
package fhir

import "encoding/json"

// Coding is a single code/display pair from a terminology system.
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// CodeableConcept is a coded value with an optional free-text representation.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Reference points at another resource.
type Reference struct {
	Reference string `json:"reference,omitempty"`
	Type      string `json:"type,omitempty"`
	Display   string `json:"display,omitempty"`
}

// Annotation is a free-text note attached to a resource.
type Annotation struct {
	Text string `json:"text"`
}

// Quantity is a measured amount.
type Quantity struct {
	Value *float64 `json:"value,omitempty"`
	Unit  string   `json:"unit,omitempty"`
}

// Period is a start/end time range. Values stay as the upstream's ISO strings.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Identifier is a business identifier such as a patient ID or ABHA number.
type Identifier struct {
	Type   *CodeableConcept `json:"type,omitempty"`
	System string           `json:"system,omitempty"`
	Value  string           `json:"value,omitempty"`
}

// HumanName is a name with given/family parts.
type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

// Extension is a nested extension tree; address extensions carry their
// payload in valueString on the leaves.
type Extension struct {
	URL         string      `json:"url,omitempty"`
	ValueString string      `json:"valueString,omitempty"`
	Extension   []Extension `json:"extension,omitempty"`
}

// Address is a postal address.
type Address struct {
	Use        string      `json:"use,omitempty"`
	Line       []string    `json:"line,omitempty"`
	City       string      `json:"city,omitempty"`
	State      string      `json:"state,omitempty"`
	PostalCode string      `json:"postalCode,omitempty"`
	Country    string      `json:"country,omitempty"`
	Extension  []Extension `json:"extension,omitempty"`
}

// ContactPoint is a telecom entry (phone, email, ...).
type ContactPoint struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
	Use    string `json:"use,omitempty"`
}

// Meta carries versioning metadata.
type Meta struct {
	VersionID   string `json:"versionId,omitempty"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

// Bundle is a FHIR search-result envelope. Entry resources stay raw so that
// mixed-type bundles (e.g. MedicationRequest + included Medication) can be
// split by the caller.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Meta         *Meta         `json:"meta,omitempty"`
	Type         string        `json:"type,omitempty"`
	Total        int           `json:"total,omitempty"`
	Link         []BundleLink  `json:"link,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

// BundleLink is a paging/self link on a bundle.
type BundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

// BundleEntry wraps a single resource in a bundle.
type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
}

// Resources returns the raw resources of the bundle's entries. A bundle with
// no entry field yields an empty slice, never nil dereferences.
func (b *Bundle) Resources() []json.RawMessage {
	if b == nil || b.Entry == nil {
		return []json.RawMessage{}
	}
	out := make([]json.RawMessage, 0, len(b.Entry))
	for _, e := range b.Entry {
		out = append(out, e.Resource)
	}
	return out
}

// resourceTypeProbe decodes just enough of a resource to learn its type.
type resourceTypeProbe struct {
	ResourceType string `json:"resourceType"`
}

// ResourceType reports the resourceType of a raw resource, or "" if it cannot
// be decoded.
func ResourceType(raw json.RawMessage) string {
	var p resourceTypeProbe
	if err := json.Unmarshal(raw, &p); err != nil {
		return ""
	}
	return p.ResourceType
}

// AllergyIntolerance is the subset of the FHIR AllergyIntolerance resource
// consumed by the allergies display.
type AllergyIntolerance struct {
	ResourceType   string            `json:"resourceType"`
	ID             string            `json:"id"`
	Meta           *Meta             `json:"meta,omitempty"`
	ClinicalStatus *CodeableConcept  `json:"clinicalStatus,omitempty"`
	Category       []string          `json:"category,omitempty"`
	Criticality    string            `json:"criticality,omitempty"`
	Code           *CodeableConcept  `json:"code,omitempty"`
	Patient        *Reference        `json:"patient,omitempty"`
	RecordedDate   string            `json:"recordedDate,omitempty"`
	Recorder       *Reference        `json:"recorder,omitempty"`
	Reaction       []AllergyReaction `json:"reaction,omitempty"`
	Note           []Annotation      `json:"note,omitempty"`
}

// AllergyReaction is one adverse reaction event on an allergy.
type AllergyReaction struct {
	Substance     *CodeableConcept  `json:"substance,omitempty"`
	Manifestation []CodeableConcept `json:"manifestation,omitempty"`
	Severity      string            `json:"severity,omitempty"`
}

// Condition is the subset of the FHIR Condition resource consumed by the
// conditions display.
type Condition struct {
	ResourceType   string           `json:"resourceType"`
	ID             string           `json:"id"`
	Meta           *Meta            `json:"meta,omitempty"`
	ClinicalStatus *CodeableConcept `json:"clinicalStatus,omitempty"`
	Code           *CodeableConcept `json:"code,omitempty"`
	Subject        *Reference       `json:"subject,omitempty"`
	OnsetDateTime  string           `json:"onsetDateTime,omitempty"`
	RecordedDate   string           `json:"recordedDate,omitempty"`
	Recorder       *Reference       `json:"recorder,omitempty"`
	Note           []Annotation     `json:"note,omitempty"`
}

// TimingRepeat is the frequency/period part of a dosage timing.
type TimingRepeat struct {
	Frequency  int     `json:"frequency,omitempty"`
	Period     float64 `json:"period,omitempty"`
	PeriodUnit string  `json:"periodUnit,omitempty"`
}

// Timing is a dosage schedule.
type Timing struct {
	Repeat *TimingRepeat `json:"repeat,omitempty"`
}

// DoseAndRate carries a single dose quantity.
type DoseAndRate struct {
	DoseQuantity *Quantity `json:"doseQuantity,omitempty"`
}

// Dosage is a medication request's embedded dosage instruction.
type Dosage struct {
	Sequence    int              `json:"sequence,omitempty"`
	Text        string           `json:"text,omitempty"`
	Timing      *Timing          `json:"timing,omitempty"`
	Route       *CodeableConcept `json:"route,omitempty"`
	DoseAndRate []DoseAndRate    `json:"doseAndRate,omitempty"`
}

// DispenseRequest is the dispense window of a medication request.
type DispenseRequest struct {
	ValidityPeriod *Period   `json:"validityPeriod,omitempty"`
	Quantity       *Quantity `json:"quantity,omitempty"`
}

// MedicationRequest is the subset of the FHIR MedicationRequest resource
// consumed by the treatments display.
type MedicationRequest struct {
	ResourceType              string            `json:"resourceType"`
	ID                        string            `json:"id"`
	Meta                      *Meta             `json:"meta,omitempty"`
	Status                    string            `json:"status,omitempty"`
	Intent                    string            `json:"intent,omitempty"`
	MedicationCodeableConcept *CodeableConcept  `json:"medicationCodeableConcept,omitempty"`
	MedicationReference       *Reference        `json:"medicationReference,omitempty"`
	Subject                   *Reference        `json:"subject,omitempty"`
	AuthoredOn                string            `json:"authoredOn,omitempty"`
	Requester                 *Reference        `json:"requester,omitempty"`
	ReasonCode                []CodeableConcept `json:"reasonCode,omitempty"`
	Note                      []Annotation      `json:"note,omitempty"`
	DosageInstruction         []Dosage          `json:"dosageInstruction,omitempty"`
	DispenseRequest           *DispenseRequest  `json:"dispenseRequest,omitempty"`
}

// Patient is the subset of the FHIR Patient resource consumed by the patient
// summary panel.
type Patient struct {
	ResourceType string         `json:"resourceType"`
	ID           string         `json:"id,omitempty"`
	Meta         *Meta          `json:"meta,omitempty"`
	Identifier   []Identifier   `json:"identifier,omitempty"`
	Name         []HumanName    `json:"name,omitempty"`
	Gender       string         `json:"gender,omitempty"`
	BirthDate    string         `json:"birthDate,omitempty"`
	Address      []Address      `json:"address,omitempty"`
	Telecom      []ContactPoint `json:"telecom,omitempty"`
}

// OperationOutcome is the error payload a FHIR server returns on failure.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue,omitempty"`
}

// OperationOutcomeIssue is a single issue on an OperationOutcome.
type OperationOutcomeIssue struct {
	Severity    string `json:"severity,omitempty"`
	Code        string `json:"code,omitempty"`
	Diagnostics string `json:"diagnostics,omitempty"`
}
