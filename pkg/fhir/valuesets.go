package fhir

// Common FHIR value set constants used across the display layer.

// ResourceType names handled by this service.
const (
	TypePatient            = "Patient"
	TypeAllergyIntolerance = "AllergyIntolerance"
	TypeCondition          = "Condition"
	TypeMedicationRequest  = "MedicationRequest"
	TypeMedication         = "Medication"
	TypeBundle             = "Bundle"
	TypeOperationOutcome   = "OperationOutcome"
)

// ConditionClinicalStatus codes per FHIR R4.
const (
	ConditionActive     = "active"
	ConditionRecurrence = "recurrence"
	ConditionRelapse    = "relapse"
	ConditionInactive   = "inactive"
	ConditionRemission  = "remission"
	ConditionResolved   = "resolved"
)

// MedicationRequestStatus codes per FHIR R4.
const (
	MedicationStatusActive    = "active"
	MedicationStatusOnHold    = "on-hold"
	MedicationStatusCancelled = "cancelled"
	MedicationStatusCompleted = "completed"
	MedicationStatusStopped   = "stopped"
	MedicationStatusDraft     = "draft"
	MedicationStatusUnknown   = "unknown"
)

// AllergyIntolerance reaction severities per FHIR R4.
const (
	ReactionSeverityMild     = "mild"
	ReactionSeverityModerate = "moderate"
	ReactionSeveritySevere   = "severe"
)

// AdministrativeGender codes.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderOther   = "other"
	GenderUnknown = "unknown"
)
