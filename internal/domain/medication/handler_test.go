package medication

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ehr/chart/internal/platform/table"
)

func serveTreatments(t *testing.T, upstream http.HandlerFunc, patientID string) *httptest.ResponseRecorder {
	t.Helper()
	svc, _ := newTestService(t, upstream)
	h := NewHandler(svc, svc.notifier, svc.logger)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+patientID+"/treatments", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetPath("/api/v1/patients/:patientId/treatments")
	ctx.SetParamNames("patientId")
	ctx.SetParamValues(patientID)

	if err := h.GetTreatments(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestGetTreatments_RendersTable(t *testing.T) {
	rec := serveTreatments(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"resourceType": "Bundle",
			"entry": [
				{"resource": {
					"resourceType": "MedicationRequest",
					"id": "m1",
					"status": "active",
					"medicationCodeableConcept": {"text": "Paracetamol"},
					"authoredOn": "2024-03-01T08:00:00Z",
					"requester": {"display": "Dr. Lee"},
					"dosageInstruction": [{
						"text": "With water",
						"timing": {"repeat": {"frequency": 2, "period": 1, "periodUnit": "Day"}},
						"doseAndRate": [{"doseQuantity": {"value": 650, "unit": "mg"}}]
					}]
				}},
				{"resource": {
					"resourceType": "MedicationRequest",
					"id": "m2",
					"status": "completed",
					"medicationReference": {"display": "Ibuprofen"}
				}}
			]
		}`))
	}, "p1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var doc table.Rendered
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode table: %v", err)
	}
	if doc.State != table.StatePopulated {
		t.Fatalf("state = %s", doc.State)
	}
	if doc.Title != "Treatments" || doc.AriaLabel != "Patient treatments" {
		t.Errorf("titles wrong: %q / %q", doc.Title, doc.AriaLabel)
	}
	for _, h := range doc.Headers {
		if h.Sortable {
			t.Errorf("header %s must not be sortable", h.Key)
		}
	}
	if len(doc.Rows) != 2 {
		t.Fatalf("rows = %d", len(doc.Rows))
	}

	byKey := func(row table.Row, key string) string {
		for _, cell := range row.Cells {
			if cell.Key == key {
				return cell.Value
			}
		}
		return ""
	}
	if got := byKey(doc.Rows[0], "frequency"); got != "2 time(s) per 1 day" {
		t.Errorf("frequency = %q", got)
	}
	if got := byKey(doc.Rows[0], "dosage"); got != "650 mg" {
		t.Errorf("dosage = %q", got)
	}
	if got := byKey(doc.Rows[1], "dosage"); got != notSpecified {
		t.Errorf("missing dosage = %q", got)
	}
	if got := byKey(doc.Rows[1], "provider"); got != notSpecified {
		t.Errorf("missing provider = %q", got)
	}

	// Instructions drive the expand affordance; m2 has none.
	if doc.Rows[0].Expanded == nil || !strings.Contains(*doc.Rows[0].Expanded, "Instructions: With water") {
		t.Errorf("expanded = %v", doc.Rows[0].Expanded)
	}
	if doc.Rows[1].Expanded != nil {
		t.Error("row without notes or instructions must not expand")
	}
}

func TestGetTreatments_UpstreamErrorRendersErrorState(t *testing.T) {
	rec := serveTreatments(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{
			"resourceType": "OperationOutcome",
			"issue": [{"severity": "error", "diagnostics": "search failed"}]
		}`))
	}, "p1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var doc table.Rendered
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode table: %v", err)
	}
	if doc.State != table.StateError {
		t.Fatalf("state = %s, want error (medication failures propagate)", doc.State)
	}
	if doc.Message != "search failed" {
		t.Errorf("message = %q", doc.Message)
	}
}

func TestGetTreatments_EmptyPatientID(t *testing.T) {
	rec := serveTreatments(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no upstream call expected")
	}, "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "Invalid patient UUID" {
		t.Errorf("message = %q", body["message"])
	}
}

func TestGetTreatments_UnauthorizedRedirects(t *testing.T) {
	rec := serveTreatments(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, "p1")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["login"] != "/login" {
		t.Errorf("login = %q", body["login"])
	}
}
