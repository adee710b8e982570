package condition

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ehr/chart/internal/platform/table"
)

func serveConditions(t *testing.T, upstream http.HandlerFunc, patientID, sort string) *httptest.ResponseRecorder {
	t.Helper()
	svc, _ := newTestService(t, upstream)
	h := NewHandler(svc, svc.notifier, svc.logger)

	e := echo.New()
	target := "/api/v1/patients/" + patientID + "/conditions"
	if sort != "" {
		target += "?sort=" + sort
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetPath("/api/v1/patients/:patientId/conditions")
	ctx.SetParamNames("patientId")
	ctx.SetParamValues(patientID)

	if err := h.GetConditions(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func conditionBundle() string {
	return `{
		"resourceType": "Bundle",
		"entry": [
			{"resource": {
				"resourceType": "Condition",
				"id": "c1",
				"clinicalStatus": {"coding": [{"code": "active"}]},
				"code": {"text": "Migraine", "coding": [{"code": "37796009", "display": "Migraine"}]},
				"onsetDateTime": "2023-06-01T00:00:00Z",
				"recorder": {"display": "Dr. Patel"},
				"note": [{"text": "Triggered by stress"}]
			}},
			{"resource": {
				"resourceType": "Condition",
				"id": "c2",
				"clinicalStatus": {"coding": [{"code": "resolved"}]},
				"code": {"text": "Asthma", "coding": [{"code": "195967001", "display": "Asthma"}]}
			}}
		]
	}`
}

func TestGetConditions_RendersTable(t *testing.T) {
	rec := serveConditions(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(conditionBundle()))
	}, "p1", "")

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
	if doc.Title != "Conditions" {
		t.Errorf("title = %q", doc.Title)
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
	if byKey(doc.Rows[0], "status") != "Active" {
		t.Errorf("row 1 status = %q", byKey(doc.Rows[0], "status"))
	}
	if byKey(doc.Rows[1], "status") != "Inactive" {
		t.Errorf("row 2 status = %q", byKey(doc.Rows[1], "status"))
	}
	if doc.Rows[0].Expanded == nil || *doc.Rows[0].Expanded != "Triggered by stress" {
		t.Errorf("expanded = %v", doc.Rows[0].Expanded)
	}
	if doc.Rows[1].Expanded != nil {
		t.Error("row without notes must not expand")
	}
}

func TestGetConditions_SortByDisplay(t *testing.T) {
	rec := serveConditions(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(conditionBundle()))
	}, "p1", "display")

	var doc table.Rendered
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode table: %v", err)
	}
	if doc.Rows[0].Cells[0].Value != "Asthma" || doc.Rows[1].Cells[0].Value != "Migraine" {
		t.Errorf("sorted order wrong: %q, %q", doc.Rows[0].Cells[0].Value, doc.Rows[1].Cells[0].Value)
	}
}

func TestGetConditions_ActiveFilter(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(conditionBundle()))
	})
	h := NewHandler(svc, svc.notifier, svc.logger)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/p1/conditions?status=active", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetPath("/api/v1/patients/:patientId/conditions")
	ctx.SetParamNames("patientId")
	ctx.SetParamValues("p1")

	if err := h.GetConditions(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var doc table.Rendered
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode table: %v", err)
	}
	if len(doc.Rows) != 1 {
		t.Fatalf("rows = %d, want only the active condition", len(doc.Rows))
	}
	if doc.Rows[0].ID != "c1" {
		t.Errorf("row id = %q", doc.Rows[0].ID)
	}
}

func TestGetConditions_EmptyPatientID(t *testing.T) {
	rec := serveConditions(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no upstream call expected")
	}, "", "")

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

func TestGetConditions_UnauthorizedRedirects(t *testing.T) {
	rec := serveConditions(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, "p1", "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetConditions_EmptyBundleRendersEmptyState(t *testing.T) {
	rec := serveConditions(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resourceType": "Bundle", "total": 0}`))
	}, "p1", "")

	var doc table.Rendered
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode table: %v", err)
	}
	if doc.State != table.StateEmpty {
		t.Errorf("state = %s", doc.State)
	}
	if doc.Message != "No conditions found" {
		t.Errorf("message = %q", doc.Message)
	}
}
