package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/hmtravels/backoffice-backend/internal/service"
	"github.com/hmtravels/backoffice-backend/internal/testutil"
)

func setupApplicationHandler() (*ApplicationHandler, *testutil.MockApplicationRepository, *testutil.MockCustomerRepository) {
	applicationRepo := testutil.NewMockApplicationRepository()
	customerRepo := testutil.NewMockCustomerRepository()
	applicationService := service.NewApplicationService(applicationRepo, customerRepo)
	return NewApplicationHandler(applicationService), applicationRepo, customerRepo
}

func TestCreateApplication_Success(t *testing.T) {
	e := newTestEcho()
	handler, _, _ := setupApplicationHandler()

	reqBody := `{
		"kind": "visa",
		"applicantName": "Ahmed Khan",
		"governmentFee": "3500.00",
		"serviceCharge": "1500.00",
		"trackingNumber": "VF-2025-0042"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Create(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var app domain.Application
	if err := json.Unmarshal(rec.Body.Bytes(), &app); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if app.Status != domain.ApplicationStatusReceived {
		t.Errorf("Expected received, got %s", app.Status)
	}
	if app.TrackingNumber == nil || *app.TrackingNumber != "VF-2025-0042" {
		t.Errorf("Expected tracking number to round-trip, got %v", app.TrackingNumber)
	}
}

func TestCreateApplication_RejectsUnknownKind(t *testing.T) {
	e := newTestEcho()
	handler, _, _ := setupApplicationHandler()

	reqBody := `{"kind": "driving_licence", "applicantName": "Ahmed Khan"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Create(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestListApplications_FiltersByKind(t *testing.T) {
	e := newTestEcho()
	handler, applicationRepo, _ := setupApplicationHandler()
	applicationRepo.Create(&domain.Application{Kind: domain.ApplicationKindNADRA, ApplicantName: "A", Status: domain.ApplicationStatusReceived})
	applicationRepo.Create(&domain.Application{Kind: domain.ApplicationKindVisa, ApplicantName: "B", Status: domain.ApplicationStatusReceived})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications?kind=nadra", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.List(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response ApplicationListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response.Applications) != 1 || response.Applications[0].ApplicantName != "A" {
		t.Errorf("Expected only the NADRA application, got %+v", response.Applications)
	}
}

func TestUpdateApplication_NotFound(t *testing.T) {
	e := newTestEcho()
	handler, _, _ := setupApplicationHandler()

	reqBody := `{"kind": "visa", "applicantName": "Ahmed Khan", "status": "submitted"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/applications/99", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")

	if err := handler.Update(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestDeleteApplication_Success(t *testing.T) {
	e := newTestEcho()
	handler, applicationRepo, _ := setupApplicationHandler()
	app, _ := applicationRepo.Create(&domain.Application{Kind: domain.ApplicationKindVisa, ApplicantName: "B", Status: domain.ApplicationStatusReceived})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/applications/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(itoa(app.ID))

	if err := handler.Delete(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if len(applicationRepo.Applications) != 0 {
		t.Error("Expected application to be removed")
	}
}
