package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mpalmer79/dealdesk/finance"
	"github.com/mpalmer79/dealdesk/model"
	"github.com/mpalmer79/dealdesk/repository"
	"github.com/mpalmer79/dealdesk/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *recordingNotifier) WorksheetReady(w *model.Worksheet) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

func newTestStore(notifier service.Notifier) *service.WorksheetStore {
	return service.NewWorksheetStore(repository.NewMemoryRepository(), notifier, service.StoreOptions{
		Terms: []finance.TermRate{
			{Months: 48, APR: 5.99},
			{Months: 60, APR: 6.49},
			{Months: 72, APR: 6.99},
		},
		DefaultTerm: 72,
		Fees:        service.Fees{DocFee: 499, TitleFee: 100},
	})
}

// testRouter registers the worksheet routes with the identity a valid
// token would have produced.
func testRouter(h *WorksheetHandler, sessionID, role string) *gin.Engine {
	router := gin.New()
	identify := func(c *gin.Context) {
		c.Set("session_id", sessionID)
		c.Set("role", role)
	}
	router.POST("/worksheets", identify, h.Create)
	router.GET("/worksheets", identify, h.List)
	router.GET("/worksheets/:id", identify, h.Get)
	router.PATCH("/worksheets/:id", identify, h.Patch)
	router.POST("/worksheets/:id/ready", identify, h.MarkReady)
	router.POST("/worksheets/:id/override", identify, h.Override)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) WorksheetResponse {
	t.Helper()
	var resp WorksheetResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return resp
}

func createWorksheet(t *testing.T, router *gin.Engine) *model.Worksheet {
	t.Helper()
	w := doJSON(t, router, "POST", "/worksheets", CreateWorksheetRequest{
		Vehicle: model.VehicleQuote{
			StockNumber:  "Q52000",
			Year:         2024,
			Make:         "GMC",
			Model:        "Sierra 1500",
			MSRP:         55000,
			SellingPrice: 52000,
		},
		DownPayment: 5000,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Create returned %d: %s", w.Code, w.Body.String())
	}
	resp := decodeEnvelope(t, w)
	if !resp.Success || resp.Worksheet == nil {
		t.Fatalf("Create envelope missing worksheet: %+v", resp)
	}
	return resp.Worksheet
}

func TestWorksheetCreateAndGet(t *testing.T) {
	handler := NewWorksheetHandler(newTestStore(&recordingNotifier{}))
	router := testRouter(handler, "sess-1", "customer")

	created := createWorksheet(t, router)
	if created.AmountFinanced != 47000 {
		t.Errorf("Expected amount_financed 47000, got %v", created.AmountFinanced)
	}
	if created.TotalDueAtSigning != 5599 {
		t.Errorf("Expected total_due_at_signing 5599, got %v", created.TotalDueAtSigning)
	}

	w := doJSON(t, router, "GET", "/worksheets/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Get returned %d", w.Code)
	}
	resp := decodeEnvelope(t, w)
	if resp.Worksheet.ID != created.ID {
		t.Errorf("Expected worksheet %s, got %s", created.ID, resp.Worksheet.ID)
	}
}

func TestWorksheetGetWrongSession(t *testing.T) {
	store := newTestStore(&recordingNotifier{})
	handler := NewWorksheetHandler(store)

	created := createWorksheet(t, testRouter(handler, "sess-1", "customer"))

	intruder := testRouter(handler, "sess-2", "customer")
	w := doJSON(t, intruder, "GET", "/worksheets/"+created.ID, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for foreign session, got %d", w.Code)
	}
	if resp := decodeEnvelope(t, w); resp.Success {
		t.Error("Expected success=false in envelope")
	}

	// The manager dashboard can read any worksheet
	manager := testRouter(handler, "", "manager")
	w = doJSON(t, manager, "GET", "/worksheets/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for manager read, got %d", w.Code)
	}
}

func TestWorksheetPatch(t *testing.T) {
	handler := NewWorksheetHandler(newTestStore(&recordingNotifier{}))
	router := testRouter(handler, "sess-1", "customer")
	created := createWorksheet(t, router)

	w := doJSON(t, router, "PATCH", "/worksheets/"+created.ID, map[string]any{
		"down_payment": 8000,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Patch returned %d: %s", w.Code, w.Body.String())
	}
	resp := decodeEnvelope(t, w)
	if resp.Worksheet.DownPayment != 8000 {
		t.Errorf("Expected down payment 8000, got %v", resp.Worksheet.DownPayment)
	}
	if resp.Worksheet.AmountFinanced != 44000 {
		t.Errorf("Expected amount_financed 44000, got %v", resp.Worksheet.AmountFinanced)
	}
}

func TestWorksheetPatchInvalidTerm(t *testing.T) {
	handler := NewWorksheetHandler(newTestStore(&recordingNotifier{}))
	router := testRouter(handler, "sess-1", "customer")
	created := createWorksheet(t, router)

	w := doJSON(t, router, "PATCH", "/worksheets/"+created.ID, map[string]any{
		"selected_term": 84,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown term, got %d", w.Code)
	}
	if resp := decodeEnvelope(t, w); resp.Success || resp.Message == "" {
		t.Errorf("Expected failure envelope with message, got %+v", resp)
	}
}

func TestWorksheetPatchNotFound(t *testing.T) {
	handler := NewWorksheetHandler(newTestStore(&recordingNotifier{}))
	router := testRouter(handler, "sess-1", "customer")

	w := doJSON(t, router, "PATCH", "/worksheets/no-such-id", map[string]any{
		"down_payment": 1000,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestWorksheetMarkReadyIdempotent(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := NewWorksheetHandler(newTestStore(notifier))
	router := testRouter(handler, "sess-1", "customer")
	created := createWorksheet(t, router)

	for i := 0; i < 2; i++ {
		w := doJSON(t, router, "POST", "/worksheets/"+created.ID+"/ready", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("MarkReady call %d returned %d", i+1, w.Code)
		}
		resp := decodeEnvelope(t, w)
		if resp.Worksheet.Status != model.StatusReady {
			t.Errorf("Expected status ready, got %s", resp.Worksheet.Status)
		}
	}

	if notifier.count() != 1 {
		t.Errorf("Expected exactly one notification, got %d", notifier.count())
	}
}

func TestWorksheetOverride(t *testing.T) {
	handler := NewWorksheetHandler(newTestStore(&recordingNotifier{}))
	customer := testRouter(handler, "sess-1", "customer")
	manager := testRouter(handler, "", "manager")

	created := createWorksheet(t, customer)

	w := doJSON(t, manager, "POST", "/worksheets/"+created.ID+"/override", map[string]any{
		"manager_adjustment": -2000,
		"manager_notes":      "Holiday promo applied",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Override returned %d: %s", w.Code, w.Body.String())
	}
	resp := decodeEnvelope(t, w)
	if resp.Worksheet.AmountFinanced != 45000 {
		t.Errorf("Expected amount_financed 45000, got %v", resp.Worksheet.AmountFinanced)
	}
	if resp.Worksheet.ManagerNotes != "Holiday promo applied" {
		t.Errorf("Unexpected notes: %q", resp.Worksheet.ManagerNotes)
	}
}

func TestWorksheetOverrideEmpty(t *testing.T) {
	handler := NewWorksheetHandler(newTestStore(&recordingNotifier{}))
	manager := testRouter(handler, "", "manager")

	w := doJSON(t, manager, "POST", "/worksheets/some-id/override", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty override, got %d", w.Code)
	}
}

func TestWorksheetList(t *testing.T) {
	handler := NewWorksheetHandler(newTestStore(&recordingNotifier{}))

	createWorksheet(t, testRouter(handler, "sess-1", "customer"))
	createWorksheet(t, testRouter(handler, "sess-2", "customer"))

	manager := testRouter(handler, "", "manager")
	w := doJSON(t, manager, "GET", "/worksheets", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("List returned %d", w.Code)
	}

	var response map[string][]map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(response["worksheets"]) != 2 {
		t.Errorf("Expected 2 worksheets, got %d", len(response["worksheets"]))
	}
	// List view omits the term menu
	if _, ok := response["worksheets"][0]["term_options"]; ok {
		t.Error("Expected list view to omit term_options")
	}
}
