package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "financehub/internal/errors"
	"financehub/internal/models"
	"financehub/internal/money"
	"financehub/internal/pagination"
	"financehub/internal/services"
)

const testBudgetID = "0190a4b2-0000-7000-8000-0000000000b1"

// --- mock budget service ---

type mockBudgetService struct {
	createBudgetFn       func(ownerID string, in services.BudgetInput) (*services.BudgetStatus, error)
	getBudgetByIDFn      func(ownerID, budgetID string) (*services.BudgetStatus, error)
	getUserBudgetsFn     func(ownerID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[services.BudgetStatus], error)
	getActiveBudgetsFn   func(ownerID string, on time.Time) ([]services.BudgetStatus, error)
	getTriggeredAlertsFn func(ownerID string) ([]services.BudgetStatus, error)
	updateBudgetFn       func(ownerID, budgetID string, in services.BudgetUpdate) (*services.BudgetStatus, error)
	deleteBudgetFn       func(ownerID, budgetID string) error
}

func (m *mockBudgetService) CreateBudget(_ context.Context, ownerID string, in services.BudgetInput) (*services.BudgetStatus, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(ownerID, in)
	}
	return &services.BudgetStatus{}, nil
}

func (m *mockBudgetService) GetBudgetByID(_ context.Context, ownerID, budgetID string) (*services.BudgetStatus, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(ownerID, budgetID)
	}
	return &services.BudgetStatus{}, nil
}

func (m *mockBudgetService) GetUserBudgets(_ context.Context, ownerID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[services.BudgetStatus], error) {
	if m.getUserBudgetsFn != nil {
		return m.getUserBudgetsFn(ownerID, page, isActive)
	}
	resp := pagination.NewPageResponse([]services.BudgetStatus{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockBudgetService) GetActiveBudgets(_ context.Context, ownerID string, on time.Time) ([]services.BudgetStatus, error) {
	if m.getActiveBudgetsFn != nil {
		return m.getActiveBudgetsFn(ownerID, on)
	}
	return []services.BudgetStatus{}, nil
}

func (m *mockBudgetService) GetTriggeredAlerts(_ context.Context, ownerID string) ([]services.BudgetStatus, error) {
	if m.getTriggeredAlertsFn != nil {
		return m.getTriggeredAlertsFn(ownerID)
	}
	return []services.BudgetStatus{}, nil
}

func (m *mockBudgetService) BudgetsAffectedBy(_ context.Context, _ string, _ *string, _ time.Time) ([]services.BudgetStatus, error) {
	return nil, nil
}

func (m *mockBudgetService) UpdateBudget(_ context.Context, ownerID, budgetID string, in services.BudgetUpdate) (*services.BudgetStatus, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(ownerID, budgetID, in)
	}
	return &services.BudgetStatus{}, nil
}

func (m *mockBudgetService) DeleteBudget(_ context.Context, ownerID, budgetID string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(ownerID, budgetID)
	}
	return nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/budgets", handler.CreateBudget)
	auth.GET("/budgets", handler.GetBudgets)
	auth.GET("/budgets/active", handler.GetActiveBudgets)
	auth.GET("/budgets/alerts", handler.GetBudgetAlerts)
	auth.GET("/budgets/:id", handler.GetBudget)
	auth.PUT("/budgets/:id", handler.UpdateBudget)
	auth.DELETE("/budgets/:id", handler.DeleteBudget)
	return r
}

func sampleStatus(spent, amount string) *services.BudgetStatus {
	b := models.Budget{
		Base:           models.Base{ID: testBudgetID},
		UserID:         testUserID,
		Name:           "Groceries",
		Amount:         money.MustParse(amount),
		Spent:          money.MustParse(spent),
		Period:         models.BudgetPeriodMonthly,
		AlertThreshold: money.NewPercent(80),
		IsActive:       true,
	}
	pct := money.PercentOf(b.Spent, b.Amount)
	return &services.BudgetStatus{
		Budget:          b,
		Remaining:       b.Amount.Sub(b.Spent),
		SpentPercentage: pct,
		AlertTriggered:  pct.GreaterThanOrEqual(b.AlertThreshold),
	}
}

func TestBudgetHandler_CreateBudget(t *testing.T) {
	t.Run("returns_201_with_computed_status", func(t *testing.T) {
		var got services.BudgetInput
		budgetSvc := &mockBudgetService{
			createBudgetFn: func(_ string, in services.BudgetInput) (*services.BudgetStatus, error) {
				got = in
				return sampleStatus("80", "200"), nil
			},
		}
		audit := &mockAuditService{}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, audit))

		rec := doRequest(r, "POST", "/budgets",
			`{"name":"Groceries","category_id":"`+testCatID+`","amount":"200","period":"monthly","start_date":"2024-03-01","alert_threshold":75}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Period != models.BudgetPeriodMonthly {
			t.Errorf("expected MONTHLY, got %s", got.Period)
		}
		if !got.StartDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected start date %v", got.StartDate)
		}
		if !got.EndDate.IsZero() {
			t.Errorf("end date should be left for the service to derive, got %v", got.EndDate)
		}
		if got.AlertThreshold == nil || got.AlertThreshold.String() != "75.00" {
			t.Errorf("unexpected alert threshold %v", got.AlertThreshold)
		}
		body := rec.Body.String()
		for _, want := range []string{`"spent":80.00`, `"remaining":120.00`, `"spent_percentage":40.00`, `"alert_triggered":false`} {
			if !strings.Contains(body, want) {
				t.Errorf("expected %s in body %s", want, body)
			}
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "CREATE_BUDGET" {
			t.Errorf("unexpected audit entries %v", audit.entries)
		}
	})

	t.Run("overall_budget_without_category", func(t *testing.T) {
		var got services.BudgetInput
		budgetSvc := &mockBudgetService{
			createBudgetFn: func(_ string, in services.BudgetInput) (*services.BudgetStatus, error) {
				got = in
				return sampleStatus("0", "1000"), nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/budgets", `{"name":"Everything","amount":1000}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.CategoryID != nil {
			t.Errorf("expected no category, got %v", *got.CategoryID)
		}
		if got.AlertThreshold != nil {
			t.Errorf("expected default threshold to be left to the service, got %v", got.AlertThreshold)
		}
	})

	invalid := []struct {
		name string
		body string
	}{
		{"missing_name", `{"amount":"10"}`},
		{"zero_amount", `{"name":"x","amount":"0"}`},
		{"bad_period", `{"name":"x","amount":"10","period":"DAILY"}`},
		{"bad_category", `{"name":"x","amount":"10","category_id":"groceries"}`},
		{"bad_start_date", `{"name":"x","amount":"10","start_date":"March 1"}`},
		{"bad_threshold", `{"name":"x","amount":"10","alert_threshold":"high"}`},
	}
	for _, tt := range invalid {
		t.Run("returns_400_on_"+tt.name, func(t *testing.T) {
			r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

			rec := doRequest(r, "POST", "/budgets", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}

	t.Run("returns_404_for_unknown_category", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			createBudgetFn: func(string, services.BudgetInput) (*services.BudgetStatus, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/budgets", `{"name":"x","amount":"10","category_id":"`+testCatID+`"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetBudgets(t *testing.T) {
	t.Run("passes_active_filter", func(t *testing.T) {
		var gotActive *bool
		budgetSvc := &mockBudgetService{
			getUserBudgetsFn: func(_ string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[services.BudgetStatus], error) {
				gotActive = isActive
				resp := pagination.NewPageResponse([]services.BudgetStatus{*sampleStatus("10", "100")}, page.Page, page.PageSize, 1)
				return &resp, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets?is_active=false", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotActive == nil || *gotActive {
			t.Errorf("expected is_active=false, got %v", gotActive)
		}
	})

	t.Run("no_filter_when_absent", func(t *testing.T) {
		var gotActive *bool
		called := false
		budgetSvc := &mockBudgetService{
			getUserBudgetsFn: func(_ string, _ pagination.PageRequest, isActive *bool) (*pagination.PageResponse[services.BudgetStatus], error) {
				called, gotActive = true, isActive
				resp := pagination.NewPageResponse([]services.BudgetStatus{}, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets", "")

		if rec.Code != http.StatusOK || !called {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotActive != nil {
			t.Errorf("expected nil filter, got %v", *gotActive)
		}
	})
}

func TestBudgetHandler_GetActiveBudgets(t *testing.T) {
	t.Run("uses_given_date", func(t *testing.T) {
		var gotDate time.Time
		budgetSvc := &mockBudgetService{
			getActiveBudgetsFn: func(_ string, on time.Time) ([]services.BudgetStatus, error) {
				gotDate = on
				return []services.BudgetStatus{*sampleStatus("10", "100")}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/active?date=2024-05-10", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !gotDate.Equal(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected date %v", gotDate)
		}
		if budgets, _ := parseJSON(t, rec)["budgets"].([]interface{}); len(budgets) != 1 {
			t.Errorf("expected 1 budget, got %v", budgets)
		}
	})

	t.Run("returns_400_on_bad_date", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/active?date=soon", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetBudgetAlerts(t *testing.T) {
	budgetSvc := &mockBudgetService{
		getTriggeredAlertsFn: func(ownerID string) ([]services.BudgetStatus, error) {
			if ownerID != testUserID {
				t.Errorf("expected owner %s, got %s", testUserID, ownerID)
			}
			return []services.BudgetStatus{*sampleStatus("90", "100")}, nil
		},
	}
	r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/budgets/alerts", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"spent_percentage":90.00`) || !strings.Contains(body, `"alert_triggered":true`) {
		t.Errorf("unexpected body %s", body)
	}
}

func TestBudgetHandler_GetBudget(t *testing.T) {
	t.Run("returns_200", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			getBudgetByIDFn: func(_, id string) (*services.BudgetStatus, error) {
				if id != testBudgetID {
					t.Errorf("expected %s, got %s", testBudgetID, id)
				}
				return sampleStatus("50", "100"), nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["name"] != "Groceries" {
			t.Errorf("unexpected budget %v", budget)
		}
	})

	t.Run("returns_404_when_not_found", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			getBudgetByIDFn: func(string, string) (*services.BudgetStatus, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})
}

func TestBudgetHandler_UpdateBudget(t *testing.T) {
	t.Run("maps_partial_update", func(t *testing.T) {
		var got services.BudgetUpdate
		budgetSvc := &mockBudgetService{
			updateBudgetFn: func(_, _ string, in services.BudgetUpdate) (*services.BudgetStatus, error) {
				got = in
				return sampleStatus("50", "250"), nil
			},
		}
		audit := &mockAuditService{}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, audit))

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID,
			`{"amount":"250","period":"yearly","end_date":"2024-12-31","clear_category":true}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Amount == nil || got.Amount.String() != "250.00" {
			t.Errorf("unexpected amount %v", got.Amount)
		}
		if got.Period == nil || *got.Period != models.BudgetPeriodYearly {
			t.Errorf("unexpected period %v", got.Period)
		}
		if got.EndDate == nil || !got.EndDate.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected end date %v", got.EndDate)
		}
		if !got.ClearCategory || got.Name != nil || got.StartDate != nil {
			t.Errorf("unexpected update %+v", got)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "UPDATE_BUDGET" {
			t.Errorf("unexpected audit entries %v", audit.entries)
		}
	})

	t.Run("returns_400_when_clearing_and_setting_category", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID,
			`{"category_id":"`+testCatID+`","clear_category":true}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns_400_on_negative_amount", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID, `{"amount":"-1"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_DeleteBudget(t *testing.T) {
	t.Run("returns_200", func(t *testing.T) {
		deleted := ""
		budgetSvc := &mockBudgetService{
			deleteBudgetFn: func(_, id string) error {
				deleted = id
				return nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/budgets/"+testBudgetID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if deleted != testBudgetID {
			t.Errorf("expected %s deleted, got %q", testBudgetID, deleted)
		}
	})

	t.Run("returns_400_on_invalid_id", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/budgets/17", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
