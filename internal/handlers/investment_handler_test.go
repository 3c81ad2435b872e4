package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "financehub/internal/errors"
	"financehub/internal/models"
	"financehub/internal/money"
	"financehub/internal/pagination"
	"financehub/internal/services"
)

const (
	testProjectID    = "0190a4b2-0000-7000-8000-0000000000d1"
	testInvestmentID = "0190a4b2-0000-7000-8000-0000000000f1"
)

// --- mock investment service ---

type mockInvestmentService struct {
	investFn             func(investorID, projectID, accountID string, amount money.Money) (*models.Investment, error)
	getInvestmentByIDFn  func(investorID, investmentID string) (*models.Investment, error)
	getUserInvestmentsFn func(investorID string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error)
	getTotalInvestedFn   func(investorID string) (money.Money, error)
}

func (m *mockInvestmentService) Invest(_ context.Context, investorID, projectID, accountID string, amount money.Money) (*models.Investment, error) {
	if m.investFn != nil {
		return m.investFn(investorID, projectID, accountID, amount)
	}
	return &models.Investment{}, nil
}

func (m *mockInvestmentService) GetInvestmentByID(_ context.Context, investorID, investmentID string) (*models.Investment, error) {
	if m.getInvestmentByIDFn != nil {
		return m.getInvestmentByIDFn(investorID, investmentID)
	}
	return &models.Investment{}, nil
}

func (m *mockInvestmentService) GetUserInvestments(_ context.Context, investorID string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error) {
	if m.getUserInvestmentsFn != nil {
		return m.getUserInvestmentsFn(investorID, page)
	}
	resp := pagination.NewPageResponse([]models.Investment{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockInvestmentService) GetTotalInvested(_ context.Context, investorID string) (money.Money, error) {
	if m.getTotalInvestedFn != nil {
		return m.getTotalInvestedFn(investorID)
	}
	return money.Zero, nil
}

var _ services.InvestmentServicer = (*mockInvestmentService)(nil)

func setupInvestmentRouter(handler *InvestmentHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/investments", handler.Invest)
	auth.GET("/investments", handler.GetUserInvestments)
	auth.GET("/investments/total", handler.GetTotalInvested)
	auth.GET("/investments/:id", handler.GetInvestmentByID)
	return r
}

func investBody(amount string) string {
	return `{"project_id":"` + testProjectID + `","account_id":"` + testAcctID + `","amount":"` + amount + `"}`
}

func TestInvestmentHandler_Invest(t *testing.T) {
	t.Run("returns_201_on_success", func(t *testing.T) {
		var gotInvestor, gotProject, gotAccount string
		var gotAmount money.Money
		invSvc := &mockInvestmentService{
			investFn: func(investorID, projectID, accountID string, amount money.Money) (*models.Investment, error) {
				gotInvestor, gotProject, gotAccount, gotAmount = investorID, projectID, accountID, amount
				return &models.Investment{
					Base:          models.Base{ID: testInvestmentID},
					InvestorID:    investorID,
					ProjectID:     projectID,
					AccountID:     accountID,
					TransactionID: testTxID,
					Amount:        amount,
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupInvestmentRouter(NewInvestmentHandler(invSvc, audit))

		rec := doRequest(r, "POST", "/investments", investBody("300"))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotInvestor != testUserID || gotProject != testProjectID || gotAccount != testAcctID {
			t.Errorf("unexpected ids %s %s %s", gotInvestor, gotProject, gotAccount)
		}
		if gotAmount.String() != "300.00" {
			t.Errorf("expected 300.00, got %s", gotAmount)
		}
		inv := parseJSON(t, rec)["investment"].(map[string]interface{})
		if inv["transaction_id"] != testTxID {
			t.Errorf("expected ledger entry id in response, got %v", inv)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "CREATE_INVESTMENT" {
			t.Errorf("unexpected audit entries %v", audit.entries)
		}
	})

	errorCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient_funds", apperrors.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{"project_not_active", apperrors.ErrProjectNotActive, http.StatusBadRequest, "PROJECT_NOT_ACTIVE"},
		{"project_not_found", apperrors.ErrProjectNotFound, http.StatusNotFound, "PROJECT_NOT_FOUND"},
		{"account_not_found", apperrors.ErrAccountNotFound, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
	}
	for _, tt := range errorCases {
		t.Run("maps_"+tt.name, func(t *testing.T) {
			invSvc := &mockInvestmentService{
				investFn: func(string, string, string, money.Money) (*models.Investment, error) {
					return nil, tt.err
				},
			}
			audit := &mockAuditService{}
			r := setupInvestmentRouter(NewInvestmentHandler(invSvc, audit))

			rec := doRequest(r, "POST", "/investments", investBody("50"))

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), tt.code)
			if len(audit.entries) != 0 {
				t.Error("failed investments must not be audited")
			}
		})
	}

	invalid := []struct {
		name string
		body string
	}{
		{"missing_project", `{"account_id":"` + testAcctID + `","amount":"10"}`},
		{"missing_account", `{"project_id":"` + testProjectID + `","amount":"10"}`},
		{"zero_amount", investBody("0")},
		{"fractional_cent", investBody("10.005")},
	}
	for _, tt := range invalid {
		t.Run("returns_400_on_"+tt.name, func(t *testing.T) {
			r := setupInvestmentRouter(NewInvestmentHandler(&mockInvestmentService{}, &mockAuditService{}))

			rec := doRequest(r, "POST", "/investments", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}
}

func TestInvestmentHandler_Queries(t *testing.T) {
	invSvc := &mockInvestmentService{
		getUserInvestmentsFn: func(_ string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error) {
			items := []models.Investment{{Amount: money.MustParse("100")}, {Amount: money.MustParse("300")}}
			resp := pagination.NewPageResponse(items, 1, 20, int64(len(items)))
			return &resp, nil
		},
		getTotalInvestedFn: func(string) (money.Money, error) {
			return money.MustParse("400"), nil
		},
		getInvestmentByIDFn: func(_, id string) (*models.Investment, error) {
			if id != testInvestmentID {
				return nil, apperrors.ErrInvestmentNotFound
			}
			return &models.Investment{Base: models.Base{ID: id}, Amount: money.MustParse("100")}, nil
		},
	}
	r := setupInvestmentRouter(NewInvestmentHandler(invSvc, &mockAuditService{}))

	t.Run("list", func(t *testing.T) {
		rec := doRequest(r, "GET", "/investments", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if total := parseJSON(t, rec)["total_items"]; total != float64(2) {
			t.Errorf("expected 2 items, got %v", total)
		}
	})

	t.Run("total", func(t *testing.T) {
		rec := doRequest(r, "GET", "/investments/total", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"total":400.00`) {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("by_id", func(t *testing.T) {
		rec := doRequest(r, "GET", "/investments/"+testInvestmentID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("by_id_not_found", func(t *testing.T) {
		rec := doRequest(r, "GET", "/investments/"+testProjectID, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVESTMENT_NOT_FOUND")
	})
}

// --- mock project service ---

type mockProjectService struct {
	createProjectFn     func(ownerID string, in services.ProjectInput) (*models.Project, error)
	getProjectByIDFn    func(projectID string) (*models.Project, error)
	getActiveProjectsFn func(page pagination.PageRequest) (*pagination.PageResponse[models.Project], error)
	getOwnerProjectsFn  func(ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Project], error)
}

func (m *mockProjectService) CreateProject(_ context.Context, ownerID string, in services.ProjectInput) (*models.Project, error) {
	if m.createProjectFn != nil {
		return m.createProjectFn(ownerID, in)
	}
	return &models.Project{}, nil
}

func (m *mockProjectService) GetProjectByID(_ context.Context, projectID string) (*models.Project, error) {
	if m.getProjectByIDFn != nil {
		return m.getProjectByIDFn(projectID)
	}
	return &models.Project{}, nil
}

func (m *mockProjectService) GetActiveProjects(_ context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Project], error) {
	if m.getActiveProjectsFn != nil {
		return m.getActiveProjectsFn(page)
	}
	resp := pagination.NewPageResponse([]models.Project{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockProjectService) GetOwnerProjects(_ context.Context, ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Project], error) {
	if m.getOwnerProjectsFn != nil {
		return m.getOwnerProjectsFn(ownerID, page)
	}
	resp := pagination.NewPageResponse([]models.Project{}, 1, 20, 0)
	return &resp, nil
}

var _ services.ProjectServicer = (*mockProjectService)(nil)

func setupProjectRouter(handler *ProjectHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/projects", handler.CreateProject)
	auth.GET("/projects", handler.GetActiveProjects)
	auth.GET("/projects/mine", handler.GetMyProjects)
	auth.GET("/projects/:id", handler.GetProject)
	return r
}

func TestProjectHandler(t *testing.T) {
	t.Run("create_returns_201", func(t *testing.T) {
		projSvc := &mockProjectService{
			createProjectFn: func(ownerID string, in services.ProjectInput) (*models.Project, error) {
				return &models.Project{
					Base:         models.Base{ID: testProjectID},
					OwnerID:      ownerID,
					Title:        in.Title,
					TargetAmount: in.TargetAmount,
					Status:       models.ProjectStatusActive,
				}, nil
			},
		}
		r := setupProjectRouter(NewProjectHandler(projSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/projects", `{"title":"Solar roof","target_amount":"1000"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		project := parseJSON(t, rec)["project"].(map[string]interface{})
		if project["status"] != "ACTIVE" || project["owner_id"] != testUserID {
			t.Errorf("unexpected project %v", project)
		}
	})

	t.Run("create_returns_400_without_target", func(t *testing.T) {
		r := setupProjectRouter(NewProjectHandler(&mockProjectService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/projects", `{"title":"Solar roof"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("mine_uses_owner", func(t *testing.T) {
		var gotOwner string
		projSvc := &mockProjectService{
			getOwnerProjectsFn: func(ownerID string, _ pagination.PageRequest) (*pagination.PageResponse[models.Project], error) {
				gotOwner = ownerID
				resp := pagination.NewPageResponse([]models.Project{}, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupProjectRouter(NewProjectHandler(projSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/projects/mine", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotOwner != testUserID {
			t.Errorf("expected owner %s, got %s", testUserID, gotOwner)
		}
	})

	t.Run("get_returns_404", func(t *testing.T) {
		projSvc := &mockProjectService{
			getProjectByIDFn: func(string) (*models.Project, error) { return nil, apperrors.ErrProjectNotFound },
		}
		r := setupProjectRouter(NewProjectHandler(projSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/projects/"+testProjectID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
