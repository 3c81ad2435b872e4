package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apperrors "financehub/internal/errors"
	"financehub/internal/models"
	"financehub/internal/money"
	"financehub/internal/pagination"
	"financehub/internal/services"
)

// --- mock account service ---

type mockAccountService struct {
	createAccountFn      func(ownerID string, in services.AccountInput) (*models.Account, error)
	getUserAccountsFn    func(ownerID string, page pagination.PageRequest, includeInactive bool) (*pagination.PageResponse[models.Account], error)
	getAccountByIDFn     func(ownerID, accountID string) (*models.Account, error)
	updateAccountFn      func(ownerID, accountID string, in services.AccountUpdate) (*models.Account, error)
	deactivateAccountFn  func(ownerID, accountID string) error
	getTotalBalanceFn    func(ownerID string) (*services.TotalBalance, error)
	applyBalanceChangeFn func(tx *gorm.DB, ownerID, accountID string, delta money.Money, guard bool) error
}

func (m *mockAccountService) CreateAccount(_ context.Context, ownerID string, in services.AccountInput) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(ownerID, in)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetUserAccounts(_ context.Context, ownerID string, page pagination.PageRequest, includeInactive bool) (*pagination.PageResponse[models.Account], error) {
	if m.getUserAccountsFn != nil {
		return m.getUserAccountsFn(ownerID, page, includeInactive)
	}
	resp := pagination.NewPageResponse([]models.Account{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockAccountService) GetAccountByID(_ context.Context, ownerID, accountID string) (*models.Account, error) {
	if m.getAccountByIDFn != nil {
		return m.getAccountByIDFn(ownerID, accountID)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) UpdateAccount(_ context.Context, ownerID, accountID string, in services.AccountUpdate) (*models.Account, error) {
	if m.updateAccountFn != nil {
		return m.updateAccountFn(ownerID, accountID, in)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) DeactivateAccount(_ context.Context, ownerID, accountID string) error {
	if m.deactivateAccountFn != nil {
		return m.deactivateAccountFn(ownerID, accountID)
	}
	return nil
}

func (m *mockAccountService) GetTotalBalance(_ context.Context, ownerID string) (*services.TotalBalance, error) {
	if m.getTotalBalanceFn != nil {
		return m.getTotalBalanceFn(ownerID)
	}
	return &services.TotalBalance{Currency: "USD"}, nil
}

func (m *mockAccountService) ApplyBalanceChange(tx *gorm.DB, ownerID, accountID string, delta money.Money, guard bool) error {
	if m.applyBalanceChangeFn != nil {
		return m.applyBalanceChangeFn(tx, ownerID, accountID, delta, guard)
	}
	return nil
}

// verify interface compliance
var _ services.AccountServicer = (*mockAccountService)(nil)

func setupAccountRouter(handler *AccountHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/accounts", handler.CreateAccount)
	auth.GET("/accounts", handler.GetUserAccounts)
	auth.GET("/accounts/total-balance", handler.GetTotalBalance)
	auth.GET("/accounts/:id", handler.GetAccountByID)
	auth.PUT("/accounts/:id", handler.UpdateAccount)
	auth.DELETE("/accounts/:id", handler.DeactivateAccount)
	return r
}

func TestAccountHandler_CreateAccount(t *testing.T) {
	t.Run("returns_201_on_success", func(t *testing.T) {
		var got services.AccountInput
		acctSvc := &mockAccountService{
			createAccountFn: func(ownerID string, in services.AccountInput) (*models.Account, error) {
				got = in
				return &models.Account{
					Base:           models.Base{ID: testAcctID},
					UserID:         ownerID,
					Name:           in.Name,
					Type:           in.Type,
					Balance:        in.OpeningBalance,
					OpeningBalance: in.OpeningBalance,
					Currency:       in.Currency,
					IsActive:       true,
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupAccountRouter(NewAccountHandler(acctSvc, audit))

		rec := doRequest(r, "POST", "/accounts",
			`{"name":"Savings","type":"savings","currency":"USD","opening_balance":"1500.25"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Type != models.AccountTypeSavings {
			t.Errorf("expected type SAVINGS, got %s", got.Type)
		}
		if got.OpeningBalance.String() != "1500.25" {
			t.Errorf("expected opening balance 1500.25, got %s", got.OpeningBalance)
		}
		if !strings.Contains(rec.Body.String(), `"balance":1500.25`) {
			t.Errorf("expected balance 1500.25 in body, got %s", rec.Body.String())
		}
		if len(audit.entries) != 1 || audit.entries[0].resourceID != testAcctID {
			t.Errorf("expected audit entry for %s, got %v", testAcctID, audit.entries)
		}
	})

	invalid := []struct {
		name string
		body string
	}{
		{"missing_name", `{"type":"CASH"}`},
		{"missing_type", `{"name":"Wallet"}`},
		{"unknown_type", `{"name":"Wallet","type":"PIGGY_BANK"}`},
		{"invalid_currency", `{"name":"Wallet","type":"CASH","currency":"XYZ"}`},
		{"three_decimal_balance", `{"name":"Wallet","type":"CASH","opening_balance":"1.005"}`},
		{"malformed_balance", `{"name":"Wallet","type":"CASH","opening_balance":"abc"}`},
	}
	for _, tt := range invalid {
		t.Run("returns_400_on_"+tt.name, func(t *testing.T) {
			called := false
			acctSvc := &mockAccountService{
				createAccountFn: func(string, services.AccountInput) (*models.Account, error) {
					called = true
					return &models.Account{}, nil
				},
			}
			r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

			rec := doRequest(r, "POST", "/accounts", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
			if called {
				t.Error("service must not be called for invalid input")
			}
		})
	}

	t.Run("propagates_service_error", func(t *testing.T) {
		acctSvc := &mockAccountService{
			createAccountFn: func(string, services.AccountInput) (*models.Account, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "opening balance cannot be negative")
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/accounts", `{"name":"Wallet","type":"CASH","opening_balance":-5}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_GetUserAccounts(t *testing.T) {
	t.Run("passes_pagination_and_inactive_flag", func(t *testing.T) {
		var gotPage pagination.PageRequest
		var gotInactive bool
		acctSvc := &mockAccountService{
			getUserAccountsFn: func(_ string, page pagination.PageRequest, includeInactive bool) (*pagination.PageResponse[models.Account], error) {
				gotPage, gotInactive = page, includeInactive
				resp := pagination.NewPageResponse([]models.Account{{Name: "Checking"}}, page.Page, page.PageSize, 1)
				return &resp, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/accounts?page=2&page_size=5&include_inactive=true", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotPage.Page != 2 || gotPage.PageSize != 5 {
			t.Errorf("expected page 2 size 5, got %+v", gotPage)
		}
		if !gotInactive {
			t.Error("expected include_inactive to be true")
		}
		result := parseJSON(t, rec)
		if data, _ := result["data"].([]interface{}); len(data) != 1 {
			t.Errorf("expected 1 account, got %v", result["data"])
		}
	})

	t.Run("returns_400_on_bad_page", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/accounts?page=abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_GetAccountByID(t *testing.T) {
	t.Run("returns_200", func(t *testing.T) {
		acctSvc := &mockAccountService{
			getAccountByIDFn: func(ownerID, accountID string) (*models.Account, error) {
				if ownerID != testUserID {
					t.Errorf("expected owner %s, got %s", testUserID, ownerID)
				}
				return &models.Account{Base: models.Base{ID: accountID}, Name: "Checking"}, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/accounts/"+testAcctID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		acct := parseJSON(t, rec)["account"].(map[string]interface{})
		if acct["id"] != testAcctID {
			t.Errorf("expected id %s, got %v", testAcctID, acct["id"])
		}
	})

	t.Run("returns_400_on_invalid_id", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/accounts/42", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns_404_when_not_found", func(t *testing.T) {
		acctSvc := &mockAccountService{
			getAccountByIDFn: func(string, string) (*models.Account, error) {
				return nil, apperrors.ErrAccountNotFound
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/accounts/"+testAcct2ID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_NOT_FOUND")
	})
}

func TestAccountHandler_UpdateAccount(t *testing.T) {
	t.Run("returns_200_and_passes_partial_update", func(t *testing.T) {
		var got services.AccountUpdate
		acctSvc := &mockAccountService{
			updateAccountFn: func(_, accountID string, in services.AccountUpdate) (*models.Account, error) {
				got = in
				return &models.Account{Base: models.Base{ID: accountID}, Name: *in.Name}, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/accounts/"+testAcctID, `{"name":"Renamed"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Name == nil || *got.Name != "Renamed" {
			t.Errorf("expected name Renamed, got %v", got.Name)
		}
		if got.Description != nil || got.IsActive != nil {
			t.Errorf("expected untouched fields to stay nil, got %+v", got)
		}
	})

	t.Run("returns_400_on_empty_name", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/accounts/"+testAcctID, `{"name":""}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_DeactivateAccount(t *testing.T) {
	t.Run("returns_200", func(t *testing.T) {
		var gotID string
		acctSvc := &mockAccountService{
			deactivateAccountFn: func(_, accountID string) error {
				gotID = accountID
				return nil
			},
		}
		audit := &mockAuditService{}
		r := setupAccountRouter(NewAccountHandler(acctSvc, audit))

		rec := doRequest(r, "DELETE", "/accounts/"+testAcctID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotID != testAcctID {
			t.Errorf("expected %s, got %s", testAcctID, gotID)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "DEACTIVATE_ACCOUNT" {
			t.Errorf("unexpected audit entries %v", audit.entries)
		}
	})

	t.Run("returns_404_for_foreign_account", func(t *testing.T) {
		acctSvc := &mockAccountService{
			deactivateAccountFn: func(string, string) error { return apperrors.ErrAccountNotFound },
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/accounts/"+testAcct2ID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_GetTotalBalance(t *testing.T) {
	acctSvc := &mockAccountService{
		getTotalBalanceFn: func(string) (*services.TotalBalance, error) {
			return &services.TotalBalance{Total: money.MustParse("1149.75"), Currency: "USD", AccountCount: 2}, nil
		},
	}
	r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/accounts/total-balance", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"total":1149.75`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
