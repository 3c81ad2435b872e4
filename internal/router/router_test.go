package router_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"financehub/internal/config"
	"financehub/internal/events"
	"financehub/internal/logger"
	"financehub/internal/router"
	"financehub/internal/testutil"
	"financehub/internal/validator"
)

const testAPIKey = "ops-key"

// testApp holds the full application stack for router tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Events *events.Recorder
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()

	cfg := config.Default()
	cfg.Auth.JWTSecret = "router-test-secret"
	cfg.Auth.JWTExpiration = time.Hour
	config.Set(cfg)
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	recorder := &events.Recorder{}
	svc := router.NewServices(db, recorder)
	engine := router.New(svc, router.Options{
		InternalAPIKey:       testAPIKey,
		ReconcileConcurrency: 2,
	})
	return &testApp{DB: db, Router: engine, Events: recorder}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, code string) {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %v", code, errObj["code"])
	}
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"password123","first_name":"Test","last_name":"User"}`, email)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	expectStatus(t, rec, http.StatusCreated)
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

// createAccount opens an account and returns its ID.
func (app *testApp) createAccount(t *testing.T, token, name, opening string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":"CHECKING","opening_balance":%q}`, name, opening)
	rec := app.request("POST", "/api/v1/accounts", body, token)
	expectStatus(t, rec, http.StatusCreated)
	return parseJSON(t, rec)["account"].(map[string]interface{})["id"].(string)
}

// balance reads an account's current balance.
func (app *testApp) balance(t *testing.T, token, accountID string) float64 {
	t.Helper()
	rec := app.request("GET", "/api/v1/accounts/"+accountID, "", token)
	expectStatus(t, rec, http.StatusOK)
	return parseJSON(t, rec)["account"].(map[string]interface{})["balance"].(float64)
}

func (app *testApp) expectBalance(t *testing.T, token, accountID string, want float64) {
	t.Helper()
	if got := app.balance(t, token, accountID); got != want {
		t.Errorf("expected balance %.2f, got %.2f", want, got)
	}
}

// createTransaction posts a ledger entry and returns its ID.
func (app *testApp) createTransaction(t *testing.T, token, body string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/transactions", body, token)
	expectStatus(t, rec, http.StatusCreated)
	return parseJSON(t, rec)["transaction"].(map[string]interface{})["id"].(string)
}

func TestHealthAndSwagger(t *testing.T) {
	app := setupApp(t)

	t.Run("health", func(t *testing.T) {
		rec := app.request("GET", "/api/health", "", "")
		expectStatus(t, rec, http.StatusOK)
		if parseJSON(t, rec)["status"] != "ok" {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("swagger_doc", func(t *testing.T) {
		rec := app.request("GET", "/swagger/doc.json", "", "")
		expectStatus(t, rec, http.StatusOK)
		if !strings.Contains(rec.Body.String(), "/transactions/{id}") {
			t.Error("expected registered paths in swagger doc")
		}
	})

	t.Run("cors_preflight", func(t *testing.T) {
		rec := app.request("OPTIONS", "/api/v1/accounts", "", "")
		expectStatus(t, rec, http.StatusNoContent)
	})
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)
	token, userID := app.registerUser(t, "owner@example.com")

	t.Run("profile_resolves_owner", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/profile", "", token)
		expectStatus(t, rec, http.StatusOK)
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["id"] != userID || user["email"] != "owner@example.com" {
			t.Errorf("unexpected profile %v", user)
		}
	})

	t.Run("login", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/auth/login", `{"email":"owner@example.com","password":"password123"}`, "")
		expectStatus(t, rec, http.StatusOK)
		if parseJSON(t, rec)["token"] == "" {
			t.Error("expected a token")
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/auth/login", `{"email":"owner@example.com","password":"nope-nope"}`, "")
		expectStatus(t, rec, http.StatusUnauthorized)
		expectErrorCode(t, rec, "INVALID_CREDENTIALS")
	})

	t.Run("duplicate_email", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/auth/register", `{"email":"OWNER@example.com","password":"password123"}`, "")
		expectStatus(t, rec, http.StatusConflict)
		expectErrorCode(t, rec, "DUPLICATE_EMAIL")
	})

	t.Run("missing_token", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/accounts", "", "")
		expectStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("garbage_token", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/accounts", "", "not-a-jwt")
		expectStatus(t, rec, http.StatusUnauthorized)
	})
}

func TestInternalReconcileRoute(t *testing.T) {
	app := setupApp(t)
	token, userID := app.registerUser(t, "ops@example.com")
	acct := app.createAccount(t, token, "Checking", "1000")
	app.createTransaction(t, token, fmt.Sprintf(`{"account_id":%q,"type":"EXPENSE","amount":"125.25"}`, acct))

	reconcileReq := func(body, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/v1/internal/reconcile", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("rejects_missing_key", func(t *testing.T) {
		rec := reconcileReq("{}", "")
		expectStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("clean_after_service_operations", func(t *testing.T) {
		rec := reconcileReq("{}", testAPIKey)
		expectStatus(t, rec, http.StatusOK)
		if parseJSON(t, rec)["clean"] != true {
			t.Errorf("expected no drift, got %s", rec.Body.String())
		}
	})

	t.Run("detects_and_fixes_tamper", func(t *testing.T) {
		if err := app.DB.Exec("UPDATE accounts SET balance = ? WHERE id = ?", "5.00", acct).Error; err != nil {
			t.Fatalf("tamper failed: %v", err)
		}

		rec := reconcileReq(fmt.Sprintf(`{"owner_id":%q}`, userID), testAPIKey)
		expectStatus(t, rec, http.StatusOK)
		if parseJSON(t, rec)["clean"] != false {
			t.Fatalf("expected drift, got %s", rec.Body.String())
		}
		app.expectBalance(t, token, acct, 5)

		rec = reconcileReq(fmt.Sprintf(`{"owner_id":%q,"fix":true}`, userID), testAPIKey)
		expectStatus(t, rec, http.StatusOK)
		app.expectBalance(t, token, acct, 874.75)

		rec = reconcileReq("{}", testAPIKey)
		if parseJSON(t, rec)["clean"] != true {
			t.Errorf("expected clean after fix, got %s", rec.Body.String())
		}
	})
}
