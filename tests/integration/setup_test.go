package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fundledger/internal/handlers"
	"fundledger/internal/logger"
	"fundledger/internal/middleware"
	"fundledger/internal/models"
	"fundledger/internal/services"
	"fundledger/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.Fund{},
		&models.Issuer{},
		&models.ShareClass{},
		&models.PurchaseLot{},
		&models.Disposal{},
		&models.CorporateAction{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	locks := services.NewKeyLocks()
	registryService := services.NewRegistryService(db)
	lotStore := services.NewLotStore()
	rescaler := services.NewRescaler(lotStore)
	costBasisService := services.NewCostBasisService(db, lotStore, locks)
	ledgerService := services.NewLedgerService(db, registryService, lotStore, rescaler, costBasisService, locks)

	// Handlers
	registryHandler := handlers.NewRegistryHandler(registryService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware())

	v1.POST("/funds", registryHandler.CreateFund)
	v1.GET("/funds", registryHandler.ListFunds)
	v1.GET("/funds/:id/holdings", ledgerHandler.GetFundHoldings)
	v1.POST("/issuers", registryHandler.CreateIssuer)
	v1.GET("/issuers", registryHandler.ListIssuers)
	v1.POST("/issuers/:id/share-classes", registryHandler.CreateShareClass)
	v1.GET("/issuers/:id/share-classes", registryHandler.ListShareClasses)

	ledger := v1.Group("/ledger")
	ledger.POST("/purchases", ledgerHandler.RecordPurchase)
	ledger.GET("/lots", ledgerHandler.ListLots)
	ledger.POST("/disposals", ledgerHandler.RecordDisposal)
	ledger.GET("/disposals", ledgerHandler.ListDisposals)
	ledger.GET("/disposals/:id", ledgerHandler.GetDisposal)
	ledger.POST("/corporate-actions", ledgerHandler.RecordCorporateAction)
	ledger.GET("/corporate-actions", ledgerHandler.ListCorporateActions)
	ledger.POST("/recompute", ledgerHandler.Recompute)

	return &testApp{DB: db, Router: router}
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

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// serviceToken issues a signed token for the test caller.
func serviceToken(t *testing.T) string {
	t.Helper()
	token, err := middleware.GenerateServiceToken("portal-test")
	if err != nil {
		t.Fatalf("failed to generate service token: %v", err)
	}
	return token
}

// errorCode extracts the error code from an error response body.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	result := parseJSON(t, rec)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// registerSecurityKey registers a fund, issuer and share class over the API
// and returns their IDs.
func (app *testApp) registerSecurityKey(t *testing.T, token string) (fundID, issuerID, shareClassID float64) {
	t.Helper()

	n := dbCounter.Add(1)
	rec := app.request("POST", "/api/v1/funds",
		fmt.Sprintf(`{"name":"Fund %d","registration_number":"IN/AIF/%06d","currency":"INR"}`, n, n), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("fund registration failed: %d %s", rec.Code, rec.Body.String())
	}
	fundID = parseJSON(t, rec)["id"].(float64)

	rec = app.request("POST", "/api/v1/issuers",
		fmt.Sprintf(`{"name":"Issuer %d","cin":"U%020d","sector":"Technology"}`, n, n), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("issuer registration failed: %d %s", rec.Code, rec.Body.String())
	}
	issuerID = parseJSON(t, rec)["id"].(float64)

	rec = app.request("POST", fmt.Sprintf("/api/v1/issuers/%.0f/share-classes", issuerID),
		`{"name":"Equity","face_value":"10"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("share class registration failed: %d %s", rec.Code, rec.Body.String())
	}
	shareClassID = parseJSON(t, rec)["id"].(float64)

	return fundID, issuerID, shareClassID
}
