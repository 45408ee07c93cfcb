package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cuentas/internal/handlers"
	"cuentas/internal/logger"
	"cuentas/internal/middleware"
	"cuentas/internal/models"
	"cuentas/internal/services"
	"cuentas/internal/storage"
	"cuentas/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Mailer *recordingMailer
}

// recordingMailer captures outgoing reset mail instead of dialing SMTP.
type recordingMailer struct {
	Sent []sentMail
}

type sentMail struct {
	To       string
	Username string
	ResetURL string
}

func (m *recordingMailer) SendPasswordReset(to, username, resetURL string) error {
	m.Sent = append(m.Sent, sentMail{To: to, Username: username, ResetURL: resetURL})
	return nil
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

	if err := db.AutoMigrate(&models.User{}, &models.Transaction{}, &models.Budget{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	receiptStore, err := storage.NewReceiptStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create receipt store: %v", err)
	}

	// Services
	userService := services.NewUserService(db, receiptStore)
	transactionService := services.NewTransactionService(db, receiptStore)
	budgetService := services.NewBudgetService(db)
	reportService := services.NewReportService(db)

	// Handlers
	mail := &recordingMailer{}
	authHandler := handlers.NewAuthHandler(userService, mail)
	transactionHandler := handlers.NewTransactionHandler(transactionService, budgetService, receiptStore)
	reportHandler := handlers.NewReportHandler(reportService, userService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/forgotpassword", authHandler.ForgotPassword)
	auth.PUT("/resetpassword/:resettoken", authHandler.ResetPassword)
	auth.DELETE("/me", middleware.AuthMiddleware(), authHandler.DeleteMe)

	protected := api.Group("", middleware.AuthMiddleware())

	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.POST("/budget", transactionHandler.SetBudget)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	protected.GET("/reports/excel", reportHandler.DownloadExcel)

	return &testApp{DB: db, Router: router, Mailer: mail}
}

// request makes a JSON HTTP request to the test router and returns the recorder.
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

// formRequest posts a urlencoded form, the way the transaction endpoints
// are called without a receipt attachment.
func (app *testApp) formRequest(method, path string, form url.Values, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
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

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, username, email, password string) (token string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":%q,"password":%q}`, username, email, password)
	rec := app.request("POST", "/api/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(float64)
}

// loginUser logs in and returns the token.
func (app *testApp) loginUser(t *testing.T, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["token"].(string)
}

// createTransaction posts a movement and returns its ID.
func (app *testApp) createTransaction(t *testing.T, token, kind, amount, description, category, date string) float64 {
	t.Helper()
	form := url.Values{
		"kind":        {kind},
		"amount":      {amount},
		"description": {description},
		"category":    {category},
	}
	if date != "" {
		form.Set("date", date)
	}
	rec := app.formRequest("POST", "/api/transactions", form, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	tx := result["transaction"].(map[string]interface{})
	return tx["id"].(float64)
}
