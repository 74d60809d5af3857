package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ecobhandu-be/middlewares"
	"ecobhandu-be/models"
	"ecobhandu-be/services"
	"ecobhandu-be/store/memstore"
	authUtils "ecobhandu-be/utils"
)

type testApp struct {
	router  *gin.Engine
	reports *memstore.Reports
	users   *memstore.Users
	wallets *memstore.Wallets
	claims  *memstore.Claims
	events  *memstore.Recorder
	tokens  *authUtils.TokenIssuer
	auth    *services.AuthService
	tasks   *services.TaskService
	logs    *observer.ObservedLogs
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())

	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	tokens, err := authUtils.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	a := &testApp{
		reports: memstore.NewReports(),
		users:   memstore.NewUsers(),
		wallets: memstore.NewWallets(),
		claims:  &memstore.Claims{},
		events:  &memstore.Recorder{},
		tokens:  tokens,
		logs:    logs,
	}
	a.auth = services.NewAuthService(a.users, tokens, log)
	reportSvc := services.NewReportService(a.reports, a.users, a.events, log)
	a.tasks = services.NewTaskService(a.reports, a.events, models.AllStatuses, log)
	rewardSvc := services.NewRewardService(a.reports, a.wallets, a.claims, log)

	authCtrl := NewAuthController(a.auth, CookieOptions{MaxAge: time.Hour}, log)
	reportCtrl := NewReportController(reportSvc, a.tasks, log)
	volunteerCtrl := NewVolunteerController(a.tasks, log)
	rewardCtrl := NewRewardController(rewardSvc, log)

	r := gin.New()
	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", authCtrl.Signup)
	auth.POST("/signin", authCtrl.Signin)
	auth.POST("/signout", authCtrl.Signout)
	auth.GET("/me", middlewares.AuthMiddleware(tokens, log), authCtrl.Me)

	reports := api.Group("/reports", middlewares.OptionalAuth(tokens))
	reports.POST("", reportCtrl.CreateReport)
	reports.GET("", reportCtrl.ListReports)
	reports.GET("/stats/summary", reportCtrl.Stats)
	reports.GET("/:id", reportCtrl.GetReport)
	reports.PATCH("/:id/status", reportCtrl.UpdateStatus)
	reports.PATCH("/:id/resolve", reportCtrl.ResolveReport)
	reports.POST("/:id/upvote", reportCtrl.UpvoteReport)
	reports.POST("/:id/comment", reportCtrl.AddComment)
	reports.DELETE("/:id", reportCtrl.DeleteReport)

	api.GET("/volunteers/:id/stats", volunteerCtrl.Stats)

	rewards := api.Group("/rewards", middlewares.OptionalAuth(tokens))
	rewards.GET("", rewardCtrl.Catalog)
	rewards.GET("/balance", rewardCtrl.Balance)
	rewards.GET("/claims", rewardCtrl.ListClaims)
	rewards.POST("/claim", rewardCtrl.Claim)

	a.router = r
	return a
}

// signup registers a user and returns it together with a session token.
func (a *testApp) signup(t *testing.T, email string, role models.Role) (*models.User, string) {
	t.Helper()
	ctx := context.Background()
	u, err := a.auth.Signup(ctx, services.SignupInput{Name: "Test", Email: email, Password: "secret1", Role: string(role)})
	require.NoError(t, err)
	_, token, err := a.auth.Signin(ctx, services.SigninInput{Email: email, Password: "secret1"})
	require.NoError(t, err)
	return u, token
}

func (a *testApp) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

func reportBody(userID string) gin.H {
	return gin.H{
		"userId":      userID,
		"category":    "Waste Dumping",
		"description": "Garbage pile near the river bank",
		"location":    "Riverside Road",
		"severity":    "Major",
		"coordinates": gin.H{"latitude": 27.7172, "longitude": 85.324},
	}
}

// createReport submits a report as the given user and returns its id.
func (a *testApp) createReport(t *testing.T, userID string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/reports", reportBody(userID), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		ID string `json:"id"`
	}](t, w).ID
}
