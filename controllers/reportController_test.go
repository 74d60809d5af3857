package controllers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecobhandu-be/models"
)

func TestCreateReport(t *testing.T) {
	app := newTestApp(t)
	citizen, _ := app.signup(t, "asha@example.com", models.Citizen)

	w := app.do(t, http.MethodPost, "/api/reports", reportBody(citizen.ID.Hex()), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[struct {
		ID      string        `json:"id"`
		Message string        `json:"message"`
		Report  models.Report `json:"report"`
	}](t, w)
	assert.Equal(t, "Report submitted successfully", resp.Message)
	assert.Equal(t, resp.ID, resp.Report.ID.Hex())
	assert.Equal(t, models.Pending, resp.Report.Status)
	assert.Equal(t, models.Major, resp.Report.Severity)
	assert.Equal(t, 27.7172, resp.Report.Coordinates.Latitude)

	w = app.do(t, http.MethodGet, "/api/reports/"+resp.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.Report](t, w)
	assert.Equal(t, "Waste Dumping", got.Category)
	assert.Equal(t, citizen.ID, got.UserID)
}

func TestCreateReport_TokenIdentityWins(t *testing.T) {
	app := newTestApp(t)
	citizen, token := app.signup(t, "asha@example.com", models.Citizen)

	w := app.do(t, http.MethodPost, "/api/reports", reportBody(primitive.NewObjectID().Hex()), token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	report := decode[struct {
		Report models.Report `json:"report"`
	}](t, w).Report
	assert.Equal(t, citizen.ID, report.UserID)
}

func TestCreateReport_Validation(t *testing.T) {
	app := newTestApp(t)
	citizen, _ := app.signup(t, "asha@example.com", models.Citizen)

	tests := []struct {
		name    string
		body    any
		code    int
		message string
	}{
		{
			name:    "malformed json",
			body:    `{"category":`,
			code:    http.StatusBadRequest,
			message: "Invalid request body",
		},
		{
			name: "unknown severity",
			body: func() gin.H {
				b := reportBody(citizen.ID.Hex())
				b["severity"] = "Catastrophic"
				return b
			}(),
			code:    http.StatusBadRequest,
			message: "Invalid severity",
		},
		{
			name: "missing coordinates",
			body: func() gin.H {
				b := reportBody(citizen.ID.Hex())
				delete(b, "coordinates")
				return b
			}(),
			code: http.StatusBadRequest,
		},
		{
			name: "empty body",
			body: nil,
			code: http.StatusBadRequest,
		},
		{
			name: "unknown user",
			body: reportBody(primitive.NewObjectID().Hex()),
			code: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(t, http.MethodPost, "/api/reports", tt.body, "")
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			msg := errorOf(t, w)
			assert.NotEmpty(t, msg)
			if tt.message != "" {
				assert.Equal(t, tt.message, msg)
			}
		})
	}
	assert.Zero(t, app.reports.Len())
}

func TestCreateReport_StoreFailureIsHidden(t *testing.T) {
	app := newTestApp(t)
	citizen, _ := app.signup(t, "asha@example.com", models.Citizen)
	app.reports.FailInsert = errors.New("connection reset by peer")

	w := app.do(t, http.MethodPost, "/api/reports", reportBody(citizen.ID.Hex()), "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Something went wrong", errorOf(t, w))
	assert.NotContains(t, w.Body.String(), "connection reset")
	assert.Equal(t, 1, app.logs.FilterMessage("request failed").Len())
}

func TestGetReport_NotFound(t *testing.T) {
	app := newTestApp(t)

	for _, id := range []string{"not-an-id", primitive.NewObjectID().Hex()} {
		w := app.do(t, http.MethodGet, "/api/reports/"+id, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code, id)
		assert.Equal(t, "Report not found", errorOf(t, w))
	}
}

func TestListReports(t *testing.T) {
	app := newTestApp(t)
	citizen, _ := app.signup(t, "asha@example.com", models.Citizen)
	app.createReport(t, citizen.ID.Hex())
	app.createReport(t, citizen.ID.Hex())

	w := app.do(t, http.MethodGet, "/api/reports?severity=Major&limit=1", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		Count   int             `json:"count"`
		Reports []models.Report `json:"reports"`
	}](t, w)
	assert.Equal(t, 1, resp.Count)
	assert.Len(t, resp.Reports, 1)

	w = app.do(t, http.MethodGet, "/api/reports?status=Resolved", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0,"reports":[]}`, w.Body.String())

	w = app.do(t, http.MethodGet, "/api/reports?status=Done", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid status", errorOf(t, w))

	w = app.do(t, http.MethodGet, "/api/reports?limit=-1", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "limit must be at least 1", errorOf(t, w))
}

func TestUpdateStatus_Workflow(t *testing.T) {
	app := newTestApp(t)
	citizen, _ := app.signup(t, "asha@example.com", models.Citizen)
	volunteer, token := app.signup(t, "vik@example.com", models.Volunteer)
	id := app.createReport(t, citizen.ID.Hex())
	path := "/api/reports/" + id

	w := app.do(t, http.MethodPatch, path+"/status", gin.H{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "status is required", errorOf(t, w))

	w = app.do(t, http.MethodPatch, path+"/status", gin.H{"status": "Done"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid status", errorOf(t, w))

	w = app.do(t, http.MethodPatch, path+"/status", gin.H{"status": "Pending", "assignedTo": volunteer.ID.Hex()}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(t, http.MethodPatch, path+"/status", gin.H{"status": string(models.InProgress), "assignedTo": primitive.NewObjectID().Hex()}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Report is already assigned to another volunteer", errorOf(t, w))

	w = app.do(t, http.MethodPatch, path+"/status", gin.H{"status": string(models.InProgress), "assignedTo": volunteer.ID.Hex()}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[struct {
		Report models.Report `json:"report"`
	}](t, w).Report
	assert.Equal(t, models.InProgress, report.Status)

	w = app.do(t, http.MethodPatch, path+"/resolve", gin.H{"notes": "Cleared"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report = decode[struct {
		Report models.Report `json:"report"`
	}](t, w).Report
	assert.Equal(t, models.Resolved, report.Status)
	require.NotNil(t, report.ResolvedBy)
	assert.Equal(t, volunteer.ID, *report.ResolvedBy)

	w = app.do(t, http.MethodPatch, path+"/status", gin.H{"status": "Pending"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodGet, "/api/volunteers/"+volunteer.ID.Hex()+"/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tasksCompleted":1,"inProgress":0,"ecoPoints":10}`, w.Body.String())
}

func TestResolveReport_RequiresUser(t *testing.T) {
	app := newTestApp(t)
	citizen, _ := app.signup(t, "asha@example.com", models.Citizen)
	id := app.createReport(t, citizen.ID.Hex())

	w := app.do(t, http.MethodPatch, "/api/reports/"+id+"/resolve", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid user ID", errorOf(t, w))
}

func TestUpvoteReport_Toggles(t *testing.T) {
	app := newTestApp(t)
	citizen, token := app.signup(t, "asha@example.com", models.Citizen)
	id := app.createReport(t, citizen.ID.Hex())

	w := app.do(t, http.MethodPost, "/api/reports/"+id+"/upvote", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"Report upvoted","upvoted":true,"upvotes":1}`, w.Body.String())

	w = app.do(t, http.MethodPost, "/api/reports/"+id+"/upvote", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Upvote removed","upvoted":false,"upvotes":0}`, w.Body.String())
}

func TestAddComment(t *testing.T) {
	app := newTestApp(t)
	citizen, _ := app.signup(t, "asha@example.com", models.Citizen)
	id := app.createReport(t, citizen.ID.Hex())

	w := app.do(t, http.MethodPost, "/api/reports/"+id+"/comment", gin.H{
		"userId":   citizen.ID.Hex(),
		"userName": "Asha",
		"comment":  "Still there",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		Comment models.Comment `json:"comment"`
	}](t, w)
	assert.Equal(t, "Still there", resp.Comment.Comment)

	w = app.do(t, http.MethodPost, "/api/reports/"+id+"/comment", gin.H{"userId": citizen.ID.Hex(), "comment": " "}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteReport(t *testing.T) {
	app := newTestApp(t)
	citizen, _ := app.signup(t, "asha@example.com", models.Citizen)
	_, otherToken := app.signup(t, "ravi@example.com", models.Citizen)
	id := app.createReport(t, citizen.ID.Hex())

	w := app.do(t, http.MethodDelete, "/api/reports/"+id, nil, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Unauthorized to delete this report", errorOf(t, w))

	w = app.do(t, http.MethodDelete, "/api/reports/"+id+"?userId="+citizen.ID.Hex(), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Zero(t, app.reports.Len())

	w = app.do(t, http.MethodDelete, "/api/reports/"+id+"?userId="+citizen.ID.Hex(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportStats(t *testing.T) {
	app := newTestApp(t)
	citizen, _ := app.signup(t, "asha@example.com", models.Citizen)
	app.createReport(t, citizen.ID.Hex())

	w := app.do(t, http.MethodGet, "/api/reports/stats/summary", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[models.ReportStats](t, w)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, []models.GroupCount{{Name: "Major", Count: 1}}, stats.BySeverity)
}

func TestResponses_UseDocumentIDKeys(t *testing.T) {
	app := newTestApp(t)
	citizen, _ := app.signup(t, "asha@example.com", models.Citizen)
	volunteer, token := app.signup(t, "vik@example.com", models.Volunteer)

	w := app.do(t, http.MethodPost, "/api/reports", reportBody(citizen.ID.Hex()), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	id, ok := created["id"].(string)
	require.True(t, ok, "create response keeps a top-level id")
	report := created["report"].(map[string]any)
	assert.Equal(t, id, report["_id"])
	assert.NotContains(t, report, "id")

	w = app.do(t, http.MethodPost, "/api/reports/"+id+"/comment", gin.H{"userId": citizen.ID.Hex(), "comment": "Still there"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	comment := decode[map[string]any](t, w)["comment"].(map[string]any)
	assert.Contains(t, comment, "_id")
	assert.NotContains(t, comment, "id")

	w = app.do(t, http.MethodGet, "/api/reports/stats/summary", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[map[string]any](t, w)
	byStatus := stats["byStatus"].([]any)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "Pending", byStatus[0].(map[string]any)["_id"])

	app.earn(volunteer.ID, 12)
	w = app.do(t, http.MethodPost, "/api/rewards/claim", gin.H{"rewardId": "water-bottle"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	claim := decode[map[string]any](t, w)["claim"].(map[string]any)
	assert.Contains(t, claim, "_id")
	assert.NotContains(t, claim, "id")
}
