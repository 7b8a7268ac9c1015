package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-collection-search/internal/engine"
	testutil "github.com/gcbaptista/go-collection-search/internal/testing"
	"github.com/gcbaptista/go-collection-search/model"
)

func setupTestRouter(t *testing.T) (*engine.Engine, *gin.Engine) {
	t.Helper()
	eng := testutil.CreateTestEngine(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	SetupRoutes(router, eng, zap.NewNop())
	return eng, router
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}

func TestCreateProblemHandler(t *testing.T) {
	eng, router := setupTestRouter(t)
	testutil.CreateTestProblem(t, eng, "existing")

	badMembership := testutil.SampleDefinition("bad_membership")
	badMembership.Features[0].Membership = badMembership.Features[0].Membership[:4]

	badName := testutil.SampleDefinition("has space")

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{
			name:           "valid problem creation",
			requestBody:    testutil.SampleDefinition("created"),
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeInvalidJSON,
		},
		{
			name:           "missing problem name",
			requestBody:    testutil.SampleDefinition(""),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "membership rows do not match items",
			requestBody:    badMembership,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "name with space",
			requestBody:    badName,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "duplicate problem",
			requestBody:    testutil.SampleDefinition("existing"),
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrorCodeProblemExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/problems", tt.requestBody)
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedCode != "" {
				var apiErr APIError
				decode(t, w, &apiErr)
				assert.Equal(t, tt.expectedCode, apiErr.Code)
				assert.NotEmpty(t, apiErr.RequestID)
			}
		})
	}

	_, err := eng.GetProblem("created")
	assert.NoError(t, err)
}

func TestCreateProblemHandlerAsync(t *testing.T) {
	eng, router := setupTestRouter(t)

	w := doRequest(router, http.MethodPost, "/problems?async=true", testutil.SampleDefinition("async_created"))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var response map[string]interface{}
	decode(t, w, &response)
	jobID, _ := response["job_id"].(string)
	require.NotEmpty(t, jobID)

	job := testutil.WaitForJobCompletion(t, eng, jobID, testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeCreateProblem, "async_created")

	_, err := eng.GetProblem("async_created")
	assert.NoError(t, err)

	w = doRequest(router, http.MethodPost, "/problems?async=maybe", testutil.SampleDefinition("other"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAndGetProblemHandlers(t *testing.T) {
	eng, router := setupTestRouter(t)
	testutil.CreateTestProblem(t, eng, "beta")
	testutil.CreateTestProblem(t, eng, "alpha")

	w := doRequest(router, http.MethodGet, "/problems", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Problems []model.ProblemSummary `json:"problems"`
		Total    int                    `json:"total"`
	}
	decode(t, w, &list)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Problems, 2)
	assert.Equal(t, "alpha", list.Problems[0].Name)
	assert.True(t, list.Problems[0].Loaded)
	assert.Equal(t, 2, list.Problems[0].CollectionSize)

	w = doRequest(router, http.MethodGet, "/problems/alpha", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Summary    model.ProblemSummary    `json:"summary"`
		Definition model.ProblemDefinition `json:"definition"`
	}
	decode(t, w, &detail)
	assert.Equal(t, 6, detail.Summary.ItemCount)
	assert.False(t, detail.Summary.Executed)
	assert.Equal(t, "alpha", detail.Definition.Name)
	assert.Len(t, detail.Definition.Items, 6)

	w = doRequest(router, http.MethodGet, "/problems/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExecuteAndResultsHandlers(t *testing.T) {
	eng, router := setupTestRouter(t)
	testutil.CreateTestProblem(t, eng, "sample")

	w := doRequest(router, http.MethodGet, "/problems/sample/results", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "results before execution")

	w = doRequest(router, http.MethodPost, "/problems/sample/_execute", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary model.ExecutionSummary
	decode(t, w, &summary)
	assert.Equal(t, "sample", summary.Problem)
	assert.Equal(t, 3, summary.Retained)
	assert.Equal(t, 1, summary.Culled)
	assert.NotEmpty(t, summary.ExecutionID)
	assert.Equal(t, int64(3), summary.Counters["Added"])

	w = doRequest(router, http.MethodGet, "/problems/sample/results?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page model.ResultsPage
	decode(t, w, &page)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Collections, 2)
	assert.Equal(t, float32(11), page.Collections[0].Value)
	assert.ElementsMatch(t, []string{"a", "d"}, page.Collections[0].ItemIDs)
	assert.Equal(t, float32(2), page.Collections[0].Cost)
	testutil.AssertRanked(t, page.Collections)

	w = doRequest(router, http.MethodGet, "/problems/sample/results?offset=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &page)
	require.Len(t, page.Collections, 1)
	assert.Equal(t, float32(9), page.Collections[0].Value)
	assert.Equal(t, 3, page.Collections[0].Rank)

	// Executing again starts from an empty store and gives the same answer.
	w = doRequest(router, http.MethodPost, "/problems/sample/_execute?verbosity=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &summary)
	assert.Equal(t, 3, summary.Retained)

	w = doRequest(router, http.MethodPost, "/problems/sample/_reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(router, http.MethodGet, "/problems/sample/results", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "results after reset")
}

func TestExecuteHandlerValidation(t *testing.T) {
	eng, router := setupTestRouter(t)
	testutil.CreateTestProblem(t, eng, "sample")

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"unknown problem", "/problems/missing/_execute", http.StatusNotFound},
		{"verbosity not a number", "/problems/sample/_execute?verbosity=abc", http.StatusBadRequest},
		{"verbosity out of range", "/problems/sample/_execute?verbosity=500", http.StatusBadRequest},
		{"bad async flag", "/problems/sample/_execute?async=yes", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, tt.path, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}

	for _, path := range []string{
		"/problems/sample/results?offset=-1",
		"/problems/sample/results?limit=0",
		"/problems/sample/results?limit=abc",
	} {
		w := doRequest(router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestExecuteProblemHandlerAsync(t *testing.T) {
	eng, router := setupTestRouter(t)
	testutil.CreateTestProblem(t, eng, "sample")

	w := doRequest(router, http.MethodPost, "/problems/sample/_execute?async=true", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	var response map[string]interface{}
	decode(t, w, &response)
	jobID := response["job_id"].(string)

	job := testutil.WaitForJobCompletion(t, eng, jobID, testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeExecute, "sample")
	require.NotNil(t, job.Result)
	assert.Equal(t, 3, job.Result.Retained)

	w = doRequest(router, http.MethodGet, "/jobs/"+jobID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched model.Job
	decode(t, w, &fetched)
	assert.Equal(t, model.JobStatusCompleted, fetched.Status)

	w = doRequest(router, http.MethodGet, "/problems/sample/jobs?status=completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var jobs struct {
		Jobs        []model.Job `json:"jobs"`
		ProblemName string      `json:"problem_name"`
		Total       int         `json:"total"`
	}
	decode(t, w, &jobs)
	assert.Equal(t, 1, jobs.Total)
	assert.Equal(t, "sample", jobs.ProblemName)

	w = doRequest(router, http.MethodPost, "/problems/missing/_execute?async=true", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBatchExecuteHandler(t *testing.T) {
	eng, router := setupTestRouter(t)
	testutil.CreateTestProblem(t, eng, "one")
	require.NoError(t, eng.CreateProblem(testutil.RandomDefinition("two", 7, []int{5, 5, 4}, []int{1, 2, 1}, 3)))

	w := doRequest(router, http.MethodPost, "/_execute", BatchExecuteRequest{Problems: []string{"two", "one"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var batch struct {
		Executions []model.ExecutionSummary `json:"executions"`
		Total      int                      `json:"total"`
	}
	decode(t, w, &batch)
	require.Equal(t, 2, batch.Total)
	assert.Equal(t, "two", batch.Executions[0].Problem)
	assert.Equal(t, "one", batch.Executions[1].Problem)
	assert.Equal(t, 3, batch.Executions[1].Retained)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{"empty list", BatchExecuteRequest{}, http.StatusBadRequest},
		{"duplicate names", BatchExecuteRequest{Problems: []string{"one", "one"}}, http.StatusBadRequest},
		{"unknown problem", BatchExecuteRequest{Problems: []string{"one", "missing"}}, http.StatusNotFound},
		{"invalid JSON", "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/_execute", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}

	w = doRequest(router, http.MethodPost, "/_execute?async=true", BatchExecuteRequest{Problems: []string{"one", "two"}})
	require.Equal(t, http.StatusAccepted, w.Code)
	var response map[string]interface{}
	decode(t, w, &response)
	job := testutil.WaitForJobCompletion(t, eng, response["job_id"].(string), testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeBatchExecute, "")
	require.NotNil(t, job.Progress)
	assert.Equal(t, 2, job.Progress.Current)
}

func TestEstimateProblemHandler(t *testing.T) {
	eng, router := setupTestRouter(t)
	testutil.CreateTestProblem(t, eng, "sample")

	w := doRequest(router, http.MethodGet, "/problems/sample/estimate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Problem  string  `json:"problem"`
		Estimate float64 `json:"log10_state_space"`
	}
	decode(t, w, &response)

	want, err := eng.EstimateProblem("sample")
	require.NoError(t, err)
	assert.Equal(t, "sample", response.Problem)
	assert.InDelta(t, want, response.Estimate, 1e-9)
	assert.Greater(t, response.Estimate, 0.0)

	w = doRequest(router, http.MethodGet, "/problems/missing/estimate", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProblemHandler(t *testing.T) {
	eng, router := setupTestRouter(t)
	testutil.CreateTestProblem(t, eng, "sync_delete")
	testutil.CreateTestProblem(t, eng, "async_delete")

	w := doRequest(router, http.MethodDelete, "/problems/sync_delete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(router, http.MethodDelete, "/problems/sync_delete", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodDelete, "/problems/async_delete?async=true", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	var response map[string]interface{}
	decode(t, w, &response)
	job := testutil.WaitForJobCompletion(t, eng, response["job_id"].(string), testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeDeleteProblem, "async_delete")

	assert.Empty(t, eng.ListProblems())
}

func TestJobHandlers(t *testing.T) {
	_, router := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/jobs/no-such-job", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var apiErr APIError
	decode(t, w, &apiErr)
	assert.Equal(t, ErrorCodeJobNotFound, apiErr.Code)

	w = doRequest(router, http.MethodGet, "/jobs/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var metrics map[string]interface{}
	decode(t, w, &metrics)
	assert.Contains(t, metrics, "metrics")
	assert.Contains(t, metrics, "success_rate")
	assert.Contains(t, metrics, "current_workload")
}

func TestMetricsEndpoint(t *testing.T) {
	eng, router := setupTestRouter(t)
	testutil.CreateTestProblem(t, eng, "sample")

	w := doRequest(router, http.MethodPost, "/problems/sample/_execute", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "collection_search_executions_total"), "metrics body lacks executions counter")
	assert.True(t, strings.Contains(body, `collection_search_retained_collections{problem="sample"} 3`))
}

func TestHealthCheckHandler(t *testing.T) {
	_, router := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	decode(t, w, &response)
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, float64(0), response["problems"])
}

func TestRequestIDMiddleware(t *testing.T) {
	_, router := setupTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/problems/missing", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	var apiErr APIError
	decode(t, w, &apiErr)
	assert.Equal(t, "req-42", apiErr.RequestID)
	assert.Equal(t, ErrorCodeProblemNotFound, apiErr.Code)
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	eng := testutil.CreateTestEngine(t)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestSizeLimitMiddleware(64))
	SetupRoutes(router, eng, nil)

	w := doRequest(router, http.MethodPost, "/problems", testutil.SampleDefinition("too_big"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, eng.ListProblems())
}
