package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-collection-search/internal/search"
)

// BatchExecuteRequest names the problems of a batch execution.
type BatchExecuteRequest struct {
	Problems  []string `json:"problems"`
	Verbosity uint     `json:"verbosity"`
}

// ExecuteProblemHandler runs the search of one problem. Earlier results are
// discarded. ?verbosity= sets the diagnostic mask; ?async=true runs the
// search in a job whose result is the execution summary.
func (api *API) ExecuteProblemHandler(c *gin.Context) {
	name := c.Param("name")

	verbosity, result := ParseVerbosity(c.Query("verbosity"))
	if result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}
	async, asyncResult := ParseAsync(c.Query("async"))
	if asyncResult.HasErrors() {
		SendStructuredValidationError(c, asyncResult)
		return
	}

	if async {
		asyncManager, ok := api.asyncEngine()
		if !ok {
			SendNotSupportedError(c, "Asynchronous execution")
			return
		}
		jobID, err := asyncManager.ExecuteProblemAsync(name, verbosity)
		if err != nil {
			SendEngineError(c, "execution", name, err)
			return
		}
		sendAccepted(c, "Execution started for '"+name+"'", jobID)
		return
	}

	summary, err := api.engine.ExecuteProblem(name, verbosity)
	if err != nil {
		SendEngineError(c, "execution", name, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetResultsHandler pages the ranked collections of an executed problem.
// Query: offset (default 0), limit (default 100).
func (api *API) GetResultsHandler(c *gin.Context) {
	name := c.Param("name")

	offset, limit, result := ParsePagination(c.Query("offset"), c.Query("limit"))
	if result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	page, err := api.engine.Results(name, offset, limit)
	if err != nil {
		SendEngineError(c, "result retrieval", name, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// BatchExecuteHandler runs several problems concurrently.
// Request Body: BatchExecuteRequest. With ?async=true the batch runs in a job.
func (api *API) BatchExecuteHandler(c *gin.Context) {
	async, asyncResult := ParseAsync(c.Query("async"))
	if asyncResult.HasErrors() {
		SendStructuredValidationError(c, asyncResult)
		return
	}

	var req BatchExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateBatchRequest(&req); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}
	verbosity := search.Verbosity(req.Verbosity)

	if async {
		asyncManager, ok := api.asyncEngine()
		if !ok {
			SendNotSupportedError(c, "Asynchronous batch execution")
			return
		}
		jobID, err := asyncManager.ExecuteManyAsync(req.Problems, verbosity)
		if err != nil {
			SendEngineError(c, "batch execution", "", err)
			return
		}
		sendAccepted(c, "Batch execution started", jobID)
		return
	}

	summaries, err := api.engine.ExecuteMany(c.Request.Context(), req.Problems, verbosity)
	if err != nil {
		SendEngineError(c, "batch execution", "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"executions": summaries,
		"total":      len(summaries),
	})
}
