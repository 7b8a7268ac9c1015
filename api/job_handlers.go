package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-collection-search/internal/engine"
	"github.com/gcbaptista/go-collection-search/model"
	"github.com/gcbaptista/go-collection-search/services"
)

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	if jobManager, ok := api.engine.(services.JobManager); ok {
		job, err := jobManager.GetJob(jobID)
		if err != nil {
			SendEngineError(c, "job lookup", jobID, err)
			return
		}

		c.JSON(http.StatusOK, job)
	} else {
		SendNotSupportedError(c, "Job management")
	}
}

// ListJobsHandler handles requests to list jobs for a problem
func (api *API) ListJobsHandler(c *gin.Context) {
	problemName := c.Param("name")
	statusParam := c.Query("status")

	var statusFilter *model.JobStatus
	if statusParam != "" {
		status := model.JobStatus(statusParam)
		statusFilter = &status
	}

	if jobManager, ok := api.engine.(services.JobManager); ok {
		jobs := jobManager.ListJobs(problemName, statusFilter)
		c.JSON(http.StatusOK, gin.H{
			"jobs":         jobs,
			"problem_name": problemName,
			"total":        len(jobs),
		})
	} else {
		SendNotSupportedError(c, "Job management")
	}
}

// GetJobMetricsHandler handles requests to get job performance metrics
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	if engineWithMetrics, ok := api.engine.(*engine.Engine); ok {
		metrics := engineWithMetrics.GetJobMetrics()

		c.JSON(http.StatusOK, gin.H{
			"metrics":          metrics,
			"success_rate":     engineWithMetrics.GetJobSuccessRate(),
			"current_workload": engineWithMetrics.GetCurrentWorkload(),
		})
	} else {
		SendNotSupportedError(c, "Job metrics")
	}
}
