package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-collection-search/internal/engine"
	"github.com/gcbaptista/go-collection-search/services"
)

// API holds dependencies for API handlers, primarily the problem manager.
type API struct {
	engine services.ProblemManager
	log    *zap.Logger
}

// NewAPI creates a new API handler structure.
func NewAPI(engine services.ProblemManager, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		engine: engine,
		log:    logger,
	}
}

// SetupRoutes defines all the API routes for the collection search engine.
func SetupRoutes(router *gin.Engine, manager services.ProblemManager, logger *zap.Logger) {
	apiHandler := NewAPI(manager, logger)

	router.GET("/health", apiHandler.HealthCheckHandler)

	// Prometheus exposition of the engine's own registry
	if concreteEngine, ok := manager.(*engine.Engine); ok {
		handler := promhttp.HandlerFor(concreteEngine.Metrics().Registry(), promhttp.HandlerOpts{})
		router.GET("/metrics", gin.WrapH(handler))
	}

	// Job management routes
	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)         // Get job status by ID
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler) // Get job performance metrics
	}

	// Batch execution over several problems
	router.POST("/_execute", apiHandler.BatchExecuteHandler)

	// Problem management routes
	problemRoutes := router.Group("/problems")
	{
		problemRoutes.POST("", apiHandler.CreateProblemHandler)                 // Create a problem from a definition
		problemRoutes.GET("", apiHandler.ListProblemsHandler)                   // List all problems
		problemRoutes.GET("/:name", apiHandler.GetProblemHandler)               // Get summary and definition
		problemRoutes.DELETE("/:name", apiHandler.DeleteProblemHandler)         // Delete a problem
		problemRoutes.POST("/:name/_execute", apiHandler.ExecuteProblemHandler) // Run the search
		problemRoutes.GET("/:name/results", apiHandler.GetResultsHandler)       // Page ranked collections
		problemRoutes.POST("/:name/_reset", apiHandler.ResetProblemHandler)     // Discard results
		problemRoutes.GET("/:name/estimate", apiHandler.EstimateProblemHandler) // log10 of the state space
		problemRoutes.GET("/:name/jobs", apiHandler.ListJobsHandler)            // List jobs for a problem
	}
}

// HealthCheckHandler reports liveness and the number of problems.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "go-collection-search",
		"problems":  len(api.engine.ListProblems()),
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
	})
}

// asyncEngine returns the engine's background job surface, if it has one.
func (api *API) asyncEngine() (services.ProblemManagerWithAsync, bool) {
	asyncManager, ok := api.engine.(services.ProblemManagerWithAsync)
	return asyncManager, ok
}

// sendAccepted answers a request whose work continues in a job.
func sendAccepted(c *gin.Context, message, jobID string) {
	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": message,
		"job_id":  jobID,
	})
}
