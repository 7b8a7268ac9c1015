package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-collection-search/model"
)

// CreateProblemHandler handles the request to create a new problem.
// Request Body: model.ProblemDefinition. With ?async=true the build runs in a job.
func (api *API) CreateProblemHandler(c *gin.Context) {
	async, asyncResult := ParseAsync(c.Query("async"))
	if asyncResult.HasErrors() {
		SendStructuredValidationError(c, asyncResult)
		return
	}

	var def model.ProblemDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateProblemDefinition(&def); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	if async {
		asyncManager, ok := api.asyncEngine()
		if !ok {
			SendNotSupportedError(c, "Asynchronous problem creation")
			return
		}
		jobID, err := asyncManager.CreateProblemAsync(def)
		if err != nil {
			SendEngineError(c, "problem creation", def.Name, err)
			return
		}
		sendAccepted(c, "Problem creation started for '"+def.Name+"'", jobID)
		return
	}

	if err := api.engine.CreateProblem(def); err != nil {
		SendEngineError(c, "problem creation", def.Name, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Problem '" + def.Name + "' created successfully"})
}

// ListProblemsHandler lists the summaries of all problems.
func (api *API) ListProblemsHandler(c *gin.Context) {
	problems := api.engine.ListProblems()
	c.JSON(http.StatusOK, gin.H{
		"problems": problems,
		"total":    len(problems),
	})
}

// GetProblemHandler returns the summary and the definition of a problem.
func (api *API) GetProblemHandler(c *gin.Context) {
	name := c.Param("name")

	problem, err := api.engine.GetProblem(name)
	if err != nil {
		SendProblemNotFoundError(c, name)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":    problem.Summary(),
		"definition": problem.Definition(),
	})
}

// DeleteProblemHandler deletes a problem and its persisted definition.
func (api *API) DeleteProblemHandler(c *gin.Context) {
	name := c.Param("name")

	async, asyncResult := ParseAsync(c.Query("async"))
	if asyncResult.HasErrors() {
		SendStructuredValidationError(c, asyncResult)
		return
	}

	if async {
		asyncManager, ok := api.asyncEngine()
		if !ok {
			SendNotSupportedError(c, "Asynchronous problem deletion")
			return
		}
		jobID, err := asyncManager.DeleteProblemAsync(name)
		if err != nil {
			SendEngineError(c, "problem deletion", name, err)
			return
		}
		sendAccepted(c, "Problem deletion started for '"+name+"'", jobID)
		return
	}

	if err := api.engine.DeleteProblem(name); err != nil {
		SendEngineError(c, "problem deletion", name, err)
		return
	}
	api.log.Info("problem deleted over http", zap.String("problem", name))
	c.JSON(http.StatusOK, gin.H{"message": "Problem '" + name + "' deleted successfully"})
}

// ResetProblemHandler discards the results of a problem so it can run again.
func (api *API) ResetProblemHandler(c *gin.Context) {
	name := c.Param("name")

	if err := api.engine.ResetProblem(name); err != nil {
		SendEngineError(c, "problem reset", name, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Results of problem '" + name + "' discarded"})
}

// EstimateProblemHandler returns log10 of the unpruned state space.
func (api *API) EstimateProblemHandler(c *gin.Context) {
	name := c.Param("name")

	estimate, err := api.engine.EstimateProblem(name)
	if err != nil {
		SendEngineError(c, "state space estimate", name, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"problem":           name,
		"log10_state_space": estimate,
	})
}
