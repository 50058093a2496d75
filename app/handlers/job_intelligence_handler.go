// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/campusforge/placement-pipeline/app/dto"
	businessflow "github.com/campusforge/placement-pipeline/business_flow"
	"github.com/campusforge/placement-pipeline/models"
	"github.com/campusforge/placement-pipeline/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// JobIntelligenceHandlerInterface defines the contract for job intelligence handlers
type JobIntelligenceHandlerInterface interface {
	ScrapeJobs(c fiber.Ctx) error
	LatestRun(c fiber.Ctx) error
	RunByID(c fiber.Ctx) error
	LatestRunForStudent(c fiber.Ctx) error
}

// JobIntelligenceHandler handles job intelligence HTTP requests
type JobIntelligenceHandler struct {
	jobIntelFlow businessflow.JobIntelligenceFlow
	validator    *validator.Validate
}

// NewJobIntelligenceHandler creates a new job intelligence handler
func NewJobIntelligenceHandler(jobIntelFlow businessflow.JobIntelligenceFlow) *JobIntelligenceHandler {
	return &JobIntelligenceHandler{
		jobIntelFlow: jobIntelFlow,
		validator:    validator.New(),
	}
}

func (h *JobIntelligenceHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *JobIntelligenceHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ScrapeJobs handles the scrape-and-ingest process for a new job intelligence run
func (h *JobIntelligenceHandler) ScrapeJobs(c fiber.Ctx) error {
	var req dto.ScrapeJobsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	// Scraping plus scoring can take a while, give the flow the scrape budget
	ctx := h.createRequestContextWithTimeout(c, "/api/v1/scrape-json", utils.ScrapeTimeout+10*time.Second)

	result, err := h.jobIntelFlow.IngestScrape(ctx, &req, models.RunTypeManual, metadata)
	if err != nil {
		if businessflow.IsSearchTermsRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one search term is required", "SEARCH_TERMS_REQUIRED", nil)
		}
		if businessflow.IsScrapeFailed(err) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Scrape request failed", "SCRAPE_FAILED", nil)
		}

		log.Println("Scrape ingestion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Scrape ingestion failed", "SCRAPE_INGESTION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Job intelligence run created successfully", result)
}

// LatestRun returns the newest run with full records. Privileged read.
func (h *JobIntelligenceHandler) LatestRun(c fiber.Ctx) error {
	result, err := h.jobIntelFlow.LatestRun(h.createRequestContext(c, "/api/v1/internal/job-intelligence/latest"))
	if err != nil {
		if businessflow.IsNoJobIntelligenceRun(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No job intelligence run exists yet", "NO_JOB_INTELLIGENCE_RUN", nil)
		}

		log.Println("Latest run lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve latest run", "JOB_RUN_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Latest run retrieved successfully", result)
}

// RunByID returns one run with full records. Privileged read.
func (h *JobIntelligenceHandler) RunByID(c fiber.Ctx) error {
	runID, err := strconv.ParseUint(c.Params("runId"), 10, 32)
	if err != nil || runID == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid run ID", "INVALID_RUN_ID", nil)
	}

	result, err := h.jobIntelFlow.RunByID(h.createRequestContext(c, "/api/v1/internal/job-intelligence/run"), uint(runID))
	if err != nil {
		if businessflow.IsJobRunNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Job intelligence run not found", "JOB_RUN_NOT_FOUND", nil)
		}

		log.Println("Run lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve run", "JOB_RUN_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Run retrieved successfully", result)
}

// LatestRunForStudent returns the approval-filtered view of the latest run
// for the authenticated student
func (h *JobIntelligenceHandler) LatestRunForStudent(c fiber.Ctx) error {
	studentID, ok := c.Locals("student_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Student ID not found in context", "MISSING_STUDENT_ID", nil)
	}

	result, err := h.jobIntelFlow.LatestRunForStudent(h.createRequestContext(c, "/api/v1/job-intelligence/latest"), studentID)
	if err != nil {
		if businessflow.IsStudentNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Student not found", "STUDENT_NOT_FOUND", nil)
		}
		if businessflow.IsNoJobIntelligenceRun(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No job intelligence run exists yet", "NO_JOB_INTELLIGENCE_RUN", nil)
		}

		log.Println("Student latest run lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve latest run", "JOB_RUN_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Latest run retrieved successfully", result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *JobIntelligenceHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *JobIntelligenceHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
