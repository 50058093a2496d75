// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/campusforge/placement-pipeline/app/dto"
	businessflow "github.com/campusforge/placement-pipeline/business_flow"
	"github.com/campusforge/placement-pipeline/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ApprovalHandlerInterface defines the contract for approval handlers
type ApprovalHandlerInterface interface {
	EligibleStudents(c fiber.Ctx) error
	ApproveStudent(c fiber.Ctx) error
}

// ApprovalHandler handles approval gate HTTP requests
type ApprovalHandler struct {
	approvalFlow businessflow.ApprovalFlow
	validator    *validator.Validate
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(approvalFlow businessflow.ApprovalFlow) *ApprovalHandler {
	return &ApprovalHandler{
		approvalFlow: approvalFlow,
		validator:    validator.New(),
	}
}

func (h *ApprovalHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ApprovalHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// EligibleStudents lists students whose latest match against a job passes the
// score ceiling. Query params: job_source, job_id, limit, max_score, approved_only.
func (h *ApprovalHandler) EligibleStudents(c fiber.Ctx) error {
	req := dto.EligibleStudentsRequest{
		JobSource: c.Query("job_source"),
	}

	jobID, err := strconv.ParseUint(c.Query("job_id"), 10, 32)
	if err != nil || jobID == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid job ID", "INVALID_JOB_ID", nil)
	}
	req.JobID = uint(jobID)

	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid limit", "INVALID_LIMIT", nil)
		}
		req.Limit = utils.ToPtr(limit)
	}
	if v := c.Query("max_score"); v != "" {
		maxScore, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid max score", "INVALID_MAX_SCORE", nil)
		}
		req.MaxScore = utils.ToPtr(maxScore)
	}
	if v := c.Query("approved_only"); v != "" {
		approvedOnly, err := strconv.ParseBool(v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid approved_only", "INVALID_APPROVED_ONLY", nil)
		}
		req.ApprovedOnly = utils.ToPtr(approvedOnly)
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

	result, err := h.approvalFlow.EligibleStudents(h.createRequestContext(c, "/api/v1/student-matching/eligible-students"), &req, metadata)
	if err != nil {
		if businessflow.IsInvalidJobSource(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid job source", "INVALID_JOB_SOURCE", nil)
		}
		if businessflow.IsJobNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Job not found", "JOB_NOT_FOUND", nil)
		}

		log.Println("Eligible students lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve eligible students", "ELIGIBLE_STUDENTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Eligible students retrieved successfully", result)
}

// ApproveStudent approves a student for a job, idempotently
func (h *ApprovalHandler) ApproveStudent(c fiber.Ctx) error {
	var req dto.ApproveStudentRequest
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

	result, err := h.approvalFlow.ApproveStudentForJob(h.createRequestContext(c, "/api/v1/student-matching/approve"), &req, metadata)
	if err != nil {
		if businessflow.IsInvalidJobSource(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid job source", "INVALID_JOB_SOURCE", nil)
		}
		if businessflow.IsStudentNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Student not found", "STUDENT_NOT_FOUND", nil)
		}
		if businessflow.IsJobNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Job not found", "JOB_NOT_FOUND", nil)
		}
		if businessflow.IsNoMatchForApproval(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "No match exists for this student and job", "NO_MATCH_FOR_APPROVAL", nil)
		}

		log.Println("Approval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Approval failed", "APPROVAL_FAILED", nil)
	}

	status := fiber.StatusCreated
	if result.AlreadyApproved {
		status = fiber.StatusOK
	}

	return h.SuccessResponse(c, status, result.Message, result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *ApprovalHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
