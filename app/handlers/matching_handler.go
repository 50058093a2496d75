// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/campusforge/placement-pipeline/app/dto"
	businessflow "github.com/campusforge/placement-pipeline/business_flow"
	"github.com/campusforge/placement-pipeline/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// MatchingHandlerInterface defines the contract for matching handlers
type MatchingHandlerInterface interface {
	MatchStudent(c fiber.Ctx) error
	MatchAllStudents(c fiber.Ctx) error
}

// MatchingHandler handles matching orchestration HTTP requests
type MatchingHandler struct {
	matchingFlow businessflow.MatchingFlow
	validator    *validator.Validate
}

// NewMatchingHandler creates a new matching handler
func NewMatchingHandler(matchingFlow businessflow.MatchingFlow) *MatchingHandler {
	return &MatchingHandler{
		matchingFlow: matchingFlow,
		validator:    validator.New(),
	}
}

func (h *MatchingHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *MatchingHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// MatchStudent runs matching for one student against the latest job run
func (h *MatchingHandler) MatchStudent(c fiber.Ctx) error {
	var req dto.MatchStudentRequest
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

	ctx := h.createRequestContextWithTimeout(c, "/api/v1/run/student-matching", utils.SingleMatchTimeout)

	result, err := h.matchingFlow.MatchStudent(ctx, &req, metadata)
	if err != nil {
		if businessflow.IsStudentNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Student not found", "STUDENT_NOT_FOUND", nil)
		}
		if businessflow.IsStudentInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Student is inactive", "STUDENT_INACTIVE", nil)
		}
		if businessflow.IsNoJobIntelligenceRun(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No job intelligence run exists yet", "NO_JOB_INTELLIGENCE_RUN", nil)
		}
		if businessflow.IsEmptyJobRun(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Latest job run contains no jobs", "EMPTY_JOB_RUN", nil)
		}
		if businessflow.IsInvalidTopK(err) || businessflow.IsInvalidJobsLimit(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid matching parameters", "MATCH_VALIDATION_FAILED", nil)
		}

		log.Println("Student matching failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Student matching failed", "MATCHING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Student matching completed successfully", result)
}

// MatchAllStudents runs batch matching over the resolved student pool
func (h *MatchingHandler) MatchAllStudents(c fiber.Ctx) error {
	var req dto.BatchMatchRequest
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

	ctx := h.createRequestContextWithTimeout(c, "/api/v1/run/student-matching/batch", utils.BatchMatchTimeout+10*time.Second)

	result, err := h.matchingFlow.MatchAllStudents(ctx, &req, metadata)
	if err != nil {
		if businessflow.IsNoStudentsInPool(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "No students in matching pool", "NO_STUDENTS_IN_POOL", nil)
		}
		if businessflow.IsNoJobIntelligenceRun(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No job intelligence run exists yet", "NO_JOB_INTELLIGENCE_RUN", nil)
		}
		if businessflow.IsEmptyJobRun(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Latest job run contains no jobs", "EMPTY_JOB_RUN", nil)
		}
		if businessflow.IsInvalidTopK(err) || businessflow.IsInvalidJobsLimit(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid matching parameters", "MATCH_VALIDATION_FAILED", nil)
		}

		log.Println("Batch matching failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Batch matching failed", "BATCH_MATCHING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Batch matching completed successfully", result)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *MatchingHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
