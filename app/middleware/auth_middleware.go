// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/campusforge/placement-pipeline/app/dto"
	"github.com/campusforge/placement-pipeline/app/services"
	"github.com/gofiber/fiber/v3"
)

// AuthMiddleware handles JWT token validation for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

// Authenticate validates student session tokens
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Get the Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Authorization header is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_AUTHORIZATION_HEADER",
				},
			})
		}

		// Check if the header starts with "Bearer "
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid authorization header format. Expected 'Bearer <token>'",
				Error: dto.ErrorDetail{
					Code: "INVALID_AUTHORIZATION_FORMAT",
				},
			})
		}

		// Extract the token (remove "Bearer " prefix)
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Access token is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_ACCESS_TOKEN",
				},
			})
		}

		// Validate the token (this already checks for revocation)
		claims, err := m.tokenService.ValidateStudentToken(token)
		if err != nil {
			return tokenValidationError(c, err)
		}

		// Store student information in context for downstream handlers
		c.Locals("student_id", claims.StudentID)
		c.Locals("token_id", claims.TokenID)
		c.Locals("student_token_claims", claims)

		// Store RequestID for audit logging
		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		// Continue to the next handler
		return c.Next()
	}
}

// StaffAuthenticate validates placement office staff tokens
func (m *AuthMiddleware) StaffAuthenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Get the Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Authorization header is required",
				Error:   dto.ErrorDetail{Code: "MISSING_AUTHORIZATION_HEADER"},
			})
		}

		// Check Bearer format
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid authorization header format. Expected 'Bearer <token>'",
				Error:   dto.ErrorDetail{Code: "INVALID_AUTHORIZATION_FORMAT"},
			})
		}

		// Extract token
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Access token is required",
				Error:   dto.ErrorDetail{Code: "MISSING_ACCESS_TOKEN"},
			})
		}

		// Validate token (staff)
		staffClaims, err := m.tokenService.ValidateStaffToken(token)
		if err != nil {
			return tokenValidationError(c, err)
		}

		// For staff tokens, use staff-specific claims
		c.Locals("staff_id", staffClaims.StaffID)
		c.Locals("token_id", staffClaims.TokenID)
		c.Locals("staff_token_claims", staffClaims)

		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// ServiceAuthenticate validates the static bearer token used by internal
// service-to-service callers
func (m *AuthMiddleware) ServiceAuthenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Authorization header is required",
				Error:   dto.ErrorDetail{Code: "MISSING_AUTHORIZATION_HEADER"},
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid authorization header format. Expected 'Bearer <token>'",
				Error:   dto.ErrorDetail{Code: "INVALID_AUTHORIZATION_FORMAT"},
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Service token is required",
				Error:   dto.ErrorDetail{Code: "MISSING_SERVICE_TOKEN"},
			})
		}

		if err := m.tokenService.ValidateServiceToken(token); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid service token",
				Error:   dto.ErrorDetail{Code: "INVALID_SERVICE_TOKEN"},
			})
		}

		return c.Next()
	}
}

// tokenValidationError maps token service errors to API error responses
func tokenValidationError(c fiber.Ctx, err error) error {
	var errorCode string
	var message string

	// Determine the specific error type
	if errors.Is(err, services.ErrTokenExpired) {
		errorCode = "TOKEN_EXPIRED"
		message = "Access token has expired"
	} else if errors.Is(err, services.ErrTokenInvalid) {
		errorCode = "TOKEN_INVALID"
		message = "Invalid access token"
	} else if errors.Is(err, services.ErrTokenRevoked) {
		errorCode = "TOKEN_REVOKED"
		message = "Access token has been revoked"
	} else {
		errorCode = "TOKEN_VALIDATION_FAILED"
		message = "Token validation failed"
	}

	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: errorCode,
		},
	})
}

// GetStudentIDFromContext extracts the student ID from the request context
func GetStudentIDFromContext(c fiber.Ctx) (uint, bool) {
	studentID, ok := c.Locals("student_id").(uint)
	return studentID, ok
}

// GetStaffIDFromContext extracts the staff ID from the request context
func GetStaffIDFromContext(c fiber.Ctx) (uint, bool) {
	staffID, ok := c.Locals("staff_id").(uint)
	return staffID, ok
}
