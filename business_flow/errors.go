// Package businessflow contains the core business logic and use cases for pipeline workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Student-related errors
	ErrStudentNotFound = errors.New("student not found")
	ErrStudentInactive = errors.New("student is inactive")

	// Job intelligence errors
	ErrNoJobIntelligenceRun = errors.New("no job intelligence run available")
	ErrJobRunNotFound       = errors.New("job intelligence run not found")
	ErrEmptyJobRun          = errors.New("job intelligence run contains no jobs")
	ErrScrapeFailed         = errors.New("scrape request failed")
	ErrSearchTermsRequired  = errors.New("at least one search term is required")

	// Matching errors
	ErrMatchRunNotFound = errors.New("match run not found")
	ErrNoStudentsInPool = errors.New("no students in matching pool")
	ErrInvalidTopK      = errors.New("top_k must be at least 1")
	ErrInvalidJobsLimit = errors.New("jobs_limit must be at least 1")

	// Approval errors
	ErrJobNotFound        = errors.New("job not found")
	ErrInvalidJobSource   = errors.New("invalid job source")
	ErrNoMatchForApproval = errors.New("no match exists for this student and job")

	ErrCacheNotAvailable = errors.New("cache not available")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsStudentNotFound(err error) bool {
	return errors.Is(err, ErrStudentNotFound)
}

func IsStudentInactive(err error) bool {
	return errors.Is(err, ErrStudentInactive)
}

func IsNoJobIntelligenceRun(err error) bool {
	return errors.Is(err, ErrNoJobIntelligenceRun)
}

func IsJobRunNotFound(err error) bool {
	return errors.Is(err, ErrJobRunNotFound)
}

func IsEmptyJobRun(err error) bool {
	return errors.Is(err, ErrEmptyJobRun)
}

func IsScrapeFailed(err error) bool {
	return errors.Is(err, ErrScrapeFailed)
}

func IsSearchTermsRequired(err error) bool {
	return errors.Is(err, ErrSearchTermsRequired)
}

func IsMatchRunNotFound(err error) bool {
	return errors.Is(err, ErrMatchRunNotFound)
}

func IsNoStudentsInPool(err error) bool {
	return errors.Is(err, ErrNoStudentsInPool)
}

func IsInvalidTopK(err error) bool {
	return errors.Is(err, ErrInvalidTopK)
}

func IsInvalidJobsLimit(err error) bool {
	return errors.Is(err, ErrInvalidJobsLimit)
}

func IsJobNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound)
}

func IsInvalidJobSource(err error) bool {
	return errors.Is(err, ErrInvalidJobSource)
}

func IsNoMatchForApproval(err error) bool {
	return errors.Is(err, ErrNoMatchForApproval)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}
