package utils

import (
	"time"
)

// Pipeline timeout constants
const (
	// ScrapeTimeout is the budget for one scraper service call
	ScrapeTimeout = 60 * time.Second

	// SingleMatchTimeout is the budget for one single-student matching call
	SingleMatchTimeout = 60 * time.Second

	// BatchMatchTimeout is the budget for one batch matching call
	BatchMatchTimeout = 120 * time.Second
)

// Matching defaults
const (
	// DefaultBatchWorkers is the batch fan-out worker pool size
	DefaultBatchWorkers = 8

	// SkillScoreWeight and ATSScoreWeight form the composite match score
	SkillScoreWeight = 0.7
	ATSScoreWeight   = 0.3
)

// Cache keys and TTLs
const (
	// LatestRunCacheKey holds the serialized latest job intelligence run
	LatestRunCacheKey = "job_intelligence:latest_run"

	// LatestRunCacheTTL bounds staleness if invalidation is ever missed
	LatestRunCacheTTL = 10 * time.Minute
)

// ContextKey is the type for request-scoped context values
type ContextKey string

// Request-scoped context keys for observability
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)
