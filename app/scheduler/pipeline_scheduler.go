// Package scheduler runs the periodic scrape-then-match pipeline cycle
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/campusforge/placement-pipeline/app/dto"
	businessflow "github.com/campusforge/placement-pipeline/business_flow"
	"github.com/campusforge/placement-pipeline/config"
	"github.com/campusforge/placement-pipeline/models"
)

// PipelineScheduler periodically scrapes fresh job intelligence and re-runs batch matching
type PipelineScheduler struct {
	jobIntelFlow businessflow.JobIntelligenceFlow
	matchingFlow businessflow.MatchingFlow
	logger       *log.Logger
	interval     time.Duration
	cfg          config.SchedulerConfig

	logFile *os.File
}

func NewPipelineScheduler(
	jobIntelFlow businessflow.JobIntelligenceFlow,
	matchingFlow businessflow.MatchingFlow,
	cfg config.SchedulerConfig,
) *PipelineScheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	s := &PipelineScheduler{
		jobIntelFlow: jobIntelFlow,
		matchingFlow: matchingFlow,
		interval:     interval,
		cfg:          cfg,
	}

	// Initialize scheduler-specific logger (to stdout and persistent file)
	if err := s.initSchedulerLogger(); err != nil {
		// Fallback to default stdout logger if file logger init fails
		s.logger = log.Default()
		s.logger.Printf("scheduler: failed to initialize file logger: %v", err)
	}

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a persistent file under data/ (or /data)
func (s *PipelineScheduler) initSchedulerLogger() error {
	// Prefer relative data/ then fallback to /data for containerized environments
	candidates := []string{
		filepath.Join("data"),
		"/data",
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		logPath := filepath.Join(dir, "scheduler.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			continue
		}
		// Success
		s.logFile = f
		mw := io.MultiWriter(os.Stdout, f)
		// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
		s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	return fmt.Errorf("could not create scheduler log file in any candidate directory")
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *PipelineScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		if s.logFile != nil {
			_ = s.logFile.Close()
		}
	}
}

func (s *PipelineScheduler) runOnce(ctx context.Context) {
	started := time.Now()
	s.logger.Printf("scheduler: pipeline cycle starting")

	scrapeResp, err := s.scrape(ctx)
	if err != nil {
		// A failed scrape leaves the previous run in place; matching would
		// just reprocess stale data, so skip the rest of the cycle
		s.logger.Printf("scheduler: scrape failed: %v", err)
		return
	}
	s.logger.Printf("scheduler: scrape run id=%d persisted %d jobs", scrapeResp.RunID, scrapeResp.TotalJobs)

	batchResp, err := s.matchAll(ctx)
	if err != nil {
		s.logger.Printf("scheduler: batch matching failed: %v", err)
		return
	}
	s.logger.Printf("scheduler: batch matching considered=%d matched=%d matches=%d",
		batchResp.Summary.StudentsConsidered,
		batchResp.Summary.StudentsMatched,
		batchResp.Summary.TotalMatches,
	)
	if !batchResp.Email.TpoSent && batchResp.Email.Error != nil {
		s.logger.Printf("scheduler: tpo notification failed: %s", *batchResp.Email.Error)
	}

	s.logger.Printf("scheduler: pipeline cycle finished in %s", time.Since(started).Round(time.Millisecond))
}

func (s *PipelineScheduler) scrape(ctx context.Context) (*dto.ScrapeJobsResponse, error) {
	req := &dto.ScrapeJobsRequest{
		SearchTerms: s.cfg.SearchTerms,
		Locations:   s.cfg.Locations,
		SiteNames:   s.cfg.SiteNames,
	}
	if s.cfg.ResultsWanted > 0 {
		rw := s.cfg.ResultsWanted
		req.ResultsWanted = &rw
	}
	if s.cfg.HoursOld > 0 {
		ho := s.cfg.HoursOld
		req.HoursOld = &ho
	}

	metadata := businessflow.NewClientMetadata("127.0.0.1", "pipeline-scheduler")
	return s.jobIntelFlow.IngestScrape(ctx, req, models.RunTypeScheduled, metadata)
}

func (s *PipelineScheduler) matchAll(ctx context.Context) (*dto.BatchMatchResponse, error) {
	metadata := businessflow.NewClientMetadata("127.0.0.1", "pipeline-scheduler")
	return s.matchingFlow.MatchAllStudents(ctx, &dto.BatchMatchRequest{}, metadata)
}
