// Package jobs runs periodic maintenance: expired session purge, rate limiter
// cleanup and idle engine eviction.
package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/multierr"
)

const (
	TagSessions   = "sessions"
	TagRateLimits = "ratelimits"
	TagEngines    = "engines"
)

type SessionPurger interface {
	DeleteExpired() (int64, error)
}

type LimiterCleaner interface {
	Cleanup() int
}

type IdleEvicter interface {
	EvictIdle() int
}

// Scheduler manages scheduled tasks for the server.
type Scheduler struct {
	cron     *gocron.Scheduler
	sessions SessionPurger
	limiters []LimiterCleaner
	engines  IdleEvicter
	logger   *slog.Logger
}

func New(sessions SessionPurger, engines IdleEvicter, logger *slog.Logger, limiters ...LimiterCleaner) *Scheduler {
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()
	return &Scheduler{
		cron:     cron,
		sessions: sessions,
		limiters: limiters,
		engines:  engines,
		logger:   logger,
	}
}

// Start registers every job and runs the scheduler in the background.
func (s *Scheduler) Start() error {
	var err error
	_, jerr := s.cron.Every(1).Hour().Tag(TagSessions).Do(s.PurgeSessions)
	err = multierr.Append(err, jerr)
	_, jerr = s.cron.Every(5).Minutes().Tag(TagRateLimits).Do(s.CleanupLimiters)
	err = multierr.Append(err, jerr)
	_, jerr = s.cron.Every(1).Minute().Tag(TagEngines).Do(s.EvictEngines)
	err = multierr.Append(err, jerr)
	if err != nil {
		return fmt.Errorf("schedule jobs: %w", err)
	}

	s.cron.StartAsync()
	s.logger.Info("scheduler started", "jobs", s.cron.Len())
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) Len() int {
	return s.cron.Len()
}

func (s *Scheduler) PurgeSessions() {
	n, err := s.sessions.DeleteExpired()
	if err != nil {
		s.logger.Error("purge expired sessions", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("purged expired sessions", "count", n)
	}
}

func (s *Scheduler) CleanupLimiters() {
	removed := 0
	for _, l := range s.limiters {
		removed += l.Cleanup()
	}
	if removed > 0 {
		s.logger.Debug("rate limiter cleanup", "removed", removed)
	}
}

func (s *Scheduler) EvictEngines() {
	if n := s.engines.EvictIdle(); n > 0 {
		s.logger.Debug("evicted idle engines", "count", n)
	}
}
