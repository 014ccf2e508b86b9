package scheduler

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/busanbank/live-support-api/config"
	"github.com/busanbank/live-support-api/coordination"
	"github.com/busanbank/live-support-api/databases"
)

// AssignNotifier pushes assignment events toward the chosen consultant.
// Delivery is best effort; the watchdog covers a consultant that never hears
// about their assignment.
type AssignNotifier interface {
	NotifyAssigned(sessionID, consultantID, mediaChannel string) error
}

// Deps bundles everything the background jobs act on
type Deps struct {
	Store    coordination.SessionStore
	Queue    coordination.WaitingQueue
	Pool     coordination.ConsultantPool
	Watch    coordination.AssignedWatch
	Lock     coordination.JobLock
	Notifier AssignNotifier
	Archive  databases.SessionArchiveDatabase
	Messages databases.ChatMessageDatabase
}

// Scheduler runs the assignment engine and its housekeeping jobs. The assign
// and watchdog ticks run on every instance; their redis scripts and the
// status gate make concurrent ticks safe. Only the sweep jobs take the
// distributed lock, they scan wide and gain nothing from running twice.
//
// The sub-second ticks run on time.Tickers since cron @every rounds anything
// below one second up to a full second. The sweep jobs stay on cron.
type Scheduler struct {
	cron       *cron.Cron
	conf       config.Config
	deps       Deps
	instanceID string
	stop       chan struct{}
	wg         sync.WaitGroup
}

// NewScheduler creates a new scheduler instance
func NewScheduler(conf config.Config, deps Deps) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("HOSTNAME")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		conf:       conf,
		deps:       deps,
		instanceID: instanceID,
		stop:       make(chan struct{}),
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	if s.conf.AssignEnabled {
		s.tick(s.conf.AssignInterval, s.runAssign)
	} else {
		zap.S().Warn("automatic assignment is disabled, sessions wait for manual accept")
	}

	s.tick(s.conf.WatchdogInterval, s.runWatchdog)

	_, err := s.cron.AddFunc(every(s.conf.CleanupInterval), s.runCleanup)
	if err != nil {
		zap.S().Errorw("failed to register cleanup job", "error", err)
	}

	// Purge archived sessions and messages past retention daily at 3 AM UTC
	_, err = s.cron.AddFunc("0 3 * * *", s.runRetentionPurge)
	if err != nil {
		zap.S().Errorw("failed to register retention purge job", "error", err)
	}

	s.cron.Start()
	zap.S().Infow("assignment scheduler started",
		"instance", s.instanceID,
		"assignInterval", s.conf.AssignInterval,
		"watchdogInterval", s.conf.WatchdogInterval,
	)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("assignment scheduler stopped")
}

// tick runs fn every d until Stop. Ticks do not overlap; a slow run simply
// delays the next one.
func (s *Scheduler) tick(d time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-t.C:
				fn()
			}
		}
	}()
}

// queueTypes returns the configured inquiry-type queues, or the default queue
// when none are configured
func (s *Scheduler) queueTypes() []string {
	if len(s.conf.AssignQueueTypes) > 0 {
		return s.conf.AssignQueueTypes
	}
	return []string{coordination.DefaultQueueType}
}

func every(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}
