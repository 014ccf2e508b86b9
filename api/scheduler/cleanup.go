package scheduler

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/busanbank/live-support-api/coordination"
	"github.com/busanbank/live-support-api/models"
)

const (
	cleanupScanLimit = 500

	// terminal session hashes stay readable this long before the sweep
	// purges them from the coordination store; the archive row is the
	// durable record
	terminalLinger = 24 * time.Hour
)

// runCleanup sweeps the session index for records nothing else will touch
// again: customers who abandoned the queue, chats idle past the timeout and
// terminal hashes old enough to purge. One instance runs it per cycle.
func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	acquired, err := s.deps.Lock.TryAcquire(ctx, "cleanup_sweep", s.instanceID, 5*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire cleanup lock", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("cleanup sweep already running on another instance, skipping")
		return
	}
	defer s.deps.Lock.Release(ctx, "cleanup_sweep", s.instanceID)

	now := time.Now()
	ids, err := s.deps.Store.IndexOlderThan(ctx, now.Add(-s.conf.WaitingIdleTimeout), cleanupScanLimit)
	if err != nil {
		zap.S().Errorw("cleanup index scan failed", "error", err)
		return
	}

	var cancelled, closed, purged int
	for _, sessionID := range ids {
		state, err := s.deps.Store.Get(ctx, sessionID)
		if err == coordination.ErrNotFound {
			// hash expired or purged, drop the index entry
			if err := s.deps.Store.Purge(ctx, sessionID); err != nil {
				zap.S().Warnw("failed to drop orphaned index entry", "error", err, "sessionId", sessionID)
			}
			continue
		}
		if err != nil {
			zap.S().Errorw("cleanup failed to read session", "error", err, "sessionId", sessionID)
			continue
		}

		switch {
		case state.Status.IsTerminal():
			if state.EndedAt > 0 && now.Sub(time.UnixMilli(state.EndedAt)) > terminalLinger {
				if err := s.deps.Store.Purge(ctx, sessionID); err != nil {
					zap.S().Warnw("failed to purge terminal session", "error", err, "sessionId", sessionID)
					continue
				}
				purged++
			}

		case state.Status == models.StatusWaiting:
			if now.Sub(time.UnixMilli(state.EnqueuedAt)) > s.conf.WaitingIdleTimeout {
				if s.expire(ctx, state, state.Channel.CancelledStatus(), "waiting timeout") {
					cancelled++
				}
			}

		case state.Status == state.Channel.EngagedStatus():
			// idle means no messages, not merely a long conversation
			last := state.LastActivityAt
			if last == 0 {
				last = state.ConnectedAt
			}
			if last > 0 && now.Sub(time.UnixMilli(last)) > s.conf.ChatIdleTimeout {
				if s.expire(ctx, state, state.Channel.EndedStatus(), "idle timeout") {
					closed++
				}
			}
		}
	}

	if cancelled > 0 || closed > 0 || purged > 0 {
		zap.S().Infow("cleanup sweep complete",
			"instance", s.instanceID,
			"cancelled", cancelled,
			"closed", closed,
			"purged", purged,
		)
	}
}

// expire forces one session to a terminal state through the status gate and
// cleans up everything attached to it
func (s *Scheduler) expire(ctx context.Context, state *models.SessionState, to models.SessionStatus, reason string) bool {
	consultantID := state.ConsultantID
	wasEngaged := state.Status == state.Channel.EngagedStatus()

	err := s.deps.Store.TransitionIf(ctx, state, to, map[string]string{
		"endedAt":   strconv.FormatInt(time.Now().UnixMilli(), 10),
		"endReason": reason,
		"endedBy":   models.SenderSystem,
	})
	if err == coordination.ErrConflict || err == coordination.ErrInvalidTransition {
		return false
	}
	if err != nil {
		zap.S().Errorw("cleanup failed to expire session", "error", err, "sessionId", state.ID)
		return false
	}
	state.EndReason = reason
	state.EndedBy = models.SenderSystem

	if err := s.deps.Queue.RemoveEverywhere(ctx, state.InquiryType, state.ID); err != nil {
		zap.S().Warnw("failed to clear queue residue", "error", err, "sessionId", state.ID)
	}
	s.unwatch(ctx, state.ID)
	if wasEngaged && consultantID != "" {
		if err := s.deps.Pool.Release(ctx, consultantID); err != nil {
			zap.S().Warnw("failed to release consultant", "error", err, "consultantId", consultantID)
		}
	}
	s.archive(ctx, state)

	zap.S().Infow("session expired by cleanup sweep",
		"sessionId", state.ID,
		"status", state.Status,
		"reason", reason,
	)
	return true
}

// runRetentionPurge deletes archives and messages past the retention window
func (s *Scheduler) runRetentionPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	acquired, err := s.deps.Lock.TryAcquire(ctx, "retention_purge", s.instanceID, 15*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire retention lock", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("retention purge already running on another instance, skipping")
		return
	}
	defer s.deps.Lock.Release(ctx, "retention_purge", s.instanceID)

	cutoff := time.Now().AddDate(0, 0, -s.conf.RetentionDays)

	archives, err := s.deps.Archive.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		zap.S().Errorw("failed to purge session archives", "error", err)
	}
	messages, err := s.deps.Messages.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		zap.S().Errorw("failed to purge chat messages", "error", err)
	}

	zap.S().Infow("retention purge complete",
		"instance", s.instanceID,
		"cutoff", cutoff,
		"archivesDeleted", archives,
		"messagesDeleted", messages,
	)
}
