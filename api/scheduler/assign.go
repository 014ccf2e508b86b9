package scheduler

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/busanbank/live-support-api/coordination"
	"github.com/busanbank/live-support-api/media"
	"github.com/busanbank/live-support-api/models"
)

// runAssign is one tick of the assignment engine: for each queue it pairs
// waiting sessions with ready consultants until the queue is empty, no
// consultant is free, or the per-tick budget is spent.
func (s *Scheduler) runAssign() {
	ctx, cancel := context.WithTimeout(context.Background(), s.conf.AssignInterval*4)
	defer cancel()

	for _, queueType := range s.queueTypes() {
		assigned := 0
		for i := 0; i < s.conf.AssignMaxPerTick; i++ {
			ok, err := s.assignOne(ctx, queueType)
			if err != nil {
				zap.S().Errorw("assign step failed", "error", err, "queueType", queueType)
				break
			}
			if !ok {
				break
			}
			assigned++
		}
		if assigned > 0 {
			zap.S().Infow("assign tick complete", "queueType", queueType, "assigned", assigned)
		}
	}
}

// assignOne advances one queue entry. It reports false when the tick should
// stop for this queue (queue drained or no consultant free); a stale entry
// is dropped and reports true so the loop keeps going.
func (s *Scheduler) assignOne(ctx context.Context, queueType string) (bool, error) {
	entry, err := s.deps.Queue.ClaimNext(ctx, queueType)
	if err == coordination.ErrQueueEmpty {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	state, err := s.deps.Store.Get(ctx, entry.SessionID)
	if err == coordination.ErrNotFound {
		// queue residue for a purged session
		return true, s.deps.Queue.AckClaim(ctx, entry.SessionID)
	}
	if err != nil {
		// leave the claim staged; a later tick or instance re-claims it
		s.releaseClaim(ctx, queueType, entry)
		return false, err
	}
	if state.Status != models.StatusWaiting {
		// cancelled or manually accepted after it was queued
		return true, s.deps.Queue.AckClaim(ctx, entry.SessionID)
	}

	consultantID, err := s.deps.Pool.PickReady(ctx, s.conf.PickCandidates, s.conf.ConsultantLockTTL)
	if err == coordination.ErrNoConsultant {
		s.releaseClaim(ctx, queueType, entry)
		return false, nil
	}
	if err != nil {
		s.releaseClaim(ctx, queueType, entry)
		return false, err
	}

	now := time.Now()
	err = s.deps.Store.TransitionIf(ctx, state, models.StatusAssigned, map[string]string{
		"consultantId": consultantID,
		"assignedAt":   strconv.FormatInt(now.UnixMilli(), 10),
	})
	if err == coordination.ErrConflict || err == coordination.ErrInvalidTransition {
		// lost the race against an accept or an end; drop the claim and free
		// the consultant for the next entry
		s.unlock(ctx, consultantID)
		return true, s.deps.Queue.AckClaim(ctx, entry.SessionID)
	}
	if err != nil {
		s.unlock(ctx, consultantID)
		s.releaseClaim(ctx, queueType, entry)
		return false, err
	}

	if err := s.deps.Queue.AckClaim(ctx, entry.SessionID); err != nil {
		zap.S().Warnw("failed to ack claim", "error", err, "sessionId", entry.SessionID)
	}
	if err := s.deps.Watch.Add(ctx, state.ID, now); err != nil {
		zap.S().Warnw("failed to watch assigned session", "error", err, "sessionId", state.ID)
	}
	if err := s.deps.Pool.IncrementLoad(ctx, consultantID); err != nil {
		zap.S().Warnw("failed to increment consultant load", "error", err, "consultantId", consultantID)
	}
	if err := s.deps.Pool.MarkBusy(ctx, consultantID); err != nil {
		zap.S().Warnw("failed to mark consultant busy", "error", err, "consultantId", consultantID)
	}
	s.unlock(ctx, consultantID)

	if err := s.deps.Notifier.NotifyAssigned(state.ID, consultantID, media.ChannelName(state.ID)); err != nil {
		zap.S().Warnw("failed to notify assigned consultant",
			"error", err, "sessionId", state.ID, "consultantId", consultantID)
	}

	zap.S().Infow("session assigned",
		"sessionId", state.ID,
		"consultantId", consultantID,
		"queueType", queueType,
	)
	return true, nil
}

func (s *Scheduler) releaseClaim(ctx context.Context, queueType string, entry *models.WaitingEntry) {
	if err := s.deps.Queue.ReleaseClaim(ctx, queueType, entry.SessionID, entry.RankScore); err != nil {
		zap.S().Errorw("failed to release claim", "error", err, "sessionId", entry.SessionID)
	}
}

func (s *Scheduler) unlock(ctx context.Context, consultantID string) {
	if err := s.deps.Pool.Unlock(ctx, consultantID); err != nil {
		zap.S().Warnw("failed to unlock consultant", "error", err, "consultantId", consultantID)
	}
}
