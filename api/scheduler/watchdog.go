package scheduler

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/busanbank/live-support-api/coordination"
	"github.com/busanbank/live-support-api/models"
)

const watchdogScanLimit = 200

// runWatchdog recovers sessions stuck in ASSIGNED past the join timeout.
// Every recovery goes through the status gate, so two instances scanning the
// same expired entry can not both act on it.
func (s *Scheduler) runWatchdog() {
	ctx, cancel := context.WithTimeout(context.Background(), s.conf.WatchdogInterval*4)
	defer cancel()

	cutoff := time.Now().Add(-s.conf.AssignedTimeout)
	expired, err := s.deps.Watch.Expired(ctx, cutoff, watchdogScanLimit)
	if err != nil {
		zap.S().Errorw("watchdog scan failed", "error", err)
		return
	}

	for _, sessionID := range expired {
		s.recover(ctx, sessionID)
	}
}

// recover handles one expired assignment: re-queue at the original rank, or
// force the session terminal once the retry budget is spent
func (s *Scheduler) recover(ctx context.Context, sessionID string) {
	state, err := s.deps.Store.Get(ctx, sessionID)
	if err == coordination.ErrNotFound {
		s.unwatch(ctx, sessionID)
		return
	}
	if err != nil {
		zap.S().Errorw("watchdog failed to read session", "error", err, "sessionId", sessionID)
		return
	}
	if state.Status != models.StatusAssigned {
		// joined or ended after the scan, watch entry is just residue
		s.unwatch(ctx, sessionID)
		return
	}

	consultantID := state.ConsultantID
	retry := state.RetryCount + 1

	if retry > s.conf.MaxAssignRetries {
		s.forceEnd(ctx, state, consultantID)
		return
	}

	err = s.deps.Store.TransitionIf(ctx, state, models.StatusWaiting, map[string]string{
		"consultantId": "",
		"assignedAt":   "0",
		"retryCount":   strconv.Itoa(retry),
	})
	if err == coordination.ErrConflict || err == coordination.ErrInvalidTransition {
		return
	}
	if err != nil {
		zap.S().Errorw("watchdog failed to re-queue session", "error", err, "sessionId", sessionID)
		return
	}

	s.unwatch(ctx, sessionID)
	if consultantID != "" {
		if err := s.deps.Pool.Release(ctx, consultantID); err != nil {
			zap.S().Warnw("failed to release consultant", "error", err, "consultantId", consultantID)
		}
	}

	// original rank: the session keeps its place in line, the missed
	// assignment costs it nothing
	score := coordination.RankScore(state.PriorityScore, time.UnixMilli(state.EnqueuedAt))
	if err := s.deps.Queue.Enqueue(ctx, state.InquiryType, state.ID, score); err != nil {
		zap.S().Errorw("watchdog failed to enqueue session", "error", err, "sessionId", sessionID)
		return
	}

	zap.S().Infow("assignment timed out, session re-queued",
		"sessionId", sessionID,
		"consultantId", consultantID,
		"retryCount", retry,
	)
}

// forceEnd terminates a session that burned through its assignment retries
func (s *Scheduler) forceEnd(ctx context.Context, state *models.SessionState, consultantID string) {
	err := s.deps.Store.TransitionIf(ctx, state, state.Channel.EndedStatus(), map[string]string{
		"endedAt":   strconv.FormatInt(time.Now().UnixMilli(), 10),
		"endReason": "assignment retries exhausted",
		"endedBy":   models.SenderSystem,
	})
	if err == coordination.ErrConflict || err == coordination.ErrInvalidTransition {
		return
	}
	if err != nil {
		zap.S().Errorw("watchdog failed to end session", "error", err, "sessionId", state.ID)
		return
	}

	state.EndReason = "assignment retries exhausted"
	state.EndedBy = models.SenderSystem

	s.unwatch(ctx, state.ID)
	if err := s.deps.Queue.RemoveEverywhere(ctx, state.InquiryType, state.ID); err != nil {
		zap.S().Warnw("failed to clear queue residue", "error", err, "sessionId", state.ID)
	}
	if consultantID != "" {
		if err := s.deps.Pool.Release(ctx, consultantID); err != nil {
			zap.S().Warnw("failed to release consultant", "error", err, "consultantId", consultantID)
		}
	}
	s.archive(ctx, state)

	zap.S().Warnw("session ended after exhausting assignment retries",
		"sessionId", state.ID,
		"retryCount", state.RetryCount,
	)
}

func (s *Scheduler) unwatch(ctx context.Context, sessionID string) {
	if err := s.deps.Watch.Remove(ctx, sessionID); err != nil {
		zap.S().Warnw("failed to remove watch entry", "error", err, "sessionId", sessionID)
	}
}

func (s *Scheduler) archive(ctx context.Context, state *models.SessionState) {
	arch := models.SessionArchive{
		SessionID:     state.ID,
		Channel:       string(state.Channel),
		Status:        string(state.Status),
		RequesterID:   state.RequesterID,
		ConsultantID:  state.ConsultantID,
		InquiryType:   state.InquiryType,
		PriorityScore: state.PriorityScore,
		RetryCount:    state.RetryCount,
		EndReason:     state.EndReason,
		EndedBy:       state.EndedBy,
		EnqueuedAt:    time.UnixMilli(state.EnqueuedAt).UTC(),
		EndedAt:       time.Now().UTC(),
	}
	if err := s.deps.Archive.InsertOne(ctx, arch); err != nil {
		zap.S().Errorw("failed to archive session", "error", err, "sessionId", state.ID)
	}
}
