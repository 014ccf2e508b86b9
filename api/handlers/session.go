package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/busanbank/live-support-api/config"
	"github.com/busanbank/live-support-api/coordination"
	"github.com/busanbank/live-support-api/databases"
	"github.com/busanbank/live-support-api/models"
)

// Session exposes the lifecycle endpoints for consultation sessions
type Session struct {
	Store   coordination.SessionStore
	Queue   coordination.WaitingQueue
	Pool    coordination.ConsultantPool
	Watch   coordination.AssignedWatch
	Archive databases.SessionArchiveDatabase
	Tokens  coordination.TokenCache
	LockTTL time.Duration
}

// inquiry type weights added on top of the requester tier weight
var inquiryWeights = map[string]int{
	"lost":    50,
	"product": 40,
	"loan":    30,
	"card":    20,
	"deposit": 15,
}

// tier weights per requester grade
var tierWeights = map[string]int{
	"VIP":      100,
	"STANDARD": 50,
	"BASIC":    10,
}

// priorityScore combines requester tier and inquiry type into the queue
// priority. One point buys one priorityFactor of virtual head start.
func priorityScore(tier, inquiryType string) int {
	score := tierWeights[strings.ToUpper(strings.TrimSpace(tier))]
	score += inquiryWeights[strings.ToLower(strings.TrimSpace(inquiryType))]
	return score
}

type createSessionRequest struct {
	SessionID   string `json:"sessionId"`
	RequesterID string `json:"requesterId"`
	Channel     string `json:"channel"`
	InquiryType string `json:"inquiryType"`
	Tier        string `json:"tier"`
}

type acceptRequest struct {
	ConsultantID string `json:"consultantId"`
}

type agentJoinedRequest struct {
	ConsultantID string `json:"consultantId"`
	MediaUID     string `json:"mediaUid"`
}

type endRequest struct {
	Reason  string `json:"reason"`
	EndedBy string `json:"endedBy"`
}

// CreateSessionHandler registers a session and puts it in the waiting queue.
// Calling it again for a live session is a repair, not an error: a WAITING
// session is re-added to its queue at its original rank.
func (s Session) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.RequesterID == "" {
		config.ErrorStatus("requesterId is required", http.StatusBadRequest, w, nil)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	existing, err := s.Store.Get(r.Context(), req.SessionID)
	if err != nil && err != coordination.ErrNotFound {
		config.ErrorStatus("failed to read session", http.StatusInternalServerError, w, err)
		return
	}
	if existing != nil && !existing.Status.IsTerminal() {
		// already live; if it should be queued, make sure it actually is
		if existing.Status == models.StatusWaiting {
			score := coordination.RankScore(existing.PriorityScore, time.UnixMilli(existing.EnqueuedAt))
			if err := s.Queue.Enqueue(r.Context(), existing.InquiryType, existing.ID, score); err != nil {
				config.ErrorStatus("failed to re-enqueue session", http.StatusInternalServerError, w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, models.OperationResponse{
			Result:    models.ResultIgnored,
			SessionID: existing.ID,
			Status:    existing.Status,
			Reason:    "session already active",
		})
		return
	}

	now := time.Now()
	state := &models.SessionState{
		ID:            req.SessionID,
		Channel:       models.ParseChannel(req.Channel),
		Status:        models.StatusNone,
		RequesterID:   req.RequesterID,
		InquiryType:   strings.TrimSpace(req.InquiryType),
		PriorityScore: priorityScore(req.Tier, req.InquiryType),
		EnqueuedAt:    now.UnixMilli(),
	}
	if err := s.Store.PutNew(r.Context(), state); err != nil {
		if err == coordination.ErrConflict {
			// another create for the same id won the race; report whatever
			// state it reached instead of touching the record
			current, getErr := s.Store.Get(r.Context(), state.ID)
			if getErr != nil {
				config.ErrorStatus("failed to read session", http.StatusInternalServerError, w, getErr)
				return
			}
			writeJSON(w, http.StatusOK, models.OperationResponse{
				Result:    models.ResultIgnored,
				SessionID: current.ID,
				Status:    current.Status,
				Reason:    "session already active",
			})
			return
		}
		config.ErrorStatus("failed to create session", http.StatusInternalServerError, w, err)
		return
	}
	if err := s.Store.TransitionIf(r.Context(), state, models.StatusWaiting, map[string]string{
		"enqueuedAt": strconv.FormatInt(now.UnixMilli(), 10),
	}); err != nil {
		if err == coordination.ErrConflict {
			writeJSON(w, http.StatusOK, models.OperationResponse{
				Result:    models.ResultIgnored,
				SessionID: state.ID,
				Reason:    "already handled",
			})
			return
		}
		config.ErrorStatus("failed to transition session to waiting", http.StatusInternalServerError, w, err)
		return
	}

	score := coordination.RankScore(state.PriorityScore, now)
	if err := s.Queue.Enqueue(r.Context(), state.InquiryType, state.ID, score); err != nil {
		config.ErrorStatus("failed to enqueue session", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("session enqueued",
		"sessionId", state.ID,
		"channel", state.Channel,
		"inquiryType", state.InquiryType,
		"priorityScore", state.PriorityScore,
	)
	writeJSON(w, http.StatusCreated, models.OperationResponse{
		Result:    models.ResultOK,
		SessionID: state.ID,
		Status:    state.Status,
	})
}

// EnqueueSessionHandler puts an existing session back into its waiting queue.
// Used when a customer retries after a dropped request; a session that is
// already waiting or further along is left alone.
func (s Session) EnqueueSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	state, err := s.Store.Get(r.Context(), sessionID)
	if err == coordination.ErrNotFound {
		config.ErrorStatus("session not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to read session", http.StatusInternalServerError, w, err)
		return
	}

	if state.Status != models.StatusNone {
		writeJSON(w, http.StatusOK, models.OperationResponse{
			Result:    models.ResultIgnored,
			SessionID: state.ID,
			Status:    state.Status,
			Reason:    "session not eligible for enqueue",
		})
		return
	}

	now := time.Now()
	err = s.Store.TransitionIf(r.Context(), state, models.StatusWaiting, map[string]string{
		"enqueuedAt": strconv.FormatInt(now.UnixMilli(), 10),
	})
	if err == coordination.ErrConflict || err == coordination.ErrInvalidTransition {
		writeJSON(w, http.StatusOK, models.OperationResponse{
			Result:    models.ResultIgnored,
			SessionID: state.ID,
			Status:    state.Status,
			Reason:    "already handled",
		})
		return
	}
	if err != nil {
		config.ErrorStatus("failed to transition session to waiting", http.StatusInternalServerError, w, err)
		return
	}

	score := coordination.RankScore(state.PriorityScore, now)
	if err := s.Queue.Enqueue(r.Context(), state.InquiryType, state.ID, score); err != nil {
		config.ErrorStatus("failed to enqueue session", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.OperationResponse{
		Result:    models.ResultOK,
		SessionID: state.ID,
		Status:    state.Status,
	})
}

// AcceptSessionHandler lets a consultant manually claim a waiting session,
// bypassing the scheduler. The status gate makes concurrent accepts safe:
// whoever commits WAITING -> ASSIGNED first wins, the loser is told "ignored".
func (s Session) AcceptSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.ConsultantID == "" {
		config.ErrorStatus("consultantId is required", http.StatusBadRequest, w, nil)
		return
	}

	state, err := s.Store.Get(r.Context(), sessionID)
	if err == coordination.ErrNotFound {
		config.ErrorStatus("session not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to read session", http.StatusInternalServerError, w, err)
		return
	}
	if state.Status != models.StatusWaiting {
		writeJSON(w, http.StatusOK, models.OperationResponse{
			Result:    models.ResultIgnored,
			SessionID: state.ID,
			Status:    state.Status,
			Reason:    "session not waiting",
		})
		return
	}

	status, err := s.Pool.Status(r.Context(), req.ConsultantID)
	if err != nil {
		config.ErrorStatus("failed to read consultant status", http.StatusInternalServerError, w, err)
		return
	}
	if status != coordination.ConsultantReady {
		writeJSON(w, http.StatusOK, models.OperationResponse{
			Result:    models.ResultIgnored,
			SessionID: state.ID,
			Status:    state.Status,
			Reason:    "consultant not ready",
		})
		return
	}

	locked, err := s.Pool.Lock(r.Context(), req.ConsultantID, s.LockTTL)
	if err != nil {
		config.ErrorStatus("failed to lock consultant", http.StatusInternalServerError, w, err)
		return
	}
	if !locked {
		writeJSON(w, http.StatusOK, models.OperationResponse{
			Result:    models.ResultIgnored,
			SessionID: state.ID,
			Status:    state.Status,
			Reason:    "consultant busy",
		})
		return
	}
	defer s.Pool.Unlock(r.Context(), req.ConsultantID)

	now := time.Now().UnixMilli()
	err = s.Store.TransitionIf(r.Context(), state, models.StatusAssigned, map[string]string{
		"consultantId": req.ConsultantID,
		"assignedAt":   strconv.FormatInt(now, 10),
		"retryCount":   "0",
	})
	if err == coordination.ErrConflict || err == coordination.ErrInvalidTransition {
		writeJSON(w, http.StatusOK, models.OperationResponse{
			Result:    models.ResultIgnored,
			SessionID: state.ID,
			Reason:    "already handled",
		})
		return
	}
	if err != nil {
		config.ErrorStatus("failed to assign session", http.StatusInternalServerError, w, err)
		return
	}

	if err := s.Queue.RemoveEverywhere(r.Context(), state.InquiryType, state.ID); err != nil {
		zap.S().Warnw("failed to remove accepted session from queue", "error", err, "sessionId", state.ID)
	}
	if err := s.Watch.Add(r.Context(), state.ID, time.UnixMilli(now)); err != nil {
		zap.S().Warnw("failed to watch accepted session", "error", err, "sessionId", state.ID)
	}
	if err := s.Pool.IncrementLoad(r.Context(), req.ConsultantID); err != nil {
		zap.S().Warnw("failed to increment consultant load", "error", err, "consultantId", req.ConsultantID)
	}
	if err := s.Pool.MarkBusy(r.Context(), req.ConsultantID); err != nil {
		zap.S().Warnw("failed to mark consultant busy", "error", err, "consultantId", req.ConsultantID)
	}

	zap.S().Infow("session accepted",
		"sessionId", state.ID,
		"consultantId", req.ConsultantID,
	)
	writeJSON(w, http.StatusOK, models.OperationResponse{
		Result:       models.ResultOK,
		SessionID:    state.ID,
		Status:       state.Status,
		ConsultantID: req.ConsultantID,
	})
}

// AgentJoinedHandler is the join handshake: the consultant's client confirms
// it is in the media channel, moving the session from ASSIGNED to its engaged
// state and cancelling the watchdog timer.
func (s Session) AgentJoinedHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	var req agentJoinedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	state, err := s.Store.Get(r.Context(), sessionID)
	if err == coordination.ErrNotFound {
		config.ErrorStatus("session not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to read session", http.StatusInternalServerError, w, err)
		return
	}
	if req.ConsultantID != "" && state.ConsultantID != "" && req.ConsultantID != state.ConsultantID {
		writeJSON(w, http.StatusOK, models.OperationResponse{
			Result:    models.ResultIgnored,
			SessionID: state.ID,
			Status:    state.Status,
			Reason:    "session assigned to another consultant",
		})
		return
	}

	extra := map[string]string{
		"connectedAt": strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
	if req.MediaUID != "" {
		extra["agentMediaUid"] = req.MediaUID
	}

	err = s.Store.TransitionIf(r.Context(), state, state.Channel.EngagedStatus(), extra)
	if err == coordination.ErrConflict || err == coordination.ErrInvalidTransition {
		// duplicate handshake or the watchdog already re-queued the session
		writeJSON(w, http.StatusOK, models.OperationResponse{
			Result:    models.ResultIgnored,
			SessionID: state.ID,
			Status:    state.Status,
			Reason:    "already handled",
		})
		return
	}
	if err != nil {
		config.ErrorStatus("failed to connect session", http.StatusInternalServerError, w, err)
		return
	}

	if err := s.Watch.Remove(r.Context(), state.ID); err != nil {
		zap.S().Warnw("failed to remove session from assigned watch", "error", err, "sessionId", state.ID)
	}

	zap.S().Infow("agent joined session",
		"sessionId", state.ID,
		"consultantId", state.ConsultantID,
		"status", state.Status,
	)
	writeJSON(w, http.StatusOK, models.OperationResponse{
		Result:       models.ResultOK,
		SessionID:    state.ID,
		Status:       state.Status,
		ConsultantID: state.ConsultantID,
	})
}

// EndSessionHandler terminates a session from any live state. The operation
// is idempotent; ending an already terminal session cleans up queue residue
// and reports "ignored". The consultant is released exactly once because only
// the caller that wins the terminal transition reaches the release step.
func (s Session) EndSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	var req endRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	state, err := s.Store.Get(r.Context(), sessionID)
	if err == coordination.ErrNotFound {
		writeJSON(w, http.StatusOK, models.OperationResponse{
			Result:    models.ResultIgnored,
			SessionID: sessionID,
			Reason:    "session not found",
		})
		return
	}
	if err != nil {
		config.ErrorStatus("failed to read session", http.StatusInternalServerError, w, err)
		return
	}

	if state.Status.IsTerminal() {
		s.cleanupResidue(r, state)
		writeJSON(w, http.StatusOK, models.OperationResponse{
			Result:    models.ResultIgnored,
			SessionID: state.ID,
			Status:    state.Status,
			Reason:    "session already terminal",
		})
		return
	}

	wasAssigned := state.ConsultantID != "" &&
		(state.Status == models.StatusAssigned || state.Status == state.Channel.EngagedStatus())

	to := state.Channel.EndedStatus()
	if state.Status == models.StatusNone || state.Status == models.StatusWaiting {
		to = state.Channel.CancelledStatus()
	}

	err = s.Store.TransitionIf(r.Context(), state, to, map[string]string{
		"endedAt":   strconv.FormatInt(time.Now().UnixMilli(), 10),
		"endReason": req.Reason,
		"endedBy":   req.EndedBy,
	})
	if err == coordination.ErrConflict || err == coordination.ErrInvalidTransition {
		writeJSON(w, http.StatusOK, models.OperationResponse{
			Result:    models.ResultIgnored,
			SessionID: state.ID,
			Status:    state.Status,
			Reason:    "already handled",
		})
		return
	}
	if err != nil {
		config.ErrorStatus("failed to end session", http.StatusInternalServerError, w, err)
		return
	}

	s.cleanupResidue(r, state)

	// a credential for a dead session must not outlive it
	if s.Tokens != nil {
		for _, role := range []string{"CUSTOMER", "CONSULTANT"} {
			if err := s.Tokens.Invalidate(r.Context(), state.ID, role); err != nil {
				zap.S().Warnw("failed to invalidate media token", "error", err, "sessionId", state.ID, "role", role)
			}
		}
	}

	if wasAssigned {
		if err := s.Pool.Release(r.Context(), state.ConsultantID); err != nil {
			zap.S().Warnw("failed to release consultant", "error", err, "consultantId", state.ConsultantID)
		}
	}

	s.archive(r, state, req.Reason, req.EndedBy)

	zap.S().Infow("session ended",
		"sessionId", state.ID,
		"status", state.Status,
		"reason", req.Reason,
		"endedBy", req.EndedBy,
	)
	writeJSON(w, http.StatusOK, models.OperationResponse{
		Result:    models.ResultOK,
		SessionID: state.ID,
		Status:    state.Status,
	})
}

// cleanupResidue removes the session from every scheduling structure it could
// still be sitting in
func (s Session) cleanupResidue(r *http.Request, state *models.SessionState) {
	if err := s.Queue.RemoveEverywhere(r.Context(), state.InquiryType, state.ID); err != nil {
		zap.S().Warnw("failed to clear queue residue", "error", err, "sessionId", state.ID)
	}
	if err := s.Watch.Remove(r.Context(), state.ID); err != nil {
		zap.S().Warnw("failed to clear watch residue", "error", err, "sessionId", state.ID)
	}
}

func (s Session) archive(r *http.Request, state *models.SessionState, reason, endedBy string) {
	arch := models.SessionArchive{
		SessionID:     state.ID,
		Channel:       string(state.Channel),
		Status:        string(state.Status),
		RequesterID:   state.RequesterID,
		ConsultantID:  state.ConsultantID,
		InquiryType:   state.InquiryType,
		PriorityScore: state.PriorityScore,
		RetryCount:    state.RetryCount,
		EndReason:     reason,
		EndedBy:       endedBy,
		EnqueuedAt:    time.UnixMilli(state.EnqueuedAt).UTC(),
		EndedAt:       time.Now().UTC(),
	}
	if err := s.Archive.InsertOne(r.Context(), arch); err != nil {
		zap.S().Errorw("failed to archive session", "error", err, "sessionId", state.ID)
	}
}

// SessionByIDHandler returns the current coordination record for one session.
// Once the consultant has joined, the customer's cached media token rides
// along so a reconnecting client does not need a second round trip.
func (s Session) SessionByIDHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	state, err := s.Store.Get(r.Context(), sessionID)
	if err == coordination.ErrNotFound {
		// the hash may already be purged; the archive row is the durable record
		if arch, archErr := s.Archive.FindBySession(r.Context(), sessionID); archErr == nil {
			writeJSON(w, http.StatusOK, arch)
			return
		}
		config.ErrorStatus("session not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to read session", http.StatusInternalServerError, w, err)
		return
	}

	resp := struct {
		*models.SessionState
		Token *models.MediaToken `json:"token,omitempty"`
	}{SessionState: state}
	if s.Tokens != nil && state.Status == state.Channel.EngagedStatus() {
		if tok, err := s.Tokens.Get(r.Context(), state.ID, "CUSTOMER"); err == nil {
			resp.Token = tok
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// WaitingSessionsHandler lists the head of one inquiry-type queue in serve order
func (s Session) WaitingSessionsHandler(w http.ResponseWriter, r *http.Request) {
	inquiryType := r.URL.Query().Get("type")
	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.Queue.Waiting(r.Context(), inquiryType, limit)
	if err != nil {
		config.ErrorStatus("failed to list waiting sessions", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// writeJSON marshals v and writes it with the given status code
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(status)
	w.Write(b)
}
