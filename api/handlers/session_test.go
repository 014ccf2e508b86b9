package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/busanbank/live-support-api/api/handlers"
	"github.com/busanbank/live-support-api/coordination"
	coordmocks "github.com/busanbank/live-support-api/coordination/mocks"
	dbmocks "github.com/busanbank/live-support-api/databases/mocks"
	"github.com/busanbank/live-support-api/models"
)

type sessionMocks struct {
	store   *coordmocks.SessionStore
	queue   *coordmocks.WaitingQueue
	pool    *coordmocks.ConsultantPool
	watch   *coordmocks.AssignedWatch
	archive *dbmocks.SessionArchiveDatabase
}

func newSessionHandler() (handlers.Session, *sessionMocks) {
	m := &sessionMocks{
		store:   &coordmocks.SessionStore{},
		queue:   &coordmocks.WaitingQueue{},
		pool:    &coordmocks.ConsultantPool{},
		watch:   &coordmocks.AssignedWatch{},
		archive: &dbmocks.SessionArchiveDatabase{},
	}
	return handlers.Session{
		Store:   m.store,
		Queue:   m.queue,
		Pool:    m.pool,
		Watch:   m.watch,
		Archive: m.archive,
		LockTTL: 10 * time.Second,
	}, m
}

func postJSON(t *testing.T, url string, vars map[string]string, body interface{}) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest("POST", url, bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer abc123")
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func decodeOperation(t *testing.T, rr *httptest.ResponseRecorder) models.OperationResponse {
	t.Helper()
	var resp models.OperationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestSession_CreateSessionHandler(t *testing.T) {
	s, m := newSessionHandler()

	m.store.On("Get", mock.Anything, "sess-1").Return(nil, coordination.ErrNotFound)
	m.store.On("PutNew", mock.Anything, mock.Anything).Return(nil)
	m.store.On("TransitionIf", mock.Anything, mock.Anything, models.StatusWaiting, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.SessionState).Status = models.StatusWaiting
		}).Return(nil)
	m.queue.On("Enqueue", mock.Anything, "loan", "sess-1", mock.Anything).Return(nil)

	req := postJSON(t, "/api/v1/sessions", nil, map[string]string{
		"sessionId":   "sess-1",
		"requesterId": "user-1",
		"channel":     "VOICE",
		"inquiryType": "loan",
		"tier":        "VIP",
	})
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.CreateSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	resp := decodeOperation(t, rr)
	assert.Equal(t, models.ResultOK, resp.Result)
	assert.Equal(t, models.StatusWaiting, resp.Status)
	m.queue.AssertExpectations(t)
}

func TestSession_CreateSessionHandlerLosesCreateRace(t *testing.T) {
	s, m := newSessionHandler()

	// the first read saw nothing, but another create for the same id landed
	// in between; the store refuses the write and the handler must report
	// the state that request produced instead of rewinding it
	m.store.On("Get", mock.Anything, "sess-1").Return(nil, coordination.ErrNotFound).Once()
	m.store.On("PutNew", mock.Anything, mock.Anything).Return(coordination.ErrConflict)
	m.store.On("Get", mock.Anything, "sess-1").Return(&models.SessionState{
		ID:           "sess-1",
		Channel:      models.ChannelChat,
		Status:       models.StatusAssigned,
		ConsultantID: "agent-1",
		InquiryType:  "loan",
	}, nil)

	req := postJSON(t, "/api/v1/sessions", nil, map[string]string{
		"sessionId":   "sess-1",
		"requesterId": "user-1",
		"channel":     "CHAT",
		"inquiryType": "loan",
		"tier":        "BASIC",
	})
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.CreateSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeOperation(t, rr)
	assert.Equal(t, models.ResultIgnored, resp.Result)
	assert.Equal(t, models.StatusAssigned, resp.Status)
	m.store.AssertNotCalled(t, "TransitionIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_CreateSessionHandlerIdempotent(t *testing.T) {
	s, m := newSessionHandler()

	live := &models.SessionState{
		ID:            "sess-1",
		Channel:       models.ChannelChat,
		Status:        models.StatusWaiting,
		InquiryType:   "loan",
		PriorityScore: 60,
		EnqueuedAt:    time.Now().Add(-time.Minute).UnixMilli(),
	}
	m.store.On("Get", mock.Anything, "sess-1").Return(live, nil)
	m.queue.On("Enqueue", mock.Anything, "loan", "sess-1",
		coordination.RankScore(60, time.UnixMilli(live.EnqueuedAt))).Return(nil)

	req := postJSON(t, "/api/v1/sessions", nil, map[string]string{
		"sessionId":   "sess-1",
		"requesterId": "user-1",
	})
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.CreateSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeOperation(t, rr)
	assert.Equal(t, models.ResultIgnored, resp.Result)
	// the retry repaired the queue entry at the original rank
	m.queue.AssertExpectations(t)
	m.store.AssertNotCalled(t, "PutNew", mock.Anything, mock.Anything)
}

func TestSession_AcceptSessionHandler(t *testing.T) {
	s, m := newSessionHandler()

	waiting := &models.SessionState{
		ID:          "sess-1",
		Channel:     models.ChannelChat,
		Status:      models.StatusWaiting,
		InquiryType: "loan",
	}
	m.store.On("Get", mock.Anything, "sess-1").Return(waiting, nil)
	m.pool.On("Status", mock.Anything, "agent-1").Return(coordination.ConsultantReady, nil)
	m.pool.On("Lock", mock.Anything, "agent-1", 10*time.Second).Return(true, nil)
	m.store.On("TransitionIf", mock.Anything, waiting, models.StatusAssigned, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.SessionState).Status = models.StatusAssigned
		}).Return(nil)
	m.queue.On("RemoveEverywhere", mock.Anything, "loan", "sess-1").Return(nil)
	m.watch.On("Add", mock.Anything, "sess-1", mock.Anything).Return(nil)
	m.pool.On("IncrementLoad", mock.Anything, "agent-1").Return(nil)
	m.pool.On("MarkBusy", mock.Anything, "agent-1").Return(nil)
	m.pool.On("Unlock", mock.Anything, "agent-1").Return(nil)

	req := postJSON(t, "/api/v1/sessions/sess-1/accept",
		map[string]string{"session_id": "sess-1"},
		map[string]string{"consultantId": "agent-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.AcceptSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeOperation(t, rr)
	assert.Equal(t, models.ResultOK, resp.Result)
	assert.Equal(t, "agent-1", resp.ConsultantID)
	m.watch.AssertExpectations(t)
}

func TestSession_AcceptSessionHandlerLosesRace(t *testing.T) {
	s, m := newSessionHandler()

	waiting := &models.SessionState{
		ID:          "sess-1",
		Channel:     models.ChannelChat,
		Status:      models.StatusWaiting,
		InquiryType: "loan",
	}
	m.store.On("Get", mock.Anything, "sess-1").Return(waiting, nil)
	m.pool.On("Status", mock.Anything, "agent-2").Return(coordination.ConsultantReady, nil)
	m.pool.On("Lock", mock.Anything, "agent-2", 10*time.Second).Return(true, nil)
	// the scheduler assigned the session between the read and the commit
	m.store.On("TransitionIf", mock.Anything, waiting, models.StatusAssigned, mock.Anything).
		Return(coordination.ErrConflict)
	m.pool.On("Unlock", mock.Anything, "agent-2").Return(nil)

	req := postJSON(t, "/api/v1/sessions/sess-1/accept",
		map[string]string{"session_id": "sess-1"},
		map[string]string{"consultantId": "agent-2"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.AcceptSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeOperation(t, rr)
	assert.Equal(t, models.ResultIgnored, resp.Result)
	m.pool.AssertNotCalled(t, "IncrementLoad", mock.Anything, mock.Anything)
	m.watch.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_AcceptSessionHandlerConsultantBusy(t *testing.T) {
	s, m := newSessionHandler()

	waiting := &models.SessionState{ID: "sess-1", Channel: models.ChannelChat, Status: models.StatusWaiting}
	m.store.On("Get", mock.Anything, "sess-1").Return(waiting, nil)
	m.pool.On("Status", mock.Anything, "agent-1").Return(coordination.ConsultantBusy, nil)

	req := postJSON(t, "/api/v1/sessions/sess-1/accept",
		map[string]string{"session_id": "sess-1"},
		map[string]string{"consultantId": "agent-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.AcceptSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeOperation(t, rr)
	assert.Equal(t, models.ResultIgnored, resp.Result)
	assert.Equal(t, "consultant not ready", resp.Reason)
}

func TestSession_AgentJoinedHandler(t *testing.T) {
	s, m := newSessionHandler()

	assigned := &models.SessionState{
		ID:           "sess-1",
		Channel:      models.ChannelVoice,
		Status:       models.StatusAssigned,
		ConsultantID: "agent-1",
	}
	m.store.On("Get", mock.Anything, "sess-1").Return(assigned, nil)
	m.store.On("TransitionIf", mock.Anything, assigned, models.StatusConnected, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.SessionState).Status = models.StatusConnected
		}).Return(nil)
	m.watch.On("Remove", mock.Anything, "sess-1").Return(nil)

	req := postJSON(t, "/api/v1/sessions/sess-1/agent-joined",
		map[string]string{"session_id": "sess-1"},
		map[string]string{"consultantId": "agent-1", "mediaUid": "70001"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.AgentJoinedHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeOperation(t, rr)
	assert.Equal(t, models.ResultOK, resp.Result)
	assert.Equal(t, models.StatusConnected, resp.Status)
	m.watch.AssertExpectations(t)
}

func TestSession_EndSessionHandlerReleasesConsultant(t *testing.T) {
	s, m := newSessionHandler()

	chatting := &models.SessionState{
		ID:           "sess-1",
		Channel:      models.ChannelChat,
		Status:       models.StatusChatting,
		ConsultantID: "agent-1",
		InquiryType:  "loan",
		EnqueuedAt:   time.Now().Add(-time.Hour).UnixMilli(),
	}
	m.store.On("Get", mock.Anything, "sess-1").Return(chatting, nil)
	m.store.On("TransitionIf", mock.Anything, chatting, models.StatusClosed, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.SessionState).Status = models.StatusClosed
		}).Return(nil)
	m.queue.On("RemoveEverywhere", mock.Anything, "loan", "sess-1").Return(nil)
	m.watch.On("Remove", mock.Anything, "sess-1").Return(nil)
	m.pool.On("Release", mock.Anything, "agent-1").Return(nil)
	m.archive.On("InsertOne", mock.Anything, mock.MatchedBy(func(a models.SessionArchive) bool {
		return a.SessionID == "sess-1" && a.EndedBy == "CONSULTANT"
	})).Return(nil)

	req := postJSON(t, "/api/v1/sessions/sess-1/end",
		map[string]string{"session_id": "sess-1"},
		map[string]string{"reason": "resolved", "endedBy": "CONSULTANT"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.EndSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeOperation(t, rr)
	assert.Equal(t, models.ResultOK, resp.Result)
	assert.Equal(t, models.StatusClosed, resp.Status)
	m.pool.AssertCalled(t, "Release", mock.Anything, "agent-1")
	m.archive.AssertExpectations(t)
}

func TestSession_EndSessionHandlerIdempotent(t *testing.T) {
	s, m := newSessionHandler()

	done := &models.SessionState{
		ID:          "sess-1",
		Channel:     models.ChannelChat,
		Status:      models.StatusClosed,
		InquiryType: "loan",
	}
	m.store.On("Get", mock.Anything, "sess-1").Return(done, nil)
	m.queue.On("RemoveEverywhere", mock.Anything, "loan", "sess-1").Return(nil)
	m.watch.On("Remove", mock.Anything, "sess-1").Return(nil)

	req := postJSON(t, "/api/v1/sessions/sess-1/end",
		map[string]string{"session_id": "sess-1"},
		map[string]string{"reason": "resolved", "endedBy": "USER"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.EndSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeOperation(t, rr)
	assert.Equal(t, models.ResultIgnored, resp.Result)
	// the double end never touches the consultant pool or the archive
	m.pool.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	m.archive.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
	m.store.AssertNotCalled(t, "TransitionIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_EndSessionHandlerCancelsWaiting(t *testing.T) {
	s, m := newSessionHandler()

	waiting := &models.SessionState{
		ID:          "sess-1",
		Channel:     models.ChannelChat,
		Status:      models.StatusWaiting,
		InquiryType: "loan",
	}
	m.store.On("Get", mock.Anything, "sess-1").Return(waiting, nil)
	m.store.On("TransitionIf", mock.Anything, waiting, models.StatusCancelled, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.SessionState).Status = models.StatusCancelled
		}).Return(nil)
	m.queue.On("RemoveEverywhere", mock.Anything, "loan", "sess-1").Return(nil)
	m.watch.On("Remove", mock.Anything, "sess-1").Return(nil)
	m.archive.On("InsertOne", mock.Anything, mock.Anything).Return(nil)

	req := postJSON(t, "/api/v1/sessions/sess-1/end",
		map[string]string{"session_id": "sess-1"},
		map[string]string{"reason": "gave up", "endedBy": "USER"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.EndSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeOperation(t, rr)
	assert.Equal(t, models.ResultOK, resp.Result)
	assert.Equal(t, models.StatusCancelled, resp.Status)
	m.pool.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestSession_EndSessionHandlerInvalidatesTokens(t *testing.T) {
	s, m := newSessionHandler()
	tokens := &coordmocks.TokenCache{}
	s.Tokens = tokens

	connected := &models.SessionState{
		ID:           "sess-1",
		Channel:      models.ChannelVoice,
		Status:       models.StatusConnected,
		ConsultantID: "agent-1",
		InquiryType:  "loan",
	}
	m.store.On("Get", mock.Anything, "sess-1").Return(connected, nil)
	m.store.On("TransitionIf", mock.Anything, connected, models.StatusEnded, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.SessionState).Status = models.StatusEnded
		}).Return(nil)
	m.queue.On("RemoveEverywhere", mock.Anything, "loan", "sess-1").Return(nil)
	m.watch.On("Remove", mock.Anything, "sess-1").Return(nil)
	tokens.On("Invalidate", mock.Anything, "sess-1", "CUSTOMER").Return(nil)
	tokens.On("Invalidate", mock.Anything, "sess-1", "CONSULTANT").Return(nil)
	m.pool.On("Release", mock.Anything, "agent-1").Return(nil)
	m.archive.On("InsertOne", mock.Anything, mock.Anything).Return(nil)

	req := postJSON(t, "/api/v1/sessions/sess-1/end",
		map[string]string{"session_id": "sess-1"},
		map[string]string{"reason": "resolved", "endedBy": "USER"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.EndSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	tokens.AssertExpectations(t)
}

func TestSession_SessionByIDHandlerNotFound(t *testing.T) {
	s, m := newSessionHandler()

	m.store.On("Get", mock.Anything, "nope").Return(nil, coordination.ErrNotFound)
	m.archive.On("FindBySession", mock.Anything, "nope").
		Return(nil, errors.New("mongo: no documents in result"))

	req, _ := http.NewRequest("GET", "/api/v1/sessions/nope", nil)
	req = mux.SetURLVars(req, map[string]string{"session_id": "nope"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.SessionByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSession_SessionByIDHandlerPurgedFallsBackToArchive(t *testing.T) {
	s, m := newSessionHandler()

	m.store.On("Get", mock.Anything, "sess-1").Return(nil, coordination.ErrNotFound)
	m.archive.On("FindBySession", mock.Anything, "sess-1").Return(&models.SessionArchive{
		SessionID: "sess-1",
		Status:    string(models.StatusClosed),
		EndReason: "resolved",
	}, nil)

	req, _ := http.NewRequest("GET", "/api/v1/sessions/sess-1", nil)
	req = mux.SetURLVars(req, map[string]string{"session_id": "sess-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.SessionByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got models.SessionArchive
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, "resolved", got.EndReason)
}

func TestSession_WaitingSessionsHandler(t *testing.T) {
	s, m := newSessionHandler()

	entries := []models.WaitingEntry{
		{SessionID: "sess-1", RankScore: 100},
		{SessionID: "sess-2", RankScore: 200},
	}
	m.queue.On("Waiting", mock.Anything, "loan", int64(10)).Return(entries, nil)

	req, _ := http.NewRequest("GET", "/api/v1/sessions/waiting?type=loan&limit=10", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.WaitingSessionsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got []models.WaitingEntry
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, entries, got)
}
