package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/busanbank/live-support-api/api/handlers"
	coordmocks "github.com/busanbank/live-support-api/coordination/mocks"
	dbmocks "github.com/busanbank/live-support-api/databases/mocks"
	"github.com/busanbank/live-support-api/models"
)

func TestMessage_CreateMessageHandler(t *testing.T) {
	relay := &coordmocks.MessageAppender{}
	db := &dbmocks.ChatMessageDatabase{}
	m := handlers.Message{Relay: relay, DB: db}

	relay.On("Append", mock.Anything, mock.MatchedBy(func(msg models.ChatMessage) bool {
		return msg.SessionID == "sess-1" && msg.SenderType == models.SenderUser && msg.Text == "hello"
	})).Return("1712000000000-0", nil)

	req := postJSON(t, "/api/v1/sessions/sess-1/messages",
		map[string]string{"session_id": "sess-1"},
		map[string]string{"senderType": "user", "senderId": "user-9", "text": "hello"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(m.CreateMessageHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.ResultOK, resp["result"])
	assert.Equal(t, "1712000000000-0", resp["recordId"])
	relay.AssertExpectations(t)
}

func TestMessage_CreateMessageHandlerRefreshesActivity(t *testing.T) {
	relay := &coordmocks.MessageAppender{}
	store := &coordmocks.SessionStore{}
	m := handlers.Message{Relay: relay, Store: store}

	relay.On("Append", mock.Anything, mock.Anything).Return("1712000000000-1", nil)
	store.On("Touch", mock.Anything, "sess-1", mock.Anything).Return(nil)

	req := postJSON(t, "/api/v1/sessions/sess-1/messages",
		map[string]string{"session_id": "sess-1"},
		map[string]string{"senderType": "CONSULTANT", "senderId": "agent-3", "text": "anything else?"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(m.CreateMessageHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	store.AssertExpectations(t)
}

func TestMessage_CreateMessageHandlerEmptyText(t *testing.T) {
	relay := &coordmocks.MessageAppender{}
	m := handlers.Message{Relay: relay}

	req := postJSON(t, "/api/v1/sessions/sess-1/messages",
		map[string]string{"session_id": "sess-1"},
		map[string]string{"senderType": "USER", "text": "   "})
	rr := httptest.NewRecorder()
	http.HandlerFunc(m.CreateMessageHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	relay.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestMessage_CreateMessageHandlerBadSender(t *testing.T) {
	relay := &coordmocks.MessageAppender{}
	m := handlers.Message{Relay: relay}

	req := postJSON(t, "/api/v1/sessions/sess-1/messages",
		map[string]string{"session_id": "sess-1"},
		map[string]string{"senderType": "ROBOT", "text": "hi"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(m.CreateMessageHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	relay.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestMessage_MessagesBySessionHandler(t *testing.T) {
	db := &dbmocks.ChatMessageDatabase{}
	m := handlers.Message{DB: db}

	msgs := []models.ChatMessage{
		{SessionID: "sess-1", SenderType: models.SenderUser, Text: "hi"},
		{SessionID: "sess-1", SenderType: models.SenderConsultant, Text: "hello"},
	}
	db.On("FindBySession", mock.Anything, "sess-1", int64(100)).Return(msgs, nil)

	req, _ := http.NewRequest("GET", "/api/v1/sessions/sess-1/messages", nil)
	req = mux.SetURLVars(req, map[string]string{"session_id": "sess-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(m.MessagesBySessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got []models.ChatMessage
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestMessage_MarkReadHandler(t *testing.T) {
	db := &dbmocks.ChatMessageDatabase{}
	m := handlers.Message{DB: db}

	db.On("MarkRead", mock.Anything, "sess-1", models.SenderConsultant).Return(int64(3), nil)
	db.On("CountUnread", mock.Anything, "sess-1", models.SenderConsultant).Return(int64(0), nil)

	b, _ := json.Marshal(map[string]string{"readerType": "consultant"})
	req, _ := http.NewRequest("PUT", "/api/v1/sessions/sess-1/messages/read", bytes.NewReader(b))
	req = mux.SetURLVars(req, map[string]string{"session_id": "sess-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(m.MarkReadHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp models.UnreadResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Updated)
	assert.Equal(t, int64(0), resp.Unread)
}

func TestMessage_MarkReadHandlerBadReader(t *testing.T) {
	db := &dbmocks.ChatMessageDatabase{}
	m := handlers.Message{DB: db}

	b, _ := json.Marshal(map[string]string{"readerType": "SYSTEM"})
	req, _ := http.NewRequest("PUT", "/api/v1/sessions/sess-1/messages/read", bytes.NewReader(b))
	req = mux.SetURLVars(req, map[string]string{"session_id": "sess-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(m.MarkReadHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	db.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything)
}
