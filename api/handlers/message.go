package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/busanbank/live-support-api/config"
	"github.com/busanbank/live-support-api/coordination"
	"github.com/busanbank/live-support-api/databases"
	"github.com/busanbank/live-support-api/models"
)

// Message exposes the chat message endpoints. Writes go through the stream
// relay, reads go straight to the message table, so a burst of sends never
// stalls the request path on database latency.
type Message struct {
	Relay coordination.MessageAppender
	DB    databases.ChatMessageDatabase
	Store coordination.SessionStore
}

type createMessageRequest struct {
	SenderType string `json:"senderType"`
	SenderID   string `json:"senderId"`
	Text       string `json:"text"`
}

type createMessageResponse struct {
	Result    string `json:"result"`
	SessionID string `json:"sessionId"`
	RecordID  string `json:"recordId"`
}

type markReadRequest struct {
	ReaderType string `json:"readerType"`
}

// CreateMessageHandler appends one chat message to the relay stream. The 202
// is honest: persistence happens on the consumer side.
func (m Message) CreateMessageHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		config.ErrorStatus("text is required", http.StatusBadRequest, w, nil)
		return
	}
	senderType := strings.ToUpper(strings.TrimSpace(req.SenderType))
	switch senderType {
	case models.SenderUser, models.SenderConsultant, models.SenderSystem:
	default:
		config.ErrorStatus("invalid senderType", http.StatusBadRequest, w, nil)
		return
	}

	recordID, err := m.Relay.Append(r.Context(), models.ChatMessage{
		SessionID:  sessionID,
		SenderType: senderType,
		SenderID:   req.SenderID,
		Text:       req.Text,
	})
	if err != nil {
		config.ErrorStatus("failed to append message", http.StatusInternalServerError, w, err)
		return
	}

	// keep the idle sweeper off sessions that are still talking
	if m.Store != nil {
		if err := m.Store.Touch(r.Context(), sessionID, time.Now()); err != nil {
			zap.S().Debugw("failed to touch session activity", "error", err, "sessionId", sessionID)
		}
	}

	writeJSON(w, http.StatusAccepted, createMessageResponse{
		Result:    models.ResultOK,
		SessionID: sessionID,
		RecordID:  recordID,
	})
}

// MessagesBySessionHandler returns a session's messages in send order
func (m Message) MessagesBySessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	limit := int64(100)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}

	msgs, err := m.DB.FindBySession(r.Context(), sessionID, limit)
	if err != nil {
		config.ErrorStatus("failed to get messages by session id", http.StatusInternalServerError, w, err)
		return
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// MarkReadHandler flags the counterparty's messages as read and reports how
// many remain unread (always zero after a successful update, kept in the
// response so clients can reconcile their badge counts)
func (m Message) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	readerType := strings.ToUpper(strings.TrimSpace(req.ReaderType))
	if readerType != models.SenderUser && readerType != models.SenderConsultant {
		config.ErrorStatus("invalid readerType", http.StatusBadRequest, w, nil)
		return
	}

	updated, err := m.DB.MarkRead(r.Context(), sessionID, readerType)
	if err != nil {
		config.ErrorStatus("failed to mark messages read", http.StatusInternalServerError, w, err)
		return
	}
	unread, err := m.DB.CountUnread(r.Context(), sessionID, readerType)
	if err != nil {
		config.ErrorStatus("failed to count unread messages", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Debugw("messages marked read",
		"sessionId", sessionID,
		"readerType", readerType,
		"updated", updated,
	)
	writeJSON(w, http.StatusOK, models.UnreadResponse{
		SessionID: sessionID,
		Updated:   updated,
		Unread:    unread,
	})
}
