package handlers

import (
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/busanbank/live-support-api/config"
	"github.com/busanbank/live-support-api/coordination"
	"github.com/busanbank/live-support-api/media"
	"github.com/busanbank/live-support-api/models"
)

// Token exposes the media credential endpoint. Credentials are cached per
// (session, role) so a page refresh reuses the same uid and token instead of
// burning a new one mid-call.
type Token struct {
	Provider media.TokenProvider
	Cache    coordination.TokenCache
	Store    coordination.SessionStore
	AppID    string
}

// MediaTokenHandler issues (or returns the cached) media credential for one
// party of a session. Sessions that are not yet assigned get a 409; handing
// out channel access before a consultant exists would let a customer sit in
// an empty media room.
func (t Token) MediaTokenHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	role := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("role")))
	if role == "" {
		role = "CUSTOMER"
	}
	if role != "CUSTOMER" && role != "CONSULTANT" {
		config.ErrorStatus("invalid role", http.StatusBadRequest, w, nil)
		return
	}

	state, err := t.Store.Get(r.Context(), sessionID)
	if err == coordination.ErrNotFound {
		config.ErrorStatus("session not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to read session", http.StatusInternalServerError, w, err)
		return
	}
	if state.Status != models.StatusAssigned && state.Status != state.Channel.EngagedStatus() {
		config.ErrorStatus("session is not in a connectable state", http.StatusConflict, w, nil)
		return
	}

	cached, err := t.Cache.Get(r.Context(), sessionID, role)
	if err == nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}
	if err != coordination.ErrNotFound {
		zap.S().Warnw("token cache read failed, issuing fresh credential",
			"error", err, "sessionId", sessionID, "role", role)
	}

	channel := media.ChannelName(sessionID)
	uid := rand.Intn(math.MaxInt32-1) + 1
	raw, ttl, err := t.Provider.Issue(r.Context(), channel, uid)
	if err != nil {
		config.ErrorStatus("failed to issue media token", http.StatusBadGateway, w, err)
		return
	}

	token := &models.MediaToken{
		AppID:     t.AppID,
		Channel:   channel,
		UID:       uid,
		Token:     raw,
		ExpiresAt: time.Now().Add(ttl).UTC(),
	}
	if err := t.Cache.Put(r.Context(), sessionID, role, token, ttl); err != nil {
		zap.S().Warnw("failed to cache media token",
			"error", err, "sessionId", sessionID, "role", role)
	}

	zap.S().Infow("media token issued",
		"sessionId", sessionID,
		"role", role,
		"channel", channel,
	)
	writeJSON(w, http.StatusOK, token)
}
