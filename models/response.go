package models

import "time"

// HealthCheckResponse returns if the service is alive
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string
	Error   string
}

// Operation results reported to callers. A request that loses a race with a
// concurrent actor is accepted but reported as "ignored", never as an error.
const (
	ResultOK      = "ok"
	ResultIgnored = "ignored"
)

// OperationResponse is the common response body for session lifecycle actions
type OperationResponse struct {
	Result       string        `json:"result"`
	SessionID    string        `json:"sessionId"`
	Status       SessionStatus `json:"status,omitempty"`
	ConsultantID string        `json:"consultantId,omitempty"`
	Reason       string        `json:"reason,omitempty"`
}

// MediaToken is an expiring credential for the external real-time media
// provider, cached per (session, role) pair with a TTL equal to its validity
type MediaToken struct {
	AppID     string    `json:"appId"`
	Channel   string    `json:"channel"`
	UID       int       `json:"uid"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Cached    bool      `json:"cached"`
}

// UnreadResponse reports the read-flag update outcome for a session
type UnreadResponse struct {
	SessionID string `json:"sessionId"`
	Updated   int64  `json:"updated"`
	Unread    int64  `json:"unread"`
}
