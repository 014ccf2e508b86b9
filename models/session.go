package models

// SessionState holds the coordination-store record for one consultation
// session. Timestamps are epoch milliseconds; zero means "not yet".
//
// Invariants enforced by the coordination layer:
//   - ConsultantID is set iff Status is ASSIGNED or engaged (CONNECTED/CHATTING)
//   - RetryCount never exceeds the configured bound without the session being
//     forced to a terminal state
type SessionState struct {
	ID             string        `json:"sessionId"`
	Channel        Channel       `json:"channel"`
	Status         SessionStatus `json:"status"`
	RequesterID    string        `json:"requesterId"`
	ConsultantID   string        `json:"consultantId,omitempty"`
	InquiryType    string        `json:"inquiryType"`
	PriorityScore  int           `json:"priorityScore"`
	RetryCount     int           `json:"retryCount"`
	EnqueuedAt     int64         `json:"enqueuedAt,omitempty"`
	AssignedAt     int64         `json:"assignedAt,omitempty"`
	ConnectedAt    int64         `json:"connectedAt,omitempty"`
	LastActivityAt int64         `json:"lastActivityAt,omitempty"`
	EndedAt        int64         `json:"endedAt,omitempty"`
	EndReason      string        `json:"endReason,omitempty"`
	EndedBy        string        `json:"endedBy,omitempty"`
	AgentMediaUID  string        `json:"agentMediaUid,omitempty"`
}

// WaitingEntry is one pending session in an inquiry-type queue. RankScore
// orders who is served next; lower dequeues first.
type WaitingEntry struct {
	SessionID string  `json:"sessionId"`
	RankScore float64 `json:"rankScore"`
}
