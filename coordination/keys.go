package coordination

import "strings"

// Keys builds every redis key the coordination store uses. Keeping the
// builders in one place keeps workers, handlers and tests in agreement on
// the layout.
type Keys struct {
	SessionPrefix        string
	SessionIndex         string
	WaitingPrefix        string
	Assigning            string
	AssignedWatch        string
	ConsultantReady      string
	ConsultantLoad       string
	ConsultantStatusPref string
	ConsultantLockPref   string
	Stream               string
	StreamGroup          string
	TokenPrefix          string
	JobLockPrefix        string
}

// DefaultQueueType is used when a session carries no inquiry type
const DefaultQueueType = "default"

// NewKeys returns the default key layout
func NewKeys() Keys {
	return Keys{
		SessionPrefix:        "cs:session:",
		SessionIndex:         "cs:session:index",
		WaitingPrefix:        "cs:waiting:",
		Assigning:            "cs:assigning",
		AssignedWatch:        "cs:assigned:watch",
		ConsultantReady:      "cs:consultant:ready",
		ConsultantLoad:       "cs:consultant:load",
		ConsultantStatusPref: "cs:consultant:status:",
		ConsultantLockPref:   "cs:consultant:lock:",
		Stream:               "cs:stream:messages",
		StreamGroup:          "cs-msg-workers",
		TokenPrefix:          "cs:token:",
		JobLockPrefix:        "cs:joblock:",
	}
}

// Session returns the hash key for one session record
func (k Keys) Session(sessionID string) string {
	return k.SessionPrefix + sessionID
}

// Waiting returns the waiting zset for an inquiry type (default queue if untyped)
func (k Keys) Waiting(inquiryType string) string {
	t := strings.TrimSpace(inquiryType)
	if t == "" {
		t = DefaultQueueType
	}
	return k.WaitingPrefix + t
}

// ConsultantStatus returns the status key for one consultant
func (k Keys) ConsultantStatus(consultantID string) string {
	return k.ConsultantStatusPref + consultantID
}

// ConsultantLock returns the short-lived exclusivity marker for one consultant
func (k Keys) ConsultantLock(consultantID string) string {
	return k.ConsultantLockPref + consultantID
}

// Token returns the cached media credential key for a (session, role) pair
func (k Keys) Token(sessionID, role string) string {
	return k.TokenPrefix + sessionID + ":" + role
}

// JobLock returns the distributed lock key for a named background job
func (k Keys) JobLock(name string) string {
	return k.JobLockPrefix + name
}
