package models

import "strings"

// Channel identifies which consultation flow a session belongs to.
type Channel string

// Supported consultation channels
const (
	ChannelChat  Channel = "CHAT"
	ChannelVoice Channel = "VOICE"
)

// ParseChannel safely parses a raw channel value, defaulting to CHAT
func ParseChannel(raw string) Channel {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(ChannelVoice):
		return ChannelVoice
	default:
		return ChannelChat
	}
}

// SessionStatus is the single serialization contract for a consultation
// session. Every mutator validates its transition here before committing,
// so concurrent actors (scheduler, watchdog, operator actions, duplicate
// network retries) can never push a session into an inconsistent state.
type SessionStatus string

// Session lifecycle states. Voice sessions run NONE -> WAITING -> ASSIGNED ->
// CONNECTED -> ENDED; chat sessions mirror this with CHATTING as the engaged
// state and CLOSED/CANCELLED as terminals. ASSIGNED -> WAITING is the
// watchdog re-queue path on a missed join handshake.
const (
	StatusNone      SessionStatus = "NONE"
	StatusWaiting   SessionStatus = "WAITING"
	StatusAssigned  SessionStatus = "ASSIGNED"
	StatusConnected SessionStatus = "CONNECTED"
	StatusChatting  SessionStatus = "CHATTING"
	StatusEnded     SessionStatus = "ENDED"
	StatusClosed    SessionStatus = "CLOSED"
	StatusCancelled SessionStatus = "CANCELLED"
)

var voiceTransitions = map[SessionStatus][]SessionStatus{
	StatusNone:      {StatusWaiting, StatusEnded},
	StatusWaiting:   {StatusAssigned, StatusEnded},
	StatusAssigned:  {StatusConnected, StatusWaiting, StatusEnded},
	StatusConnected: {StatusEnded},
	StatusEnded:     {},
}

var chatTransitions = map[SessionStatus][]SessionStatus{
	StatusNone:      {StatusWaiting, StatusCancelled},
	StatusWaiting:   {StatusAssigned, StatusCancelled, StatusClosed},
	StatusAssigned:  {StatusChatting, StatusWaiting, StatusClosed},
	StatusChatting:  {StatusClosed},
	StatusClosed:    {},
	StatusCancelled: {},
}

// ParseStatus safely parses a raw status value (nil/blank/garbage -> NONE)
func ParseStatus(raw string) SessionStatus {
	switch s := SessionStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusWaiting, StatusAssigned, StatusConnected, StatusChatting,
		StatusEnded, StatusClosed, StatusCancelled:
		return s
	default:
		return StatusNone
	}
}

// CanTransitionTo reports whether the whitelist for the given channel allows
// moving from s to next
func (s SessionStatus) CanTransitionTo(next SessionStatus, ch Channel) bool {
	table := chatTransitions
	if ch == ChannelVoice {
		table = voiceTransitions
	}
	for _, allowed := range table[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case StatusEnded, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

// EngagedStatus returns the "agent joined" state for the channel
func (c Channel) EngagedStatus() SessionStatus {
	if c == ChannelVoice {
		return StatusConnected
	}
	return StatusChatting
}

// EndedStatus returns the normal terminal state for the channel
func (c Channel) EndedStatus() SessionStatus {
	if c == ChannelVoice {
		return StatusEnded
	}
	return StatusClosed
}

// CancelledStatus returns the terminal state for sessions that never engaged
func (c Channel) CancelledStatus() SessionStatus {
	if c == ChannelVoice {
		return StatusEnded
	}
	return StatusCancelled
}
