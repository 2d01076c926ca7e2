package rally

// SessionState is derived from the session inputs and never persisted, so
// it heals itself once the inputs are reloaded after a restart.
type SessionState string

const (
	SessionNotJoined SessionState = "not_joined"
	SessionPlaying   SessionState = "playing"
	SessionVoting    SessionState = "voting"
	SessionFinished  SessionState = "finished"
)

// DeriveSessionState maps every combination of inputs to exactly one state.
func DeriveSessionState(enabled bool, event *Event, allQuestionsAnswered, timeExpired bool) SessionState {
	if !enabled || event == nil {
		return SessionNotJoined
	}

	switch event.Status {
	case EventStatusVoting:
		return SessionVoting
	case EventStatusRanking, EventStatusEnded:
		return SessionFinished
	}

	if allQuestionsAnswered || timeExpired {
		return SessionFinished
	}

	return SessionPlaying
}
