package rally

import "testing"

func TestDeriveSessionState(t *testing.T) {
	t.Parallel()

	event := func(s EventStatus) *Event { return &Event{ID: 1, Status: s} }

	tests := []struct {
		name        string
		enabled     bool
		event       *Event
		allAnswered bool
		expired     bool
		want        SessionState
	}{
		{name: "disabled", enabled: false, event: event(EventStatusRunning), want: SessionNotJoined},
		{name: "no event", enabled: true, want: SessionNotJoined},
		{name: "running", enabled: true, event: event(EventStatusRunning), want: SessionPlaying},
		{name: "all answered", enabled: true, event: event(EventStatusRunning), allAnswered: true, want: SessionFinished},
		{name: "time expired", enabled: true, event: event(EventStatusRunning), expired: true, want: SessionFinished},
		{name: "voting", enabled: true, event: event(EventStatusVoting), allAnswered: true, want: SessionVoting},
		{name: "ranking", enabled: true, event: event(EventStatusRanking), want: SessionFinished},
		{name: "ended", enabled: true, event: event(EventStatusEnded), want: SessionFinished},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := DeriveSessionState(tc.enabled, tc.event, tc.allAnswered, tc.expired)
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDeriveSessionStateIsTotal(t *testing.T) {
	t.Parallel()

	statuses := []EventStatus{
		EventStatusPreparing, EventStatusInactive, EventStatusRunning,
		EventStatusVoting, EventStatusRanking, EventStatusEnded, "garbage",
	}
	valid := map[SessionState]bool{
		SessionNotJoined: true, SessionPlaying: true, SessionVoting: true, SessionFinished: true,
	}

	for _, enabled := range []bool{false, true} {
		for _, s := range statuses {
			for _, all := range []bool{false, true} {
				for _, exp := range []bool{false, true} {
					got := DeriveSessionState(enabled, &Event{Status: s}, all, exp)
					if !valid[got] {
						t.Fatalf("unexpected state %q", got)
					}
				}
			}
		}
	}
}
