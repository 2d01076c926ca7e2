package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	kvDb "github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/database/kv/database"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/logging"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"go.uber.org/multierr"
)

// Initialize restores the persisted event and team. Every step fails on its
// own: an error is logged and the remaining steps still run. Hydrated is
// always set when Initialize returns.
func (s *Store) Initialize(ctx context.Context) {
	logger := logging.FromContext(ctx).Named("session.Initialize")

	defer s.update(func(st *State) []Field {
		st.Hydrated = true
		return []Field{FieldHydrated}
	})

	var ev rally.Event
	if err := s.config.KV.Get(ctx, kvDb.KeyCurrentEvent, &ev); err != nil {
		if !errors.Is(err, kvDb.ErrNotFound) {
			logger.Errorf("load current event: %v", err)
		}
		return
	}

	if fresh, err := s.fetchEvent(ctx, ev.ID); err != nil {
		logger.Warnf("refresh event %d: %v", ev.ID, err)
	} else {
		ev = fresh
		if err := s.config.KV.Set(ctx, kvDb.KeyCurrentEvent, ev); err != nil {
			logger.Errorf("persist current event: %v", err)
		}
	}

	s.update(func(st *State) []Field {
		st.Event = &ev
		st.ResumeAvailable = ev.IsTour()
		return []Field{FieldEvent, FieldResumeAvailable}
	})

	if ev.IsTour() {
		return
	}

	var team rally.Team
	if err := s.config.KV.Get(ctx, kvDb.TeamKey(ev.ID), &team); err != nil {
		if !errors.Is(err, kvDb.ErrNotFound) {
			logger.Errorf("load team for event %d: %v", ev.ID, err)
		}
		return
	}

	rctx, cancel := s.remoteContext(ctx)
	exists, err := s.config.Remote.TeamExists(rctx, ev.ID, team.ID)
	cancel()

	switch {
	case err != nil:
		// the team may well exist, keep it
		logger.Warnf("validate team %d: %v", team.ID, err)
		s.setTeam(&team, false)
	case exists:
		s.setTeam(&team, false)
	default:
		logger.Infof("team %d was deleted remotely", team.ID)
		if err := s.config.KV.Remove(ctx, kvDb.TeamKey(ev.ID)); err != nil {
			logger.Errorf("remove stale team: %v", err)
		}
		s.setTeam(nil, true)
	}
}

func (s *Store) setTeam(team *rally.Team, deleted bool) {
	s.update(func(st *State) []Field {
		st.Team = team
		st.TeamDeleted = deleted
		st.ResumeAvailable = team != nil
		return []Field{FieldTeam, FieldTeamDeleted, FieldResumeAvailable}
	})
}

func (s *Store) fetchEvent(ctx context.Context, id int64) (rally.Event, error) {
	rctx, cancel := s.remoteContext(ctx)
	defer cancel()
	return s.config.Remote.GetEvent(rctx, id)
}

// JoinEvent selects a running event. A password configured on the event
// must match.
func (s *Store) JoinEvent(ctx context.Context, eventID int64, password string) (rally.Event, error) {
	ev, err := s.fetchEvent(ctx, eventID)
	if err != nil {
		return rally.Event{}, fmt.Errorf("get event %d: %w", eventID, err)
	}
	if ev.Status != rally.EventStatusRunning {
		return rally.Event{}, fmt.Errorf("event %d is %s: %w", eventID, ev.Status, ErrEventNotRunning)
	}
	if ev.Password != "" && strings.TrimSpace(password) != ev.Password {
		return rally.Event{}, ErrWrongPassword
	}

	if err := s.config.KV.Set(ctx, kvDb.KeyCurrentEvent, ev); err != nil {
		return rally.Event{}, fmt.Errorf("persist current event: %w", err)
	}

	var team *rally.Team
	var stored rally.Team
	if !ev.IsTour() {
		if err := s.config.KV.Get(ctx, kvDb.TeamKey(ev.ID), &stored); err == nil {
			team = &stored
		}
	}

	s.update(func(st *State) []Field {
		fields := resetLocked(st)
		st.Event = &ev
		st.Team = team
		st.TeamDeleted = false
		st.Enabled = false
		st.ResumeAvailable = ev.IsTour() || team != nil
		return append(fields, FieldEvent, FieldTeam, FieldTeamDeleted, FieldEnabled, FieldResumeAvailable)
	})
	if s.config.Options != nil {
		s.config.Options.Purge()
	}

	return ev, nil
}

// CreateTeam registers a team for the current event and remembers it on
// this device.
func (s *Store) CreateTeam(ctx context.Context, name string) (rally.Team, error) {
	st := s.Snapshot()
	if st.Event == nil {
		return rally.Team{}, ErrNoEvent
	}
	if st.Event.IsTour() {
		return rally.Team{}, ErrTourMode
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return rally.Team{}, fmt.Errorf("team name is empty")
	}

	rctx, cancel := s.remoteContext(ctx)
	team, err := s.config.Remote.InsertTeam(rctx, name, st.Event.ID)
	cancel()
	if err != nil {
		return rally.Team{}, fmt.Errorf("insert team: %w", err)
	}

	if err := s.config.KV.Set(ctx, kvDb.TeamKey(st.Event.ID), team); err != nil {
		return rally.Team{}, fmt.Errorf("persist team: %w", err)
	}

	s.setTeam(&team, false)
	return team, nil
}

// Start enters the active session of the current event.
func (s *Store) Start() error {
	var err error
	s.update(func(st *State) []Field {
		switch {
		case st.Event == nil:
			err = ErrNoEvent
			return nil
		case !st.Event.IsTour() && st.Team == nil:
			err = ErrNoTeam
			return nil
		case st.Enabled:
			return nil
		}
		st.Enabled = true
		st.ResumeAvailable = false
		return []Field{FieldEnabled, FieldResumeAvailable}
	})
	return err
}

// LoadQuestions fetches the question batch of the current event. In team
// mode questions the team already answered are left out and counted as
// answered.
func (s *Store) LoadQuestions(ctx context.Context) error {
	st := s.Snapshot()
	if st.Event == nil {
		return ErrNoEvent
	}

	// each request gets the full timeout
	rctx, cancel := s.remoteContext(ctx)
	ids, err := s.config.Remote.GetQuestionIDs(rctx, st.Event.ID)
	cancel()
	if err != nil {
		return fmt.Errorf("get question ids: %w", err)
	}
	rctx, cancel = s.remoteContext(ctx)
	questions, err := s.config.Remote.GetQuestions(rctx, ids)
	cancel()
	if err != nil {
		return fmt.Errorf("get questions: %w", err)
	}

	answered := map[int64]bool{}
	if !st.Event.IsTour() && st.Team != nil {
		rctx, cancel := s.remoteContext(ctx)
		done, err := s.config.Remote.GetAnsweredQuestionIDs(rctx, st.Team.ID)
		cancel()
		if err != nil {
			return fmt.Errorf("get answered questions: %w", err)
		}
		for _, id := range done {
			answered[id] = true
		}
	}

	open := make([]rally.Question, 0, len(questions))
	for _, q := range questions {
		if !answered[q.ID] {
			open = append(open, q)
		}
	}
	open = rally.OrderForSession(open)

	openIDs := make([]int64, len(open))
	for i, q := range open {
		openIDs[i] = q.ID
	}

	var answers []rally.AnswerRecord
	if len(openIDs) > 0 {
		rctx, cancel := s.remoteContext(ctx)
		answers, err = s.config.Remote.GetAnswers(rctx, openIDs)
		cancel()
		if err != nil {
			return fmt.Errorf("get answers: %w", err)
		}
	}

	s.update(func(st *State) []Field {
		st.Questions = open
		st.Answers = answers
		st.QuestionIndex = 0
		st.TotalQuestions = len(questions)
		st.AnsweredCount = len(questions) - len(open)
		st.AllQuestionsAnswered = len(open) == 0
		return []Field{
			FieldQuestions, FieldAnswers, FieldQuestionIndex, FieldTotalQuestions,
			FieldAnsweredCount, FieldAllQuestionsAnswered,
		}
	})

	return nil
}

// RefreshEvent re-reads the current event, picking up status changes such
// as the start of the voting phase.
func (s *Store) RefreshEvent(ctx context.Context) (rally.Event, error) {
	st := s.Snapshot()
	if st.Event == nil {
		return rally.Event{}, ErrNoEvent
	}

	ev, err := s.fetchEvent(ctx, st.Event.ID)
	if err != nil {
		return rally.Event{}, fmt.Errorf("get event %d: %w", st.Event.ID, err)
	}

	if err := s.config.KV.Set(ctx, kvDb.KeyCurrentEvent, ev); err != nil {
		logging.FromContext(ctx).Named("session.RefreshEvent").Errorf("persist current event: %v", err)
	}

	s.update(func(st *State) []Field {
		if st.Event == nil || st.Event.ID != ev.ID {
			return nil
		}
		st.Event = &ev
		return []Field{FieldEvent}
	})

	return ev, nil
}

// LeaveEvent forgets the current event and team on this device. The
// in-memory session is cleared even when storage fails.
func (s *Store) LeaveEvent(ctx context.Context) (err error) {
	st := s.Snapshot()

	defer func() {
		s.update(func(st *State) []Field {
			fields := resetLocked(st)
			st.Event = nil
			st.Team = nil
			st.Enabled = false
			st.ResumeAvailable = false
			st.TeamDeleted = false
			return append(fields, FieldEvent, FieldTeam, FieldEnabled, FieldResumeAvailable, FieldTeamDeleted)
		})
		if s.config.Options != nil {
			s.config.Options.Purge()
		}
	}()

	if st.Event != nil {
		err = multierr.Append(err, s.config.KV.Remove(ctx, kvDb.TeamKey(st.Event.ID)))
	}
	err = multierr.Append(err, s.config.KV.Remove(ctx, kvDb.KeyCurrentEvent))
	if err != nil {
		return fmt.Errorf("leave event: %w", err)
	}

	return nil
}
