// Package session is the single source of truth for where this device is in
// an event: event and team, the question cursor, score and the flags the
// screen router derives its state from.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/cache"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/logging"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote"
)

const subscriberBuffer = 16

var (
	ErrNoEvent         = errors.New("no event selected")
	ErrNoTeam          = errors.New("no team for event")
	ErrTourMode        = errors.New("tour events have no teams")
	ErrEventNotRunning = errors.New("event is not running")
	ErrWrongPassword   = errors.New("wrong event password")
)

type KV interface {
	Get(ctx context.Context, key string, v interface{}) error
	Set(ctx context.Context, key string, v interface{}) error
	Remove(ctx context.Context, key string) error
}

// Outbox takes over the time played write once a team finished its batch.
type Outbox interface {
	EnqueueTimePlayed(ctx context.Context, eventID, teamID int64, at time.Time) error
	Process(ctx context.Context) error
}

type Config struct {
	Remote remote.Service
	KV     KV
	Outbox Outbox
	// Options keeps multiple choice orderings stable across renders.
	Options        cache.Cache
	RequestTimeout time.Duration
	Clock          func() time.Time
}

func New(config Config) *Store {
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 10 * time.Second
	}
	return &Store{
		config: config,
		state:  State{VotingAllowed: true, UsedHints: map[int64]bool{}},
		subs:   map[chan Change]struct{}{},
	}
}

type Store struct {
	mtx sync.RWMutex

	config Config
	state  State
	subs   map[chan Change]struct{}

	// background deliveries of the time played record
	flushes sync.WaitGroup
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.state.clone()
}

// Subscribe returns a channel receiving one Change per transition and a
// function that releases it. Slow subscribers miss changes.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, subscriberBuffer)

	s.mtx.Lock()
	s.subs[ch] = struct{}{}
	s.mtx.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mtx.Lock()
			delete(s.subs, ch)
			s.mtx.Unlock()
			close(ch)
		})
	}
}

// update applies fn to the state under one lock acquisition and publishes
// the fields it reports as changed.
func (s *Store) update(fn func(st *State) []Field) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	fields := fn(&s.state)
	if len(fields) == 0 {
		return
	}

	change := Change{Fields: fields}
	for ch := range s.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

// remoteContext detaches a remote call from the caller so it runs to
// completion, bounded by the request timeout.
func (s *Store) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.config.RequestTimeout)
}

func (s *Store) AdvanceToNextQuestion(ctx context.Context) {
	s.CompleteQuestion(ctx, 0)
}

// CompleteQuestion adds points and moves the cursor in one transition. Once
// the batch is exhausted in team mode the team's time played is handed to
// the outbox.
func (s *Store) CompleteQuestion(ctx context.Context, points int) {
	var (
		exhausted bool
		eventID   int64
		teamID    int64
	)

	s.update(func(st *State) []Field {
		var fields []Field
		if points != 0 {
			st.Points += points
			fields = append(fields, FieldPoints)
		}

		if st.AllQuestionsAnswered {
			return fields
		}

		if !st.TourMode() && st.AnsweredCount < st.TotalQuestions {
			st.AnsweredCount++
			fields = append(fields, FieldAnsweredCount)
		}

		if st.QuestionIndex+1 >= len(st.Questions) {
			st.AllQuestionsAnswered = true
			st.QuestionIndex = 0
			fields = append(fields, FieldAllQuestionsAnswered, FieldQuestionIndex)

			if !st.TourMode() && st.Event != nil && st.Team != nil {
				exhausted = true
				eventID, teamID = st.Event.ID, st.Team.ID
			}
			return fields
		}

		st.QuestionIndex++
		return append(fields, FieldQuestionIndex)
	})

	if exhausted {
		s.recordTimePlayed(ctx, eventID, teamID)
	}
}

func (s *Store) recordTimePlayed(ctx context.Context, eventID, teamID int64) {
	logger := logging.FromContext(ctx).Named("session.recordTimePlayed")

	at := s.config.Clock()
	s.update(func(st *State) []Field {
		if st.Team == nil || st.Team.ID != teamID {
			return nil
		}
		st.Team.TimePlayed = &at
		return []Field{FieldTeam}
	})

	// delivery runs detached so the last submit returns once the record
	// is stored
	bg := context.WithoutCancel(ctx)

	if s.config.Outbox == nil {
		s.flushes.Add(1)
		go func() {
			defer s.flushes.Done()
			rctx, cancel := s.remoteContext(bg)
			defer cancel()
			if err := s.config.Remote.SetTimePlayed(rctx, eventID, teamID, at); err != nil {
				logger.Errorf("set time played for team %d: %v", teamID, err)
			}
		}()
		return
	}

	if err := s.config.Outbox.EnqueueTimePlayed(ctx, eventID, teamID, at); err != nil {
		logger.Errorf("enqueue time played for team %d: %v", teamID, err)
		return
	}
	s.flushes.Add(1)
	go func() {
		defer s.flushes.Done()
		if err := s.config.Outbox.Process(bg); err != nil {
			logger.Errorf("process outbox: %v", err)
		}
	}()
}

// WaitFlushed blocks until background deliveries started by the store
// have returned.
func (s *Store) WaitFlushed() {
	s.flushes.Wait()
}

func resetLocked(st *State) []Field {
	st.QuestionIndex = 0
	st.Points = 0
	st.AllQuestionsAnswered = false
	st.Questions = nil
	st.Answers = nil
	st.TimeExpired = false
	st.TotalQuestions = 0
	st.AnsweredCount = 0
	st.UsedHints = map[int64]bool{}
	st.VotingAllowed = true

	return []Field{
		FieldQuestionIndex, FieldPoints, FieldAllQuestionsAnswered, FieldQuestions,
		FieldAnswers, FieldTimeExpired, FieldTotalQuestions, FieldAnsweredCount,
		FieldUsedHints, FieldVotingAllowed,
	}
}

// Reset clears the progress of the current event.
func (s *Store) Reset() {
	s.update(resetLocked)
	if s.config.Options != nil {
		s.config.Options.Purge()
	}
}

// UseHint marks the hint of a question as used. It reports false when the
// hint was already used.
func (s *Store) UseHint(questionID int64) bool {
	used := false
	s.update(func(st *State) []Field {
		if st.UsedHints[questionID] {
			return nil
		}
		if st.UsedHints == nil {
			st.UsedHints = map[int64]bool{}
		}
		st.UsedHints[questionID] = true
		used = true
		return []Field{FieldUsedHints}
	})
	return used
}

func (s *Store) AddPoints(n int) {
	if n == 0 {
		return
	}
	s.update(func(st *State) []Field {
		st.Points += n
		return []Field{FieldPoints}
	})
}

func (s *Store) SetVotingAllowed(v bool) {
	s.update(func(st *State) []Field {
		if st.VotingAllowed == v {
			return nil
		}
		st.VotingAllowed = v
		return []Field{FieldVotingAllowed}
	})
}

// CheckTimeExpired sets TimeExpired once the event's end time has passed and
// reports the resulting flag.
func (s *Store) CheckTimeExpired(now time.Time) bool {
	expired := false
	s.update(func(st *State) []Field {
		if st.TimeExpired {
			expired = true
			return nil
		}
		if st.Event == nil || st.Event.EndTime == nil || now.Before(*st.Event.EndTime) {
			return nil
		}
		st.TimeExpired = true
		expired = true
		return []Field{FieldTimeExpired}
	})
	return expired
}

// WatchDeadline checks the event's end time on every tick until ctx is
// done.
func (s *Store) WatchDeadline(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckTimeExpired(s.config.Clock())
		}
	}
}

func (s *Store) String() string {
	st := s.Snapshot()
	return fmt.Sprintf("session{state=%s question=%d/%d points=%d}",
		SessionState(st), st.QuestionIndex, len(st.Questions), st.Points)
}
