// Package memory is an in-process backend. The development server serves it
// over HTTP and tests use it as a realistic fake.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote"
	"github.com/google/uuid"
)

var _ remote.Service = (*Backend)(nil)

// votePoints is what one peer vote adds to an upload answer.
const votePoints = 1

func New() *Backend {
	return &Backend{
		events:         map[int64]rally.Event{},
		eventQuestions: map[int64][]int64{},
		questions:      map[int64]rally.Question{},
		answers:        map[int64][]rally.AnswerRecord{},
		teams:          map[int64]rally.Team{},
		photos:         map[string][]byte{},
	}
}

type Backend struct {
	mtx sync.RWMutex

	events         map[int64]rally.Event
	eventQuestions map[int64][]int64
	questions      map[int64]rally.Question
	answers        map[int64][]rally.AnswerRecord
	teams          map[int64]rally.Team
	submitted      []rally.SubmittedAnswer
	photos         map[string][]byte

	nextID int64
}

func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

func (b *Backend) AddEvent(e rally.Event) rally.Event {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if e.ID == 0 {
		e.ID = b.id()
	}
	b.events[e.ID] = e
	return e
}

func (b *Backend) SetEventStatus(eventID int64, status rally.EventStatus) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	e, ok := b.events[eventID]
	if !ok {
		return rally.ErrNotFound
	}
	e.Status = status
	b.events[eventID] = e
	return nil
}

// AddQuestion attaches a question and its answer records to an event.
func (b *Backend) AddQuestion(eventID int64, q rally.Question, answers ...rally.AnswerRecord) rally.Question {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if q.ID == 0 {
		q.ID = b.id()
	}
	b.questions[q.ID] = q
	b.eventQuestions[eventID] = append(b.eventQuestions[eventID], q.ID)
	for _, a := range answers {
		if a.ID == 0 {
			a.ID = b.id()
		}
		a.QuestionID = q.ID
		b.answers[q.ID] = append(b.answers[q.ID], a)
	}
	return q
}

// AddTeam stores a team as-is; a zero ID is assigned.
func (b *Backend) AddTeam(t rally.Team) rally.Team {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if t.ID == 0 {
		t.ID = b.id()
	}
	b.teams[t.ID] = t
	return t
}

func (b *Backend) DeleteTeam(teamID int64) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	delete(b.teams, teamID)
}

// Submitted returns a copy of every stored team answer.
func (b *Backend) Submitted() []rally.SubmittedAnswer {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	out := make([]rally.SubmittedAnswer, len(b.submitted))
	copy(out, b.submitted)
	return out
}

func (b *Backend) Team(teamID int64) (rally.Team, bool) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	t, ok := b.teams[teamID]
	return t, ok
}

func (b *Backend) GetEvent(_ context.Context, id int64) (rally.Event, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	e, ok := b.events[id]
	if !ok {
		return rally.Event{}, rally.ErrNotFound
	}
	return e, nil
}

func (b *Backend) GetEventsByStatus(_ context.Context, statuses ...rally.EventStatus) ([]rally.Event, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	var list []rally.Event
	for _, e := range b.events {
		for _, s := range statuses {
			if e.Status == s {
				list = append(list, e)
				break
			}
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (b *Backend) GetQuestionIDs(_ context.Context, eventID int64) ([]int64, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	ids := make([]int64, len(b.eventQuestions[eventID]))
	copy(ids, b.eventQuestions[eventID])
	return ids, nil
}

func (b *Backend) GetQuestions(_ context.Context, ids []int64) ([]rally.Question, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	list := make([]rally.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := b.questions[id]; ok {
			list = append(list, q)
		}
	}
	return list, nil
}

func (b *Backend) GetAnswers(_ context.Context, questionIDs []int64) ([]rally.AnswerRecord, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	var list []rally.AnswerRecord
	for _, id := range questionIDs {
		list = append(list, b.answers[id]...)
	}
	return list, nil
}

func (b *Backend) GetAnsweredQuestionIDs(_ context.Context, teamID int64) ([]int64, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	var ids []int64
	for _, a := range b.submitted {
		if a.TeamID == teamID {
			ids = append(ids, a.QuestionID)
		}
	}
	return ids, nil
}

func (b *Backend) InsertAnswer(_ context.Context, p rally.AnswerPayload) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if _, ok := b.teams[p.TeamID]; !ok {
		return fmt.Errorf("team %d: %w", p.TeamID, rally.ErrNotFound)
	}
	for _, a := range b.submitted {
		if a.TeamID == p.TeamID && a.QuestionID == p.QuestionID {
			return fmt.Errorf("answer for team %d question %d already exists", p.TeamID, p.QuestionID)
		}
	}
	b.submitted = append(b.submitted, rally.SubmittedAnswer{
		ID:         b.id(),
		TeamID:     p.TeamID,
		QuestionID: p.QuestionID,
		Correct:    p.Correct,
		Points:     p.Points,
		TeamAnswer: p.TeamAnswer,
	})
	return nil
}

func (b *Backend) FindAnswer(_ context.Context, teamID, questionID int64) (rally.SubmittedAnswer, bool, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	for _, a := range b.submitted {
		if a.TeamID == teamID && a.QuestionID == questionID {
			return a, true, nil
		}
	}
	return rally.SubmittedAnswer{}, false, nil
}

func (b *Backend) InsertTeam(_ context.Context, name string, eventID int64) (rally.Team, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if _, ok := b.events[eventID]; !ok {
		return rally.Team{}, fmt.Errorf("event %d: %w", eventID, rally.ErrNotFound)
	}
	t := rally.Team{ID: b.id(), Name: name, EventID: eventID}
	b.teams[t.ID] = t
	return t, nil
}

func (b *Backend) TeamExists(_ context.Context, eventID, teamID int64) (bool, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	t, ok := b.teams[teamID]
	return ok && t.EventID == eventID, nil
}

func (b *Backend) SetTimePlayed(_ context.Context, eventID, teamID int64, at time.Time) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	t, ok := b.teams[teamID]
	if !ok || t.EventID != eventID {
		return fmt.Errorf("team %d: %w", teamID, rally.ErrNotFound)
	}
	at = at.UTC()
	t.TimePlayed = &at
	b.teams[teamID] = t
	return nil
}

func (b *Backend) UploadPhoto(_ context.Context, teamID, questionID int64, image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("empty image")
	}
	path := fmt.Sprintf("%d/%d/%s.jpg", teamID, questionID, uuid.NewString())

	b.mtx.Lock()
	defer b.mtx.Unlock()
	stored := make([]byte, len(image))
	copy(stored, image)
	b.photos[path] = stored
	return path, nil
}

// Photo returns a stored upload by path.
func (b *Backend) Photo(path string) ([]byte, bool) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	p, ok := b.photos[path]
	return p, ok
}

func (b *Backend) GetVotingContent(_ context.Context, eventID, ownTeamID int64) ([]rally.VotingContent, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	var list []rally.VotingContent
	for _, a := range b.submitted {
		t, ok := b.teams[a.TeamID]
		if !ok || t.EventID != eventID || t.ID == ownTeamID {
			continue
		}
		q := b.questions[a.QuestionID]
		if q.Type != rally.QuestionUpload {
			continue
		}
		list = append(list, rally.VotingContent{
			AnswerID:     a.ID,
			TeamID:       t.ID,
			TeamName:     t.Name,
			QuestionID:   q.ID,
			QuestionText: q.Text,
			QuestionType: q.Type,
			TeamAnswer:   a.TeamAnswer,
		})
	}
	return list, nil
}

func (b *Backend) IncrementAnswerPoints(_ context.Context, answerID int64) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	for i := range b.submitted {
		if b.submitted[i].ID == answerID {
			b.submitted[i].Points += votePoints
			return nil
		}
	}
	return fmt.Errorf("answer %d: %w", answerID, rally.ErrNotFound)
}

func (b *Backend) GetTotalPointsPerEvent(_ context.Context, eventID int64) ([]rally.TeamScore, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	scores := map[int64]*rally.TeamScore{}
	for _, t := range b.teams {
		if t.EventID != eventID {
			continue
		}
		scores[t.ID] = &rally.TeamScore{TeamID: t.ID, TeamName: t.Name, TimePlayed: t.TimePlayed}
	}
	for _, a := range b.submitted {
		if s, ok := scores[a.TeamID]; ok {
			s.Points += a.Points
		}
	}

	list := make([]rally.TeamScore, 0, len(scores))
	for _, s := range scores {
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].TeamID < list[j].TeamID })
	return list, nil
}
