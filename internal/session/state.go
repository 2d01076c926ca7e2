package session

import "github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"

// Field names a part of State for change notifications.
type Field string

const (
	FieldEvent                Field = "event"
	FieldTeam                 Field = "team"
	FieldEnabled              Field = "enabled"
	FieldResumeAvailable      Field = "resumeAvailable"
	FieldHydrated             Field = "hydrated"
	FieldTeamDeleted          Field = "teamDeleted"
	FieldQuestions            Field = "questions"
	FieldQuestionIndex        Field = "questionIndex"
	FieldUsedHints            Field = "usedHints"
	FieldTotalQuestions       Field = "totalQuestions"
	FieldAnsweredCount        Field = "answeredCount"
	FieldPoints               Field = "points"
	FieldAllQuestionsAnswered Field = "allQuestionsAnswered"
	FieldAnswers              Field = "answers"
	FieldVotingAllowed        Field = "votingAllowed"
	FieldTimeExpired          Field = "timeExpired"
)

// Change lists the fields one transition modified.
type Change struct {
	Fields []Field
}

func (c Change) Has(f Field) bool {
	for _, v := range c.Fields {
		if v == f {
			return true
		}
	}
	return false
}

type State struct {
	Event           *rally.Event
	Team            *rally.Team
	Enabled         bool
	ResumeAvailable bool
	Hydrated        bool
	TeamDeleted     bool

	Questions            []rally.Question
	QuestionIndex        int
	UsedHints            map[int64]bool
	TotalQuestions       int
	AnsweredCount        int
	Points               int
	AllQuestionsAnswered bool
	Answers              []rally.AnswerRecord
	VotingAllowed        bool
	TimeExpired          bool
}

func (s State) clone() State {
	c := s
	if s.Event != nil {
		ev := *s.Event
		c.Event = &ev
	}
	if s.Team != nil {
		team := *s.Team
		c.Team = &team
	}
	if s.Questions != nil {
		c.Questions = append([]rally.Question(nil), s.Questions...)
	}
	if s.Answers != nil {
		c.Answers = append([]rally.AnswerRecord(nil), s.Answers...)
	}
	if s.UsedHints != nil {
		c.UsedHints = make(map[int64]bool, len(s.UsedHints))
		for k, v := range s.UsedHints {
			c.UsedHints[k] = v
		}
	}
	return c
}

// TourMode reports whether the current event runs without a team.
func (s State) TourMode() bool {
	return s.Event != nil && s.Event.IsTour()
}

// CurrentQuestion returns the question at the cursor.
func CurrentQuestion(s State) (rally.Question, bool) {
	if s.QuestionIndex < 0 || s.QuestionIndex >= len(s.Questions) {
		return rally.Question{}, false
	}
	return s.Questions[s.QuestionIndex], true
}

// CurrentAnswerKey returns the correct answer record of the current
// question. false means the key is not loaded (or not configured) and
// submission must stay disabled.
func CurrentAnswerKey(s State) (rally.AnswerRecord, bool) {
	q, ok := CurrentQuestion(s)
	if !ok {
		return rally.AnswerRecord{}, false
	}
	for _, a := range s.Answers {
		if a.QuestionID == q.ID && a.Correct {
			return a, true
		}
	}
	return rally.AnswerRecord{}, false
}

// MultipleChoiceOptions returns the options of the current question in a
// new random order on every call.
func MultipleChoiceOptions(s State) []rally.AnswerRecord {
	q, ok := CurrentQuestion(s)
	if !ok {
		return nil
	}

	var options []rally.AnswerRecord
	for _, a := range s.Answers {
		if a.QuestionID == q.ID {
			options = append(options, a)
		}
	}
	rally.Shuffle(options)

	return options
}

func SessionState(s State) rally.SessionState {
	return rally.DeriveSessionState(s.Enabled, s.Event, s.AllQuestionsAnswered, s.TimeExpired)
}
