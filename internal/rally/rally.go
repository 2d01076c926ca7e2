// Package rally holds the domain types shared by the session core: events,
// teams, questions and the answer records the backend serves for them.
package rally

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type EventStatus string

const (
	EventStatusPreparing EventStatus = "preparing"
	EventStatusInactive  EventStatus = "inactive"
	EventStatusRunning   EventStatus = "running"
	EventStatusVoting    EventStatus = "voting"
	EventStatusRanking   EventStatus = "ranking"
	EventStatusEnded     EventStatus = "ended"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusPreparing, EventStatusInactive, EventStatusRunning,
		EventStatusVoting, EventStatusRanking, EventStatusEnded:
		return true
	}
	return false
}

type EventMode string

const (
	EventModeTour EventMode = "tour"
	EventModeTeam EventMode = "team"
)

type Event struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Status       EventStatus `json:"status"`
	Mode         EventMode   `json:"mode"`
	EndTime      *time.Time  `json:"end_time,omitempty"`
	Password     string      `json:"password,omitempty"`
	DepartmentID int64       `json:"department_id,omitempty"`
}

// IsTour reports whether the event runs without teams and without a remote
// answer ledger.
func (e Event) IsTour() bool {
	return e.Mode == EventModeTour
}

type Team struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	EventID    int64      `json:"event_id"`
	TimePlayed *time.Time `json:"time_played,omitempty"`
}

type QuestionType string

const (
	QuestionKnowledge      QuestionType = "knowledge"
	QuestionUpload         QuestionType = "upload"
	QuestionQRCode         QuestionType = "qr_code"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionPicture        QuestionType = "picture"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionKnowledge, QuestionUpload, QuestionQRCode, QuestionMultipleChoice, QuestionPicture:
		return true
	}
	return false
}

// FreeText reports whether answers to the type are typed or scanned text
// compared against the answer key.
func (t QuestionType) FreeText() bool {
	return t == QuestionKnowledge || t == QuestionPicture || t == QuestionQRCode
}

type Question struct {
	ID     int64        `json:"id"`
	Text   string       `json:"text"`
	Type   QuestionType `json:"type"`
	Points int          `json:"points"`
	Hint   string       `json:"hint,omitempty"`
}

// AnswerRecord is a backend-owned answer for a question. Free-text questions
// carry exactly one correct record (the answer key), multiple-choice
// questions carry one record per option.
type AnswerRecord struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct"`
}

// AnswerPayload is what a team submits for one question.
type AnswerPayload struct {
	TeamID     int64  `json:"team_id"`
	QuestionID int64  `json:"question_id"`
	Correct    bool   `json:"correct"`
	Points     int    `json:"points"`
	TeamAnswer string `json:"team_answer"`
}

// SubmittedAnswer is a stored AnswerPayload.
type SubmittedAnswer struct {
	ID         int64  `json:"id"`
	TeamID     int64  `json:"team_id"`
	QuestionID int64  `json:"question_id"`
	Correct    bool   `json:"correct"`
	Points     int    `json:"points"`
	TeamAnswer string `json:"team_answer"`
}

// VotingContent is another team's upload shown during the voting phase.
type VotingContent struct {
	AnswerID     int64        `json:"answer_id"`
	TeamID       int64        `json:"team_id"`
	TeamName     string       `json:"team_name"`
	QuestionID   int64        `json:"question_id"`
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	TeamAnswer   string       `json:"team_answer"`
}

type TeamScore struct {
	TeamID     int64      `json:"team_id"`
	TeamName   string     `json:"team_name"`
	Points     int        `json:"points"`
	TimePlayed *time.Time `json:"time_played,omitempty"`
}

type Organization struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Department struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	OrganizationID int64  `json:"organization_id"`
}
