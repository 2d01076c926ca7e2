// Package remote describes the backend the session core talks to. The
// backend owns events, questions, answer keys and the scoring ledger; the
// core only reads them and appends team answers.
package remote

import (
	"context"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
)

// Service is the request/response contract of the backend. Any call may fail
// with a transport error; GetEvent reports a missing event as
// rally.ErrNotFound.
type Service interface {
	GetEvent(ctx context.Context, id int64) (rally.Event, error)
	GetEventsByStatus(ctx context.Context, statuses ...rally.EventStatus) ([]rally.Event, error)

	GetQuestionIDs(ctx context.Context, eventID int64) ([]int64, error)
	GetQuestions(ctx context.Context, ids []int64) ([]rally.Question, error)
	GetAnswers(ctx context.Context, questionIDs []int64) ([]rally.AnswerRecord, error)
	GetAnsweredQuestionIDs(ctx context.Context, teamID int64) ([]int64, error)

	InsertAnswer(ctx context.Context, p rally.AnswerPayload) error
	// FindAnswer looks up a team's stored answer for a question. The bool is
	// false when none exists.
	FindAnswer(ctx context.Context, teamID, questionID int64) (rally.SubmittedAnswer, bool, error)

	InsertTeam(ctx context.Context, name string, eventID int64) (rally.Team, error)
	TeamExists(ctx context.Context, eventID, teamID int64) (bool, error)
	SetTimePlayed(ctx context.Context, eventID, teamID int64, at time.Time) error

	// UploadPhoto stores an image and returns its storage path.
	UploadPhoto(ctx context.Context, teamID, questionID int64, image []byte) (string, error)

	GetVotingContent(ctx context.Context, eventID, ownTeamID int64) ([]rally.VotingContent, error)
	IncrementAnswerPoints(ctx context.Context, answerID int64) error
	GetTotalPointsPerEvent(ctx context.Context, eventID int64) ([]rally.TeamScore, error)
}
