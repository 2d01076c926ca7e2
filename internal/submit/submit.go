// Package submit turns an answered question into a durable answer record and
// moves the session forward whatever the network does.
package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/logging"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote"
)

// Result tells the caller what happened to the answer record.
type Result string

const (
	// ResultLocal means no team ledger exists and only the session changed.
	ResultLocal Result = "local"
	// ResultSent means the backend stored the answer.
	ResultSent Result = "sent"
	// ResultQueued means the answer waits in the outbox.
	ResultQueued Result = "queued"
	// ResultRequiresOnline means nothing happened; the caller retries once
	// online.
	ResultRequiresOnline Result = "requires_online"
)

var (
	ErrInFlight     = errors.New("submission for question already in flight")
	ErrUploadFailed = errors.New("photo upload failed")
)

type Store interface {
	CompleteQuestion(ctx context.Context, points int)
}

type Queue interface {
	EnqueueAnswer(ctx context.Context, p rally.AnswerPayload) error
}

type Connectivity interface {
	// Check confirms connectivity at call time.
	Check(ctx context.Context) bool
}

type Answer struct {
	// TeamID is zero in tour mode.
	TeamID     int64
	QuestionID int64
	Correct    bool
	Points     int
	Text       string
}

type Photo struct {
	TeamID     int64
	QuestionID int64
	Points     int
	Image      []byte
}

type Config struct {
	Store          Store
	Outbox         Queue
	Remote         remote.Service
	Net            Connectivity
	RequestTimeout time.Duration
}

func New(config Config) *Workflow {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 10 * time.Second
	}
	return &Workflow{config: config, inFlight: map[int64]struct{}{}}
}

type Workflow struct {
	mtx sync.Mutex

	config   Config
	inFlight map[int64]struct{}
}

func (w *Workflow) acquire(questionID int64) (func(), error) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	if _, ok := w.inFlight[questionID]; ok {
		return nil, fmt.Errorf("question %d: %w", questionID, ErrInFlight)
	}
	w.inFlight[questionID] = struct{}{}

	return func() {
		w.mtx.Lock()
		delete(w.inFlight, questionID)
		w.mtx.Unlock()
	}, nil
}

// CheckAnswer applies the answer matching rule of free-text questions.
func CheckAnswer(key rally.AnswerRecord, input string) bool {
	return rally.MatchAnswer(key, input)
}

func awarded(correct bool, points int) int {
	if !correct {
		return 0
	}
	return points
}

// SubmitAnswer records an answer and advances the session. The session
// advances even when the backend is unreachable; a non-nil error is only
// returned together with ResultLocal when the answer could not be queued
// either, or with ErrInFlight.
func (w *Workflow) SubmitAnswer(ctx context.Context, a Answer) (Result, error) {
	release, err := w.acquire(a.QuestionID)
	if err != nil {
		return "", err
	}
	defer release()

	points := awarded(a.Correct, a.Points)

	if a.TeamID == 0 {
		w.config.Store.CompleteQuestion(ctx, points)
		return ResultLocal, nil
	}

	result, err := w.persist(ctx, rally.AnswerPayload{
		TeamID:     a.TeamID,
		QuestionID: a.QuestionID,
		Correct:    a.Correct,
		Points:     points,
		TeamAnswer: a.Text,
	})
	w.config.Store.CompleteQuestion(ctx, points)

	return result, err
}

// SubmitPhotoAnswer uploads a photo and records its storage path as the
// answer. Uploads are online only: without confirmed connectivity it returns
// ResultRequiresOnline and leaves the session untouched. A failed upload is
// returned as ErrUploadFailed, also without advancing.
func (w *Workflow) SubmitPhotoAnswer(ctx context.Context, p Photo) (Result, error) {
	release, err := w.acquire(p.QuestionID)
	if err != nil {
		return "", err
	}
	defer release()

	if w.config.Net != nil && !w.config.Net.Check(ctx) {
		return ResultRequiresOnline, nil
	}

	if p.TeamID == 0 {
		w.config.Store.CompleteQuestion(ctx, p.Points)
		return ResultLocal, nil
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.config.RequestTimeout)
	path, err := w.config.Remote.UploadPhoto(rctx, p.TeamID, p.QuestionID, p.Image)
	cancel()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	result, err := w.persist(ctx, rally.AnswerPayload{
		TeamID:     p.TeamID,
		QuestionID: p.QuestionID,
		Correct:    true,
		Points:     p.Points,
		TeamAnswer: path,
	})
	w.config.Store.CompleteQuestion(ctx, p.Points)

	return result, err
}

// Surrender gives up on a question: an incorrect answer worth nothing is
// recorded and the session advances.
func (w *Workflow) Surrender(ctx context.Context, teamID, questionID int64) (Result, error) {
	return w.SubmitAnswer(ctx, Answer{TeamID: teamID, QuestionID: questionID})
}

func (w *Workflow) persist(ctx context.Context, p rally.AnswerPayload) (Result, error) {
	logger := logging.FromContext(ctx).Named("submit.persist")

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.config.RequestTimeout)
	err := w.config.Remote.InsertAnswer(rctx, p)
	cancel()
	if err == nil {
		return ResultSent, nil
	}

	logger.Warnf("insert answer for team %d question %d, queueing: %v", p.TeamID, p.QuestionID, err)

	if err := w.config.Outbox.EnqueueAnswer(context.WithoutCancel(ctx), p); err != nil {
		logger.Errorf("queue answer for team %d question %d: %v", p.TeamID, p.QuestionID, err)
		return ResultLocal, fmt.Errorf("queue answer: %w", err)
	}

	return ResultQueued, nil
}
