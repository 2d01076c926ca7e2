package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote/memory"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) (*Client, *memory.Backend) {
	t.Helper()

	backend := memory.New()
	srv := httptest.NewServer(NewHandler(backend, zap.NewNop().Sugar()).Routes())
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, 5*time.Second), backend
}

func TestClientRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, backend := newTestClient(t)
	ev := memory.Seed(backend, time.Now())

	if err := c.Probe(ctx); err != nil {
		t.Fatalf("probe: %v", err)
	}

	got, err := c.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got.Name != ev.Name || got.Mode != rally.EventModeTeam || got.EndTime == nil {
		t.Errorf("unexpected event %+v", got)
	}

	running, err := c.GetEventsByStatus(ctx, rally.EventStatusRunning, rally.EventStatusVoting)
	if err != nil {
		t.Fatalf("events by status: %v", err)
	}
	if len(running) != 2 {
		t.Errorf("expected 2 running events, got %d", len(running))
	}

	ids, err := c.GetQuestionIDs(ctx, ev.ID)
	if err != nil {
		t.Fatalf("question ids: %v", err)
	}
	questions, err := c.GetQuestions(ctx, ids)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != len(ids) {
		t.Fatalf("expected %d questions, got %d", len(ids), len(questions))
	}
	answers, err := c.GetAnswers(ctx, ids)
	if err != nil {
		t.Fatalf("answers: %v", err)
	}
	if len(answers) == 0 {
		t.Fatal("expected answer records")
	}

	team, err := c.InsertTeam(ctx, "Gophers", ev.ID)
	if err != nil {
		t.Fatalf("insert team: %v", err)
	}
	exists, err := c.TeamExists(ctx, ev.ID, team.ID)
	if err != nil || !exists {
		t.Fatalf("team exists: %v %v", exists, err)
	}

	if _, ok, err := c.FindAnswer(ctx, team.ID, ids[0]); err != nil || ok {
		t.Fatalf("expected no answer yet: %v %v", ok, err)
	}
	if err := c.InsertAnswer(ctx, rally.AnswerPayload{TeamID: team.ID, QuestionID: ids[0], Correct: true, Points: 2, TeamAnswer: "x"}); err != nil {
		t.Fatalf("insert answer: %v", err)
	}
	a, ok, err := c.FindAnswer(ctx, team.ID, ids[0])
	if err != nil || !ok {
		t.Fatalf("find answer: %v %v", ok, err)
	}
	if a.TeamAnswer != "x" {
		t.Errorf("unexpected answer %+v", a)
	}

	answered, err := c.GetAnsweredQuestionIDs(ctx, team.ID)
	if err != nil || len(answered) != 1 {
		t.Fatalf("answered ids: %v %v", answered, err)
	}

	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	if err := c.SetTimePlayed(ctx, ev.ID, team.ID, at); err != nil {
		t.Fatalf("set time played: %v", err)
	}
	stored, _ := backend.Team(team.ID)
	if stored.TimePlayed == nil || !stored.TimePlayed.Equal(at) {
		t.Errorf("time played not stored: %+v", stored)
	}

	path, err := c.UploadPhoto(ctx, team.ID, ids[len(ids)-1], []byte("jpeg"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, ok := backend.Photo(path); !ok {
		t.Errorf("photo %q not stored", path)
	}

	scores, err := c.GetTotalPointsPerEvent(ctx, ev.ID)
	if err != nil || len(scores) != 1 || scores[0].Points != 2 {
		t.Fatalf("scores: %+v %v", scores, err)
	}
}

func TestClientNotFound(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t)
	_, err := c.GetEvent(context.Background(), 404)
	if !errors.Is(err, rally.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusServiceUnavailable, "maintenance")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.InsertAnswer(context.Background(), rally.AnswerPayload{TeamID: 1, QuestionID: 2})

	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if serr.Code != http.StatusServiceUnavailable || serr.Message != "maintenance" {
		t.Errorf("unexpected status error %+v", serr)
	}
}

func TestParseIDs(t *testing.T) {
	t.Parallel()

	ids, err := parseIDs("1, 2,3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if formatIDs(ids) != "1,2,3" {
		t.Errorf("round trip gave %q", formatIDs(ids))
	}
	if _, err := parseIDs("1,x"); err == nil {
		t.Error("expected parse error")
	}
}
