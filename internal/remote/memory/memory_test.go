package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
)

func TestInsertAnswerRejectsDuplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := New()
	ev := b.AddEvent(rally.Event{Status: rally.EventStatusRunning, Mode: rally.EventModeTeam})
	team, err := b.InsertTeam(ctx, "Gophers", ev.ID)
	if err != nil {
		t.Fatalf("insert team: %v", err)
	}

	p := rally.AnswerPayload{TeamID: team.ID, QuestionID: 10, Correct: true, Points: 2}
	if err := b.InsertAnswer(ctx, p); err != nil {
		t.Fatalf("insert answer: %v", err)
	}
	if err := b.InsertAnswer(ctx, p); err == nil {
		t.Fatal("expected duplicate insert to fail")
	}

	got, ok, err := b.FindAnswer(ctx, team.ID, 10)
	if err != nil || !ok {
		t.Fatalf("find answer: %v %v", ok, err)
	}
	if got.Points != 2 || !got.Correct {
		t.Errorf("unexpected answer %+v", got)
	}
}

func TestTeamExists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := New()
	ev := b.AddEvent(rally.Event{Status: rally.EventStatusRunning})
	other := b.AddEvent(rally.Event{Status: rally.EventStatusRunning})
	team, _ := b.InsertTeam(ctx, "Gophers", ev.ID)

	if ok, _ := b.TeamExists(ctx, ev.ID, team.ID); !ok {
		t.Error("expected team to exist")
	}
	if ok, _ := b.TeamExists(ctx, other.ID, team.ID); ok {
		t.Error("team must not exist in another event")
	}

	b.DeleteTeam(team.ID)
	if ok, _ := b.TeamExists(ctx, ev.ID, team.ID); ok {
		t.Error("expected deleted team to be gone")
	}

	if _, err := b.InsertTeam(ctx, "Nobody", 999); !errors.Is(err, rally.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown event, got %v", err)
	}
}

func TestVotingAndScores(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := New()
	ev := b.AddEvent(rally.Event{Status: rally.EventStatusVoting, Mode: rally.EventModeTeam})
	upload := b.AddQuestion(ev.ID, rally.Question{Type: rally.QuestionUpload, Points: 4})
	quiz := b.AddQuestion(ev.ID, rally.Question{Type: rally.QuestionKnowledge, Points: 2})

	a, _ := b.InsertTeam(ctx, "A", ev.ID)
	c, _ := b.InsertTeam(ctx, "C", ev.ID)

	path, err := b.UploadPhoto(ctx, c.ID, upload.ID, []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, ok := b.Photo(path); !ok {
		t.Fatalf("photo %q not stored", path)
	}

	_ = b.InsertAnswer(ctx, rally.AnswerPayload{TeamID: a.ID, QuestionID: quiz.ID, Correct: true, Points: 2})
	_ = b.InsertAnswer(ctx, rally.AnswerPayload{TeamID: c.ID, QuestionID: upload.ID, Correct: true, Points: 4, TeamAnswer: path})

	content, err := b.GetVotingContent(ctx, ev.ID, a.ID)
	if err != nil {
		t.Fatalf("voting content: %v", err)
	}
	if len(content) != 1 || content[0].TeamID != c.ID || content[0].TeamAnswer != path {
		t.Fatalf("unexpected voting content %+v", content)
	}

	if err := b.IncrementAnswerPoints(ctx, content[0].AnswerID); err != nil {
		t.Fatalf("increment: %v", err)
	}

	scores, err := b.GetTotalPointsPerEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	want := map[int64]int{a.ID: 2, c.ID: 5}
	for _, s := range scores {
		if want[s.TeamID] != s.Points {
			t.Errorf("team %d: got %d points, want %d", s.TeamID, s.Points, want[s.TeamID])
		}
	}
}

func TestSeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := New()
	ev := Seed(b, time.Now())

	ids, _ := b.GetQuestionIDs(ctx, ev.ID)
	if len(ids) != 5 {
		t.Fatalf("expected 5 seeded questions, got %d", len(ids))
	}

	running, _ := b.GetEventsByStatus(ctx, rally.EventStatusRunning)
	if len(running) != 2 {
		t.Errorf("expected 2 running events, got %d", len(running))
	}
}
