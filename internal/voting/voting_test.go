package voting

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	kvDb "github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/database/kv/database"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote/memory"
)

type memKV struct {
	mtx  sync.Mutex
	data map[string][]byte
}

func (m *memKV) Get(_ context.Context, key string, v interface{}) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	b, ok := m.data[key]
	if !ok {
		return kvDb.ErrNotFound
	}
	return json.Unmarshal(b, v)
}

func (m *memKV) Set(_ context.Context, key string, v interface{}) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

type votingFixture struct {
	backend *memory.Backend
	event   rally.Event
	own     rally.Team
	others  []rally.Team
	upload  rally.Question
}

func newVotingFixture(t *testing.T) *votingFixture {
	t.Helper()

	ctx := context.Background()
	b := memory.New()
	ev := b.AddEvent(rally.Event{Name: "Rally", Status: rally.EventStatusVoting, Mode: rally.EventModeTeam})
	upload := b.AddQuestion(ev.ID, rally.Question{Text: "Team photo", Type: rally.QuestionUpload, Points: 4})

	f := &votingFixture{backend: b, event: ev, upload: upload}
	for i, name := range []string{"Own", "Red", "Blue"} {
		team, err := b.InsertTeam(ctx, name, ev.ID)
		if err != nil {
			t.Fatalf("insert team: %v", err)
		}
		if err := b.InsertAnswer(ctx, rally.AnswerPayload{
			TeamID: team.ID, QuestionID: upload.ID, Correct: true, Points: 4, TeamAnswer: name + ".jpg",
		}); err != nil {
			t.Fatalf("insert answer: %v", err)
		}
		if i == 0 {
			f.own = team
			continue
		}
		f.others = append(f.others, team)
	}
	return f
}

func TestVote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVotingFixture(t)
	s := New(Config{Remote: f.backend, KV: &memKV{data: map[string][]byte{}}})

	content, err := s.Remaining(ctx, f.event.ID, f.own.ID)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if len(content) != 2 {
		t.Fatalf("expected the 2 other uploads, got %+v", content)
	}
	for _, c := range content {
		if c.TeamID == f.own.ID {
			t.Fatal("own answer offered for voting")
		}
	}

	if err := s.Vote(ctx, f.event.ID, f.own.ID, content[0]); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := s.Vote(ctx, f.event.ID, f.own.ID, content[1]); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}

	remaining, err := s.Remaining(ctx, f.event.ID, f.own.ID)
	if err != nil || len(remaining) != 0 {
		t.Fatalf("expected nothing left to vote on, got %+v %v", remaining, err)
	}

	board, err := s.Scoreboard(ctx, f.event.ID)
	if err != nil {
		t.Fatalf("scoreboard: %v", err)
	}
	if board[0].TeamID != content[0].TeamID || board[0].Points != 5 || board[0].Rank != 1 {
		t.Fatalf("voted team should lead: %+v", board)
	}
	if board[1].Rank != 2 || board[2].Rank != 2 {
		t.Errorf("remaining teams should share rank 2: %+v", board)
	}
}

func TestVoteOwnAnswer(t *testing.T) {
	t.Parallel()

	s := New(Config{Remote: memory.New(), KV: &memKV{data: map[string][]byte{}}})
	err := s.Vote(context.Background(), 1, 7, rally.VotingContent{TeamID: 7, QuestionID: 1})
	if !errors.Is(err, ErrOwnAnswer) {
		t.Fatalf("expected ErrOwnAnswer, got %v", err)
	}
}

type failingIncrement struct {
	remote.Service
}

func (failingIncrement) IncrementAnswerPoints(context.Context, int64) error {
	return errors.New("network request failed")
}

func TestVoteRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVotingFixture(t)
	kv := &memKV{data: map[string][]byte{}}

	s := New(Config{Remote: failingIncrement{f.backend}, KV: kv})
	content, err := s.Content(ctx, f.event.ID, f.own.ID)
	if err != nil {
		t.Fatalf("content: %v", err)
	}

	if err := s.Vote(ctx, f.event.ID, f.own.ID, content[0]); err == nil {
		t.Fatal("expected error")
	}

	s.config.Remote = f.backend
	if err := s.Vote(ctx, f.event.ID, f.own.ID, content[0]); err != nil {
		t.Fatalf("retry vote: %v", err)
	}
}

func TestRankings(t *testing.T) {
	t.Parallel()

	early := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	ranks := Rankings([]rally.TeamScore{
		{TeamID: 1, TeamName: "Slow", Points: 10, TimePlayed: &late},
		{TeamID: 2, TeamName: "Unfinished", Points: 10},
		{TeamID: 3, TeamName: "Fast", Points: 10, TimePlayed: &early},
		{TeamID: 4, TeamName: "Best", Points: 12, TimePlayed: &late},
		{TeamID: 5, TeamName: "Twin", Points: 10, TimePlayed: &early},
	})

	wantIDs := []int64{4, 3, 5, 1, 2}
	wantRanks := []int{1, 2, 2, 3, 4}
	for i, r := range ranks {
		if r.TeamID != wantIDs[i] || r.Rank != wantRanks[i] {
			t.Errorf("row %d: got team %d rank %d, want team %d rank %d", i, r.TeamID, r.Rank, wantIDs[i], wantRanks[i])
		}
	}
}
