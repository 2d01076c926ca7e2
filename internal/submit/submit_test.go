package submit

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/database"
	kvDb "github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/database/kv/database"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/outbox"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote/memory"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/session"
)

var errNetwork = errors.New("network request failed")

// brokenRemote fails every write and upload.
type brokenRemote struct {
	remote.Service
}

func (brokenRemote) InsertAnswer(context.Context, rally.AnswerPayload) error {
	return errNetwork
}

func (brokenRemote) UploadPhoto(context.Context, int64, int64, []byte) (string, error) {
	return "", errNetwork
}

type staticNet bool

func (s staticNet) Online() bool               { return bool(s) }
func (s staticNet) Check(context.Context) bool { return bool(s) }

type fixture struct {
	backend  *memory.Backend
	store    *session.Store
	outbox   *outbox.Outbox
	workflow *Workflow
	team     rally.Team
}

func newKV(t *testing.T) *kvDb.DB {
	t.Helper()

	ctx := context.Background()
	sDB, err := database.NewFromEnv(ctx, &database.Config{FilePath: filepath.Join(t.TempDir(), "submit.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { sDB.Close(ctx) })

	return kvDb.New(sDB, nil)
}

// newFixture starts a team session on an event with questions 10, 11 and
// the upload question 12.
func newFixture(t *testing.T, svc func(*memory.Backend) remote.Service, online bool) *fixture {
	t.Helper()

	ctx := context.Background()
	backend := memory.New()
	ev := backend.AddEvent(rally.Event{ID: 1, Name: "Rally", Status: rally.EventStatusRunning, Mode: rally.EventModeTeam})
	backend.AddQuestion(ev.ID, rally.Question{ID: 10, Type: rally.QuestionKnowledge, Points: 2}, rally.AnswerRecord{Text: "a", Correct: true})
	backend.AddQuestion(ev.ID, rally.Question{ID: 11, Type: rally.QuestionQRCode, Points: 3}, rally.AnswerRecord{Text: "b", Correct: true})
	backend.AddQuestion(ev.ID, rally.Question{ID: 12, Type: rally.QuestionUpload, Points: 4})
	team := backend.AddTeam(rally.Team{ID: 5, Name: "Gophers", EventID: ev.ID})

	var service remote.Service = backend
	if svc != nil {
		service = svc(backend)
	}

	kv := newKV(t)
	if err := kv.Set(ctx, kvDb.KeyCurrentEvent, ev); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	if err := kv.Set(ctx, kvDb.TeamKey(ev.ID), team); err != nil {
		t.Fatalf("seed team: %v", err)
	}

	net := staticNet(online)
	box := outbox.New(outbox.Config{KV: kv, Remote: service, Net: net})
	store := session.New(session.Config{Remote: backend, KV: kv, Outbox: box})
	t.Cleanup(store.WaitFlushed)

	store.Initialize(ctx)
	if err := store.LoadQuestions(ctx); err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if err := store.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	return &fixture{
		backend: backend,
		store:   store,
		outbox:  box,
		team:    team,
		workflow: New(Config{
			Store:  store,
			Outbox: box,
			Remote: service,
			Net:    net,
		}),
	}
}

func (f *fixture) current(t *testing.T) rally.Question {
	t.Helper()
	q, ok := session.CurrentQuestion(f.store.Snapshot())
	if !ok {
		t.Fatal("no current question")
	}
	return q
}

func TestScenarioThreeCorrectAnswers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil, true)

	for i := 0; i < 3; i++ {
		q := f.current(t)
		res, err := f.workflow.SubmitAnswer(ctx, Answer{
			TeamID: f.team.ID, QuestionID: q.ID, Correct: true, Points: q.Points, Text: "x",
		})
		if err != nil || res != ResultSent {
			t.Fatalf("submit %d: %v %v", q.ID, res, err)
		}
	}

	st := f.store.Snapshot()
	if st.Points != 9 || !st.AllQuestionsAnswered {
		t.Fatalf("points=%d all=%v", st.Points, st.AllQuestionsAnswered)
	}

	submitted := f.backend.Submitted()
	if len(submitted) != 3 {
		t.Fatalf("expected 3 inserts, got %d", len(submitted))
	}
	for _, a := range submitted {
		if !a.Correct || a.TeamID != 5 {
			t.Errorf("unexpected record %+v", a)
		}
	}

	f.store.WaitFlushed()
	team, _ := f.backend.Team(5)
	if team.TimePlayed == nil {
		t.Error("time played not recorded after the last question")
	}
}

func TestSubmitNeverBlocksProgress(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, func(b *memory.Backend) remote.Service { return brokenRemote{b} }, true)

	q := f.current(t)
	res, err := f.workflow.SubmitAnswer(ctx, Answer{TeamID: f.team.ID, QuestionID: q.ID, Correct: true, Points: q.Points})
	if err != nil || res != ResultQueued {
		t.Fatalf("expected queued, got %v %v", res, err)
	}

	st := f.store.Snapshot()
	if st.QuestionIndex != 1 || st.Points != q.Points {
		t.Fatalf("session did not advance: %+v", st)
	}

	pending, err := f.outbox.Pending(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Type != outbox.ActionSaveAnswer {
		t.Fatalf("answer not queued: %+v", pending)
	}
	p, _ := pending[0].AnswerPayload()
	if p.QuestionID != q.ID || p.TeamID != f.team.ID || !p.Correct {
		t.Errorf("unexpected payload %+v", p)
	}
}

func TestPhotoRequiresOnline(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil, false)

	before := f.store.Snapshot()
	res, err := f.workflow.SubmitPhotoAnswer(ctx, Photo{TeamID: f.team.ID, QuestionID: 12, Points: 4, Image: []byte("jpeg")})
	if err != nil || res != ResultRequiresOnline {
		t.Fatalf("expected requires_online, got %v %v", res, err)
	}

	after := f.store.Snapshot()
	if after.QuestionIndex != before.QuestionIndex || after.Points != before.Points {
		t.Fatalf("session changed while offline")
	}
	if pending, _ := f.outbox.Pending(ctx); len(pending) != 0 {
		t.Fatalf("photo answer queued: %+v", pending)
	}
}

func TestPhotoUploadFailureDoesNotAdvance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, func(b *memory.Backend) remote.Service { return brokenRemote{b} }, true)

	_, err := f.workflow.SubmitPhotoAnswer(ctx, Photo{TeamID: f.team.ID, QuestionID: 12, Points: 4, Image: []byte("jpeg")})
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	if st := f.store.Snapshot(); st.QuestionIndex != 0 || st.Points != 0 {
		t.Fatalf("session advanced after failed upload: %+v", st)
	}
}

func TestPhotoAnswerStoresPath(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil, true)

	res, err := f.workflow.SubmitPhotoAnswer(ctx, Photo{TeamID: f.team.ID, QuestionID: 12, Points: 4, Image: []byte("jpeg")})
	if err != nil || res != ResultSent {
		t.Fatalf("submit photo: %v %v", res, err)
	}

	submitted := f.backend.Submitted()
	if len(submitted) != 1 {
		t.Fatalf("expected one answer, got %d", len(submitted))
	}
	if _, ok := f.backend.Photo(submitted[0].TeamAnswer); !ok {
		t.Errorf("answer does not point at the upload: %q", submitted[0].TeamAnswer)
	}
	if f.store.Snapshot().Points != 4 {
		t.Errorf("photo points not applied")
	}
}

func TestTourAnswerIsLocal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil, true)

	res, err := f.workflow.SubmitAnswer(ctx, Answer{QuestionID: 10, Correct: false, Points: 2})
	if err != nil || res != ResultLocal {
		t.Fatalf("expected local, got %v %v", res, err)
	}
	if len(f.backend.Submitted()) != 0 {
		t.Error("tour answer reached the backend")
	}
	if st := f.store.Snapshot(); st.Points != 0 || st.QuestionIndex != 1 {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestSurrender(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil, true)

	q := f.current(t)
	if res, err := f.workflow.Surrender(ctx, f.team.ID, q.ID); err != nil || res != ResultSent {
		t.Fatalf("surrender: %v %v", res, err)
	}

	submitted := f.backend.Submitted()
	if len(submitted) != 1 || submitted[0].Correct || submitted[0].Points != 0 {
		t.Fatalf("unexpected record %+v", submitted)
	}
	if st := f.store.Snapshot(); st.QuestionIndex != 1 || st.Points != 0 {
		t.Errorf("unexpected state %+v", st)
	}
}

// slowRemote blocks inserts until released.
type slowRemote struct {
	*memory.Backend
	entered chan struct{}
	release chan struct{}
}

func (s *slowRemote) InsertAnswer(ctx context.Context, p rally.AnswerPayload) error {
	s.entered <- struct{}{}
	<-s.release
	return s.Backend.InsertAnswer(ctx, p)
}

func TestInFlightGuard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	slow := &slowRemote{entered: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, func(b *memory.Backend) remote.Service {
		slow.Backend = b
		return slow
	}, true)

	q := f.current(t)
	answer := Answer{TeamID: f.team.ID, QuestionID: q.ID, Correct: true, Points: q.Points}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := f.workflow.SubmitAnswer(ctx, answer); err != nil {
			t.Errorf("first submit: %v", err)
		}
	}()

	select {
	case <-slow.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first submission never reached the backend")
	}

	if _, err := f.workflow.SubmitAnswer(ctx, answer); !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}

	close(slow.release)
	wg.Wait()

	if st := f.store.Snapshot(); st.QuestionIndex != 1 {
		t.Fatalf("expected a single advance, got index %d", st.QuestionIndex)
	}
}

func TestCheckAnswer(t *testing.T) {
	t.Parallel()

	key := rally.AnswerRecord{Text: "  Building A "}
	if !CheckAnswer(key, "building a") {
		t.Error("normalized answer should match")
	}
	if CheckAnswer(key, "building") {
		t.Error("partial answer must not match")
	}
}

// lateRemote takes a while to record the time played.
type lateRemote struct {
	*memory.Backend
	delay time.Duration
}

func (l *lateRemote) SetTimePlayed(ctx context.Context, eventID, teamID int64, at time.Time) error {
	time.Sleep(l.delay)
	return l.Backend.SetTimePlayed(ctx, eventID, teamID, at)
}

func TestLastSubmitDoesNotWaitForTimePlayed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	late := &lateRemote{delay: time.Second}
	f := newFixture(t, func(b *memory.Backend) remote.Service {
		late.Backend = b
		return late
	}, true)

	for i := 0; i < 3; i++ {
		q := f.current(t)
		start := time.Now()
		res, err := f.workflow.SubmitAnswer(ctx, Answer{
			TeamID: f.team.ID, QuestionID: q.ID, Correct: true, Points: q.Points, Text: "x",
		})
		if err != nil || res != ResultSent {
			t.Fatalf("submit %d: %v %v", q.ID, res, err)
		}
		if took := time.Since(start); took >= late.delay/2 {
			t.Fatalf("submit %d took %s", q.ID, took)
		}
	}

	if !f.store.Snapshot().AllQuestionsAnswered {
		t.Fatal("session not finished")
	}

	f.store.WaitFlushed()
	if team, _ := f.backend.Team(5); team.TimePlayed == nil {
		t.Error("time played not delivered")
	}
}
