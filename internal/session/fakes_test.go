package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	kvDb "github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/database/kv/database"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote/memory"
)

var errNetwork = errors.New("network request failed")

type memKV struct {
	mtx       sync.Mutex
	data      map[string][]byte
	failGet   bool
	failWrite bool
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Get(_ context.Context, key string, v interface{}) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.failGet {
		return errors.New("storage unavailable")
	}
	b, ok := m.data[key]
	if !ok {
		return kvDb.ErrNotFound
	}
	return json.Unmarshal(b, v)
}

func (m *memKV) Set(_ context.Context, key string, v interface{}) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.failWrite {
		return errors.New("storage unavailable")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

func (m *memKV) Remove(_ context.Context, key string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.failWrite {
		return errors.New("storage unavailable")
	}
	delete(m.data, key)
	return nil
}

func (m *memKV) has(key string) bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	_, ok := m.data[key]
	return ok
}

// teamCheck overrides TeamExists of the embedded backend.
type teamCheck struct {
	*memory.Backend
	exists bool
	err    error
}

func (t *teamCheck) TeamExists(context.Context, int64, int64) (bool, error) {
	return t.exists, t.err
}

type playedCall struct {
	eventID, teamID int64
	at              time.Time
}

type fakeOutbox struct {
	mtx       sync.Mutex
	played    []playedCall
	processed int
}

func (f *fakeOutbox) EnqueueTimePlayed(_ context.Context, eventID, teamID int64, at time.Time) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.played = append(f.played, playedCall{eventID, teamID, at})
	return nil
}

func (f *fakeOutbox) Process(context.Context) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.processed++
	return nil
}

func questions(n int) []rally.Question {
	qs := make([]rally.Question, n)
	for i := range qs {
		qs[i] = rally.Question{ID: int64(i + 1), Type: rally.QuestionKnowledge, Points: 1}
	}
	return qs
}
