// Package outbox keeps write intents the backend has not confirmed yet and
// delivers them when the device is online.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	kvDb "github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/database/kv/database"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/logging"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote"
	"golang.org/x/sync/singleflight"
)

const flushKey = "flush"

type KV interface {
	Get(ctx context.Context, key string, v interface{}) error
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
}

type Connectivity interface {
	Online() bool
}

type Status struct {
	Online       bool
	Syncing      bool
	QueueCount   int
	LastError    string
	LastSyncedAt time.Time
}

type Config struct {
	KV     KV
	Remote remote.Service
	Net    Connectivity
	// RequestTimeout bounds every delivery attempt.
	RequestTimeout time.Duration
	Clock          func() time.Time
}

func New(config Config) *Outbox {
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 10 * time.Second
	}
	return &Outbox{config: config}
}

type Outbox struct {
	mtx sync.RWMutex

	config Config
	group  singleflight.Group
	status Status
}

func (o *Outbox) Status() Status {
	o.mtx.RLock()
	s := o.status
	o.mtx.RUnlock()

	s.Online = o.online()
	return s
}

func (o *Outbox) online() bool {
	return o.config.Net == nil || o.config.Net.Online()
}

func (o *Outbox) setQueueCount(n int) {
	o.mtx.Lock()
	o.status.QueueCount = n
	o.mtx.Unlock()
}

// Pending returns the queued actions in delivery order.
func (o *Outbox) Pending(ctx context.Context) ([]Action, error) {
	logger := logging.FromContext(ctx).Named("outbox.Pending")

	var raw json.RawMessage
	if err := o.config.KV.Get(ctx, kvDb.KeyOfflineQueue, &raw); err != nil {
		if errors.Is(err, kvDb.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get queue: %w", err)
	}

	actions, _, skipped, err := migrate(raw, o.config.Clock())
	if errors.Is(err, errCorruptQueue) {
		logger.Errorf("ignore queue: %v", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for _, e := range skipped {
		logger.Warnf("skip queued record: %v", e)
	}
	return actions, nil
}

// rewrite runs fn on the decoded queue inside one storage transaction and
// stores its result when fn asks for a write. A queue that cannot be decoded
// is copied to KeyOfflineQueueCorrupt and replaced by an empty one.
func (o *Outbox) rewrite(ctx context.Context, name string, fn func(actions []Action, changed bool) ([]Action, bool)) ([]Action, error) {
	logger := logging.FromContext(ctx).Named(name)

	setAside := false
	for {
		var corrupt []byte
		var actions []Action
		err := o.config.KV.Update(ctx, kvDb.KeyOfflineQueue, func(current []byte) ([]byte, error) {
			decoded, changed, skipped, err := migrate(current, o.config.Clock())
			switch {
			case errors.Is(err, errCorruptQueue) && !setAside:
				corrupt = current
				return nil, err
			case errors.Is(err, errCorruptQueue):
				decoded, changed = nil, true
			case err != nil:
				return nil, err
			}
			for _, e := range skipped {
				logger.Warnf("drop queued record: %v", e)
			}

			next, write := fn(decoded, changed)
			actions = next
			if !write {
				return current, nil
			}
			if len(next) == 0 {
				return nil, nil
			}
			return json.Marshal(next)
		})

		if corrupt != nil {
			logger.Errorf("%v, moving it to %s", err, kvDb.KeyOfflineQueueCorrupt)
			if err := o.config.KV.Update(ctx, kvDb.KeyOfflineQueueCorrupt, func([]byte) ([]byte, error) {
				return corrupt, nil
			}); err != nil {
				return nil, fmt.Errorf("set aside queue: %w", err)
			}
			setAside = true
			continue
		}
		if err != nil {
			return nil, err
		}

		o.setQueueCount(len(actions))
		return actions, nil
	}
}

// modify rewrites the stored queue inside one storage transaction.
func (o *Outbox) modify(ctx context.Context, fn func([]Action) []Action) ([]Action, error) {
	actions, err := o.rewrite(ctx, "outbox.modify", func(actions []Action, _ bool) ([]Action, bool) {
		return fn(actions), true
	})
	if err != nil {
		return nil, fmt.Errorf("update queue: %w", err)
	}
	return actions, nil
}

// Load normalizes the stored queue and persists the canonical form when any
// legacy record was found.
func (o *Outbox) Load(ctx context.Context) ([]Action, error) {
	logger := logging.FromContext(ctx).Named("outbox.Load")

	actions, err := o.rewrite(ctx, "outbox.Load", func(actions []Action, changed bool) ([]Action, bool) {
		if changed {
			logger.Infof("migrated queue with %d actions", len(actions))
		}
		return actions, changed
	})
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	return actions, nil
}

func (o *Outbox) Enqueue(ctx context.Context, action Action) error {
	if _, err := o.modify(ctx, func(actions []Action) []Action {
		return append(actions, action)
	}); err != nil {
		return fmt.Errorf("enqueue %s: %w", action.Type, err)
	}
	return nil
}

func (o *Outbox) EnqueueAnswer(ctx context.Context, p rally.AnswerPayload) error {
	action, err := newAction(ActionSaveAnswer, p, o.config.Clock())
	if err != nil {
		return err
	}
	return o.Enqueue(ctx, action)
}

func (o *Outbox) EnqueueTimePlayed(ctx context.Context, eventID, teamID int64, at time.Time) error {
	action, err := newAction(ActionSetTimePlayed, TimePlayedPayload{
		EventID:    eventID,
		TeamID:     teamID,
		TimePlayed: at,
	}, o.config.Clock())
	if err != nil {
		return err
	}
	return o.Enqueue(ctx, action)
}

// Process delivers due actions in queue order. Concurrent callers share one
// flush. Delivery failures are recorded on the action and in Status; only
// storage failures are returned.
func (o *Outbox) Process(ctx context.Context) error {
	_, err, _ := o.group.Do(flushKey, func() (interface{}, error) {
		return nil, o.flush(ctx)
	})
	return err
}

func (o *Outbox) flush(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("outbox.flush")

	if !o.online() {
		return nil
	}

	o.mtx.Lock()
	o.status.Syncing = true
	o.mtx.Unlock()
	defer func() {
		o.mtx.Lock()
		o.status.Syncing = false
		o.mtx.Unlock()
	}()

	queue, err := o.Load(ctx)
	if err != nil {
		return err
	}

	var (
		now       = o.config.Clock()
		delivered = map[string]bool{}
		failed    *Action
		lastErr   error
	)

	for _, action := range queue {
		if !action.Due(now) {
			continue
		}

		if err := o.deliver(ctx, action); err != nil {
			action.Attempts++
			next := now.Add(Backoff(action.Attempts))
			action.NextRetryAt = &next
			action.LastError = err.Error()
			failed = &action
			lastErr = err
			logger.Warnf("deliver %s %s (attempt %d): %v", action.Type, action.ID, action.Attempts, err)
			break
		}
		delivered[action.ID] = true
	}

	if len(delivered) > 0 || failed != nil {
		// actions enqueued while delivering are kept
		if _, err := o.modify(ctx, func(actions []Action) []Action {
			kept := actions[:0]
			for _, a := range actions {
				if delivered[a.ID] {
					continue
				}
				if failed != nil && a.ID == failed.ID {
					a = *failed
				}
				kept = append(kept, a)
			}
			return kept
		}); err != nil {
			return err
		}
	}

	o.mtx.Lock()
	o.status.LastSyncedAt = now
	if lastErr != nil {
		o.status.LastError = lastErr.Error()
	} else {
		o.status.LastError = ""
	}
	o.mtx.Unlock()

	return nil
}

func (o *Outbox) deliver(ctx context.Context, action Action) error {
	logger := logging.FromContext(ctx).Named("outbox.deliver")

	// a delivery that has started runs to completion
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.RequestTimeout)
	defer cancel()

	switch action.Type {
	case ActionSaveAnswer:
		p, err := action.AnswerPayload()
		if err != nil {
			logger.Errorf("drop malformed action %s: %v", action.ID, err)
			return nil
		}
		if _, ok, err := o.config.Remote.FindAnswer(ctx, p.TeamID, p.QuestionID); err != nil {
			return fmt.Errorf("find answer: %w", err)
		} else if ok {
			return nil
		}
		if err := o.config.Remote.InsertAnswer(ctx, p); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	case ActionSetTimePlayed:
		p, err := action.TimePlayedPayload()
		if err != nil {
			logger.Errorf("drop malformed action %s: %v", action.ID, err)
			return nil
		}
		if err := o.config.Remote.SetTimePlayed(ctx, p.EventID, p.TeamID, p.TimePlayed); err != nil {
			return fmt.Errorf("set time played: %w", err)
		}
	default:
		logger.Errorf("drop action %s of unknown type %q", action.ID, action.Type)
	}

	return nil
}

// Run flushes on start, on every offline to online transition and on every
// foreground signal received while online.
func (o *Outbox) Run(ctx context.Context, online <-chan bool, foreground <-chan struct{}) {
	logger := logging.FromContext(ctx).Named("outbox.Run")

	process := func() {
		if err := o.Process(ctx); err != nil {
			logger.Errorf("process outbox: %v", err)
		}
	}

	process()

	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-online:
			if !ok {
				online = nil
				continue
			}
			if v {
				process()
			}
		case _, ok := <-foreground:
			if !ok {
				foreground = nil
				continue
			}
			if o.online() {
				process()
			}
		}
	}
}
