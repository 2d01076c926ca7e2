package netstate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSetNotifiesOnTransition(t *testing.T) {
	t.Parallel()

	m := New(Config{})
	ch, release := m.Subscribe()
	defer release()

	m.Set(false)
	m.Set(true)
	m.Set(true)

	select {
	case v := <-ch:
		if !v {
			t.Fatalf("expected online transition")
		}
	case <-time.After(time.Second):
		t.Fatal("no transition delivered")
	}

	select {
	case v := <-ch:
		t.Fatalf("unexpected extra transition %v", v)
	default:
	}
}

func TestCheckUsesProber(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	m := New(Config{
		Online: true,
		Prober: ProbeFunc(func(ctx context.Context) error {
			if fail.Load() {
				return errors.New("unreachable")
			}
			return nil
		}),
	})

	if !m.Check(context.Background()) {
		t.Fatal("expected online")
	}

	fail.Store(true)
	if m.Check(context.Background()) || m.Online() {
		t.Fatal("expected offline after failed probe")
	}
}

func TestCheckWithoutProber(t *testing.T) {
	t.Parallel()

	m := New(Config{Online: false})
	if m.Check(context.Background()) {
		t.Fatal("expected current state to be kept")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	m := New(Config{})
	ch, release := m.Subscribe()
	release()
	release()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	m.Set(true)
}
