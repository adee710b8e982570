package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ehr/chart/internal/platform/notify"
)

func newTestFetcher(load LoadFunc[[]string]) (*Fetcher[[]string], *captured) {
	ch := notify.NewChannel(zerolog.Nop())
	c := &captured{}
	ch.Register(c.add)
	return New(load, ch, zerolog.Nop()), c
}

type captured struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (c *captured) add(n notify.Notification) {
	c.mu.Lock()
	c.items = append(c.items, n)
	c.mu.Unlock()
}

func (c *captured) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func TestFetcher_StartsIdle(t *testing.T) {
	f, _ := newTestFetcher(nil)
	if s := f.Snapshot(); s.Status != StatusIdle {
		t.Errorf("status = %s, want idle", s.Status)
	}
}

func TestFetcher_Success(t *testing.T) {
	var gotID string
	f, c := newTestFetcher(func(ctx context.Context, patientID string) ([]string, error) {
		gotID = patientID
		return []string{"a", "b"}, nil
	})

	snap := f.Fetch(context.Background(), "p1")
	if snap.Status != StatusSucceeded {
		t.Fatalf("status = %s", snap.Status)
	}
	if gotID != "p1" {
		t.Errorf("load called with %q", gotID)
	}
	if len(snap.Data) != 2 {
		t.Errorf("data = %v", snap.Data)
	}
	if c.count() != 0 {
		t.Errorf("unexpected notifications: %d", c.count())
	}
}

func TestFetcher_LoadError(t *testing.T) {
	boom := errors.New("upstream down")
	f, _ := newTestFetcher(func(ctx context.Context, patientID string) ([]string, error) {
		return nil, boom
	})

	snap := f.Fetch(context.Background(), "p1")
	if snap.Status != StatusFailed {
		t.Fatalf("status = %s", snap.Status)
	}
	if !errors.Is(snap.Err, boom) {
		t.Errorf("err = %v", snap.Err)
	}
	if snap.Data != nil {
		t.Errorf("data = %v, want nil after failure", snap.Data)
	}
}

func TestFetcher_EmptyPatientIDSkipsLoad(t *testing.T) {
	called := false
	f, c := newTestFetcher(func(ctx context.Context, patientID string) ([]string, error) {
		called = true
		return nil, nil
	})

	snap := f.Fetch(context.Background(), "")
	if called {
		t.Error("load must not run for an empty patient id")
	}
	if snap.Status != StatusFailed {
		t.Errorf("status = %s", snap.Status)
	}
	if !errors.Is(snap.Err, ErrInvalidPatientID) {
		t.Errorf("err = %v", snap.Err)
	}
	if snap.Err.Error() != "Invalid patient UUID" {
		t.Errorf("message = %q", snap.Err.Error())
	}
	if c.count() != 1 {
		t.Errorf("notifications = %d, want 1", c.count())
	}
}

func TestFetcher_Refetch(t *testing.T) {
	calls := 0
	f, _ := newTestFetcher(func(ctx context.Context, patientID string) ([]string, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("flaky")
		}
		return []string{"ok"}, nil
	})

	if snap := f.Fetch(context.Background(), "p1"); snap.Status != StatusFailed {
		t.Fatalf("first fetch status = %s", snap.Status)
	}
	snap := f.Refetch(context.Background())
	if snap.Status != StatusSucceeded {
		t.Fatalf("refetch status = %s", snap.Status)
	}
	if calls != 2 {
		t.Errorf("calls = %d", calls)
	}
}

func TestFetcher_RefetchBeforeFetchFails(t *testing.T) {
	f, _ := newTestFetcher(func(ctx context.Context, patientID string) ([]string, error) {
		t.Error("load must not run")
		return nil, nil
	})
	if snap := f.Refetch(context.Background()); !errors.Is(snap.Err, ErrInvalidPatientID) {
		t.Errorf("err = %v", snap.Err)
	}
}

func TestFetcher_StaleResultDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	f, _ := newTestFetcher(func(ctx context.Context, patientID string) ([]string, error) {
		if patientID == "slow" {
			close(started)
			<-release
			return []string{"stale"}, nil
		}
		return []string{"fresh"}, nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.Fetch(context.Background(), "slow")
	}()

	<-started
	f.Fetch(context.Background(), "fast")
	close(release)
	wg.Wait()

	snap := f.Snapshot()
	if snap.Status != StatusSucceeded {
		t.Fatalf("status = %s", snap.Status)
	}
	if len(snap.Data) != 1 || snap.Data[0] != "fresh" {
		t.Errorf("data = %v, want the newer result kept", snap.Data)
	}
}
