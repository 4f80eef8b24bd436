package app_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artpar/bandgate/app"
	"github.com/rs/zerolog"
)

// slowAPI answers the client-id endpoint after a delay and counts calls.
// When gate is set, each call signals started and blocks until gate closes.
type slowAPI struct {
	calls   atomic.Int32
	delay   time.Duration
	fail    bool
	started chan struct{}
	gate    chan struct{}
}

func (s *slowAPI) Request(ctx context.Context, method, path string, body, result any) error {
	s.calls.Add(1)
	if s.gate != nil {
		s.started <- struct{}{}
		<-s.gate
	}
	time.Sleep(s.delay)
	if s.fail {
		return errors.New("dial tcp: connection refused")
	}
	api := newFakeAPI()
	api.on("GET", app.PathGoogleClientID, `{"success":true,"data":{"clientId":"remote-id"}}`)
	return api.Request(ctx, method, path, body, result)
}

func TestClientIDCache_FetchesOnce(t *testing.T) {
	api := &slowAPI{delay: 20 * time.Millisecond}
	cache := app.NewClientIDCache(api, "", zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := cache.Get(context.Background())
			if err != nil || id != "remote-id" {
				t.Errorf("Get = %q, %v", id, err)
			}
		}()
	}
	wg.Wait()

	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n := api.calls.Load(); n != 1 {
		t.Errorf("backend calls = %d, want 1", n)
	}
}

func TestClientIDCache_Invalidate(t *testing.T) {
	api := &slowAPI{}
	cache := app.NewClientIDCache(api, "", zerolog.Nop())
	ctx := context.Background()

	cache.Get(ctx)
	cache.Invalidate()
	cache.Get(ctx)

	if n := api.calls.Load(); n != 2 {
		t.Errorf("backend calls = %d, want 2", n)
	}
}

func TestClientIDCache_InvalidateDuringFetch(t *testing.T) {
	api := &slowAPI{started: make(chan struct{}, 1), gate: make(chan struct{})}
	cache := app.NewClientIDCache(api, "", zerolog.Nop())
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if id, err := cache.Get(ctx); err != nil || id != "remote-id" {
			t.Errorf("Get = %q, %v", id, err)
		}
	}()

	<-api.started
	cache.Invalidate()
	close(api.gate)
	<-done

	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n := api.calls.Load(); n != 2 {
		t.Errorf("backend calls = %d, want 2 (stale fetch must not be cached)", n)
	}
}

func TestClientIDCache_Fallback(t *testing.T) {
	cache := app.NewClientIDCache(&slowAPI{fail: true}, "configured-id", zerolog.Nop())

	id, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if id != "configured-id" {
		t.Errorf("id = %q, want configured-id", id)
	}
}

func TestClientIDCache_NoSource(t *testing.T) {
	api := newFakeAPI()
	api.on("GET", app.PathGoogleClientID, `{"success":true,"data":{}}`)
	cache := app.NewClientIDCache(api, "", zerolog.Nop())

	if _, err := cache.Get(context.Background()); !errors.Is(err, app.ErrNoClientID) {
		t.Fatalf("err = %v, want ErrNoClientID", err)
	}
}
