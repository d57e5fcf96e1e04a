package sync

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agenthub-labs/agenthub/internal/config"
)

func TestSchedulerRefreshesOnInterval(t *testing.T) {
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		fmt.Fprint(w, manifestJSON("acme", "review"))
	}))
	defer srv.Close()

	st := newTestStore(t)
	e := New(st, fastFetcher(), nil)
	repos := func() ([]config.Repository, error) {
		return []config.Repository{{ID: "acme", URL: srv.URL, Enabled: true}}, nil
	}

	s := NewScheduler(e, repos, 20*time.Millisecond)
	s.Start()
	s.Start() // second start is a no-op

	deadline := time.Now().Add(2 * time.Second)
	for fetches.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	s.Stop() // second stop is a no-op

	if n := fetches.Load(); n < 2 {
		t.Errorf("fetches = %d, want at least 2 ticks", n)
	}

	settled := fetches.Load()
	time.Sleep(60 * time.Millisecond)
	if fetches.Load() != settled {
		t.Error("scheduler kept refreshing after Stop")
	}
}
