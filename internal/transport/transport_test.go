package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"hemlist/engine/internal/hub"
	"hemlist/engine/internal/list"
)

const testToken = "test-sync-token"

func newTestServer(t *testing.T) (*httptest.Server, *hub.Hub) {
	t.Helper()
	hash, err := HashSyncToken(testToken)
	if err != nil {
		t.Fatalf("HashSyncToken failed: %v", err)
	}
	h := hub.New(nil)
	srv := httptest.NewServer(NewServer(h, hash).Handler())
	t.Cleanup(srv.Close)
	return srv, h
}

// snapshotSink collects snapshots pushed over the wire.
type snapshotSink struct {
	mu        sync.Mutex
	snapshots [][]list.Item
}

func (s *snapshotSink) record(items []list.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, items)
}

func (s *snapshotSink) waitFor(t *testing.T, predicate func([][]list.Item) bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		ok := predicate(s.snapshots)
		s.mu.Unlock()
		if ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for snapshot")
}

func TestHealthNeedsNoAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestBadTokenRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	conn := NewConn(srv.URL, "wrong-token")
	err := conn.Connect(context.Background(), func([]list.Item) {})
	if err == nil {
		t.Fatal("expected websocket dial to be rejected")
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/events", strings.NewReader(`{"events":[]}`))
	req.Header.Set("Authorization", "Bearer wrong-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMalformedEventsRejected(t *testing.T) {
	srv, h := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/events",
		strings.NewReader(`{"events":[{"type":"EXPLODE_LIST"}]}`))
	req.Header.Set("Authorization", "Bearer "+testToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if len(h.Items()) != 0 {
		t.Error("rejected payload must not touch the store")
	}
}

func TestSnapshotFlowsToOtherClient(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	pusherSink := &snapshotSink{}
	pusher := NewConn(srv.URL, testToken)
	if err := pusher.Connect(ctx, pusherSink.record); err != nil {
		t.Fatalf("pusher connect failed: %v", err)
	}
	defer pusher.Disconnect()

	watcherSink := &snapshotSink{}
	watcher := NewConn(srv.URL, testToken)
	if err := watcher.Connect(ctx, watcherSink.record); err != nil {
		t.Fatalf("watcher connect failed: %v", err)
	}
	defer watcher.Disconnect()

	// Both get the initial (empty) snapshot on connect.
	pusherSink.waitFor(t, func(s [][]list.Item) bool { return len(s) >= 1 })
	watcherSink.waitFor(t, func(s [][]list.Item) bool { return len(s) >= 1 })

	if err := pusher.PushEvents(ctx, []list.Event{list.AddItem{ID: "a", Name: "Ost"}}); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	watcherSink.waitFor(t, func(s [][]list.Item) bool {
		last := s[len(s)-1]
		return len(last) == 1 && last[0].Name == "Ost"
	})

	// The pusher must not see its own batch echoed back.
	time.Sleep(100 * time.Millisecond)
	pusherSink.mu.Lock()
	defer pusherSink.mu.Unlock()
	for _, snap := range pusherSink.snapshots[1:] {
		for _, item := range snap {
			if item.ID == "a" {
				t.Fatal("pusher received an echo of its own push")
			}
		}
	}
}

func TestListEndpointReturnsSnapshot(t *testing.T) {
	srv, h := newTestServer(t)
	h.PushEvents(context.Background(), []list.Event{list.AddItem{ID: "a", Name: "Ost"}}, "")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/list", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
