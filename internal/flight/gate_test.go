package flight

import (
	"sync"
	"testing"
)

func TestDoRunsSynchronouslyWhenIdle(t *testing.T) {
	var g Gate
	ran := false
	g.Do(func() { ran = true })
	if !ran {
		t.Fatal("fn did not run")
	}
}

func TestOverlappingTriggersCoalesce(t *testing.T) {
	var g Gate
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	runs := 0

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		g.Do(func() {
			mu.Lock()
			runs++
			first := runs == 1
			mu.Unlock()
			if first {
				close(started)
				<-release
			}
		})
	}()

	<-started
	// Many triggers while the first run is blocked: exactly one follow-up.
	for i := 0; i < 10; i++ {
		g.Do(func() {
			mu.Lock()
			runs++
			mu.Unlock()
		})
	}
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if runs != 2 {
		t.Errorf("expected 1 run + 1 coalesced follow-up, got %d runs", runs)
	}
}

func TestGateIsReusableAfterDrain(t *testing.T) {
	var g Gate
	runs := 0
	g.Do(func() { runs++ })
	g.Do(func() { runs++ })
	if runs != 2 {
		t.Errorf("expected 2 sequential runs, got %d", runs)
	}
}
