package worker

import (
	"sync"
	"testing"
	"time"

	"github.com/oomph-ac/reckon/validator"
)

func TestSubmitSurvivesPanics(t *testing.T) {
	for i := 0; i < 64; i++ {
		Submit(func() { panic("boom") })
	}

	done := make(chan struct{})
	Submit(func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected workers to keep running after panics")
	}
}

type chanRecorder chan validator.Record

func (c chanRecorder) Record(rec validator.Record) error {
	c <- rec
	return nil
}

func TestRecorderForwards(t *testing.T) {
	out := make(chanRecorder, 8)
	r := NewRecorder(out, nil)

	var wg sync.WaitGroup
	for _, name := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Record(validator.Record{Player: name}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for len(seen) < 3 {
		select {
		case rec := <-out:
			seen[rec.Player] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("expected every record to be forwarded, got %v", seen)
		}
	}
}
