package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream 503")

func TestCircuitBreaker_OpensAfterConsecutiveFailuresAndRecovers(t *testing.T) {
	b := NewCircuitBreaker("qstash", CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      50 * time.Millisecond,
		HalfOpenMaxReq:   1,
	}, nil, nil)

	fail := func() error { return errUpstream }
	if err := b.Execute(fail); !errors.Is(err, errUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}
	_ = b.Execute(fail)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Fatalf("open breaker must not invoke the call")
	}

	time.Sleep(80 * time.Millisecond)
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful probe, got %s", state)
	}
}

func TestCircuitBreaker_IgnoresNonDependencyFailures(t *testing.T) {
	errBadRequest := errors.New("400 bad request")
	b := NewCircuitBreaker("qstash", CircuitBreakerConfig{Enabled: true, FailureThreshold: 1}, func(err error) bool {
		return errors.Is(err, errUpstream)
	}, nil)

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return errBadRequest }); !errors.Is(err, errBadRequest) {
			t.Fatalf("expected caller error, got %v", err)
		}
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed breaker, got %s", state)
	}
}

func TestCircuitBreaker_DisabledPassesThrough(t *testing.T) {
	b := NewCircuitBreaker("off", CircuitBreakerConfig{Enabled: false, FailureThreshold: 1}, nil, nil)
	for i := 0; i < 5; i++ {
		_ = b.Execute(func() error { return errUpstream })
	}
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("disabled breaker should pass through, got %v", err)
	}
}

func TestSingleFlight_Do(t *testing.T) {
	var g SingleFlight
	var counter int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err, _ := g.Do("score-match:m-1", func() (any, error) {
				atomic.AddInt32(&counter, 1)
				time.Sleep(20 * time.Millisecond)
				return "ok", nil
			})
			if err != nil {
				t.Errorf("singleflight call failed: %v", err)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&counter); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	var m KeyedMutex
	var inFlight, maxInFlight int32

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("group-1")
			defer unlock()
			now := atomic.AddInt32(&inFlight, 1)
			for {
				prev := atomic.LoadInt32(&maxInFlight)
				if now <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, now) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}()
	}
	wg.Wait()

	if maxInFlight != 1 {
		t.Fatalf("expected at most one holder per key, got %d", maxInFlight)
	}
	if len(m.locks) != 0 {
		t.Fatalf("expected lock table to be drained, got %d entries", len(m.locks))
	}
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	var m KeyedMutex
	unlockA := m.Lock("group-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := m.Lock("group-b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock on a different key should not block")
	}
}
