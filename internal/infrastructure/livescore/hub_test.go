package livescore

import (
	"context"
	"testing"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/livescore"
	"github.com/frozenbet/scoring-engine/internal/platform/logging"
)

func scoreEvent(matchID string, home, away int) livescore.Event {
	return livescore.Event{
		Type: livescore.EventScoreUpdate,
		Update: livescore.ScoreUpdate{
			MatchID:   matchID,
			HomeScore: home,
			AwayScore: away,
			Status:    "ongoing",
			Timestamp: time.Date(2026, 6, 11, 19, 30, 0, 0, time.UTC),
		},
	}
}

func TestHub_FiltersByMatch(t *testing.T) {
	hub := NewHub(logging.NewNop())
	all, closeAll := hub.Subscribe(nil)
	defer closeAll()
	one, closeOne := hub.Subscribe([]string{" wc-m-002 ", ""})
	defer closeOne()

	_ = hub.Publish(context.Background(), scoreEvent("wc-m-001", 1, 0))
	_ = hub.Publish(context.Background(), scoreEvent("wc-m-002", 0, 2))

	if got := len(all.Events()); got != 2 {
		t.Fatalf("unfiltered subscriber expected 2 events, got %d", got)
	}
	if got := len(one.Events()); got != 1 {
		t.Fatalf("filtered subscriber expected 1 event, got %d", got)
	}
	if ev := <-one.Events(); ev.Update.MatchID != "wc-m-002" || ev.Update.AwayScore != 2 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(logging.NewNop())
	_, unsubscribe := hub.Subscribe(nil)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultSubscriberBuffer+5; i++ {
			_ = hub.Publish(context.Background(), scoreEvent("wc-m-001", i, 0))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a full subscriber")
	}
	if hub.Dropped() != 5 {
		t.Fatalf("expected 5 dropped events, got %d", hub.Dropped())
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(nil)
	sub, unsubscribe := hub.Subscribe([]string{"wc-m-001"})
	unsubscribe()
	unsubscribe()

	if _, ok := <-sub.Events(); ok {
		t.Fatalf("expected closed channel")
	}
	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.SubscriberCount())
	}
	if err := hub.Publish(context.Background(), scoreEvent("wc-m-001", 1, 1)); err != nil {
		t.Fatalf("publish after unsubscribe: %v", err)
	}
}

func TestEventCodec(t *testing.T) {
	in := scoreEvent("wc-m-003", 2, 2)
	in.Type = livescore.EventMatchFinished
	raw, err := encodeEvent(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := decodeEvent(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Type != livescore.EventMatchFinished || out.Update.MatchID != "wc-m-003" || out.Update.HomeScore != 2 || !out.Update.Timestamp.Equal(in.Update.Timestamp) {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	for _, payload := range []string{"not-json", `{"type":"score_update","update":{}}`} {
		if _, err := decodeEvent(payload); err == nil {
			t.Fatalf("expected decode error for %q", payload)
		}
	}
}
