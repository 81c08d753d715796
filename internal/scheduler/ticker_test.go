package scheduler

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"
)

func TestEverySpec(t *testing.T) {
	if got := EverySpec(5 * time.Second); got != "@every 5s" {
		t.Errorf("EverySpec = %q", got)
	}
}

func TestNewCronTickerRejectsBadSpec(t *testing.T) {
	if _, err := NewCronTicker("not a schedule"); err == nil {
		t.Error("expected error for invalid spec")
	}
}

func TestCronTickerCoalesces(t *testing.T) {
	tk, err := NewCronTicker("0 0 9 * * 1-5")
	if err != nil {
		t.Fatalf("NewCronTicker: %v", err)
	}
	first := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
	var logs bytes.Buffer
	tk.Logger = log.New(&logs, "", 0)
	if !tk.offer(first) {
		t.Fatal("first tick should be queued")
	}
	if tk.offer(first.Add(time.Second)) {
		t.Error("second tick should be dropped while one is pending")
	}
	if !strings.Contains(logs.String(), "[WARN] poll cycle still running, dropping tick at 09:00:01") {
		t.Errorf("missing dropped tick warning in %q", logs.String())
	}
	if got := <-tk.Ticks(); !got.Equal(first) {
		t.Errorf("got tick %v, want %v", got, first)
	}
	if !tk.offer(first.Add(2 * time.Second)) {
		t.Error("tick should be queued after the pending one was consumed")
	}
}

func TestCronTickerFires(t *testing.T) {
	tk, err := NewCronTicker(EverySpec(time.Second))
	if err != nil {
		t.Fatalf("NewCronTicker: %v", err)
	}
	tk.Start()
	defer tk.Stop()
	select {
	case <-tk.Ticks():
	case <-time.After(3 * time.Second):
		t.Fatal("no tick within 3s")
	}
}
