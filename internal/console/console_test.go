package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"TradeSentinel/internal/command"
)

// serve answers every command with its own string form.
func serve(cmds <-chan command.Command, seen *[]command.Command) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for cmd := range cmds {
			*seen = append(*seen, cmd)
			cmd.Respond("ok " + cmd.String())
		}
	}()
	return done
}

func TestRunEOFSendsExit(t *testing.T) {
	in := strings.NewReader("add aapl\n\n  \nfoo bar\nlist extra\nlist\n")
	var out bytes.Buffer
	c := New(in, &out)

	cmds := make(chan command.Command)
	var seen []command.Command
	done := serve(cmds, &seen)

	if err := c.Run(context.Background(), cmds); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(cmds)
	<-done

	want := []string{"add AAPL", "list", "exit"}
	if len(seen) != len(want) {
		t.Fatalf("got %d commands %v, want %v", len(seen), seen, want)
	}
	for i, w := range want {
		if seen[i].String() != w {
			t.Errorf("command %d = %q, want %q", i, seen[i], w)
		}
	}

	text := out.String()
	for _, s := range []string{"ok add AAPL", "ok list", "unknown command: foo bar", "invalid arguments: list takes no arguments", command.Usage} {
		if !strings.Contains(text, s) {
			t.Errorf("output missing %q:\n%s", s, text)
		}
	}
}

func TestRunStopsAfterExit(t *testing.T) {
	in := strings.NewReader("exit\nadd MSFT\n")
	cmds := make(chan command.Command, 4)
	if err := New(in, &bytes.Buffer{}).Run(context.Background(), cmds); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(cmds)
	var got []command.Kind
	for cmd := range cmds {
		got = append(got, cmd.Kind)
	}
	if len(got) != 1 || got[0] != command.Exit {
		t.Errorf("expected a single exit, got %v", got)
	}
}

func TestRunCancelledWhileSending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(strings.NewReader("list\n"), &bytes.Buffer{}).Run(ctx, make(chan command.Command))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunReplyTimeout(t *testing.T) {
	c := New(strings.NewReader("status\n"), &bytes.Buffer{})
	c.ReplyTimeout = 10 * time.Millisecond
	cmds := make(chan command.Command, 4)
	if err := c.Run(context.Background(), cmds); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cmds) != 2 {
		t.Errorf("expected status and exit queued, got %d", len(cmds))
	}
}
