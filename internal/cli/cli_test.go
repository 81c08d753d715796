package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"TradeSentinel/internal/command"
	"TradeSentinel/internal/config"
	"TradeSentinel/internal/model"
	"TradeSentinel/internal/recorder"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_PATH", "API_KEY", "FINNHUB_API_KEY", "DATA_BASE_URL", "DATA_PROVIDER", "STARTING_CASH",
		"POLL_INTERVAL", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "HTTPS_PROXY",
		"TRADE_LOG_FILE", "SQLITE_PATH", "POSTGRES_DSN",
	} {
		t.Setenv(k, "")
	}
}

func mockConfig(t *testing.T) *config.Config {
	t.Helper()
	clearEnv(t)
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.DataSource.Provider = config.ProviderMock
	cfg.Schedule.PollInterval = "1h"
	cfg.TradeLog.File = filepath.Join(t.TempDir(), "trades.log")
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestNewSource(t *testing.T) {
	cfg := mockConfig(t)
	tests := map[string]string{
		config.ProviderFinnhub: "finnhub",
		config.ProviderYahoo:   "yahoo",
		config.ProviderMock:    "mock",
	}
	for provider, want := range tests {
		cfg.DataSource.Provider = provider
		src, err := newSource(cfg)
		if err != nil {
			t.Fatalf("%s: %v", provider, err)
		}
		if src.Name() != want {
			t.Errorf("%s: got source %s", provider, src.Name())
		}
	}
	cfg.DataSource.Provider = "ftp"
	if _, err := newSource(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewRecorderCombinesSinks(t *testing.T) {
	cfg := mockConfig(t)
	cfg.TradeLog.SQLitePath = filepath.Join(t.TempDir(), "trades.db")
	rec, err := newRecorder(cfg)
	if err != nil {
		t.Fatalf("newRecorder: %v", err)
	}
	defer rec.Close()
	if _, ok := rec.(*recorder.MultiRecorder); !ok {
		t.Errorf("expected multi recorder, got %T", rec)
	}

	cfg.TradeLog.File = ""
	cfg.TradeLog.SQLitePath = ""
	noop, err := newRecorder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := noop.(*recorder.NoopRecorder); !ok {
		t.Errorf("expected noop recorder, got %T", noop)
	}
}

func TestRunOnce(t *testing.T) {
	cfg := mockConfig(t)
	var out bytes.Buffer
	if err := runOnce(context.Background(), cfg, "aapl", &out); err != nil {
		t.Fatalf("runOnce: %v", err)
	}
	if !strings.HasPrefix(out.String(), "AAPL ") || !strings.Contains(out.String(), "balance=") {
		t.Errorf("unexpected output %q", out.String())
	}
	data, err := os.ReadFile(cfg.TradeLog.File)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "symbol=AAPL") {
		t.Errorf("trade not logged: %q", data)
	}

	if err := runOnce(context.Background(), cfg, "  ", &out); err == nil {
		t.Error("expected error for blank symbol")
	}
}

func TestRunTracker(t *testing.T) {
	cfg := mockConfig(t)
	cfg.Symbols = []string{"msft"}
	in := strings.NewReader("add AAPL\nlist\nbogus\nexit\n")
	var out bytes.Buffer

	done := make(chan error, 1)
	go func() { done <- runTracker(context.Background(), cfg, in, &out) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runTracker: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("runTracker did not stop on exit")
	}

	text := out.String()
	for _, want := range []string{"tracking AAPL", "tracking 2: MSFT, AAPL", "unknown command: bogus"} {
		if !strings.Contains(text, want) {
			t.Errorf("console output missing %q:\n%s", want, text)
		}
	}
}

func TestPollSchedule(t *testing.T) {
	cfg := mockConfig(t)
	cfg.Schedule.PollInterval = "90s"
	if spec, err := pollSchedule(cfg); err != nil || spec != "@every 1m30s" {
		t.Errorf("pollSchedule = %q, %v", spec, err)
	}
	cfg.Schedule.PollCron = "0 */5 9-16 * * 1-5"
	if spec, _ := pollSchedule(cfg); spec != "0 */5 9-16 * * 1-5" {
		t.Errorf("poll cron should win, got %q", spec)
	}
	cfg.Schedule.PollCron = ""
	cfg.Schedule.PollInterval = "soon"
	if _, err := pollSchedule(cfg); err == nil {
		t.Error("expected interval parse error")
	}
}

func TestRunTrades(t *testing.T) {
	cfg := mockConfig(t)
	var out bytes.Buffer
	if err := runTrades(context.Background(), cfg, "AAPL", 5, &out); err == nil {
		t.Error("expected error without a SQL trade log")
	}

	cfg.TradeLog.SQLitePath = filepath.Join(t.TempDir(), "trades.db")
	db, err := recorder.NewSQLiteRecorder(cfg.TradeLog.SQLitePath)
	if err != nil {
		t.Fatal(err)
	}
	at := time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)
	for _, d := range []model.Decision{model.Buy, model.Hold, model.Sell} {
		if err := db.Record(context.Background(), recorder.NewTradeRecord(at, "AAPL", d, 150, 0, 10, 1500)); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	if err := runTrades(context.Background(), cfg, "aapl", 2, &out); err != nil {
		t.Fatalf("runTrades: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out.String())
	}
	if !strings.Contains(lines[0], "decision=SELL") || !strings.Contains(lines[1], "decision=HOLD") {
		t.Errorf("expected newest first, got %q", lines)
	}

	out.Reset()
	if err := runTrades(context.Background(), cfg, "MSFT", 2, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "no trades recorded for MSFT\n" {
		t.Errorf("unexpected output %q", out.String())
	}
	if err := runTrades(context.Background(), cfg, "AAPL", 0, &out); err == nil {
		t.Error("expected error for zero limit")
	}
}

func TestChatHandler(t *testing.T) {
	cmds := make(chan command.Command, 1)
	handle := chatHandler(cmds)
	ctx := context.Background()

	if got := handle(ctx, "   "); got != "" {
		t.Errorf("blank message should be ignored, got %q", got)
	}
	if got := handle(ctx, "/exit"); !strings.Contains(got, "only accepted from the console") {
		t.Errorf("exit should be refused, got %q", got)
	}
	if got := handle(ctx, "buy AAPL"); !strings.Contains(got, "unknown command: buy AAPL") || !strings.Contains(got, "&lt;SYMBOL&gt;") {
		t.Errorf("unexpected notice %q", got)
	}
	if len(cmds) != 0 {
		t.Fatal("rejected messages must not reach the loop")
	}

	go func() {
		cmd := <-cmds
		cmd.Respond("tracking " + cmd.Symbol)
	}()
	if got := handle(ctx, "/add tsla"); got != "tracking TSLA" {
		t.Errorf("unexpected reply %q", got)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	full := make(chan command.Command)
	if got := chatHandler(full)(cancelled, "list"); got != "" {
		t.Errorf("cancelled handler should return nothing, got %q", got)
	}
}

func TestRootCommand(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "data_source:\n  provider: mock\n  api_key: topsecret\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		args    []string
		want    string
		wantErr bool
	}{
		{[]string{"version"}, "TradeSentinel dev", false},
		{[]string{"config", "show", "--config", path}, "provider: mock", false},
		{[]string{"config", "validate", "--config", path, "--interval", "2s"}, "configuration ok", false},
		{[]string{"config", "validate", "--config", path, "--interval", "never"}, "", true},
		{[]string{"once"}, "", true},
		{[]string{"trades", "AAPL", "--config", path}, "", true},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			root := NewRootCmd()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&out)
			root.SetArgs(tt.args)
			err := root.Execute()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output %q missing %q", out.String(), tt.want)
			}
			if strings.Contains(out.String(), "topsecret") {
				t.Error("secret leaked")
			}
		})
	}
}
