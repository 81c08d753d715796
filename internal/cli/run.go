package cli

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"time"

	"TradeSentinel/internal/collector"
	"TradeSentinel/internal/command"
	"TradeSentinel/internal/config"
	"TradeSentinel/internal/console"
	"TradeSentinel/internal/markethours"
	"TradeSentinel/internal/notifier"
	"TradeSentinel/internal/recorder"
	"TradeSentinel/internal/registry"
	"TradeSentinel/internal/scheduler"
	"TradeSentinel/internal/strategy"
)

// chatReplyTimeout bounds how long a Telegram command waits for the loop.
const chatReplyTimeout = 30 * time.Second

// runTracker wires every component and blocks until the scheduler loop stops.
func runTracker(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	log.Println("[INFO] TradeSentinel starting...")

	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	log.Printf("[INFO] data source: %s", src.Name())

	rec, err := newRecorder(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rec.Close(); err != nil {
			log.Printf("[ERROR] close trade log: %v", err)
		}
	}()

	reg := newRegistry(cfg)
	for _, s := range cfg.Symbols {
		if e, added := reg.Add(s); added {
			log.Printf("[INFO] tracking %s", e.Symbol)
		}
	}

	var n notifier.Notifier = notifier.NoopNotifier{}
	tn := newTelegram(cfg)
	if tn != nil {
		n = tn
	}

	sched, err := newScheduler(cfg, src, reg, rec, n)
	if err != nil {
		return err
	}

	spec, err := pollSchedule(cfg)
	if err != nil {
		return err
	}
	ticker, err := scheduler.NewCronTicker(spec)
	if err != nil {
		return err
	}
	ticker.Start()
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cmds := make(chan command.Command, cfg.CommandBuffer)

	if tn != nil && cfg.Telegram.Commands {
		go tn.StartPolling(ctx, chatHandler(cmds))
		log.Println("[INFO] Telegram polling started")
	}

	// The console read cannot be interrupted, so Run does not wait for it.
	go func() {
		if err := console.New(in, out).Run(ctx, cmds); err != nil && ctx.Err() == nil {
			log.Printf("[ERROR] console: %v", err)
		}
	}()

	log.Println("[INFO] TradeSentinel is running. Type exit or press Ctrl+C to stop.")
	err = sched.Run(ctx, cmds, ticker.Ticks())
	log.Println("[INFO] TradeSentinel stopped")
	return err
}

// runOnce polls symbol a single time against a fresh portfolio.
func runOnce(ctx context.Context, cfg *config.Config, symbol string, out io.Writer) error {
	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	rec, err := newRecorder(cfg)
	if err != nil {
		return err
	}
	defer rec.Close()

	reg := newRegistry(cfg)
	e, _ := reg.Add(symbol)
	if e == nil {
		return fmt.Errorf("invalid symbol %q", symbol)
	}
	sched, err := newScheduler(cfg, src, reg, rec, nil)
	if err != nil {
		return err
	}
	sched.MarketOpen = nil // once always polls

	report := sched.PollOnce(ctx, time.Now())
	res := report.Results[0]
	switch res.Outcome {
	case scheduler.Applied:
		fmt.Fprintf(out, "%s %s price=%s cash=%s units=%.6f balance=%s\n", res.Symbol, res.Decision,
			recorder.Money(res.Price), recorder.Money(e.Portfolio.Cash()), e.Portfolio.Units(), recorder.Money(res.Balance))
		return nil
	case scheduler.NoDecision:
		fmt.Fprintf(out, "%s: not enough history for a %d/%d crossover\n", res.Symbol, cfg.Strategy.ShortWindow, cfg.Strategy.LongWindow)
		return nil
	default:
		if res.Err == nil {
			return fmt.Errorf("%s: %s", res.Symbol, res.Outcome)
		}
		return fmt.Errorf("%s: %s: %w", res.Symbol, res.Outcome, res.Err)
	}
}

// runTrades prints the newest recorded trades for symbol from the SQL trade log.
func runTrades(ctx context.Context, cfg *config.Config, symbol string, limit int, out io.Writer) error {
	if limit < 1 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}
	var (
		db  *recorder.SQLRecorder
		err error
	)
	switch {
	case cfg.TradeLog.PostgresDSN != "":
		db, err = recorder.NewSQLRecorder(recorder.DriverPostgres, cfg.TradeLog.PostgresDSN)
	case cfg.TradeLog.SQLitePath != "":
		db, err = recorder.NewSQLiteRecorder(cfg.TradeLog.SQLitePath)
	default:
		return errors.New("trades needs trade_log.sqlite_path or trade_log.postgres_dsn")
	}
	if err != nil {
		return fmt.Errorf("open trade log: %w", err)
	}
	defer db.Close()

	symbol = registry.Normalize(symbol)
	recs, err := db.Recent(ctx, symbol, limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintf(out, "no trades recorded for %s\n", symbol)
		return nil
	}
	for _, rec := range recs {
		fmt.Fprintln(out, rec.Line())
	}
	return nil
}

// pollSchedule is schedule.poll_cron when set, otherwise an @every
// descriptor for schedule.poll_interval.
func pollSchedule(cfg *config.Config) (string, error) {
	if cfg.Schedule.PollCron != "" {
		return cfg.Schedule.PollCron, nil
	}
	d, err := cfg.PollInterval()
	if err != nil {
		return "", err
	}
	return scheduler.EverySpec(d), nil
}

func newSource(cfg *config.Config) (collector.Source, error) {
	timeout, err := cfg.FetchTimeout()
	if err != nil {
		return nil, err
	}
	switch cfg.DataSource.Provider {
	case config.ProviderFinnhub:
		lookback, err := cfg.Lookback()
		if err != nil {
			return nil, err
		}
		from, to := cfg.Window()
		return collector.NewFinnhubSource(collector.FinnhubOptions{
			BaseURL:    cfg.DataSource.BaseURL,
			APIKey:     cfg.DataSource.APIKey,
			Proxy:      cfg.Proxy,
			Resolution: cfg.DataSource.Resolution,
			Lookback:   lookback,
			From:       from,
			To:         to,
			Timeout:    timeout,
			Retries:    cfg.DataSource.Retries,
		}), nil
	case config.ProviderYahoo:
		return collector.NewYahooSource(collector.YahooOptions{
			BaseURL:  cfg.DataSource.BaseURL,
			Proxy:    cfg.Proxy,
			Interval: cfg.DataSource.Interval,
			Range:    cfg.DataSource.Range,
			Timeout:  timeout,
			Retries:  cfg.DataSource.Retries,
		}), nil
	case config.ProviderMock:
		return collector.NewMockSource(100, 2*cfg.Strategy.LongWindow), nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", cfg.DataSource.Provider)
	}
}

// newRecorder opens every configured trade log behind one Recorder. Any
// sink that cannot be opened is a startup error.
func newRecorder(cfg *config.Config) (recorder.Recorder, error) {
	var sinks []recorder.Recorder
	closeAll := func() {
		for _, s := range sinks {
			s.Close()
		}
	}

	if cfg.TradeLog.File != "" {
		fr, err := recorder.NewFileRecorder(cfg.TradeLog.File)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fr)
	}
	if cfg.TradeLog.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.TradeLog.SQLitePath)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("open sqlite trade log: %w", err)
		}
		sinks = append(sinks, sr)
	}
	if cfg.TradeLog.PostgresDSN != "" {
		pr, err := recorder.NewSQLRecorder(recorder.DriverPostgres, cfg.TradeLog.PostgresDSN)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("open postgres trade log: %w", err)
		}
		sinks = append(sinks, pr)
	}

	switch len(sinks) {
	case 0:
		return recorder.NewNoopRecorder(), nil
	case 1:
		return sinks[0], nil
	default:
		return recorder.NewMultiRecorder(sinks...), nil
	}
}

func newRegistry(cfg *config.Config) *registry.Registry {
	short, long := cfg.Strategy.ShortWindow, cfg.Strategy.LongWindow
	return registry.New(cfg.Portfolio.StartingCash, func(string) strategy.Strategy {
		return strategy.NewMovingAverage(short, long)
	})
}

func newScheduler(cfg *config.Config, src collector.Source, reg *registry.Registry, rec recorder.Recorder, n notifier.Notifier) (*scheduler.Scheduler, error) {
	timeout, err := cfg.FetchTimeout()
	if err != nil {
		return nil, err
	}
	sched := scheduler.NewScheduler(src, reg, rec, n)
	sched.Workers = cfg.DataSource.Workers
	sched.FetchTimeout = timeout
	if cfg.Schedule.MarketHours {
		sched.MarketOpen = markethours.NewGate().IsOpen
	}
	return sched, nil
}

func newTelegram(cfg *config.Config) *notifier.TelegramNotifier {
	if cfg.Telegram.BotToken == "" {
		return nil
	}
	return notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
}

// chatHandler feeds chat messages into the command channel. Exit is refused
// so a chat cannot stop the process.
func chatHandler(cmds chan<- command.Command) notifier.CommandHandler {
	return func(ctx context.Context, text string) string {
		cmd, err := command.Parse(text)
		switch {
		case errors.Is(err, command.ErrBlank):
			return ""
		case err != nil:
			return html.EscapeString(console.Notice(text, err) + "\n" + command.Usage)
		case cmd.Kind == command.Exit:
			return "exit is only accepted from the console"
		}

		select {
		case cmds <- cmd:
		case <-ctx.Done():
			return ""
		}
		select {
		case reply := <-cmd.Reply:
			return html.EscapeString(reply)
		case <-ctx.Done():
			return ""
		case <-time.After(chatReplyTimeout):
			return "no reply from tracker"
		}
	}
}
