package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"TradeSentinel/internal/model"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLRecorder persists trades to a SQLite or Postgres table.
type SQLRecorder struct {
	db     *sql.DB
	driver string
	mu     sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLRecorder, error) {
	return NewSQLRecorder(DriverSQLite, dbPath)
}

// NewSQLRecorder opens the database behind driver/dsn and runs migrations.
func NewSQLRecorder(driver, dsn string) (*SQLRecorder, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported trade log driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// WAL mode so readers can inspect the log while the tracker writes.
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	} else if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	r := &SQLRecorder{db: db, driver: driver}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] %s trade log opened", driver)
	return r, nil
}

func (r *SQLRecorder) migrate() error {
	id := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	num := "REAL"
	if r.driver == DriverPostgres {
		id = "id BIGSERIAL PRIMARY KEY"
		num = "DOUBLE PRECISION"
	}
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS trades (
			%s,
			trade_id   TEXT NOT NULL,
			timestamp  BIGINT NOT NULL,
			symbol     TEXT NOT NULL,
			decision   TEXT NOT NULL,
			price      %[2]s,
			cash       %[2]s,
			units      %[2]s,
			balance    %[2]s
		)`, id, num),
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol_ts ON trades(symbol, timestamp)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(s), err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (r *SQLRecorder) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *SQLRecorder) Record(ctx context.Context, rec TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, r.rebind(`INSERT INTO trades
		(trade_id, timestamp, symbol, decision, price, cash, units, balance)
		VALUES (?,?,?,?,?,?,?,?)`),
		rec.ID, rec.Time.Unix(), rec.Symbol, rec.Decision.String(),
		rec.Price, rec.Cash, rec.Units, rec.Balance,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// Recent returns up to limit trades for symbol, newest first.
func (r *SQLRecorder) Recent(ctx context.Context, symbol string, limit int) ([]TradeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, r.rebind(`SELECT trade_id, timestamp, symbol, decision, price, cash, units, balance
		FROM trades WHERE symbol = ? ORDER BY id DESC LIMIT ?`), symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var (
			rec      TradeRecord
			ts       int64
			decision string
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Symbol, &decision, &rec.Price, &rec.Cash, &rec.Units, &rec.Balance); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		rec.Time = time.Unix(ts, 0)
		rec.Decision, _ = model.ParseDecision(decision)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLRecorder) Close() error {
	log.Printf("[INFO] closing %s trade log", r.driver)
	return r.db.Close()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
