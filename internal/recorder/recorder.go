package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"TradeSentinel/internal/model"
)

// TradeRecord is one executed decision and the portfolio after it.
type TradeRecord struct {
	ID       string
	Time     time.Time
	Symbol   string
	Decision model.Decision
	Price    float64
	Cash     float64
	Units    float64
	Balance  float64
}

// NewTradeRecord stamps a record with a fresh ID.
func NewTradeRecord(at time.Time, symbol string, decision model.Decision, price, cash, units, balance float64) TradeRecord {
	return TradeRecord{
		ID:       uuid.New().String(),
		Time:     at,
		Symbol:   symbol,
		Decision: decision,
		Price:    price,
		Cash:     cash,
		Units:    units,
		Balance:  balance,
	}
}

// Line renders the record as one append-only text line.
func (r TradeRecord) Line() string {
	return fmt.Sprintf("%s id=%s symbol=%s decision=%s price=%s cash=%s units=%s balance=%s",
		r.Time.UTC().Format(time.RFC3339), r.ID, r.Symbol, r.Decision,
		Money(r.Price), Money(r.Cash), decimal.NewFromFloat(r.Units).StringFixed(6), Money(r.Balance))
}

// Money formats an amount with two decimals.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Recorder is an append-only sink for executed decisions.
type Recorder interface {
	Record(ctx context.Context, rec TradeRecord) error
	Close() error
}
