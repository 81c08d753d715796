package notifier

import (
	"fmt"
	"strings"

	"TradeSentinel/internal/model"
	"TradeSentinel/internal/recorder"
	"TradeSentinel/internal/registry"
)

var decisionIcon = map[model.Decision]string{
	model.Buy:  "🟢",
	model.Sell: "🔴",
	model.Hold: "⚪",
}

// FormatTrade formats an executed decision into a Telegram message.
func FormatTrade(rec recorder.TradeRecord) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> | %s\n\n", decisionIcon[rec.Decision], rec.Decision, rec.Symbol, rec.Time.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Price: %s\n", recorder.Money(rec.Price)))
	b.WriteString(fmt.Sprintf("Cash: %s | Units: %.4f\n", recorder.Money(rec.Cash), rec.Units))
	b.WriteString(fmt.Sprintf("Balance: %s", recorder.Money(rec.Balance)))
	return b.String()
}

// FormatList lists tracked symbols in insertion order.
func FormatList(symbols []string) string {
	if len(symbols) == 0 {
		return "no symbols tracked"
	}
	return fmt.Sprintf("tracking %d: %s", len(symbols), strings.Join(symbols, ", "))
}

// FormatStatus renders one line per tracked entry.
func FormatStatus(entries []*registry.Entry) string {
	if len(entries) == 0 {
		return "no symbols tracked"
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		last := "never"
		if !e.LastPolled.IsZero() {
			last = fmt.Sprintf("%s @ %s (%s)", e.LastDecision, recorder.Money(e.LastPrice), e.LastPolled.Format("15:04:05"))
		}
		b.WriteString(fmt.Sprintf("%-6s cash=%s units=%.4f balance=%s last=%s",
			e.Symbol, recorder.Money(e.Portfolio.Cash()), e.Portfolio.Units(), recorder.Money(e.Balance()), last))
	}
	return b.String()
}
