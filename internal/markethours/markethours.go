// Package markethours decides whether a symbol's exchange is open.
package markethours

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/scmhub/calendar"
)

// DefaultMIC is used for symbols without a known exchange suffix.
const DefaultMIC = "xnys"

// Suffix to ISO 10383 MIC, see scmhub/calendar for supported codes.
var suffixMIC = []struct {
	suffix string
	mic    string
}{
	{".L", "xlon"},
	{".PA", "xpar"},
	{".DE", "xfra"},
	{".AS", "xams"},
	{".BR", "xbru"},
	{".MI", "xmil"},
	{".MC", "xmad"},
	{".ST", "xsto"},
	{".CO", "xcse"},
	{".HE", "xhel"},
	{".VI", "xwbo"},
	{".SW", "xswx"},
	{".TO", "xtse"},
	{".V", "xtsx"},
	{".T", "xtks"},
	{".HK", "xhkg"},
	{".AX", "xasx"},
	{".KS", "xkrx"},
	{".TW", "xtai"},
	{".SS", "xshg"},
	{".SZ", "xshe"},
}

// MIC maps a ticker to its exchange code by suffix.
func MIC(symbol string) string {
	symbol = strings.ToUpper(symbol)
	for _, m := range suffixMIC {
		if strings.HasSuffix(symbol, m.suffix) {
			return m.mic
		}
	}
	return DefaultMIC
}

// exchange is a loaded calendar, or the Mon-Fri 09:30-16:00 New York
// fallback when none could be loaded.
type exchange struct {
	cal *calendar.Calendar
	loc *time.Location
}

func (e exchange) open(t time.Time) bool {
	t = t.In(e.loc)
	if e.cal != nil {
		return e.cal.IsBusinessDay(t) && e.cal.IsOpen(t)
	}
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}

// Gate caches one calendar per exchange. Safe for concurrent use.
type Gate struct {
	mu        sync.Mutex
	exchanges map[string]exchange
}

func NewGate() *Gate {
	return &Gate{exchanges: make(map[string]exchange)}
}

// IsOpen reports whether symbol's exchange is in session at t.
func (g *Gate) IsOpen(symbol string, t time.Time) bool {
	return g.exchange(MIC(symbol)).open(t)
}

func (g *Gate) exchange(mic string) exchange {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ex, ok := g.exchanges[mic]; ok {
		return ex
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar(DefaultMIC)
	}
	var ex exchange
	if cal != nil {
		ex = exchange{cal: cal, loc: cal.Loc}
	} else {
		log.Printf("[WARN] no calendar for %s, using Mon-Fri 09:30-16:00 New York", mic)
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.UTC
		}
		ex = exchange{loc: loc}
	}
	if ex.loc == nil {
		ex.loc = time.UTC
	}
	g.exchanges[mic] = ex
	return ex
}
