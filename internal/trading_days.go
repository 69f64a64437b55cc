package internal

import (
	"time"

	"github.com/scmhub/calendar"
)

// holiday buffer added to lookbacks, same padding the dashboard used when
// sizing its fetch window
const lookbackBufferDays = 10

// TradingCalendar answers trading-day questions for the US equity session,
// which is what every tracked DAT company trades on. Crypto benchmarks trade
// continuously so the equity calendar is the binding one.
type TradingCalendar struct {
	cal *calendar.Calendar
}

func NewTradingCalendar() *TradingCalendar {
	return &TradingCalendar{
		cal: calendar.GetCalendar("xnys"),
	}
}

func (tc *TradingCalendar) IsTradingDay(t time.Time) bool {
	if tc.cal == nil {
		// mon-fri fallback if the calendar failed to load
		weekday := t.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.cal.IsBusinessDay(t)
}

// SnapToTradingDay returns t, or the nearest trading day before it, looking
// back at most two weeks.
func (tc *TradingCalendar) SnapToTradingDay(t time.Time) time.Time {
	out := t
	for i := 0; i < 14; i++ {
		if tc.IsTradingDay(out) {
			return out
		}
		out = out.AddDate(0, 0, -1)
	}
	return t
}

// LookbackStart walks back far enough from base to cover `tradingDays`
// trading days plus a holiday buffer. Used to size the fetch window so the
// correlation window has enough history before the ytd base date.
func (tc *TradingCalendar) LookbackStart(base time.Time, tradingDays int) time.Time {
	out := base
	remaining := tradingDays
	for remaining > 0 {
		out = out.AddDate(0, 0, -1)
		if tc.IsTradingDay(out) {
			remaining--
		}
	}
	return out.AddDate(0, 0, -lookbackBufferDays)
}
