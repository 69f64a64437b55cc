package internal

import (
	"datdash/internal/util"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_TradingCalendar(t *testing.T) {
	cal := NewTradingCalendar()

	t.Run("weekends are not trading days", func(t *testing.T) {
		require.False(t, cal.IsTradingDay(util.NewDate(2026, 1, 3))) // saturday
		require.False(t, cal.IsTradingDay(util.NewDate(2026, 1, 4))) // sunday
		require.True(t, cal.IsTradingDay(util.NewDate(2026, 1, 5)))  // monday
	})

	t.Run("snaps a weekend back to friday", func(t *testing.T) {
		require.Equal(t, util.NewDate(2026, 1, 2), cal.SnapToTradingDay(util.NewDate(2026, 1, 3)))
		require.Equal(t, util.NewDate(2026, 1, 2), cal.SnapToTradingDay(util.NewDate(2026, 1, 4)))
	})

	t.Run("a trading day snaps to itself", func(t *testing.T) {
		require.Equal(t, util.NewDate(2026, 1, 5), cal.SnapToTradingDay(util.NewDate(2026, 1, 5)))
	})

	t.Run("lookback start covers the window plus buffer", func(t *testing.T) {
		base := util.NewDate(2026, 2, 2)
		out := cal.LookbackStart(base, 20)

		require.True(t, out.Before(base))
		// 20 trading days is at least 4 calendar weeks, plus the buffer
		require.True(t, out.Before(base.AddDate(0, 0, -28)))

		tradingDays := 0
		for d := out; d.Before(base); d = d.AddDate(0, 0, 1) {
			if cal.IsTradingDay(d) {
				tradingDays++
			}
		}
		require.GreaterOrEqual(t, tradingDays, 20)
	})
}
