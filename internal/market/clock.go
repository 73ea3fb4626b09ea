// Package market provides trading-session awareness and data-freshness
// guards for the signal engine.
package market

import "time"

// Clock abstracts wall-clock time so evaluators and the tracker can be
// driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.T }

var _ Clock = SystemClock{}
var _ Clock = FixedClock{}

// Session labels a slice of the US equity trading day.
type Session string

const (
	// SessionPreMarket is before the 9:30 ET open.
	SessionPreMarket Session = "PRE_MARKET"
	// SessionOpeningRush is 9:30-11:00 ET.
	SessionOpeningRush Session = "OPENING_RUSH"
	// SessionMiddayChop is 11:00-14:00 ET.
	SessionMiddayChop Session = "MIDDAY_CHOP"
	// SessionPowerHour is 14:00-15:00 ET.
	SessionPowerHour Session = "POWER_HOUR"
	// SessionCloseGamma is 15:00-16:00 ET.
	SessionCloseGamma Session = "CLOSE_GAMMA"
	// SessionAfterHours is after the 16:00 ET close, and weekends.
	SessionAfterHours Session = "AFTER_HOURS"
)

// Calendar classifies instants into trading sessions.
type Calendar struct {
	loc *time.Location
}

// NewCalendar builds a Calendar in the US eastern zone. If the tz database
// is unavailable a fixed EST offset is used instead.
func NewCalendar() *Calendar {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("ET", -5*60*60)
	}
	return &Calendar{loc: loc}
}

// SessionAt returns the trading session containing t.
func (c *Calendar) SessionAt(t time.Time) Session {
	et := t.In(c.loc)
	if et.Weekday() == time.Saturday || et.Weekday() == time.Sunday {
		return SessionAfterHours
	}
	minutes := et.Hour()*60 + et.Minute()
	switch {
	case minutes < 9*60+30:
		return SessionPreMarket
	case minutes < 11*60:
		return SessionOpeningRush
	case minutes < 14*60:
		return SessionMiddayChop
	case minutes < 15*60:
		return SessionPowerHour
	case minutes < 16*60:
		return SessionCloseGamma
	default:
		return SessionAfterHours
	}
}

// IsMarketOpen reports whether t falls in regular trading hours.
func (c *Calendar) IsMarketOpen(t time.Time) bool {
	switch c.SessionAt(t) {
	case SessionPreMarket, SessionAfterHours:
		return false
	default:
		return true
	}
}

// IsScalpWindow reports whether t is in one of the two intraday windows
// scalp entries are restricted to: the opening rush and the final hour.
func (c *Calendar) IsScalpWindow(t time.Time) bool {
	s := c.SessionAt(t)
	return s == SessionOpeningRush || s == SessionCloseGamma
}
