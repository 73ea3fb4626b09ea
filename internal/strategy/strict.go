package strategy

import (
	"fmt"
	"time"

	"github.com/tradefly/optionsignals/internal/models"
)

// Strict pre-trade contract checks for scalping entries. Each check returns
// whether the contract passes and the reason when it does not.

func checkVolumeQuality(c *models.OptionContract) (bool, string) {
	if c.Volume.Volume < 100 {
		return false, fmt.Sprintf("volume too low: %d", c.Volume.Volume)
	}
	if c.Volume.OpenInterest < 50 {
		return false, fmt.Sprintf("no real interest: OI=%d", c.Volume.OpenInterest)
	}
	oi := c.Volume.OpenInterest
	if oi < 1 {
		oi = 1
	}
	volumeToOI := float64(c.Volume.Volume) / float64(oi)
	if volumeToOI > 10 {
		return false, fmt.Sprintf("suspicious volume/OI ratio: %.1fx", volumeToOI)
	}
	return true, ""
}

func checkPriceAction(c *models.OptionContract, momentum1m float64) (bool, string) {
	if c.OptionType == models.OptionTypeCall {
		if momentum1m < 0.002 {
			return false, fmt.Sprintf("call with weak momentum %.2f%%", momentum1m*100)
		}
		return true, ""
	}
	if momentum1m > -0.002 {
		return false, fmt.Sprintf("put with weak momentum %.2f%%", momentum1m*100)
	}
	return true, ""
}

func checkTimeToExpiration(c *models.OptionContract, now time.Time) (bool, string) {
	dte := c.DaysToExpiration(now)
	if dte < 0 {
		// Unparseable expiration is tolerated here; the tracker refuses it
		// at entry.
		return true, ""
	}
	if dte < 1 {
		return false, fmt.Sprintf("expires too soon: %d days", dte)
	}
	if dte > 30 {
		return false, fmt.Sprintf("too far out for scalping: %d days", dte)
	}
	return true, ""
}

func checkImpliedVolatility(c *models.OptionContract) (bool, string) {
	iv := c.IV.IV
	if iv < 0.15 {
		return false, fmt.Sprintf("IV too low %.1f%%, dead option", iv*100)
	}
	if iv > 2.0 {
		return false, fmt.Sprintf("IV too high %.1f%%, overpriced", iv*100)
	}
	return true, ""
}

func checkSpreadQuality(c *models.OptionContract) (bool, string) {
	mark := c.Pricing.Mark
	if mark == 0 {
		return false, "no market price"
	}
	spread := c.Pricing.Spread()
	if c.Pricing.SpreadPercent() > 30 {
		return false, fmt.Sprintf("spread too wide: %.1f%%", c.Pricing.SpreadPercent())
	}
	if spread > 1.0 && mark < 5.0 {
		return false, fmt.Sprintf("spread $%.2f too wide for $%.2f option", spread, mark)
	}
	return true, ""
}

func checkGreeksQuality(c *models.OptionContract) (bool, string) {
	delta := absFloat(c.Greeks.Delta)
	if delta < 0.25 {
		return false, fmt.Sprintf("delta too low %.2f, too far OTM", delta)
	}
	if delta > 0.85 {
		return false, fmt.Sprintf("delta too high %.2f, limited leverage", delta)
	}
	mark := c.Pricing.Mark
	if mark > 0 {
		dailyTheta := absFloat(c.Greeks.Theta / mark)
		if dailyTheta > 0.15 {
			return false, fmt.Sprintf("theta decay too high: %.1f%%/day", dailyTheta*100)
		}
	}
	return true, ""
}

func checkMoneyness(c *models.OptionContract) (bool, string) {
	if c.UnderlyingPrice == 0 {
		return false, "no underlying price"
	}
	distance := absFloat(c.Strike-c.UnderlyingPrice) / c.UnderlyingPrice
	if distance > 0.10 {
		return false, fmt.Sprintf("too far from money: %.1f%%", distance*100)
	}
	return true, ""
}

// passesStrictChecks applies every strict check in order and returns the
// first failure reason.
func passesStrictChecks(c *models.OptionContract, momentum1m float64, now time.Time) (bool, string) {
	checks := []func() (bool, string){
		func() (bool, string) { return checkVolumeQuality(c) },
		func() (bool, string) { return checkPriceAction(c, momentum1m) },
		func() (bool, string) { return checkTimeToExpiration(c, now) },
		func() (bool, string) { return checkImpliedVolatility(c) },
		func() (bool, string) { return checkSpreadQuality(c) },
		func() (bool, string) { return checkGreeksQuality(c) },
		func() (bool, string) { return checkMoneyness(c) },
	}
	for _, check := range checks {
		if ok, reason := check(); !ok {
			return false, reason
		}
	}
	return true, ""
}
