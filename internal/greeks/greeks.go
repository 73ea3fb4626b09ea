// Package greeks computes Black-Scholes option greeks and implied
// volatility for equity options.
package greeks

import (
	"log"
	"math"

	"github.com/tradefly/optionsignals/internal/models"
)

const (
	// DefaultRiskFreeRate is the annualized rate used when no rate is supplied.
	DefaultRiskFreeRate = 0.05

	ivInitialGuess = 0.30
	ivMinVol       = 0.001
	ivMaxVol       = 5.0
	ivMaxIter      = 100
	ivTolerance    = 1e-4
)

// Calculator computes greeks and solves implied volatility. The zero value
// is not usable; construct with NewCalculator.
type Calculator struct {
	riskFreeRate float64
	logger       *log.Logger
}

// NewCalculator returns a Calculator using the given risk-free rate. A nil
// logger falls back to the process default.
func NewCalculator(riskFreeRate float64, logger *log.Logger) *Calculator {
	if logger == nil {
		logger = log.Default()
	}
	return &Calculator{riskFreeRate: riskFreeRate, logger: logger}
}

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normPDF is the standard normal probability density function.
func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

// d1d2 returns the Black-Scholes d1 and d2 terms. Degenerate inputs
// (non-positive volatility or time) yield zeros so downstream terms stay
// finite.
func d1d2(spot, strike, timeYears, rate, sigma float64) (float64, float64) {
	if sigma <= 0 || timeYears <= 0 {
		return 0, 0
	}
	d1 := (math.Log(spot/strike) + (rate+sigma*sigma/2)*timeYears) / (sigma * math.Sqrt(timeYears))
	return d1, d1 - sigma*math.Sqrt(timeYears)
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

// Compute returns the full set of greeks for a contract. Expired contracts
// (timeYears <= 0) return all zeros.
func (c *Calculator) Compute(optType models.OptionType, spot, strike, timeYears, sigma float64) models.Greeks {
	if timeYears <= 0 {
		return models.Greeks{}
	}
	d1, d2 := d1d2(spot, strike, timeYears, c.riskFreeRate, sigma)
	sqrtT := math.Sqrt(timeYears)
	discount := math.Exp(-c.riskFreeRate * timeYears)

	var delta, theta, rho float64
	if optType == models.OptionTypeCall {
		delta = normCDF(d1)
		theta = -(spot*normPDF(d1)*sigma)/(2*sqrtT) - c.riskFreeRate*strike*discount*normCDF(d2)
		rho = strike * timeYears * discount * normCDF(d2) / 100
	} else {
		delta = normCDF(d1) - 1
		theta = -(spot*normPDF(d1)*sigma)/(2*sqrtT) + c.riskFreeRate*strike*discount*normCDF(-d2)
		rho = -strike * timeYears * discount * normCDF(-d2) / 100
	}

	var gamma, vega float64
	if sigma > 0 {
		gamma = normPDF(d1) / (spot * sigma * sqrtT)
	}
	vega = spot * normPDF(d1) * sqrtT / 100

	return models.Greeks{
		Delta: round4(delta),
		Gamma: round4(gamma),
		Theta: round4(theta / 365),
		Vega:  round4(vega),
		Rho:   round4(rho),
	}
}

// Price returns the Black-Scholes theoretical price. At or past expiration
// it returns intrinsic value.
func (c *Calculator) Price(optType models.OptionType, spot, strike, timeYears, sigma float64) float64 {
	if timeYears <= 0 {
		if optType == models.OptionTypeCall {
			return math.Max(0, spot-strike)
		}
		return math.Max(0, strike-spot)
	}
	d1, d2 := d1d2(spot, strike, timeYears, c.riskFreeRate, sigma)
	discount := math.Exp(-c.riskFreeRate * timeYears)

	var price float64
	if optType == models.OptionTypeCall {
		price = spot*normCDF(d1) - strike*discount*normCDF(d2)
	} else {
		price = strike*discount*normCDF(-d2) - spot*normCDF(d1)
	}
	return math.Max(0, price)
}

// ImpliedVolatility solves for the volatility that reproduces marketPrice
// using Newton-Raphson. If the iteration fails to converge or the vega
// vanishes, the last estimate is returned with a logged warning; callers
// always get a usable value.
func (c *Calculator) ImpliedVolatility(optType models.OptionType, marketPrice, spot, strike, timeYears float64) float64 {
	iv := ivInitialGuess
	for i := 0; i < ivMaxIter; i++ {
		price := c.Price(optType, spot, strike, timeYears, iv)
		diff := marketPrice - price
		if math.Abs(diff) < ivTolerance {
			return iv
		}
		// Vega is quoted per 1% move; the solver needs it per unit sigma.
		d1, _ := d1d2(spot, strike, timeYears, c.riskFreeRate, iv)
		vega := spot * normPDF(d1) * math.Sqrt(math.Max(timeYears, 0))
		if math.Abs(vega) < 1e-10 {
			break
		}
		iv += diff / vega
		if iv < ivMinVol {
			iv = ivMinVol
		} else if iv > ivMaxVol {
			iv = ivMaxVol
		}
	}
	c.logger.Printf("WARN: IV solve did not converge for %s spot=%.2f strike=%.2f price=%.2f, using %.4f",
		optType, spot, strike, marketPrice, iv)
	return iv
}

// IVRank places the current IV within the historical min-max range on a
// 0-100 scale. Fewer than two history points, or a flat range, yields a
// neutral 50.
func IVRank(current float64, history []float64) float64 {
	if len(history) < 2 {
		return 50.0
	}
	lo, hi := history[0], history[0]
	for _, v := range history[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return 50.0
	}
	rank := (current - lo) / (hi - lo) * 100
	if rank < 0 {
		return 0
	}
	if rank > 100 {
		return 100
	}
	return rank
}

// IVPercentile returns the percentage of history strictly below current.
func IVPercentile(current float64, history []float64) float64 {
	if len(history) == 0 {
		return 50.0
	}
	below := 0
	for _, v := range history {
		if v < current {
			below++
		}
	}
	return float64(below) / float64(len(history)) * 100
}
