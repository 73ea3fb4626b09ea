// Package ta implements the technical indicators used by the strategy
// evaluators. All functions are pure; price series are ordered oldest to
// newest.
package ta

import (
	"math"
	"sort"
)

// RSI returns the relative strength index over the given period using a
// simple average of the most recent gains and losses. Series too short to
// measure yield a neutral 50.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50.0
	}
	var gains, losses float64
	for i := len(prices) - period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// ema computes an exponential moving average series seeded with the first
// value, alpha = 2/(span+1).
func ema(prices []float64, span int) []float64 {
	if len(prices) == 0 {
		return nil
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out := make([]float64, len(prices))
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = alpha*prices[i] + (1-alpha)*out[i-1]
	}
	return out
}

// EMA returns the latest exponential moving average value, or 0 when the
// series is shorter than the span.
func EMA(prices []float64, span int) float64 {
	if len(prices) < span {
		return 0
	}
	s := ema(prices, span)
	return s[len(s)-1]
}

// SMA returns the simple moving average of the last period values, or 0
// when the series is too short.
func SMA(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return 0
	}
	var sum float64
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period)
}

// MACD returns the MACD line, signal line, and histogram for the standard
// (12, 26, 9) parameterization. Series shorter than slow+signal bars return
// all zeros.
func MACD(prices []float64, fast, slow, signal int) (line, sig, hist float64) {
	if len(prices) < slow+signal {
		return 0, 0, 0
	}
	fastEMA := ema(prices, fast)
	slowEMA := ema(prices, slow)
	macd := make([]float64, len(prices))
	for i := range prices {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	sigSeries := ema(macd, signal)
	line = macd[len(macd)-1]
	sig = sigSeries[len(sigSeries)-1]
	return line, sig, line - sig
}

// Momentum returns the fractional change over the last period bars:
// (latest - prices[n-1-period]) / prices[n-1-period]. Series too short, or
// a zero reference price, yield 0.
func Momentum(prices []float64, period int) float64 {
	if period <= 0 || len(prices) <= period {
		return 0
	}
	prev := prices[len(prices)-1-period]
	if prev == 0 {
		return 0
	}
	return (prices[len(prices)-1] - prev) / prev
}

// SupportResistance finds up to three support and three resistance levels
// from local extrema over a sliding window. Series shorter than 3x the
// window collapse to the current price for both.
func SupportResistance(prices []float64, window int) (support, resistance []float64) {
	if window <= 0 || len(prices) < window*3 {
		cur := 0.0
		if len(prices) > 0 {
			cur = prices[len(prices)-1]
		}
		return []float64{cur}, []float64{cur}
	}
	var highs, lows []float64
	for i := window; i < len(prices)-window; i++ {
		isHigh, isLow := true, true
		for j := i - window; j < i+window; j++ {
			if j == i {
				continue
			}
			if prices[j] >= prices[i] {
				isHigh = false
			}
			if prices[j] <= prices[i] {
				isLow = false
			}
		}
		if isHigh {
			highs = append(highs, prices[i])
		}
		if isLow {
			lows = append(lows, prices[i])
		}
	}
	resistance = dedupe(highs)
	sort.Sort(sort.Reverse(sort.Float64Slice(resistance)))
	if len(resistance) > 3 {
		resistance = resistance[:3]
	}
	support = dedupe(lows)
	sort.Float64s(support)
	if len(support) > 3 {
		support = support[:3]
	}
	return support, resistance
}

func dedupe(vals []float64) []float64 {
	seen := make(map[float64]bool, len(vals))
	out := vals[:0]
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// IsBreakout reports whether the latest price just cleared a resistance
// level: current above the level by 0.5% with the prior bar still at or
// below it.
func IsBreakout(prices []float64, resistance []float64) bool {
	if len(prices) < 2 {
		return false
	}
	cur, prev := prices[len(prices)-1], prices[len(prices)-2]
	for _, level := range resistance {
		if cur > level*1.005 && prev <= level {
			return true
		}
	}
	return false
}

// IsBreakdown reports whether the latest price just pierced a support
// level: current below the level by 0.5% with the prior bar still at or
// above it.
func IsBreakdown(prices []float64, support []float64) bool {
	if len(prices) < 2 {
		return false
	}
	cur, prev := prices[len(prices)-1], prices[len(prices)-2]
	for _, level := range support {
		if cur < level*0.995 && prev >= level {
			return true
		}
	}
	return false
}

// Bollinger returns the middle band (SMA), upper, and lower bands using the
// given period and standard-deviation multiple. Series too short return all
// zeros.
func Bollinger(prices []float64, period int, mult float64) (middle, upper, lower float64) {
	if period <= 0 || len(prices) < period {
		return 0, 0, 0
	}
	middle = SMA(prices, period)
	var variance float64
	for _, p := range prices[len(prices)-period:] {
		d := p - middle
		variance += d * d
	}
	std := math.Sqrt(variance / float64(period))
	return middle, middle + mult*std, middle - mult*std
}

// VWAP returns the volume-weighted average of typical prices over the bars.
// Zero total volume yields 0.
func VWAP(highs, lows, closes, volumes []float64) float64 {
	n := len(closes)
	if n == 0 || len(highs) != n || len(lows) != n || len(volumes) != n {
		return 0
	}
	var pv, vol float64
	for i := 0; i < n; i++ {
		typical := (highs[i] + lows[i] + closes[i]) / 3
		pv += typical * volumes[i]
		vol += volumes[i]
	}
	if vol == 0 {
		return 0
	}
	return pv / vol
}

// ATR returns the average true range over the period. Series too short
// return 0.
func ATR(highs, lows, closes []float64, period int) float64 {
	n := len(closes)
	if period <= 0 || n < period+1 || len(highs) != n || len(lows) != n {
		return 0
	}
	var sum float64
	for i := n - period; i < n; i++ {
		tr := highs[i] - lows[i]
		if hc := math.Abs(highs[i] - closes[i-1]); hc > tr {
			tr = hc
		}
		if lc := math.Abs(lows[i] - closes[i-1]); lc > tr {
			tr = lc
		}
		sum += tr
	}
	return sum / float64(period)
}

// Stochastic returns the %K oscillator over the period, 50 when the series
// is too short or the range is flat.
func Stochastic(highs, lows, closes []float64, period int) float64 {
	n := len(closes)
	if period <= 0 || n < period || len(highs) != n || len(lows) != n {
		return 50.0
	}
	hi, lo := highs[n-period], lows[n-period]
	for i := n - period; i < n; i++ {
		if highs[i] > hi {
			hi = highs[i]
		}
		if lows[i] < lo {
			lo = lows[i]
		}
	}
	if hi == lo {
		return 50.0
	}
	return (closes[n-1] - lo) / (hi - lo) * 100
}

// WilliamsR returns the Williams %R oscillator over the period, -50 when
// the series is too short or the range is flat.
func WilliamsR(highs, lows, closes []float64, period int) float64 {
	n := len(closes)
	if period <= 0 || n < period || len(highs) != n || len(lows) != n {
		return -50.0
	}
	hi, lo := highs[n-period], lows[n-period]
	for i := n - period; i < n; i++ {
		if highs[i] > hi {
			hi = highs[i]
		}
		if lows[i] < lo {
			lo = lows[i]
		}
	}
	if hi == lo {
		return -50.0
	}
	return (hi - closes[n-1]) / (hi - lo) * -100
}
