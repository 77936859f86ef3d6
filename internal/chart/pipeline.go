package chart

import (
	"math"
	"time"

	"github.com/arvindri2005/Crypto-Tracker/internal/coingecko"
)

// DefaultMaxPoints is the universal downsampling threshold for rendering.
const DefaultMaxPoints = 400

// DisplayPoint is one renderable chart point, derived from a raw price point
// and never persisted.
type DisplayPoint struct {
	Time  time.Time
	Price float64
}

// Downsample reduces series to at most threshold points by stride sampling:
// keep every factor-th point, where factor = ceil(len/threshold). Actual
// observed prices are preserved rather than averaged. The final point of the
// input is always present in the output so the most recent price survives,
// which means the result can be one point over threshold.
func Downsample(series []coingecko.PricePoint, threshold int) []coingecko.PricePoint {
	if threshold <= 0 || len(series) <= threshold {
		return series
	}

	factor := (len(series) + threshold - 1) / threshold
	out := make([]coingecko.PricePoint, 0, threshold+1)
	for i := 0; i < len(series); i += factor {
		out = append(out, series[i])
	}

	last := series[len(series)-1]
	if (len(series)-1)%factor != 0 {
		out = append(out, last)
	}

	return out
}

// ToDisplayPoints maps raw (timestampMillis, price) pairs to renderable
// points, preserving order. Empty input yields empty output.
func ToDisplayPoints(series []coingecko.PricePoint) []DisplayPoint {
	out := make([]DisplayPoint, 0, len(series))
	for _, p := range series {
		out = append(out, DisplayPoint{
			Time:  time.UnixMilli(p.Timestamp).UTC(),
			Price: p.Price,
		})
	}
	return out
}

// AxisDomain computes the y-axis bounds for a series. Non-finite prices are
// ignored. An empty series gets a default unit range; a flat series is
// widened so the axis never has zero height.
func AxisDomain(points []DisplayPoint) (low, high float64) {
	prices := make([]float64, 0, len(points))
	for _, p := range points {
		if !math.IsNaN(p.Price) && !math.IsInf(p.Price, 0) {
			prices = append(prices, p.Price)
		}
	}
	if len(prices) == 0 {
		return 0, 1
	}

	minPrice := prices[0]
	maxPrice := prices[0]
	for _, p := range prices[1:] {
		minPrice = math.Min(minPrice, p)
		maxPrice = math.Max(maxPrice, p)
	}

	if minPrice == maxPrice {
		pad := minPrice * 0.1
		if pad == 0 {
			pad = 0.1
		}
		return math.Max(0, minPrice-pad), maxPrice + pad
	}

	buffer := (maxPrice - minPrice) * 0.05
	if buffer == 0 {
		buffer = maxPrice * 0.05
	}
	if buffer == 0 {
		buffer = 0.05
	}

	return math.Max(0, minPrice-buffer), maxPrice + buffer
}

// BucketLabel formats an axis tick for the given time range: intraday time
// for ranges of a day or less, day-level up to 90 days, month-level beyond
// that and for the entire-history sentinel (rangeDays <= 0). Labels are
// rendered in UTC so the same inputs always produce the same string.
func BucketLabel(rangeDays int, t time.Time) string {
	t = t.UTC()
	switch {
	case rangeDays > 0 && rangeDays <= 1:
		return t.Format("15:04")
	case rangeDays > 1 && rangeDays <= 90:
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 06")
	}
}
