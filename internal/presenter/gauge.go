package presenter

import (
	"math"
	"strconv"
)

// Band colors, lowest severity first
const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorOrange = "orange"
	ColorRed    = "red"
)

// Gauge is a rendered risk bar
type Gauge struct {
	// Band is the severity band, 1 (lowest) to 4
	Band  int    `json:"band"`
	Color string `json:"color"`
	// Fraction of the bar that is filled, in [0, 1]
	Fraction float64 `json:"fraction"`
	// Width is Fraction as a CSS percentage such as "42.5%"
	Width string `json:"width"`
}

// RiskGauge renders a risk percentage. Bands are [0,20), [20,40), [40,60) and
// [60,inf); negative values fall in the first band. The fill is clamped to
// [0, 100]. NaN renders as an empty first-band bar.
func RiskGauge(percent float64) Gauge {
	if math.IsNaN(percent) {
		return Gauge{Band: 1, Color: ColorGreen, Fraction: 0, Width: "0%"}
	}

	var g Gauge
	switch {
	case percent < 20:
		g.Band, g.Color = 1, ColorGreen
	case percent < 40:
		g.Band, g.Color = 2, ColorYellow
	case percent < 60:
		g.Band, g.Color = 3, ColorOrange
	default:
		g.Band, g.Color = 4, ColorRed
	}

	filled := math.Max(0, math.Min(percent, 100))
	g.Fraction = filled / 100
	g.Width = strconv.FormatFloat(filled, 'f', -1, 64) + "%"
	return g
}
