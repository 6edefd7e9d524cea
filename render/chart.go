// Package render defines the rendering ports the dashboard draws through.
//
// A [Port] receives declarative descriptions of charts and tables, addressed
// by mount point, and puts them somewhere: an in-memory recorder, the
// dashboard's view store, a terminal. The fetch/dispatch logic never talks to
// a concrete rendering backend, which keeps it testable without one.
//
// The chart types mirror the options object of browser charting libraries
// (type, title, axis categories, series data) so a [Chart] can be handed to
// such a library unchanged. [SVG] draws the same description server-side.
package render

import (
	"errors"
	"fmt"
)

// ChartType is the visual form of a [Chart].
type ChartType string

const (
	// Column is a vertical bar chart.
	Column ChartType = "column"

	// Pie is a pie chart; each point is a slice.
	Pie ChartType = "pie"

	// Bar is a horizontal bar chart.
	Bar ChartType = "bar"
)

// ErrUnknownMount is returned by ports that only accept registered mount points.
var ErrUnknownMount = errors.New("unknown mount point")

// Point is a single data value.
type Point struct {
	// Name labels the point (pie slices); empty for category charts.
	Name string `json:"name,omitempty"`

	// Y is the value.
	Y float64 `json:"y"`

	// Percentage is the point's share of its series, set for pie slices.
	Percentage float64 `json:"percentage,omitempty"`

	// Label is the display label, set for pie slices.
	Label string `json:"label,omitempty"`
}

// Series is a named sequence of points.
type Series struct {
	Name string  `json:"name"`
	Data []Point `json:"data"`
}

// Values returns the Y values of the series in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Data))
	for i, p := range s.Data {
		out[i] = p.Y
	}
	return out
}

// Chart is a declarative chart description.
type Chart struct {
	Type       ChartType `json:"type"`
	Title      string    `json:"title"`
	Categories []string  `json:"categories,omitempty"`
	Series     []Series  `json:"series"`
}

// Table is a declarative table description. Rows replace whatever the mount
// point showed before.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Slice is one named pie value passed to [NewPie].
type Slice struct {
	Name  string
	Value float64
}

// NewPie builds a pie chart with one series whose points carry their
// percentage of the total and a "<name>: <pct>%" label with one decimal.
//
// When the total is zero every percentage is zero.
func NewPie(title, seriesName string, slices ...Slice) Chart {
	var total float64
	for _, s := range slices {
		total += s.Value
	}

	points := make([]Point, len(slices))
	for i, s := range slices {
		var pct float64
		if total != 0 {
			pct = s.Value / total * 100
		}
		points[i] = Point{
			Name:       s.Name,
			Y:          s.Value,
			Percentage: pct,
			Label:      fmt.Sprintf("%s: %.1f%%", s.Name, pct),
		}
	}

	return Chart{
		Type:   Pie,
		Title:  title,
		Series: []Series{{Name: seriesName, Data: points}},
	}
}

// Counts converts integer counts to points.
func Counts(values ...int) []Point {
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{Y: float64(v)}
	}
	return points
}
