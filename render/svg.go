package render

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
)

// ErrNothingToDraw is returned by [SVG] for charts without drawable data,
// such as a pie whose slices sum to zero.
var ErrNothingToDraw = errors.New("chart has nothing to draw")

const (
	svgWidth  = 640
	svgHeight = 360
)

// SVG draws c server-side and returns the SVG document.
//
// Column charts draw one bar per category from the first series. Bar charts
// draw one bar per series from each series' first value; go-chart has no
// horizontal layout so these are drawn vertically too. Pie charts draw the
// first series' slices labelled with their percentage.
func SVG(c Chart) ([]byte, error) {
	if len(c.Series) == 0 {
		return nil, ErrNothingToDraw
	}

	var buf bytes.Buffer
	switch c.Type {
	case Column:
		if err := barChart(c.Title, columnValues(c)).Render(chart.SVG, &buf); err != nil {
			return nil, fmt.Errorf("render column chart: %w", err)
		}
	case Bar:
		if err := barChart(c.Title, seriesValues(c)).Render(chart.SVG, &buf); err != nil {
			return nil, fmt.Errorf("render bar chart: %w", err)
		}
	case Pie:
		pie, err := pieChart(c)
		if err != nil {
			return nil, err
		}
		if err := pie.Render(chart.SVG, &buf); err != nil {
			return nil, fmt.Errorf("render pie chart: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported chart type %q", c.Type)
	}

	return buf.Bytes(), nil
}

func columnValues(c Chart) []chart.Value {
	data := c.Series[0].Data
	values := make([]chart.Value, len(data))
	for i, p := range data {
		label := p.Name
		if i < len(c.Categories) {
			label = c.Categories[i]
		}
		values[i] = chart.Value{Label: label, Value: p.Y}
	}
	return values
}

func seriesValues(c Chart) []chart.Value {
	values := make([]chart.Value, 0, len(c.Series))
	for _, s := range c.Series {
		var y float64
		if len(s.Data) > 0 {
			y = s.Data[0].Y
		}
		values = append(values, chart.Value{Label: s.Name, Value: y})
	}
	return values
}

func barChart(title string, values []chart.Value) chart.BarChart {
	maxY := 1.0
	for _, v := range values {
		if v.Value > maxY {
			maxY = v.Value
		}
	}

	return chart.BarChart{
		Title:    title,
		Width:    svgWidth,
		Height:   svgHeight,
		BarWidth: 60,
		// a fixed range keeps all-zero data drawable
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxY * 1.1},
		},
		Bars: values,
	}
}

func pieChart(c Chart) (chart.PieChart, error) {
	data := c.Series[0].Data

	var total float64
	values := make([]chart.Value, 0, len(data))
	for _, p := range data {
		total += p.Y
		label := p.Label
		if label == "" {
			label = p.Name
		}
		values = append(values, chart.Value{Label: label, Value: p.Y})
	}
	if total <= 0 {
		return chart.PieChart{}, ErrNothingToDraw
	}

	return chart.PieChart{
		Title:  c.Title,
		Width:  svgWidth,
		Height: svgHeight,
		Values: values,
	}, nil
}
