package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/example/bpbot/internal/ports/secondary"
)

// Chart renders systolic and diastolic as solid lines and pulse as a dashed
// line over time. Input must be ordered oldest first.
func (r *Renderer) Chart(measurements []*secondary.MeasurementRecord) ([]byte, error) {
	if len(measurements) == 0 {
		return nil, ErrNoData
	}

	var (
		times     = make([]time.Time, 0, len(measurements))
		systolic  = make([]float64, 0, len(measurements))
		diastolic = make([]float64, 0, len(measurements))
		pulse     = make([]float64, 0, len(measurements))
	)
	minY, maxY := float64(measurements[0].Systolic), float64(measurements[0].Systolic)
	for _, m := range measurements {
		times = append(times, m.RecordedAt)
		systolic = append(systolic, float64(m.Systolic))
		diastolic = append(diastolic, float64(m.Diastolic))
		pulse = append(pulse, float64(m.Pulse))
		for _, v := range []int{m.Systolic, m.Diastolic, m.Pulse} {
			minY = min(minY, float64(v))
			maxY = max(maxY, float64(v))
		}
	}

	// go-chart refuses a zero-width range, which a single reading (or a
	// flat history) would otherwise produce.
	first, last := times[0], times[len(times)-1]
	if !last.After(first) {
		first = first.Add(-time.Hour)
		last = last.Add(time.Hour)
	}

	graph := chart.Chart{
		Width:  r.ChartWidth,
		Height: r.ChartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: formatTick,
			Range: &chart.ContinuousRange{
				Min: chart.TimeToFloat64(first),
				Max: chart.TimeToFloat64(last),
			},
		},
		YAxis: chart.YAxis{
			Name: "Value",
			Range: &chart.ContinuousRange{
				Min: minY - 10,
				Max: maxY + 10,
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Systolic",
				XValues: times,
				YValues: systolic,
				Style:   chart.Style{StrokeColor: drawing.ColorRed, StrokeWidth: 2},
			},
			chart.TimeSeries{
				Name:    "Diastolic",
				XValues: times,
				YValues: diastolic,
				Style:   chart.Style{StrokeColor: drawing.ColorBlue, StrokeWidth: 2},
			},
			chart.TimeSeries{
				Name:    "Pulse",
				XValues: times,
				YValues: pulse,
				Style: chart.Style{
					StrokeColor:     drawing.ColorGreen,
					StrokeWidth:     2,
					StrokeDashArray: []float64{6, 4},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// formatTick prints x-axis values, which go-chart carries as unix nanoseconds.
func formatTick(v interface{}) string {
	switch typed := v.(type) {
	case time.Time:
		return typed.Format(DateLayout)
	case float64:
		return time.Unix(0, int64(typed)).UTC().Format(DateLayout)
	default:
		return ""
	}
}
