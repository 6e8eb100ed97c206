// Package report renders debug charts for recorded telemetry sessions.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/apex-data/race.engineer/internal/telemetry"
	"github.com/apex-data/race.engineer/internal/units"
)

// RenderSessionChart writes an HTML line chart of speed and fuel over
// session uptime. Samples missing a field leave a gap in that series.
func RenderSessionChart(w io.Writer, sessionID string, samples []telemetry.Sample, speedUnits string) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples for session %s", sessionID)
	}

	xAxis := make([]string, 0, len(samples))
	speedSeries := make([]opts.LineData, 0, len(samples))
	fuelSeries := make([]opts.LineData, 0, len(samples))

	for _, s := range samples {
		xAxis = append(xAxis, fmt.Sprintf("%.1f", s.Timestamp))
		if s.Speed != nil {
			speedSeries = append(speedSeries, opts.LineData{Value: units.ConvertSpeed(*s.Speed, speedUnits)})
		} else {
			speedSeries = append(speedSeries, opts.LineData{Value: nil})
		}
		if s.Fuel != nil {
			fuelSeries = append(fuelSeries, opts.LineData{Value: *s.Fuel})
		} else {
			fuelSeries = append(fuelSeries, opts.LineData{Value: nil})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Session " + sessionID,
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Telemetry Session",
			Subtitle: fmt.Sprintf("session=%s samples=%d", sessionID, len(samples)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Uptime (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: fmt.Sprintf("Speed (%s)", units.Label(speedUnits))}),
	)

	line.SetXAxis(xAxis)
	line.AddSeries("speed", speedSeries)
	line.AddSeries("fuel", fuelSeries,
		charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}))
	line.ExtendYAxis(opts.YAxis{Name: "Fuel (L)"})

	return line.Render(w)
}
