package telemetry

import "gonum.org/v1/gonum/stat"

// Trend labels the direction of a short-window signal.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
	TrendUnknown    Trend = "unknown"
)

// Default window sizes, in samples, for the derived metrics.
const (
	DefaultTireTrendWindow = 3
	DefaultFuelRateWindow  = 5
)

// Analysis carries short-window derived metrics. Each metric is computed
// independently: a missing tire reading does not block the fuel rate and
// vice versa.
type Analysis struct {
	TireTempTrend Trend `json:"tire_temp_trend"`
	// FuelRate is average litres burned per second across the fuel
	// window; nil when any sample in the window lacks fuel or no time
	// elapsed. Negative means fuel was added.
	FuelRate *float64 `json:"fuel_consumption_rate,omitempty"`
}

// averageTemp returns the mean of the four corner temperatures.
func averageTemp(t TireTemps) float64 {
	return stat.Mean([]float64{t.FrontLeft, t.FrontRight, t.RearLeft, t.RearRight}, nil)
}

// AnalyzeTrends computes the analysis over history, which must be in
// chronological order (as returned by History.Window). Window sizes below
// one fall back to the defaults; windows larger than the history shrink to
// fit, but every metric needs at least two samples.
func AnalyzeTrends(history []Sample, tireWindow, fuelWindow int) Analysis {
	if tireWindow < 1 {
		tireWindow = DefaultTireTrendWindow
	}
	if fuelWindow < 1 {
		fuelWindow = DefaultFuelRateWindow
	}

	a := Analysis{TireTempTrend: TrendUnknown}
	a.TireTempTrend = tireTrend(lastN(history, tireWindow))
	a.FuelRate = fuelRate(lastN(history, fuelWindow))
	return a
}

func lastN(samples []Sample, n int) []Sample {
	if n > len(samples) {
		n = len(samples)
	}
	return samples[len(samples)-n:]
}

// tireTrend compares the oldest window-average against the newest. Every
// sample in the window must carry a complete tire reading; otherwise the
// metric is unknown rather than guessed from partial corners.
func tireTrend(window []Sample) Trend {
	if len(window) < 2 {
		return TrendUnknown
	}
	for _, s := range window {
		if s.TireTemps == nil {
			return TrendUnknown
		}
	}
	oldest := averageTemp(*window[0].TireTemps)
	newest := averageTemp(*window[len(window)-1].TireTemps)
	switch {
	case newest > oldest:
		return TrendIncreasing
	case newest < oldest:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// fuelRate averages consumption between the chronological endpoints of the
// window. It is omitted when any sample lacks fuel or the endpoints do not
// span positive time (duplicate timestamps would divide by zero).
func fuelRate(window []Sample) *float64 {
	if len(window) < 2 {
		return nil
	}
	for _, s := range window {
		if s.Fuel == nil {
			return nil
		}
	}
	oldest := window[0]
	newest := window[len(window)-1]
	elapsed := newest.Timestamp - oldest.Timestamp
	if elapsed <= 0 {
		return nil
	}
	return Float64((*oldest.Fuel - *newest.Fuel) / elapsed)
}
