package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/ultralog/ultralog/pkg/logmodel"
)

// DescriptiveStats is the shared set of summary statistics several
// analyzers in this package compute over a value series.
type DescriptiveStats struct {
	Count    int
	Mean     float64
	Median   float64
	Stdev    float64
	Min, Max float64
	Range    float64
	CV       float64 // coefficient of variation, as a percentage
}

// computeDescriptiveStats summarizes data: mean, sample standard deviation
// (n-1 denominator), min/max/range, median, and coefficient of variation.
func computeDescriptiveStats(data []float64) DescriptiveStats {
	n := len(data)
	if n == 0 {
		return DescriptiveStats{}
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(n)

	variance := 0.0
	for _, v := range data {
		d := v - mean
		variance += d * d
	}
	denom := n - 1
	if denom < 1 {
		denom = 1
	}
	variance /= float64(denom)
	stdev := math.Sqrt(variance)

	min, max := data[0], data[0]
	for _, v := range data {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	cv := 0.0
	if math.Abs(mean) > math.SmallestNonzeroFloat64 {
		cv = (stdev / math.Abs(mean)) * 100
	}

	return DescriptiveStats{
		Count:  n,
		Mean:   mean,
		Median: median,
		Stdev:  stdev,
		Min:    min,
		Max:    max,
		Range:  max - min,
		CV:     cv,
	}
}

// DescriptiveStatsAnalyzer reports mean, median, standard deviation, min,
// max, range, and coefficient of variation for a channel, and emits its
// z-score series for visualization.
type DescriptiveStatsAnalyzer struct {
	Channel string
}

// NewDescriptiveStatsAnalyzer returns a DescriptiveStatsAnalyzer defaulted
// to summarizing RPM.
func NewDescriptiveStatsAnalyzer() *DescriptiveStatsAnalyzer {
	return &DescriptiveStatsAnalyzer{Channel: "RPM"}
}

func (a *DescriptiveStatsAnalyzer) ID() string       { return "descriptive_stats" }
func (a *DescriptiveStatsAnalyzer) Name() string     { return "Descriptive Statistics" }
func (a *DescriptiveStatsAnalyzer) Category() string { return "Statistics" }
func (a *DescriptiveStatsAnalyzer) Description() string {
	return "Computes basic statistics: mean, median, standard deviation, min, max, range, and coefficient of variation for a channel."
}
func (a *DescriptiveStatsAnalyzer) RequiredChannels() []string { return []string{a.Channel} }
func (a *DescriptiveStatsAnalyzer) OptionalChannels() []string { return nil }

func (a *DescriptiveStatsAnalyzer) Analyze(log *logmodel.Log) (Result, error) {
	data, err := requireChannel(log, a.Channel)
	if err != nil {
		return Result{}, err
	}
	if err := requireMinLength(data, 2); err != nil {
		return Result{}, err
	}

	stats, elapsed := timedAnalyze(func() DescriptiveStats { return computeDescriptiveStats(data) })

	var warnings []string
	if stats.CV > 50 {
		warnings = append(warnings, fmt.Sprintf("high variability detected (CV=%.1f%%) - signal may be noisy", stats.CV))
	}

	floor := stats.Stdev
	if floor < 0.001 {
		floor = 0.001
	}
	zScores := make([]float64, len(data))
	for i, v := range data {
		zScores[i] = (v - stats.Mean) / floor
	}

	return Result{
		Name:   fmt.Sprintf("%s Z-Score", a.Channel),
		Unit:   "σ",
		Values: zScores,
		Meta: Metadata{
			Algorithm: "Descriptive Statistics",
			Parameters: []Parameter{
				{Key: "mean", Value: fmt.Sprintf("%.4f", stats.Mean)},
				{Key: "median", Value: fmt.Sprintf("%.4f", stats.Median)},
				{Key: "stdev", Value: fmt.Sprintf("%.4f", stats.Stdev)},
				{Key: "min", Value: fmt.Sprintf("%.4f", stats.Min)},
				{Key: "max", Value: fmt.Sprintf("%.4f", stats.Max)},
				{Key: "range", Value: fmt.Sprintf("%.4f", stats.Range)},
				{Key: "cv", Value: fmt.Sprintf("%.2f%%", stats.CV)},
				{Key: "n", Value: fmt.Sprint(stats.Count)},
			},
			Warnings:        warnings,
			ComputationTime: elapsed,
		},
	}, nil
}

func (a *DescriptiveStatsAnalyzer) Config() map[string]string {
	return map[string]string{"channel": a.Channel}
}

func (a *DescriptiveStatsAnalyzer) SetConfig(params map[string]string) {
	if v, ok := params["channel"]; ok {
		a.Channel = v
	}
}

// CorrelationAnalyzer computes the Pearson correlation coefficient between
// two channels and reports the residuals of their linear fit.
type CorrelationAnalyzer struct {
	ChannelX, ChannelY string
}

// NewCorrelationAnalyzer returns a CorrelationAnalyzer defaulted to
// correlating RPM against MAP.
func NewCorrelationAnalyzer() *CorrelationAnalyzer {
	return &CorrelationAnalyzer{ChannelX: "RPM", ChannelY: "MAP"}
}

func (a *CorrelationAnalyzer) ID() string       { return "correlation" }
func (a *CorrelationAnalyzer) Name() string     { return "Channel Correlation" }
func (a *CorrelationAnalyzer) Category() string { return "Statistics" }
func (a *CorrelationAnalyzer) Description() string {
	return "Computes Pearson correlation coefficient between two channels. Values near ±1 indicate strong linear relationship."
}
func (a *CorrelationAnalyzer) RequiredChannels() []string {
	return []string{a.ChannelX, a.ChannelY}
}
func (a *CorrelationAnalyzer) OptionalChannels() []string { return nil }

func (a *CorrelationAnalyzer) Analyze(log *logmodel.Log) (Result, error) {
	x, err := requireChannel(log, a.ChannelX)
	if err != nil {
		return Result{}, err
	}
	y, err := requireChannel(log, a.ChannelY)
	if err != nil {
		return Result{}, err
	}
	if len(x) != len(y) {
		return Result{}, &ComputationError{Msg: "channels have different lengths"}
	}
	if err := requireMinLength(x, 3); err != nil {
		return Result{}, err
	}

	r, elapsed := timedAnalyze(func() float64 { return pearsonCorrelation(x, y) })

	var strength string
	switch {
	case math.Abs(r) > 0.9:
		strength = "very strong"
	case math.Abs(r) > 0.7:
		strength = "strong"
	case math.Abs(r) > 0.5:
		strength = "moderate"
	case math.Abs(r) > 0.3:
		strength = "weak"
	default:
		strength = "very weak/none"
	}
	direction := "negative"
	if r > 0 {
		direction = "positive"
	}
	warnings := []string{fmt.Sprintf("correlation is %s %s (r=%.3f)", strength, direction, r)}

	residuals := computeResiduals(x, y)

	return Result{
		Name:   fmt.Sprintf("%s vs %s Residuals", a.ChannelX, a.ChannelY),
		Values: residuals,
		Meta: Metadata{
			Algorithm: "Pearson Correlation",
			Parameters: []Parameter{
				{Key: "r", Value: fmt.Sprintf("%.4f", r)},
				{Key: "r²", Value: fmt.Sprintf("%.4f", r*r)},
				{Key: "channel_x", Value: a.ChannelX},
				{Key: "channel_y", Value: a.ChannelY},
			},
			Warnings:        warnings,
			ComputationTime: elapsed,
		},
	}, nil
}

func (a *CorrelationAnalyzer) Config() map[string]string {
	return map[string]string{"channel_x": a.ChannelX, "channel_y": a.ChannelY}
}

func (a *CorrelationAnalyzer) SetConfig(params map[string]string) {
	if v, ok := params["channel_x"]; ok {
		a.ChannelX = v
	}
	if v, ok := params["channel_y"]; ok {
		a.ChannelY = v
	}
}

// RateOfChangeAnalyzer computes a channel's derivative, either time-based
// (units per second) or sample-based (units per sample).
type RateOfChangeAnalyzer struct {
	Channel   string
	TimeBased bool
}

// NewRateOfChangeAnalyzer returns a RateOfChangeAnalyzer defaulted to a
// time-based derivative of RPM.
func NewRateOfChangeAnalyzer() *RateOfChangeAnalyzer {
	return &RateOfChangeAnalyzer{Channel: "RPM", TimeBased: true}
}

func (a *RateOfChangeAnalyzer) ID() string       { return "rate_of_change" }
func (a *RateOfChangeAnalyzer) Name() string     { return "Rate of Change" }
func (a *RateOfChangeAnalyzer) Category() string { return "Statistics" }
func (a *RateOfChangeAnalyzer) Description() string {
	return "Computes the derivative (rate of change) of a channel. Time-based mode gives units per second; sample-based gives units per sample."
}
func (a *RateOfChangeAnalyzer) RequiredChannels() []string { return []string{a.Channel} }
func (a *RateOfChangeAnalyzer) OptionalChannels() []string { return nil }

func (a *RateOfChangeAnalyzer) Analyze(log *logmodel.Log) (Result, error) {
	data, err := requireChannel(log, a.Channel)
	if err != nil {
		return Result{}, err
	}
	if err := requireMinLength(data, 2); err != nil {
		return Result{}, err
	}
	if len(log.Time) != len(data) {
		return Result{}, &ComputationError{Msg: "data and time vectors have different lengths"}
	}

	derivative, elapsed := timedAnalyze(func() []float64 {
		if a.TimeBased {
			return timeDerivative(data, log.Time)
		}
		return sampleDerivative(data)
	})

	stats := computeDescriptiveStats(derivative)

	var warnings []string
	maxAbsRate := math.Max(math.Abs(stats.Max), math.Abs(stats.Min))
	if maxAbsRate > stats.Stdev*5 {
		warnings = append(warnings, fmt.Sprintf("extreme rate of change detected: max |dv/dt| = %.2f", maxAbsRate))
	}

	unit := "/sample"
	algorithm := "Sample-based Derivative"
	if a.TimeBased {
		unit = "/s"
		algorithm = "Time-based Derivative"
	}

	return Result{
		Name:   fmt.Sprintf("d(%s)/dt", a.Channel),
		Unit:   unit,
		Values: derivative,
		Meta: Metadata{
			Algorithm: algorithm,
			Parameters: []Parameter{
				{Key: "channel", Value: a.Channel},
				{Key: "mean_rate", Value: fmt.Sprintf("%.4f", stats.Mean)},
				{Key: "max_rate", Value: fmt.Sprintf("%.4f", stats.Max)},
				{Key: "min_rate", Value: fmt.Sprintf("%.4f", stats.Min)},
			},
			Warnings:        warnings,
			ComputationTime: elapsed,
		},
	}, nil
}

func (a *RateOfChangeAnalyzer) Config() map[string]string {
	return map[string]string{"channel": a.Channel, "time_based": fmt.Sprint(a.TimeBased)}
}

func (a *RateOfChangeAnalyzer) SetConfig(params map[string]string) {
	if v, ok := params["channel"]; ok {
		a.Channel = v
	}
	if v, ok := params["time_based"]; ok {
		if b, err := parseBool(v); err == nil {
			a.TimeBased = b
		}
	}
}

// pearsonCorrelation returns x and y's Pearson correlation coefficient, or
// 0 if either series is degenerate (mismatched lengths, fewer than two
// points, or zero variance).
func pearsonCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	meanX, meanY := mean(x), mean(y)

	var cov, varX, varY float64
	for i := range x {
		dx, dy := x[i]-meanX, y[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	denom := math.Sqrt(varX * varY)
	if denom <= math.SmallestNonzeroFloat64 {
		return 0
	}
	return cov / denom
}

// computeResiduals fits y = slope*x + intercept by ordinary least squares
// and returns each point's residual from that fit.
func computeResiduals(x, y []float64) []float64 {
	if len(x) != len(y) || len(x) < 2 {
		return nil
	}
	meanX, meanY := mean(x), mean(y)

	var num, den float64
	for i := range x {
		dx := x[i] - meanX
		num += dx * (y[i] - meanY)
		den += dx * dx
	}

	slope := 0.0
	if math.Abs(den) > math.SmallestNonzeroFloat64 {
		slope = num / den
	}
	intercept := meanY - slope*meanX

	out := make([]float64, len(x))
	for i := range x {
		out[i] = y[i] - (slope*x[i] + intercept)
	}
	return out
}

// timeDerivative differentiates data against times using central
// differences at interior points and one-sided differences at the ends.
func timeDerivative(data, times []float64) []float64 {
	if len(data) < 2 || len(times) != len(data) {
		return make([]float64, len(data))
	}
	out := make([]float64, len(data))

	if dt := times[1] - times[0]; math.Abs(dt) > math.SmallestNonzeroFloat64 {
		out[0] = (data[1] - data[0]) / dt
	}
	for i := 1; i < len(data)-1; i++ {
		if dt := times[i+1] - times[i-1]; math.Abs(dt) > math.SmallestNonzeroFloat64 {
			out[i] = (data[i+1] - data[i-1]) / dt
		}
	}
	last := len(data) - 1
	if dt := times[last] - times[last-1]; math.Abs(dt) > math.SmallestNonzeroFloat64 {
		out[last] = (data[last] - data[last-1]) / dt
	}
	return out
}

// sampleDerivative differentiates data against its own index: central
// differences at interior points, one-sided differences at the ends.
func sampleDerivative(data []float64) []float64 {
	if len(data) < 2 {
		return make([]float64, len(data))
	}
	out := make([]float64, len(data))
	out[0] = data[1] - data[0]
	for i := 1; i < len(data)-1; i++ {
		out[i] = (data[i+1] - data[i-1]) / 2
	}
	last := len(data) - 1
	out[last] = data[last] - data[last-1]
	return out
}

func mean(data []float64) float64 {
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}
