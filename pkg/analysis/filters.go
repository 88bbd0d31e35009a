package analysis

import (
	"fmt"
	"sort"

	"github.com/ultralog/ultralog/pkg/logmodel"
)

// MovingAverageAnalyzer smooths a channel with a simple moving average
// over its last WindowSize samples.
type MovingAverageAnalyzer struct {
	Channel    string
	WindowSize int
}

// NewMovingAverageAnalyzer returns a MovingAverageAnalyzer defaulted to
// smoothing RPM over a 5-sample window.
func NewMovingAverageAnalyzer() *MovingAverageAnalyzer {
	return &MovingAverageAnalyzer{Channel: "RPM", WindowSize: 5}
}

func (a *MovingAverageAnalyzer) ID() string       { return "moving_average" }
func (a *MovingAverageAnalyzer) Name() string     { return "Moving Average" }
func (a *MovingAverageAnalyzer) Category() string { return "Filters" }
func (a *MovingAverageAnalyzer) Description() string {
	return "Simple moving average filter for smoothing noisy signals. Averages the last N samples to reduce high-frequency noise."
}
func (a *MovingAverageAnalyzer) RequiredChannels() []string { return []string{a.Channel} }
func (a *MovingAverageAnalyzer) OptionalChannels() []string { return nil }

func (a *MovingAverageAnalyzer) Analyze(log *logmodel.Log) (Result, error) {
	data, err := requireChannel(log, a.Channel)
	if err != nil {
		return Result{}, err
	}
	if err := requireMinLength(data, a.WindowSize); err != nil {
		return Result{}, err
	}

	values, elapsed := timedAnalyze(func() []float64 { return movingAverage(data, a.WindowSize) })

	return Result{
		Name:   fmt.Sprintf("%s (MA%d)", a.Channel, a.WindowSize),
		Values: values,
		Meta: Metadata{
			Algorithm: "Simple Moving Average",
			Parameters: []Parameter{
				{Key: "window_size", Value: fmt.Sprint(a.WindowSize)},
				{Key: "channel", Value: a.Channel},
			},
			ComputationTime: elapsed,
		},
	}, nil
}

func (a *MovingAverageAnalyzer) Config() map[string]string {
	return map[string]string{"channel": a.Channel, "window_size": fmt.Sprint(a.WindowSize)}
}

func (a *MovingAverageAnalyzer) SetConfig(params map[string]string) {
	if v, ok := params["channel"]; ok {
		a.Channel = v
	}
	if v, ok := params["window_size"]; ok {
		if n, err := parseInt(v); err == nil {
			a.WindowSize = n
		}
	}
}

// ExponentialMovingAverageAnalyzer smooths a channel with a single-pole
// exponentially weighted moving average: more recent samples carry more
// weight, controlled by Alpha.
type ExponentialMovingAverageAnalyzer struct {
	Channel string
	Alpha   float64
}

// NewExponentialMovingAverageAnalyzer returns an
// ExponentialMovingAverageAnalyzer defaulted to smoothing RPM with
// alpha=0.2 (roughly equivalent to a 9-sample simple moving average).
func NewExponentialMovingAverageAnalyzer() *ExponentialMovingAverageAnalyzer {
	return &ExponentialMovingAverageAnalyzer{Channel: "RPM", Alpha: 0.2}
}

func (a *ExponentialMovingAverageAnalyzer) ID() string       { return "exponential_moving_average" }
func (a *ExponentialMovingAverageAnalyzer) Name() string     { return "Exponential Moving Average" }
func (a *ExponentialMovingAverageAnalyzer) Category() string { return "Filters" }
func (a *ExponentialMovingAverageAnalyzer) Description() string {
	return "Exponentially weighted moving average filter. More recent samples have higher weight. Alpha parameter controls smoothing (0.1=heavy, 0.5=light)."
}
func (a *ExponentialMovingAverageAnalyzer) RequiredChannels() []string {
	return []string{a.Channel}
}
func (a *ExponentialMovingAverageAnalyzer) OptionalChannels() []string { return nil }

func (a *ExponentialMovingAverageAnalyzer) Analyze(log *logmodel.Log) (Result, error) {
	data, err := requireChannel(log, a.Channel)
	if err != nil {
		return Result{}, err
	}
	if err := requireMinLength(data, 2); err != nil {
		return Result{}, err
	}
	if a.Alpha <= 0 || a.Alpha > 1 {
		return Result{}, &InvalidParameterError{Msg: "alpha must be between 0 and 1"}
	}

	values, elapsed := timedAnalyze(func() []float64 { return exponentialMovingAverage(data, a.Alpha) })

	return Result{
		Name:   fmt.Sprintf("%s (EMA α=%.2f)", a.Channel, a.Alpha),
		Values: values,
		Meta: Metadata{
			Algorithm: "Exponential Moving Average",
			Parameters: []Parameter{
				{Key: "alpha", Value: fmt.Sprintf("%.3f", a.Alpha)},
				{Key: "channel", Value: a.Channel},
			},
			ComputationTime: elapsed,
		},
	}, nil
}

func (a *ExponentialMovingAverageAnalyzer) Config() map[string]string {
	return map[string]string{"channel": a.Channel, "alpha": fmt.Sprint(a.Alpha)}
}

func (a *ExponentialMovingAverageAnalyzer) SetConfig(params map[string]string) {
	if v, ok := params["channel"]; ok {
		a.Channel = v
	}
	if v, ok := params["alpha"]; ok {
		if f, err := parseFloat(v); err == nil {
			a.Alpha = f
		}
	}
}

// MedianFilterAnalyzer replaces each sample with the median of its
// neighbors, removing impulse noise while preserving edges better than
// averaging does.
type MedianFilterAnalyzer struct {
	Channel    string
	WindowSize int
}

// NewMedianFilterAnalyzer returns a MedianFilterAnalyzer defaulted to
// filtering RPM over a 5-sample window.
func NewMedianFilterAnalyzer() *MedianFilterAnalyzer {
	return &MedianFilterAnalyzer{Channel: "RPM", WindowSize: 5}
}

func (a *MedianFilterAnalyzer) ID() string       { return "median_filter" }
func (a *MedianFilterAnalyzer) Name() string     { return "Median Filter" }
func (a *MedianFilterAnalyzer) Category() string { return "Filters" }
func (a *MedianFilterAnalyzer) Description() string {
	return "Median filter for removing impulse noise (spikes). Replaces each value with the median of neighboring samples. Preserves edges better than averaging."
}
func (a *MedianFilterAnalyzer) RequiredChannels() []string { return []string{a.Channel} }
func (a *MedianFilterAnalyzer) OptionalChannels() []string { return nil }

func (a *MedianFilterAnalyzer) Analyze(log *logmodel.Log) (Result, error) {
	data, err := requireChannel(log, a.Channel)
	if err != nil {
		return Result{}, err
	}
	if err := requireMinLength(data, a.WindowSize); err != nil {
		return Result{}, err
	}

	window := a.WindowSize
	if window%2 == 0 {
		window++
	}

	values, elapsed := timedAnalyze(func() []float64 { return medianFilter(data, window) })

	var warnings []string
	if a.WindowSize%2 == 0 {
		warnings = append(warnings, fmt.Sprintf("window size adjusted from %d to %d (must be odd)", a.WindowSize, window))
	}

	return Result{
		Name:   fmt.Sprintf("%s (Median%d)", a.Channel, window),
		Values: values,
		Meta: Metadata{
			Algorithm: "Median Filter",
			Parameters: []Parameter{
				{Key: "window_size", Value: fmt.Sprint(window)},
				{Key: "channel", Value: a.Channel},
			},
			Warnings:        warnings,
			ComputationTime: elapsed,
		},
	}, nil
}

func (a *MedianFilterAnalyzer) Config() map[string]string {
	return map[string]string{"channel": a.Channel, "window_size": fmt.Sprint(a.WindowSize)}
}

func (a *MedianFilterAnalyzer) SetConfig(params map[string]string) {
	if v, ok := params["channel"]; ok {
		a.Channel = v
	}
	if v, ok := params["window_size"]; ok {
		if n, err := parseInt(v); err == nil {
			a.WindowSize = n
		}
	}
}

// movingAverage returns the running mean of data over a trailing window of
// at most windowSize samples: the window grows from one sample at i=0 up
// to windowSize, then slides.
func movingAverage(data []float64, windowSize int) []float64 {
	if len(data) == 0 || windowSize <= 0 {
		return append([]float64(nil), data...)
	}

	out := make([]float64, len(data))
	sum := 0.0
	window := make([]float64, 0, windowSize)

	for i, v := range data {
		window = append(window, v)
		sum += v
		if len(window) > windowSize {
			sum -= window[0]
			window = window[1:]
		}
		out[i] = sum / float64(len(window))
	}
	return out
}

// exponentialMovingAverage returns data's single-pole IIR smoothing: each
// output sample blends alpha of the new value with (1-alpha) of the
// previous output, seeded from data's first value.
func exponentialMovingAverage(data []float64, alpha float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	out := make([]float64, len(data))
	ema := data[0]
	for i, v := range data {
		ema = alpha*v + (1-alpha)*ema
		out[i] = ema
	}
	return out
}

// medianFilter replaces each sample with the median of the windowSize
// samples centered on it, truncating the window near either edge of data.
func medianFilter(data []float64, windowSize int) []float64 {
	if len(data) == 0 || windowSize <= 0 {
		return append([]float64(nil), data...)
	}

	half := windowSize / 2
	out := make([]float64, len(data))
	buf := make([]float64, 0, windowSize)

	for i := range data {
		start := i - half
		if start < 0 {
			start = 0
		}
		end := i + half + 1
		if end > len(data) {
			end = len(data)
		}

		buf = append(buf[:0], data[start:end]...)
		sort.Float64s(buf)

		n := len(buf)
		if n%2 == 0 {
			out[i] = (buf[n/2-1] + buf[n/2]) / 2
		} else {
			out[i] = buf[n/2]
		}
	}
	return out
}
