package analysis

import (
	"fmt"
	"math"

	"github.com/ultralog/ultralog/pkg/logmodel"
)

// FuelTrimDriftAnalyzer runs CUSUM (cumulative sum) drift detection over a
// fuel trim channel, flagging gradual drift that can indicate injector
// degradation, air leaks, or sensor aging long before it would trip a
// simple threshold.
type FuelTrimDriftAnalyzer struct {
	Channel string
	// K is the allowable slack, typically 0.5σ: how much deviation from
	// baseline is tolerated before it accumulates toward a flag.
	K float64
	// H is the decision threshold, typically 4-5σ: higher values mean
	// fewer false alarms but slower detection.
	H float64
	// BaselinePct is the percentage of the channel's leading samples used
	// to establish baseline mean and standard deviation.
	BaselinePct float64
}

// NewFuelTrimDriftAnalyzer returns a FuelTrimDriftAnalyzer defaulted to
// watching LTFT with k=2.5, h=20.0, and a 10% baseline window.
func NewFuelTrimDriftAnalyzer() *FuelTrimDriftAnalyzer {
	return &FuelTrimDriftAnalyzer{Channel: "LTFT", K: 2.5, H: 20.0, BaselinePct: 10.0}
}

func (a *FuelTrimDriftAnalyzer) ID() string       { return "fuel_trim_drift" }
func (a *FuelTrimDriftAnalyzer) Name() string     { return "Fuel Trim Drift Detection" }
func (a *FuelTrimDriftAnalyzer) Category() string { return "AFR" }
func (a *FuelTrimDriftAnalyzer) Description() string {
	return "CUSUM algorithm detecting gradual long-term fuel trim drift indicating injector degradation, air leaks, or sensor aging. Returns drift indicator: +1 = rich drift, -1 = lean drift, 0 = normal."
}
func (a *FuelTrimDriftAnalyzer) RequiredChannels() []string { return []string{a.Channel} }
func (a *FuelTrimDriftAnalyzer) OptionalChannels() []string { return nil }

func (a *FuelTrimDriftAnalyzer) Analyze(log *logmodel.Log) (Result, error) {
	data, err := requireChannel(log, a.Channel)
	if err != nil {
		return Result{}, err
	}
	if err := requireMinLength(data, 100); err != nil {
		return Result{}, err
	}

	cusum, elapsed := timedAnalyze(func() cusumResult {
		return cusumDriftDetection(data, a.K, a.H, a.BaselinePct)
	})

	var highDrift, lowDrift int
	for _, v := range cusum.driftFlags {
		switch {
		case v > 0.5:
			highDrift++
		case v < -0.5:
			lowDrift++
		}
	}
	total := len(data)

	var warnings []string
	if highDrift > total/20 {
		warnings = append(warnings, fmt.Sprintf(
			"sustained positive drift detected (%.1f%% of samples) - running rich, check for over-fueling",
			100*float64(highDrift)/float64(total)))
	}
	if lowDrift > total/20 {
		warnings = append(warnings, fmt.Sprintf(
			"sustained negative drift detected (%.1f%% of samples) - running lean, check for air leaks",
			100*float64(lowDrift)/float64(total)))
	}

	return Result{
		Name:   fmt.Sprintf("%s Drift", a.Channel),
		Unit:   "drift",
		Values: cusum.driftFlags,
		Meta: Metadata{
			Algorithm: "CUSUM",
			Parameters: []Parameter{
				{Key: "k", Value: fmt.Sprintf("%.2f", a.K)},
				{Key: "h", Value: fmt.Sprintf("%.2f", a.H)},
				{Key: "baseline_μ", Value: fmt.Sprintf("%.2f%%", cusum.baselineMean)},
				{Key: "baseline_σ", Value: fmt.Sprintf("%.2f%%", cusum.baselineStdev)},
			},
			Warnings:        warnings,
			ComputationTime: elapsed,
		},
	}, nil
}

func (a *FuelTrimDriftAnalyzer) Config() map[string]string {
	return map[string]string{
		"channel":      a.Channel,
		"k":            fmt.Sprint(a.K),
		"h":            fmt.Sprint(a.H),
		"baseline_pct": fmt.Sprint(a.BaselinePct),
	}
}

func (a *FuelTrimDriftAnalyzer) SetConfig(params map[string]string) {
	if v, ok := params["channel"]; ok {
		a.Channel = v
	}
	if v, ok := params["k"]; ok {
		if f, err := parseFloat(v); err == nil {
			a.K = f
		}
	}
	if v, ok := params["h"]; ok {
		if f, err := parseFloat(v); err == nil {
			a.H = f
		}
	}
	if v, ok := params["baseline_pct"]; ok {
		if f, err := parseFloat(v); err == nil {
			a.BaselinePct = f
		}
	}
}

// RichLeanZoneAnalyzer classifies each AFR reading into a rich,
// stoichiometric, or lean zone by its deviation from TargetAFR.
type RichLeanZoneAnalyzer struct {
	Channel                      string
	TargetAFR                    float64
	RichThreshold, LeanThreshold float64
}

// NewRichLeanZoneAnalyzer returns a RichLeanZoneAnalyzer defaulted to
// classifying AFR around a stoichiometric target of 14.7 with ±0.5
// thresholds.
func NewRichLeanZoneAnalyzer() *RichLeanZoneAnalyzer {
	return &RichLeanZoneAnalyzer{Channel: "AFR", TargetAFR: 14.7, RichThreshold: 0.5, LeanThreshold: 0.5}
}

func (a *RichLeanZoneAnalyzer) ID() string       { return "rich_lean_zone" }
func (a *RichLeanZoneAnalyzer) Name() string     { return "Rich/Lean Zone Detection" }
func (a *RichLeanZoneAnalyzer) Category() string { return "AFR" }
func (a *RichLeanZoneAnalyzer) Description() string {
	return "Classifies AFR readings into rich (-1), stoichiometric (0), and lean (+1) zones based on deviation from target AFR. Also computes time spent in each zone."
}
func (a *RichLeanZoneAnalyzer) RequiredChannels() []string { return []string{a.Channel} }
func (a *RichLeanZoneAnalyzer) OptionalChannels() []string { return nil }

func (a *RichLeanZoneAnalyzer) Analyze(log *logmodel.Log) (Result, error) {
	data, err := requireChannel(log, a.Channel)
	if err != nil {
		return Result{}, err
	}
	if err := requireMinLength(data, 10); err != nil {
		return Result{}, err
	}

	richLimit := a.TargetAFR - a.RichThreshold
	leanLimit := a.TargetAFR + a.LeanThreshold

	zones, elapsed := timedAnalyze(func() []float64 {
		out := make([]float64, len(data))
		for i, afr := range data {
			switch {
			case afr < richLimit:
				out[i] = -1
			case afr > leanLimit:
				out[i] = 1
			}
		}
		return out
	})

	var richCount, leanCount, stoichCount int
	for _, z := range zones {
		switch {
		case z < -0.5:
			richCount++
		case z > 0.5:
			leanCount++
		default:
			stoichCount++
		}
	}
	total := float64(len(zones))
	richPct := 100 * float64(richCount) / total
	leanPct := 100 * float64(leanCount) / total
	stoichPct := 100 * float64(stoichCount) / total

	var warnings []string
	if richPct > 30 {
		warnings = append(warnings, fmt.Sprintf("excessive rich operation (%.1f%%) - may indicate over-fueling or cold conditions", richPct))
	}
	if leanPct > 30 {
		warnings = append(warnings, fmt.Sprintf("excessive lean operation (%.1f%%) - check for air leaks or fuel delivery issues", leanPct))
	}

	return Result{
		Name:   fmt.Sprintf("%s Zone", a.Channel),
		Unit:   "zone",
		Values: zones,
		Meta: Metadata{
			Algorithm: "Threshold Classification",
			Parameters: []Parameter{
				{Key: "target_afr", Value: fmt.Sprintf("%.1f", a.TargetAFR)},
				{Key: "rich_limit", Value: fmt.Sprintf("%.1f", richLimit)},
				{Key: "lean_limit", Value: fmt.Sprintf("%.1f", leanLimit)},
				{Key: "rich_pct", Value: fmt.Sprintf("%.1f%%", richPct)},
				{Key: "stoich_pct", Value: fmt.Sprintf("%.1f%%", stoichPct)},
				{Key: "lean_pct", Value: fmt.Sprintf("%.1f%%", leanPct)},
			},
			Warnings:        warnings,
			ComputationTime: elapsed,
		},
	}, nil
}

func (a *RichLeanZoneAnalyzer) Config() map[string]string {
	return map[string]string{
		"channel":        a.Channel,
		"target_afr":     fmt.Sprint(a.TargetAFR),
		"rich_threshold": fmt.Sprint(a.RichThreshold),
		"lean_threshold": fmt.Sprint(a.LeanThreshold),
	}
}

func (a *RichLeanZoneAnalyzer) SetConfig(params map[string]string) {
	if v, ok := params["channel"]; ok {
		a.Channel = v
	}
	if v, ok := params["target_afr"]; ok {
		if f, err := parseFloat(v); err == nil {
			a.TargetAFR = f
		}
	}
	if v, ok := params["rich_threshold"]; ok {
		if f, err := parseFloat(v); err == nil {
			a.RichThreshold = f
		}
	}
	if v, ok := params["lean_threshold"]; ok {
		if f, err := parseFloat(v); err == nil {
			a.LeanThreshold = f
		}
	}
}

// AfrDeviationAnalyzer computes each sample's percentage deviation from a
// target AFR, for use in fuel table correction calculations.
type AfrDeviationAnalyzer struct {
	Channel   string
	TargetAFR float64
}

// NewAfrDeviationAnalyzer returns an AfrDeviationAnalyzer defaulted to
// measuring deviation from a stoichiometric target of 14.7.
func NewAfrDeviationAnalyzer() *AfrDeviationAnalyzer {
	return &AfrDeviationAnalyzer{Channel: "AFR", TargetAFR: 14.7}
}

func (a *AfrDeviationAnalyzer) ID() string       { return "afr_deviation" }
func (a *AfrDeviationAnalyzer) Name() string     { return "AFR Deviation %" }
func (a *AfrDeviationAnalyzer) Category() string { return "AFR" }
func (a *AfrDeviationAnalyzer) Description() string {
	return "Computes percentage deviation from target AFR. Positive = lean, negative = rich. Useful for determining fuel table corrections."
}
func (a *AfrDeviationAnalyzer) RequiredChannels() []string { return []string{a.Channel} }
func (a *AfrDeviationAnalyzer) OptionalChannels() []string { return nil }

func (a *AfrDeviationAnalyzer) Analyze(log *logmodel.Log) (Result, error) {
	data, err := requireChannel(log, a.Channel)
	if err != nil {
		return Result{}, err
	}
	if err := requireMinLength(data, 2); err != nil {
		return Result{}, err
	}
	if a.TargetAFR <= 0 {
		return Result{}, &InvalidParameterError{Msg: "target AFR must be positive"}
	}

	deviations, elapsed := timedAnalyze(func() []float64 {
		out := make([]float64, len(data))
		for i, afr := range data {
			out[i] = ((afr - a.TargetAFR) / a.TargetAFR) * 100
		}
		return out
	})

	stats := computeDescriptiveStats(deviations)

	var warnings []string
	if math.Abs(stats.Mean) > 5 {
		direction := "rich"
		if stats.Mean > 0 {
			direction = "lean"
		}
		warnings = append(warnings, fmt.Sprintf("significant average %s bias (%.1f%%) - consider fuel table adjustment", direction, stats.Mean))
	}
	if stats.Stdev > 10 {
		warnings = append(warnings, fmt.Sprintf("high AFR variability (σ=%.1f%%) - check sensor or tune stability", stats.Stdev))
	}

	return Result{
		Name:   fmt.Sprintf("%s Deviation", a.Channel),
		Unit:   "%",
		Values: deviations,
		Meta: Metadata{
			Algorithm: "Percentage Deviation",
			Parameters: []Parameter{
				{Key: "target_afr", Value: fmt.Sprintf("%.1f", a.TargetAFR)},
				{Key: "mean_deviation", Value: fmt.Sprintf("%.2f%%", stats.Mean)},
				{Key: "stdev", Value: fmt.Sprintf("%.2f%%", stats.Stdev)},
				{Key: "max_deviation", Value: fmt.Sprintf("%.2f%%", stats.Max)},
				{Key: "min_deviation", Value: fmt.Sprintf("%.2f%%", stats.Min)},
			},
			Warnings:        warnings,
			ComputationTime: elapsed,
		},
	}, nil
}

func (a *AfrDeviationAnalyzer) Config() map[string]string {
	return map[string]string{"channel": a.Channel, "target_afr": fmt.Sprint(a.TargetAFR)}
}

func (a *AfrDeviationAnalyzer) SetConfig(params map[string]string) {
	if v, ok := params["channel"]; ok {
		a.Channel = v
	}
	if v, ok := params["target_afr"]; ok {
		if f, err := parseFloat(v); err == nil {
			a.TargetAFR = f
		}
	}
}

// cusumResult is the output of cusumDriftDetection.
type cusumResult struct {
	driftFlags                  []float64
	baselineMean, baselineStdev float64
}

// cusumDriftDetection detects gradual shifts away from a baseline mean
// computed from data's leading baselinePct of samples. k is the allowable
// slack and h the decision threshold, both expressed in the channel's own
// units; a flag resets its running sum once it fires, so it marks each
// drift event rather than staying pinned once triggered.
func cusumDriftDetection(data []float64, k, h, baselinePct float64) cusumResult {
	if len(data) == 0 {
		return cusumResult{baselineStdev: 1}
	}

	baselineLen := int(float64(len(data)) * baselinePct / 100)
	if baselineLen < 10 {
		baselineLen = 10
	}
	if baselineLen > len(data) {
		baselineLen = len(data)
	}
	baseline := data[:baselineLen]

	baselineMean := mean(baseline)
	variance := 0.0
	for _, v := range baseline {
		d := v - baselineMean
		variance += d * d
	}
	denom := len(baseline) - 1
	if denom < 1 {
		denom = 1
	}
	baselineStdev := math.Sqrt(variance / float64(denom))
	if baselineStdev < 0.001 {
		baselineStdev = 0.001
	}

	flags := make([]float64, len(data))
	sHigh, sLow := 0.0, 0.0
	for i, x := range data {
		sHigh = math.Max(sHigh+(x-baselineMean)-k, 0)
		sLow = math.Max(sLow+(-x+baselineMean)-k, 0)

		switch {
		case sHigh > h:
			flags[i] = 1
		case sLow > h:
			flags[i] = -1
		}

		if sHigh > h {
			sHigh = 0
		}
		if sLow > h {
			sLow = 0
		}
	}

	return cusumResult{driftFlags: flags, baselineMean: baselineMean, baselineStdev: baselineStdev}
}
