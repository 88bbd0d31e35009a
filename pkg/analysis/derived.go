package analysis

import (
	"fmt"

	"github.com/ultralog/ultralog/pkg/logmodel"
)

// VolumetricEfficiencyAnalyzer estimates relative volumetric efficiency
// from a speed-density approximation: how much air the engine is ingesting
// compared to standard atmospheric conditions, derived from MAP and IAT.
type VolumetricEfficiencyAnalyzer struct {
	RPMChannel, MAPChannel, IATChannel string
	DisplacementL                      float64
	IsIATKelvin                        bool
}

// NewVolumetricEfficiencyAnalyzer returns a VolumetricEfficiencyAnalyzer
// defaulted to RPM/MAP/IAT channels, a 2.0L displacement, and IAT reported
// in Celsius.
func NewVolumetricEfficiencyAnalyzer() *VolumetricEfficiencyAnalyzer {
	return &VolumetricEfficiencyAnalyzer{
		RPMChannel: "RPM", MAPChannel: "MAP", IATChannel: "IAT",
		DisplacementL: 2.0, IsIATKelvin: false,
	}
}

func (a *VolumetricEfficiencyAnalyzer) ID() string       { return "volumetric_efficiency" }
func (a *VolumetricEfficiencyAnalyzer) Name() string     { return "Volumetric Efficiency" }
func (a *VolumetricEfficiencyAnalyzer) Category() string { return "Derived" }
func (a *VolumetricEfficiencyAnalyzer) Description() string {
	return "Estimates relative volumetric efficiency from a speed-density approximation using MAP and IAT against standard atmospheric conditions."
}
func (a *VolumetricEfficiencyAnalyzer) RequiredChannels() []string {
	return []string{a.RPMChannel, a.MAPChannel, a.IATChannel}
}
func (a *VolumetricEfficiencyAnalyzer) OptionalChannels() []string { return nil }

func (a *VolumetricEfficiencyAnalyzer) Analyze(log *logmodel.Log) (Result, error) {
	rpm, err := requireChannel(log, a.RPMChannel)
	if err != nil {
		return Result{}, err
	}
	mapv, err := requireChannel(log, a.MAPChannel)
	if err != nil {
		return Result{}, err
	}
	iat, err := requireChannel(log, a.IATChannel)
	if err != nil {
		return Result{}, err
	}
	if len(rpm) != len(mapv) || len(mapv) != len(iat) {
		return Result{}, &ComputationError{Msg: "channels have different lengths"}
	}
	if err := requireMinLength(rpm, 2); err != nil {
		return Result{}, err
	}
	if a.DisplacementL <= 0 {
		return Result{}, &InvalidParameterError{Msg: "displacement must be positive"}
	}

	ve, elapsed := timedAnalyze(func() []float64 {
		return computeVolumetricEfficiency(rpm, mapv, iat, a.IsIATKelvin)
	})

	stats := computeDescriptiveStats(ve)

	var warnings []string
	if stats.Max > 150 {
		warnings = append(warnings, fmt.Sprintf("VE exceeds 150%% (max %.1f%%) - check MAP/IAT sensor calibration", stats.Max))
	}
	if stats.Min > 0 && stats.Min < 20 {
		warnings = append(warnings, fmt.Sprintf("VE below 20%% observed (min %.1f%%) - check for sensor fault at idle/low load", stats.Min))
	}

	return Result{
		Name:   "Volumetric Efficiency",
		Unit:   "%",
		Values: ve,
		Meta: Metadata{
			Algorithm: "Speed-density approximation",
			Parameters: []Parameter{
				{Key: "mean_ve", Value: fmt.Sprintf("%.1f%%", stats.Mean)},
				{Key: "max_ve", Value: fmt.Sprintf("%.1f%%", stats.Max)},
				{Key: "displacement_l", Value: fmt.Sprintf("%.1f", a.DisplacementL)},
			},
			Warnings:        warnings,
			ComputationTime: elapsed,
		},
	}, nil
}

func (a *VolumetricEfficiencyAnalyzer) Config() map[string]string {
	return map[string]string{
		"rpm_channel":     a.RPMChannel,
		"map_channel":     a.MAPChannel,
		"iat_channel":     a.IATChannel,
		"displacement_l":  fmt.Sprint(a.DisplacementL),
		"is_iat_kelvin":   fmt.Sprint(a.IsIATKelvin),
	}
}

func (a *VolumetricEfficiencyAnalyzer) SetConfig(params map[string]string) {
	if v, ok := params["rpm_channel"]; ok {
		a.RPMChannel = v
	}
	if v, ok := params["map_channel"]; ok {
		a.MAPChannel = v
	}
	if v, ok := params["iat_channel"]; ok {
		a.IATChannel = v
	}
	if v, ok := params["displacement_l"]; ok {
		if f, err := parseFloat(v); err == nil {
			a.DisplacementL = f
		}
	}
	if v, ok := params["is_iat_kelvin"]; ok {
		if b, err := parseBool(v); err == nil {
			a.IsIATKelvin = b
		}
	}
}

// InjectorDutyCycleAnalyzer computes injector duty cycle from pulse width
// and RPM, flagging when injectors approach or exceed their fueling
// capacity.
type InjectorDutyCycleAnalyzer struct {
	PulseWidthChannel, RPMChannel string
}

// NewInjectorDutyCycleAnalyzer returns an InjectorDutyCycleAnalyzer
// defaulted to reading injector pulse width from "IPW" and RPM from "RPM".
func NewInjectorDutyCycleAnalyzer() *InjectorDutyCycleAnalyzer {
	return &InjectorDutyCycleAnalyzer{PulseWidthChannel: "IPW", RPMChannel: "RPM"}
}

func (a *InjectorDutyCycleAnalyzer) ID() string       { return "injector_duty_cycle" }
func (a *InjectorDutyCycleAnalyzer) Name() string     { return "Injector Duty Cycle" }
func (a *InjectorDutyCycleAnalyzer) Category() string { return "Derived" }
func (a *InjectorDutyCycleAnalyzer) Description() string {
	return "Calculates injector duty cycle (%) from pulse width and RPM. Formula: IDC = (PW_ms × RPM) / 1200 for 4-stroke engines. Warning issued above 80% (traditional) or 95% (high-performance)."
}
func (a *InjectorDutyCycleAnalyzer) RequiredChannels() []string {
	return []string{a.PulseWidthChannel, a.RPMChannel}
}
func (a *InjectorDutyCycleAnalyzer) OptionalChannels() []string { return nil }

func (a *InjectorDutyCycleAnalyzer) Analyze(log *logmodel.Log) (Result, error) {
	pw, err := requireChannel(log, a.PulseWidthChannel)
	if err != nil {
		return Result{}, err
	}
	rpm, err := requireChannel(log, a.RPMChannel)
	if err != nil {
		return Result{}, err
	}
	if len(pw) != len(rpm) {
		return Result{}, &ComputationError{Msg: "channels have different lengths"}
	}
	if err := requireMinLength(pw, 2); err != nil {
		return Result{}, err
	}

	idc, elapsed := timedAnalyze(func() []float64 { return computeInjectorDutyCycle(pw, rpm) })

	var above80, above95, at100 int
	for _, v := range idc {
		switch {
		case v >= 100:
			at100++
		case v > 95:
			above95++
		case v > 80:
			above80++
		}
	}
	total := len(idc)

	var warnings []string
	switch {
	case at100 > 0:
		warnings = append(warnings, fmt.Sprintf(
			"CRITICAL: injectors at 100%% duty cycle (%.1f%% of time) - fueling capacity exceeded, engine running lean!",
			100*float64(at100)/float64(total)))
	case above95 > 0:
		warnings = append(warnings, fmt.Sprintf(
			"high duty cycle (>95%%) detected (%.1f%% of time) - approaching injector limits",
			100*float64(above95)/float64(total)))
	case above80 > total/10:
		warnings = append(warnings, fmt.Sprintf(
			"elevated duty cycle (>80%%) for %.1f%% of samples - consider larger injectors for additional power",
			100*float64(above80)/float64(total)))
	}

	stats := computeDescriptiveStats(idc)

	return Result{
		Name:   "Injector Duty Cycle",
		Unit:   "%",
		Values: idc,
		Meta: Metadata{
			Algorithm: "PW × RPM / 1200",
			Parameters: []Parameter{
				{Key: "mean_idc", Value: fmt.Sprintf("%.1f%%", stats.Mean)},
				{Key: "max_idc", Value: fmt.Sprintf("%.1f%%", stats.Max)},
				{Key: "samples_above_80", Value: fmt.Sprint(above80)},
				{Key: "samples_above_95", Value: fmt.Sprint(above95)},
			},
			Warnings:        warnings,
			ComputationTime: elapsed,
		},
	}, nil
}

func (a *InjectorDutyCycleAnalyzer) Config() map[string]string {
	return map[string]string{"pulse_width_channel": a.PulseWidthChannel, "rpm_channel": a.RPMChannel}
}

func (a *InjectorDutyCycleAnalyzer) SetConfig(params map[string]string) {
	if v, ok := params["pulse_width_channel"]; ok {
		a.PulseWidthChannel = v
	}
	if v, ok := params["rpm_channel"]; ok {
		a.RPMChannel = v
	}
}

// LambdaCalculator converts an AFR channel to lambda (λ = AFR / stoich),
// which normalizes fueling across fuels with different stoichiometric
// ratios.
type LambdaCalculator struct {
	AFRChannel string
	StoichAFR  float64
}

// NewLambdaCalculator returns a LambdaCalculator defaulted to converting
// "AFR" with a gasoline stoichiometric ratio of 14.7.
func NewLambdaCalculator() *LambdaCalculator {
	return &LambdaCalculator{AFRChannel: "AFR", StoichAFR: 14.7}
}

func (a *LambdaCalculator) ID() string       { return "lambda_calculator" }
func (a *LambdaCalculator) Name() string     { return "Lambda Calculator" }
func (a *LambdaCalculator) Category() string { return "Derived" }
func (a *LambdaCalculator) Description() string {
	return "Converts AFR to Lambda (λ = AFR / Stoich). Lambda of 1.0 = stoichiometric. Useful for comparing fueling across different fuel types."
}
func (a *LambdaCalculator) RequiredChannels() []string { return []string{a.AFRChannel} }
func (a *LambdaCalculator) OptionalChannels() []string { return nil }

func (a *LambdaCalculator) Analyze(log *logmodel.Log) (Result, error) {
	afr, err := requireChannel(log, a.AFRChannel)
	if err != nil {
		return Result{}, err
	}
	if err := requireMinLength(afr, 2); err != nil {
		return Result{}, err
	}
	if a.StoichAFR <= 0 {
		return Result{}, &InvalidParameterError{Msg: "stoichiometric AFR must be positive"}
	}

	lambda, elapsed := timedAnalyze(func() []float64 {
		out := make([]float64, len(afr))
		for i, v := range afr {
			out[i] = v / a.StoichAFR
		}
		return out
	})

	stats := computeDescriptiveStats(lambda)

	var warnings []string
	if stats.Min < 0.7 {
		warnings = append(warnings, fmt.Sprintf("very rich lambda detected (min %.2f) - check for flooding or over-fueling conditions", stats.Min))
	}
	if stats.Max > 1.3 {
		warnings = append(warnings, fmt.Sprintf("very lean lambda detected (max %.2f) - risk of detonation, check fueling", stats.Max))
	}

	return Result{
		Name:   "Lambda",
		Unit:   "λ",
		Values: lambda,
		Meta: Metadata{
			Algorithm: "AFR / Stoich",
			Parameters: []Parameter{
				{Key: "stoich_afr", Value: fmt.Sprintf("%.1f", a.StoichAFR)},
				{Key: "mean_lambda", Value: fmt.Sprintf("%.3f", stats.Mean)},
				{Key: "min_lambda", Value: fmt.Sprintf("%.3f", stats.Min)},
				{Key: "max_lambda", Value: fmt.Sprintf("%.3f", stats.Max)},
			},
			Warnings:        warnings,
			ComputationTime: elapsed,
		},
	}, nil
}

func (a *LambdaCalculator) Config() map[string]string {
	return map[string]string{"afr_channel": a.AFRChannel, "stoich_afr": fmt.Sprint(a.StoichAFR)}
}

func (a *LambdaCalculator) SetConfig(params map[string]string) {
	if v, ok := params["afr_channel"]; ok {
		a.AFRChannel = v
	}
	if v, ok := params["stoich_afr"]; ok {
		if f, err := parseFloat(v); err == nil {
			a.StoichAFR = f
		}
	}
}

// referencePressureKPa and referenceTemperatureK are standard atmospheric
// conditions (1 atm, 25°C), the baseline computeVolumetricEfficiency
// measures against.
const (
	referencePressureKPa  = 101.325
	referenceTemperatureK = 298.0
)

// computeVolumetricEfficiency estimates relative VE%: how much air the
// cylinder is filling with compared to standard atmospheric conditions,
// from manifold absolute pressure and intake air temperature. It is a
// simplified speed-density model; a MAF-based calculation would be more
// accurate where a mass airflow sensor is present.
func computeVolumetricEfficiency(rpm, mapKPa, iat []float64, isIATKelvin bool) []float64 {
	out := make([]float64, len(rpm))
	for i := range rpm {
		tKelvin := iat[i]
		if !isIATKelvin {
			tKelvin += 273.15
		}
		if rpm[i] <= 0 || tKelvin <= 0 {
			continue
		}
		ve := (mapKPa[i] / referencePressureKPa) * (referenceTemperatureK / tKelvin) * 100
		if ve > 0 {
			out[i] = ve
		}
	}
	return out
}

// computeInjectorDutyCycle returns IDC% = (pulseWidth_ms × RPM) / 1200 for
// a 4-stroke engine, where each injector fires once per two revolutions.
func computeInjectorDutyCycle(pulseWidth, rpm []float64) []float64 {
	out := make([]float64, len(pulseWidth))
	for i := range pulseWidth {
		if rpm[i] <= 0 {
			continue
		}
		idc := (pulseWidth[i] * rpm[i]) / 1200
		if idc < 0 {
			idc = 0
		}
		if idc > 100 {
			idc = 100
		}
		out[i] = idc
	}
	return out
}
