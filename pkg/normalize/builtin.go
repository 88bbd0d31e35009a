package normalize

// builtinTable holds hard-coded aliases common enough across vendors that
// they don't belong in any one vendor's spec bundle (spec §4.2 priority
// step 2, ahead of the registry's vendor-sourced aliases).
var builtinTable = map[string]string{
	"rpm":        "RPM",
	"engine_rpm": "RPM",
	"afr":        "AFR",
	"wboafr":     "AFR",
	"tps":        "TPS",
	"throttle":   "TPS",
	"map":        "MAP",
	"iat":        "IntakeAirTemp",
	"clt":        "CoolantTemp",
	"ect":        "CoolantTemp",
	"batt":       "BatteryVoltage",
	"battery":    "BatteryVoltage",
	"vss":        "VehicleSpeed",
	"speed":      "VehicleSpeed",
}
