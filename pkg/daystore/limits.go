package daystore

import "math"

// Bounds applied at write time.
const (
	MinQuantity = 0.25
	MaxQuantity = 50.0

	MinCalorieGoal = 800.0
	MaxCalorieGoal = 5000.0

	MinProtein = 20.0
	MaxProtein = 400.0
	MinCarb    = 20.0
	MaxCarb    = 600.0
	MinFat     = 10.0
	MaxFat     = 250.0

	MaxBurnKcal = 5000.0

	// WaterUnitLitres is the volume of one water unit.
	WaterUnitLitres = 0.25

	// DefaultTargetWeight is the weight the projection aims for.
	DefaultTargetWeight = 72.0
)

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func badNumber(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// finite reports whether every value is a real number.
func finite(vs ...float64) bool {
	for _, v := range vs {
		if badNumber(v) {
			return false
		}
	}
	return true
}

func clampSettings(s Settings) Settings {
	d := DefaultSettings()
	s.CalorieGoal = clampOrDefault(s.CalorieGoal, MinCalorieGoal, MaxCalorieGoal, d.CalorieGoal)
	s.ProteinTarget = clampOrDefault(s.ProteinTarget, MinProtein, MaxProtein, d.ProteinTarget)
	s.CarbTarget = clampOrDefault(s.CarbTarget, MinCarb, MaxCarb, d.CarbTarget)
	s.FatTarget = clampOrDefault(s.FatTarget, MinFat, MaxFat, d.FatTarget)
	return s
}

// clampOrDefault treats non-positive or non-finite values as missing.
func clampOrDefault(v, lo, hi, def float64) float64 {
	if v <= 0 || badNumber(v) {
		return def
	}
	return clamp(v, lo, hi)
}
