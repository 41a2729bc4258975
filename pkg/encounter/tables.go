package encounter

import "strings"

// FallbackBiomeChance is the base chance for biomes missing from the table.
const FallbackBiomeChance = 0.06

var biomeChances = map[string]float64{
	"PLAINS":    0.05,
	"FOREST":    0.08,
	"DESERT":    0.10,
	"MOUNTAINS": 0.09,
	"SWAMP":     0.12,
	"RUINS":     0.15,
	"URBAN":     0.07,
}

var weatherModifiers = map[string]float64{
	"CLEAR":   1.0,
	"CLOUDY":  1.0,
	"RAIN":    1.25,
	"FOG":     1.5,
	"STORM":   1.75,
	"ASHFALL": 2.0,
}

// BiomeChance returns the per-tick base event chance for a biome.
func BiomeChance(biome string) float64 {
	if chance, ok := biomeChances[strings.ToUpper(biome)]; ok {
		return chance
	}
	return FallbackBiomeChance
}

// WeatherModifier returns the chance multiplier for a weather condition.
// Unknown weather is neutral.
func WeatherModifier(weather string) float64 {
	if mod, ok := weatherModifiers[strings.ToUpper(weather)]; ok {
		return mod
	}
	return 1.0
}
