// ABOUTME: Level requirement curve and biome unlock tables
// ABOUTME: Level is always a pure function of total XP, capped at MaxLevel
package economy

import "math"

const (
	// XPRequiredCoef scales the level curve: XP_req = 100 * (Level^1.5).
	XPRequiredCoef = 100.0

	// MaxLevel caps level progression; XP keeps accumulating past it.
	MaxLevel = 50
)

// XPRequiredForLevel returns the total XP threshold required to be at the
// given level. Level 0 requires 0 XP.
func XPRequiredForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	req := XPRequiredCoef * math.Pow(float64(level), 1.5)
	// Use ceil so floating point rounding never makes a threshold easier.
	return int(math.Ceil(req))
}

// LevelForXP returns the highest level L such that totalXP >= XPRequiredForLevel(L),
// clamped to [0, MaxLevel]. Monotonic non-decreasing in totalXP.
func LevelForXP(totalXP int) int {
	if totalXP <= 0 {
		return 0
	}
	if totalXP >= XPRequiredForLevel(MaxLevel) {
		return MaxLevel
	}

	// Exponential search upper bound, then binary search.
	low := 0
	high := 1
	for high < MaxLevel && XPRequiredForLevel(high) <= totalXP {
		low = high
		high *= 2
	}
	if high > MaxLevel {
		high = MaxLevel
	}

	for low+1 < high {
		mid := low + (high-low)/2
		if XPRequiredForLevel(mid) <= totalXP {
			low = mid
		} else {
			high = mid
		}
	}
	return low
}

// DefaultBiome is every new player's starting biome.
const DefaultBiome = "meadow"

// biomeUnlocks maps each biome to the level that unlocks it.
var biomeUnlocks = []struct {
	Level int
	Biome string
}{
	{0, "meadow"},
	{5, "forest"},
	{12, "reef"},
	{20, "tundra"},
	{30, "volcano"},
	{40, "aurora"},
}

// AvailableBiomes returns the biomes unlocked at the given level, in unlock order.
func AvailableBiomes(level int) []string {
	var biomes []string
	for _, u := range biomeUnlocks {
		if level >= u.Level {
			biomes = append(biomes, u.Biome)
		}
	}
	return biomes
}

// BiomeAvailable reports whether the biome is unlocked at the given level.
func BiomeAvailable(biome string, level int) bool {
	for _, u := range biomeUnlocks {
		if u.Biome == biome {
			return level >= u.Level
		}
	}
	return false
}
