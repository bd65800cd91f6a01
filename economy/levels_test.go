// ABOUTME: Tests for the level requirement curve
// ABOUTME: Verifies monotonicity, the MaxLevel cap, and biome unlock gating
package economy

import (
	"testing"
)

func TestXPRequiredForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{0, 0},
		{-3, 0},
		{1, 100},
		{4, 800},
		{MaxLevel, 35356}, // ceil(100 * 50^1.5)
	}

	for _, tt := range tests {
		if got := XPRequiredForLevel(tt.level); got != tt.want {
			t.Errorf("XPRequiredForLevel(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestCurveIsConvex(t *testing.T) {
	// Each level band must be at least as wide as the previous one.
	prevBand := 0
	for level := 1; level < MaxLevel; level++ {
		band := XPRequiredForLevel(level+1) - XPRequiredForLevel(level)
		if band < prevBand {
			t.Fatalf("Band for level %d (%d XP) narrower than previous (%d XP)", level, band, prevBand)
		}
		prevBand = band
	}
}

func TestLevelForXPMonotonic(t *testing.T) {
	prev := 0
	for xp := 0; xp <= XPRequiredForLevel(MaxLevel)+1000; xp += 37 {
		level := LevelForXP(xp)
		if level < prev {
			t.Fatalf("LevelForXP(%d) = %d, below previous %d", xp, level, prev)
		}
		if level > MaxLevel {
			t.Fatalf("LevelForXP(%d) = %d exceeds MaxLevel", xp, level)
		}
		prev = level
	}
}

func TestLevelForXPMatchesThresholds(t *testing.T) {
	for level := 1; level <= MaxLevel; level++ {
		req := XPRequiredForLevel(level)
		if got := LevelForXP(req); got != level {
			t.Errorf("LevelForXP(%d) = %d, want %d (exact threshold)", req, got, level)
		}
		if got := LevelForXP(req - 1); got != level-1 {
			t.Errorf("LevelForXP(%d) = %d, want %d (one below threshold)", req-1, got, level-1)
		}
	}
}

func TestLevelForXPNegative(t *testing.T) {
	if got := LevelForXP(-500); got != 0 {
		t.Errorf("LevelForXP(-500) = %d, want 0", got)
	}
}

func TestBiomeAvailability(t *testing.T) {
	if !BiomeAvailable(DefaultBiome, 0) {
		t.Error("Default biome must be available at level 0")
	}
	if BiomeAvailable("forest", 4) {
		t.Error("forest should be locked below level 5")
	}
	if !BiomeAvailable("forest", 5) {
		t.Error("forest should unlock at level 5")
	}
	if BiomeAvailable("atlantis", MaxLevel) {
		t.Error("Unknown biome should never be available")
	}

	biomes := AvailableBiomes(12)
	want := []string{"meadow", "forest", "reef"}
	if len(biomes) != len(want) {
		t.Fatalf("AvailableBiomes(12) = %v, want %v", biomes, want)
	}
	for i := range want {
		if biomes[i] != want[i] {
			t.Errorf("AvailableBiomes(12)[%d] = %s, want %s", i, biomes[i], want[i])
		}
	}
}
