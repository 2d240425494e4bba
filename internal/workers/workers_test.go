package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")
	available := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{name: "CPU-bound", multiplier: 1.0, limit: 0, minExpect: 1, maxExpect: available},
		{name: "I/O-bound", multiplier: 2.0, limit: 0, minExpect: 1, maxExpect: available * 2},
		{name: "Limit caps result", multiplier: 2.0, limit: 2, minExpect: 1, maxExpect: 2},
		{name: "Tiny multiplier still yields one", multiplier: 0.01, limit: 0, minExpect: 1, maxExpect: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < tt.minExpect || got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, want in [%d, %d]", tt.multiplier, tt.limit, got, tt.minExpect, tt.maxExpect)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		limit    int
		expected int
	}{
		{name: "Override used", env: "3", limit: 0, expected: 3},
		{name: "Override capped", env: "12", limit: 4, expected: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.env)
			if got := Count(1.0, tt.limit); got != tt.expected {
				t.Errorf("Count() = %d, want %d", got, tt.expected)
			}
		})
	}

	t.Run("Invalid override ignored", func(t *testing.T) {
		t.Setenv(EnvOverride, "-2")
		if got := ForCPU(1); got != 1 {
			t.Errorf("ForCPU(1) = %d, want 1", got)
		}
	})
}

func TestForIOAtLeastForCPU(t *testing.T) {
	t.Setenv(EnvOverride, "")
	if ForIO(0) < ForCPU(0) {
		t.Errorf("ForIO() = %d < ForCPU() = %d", ForIO(0), ForCPU(0))
	}
}
