package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/plantsim/environment"
	"github.com/pthm-cable/plantsim/nutrient"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistribution(t *testing.T) {
	values := []float64{1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1}
	mean, std, p10, p50, p90 := ComputeDistribution(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	// Population std of 0.1..1.0 is sqrt(0.0825).
	if math.Abs(std-math.Sqrt(0.0825)) > 0.001 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(0.0825))
	}
	if math.Abs(p10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", p10)
	}
	if math.Abs(p50-0.55) > 0.01 {
		t.Errorf("p50 = %v, want ~0.55", p50)
	}
	if math.Abs(p90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", p90)
	}

	// Input must not be reordered.
	if values[0] != 1.0 {
		t.Error("ComputeDistribution sorted its input")
	}
}

func TestComputeDistributionEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeDistribution(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestCollector_Flush(t *testing.T) {
	c := NewCollector(10)

	c.RecordBirths(3)
	c.RecordBirths(2)
	c.RecordDeath(true)
	c.RecordDeath(false)
	c.RecordDeath(false)
	c.RecordSeedsDropped(7)

	if c.ShouldFlush(9) {
		t.Error("should not flush before the window ends")
	}
	if !c.ShouldFlush(10) {
		t.Error("should flush at the window end")
	}

	var soil environment.Summary
	soil.MeanMoisture = 0.4
	soil.MeanNutrient[nutrient.Potassium] = 0.25
	soil.MaxNutrient = nutrient.Rates{0.1, 0.9, 0.3, 0.2}

	s := c.Flush(10, Sample{
		Population: 4,
		Species:    2,
		States:     StateCounts{Seed: 1, Vegetative: 2, Fruiting: 1},
		Energies:   []float64{10, 20, 30, 40},
		Organs:     []float64{1, 3},
		Soil:       soil,
	})

	if s.Births != 5 || s.Deaths != 3 || s.Starved != 1 || s.Senesced != 2 || s.SeedsDropped != 7 {
		t.Errorf("events = births %d deaths %d starved %d old_age %d dropped %d",
			s.Births, s.Deaths, s.Starved, s.Senesced, s.SeedsDropped)
	}
	if s.Germinating != 1 || s.Vegetative != 2 || s.Fruiting != 1 {
		t.Errorf("states = %+v", s)
	}
	if s.EnergyMean != 25 || s.OrgansMean != 2 {
		t.Errorf("energy mean %v organs mean %v, want 25 and 2", s.EnergyMean, s.OrgansMean)
	}
	if s.PotassiumMean != 0.25 || s.NutrientMax != 0.9 || s.MoistureMean != 0.4 {
		t.Errorf("soil = K %v max %v moisture %v", s.PotassiumMean, s.NutrientMax, s.MoistureMean)
	}
	if s.WindowStartTick != 0 || s.WindowEndTick != 10 {
		t.Errorf("window = [%d, %d], want [0, 10]", s.WindowStartTick, s.WindowEndTick)
	}

	// Counters reset, window advances.
	next := c.Flush(20, Sample{})
	if next.Births != 0 || next.Deaths != 0 || next.SeedsDropped != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.WindowStartTick != 10 {
		t.Errorf("next window start = %d, want 10", next.WindowStartTick)
	}
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector
	c.RecordBirths(1)
	c.RecordDeath(true)
	c.RecordSeedsDropped(1)
	if c.ShouldFlush(100) {
		t.Error("nil collector should never flush")
	}
	if got := c.Flush(100, Sample{Population: 3}); got != (WindowStats{}) {
		t.Errorf("nil Flush = %+v, want zero", got)
	}
}
