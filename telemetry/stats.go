package telemetry

import (
	"context"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64 `csv:"-"`
	WindowEndTick   int64 `csv:"window_end"`

	// Population at window end
	Population int `csv:"population"`
	Species    int `csv:"species"`

	// Events during window
	Births       int `csv:"births"`
	Deaths       int `csv:"deaths"`
	Starved      int `csv:"starved"`
	Senesced     int `csv:"old_age"`
	SeedsDropped int `csv:"seeds_dropped"`

	// Lifecycle stages at window end. Germinating includes seeds.
	Germinating int `csv:"germinating"`
	Vegetative  int `csv:"vegetative"`
	Dormant     int `csv:"dormant"`
	Flowering   int `csv:"flowering"`
	Fruiting    int `csv:"fruiting"`

	// Energy distribution (sampled at window end)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Structure
	OrgansMean float64 `csv:"organs_mean"`
	LeavesMean float64 `csv:"leaves_mean"`

	// Soil and light
	MoistureMean   float64 `csv:"moisture_mean"`
	MoistureMin    float64 `csv:"moisture_min"`
	NitrogenMean   float64 `csv:"nitrogen_mean"`
	PhosphorusMean float64 `csv:"phosphorus_mean"`
	PotassiumMean  float64 `csv:"potassium_mean"`
	MagnesiumMean  float64 `csv:"magnesium_mean"`
	NutrientMax    float64 `csv:"nutrient_max"`
	CanopyCells    int     `csv:"canopy_cells"`
	Light          float64 `csv:"light"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates the population mean, population standard
// deviation and the 10th/50th/90th percentiles of values.
func ComputeDistribution(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(s.attrs()...)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.LogAttrs(context.Background(), slog.LevelInfo, "stats", s.attrs()...)
}

func (s WindowStats) attrs() []slog.Attr {
	return []slog.Attr{
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Int("population", s.Population),
		slog.Int("species", s.Species),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("starved", s.Starved),
		slog.Int("old_age", s.Senesced),
		slog.Int("seeds_dropped", s.SeedsDropped),
		slog.Int("germinating", s.Germinating),
		slog.Int("vegetative", s.Vegetative),
		slog.Int("dormant", s.Dormant),
		slog.Int("flowering", s.Flowering),
		slog.Int("fruiting", s.Fruiting),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_std", s.EnergyStd),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("organs_mean", s.OrgansMean),
		slog.Float64("leaves_mean", s.LeavesMean),
		slog.Float64("moisture_mean", s.MoistureMean),
		slog.Float64("moisture_min", s.MoistureMin),
		slog.Float64("nitrogen_mean", s.NitrogenMean),
		slog.Float64("phosphorus_mean", s.PhosphorusMean),
		slog.Float64("potassium_mean", s.PotassiumMean),
		slog.Float64("magnesium_mean", s.MagnesiumMean),
		slog.Float64("nutrient_max", s.NutrientMax),
		slog.Int("canopy_cells", s.CanopyCells),
		slog.Float64("light", s.Light),
	}
}
