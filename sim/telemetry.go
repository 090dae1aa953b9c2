package sim

import (
	"github.com/pthm-cable/plantsim/plant"
	"github.com/pthm-cable/plantsim/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	stats := s.collector.Flush(s.tick, s.sample())
	perfStats := s.perfCollector.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.output.WriteTelemetry(stats); err != nil {
		s.logger.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		s.logger.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			s.logger.Error("failed to write bookmark", "error", err)
		}
	}
}

// sample gathers the population and soil state for a stats window.
func (s *Simulation) sample() telemetry.Sample {
	n := len(s.plants)
	out := telemetry.Sample{
		Population: n,
		Energies:   make([]float64, 0, n),
		Organs:     make([]float64, 0, n),
		Leaves:     make([]float64, 0, n),
		Soil:       s.world.Summarize(),
		Light:      s.world.LightIntensity,
	}

	species := make(map[string]struct{})
	for _, p := range s.plants {
		species[p.Species().ID] = struct{}{}
		out.Energies = append(out.Energies, p.Energy)
		out.Organs = append(out.Organs, float64(p.OrganCount()))
		out.Leaves = append(out.Leaves, float64(p.CountOf(plant.OrganLeaf)))

		switch p.State {
		case plant.StateSeed:
			out.States.Seed++
		case plant.StateGerminating:
			out.States.Germinating++
		case plant.StateVegetative:
			out.States.Vegetative++
		case plant.StateDormant:
			out.States.Dormant++
		case plant.StateFlowering:
			out.States.Flowering++
		case plant.StateFruiting:
			out.States.Fruiting++
		}
	}
	out.Species = len(species)

	return out
}
