package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts pipeline work on a dedicated registry so repeated runs
// in one process accumulate.
type Metrics struct {
	Registry *prometheus.Registry

	regions       *prometheus.CounterVec
	tiles         *prometheus.CounterVec
	corruptChunks prometheus.Counter
	signs         prometheus.Gauge
	runSeconds    prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		regions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regiontiles",
			Name:      "regions_total",
			Help:      "Regions handled by the region pass by outcome.",
		}, []string{"result"}),
		tiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regiontiles",
			Name:      "tiles_written_total",
			Help:      "Tiles written by kind, base tiles and mipmaps.",
		}, []string{"kind", "stage"}),
		corruptChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "regiontiles",
			Name:      "corrupt_chunks_total",
			Help:      "Chunks skipped because they could not be decoded.",
		}),
		signs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "regiontiles",
			Name:      "signs",
			Help:      "Signs written to the viewer entity list by the last run.",
		}),
		runSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "regiontiles",
			Name:      "last_run_seconds",
			Help:      "Duration of the last successful run.",
		}),
	}
	m.Registry.MustRegister(m.regions, m.tiles, m.corruptChunks, m.signs, m.runSeconds)
	return m
}

// WriteTextfile dumps the metrics in text exposition format for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func (m *Metrics) region(result string) {
	if m != nil {
		m.regions.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) tile(kind, stage string) {
	if m != nil {
		m.tiles.WithLabelValues(kind, stage).Inc()
	}
}

func (m *Metrics) corrupt(n int) {
	if m != nil {
		m.corruptChunks.Add(float64(n))
	}
}

func (m *Metrics) finished(signs int, seconds float64) {
	if m != nil {
		m.signs.Set(float64(signs))
		m.runSeconds.Set(seconds)
	}
}
