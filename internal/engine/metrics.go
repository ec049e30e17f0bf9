package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report game activity.
type Metrics struct {
	questsCompleted     *prometheus.CounterVec
	levelUps            prometheus.Counter
	deaths              prometheus.Counter
	milestonesAchieved  prometheus.Counter
	persistenceFailures *prometheus.CounterVec
	level               prometheus.Gauge
	gold                prometheus.Gauge
}

// MustNewMetrics builds the collectors and registers them on reg. Tests should
// pass a fresh registry. Registration errors panic.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		questsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "questlife",
			Name:      "quests_completed_total",
			Help:      "Quests completed, by quest type.",
		}, []string{"type"}),
		levelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "questlife",
			Name:      "level_ups_total",
			Help:      "Levels gained.",
		}),
		deaths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "questlife",
			Name:      "deaths_total",
			Help:      "Times the hero reached 0 HP.",
		}),
		milestonesAchieved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "questlife",
			Name:      "milestones_achieved_total",
			Help:      "Progress bar milestones achieved.",
		}),
		persistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "questlife",
			Name:      "persistence_failures_total",
			Help:      "Record store writes or reads that failed, by operation.",
		}, []string{"op"}),
		level: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "questlife",
			Name:      "level",
			Help:      "Current hero level.",
		}),
		gold: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "questlife",
			Name:      "gold",
			Help:      "Current gold balance.",
		}),
	}
	reg.MustRegister(
		m.questsCompleted,
		m.levelUps,
		m.deaths,
		m.milestonesAchieved,
		m.persistenceFailures,
		m.level,
		m.gold,
	)
	return m
}
