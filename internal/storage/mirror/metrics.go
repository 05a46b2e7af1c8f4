package mirror

import "github.com/prometheus/client_golang/prometheus"

// RegisterMetrics exposes log size and append count on reg.
func (l *Log) RegisterMetrics(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "nskv",
			Subsystem: "mirror",
			Name:      "records_appended_total",
			Help:      "Mirror records appended since the log was opened.",
		}, func() float64 { return float64(l.appended.Load()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "nskv",
			Subsystem: "mirror",
			Name:      "lsm_size_bytes",
			Help:      "Badger LSM tree size.",
		}, func() float64 { lsm, _ := l.db.Size(); return float64(lsm) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "nskv",
			Subsystem: "mirror",
			Name:      "value_log_size_bytes",
			Help:      "Badger value log size.",
		}, func() float64 { _, vlog := l.db.Size(); return float64(vlog) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
