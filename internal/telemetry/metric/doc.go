// Package metric provides Prometheus metrics for nskv.
//
//   - prometheus.go: the Registry, its client-side Observer methods and the
//     /metrics handler
//   - collector.go: a collector reporting the development server keyspace
//
// Each Registry owns its own prometheus.Registry so tests and embedded
// servers do not collide on the global default registerer.
package metric
