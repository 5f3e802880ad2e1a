package vcs

import "github.com/prometheus/client_golang/prometheus"

var DiffCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vcs",
	Subsystem: "engine",
	Name:      "diffs",
}, []string{"item"})

var MergeCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vcs",
	Subsystem: "engine",
	Name:      "merges",
}, []string{"item"})

var MergeConflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vcs",
	Subsystem: "engine",
	Name:      "merge_conflicts",
}, []string{"kind"})

var ResetSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vcs",
	Subsystem: "engine",
	Name:      "reset_skipped",
}, []string{"kind"})

var IdentityCollisions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vcs",
	Subsystem: "engine",
	Name:      "identity_collisions",
}, []string{"kind"})

// Collectors lists the engine metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{DiffCount, MergeCount, MergeConflicts, ResetSkipped, IdentityCollisions}
}
