// Package metrics exports B-Tree structural counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vchandela/btree/btree"
)

// StatsSource is satisfied by any *btree.Tree regardless of its key and value types.
type StatsSource interface {
	Stats() btree.Stats
}

// Collector reads a tree's Stats on every scrape. The caller serializes access to the tree.
type Collector struct {
	src StatsSource

	inserts       *prometheus.Desc
	deletes       *prometheus.Desc
	splits        *prometheus.Desc
	rootSplits    *prometheus.Desc
	rotations     *prometheus.Desc
	joins         *prometheus.Desc
	rootCollapses *prometheus.Desc
	keys          *prometheus.Desc
	nodes         *prometheus.Desc
	height        *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(namespace string, src StatsSource) *Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &Collector{
		src:           src,
		inserts:       desc("inserts_total", "Number of pairs inserted."),
		deletes:       desc("deletes_total", "Number of pairs deleted."),
		splits:        desc("splits_total", "Number of node splits performed during insert."),
		rootSplits:    desc("root_splits_total", "Number of splits that grew the tree by a level."),
		rotations:     desc("rotations_total", "Number of key rotations performed during delete.", "direction"),
		joins:         desc("joins_total", "Number of node joins performed during delete."),
		rootCollapses: desc("root_collapses_total", "Number of joins that shrank the tree by a level."),
		keys:          desc("keys", "Number of pairs currently stored."),
		nodes:         desc("nodes", "Number of live nodes."),
		height:        desc("height", "Number of levels in the tree."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.inserts
	ch <- c.deletes
	ch <- c.splits
	ch <- c.rootSplits
	ch <- c.rotations
	ch <- c.joins
	ch <- c.rootCollapses
	ch <- c.keys
	ch <- c.nodes
	ch <- c.height
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()

	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	gauge := func(d *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v))
	}

	counter(c.inserts, s.Inserts)
	counter(c.deletes, s.Deletes)
	counter(c.splits, s.Splits)
	counter(c.rootSplits, s.RootSplits)
	counter(c.rotations, s.RotateLefts, "left")
	counter(c.rotations, s.RotateRights, "right")
	counter(c.joins, s.Joins)
	counter(c.rootCollapses, s.RootCollapses)
	gauge(c.keys, s.Keys)
	gauge(c.nodes, s.Nodes)
	gauge(c.height, s.Height)
}
