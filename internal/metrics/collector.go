package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shapedtime/tvscraper/internal/library"
)

// StatsSource defines the store queries the collector polls.
type StatsSource interface {
	Stats() map[library.Kind]int
	WatchedSeasons() ([]library.Attrs, error)
	ScrapedSeasonsToNotify() ([]library.Attrs, error)
}

// Compile-time verification
var _ StatsSource = (*library.Store)(nil)

// StoreCollector implements prometheus.Collector for the document tree.
// It polls Stats() lazily on each Prometheus scrape rather than maintaining
// duplicate state.
type StoreCollector struct {
	source StatsSource

	nodes          *prometheus.Desc
	watchedSeasons *prometheus.Desc
	toNotify       *prometheus.Desc
}

// NewStoreCollector creates a collector that scrapes node counts on demand.
func NewStoreCollector(source StatsSource) *StoreCollector {
	return &StoreCollector{
		source: source,

		nodes: prometheus.NewDesc(
			"tvscraper_store_nodes",
			"Number of nodes in the document, by kind.",
			[]string{"kind"}, nil,
		),
		watchedSeasons: prometheus.NewDesc(
			"tvscraper_store_watched_seasons",
			"Number of seasons with status watched.",
			nil, nil,
		),
		toNotify: prometheus.NewDesc(
			"tvscraper_store_scraped_seasons_to_notify",
			"Number of scraped seasons flagged for notification.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.nodes
	ch <- c.watchedSeasons
	ch <- c.toNotify
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	for _, kind := range library.Kinds {
		ch <- prometheus.MustNewConstMetric(c.nodes, prometheus.GaugeValue, float64(stats[kind]), string(kind))
	}

	if watched, err := c.source.WatchedSeasons(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.watchedSeasons, prometheus.GaugeValue, float64(len(watched)))
	}
	if notify, err := c.source.ScrapedSeasonsToNotify(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.toNotify, prometheus.GaugeValue, float64(len(notify)))
	}
}
