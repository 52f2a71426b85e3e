package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CollectionSizeMetric is the Prometheus gauge reporting the number of quotes.
const CollectionSizeMetric = "quotes_collection_size"

// RegisterCollectionGauge registers a gauge that reads size on every scrape.
// reg defaults to prometheus.DefaultRegisterer, which /-/metrics serves.
func RegisterCollectionGauge(reg prometheus.Registerer, size func() int) (prometheus.Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: CollectionSizeMetric,
		Help: "Number of quotes in the collection.",
	}, func() float64 {
		return float64(size())
	})

	if err := reg.Register(gauge); err != nil {
		return nil, fmt.Errorf("registering %s: %w", CollectionSizeMetric, err)
	}

	return gauge, nil
}
