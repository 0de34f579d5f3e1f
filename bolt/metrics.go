package bolt

import (
	"github.com/prometheus/client_golang/prometheus"
	bolt "go.etcd.io/bbolt"
)

var _ prometheus.Collector = (*Client)(nil)

var (
	clientsDesc = prometheus.NewDesc(
		"knoxite_admin_clients_total",
		"Number of backup clients stored on the server",
		nil, nil)

	credentialsDesc = prometheus.NewDesc(
		"knoxite_admin_credentials_total",
		"Number of servers with a remembered operator token",
		nil, nil)

	boltWritesDesc = prometheus.NewDesc(
		"boltdb_writes_total",
		"Total number of boltdb writes",
		nil, nil)

	boltReadsDesc = prometheus.NewDesc(
		"boltdb_reads_total",
		"Total number of boltdb reads",
		nil, nil)
)

// Describe returns all descriptions of the collector.
func (c *Client) Describe(ch chan<- *prometheus.Desc) {
	ch <- clientsDesc
	ch <- credentialsDesc
	ch <- boltWritesDesc
	ch <- boltReadsDesc
}

// Collect returns the current state of all metrics of the collector.
func (c *Client) Collect(ch chan<- prometheus.Metric) {
	stats := c.db.Stats()

	ch <- prometheus.MustNewConstMetric(
		boltReadsDesc,
		prometheus.CounterValue,
		float64(stats.TxN),
	)

	ch <- prometheus.MustNewConstMetric(
		boltWritesDesc,
		prometheus.CounterValue,
		float64(stats.TxStats.Write),
	)

	clients, credentials := 0, 0
	_ = c.db.View(func(tx *bolt.Tx) error {
		clients = tx.Bucket(clientsBucket).Stats().KeyN
		credentials = tx.Bucket(credentialsBucket).Stats().KeyN
		return nil
	})

	ch <- prometheus.MustNewConstMetric(
		clientsDesc,
		prometheus.GaugeValue,
		float64(clients),
	)

	ch <- prometheus.MustNewConstMetric(
		credentialsDesc,
		prometheus.GaugeValue,
		float64(credentials),
	)
}
