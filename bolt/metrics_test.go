package bolt_test

import (
	"context"
	"testing"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/kit/prom/promtest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialMetrics(t *testing.T) {
	client := NewTestClient(t)

	reg := prometheus.NewRegistry()
	reg.MustRegister(client)
	mfs := promtest.MustGather(t, reg)

	for _, name := range []string{"knoxite_admin_clients_total", "knoxite_admin_credentials_total"} {
		m := promtest.MustFindMetric(t, mfs, name, nil)
		assert.Zero(t, m.GetGauge().GetValue(), name)
	}
	promtest.MustFindMetric(t, mfs, "boltdb_reads_total", nil)
	promtest.MustFindMetric(t, mfs, "boltdb_writes_total", nil)
}

func TestMetricsCountStoredRecords(t *testing.T) {
	ctx := context.Background()
	client := NewTestClient(t)

	store := client.ClientStore()
	require.NoError(t, store.PutClient(ctx, admin.Client{ID: 1, Name: "laptop", Quota: 3000}))
	require.NoError(t, store.PutClient(ctx, admin.Client{ID: 2, Name: "desktop", Quota: 2000}))
	require.NoError(t, client.CredentialStore("http://a:42024").Save(ctx, "token"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(client)
	mfs := promtest.MustGather(t, reg)

	assert.Equal(t, 2.0, promtest.MustFindMetric(t, mfs, "knoxite_admin_clients_total", nil).GetGauge().GetValue())
	assert.Equal(t, 1.0, promtest.MustFindMetric(t, mfs, "knoxite_admin_credentials_total", nil).GetGauge().GetValue())
	assert.Positive(t, promtest.MustFindMetric(t, mfs, "boltdb_writes_total", nil).GetCounter().GetValue())
}
