package ledger_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/knoxite/admin"
	kerrors "github.com/knoxite/admin/kit/platform/errors"
	"github.com/knoxite/admin/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	gigabyte = admin.ByteCount(1000000000)
)

func TestRecompute(t *testing.T) {
	tests := []struct {
		name     string
		clients  []*admin.Client
		capacity admin.ByteCount
		want     ledger.Ledger
	}{
		{
			name:     "no clients",
			capacity: gigabyte,
			want:     ledger.Ledger{Capacity: gigabyte},
		},
		{
			name: "capacity not loaded yet",
			clients: []*admin.Client{
				{ID: 1, Quota: 500, UsedSpace: 100},
			},
			want: ledger.Ledger{TotalQuota: 500, TotalUsed: 100},
		},
		{
			name: "sums every client and skips nil entries",
			clients: []*admin.Client{
				{ID: 1, Quota: 500, UsedSpace: 100},
				nil,
				{ID: 2, Quota: 300, UsedSpace: 300},
			},
			capacity: 1000,
			want:     ledger.Ledger{Capacity: 1000, TotalQuota: 800, TotalUsed: 400},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ledger.Recompute(tt.clients, tt.capacity)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unexpected ledger -want/+got:\n%s", diff)
			}
		})
	}
}

func TestRemainingCapacityFor(t *testing.T) {
	l := ledger.Recompute(nil, gigabyte)
	assert.Equal(t, admin.ByteCount(0), l.TotalQuota)

	client := &admin.Client{ID: 1, Name: "laptop", Quota: gigabyte / 2}
	l = ledger.Recompute([]*admin.Client{client}, gigabyte)

	assert.Equal(t, gigabyte/2, l.TotalQuota)
	assert.Equal(t, gigabyte/2, ledger.RemainingCapacityFor(l, nil))
	assert.Equal(t, gigabyte, ledger.RemainingCapacityFor(l, client))

	t.Run("over allocated capacity saturates at zero", func(t *testing.T) {
		over := ledger.Ledger{Capacity: 100, TotalQuota: 300}
		assert.Equal(t, admin.ByteCount(0), ledger.RemainingCapacityFor(over, nil))
		assert.Equal(t, admin.ByteCount(0), ledger.RemainingCapacityFor(over, &admin.Client{Quota: 150}))
		assert.Equal(t, admin.ByteCount(50), ledger.RemainingCapacityFor(over, &admin.Client{Quota: 250}))
		assert.Equal(t, admin.ByteCount(0), over.Unallocated())
	})
}

func TestValidateQuota(t *testing.T) {
	editing := &admin.Client{ID: 1, Quota: 400, UsedSpace: 150}
	l := ledger.Ledger{Capacity: 1000, TotalQuota: 700}

	tests := []struct {
		name     string
		editing  *admin.Client
		proposed admin.ByteCount
		wantErr  bool
	}{
		{name: "new client within capacity", proposed: 300},
		{name: "new client above capacity", proposed: 301, wantErr: true},
		{name: "update keeps own quota available", editing: editing, proposed: 700},
		{name: "update above remaining", editing: editing, proposed: 701, wantErr: true},
		{name: "update down to used space", editing: editing, proposed: 150},
		{name: "update below used space", editing: editing, proposed: 149, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ledger.ValidateQuota(l, tt.editing, tt.proposed)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, kerrors.IsValidationFailure(err))
		})
	}
}

func TestApplyDelete(t *testing.T) {
	a := &admin.Client{ID: 1, Quota: 500, UsedSpace: 120}
	b := &admin.Client{ID: 2, Quota: 200, UsedSpace: 80}
	before := ledger.Recompute([]*admin.Client{a, b}, gigabyte)

	after := ledger.ApplyDelete(before, a)

	assert.Equal(t, before.TotalQuota-a.Quota, after.TotalQuota)
	assert.Equal(t, before.TotalUsed-a.UsedSpace, after.TotalUsed)
	assert.Equal(t, before.Capacity, after.Capacity)
	if diff := cmp.Diff(ledger.Recompute([]*admin.Client{b}, gigabyte), after); diff != "" {
		t.Errorf("incremental delete diverged from recompute -want/+got:\n%s", diff)
	}

	assert.Equal(t, before, ledger.ApplyDelete(before, nil))
}

func TestApplyCreateOrUpdate(t *testing.T) {
	a := &admin.Client{ID: 1, Quota: 500, UsedSpace: 120}
	l := ledger.Recompute([]*admin.Client{a}, gigabyte)

	created := &admin.Client{ID: 2, Quota: 300}
	l = ledger.ApplyCreateOrUpdate(l, nil, created)
	assert.Equal(t, admin.ByteCount(800), l.TotalQuota)

	updated := &admin.Client{ID: 1, Quota: 200, UsedSpace: 120}
	l = ledger.ApplyCreateOrUpdate(l, a, updated)

	want := ledger.Recompute([]*admin.Client{updated, created}, gigabyte)
	if diff := cmp.Diff(want, l); diff != "" {
		t.Errorf("incremental update diverged from recompute -want/+got:\n%s", diff)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name        string
		part, whole admin.ByteCount
		want        int
		wantErr     error
	}{
		{name: "zero part", part: 0, whole: 10, want: 0},
		{name: "rounds half up", part: 1, whole: 8, want: 13},
		{name: "rounds down", part: 1, whole: 3, want: 33},
		{name: "full", part: 10, whole: 10, want: 100},
		{name: "over full clamps", part: 30, whole: 10, want: 100},
		{name: "zero whole", part: 5, whole: 0, wantErr: ledger.ErrZeroWhole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ledger.Percentage(tt.part, tt.whole)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityBand(t *testing.T) {
	tests := []struct {
		pct  int
		want ledger.Severity
	}{
		{pct: 0, want: ledger.Low},
		{pct: 24, want: ledger.Low},
		{pct: 25, want: ledger.Info},
		{pct: 49, want: ledger.Info},
		{pct: 50, want: ledger.Warn},
		{pct: 74, want: ledger.Warn},
		{pct: 75, want: ledger.Critical},
		{pct: 100, want: ledger.Critical},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.SeverityBand(tt.pct))
		})
	}
}

func TestUsage(t *testing.T) {
	u := ledger.ClientUsage(&admin.Client{Quota: 1000, UsedSpace: 800})
	assert.True(t, u.Defined)
	assert.Equal(t, 80, u.Percent)
	assert.Equal(t, ledger.Critical, u.Band)
	assert.Equal(t, "80% (critical)", u.String())

	empty := ledger.Ledger{}.SpaceUsage()
	assert.False(t, empty.Defined)
	assert.Equal(t, "n/a", empty.String())

	l := ledger.Ledger{Capacity: 1000, TotalQuota: 300, TotalUsed: 100}
	assert.Equal(t, ledger.Info, l.QuotaUsage().Band)
	assert.Equal(t, ledger.Low, l.SpaceUsage().Band)
}
