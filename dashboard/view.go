// Package dashboard is the operator's view of the clients and the storage
// they share. A View owns the client list and the quota ledger, fills them
// with four concurrent loads and keeps the ledger current as clients are
// created, updated and deleted.
package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/kit/platform/errors"
	"github.com/knoxite/admin/ledger"
	"github.com/knoxite/admin/loading"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Load sources registered with the multiplexer.
const (
	SourceClients    = "clients"
	SourceCapacity   = "capacity"
	SourceTotalQuota = "total_quota"
	SourceUsedSpace  = "used_space"

	SourceCreateClient = "create_client"
	SourceUpdateClient = "update_client"
	SourceDeleteClient = "delete_client"
	SourceEditLimits   = "edit_limits"
)

// Session gates protected operations. *session.Manager implements it.
type Session interface {
	// Guard fails without a credential.
	Guard(ctx context.Context) error
	// Check ends the session if err is an authorization failure.
	Check(ctx context.Context, err error) error
}

// Notice is a message for the operator. Err marks failures.
type Notice struct {
	Message string
	Err     bool
}

// State is a copy of what the view shows.
type State struct {
	Clients []admin.Client
	Ledger  ledger.Ledger
	Busy    bool
	Notices []Notice
}

// View holds the dashboard state. All methods are safe for concurrent use.
type View struct {
	log     *zap.Logger
	clients admin.ClientService
	storage admin.StorageService
	session Session
	loads   *loading.Multiplexer

	mu       sync.Mutex
	alive    bool
	gen      uint64
	started  map[string]bool
	resolved map[string]bool
	list     []*admin.Client
	fields   map[string]admin.ByteCount
	ledger   ledger.Ledger
	notices  []Notice
	loadErrs error
}

// Option configures a View.
type Option func(*View)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(v *View) {
		v.log = log
	}
}

// WithMultiplexer shares m instead of giving the view its own.
func WithMultiplexer(m *loading.Multiplexer) Option {
	return func(v *View) {
		v.loads = m
	}
}

// NewView returns an unmounted view.
func NewView(clients admin.ClientService, storage admin.StorageService, sess Session, opts ...Option) *View {
	v := &View{
		log:      zap.NewNop(),
		clients:  clients,
		storage:  storage,
		session:  sess,
		started:  make(map[string]bool),
		resolved: make(map[string]bool),
		fields:   make(map[string]admin.ByteCount),
	}
	for _, o := range opts {
		o(v)
	}
	if v.loads == nil {
		v.loads = loading.New(loading.WithLogger(v.log))
	}
	return v
}

// Loads returns the multiplexer tracking the view's requests.
func (v *View) Loads() *loading.Multiplexer { return v.loads }

type loadFunc func(ctx context.Context) (admin.ByteCount, []*admin.Client, error)

// Mount checks the session and runs the client, capacity, total quota and
// used space loads concurrently, returning once all have resolved. A load
// already started since the last Unmount is not started again. Failed loads
// degrade to zero and leave a notice; only an authorization failure is
// returned, after the session has been ended.
func (v *View) Mount(ctx context.Context) error {
	if err := v.session.Guard(ctx); err != nil {
		return err
	}

	loads := map[string]loadFunc{
		SourceClients: func(ctx context.Context) (admin.ByteCount, []*admin.Client, error) {
			cs, err := v.clients.FindClients(ctx)
			return 0, cs, err
		},
		SourceCapacity:   byteLoad(v.storage.Capacity),
		SourceTotalQuota: byteLoad(v.storage.TotalQuota),
		SourceUsedSpace:  byteLoad(v.storage.UsedSpace),
	}

	v.mu.Lock()
	v.alive = true
	gen := v.gen
	var pending []string
	for _, src := range []string{SourceClients, SourceCapacity, SourceTotalQuota, SourceUsedSpace} {
		if v.started[src] {
			continue
		}
		v.started[src] = true
		pending = append(pending, src)
	}
	v.mu.Unlock()

	var g errgroup.Group
	for _, src := range pending {
		src, load := src, loads[src]
		g.Go(func() error {
			defer v.loads.Track(src)()
			n, cs, err := load(ctx)
			return v.resolve(ctx, gen, src, n, cs, err)
		})
	}
	return g.Wait()
}

func byteLoad(fn func(context.Context) (admin.ByteCount, error)) loadFunc {
	return func(ctx context.Context) (admin.ByteCount, []*admin.Client, error) {
		n, err := fn(ctx)
		return n, nil, err
	}
}

// resolve applies the outcome of one load started in mount generation gen.
// Results arriving after that mount was unmounted are dropped, even when the
// view has been mounted again since.
func (v *View) resolve(ctx context.Context, gen uint64, src string, n admin.ByteCount, cs []*admin.Client, err error) error {
	if err != nil && errors.IsAuthFailure(err) {
		return v.session.Check(ctx, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.current(gen) {
		v.log.Debug("Discarding load result after unmount", zap.String("source", src), zap.Uint64("generation", gen))
		return nil
	}

	v.resolved[src] = true
	if err != nil {
		v.log.Warn("Load failed", zap.String("source", src), zap.Error(err))
		v.loadErrs = multierr.Append(v.loadErrs, fmt.Errorf("%s: %w", src, err))
		v.notices = append(v.notices, Notice{
			Message: fmt.Sprintf("Unable to load %s: %s", src, errors.ErrorMessage(err)),
			Err:     true,
		})
		n, cs = 0, nil
	}

	if src == SourceClients {
		v.list = cs
	} else {
		v.fields[src] = n
	}
	v.recompute()
	return nil
}

// recompute rebuilds the ledger from the client list. Resolved aggregate
// loads override what the list folds to. Callers hold mu.
func (v *View) recompute() {
	l := ledger.Recompute(v.list, v.fields[SourceCapacity])
	if v.resolved[SourceTotalQuota] {
		l.TotalQuota = v.fields[SourceTotalQuota]
	}
	if v.resolved[SourceUsedSpace] {
		l.TotalUsed = v.fields[SourceUsedSpace]
	}
	v.ledger = l
}

// Unmount marks the view as gone and clears the clients and the ledger.
// In-flight loads and mutations finish but their results are discarded, and
// the next Mount loads everything again. Notices are kept until read.
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alive = false
	v.gen++
	v.started = make(map[string]bool)
	v.resolved = make(map[string]bool)
	v.list = nil
	v.fields = make(map[string]admin.ByteCount)
	v.ledger = ledger.Ledger{}
}

// current reports whether the mount generation gen is still showing.
// Callers hold mu.
func (v *View) current(gen uint64) bool {
	return v.alive && gen == v.gen
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := State{
		Clients: make([]admin.Client, 0, len(v.list)),
		Ledger:  v.ledger,
		Busy:    v.loads.IsBusy(),
		Notices: append([]Notice(nil), v.notices...),
	}
	for _, c := range v.list {
		s.Clients = append(s.Clients, *c)
	}
	return s
}

// Ledger returns the current aggregates.
func (v *View) Ledger() ledger.Ledger {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ledger
}

// Notices returns and clears the pending notices.
func (v *View) Notices() []Notice {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := v.notices
	v.notices = nil
	return n
}

// Err returns the combined errors of the loads that degraded since the view
// was created.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loadErrs
}

func (v *View) notify(n Notice) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, n)
}

// fail routes a request error: authorization failures end the session,
// everything else becomes an error notice.
func (v *View) fail(ctx context.Context, err error) error {
	if errors.IsAuthFailure(err) {
		return v.session.Check(ctx, err)
	}
	v.notify(Notice{Message: errors.ErrorMessage(err), Err: true})
	return err
}
