// Package loading tracks in-flight background operations behind a single
// busy signal.
//
// Each operation registers under a source name. Sources are reference
// counted, so two concurrent operations with the same name keep the signal
// up until both have ended. The multiplexer never times anything out: an
// operation that never ends keeps its slot, and IsBusy stays true until the
// owner goes away.
package loading

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Multiplexer is a reference counted registry of in-flight sources.
// The zero value is not usable; use New.
type Multiplexer struct {
	log *zap.Logger

	// transition serializes state changes with their notifications so
	// OnChange callbacks observe flips in order.
	transition sync.Mutex

	mu       sync.Mutex
	counts   map[string]int
	onChange []func(busy bool)

	inFlightDesc *prometheus.Desc
}

// Option configures a Multiplexer.
type Option func(*Multiplexer)

// WithLogger sets the logger unmatched ends are reported to.
func WithLogger(log *zap.Logger) Option {
	return func(m *Multiplexer) {
		m.log = log
	}
}

// WithOnChange registers fn to be called whenever the busy signal flips.
// fn runs in the goroutine that caused the transition and may call IsBusy,
// but must not call Begin or End.
func WithOnChange(fn func(busy bool)) Option {
	return func(m *Multiplexer) {
		m.onChange = append(m.onChange, fn)
	}
}

// New returns an idle multiplexer.
func New(opts ...Option) *Multiplexer {
	m := &Multiplexer{
		log:    zap.NewNop(),
		counts: make(map[string]int),
		inFlightDesc: prometheus.NewDesc(
			"knoxite_admin_loads_in_flight",
			"Number of background loads currently in flight.",
			[]string{"source"}, nil,
		),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Begin registers one more in-flight operation for source.
func (m *Multiplexer) Begin(source string) {
	m.transition.Lock()
	defer m.transition.Unlock()

	m.mu.Lock()
	wasBusy := len(m.counts) > 0
	m.counts[source]++
	m.mu.Unlock()

	if !wasBusy {
		m.notify(true)
	}
}

// End releases one in-flight operation for source. Ending a source with no
// registered operations is ignored.
func (m *Multiplexer) End(source string) {
	m.transition.Lock()
	defer m.transition.Unlock()

	m.mu.Lock()
	n, ok := m.counts[source]
	if !ok {
		m.mu.Unlock()
		m.log.Warn("Ignoring end of loading source that was never begun", zap.String("source", source))
		return
	}
	if n <= 1 {
		delete(m.counts, source)
	} else {
		m.counts[source] = n - 1
	}
	idle := len(m.counts) == 0
	m.mu.Unlock()

	if idle {
		m.notify(false)
	}
}

// Track begins source and returns a function that ends it. The returned
// function is safe to call more than once; only the first call ends the
// source. It is meant to be deferred so every exit path releases the slot.
func (m *Multiplexer) Track(source string) (end func()) {
	m.Begin(source)
	var once sync.Once
	return func() {
		once.Do(func() { m.End(source) })
	}
}

// Do runs fn while source is registered.
func (m *Multiplexer) Do(source string, fn func() error) error {
	defer m.Track(source)()
	return fn()
}

// IsBusy reports whether any source is in flight.
func (m *Multiplexer) IsBusy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.counts) > 0
}

// InFlight returns a snapshot of the per-source counts.
func (m *Multiplexer) InFlight() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}

// Sources returns the names currently in flight in sorted order.
func (m *Multiplexer) Sources() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.counts))
	for k := range m.counts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *Multiplexer) notify(busy bool) {
	for _, fn := range m.onChange {
		fn(busy)
	}
}

// Describe implements prometheus.Collector.
func (m *Multiplexer) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.inFlightDesc
}

// Collect implements prometheus.Collector.
func (m *Multiplexer) Collect(ch chan<- prometheus.Metric) {
	for source, n := range m.InFlight() {
		ch <- prometheus.MustNewConstMetric(m.inFlightDesc, prometheus.GaugeValue, float64(n), source)
	}
}
