// Package metrics counts store lifecycle events and exposes them in the
// Prometheus exposition format.
package metrics

import (
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/obsidianstack/showroom/viewer/internal/store"
)

const (
	nameMounts  = "showroom_mounts_total"
	nameFetches = "showroom_fetches_total"
	nameRecords = "showroom_records"
)

// Registry implements store.Metrics. The zero value is not usable; call New.
type Registry struct {
	mu      sync.Mutex
	mounts  uint64
	fetches map[store.Outcome]uint64
	records int
}

var _ store.Metrics = (*Registry)(nil)

// New returns a Registry with every outcome pre-registered at zero.
func New() *Registry {
	return &Registry{
		fetches: map[store.Outcome]uint64{
			store.OutcomeCommitted: 0,
			store.OutcomeDiscarded: 0,
			store.OutcomeFailed:    0,
		},
	}
}

// Activated counts one store activation. A fresh store starts with an
// empty collection, so the records gauge drops to zero.
func (r *Registry) Activated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mounts++
	r.records = 0
}

// Settled counts one settled fetch. The records gauge follows committed
// batches only.
func (r *Registry) Settled(outcome store.Outcome, records int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches[outcome]++
	if outcome == store.OutcomeCommitted {
		r.records = records
	}
}

// Families returns the current values as metric families, sorted by name.
func (r *Registry) Families() []*dto.MetricFamily {
	r.mu.Lock()
	defer r.mu.Unlock()

	outcomes := make([]string, 0, len(r.fetches))
	for o := range r.fetches {
		outcomes = append(outcomes, string(o))
	}
	sort.Strings(outcomes)

	fetches := make([]*dto.Metric, 0, len(outcomes))
	for _, o := range outcomes {
		fetches = append(fetches, counter(float64(r.fetches[store.Outcome(o)]), label("outcome", o)))
	}

	fams := []*dto.MetricFamily{
		family(nameFetches, "Settled collection fetches by outcome.", dto.MetricType_COUNTER, fetches...),
		family(nameMounts, "Store activations.", dto.MetricType_COUNTER, counter(float64(r.mounts))),
		family(nameRecords, "Records in the last committed collection.", dto.MetricType_GAUGE, gauge(float64(r.records))),
	}
	sort.Slice(fams, func(i, j int) bool { return fams[i].GetName() < fams[j].GetName() })
	return fams
}

// ServeHTTP writes the families in the format negotiated from the Accept header.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	format := expfmt.Negotiate(req.Header)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range r.Families() {
		if err := enc.Encode(mf); err != nil {
			return
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		_ = closer.Close()
	}
}

func family(name, help string, typ dto.MetricType, metrics ...*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   &name,
		Help:   &help,
		Type:   typ.Enum(),
		Metric: metrics,
	}
}

func counter(v float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{Label: labels, Counter: &dto.Counter{Value: &v}}
}

func gauge(v float64) *dto.Metric {
	return &dto.Metric{Gauge: &dto.Gauge{Value: &v}}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: &name, Value: &value}
}
