// Package manifest resolves which runs exist and which artifacts the
// selected run produced.
package manifest

import (
	"context"
	"dashboard/internal/analytics"
	"dashboard/internal/apperrors"
	"dashboard/internal/fetch"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Phase is the resolver's position in its session lifecycle.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseIndexLoading    Phase = "index_loading"
	PhaseIndexLoaded     Phase = "index_loaded"
	PhaseManifestLoading Phase = "manifest_loading"
	PhaseManifestLoaded  Phase = "manifest_loaded"
	PhaseEmpty           Phase = "empty"
	PhaseFailed          Phase = "failed"
)

// Loading reports whether the phase waits on a fetch.
func (p Phase) Loading() bool {
	return p == PhaseIndexLoading || p == PhaseManifestLoading
}

// Snapshot is the resolver state at one instant. Index stays populated when a
// run-level failure occurs; Manifest is only set in PhaseManifestLoaded.
type Snapshot struct {
	Phase    Phase                     `json:"phase"`
	Index    *analytics.DashboardIndex `json:"index,omitempty"`
	Selected string                    `json:"selected,omitempty"`
	Manifest *analytics.DagManifest    `json:"manifest,omitempty"`
	BasePath string                    `json:"base_path,omitempty"`
	Err      error                     `json:"-"`
	Error    string                    `json:"error,omitempty"`
}

// Resolver drives one dashboard session: it loads the index once, then the
// manifest of whichever run is selected. Only the latest selection's
// manifest is ever resident.
type Resolver struct {
	indexPath  string
	autoSelect bool
	session    string
	logger     *slog.Logger

	index    *fetch.Slot[analytics.DashboardIndex]
	manifest *fetch.Slot[analytics.DagManifest]

	mu        sync.Mutex
	selected  string
	selectErr error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAutoSelect controls whether the first run is selected once the index
// loads. It is on by default.
func WithAutoSelect(enabled bool) Option {
	return func(r *Resolver) {
		r.autoSelect = enabled
	}
}

// WithSession sets the session id used in log records.
func WithSession(id string) Option {
	return func(r *Resolver) {
		r.session = id
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// NewResolver creates an idle resolver reading the index at indexPath.
func NewResolver(client *fetch.Client, indexPath string, opts ...Option) *Resolver {
	r := &Resolver{
		indexPath:  indexPath,
		autoSelect: true,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.session == "" {
		r.session = uuid.NewString()
	}
	r.logger = r.logger.With("component", "manifest", "session", r.session)

	loadIndex := fetch.Loader[analytics.DashboardIndex](client, fetch.KindIndex)
	r.index = fetch.NewSlot(func(ctx context.Context, path string) (analytics.DashboardIndex, error) {
		idx, err := loadIndex(ctx, path)
		if err != nil {
			return idx, err
		}
		for _, reason := range idx.Normalize() {
			r.logger.Warn("Dropped index entry", "reason", reason)
		}
		return idx, nil
	})
	r.manifest = fetch.NewSlot(fetch.Loader[analytics.DagManifest](client, fetch.KindManifest))
	return r
}

// Session returns the session id.
func (r *Resolver) Session() string {
	return r.session
}

// LoadIndex fetches the index and waits for it to settle. When the index has
// runs and nothing is selected yet, the first run is selected and its
// manifest fetch started. ctx bounds every fetch started by this call.
func (r *Resolver) LoadIndex(ctx context.Context) (Snapshot, error) {
	r.index.Start(ctx, r.indexPath)
	st, err := r.index.Wait(ctx)
	if err != nil {
		return r.Snapshot(), err
	}

	if st.Phase == fetch.PhaseLoaded {
		r.logger.Info("Index loaded", "runs", len(st.Data.Dags))
		r.mu.Lock()
		if r.selected == "" && r.autoSelect && len(st.Data.Dags) > 0 {
			r.selected = st.Data.Dags[0].DagID
		}
		if r.selected != "" {
			_ = r.resolveLocked(ctx, &st.Data)
		}
		r.mu.Unlock()
	}
	return r.Snapshot(), nil
}

// Select makes dagID the current run. A manifest fetch for a previous
// selection is canceled and its result discarded. If the index is not loaded
// yet, the selection is kept and applied when it loads. Selecting a run that
// the loaded index does not list returns an unknown run error. Re-selecting
// the current run keeps its manifest state, failed or not.
func (r *Resolver) Select(ctx context.Context, dagID string) error {
	if dagID == "" {
		return apperrors.Validation("dag_id", "run id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = dagID

	st := r.index.State()
	if st.Phase != fetch.PhaseLoaded {
		return nil
	}
	return r.resolveLocked(ctx, &st.Data)
}

// resolveLocked points the manifest slot at the selected run. The caller
// holds r.mu, so a selection and the slot transition it causes are observed
// together by Snapshot.
func (r *Resolver) resolveLocked(ctx context.Context, idx *analytics.DashboardIndex) error {
	dagID := r.selected
	entry, ok := idx.Find(dagID)
	if !ok {
		r.selectErr = apperrors.UnknownRun(dagID)
		r.manifest.Cancel()
		r.logger.Warn("Unknown run selected", "dag_id", dagID)
		return r.selectErr
	}
	r.selectErr = nil
	if cur := r.manifest.State(); cur.Path == entry.Path && cur.Phase != fetch.PhaseIdle && cur.Phase != fetch.PhaseCanceled {
		return nil
	}
	r.logger.Info("Loading manifest", "dag_id", dagID, "path", entry.Path)
	r.manifest.Start(ctx, entry.Path)
	return nil
}

// Snapshot derives the current state. The manifest slot only counts when it
// holds the selected run's manifest.
func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.index.State()
	snap := Snapshot{Selected: r.selected}

	switch idx.Phase {
	case fetch.PhaseIdle, fetch.PhaseCanceled:
		snap.Phase = PhaseIdle
		return snap
	case fetch.PhaseLoading:
		snap.Phase = PhaseIndexLoading
		return snap
	case fetch.PhaseFailed:
		return failed(snap, idx.Err)
	}

	index := idx.Data
	snap.Index = &index
	if len(index.Dags) == 0 {
		snap.Phase = PhaseEmpty
		return snap
	}
	if r.selectErr != nil {
		return failed(snap, r.selectErr)
	}

	entry, ok := index.Find(r.selected)
	m := r.manifest.State()
	if !ok || m.Path != entry.Path {
		snap.Phase = PhaseIndexLoaded
		return snap
	}
	switch m.Phase {
	case fetch.PhaseLoading:
		snap.Phase = PhaseManifestLoading
	case fetch.PhaseLoaded:
		manifest := m.Data
		snap.Phase = PhaseManifestLoaded
		snap.Manifest = &manifest
		snap.BasePath = analytics.ManifestBase(m.Path)
	case fetch.PhaseFailed:
		return failed(snap, m.Err)
	default:
		snap.Phase = PhaseIndexLoaded
	}
	return snap
}

func failed(snap Snapshot, err error) Snapshot {
	snap.Phase = PhaseFailed
	snap.Err = err
	snap.Error = apperrors.Message(err)
	return snap
}

// Wait blocks until no fetch is outstanding or ctx is done.
func (r *Resolver) Wait(ctx context.Context) (Snapshot, error) {
	for {
		snap := r.Snapshot()
		var err error
		switch snap.Phase {
		case PhaseIndexLoading:
			_, err = r.index.Wait(ctx)
		case PhaseManifestLoading:
			_, err = r.manifest.Wait(ctx)
		default:
			return snap, nil
		}
		if err != nil {
			return r.Snapshot(), err
		}
	}
}

// Close cancels every outstanding fetch.
func (r *Resolver) Close() {
	r.index.Cancel()
	r.manifest.Cancel()
}
