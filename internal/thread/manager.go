// Package thread manages lazily loaded reply lists under top-level feedback.
package thread

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/feedback"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/metrics"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// ReplySource is the persistence boundary for replies.
type ReplySource interface {
	ListReplies(ctx context.Context, parentID string) ([]feedback.Item, error)
	SubmitFeedback(ctx context.Context, in feedback.Input) (feedback.Item, error)
}

// View is the display state of one thread.
type View struct {
	Expanded bool
	Loading  bool
	Items    []feedback.Item
	Err      error
}

// PendingReply is the ticket for an optimistic reply.
type PendingReply struct {
	ParentID string
	TempID   string
	Input    feedback.Input
}

type threadState struct {
	expanded bool
	loading  bool
	loaded   bool
	items    []feedback.Item
	err      error
}

// Option configures a Manager.
type Option func(*Manager)

// WithReadOnly disables replies.
func WithReadOnly(readOnly bool) Option {
	return func(m *Manager) { m.readOnly = readOnly }
}

// WithLogger sets the manager logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger.With().Str("component", "thread").Logger() }
}

// WithMetrics records reply outcomes on mt.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithTTL expires loaded threads after ttl so the next expand refetches.
// Zero keeps threads for the life of the manager.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithClock overrides the clock used for optimistic timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager holds per-parent thread state. Replies are fetched once per
// parent on first expand.
type Manager struct {
	mu       sync.Mutex
	artwork  feedback.ArtworkRef
	source   ReplySource
	readOnly bool
	ttl      time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	threads  *cache.Cache
	disposed bool
}

// NewManager creates a manager for replies under artwork.
func NewManager(artwork feedback.ArtworkRef, source ReplySource, opts ...Option) *Manager {
	m := &Manager{
		artwork: artwork,
		source:  source,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	// No janitor: expired threads are detected on Get and replaced on the
	// next expand.
	if m.ttl > 0 {
		m.threads = cache.New(m.ttl, 0)
	} else {
		m.threads = cache.New(cache.NoExpiration, 0)
	}
	return m
}

func (m *Manager) get(parentID string) (*threadState, bool) {
	v, ok := m.threads.Get(parentID)
	if !ok {
		return nil, false
	}
	return v.(*threadState), true
}

func (m *Manager) put(parentID string, st *threadState) {
	m.threads.Set(parentID, st, cache.DefaultExpiration)
}

// Expand opens the thread under parentID and reports whether its replies
// must be fetched. Only the first expand of a thread, or one after a failed
// or expired fetch, asks for a fetch.
func (m *Manager) Expand(parentID string) (fetch bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed || parentID == "" {
		return false
	}
	st, ok := m.get(parentID)
	if !ok {
		st = &threadState{}
		m.put(parentID, st)
	}
	st.expanded = true
	if st.loading || (st.loaded && st.err == nil) {
		return false
	}
	st.loading = true
	st.err = nil
	m.logger.Debug().Str("parent_id", parentID).Msg("fetching thread")
	return true
}

// Fetch loads the replies under parentID. It does not touch manager state
// and is meant to run off the event loop.
func (m *Manager) Fetch(ctx context.Context, parentID string) ([]feedback.Item, error) {
	return m.source.ListReplies(ctx, parentID)
}

// SettleFetch merges a fetch result by id. Local replies the snapshot lacks,
// optimistic or committed, are kept after the fetched ones.
func (m *Manager) SettleFetch(parentID string, items []feedback.Item, fetchErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return
	}
	st, ok := m.get(parentID)
	if !ok || !st.loading {
		return
	}
	st.loading = false
	if fetchErr != nil {
		st.err = errors.New(fetchErr).
			Component("thread").
			Category(errors.CategoryNetwork).
			Context("parent_id", parentID).
			Build()
		m.logger.Warn().Err(fetchErr).Str("parent_id", parentID).Msg("thread fetch failed")
		return
	}

	next := make([]feedback.Item, 0, len(items)+len(st.items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ParentID != parentID || it.ID == "" || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		it.Pending = false
		it.Position = nil
		next = append(next, it)
	}
	// Replies that committed after the snapshot was taken are kept.
	for _, it := range st.items {
		if !seen[it.ID] {
			next = append(next, it)
		}
	}
	st.items = next
	st.loaded = true
	st.err = nil
	// Refresh the expiry from the time the replies arrived.
	m.put(parentID, st)
}

// Thread returns the view of the thread under parentID.
func (m *Manager) Thread(parentID string) View {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.get(parentID)
	if !ok {
		return View{}
	}
	return View{
		Expanded: st.expanded,
		Loading:  st.loading,
		Items:    slices.Clone(st.items),
		Err:      st.err,
	}
}

// Collapse hides the thread. Loaded replies are kept for the next expand.
func (m *Manager) Collapse(parentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.get(parentID); ok {
		st.expanded = false
	}
}

// BeginReply appends an optimistic reply to an expanded thread.
func (m *Manager) BeginReply(parentID, content string, identity *feedback.Author) (PendingReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.disposed:
		return PendingReply{}, stateErr("thread manager disposed", parentID)
	case m.readOnly:
		return PendingReply{}, errors.New(nil).
			Component("thread").
			Category(errors.CategoryReadOnly).
			Context("parent_id", parentID).
			Context("error", "viewer is read-only").
			Build()
	case identity == nil:
		return PendingReply{}, errors.New(nil).
			Component("thread").
			Category(errors.CategoryIdentityRequired).
			Context("error", "identify yourself before replying").
			Build()
	}
	st, ok := m.get(parentID)
	if !ok || !st.expanded {
		return PendingReply{}, stateErr("thread is not expanded", parentID)
	}

	d, err := feedback.Draft{
		Kind:     feedback.KindText,
		Content:  content,
		ParentID: parentID,
		Author:   *identity,
	}.Normalize()
	if err != nil {
		return PendingReply{}, err
	}

	p := PendingReply{ParentID: parentID, TempID: feedback.NewTempID(), Input: d.Input(m.artwork)}
	st.items = append(st.items, feedback.Item{
		ID:        p.TempID,
		Kind:      d.Kind,
		Content:   d.Content,
		Status:    feedback.StatusOpen,
		Author:    d.Author,
		CreatedAt: m.now(),
		Artwork:   m.artwork,
		ParentID:  parentID,
		Pending:   true,
	})
	return p, nil
}

// PersistReply submits the reply. It does not touch manager state.
func (m *Manager) PersistReply(ctx context.Context, p PendingReply) (feedback.Item, error) {
	return m.source.SubmitFeedback(ctx, p.Input)
}

// SettleReply commits or rolls back an optimistic reply.
func (m *Manager) SettleReply(p PendingReply, saved feedback.Item, submitErr error) (feedback.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		m.metrics.RecordReply(metrics.ResultIgnored)
		return feedback.Item{}, stateErr("thread manager disposed", p.ParentID)
	}
	st, ok := m.get(p.ParentID)
	if !ok {
		return feedback.Item{}, stateErr("thread no longer tracked", p.ParentID)
	}
	i := slices.IndexFunc(st.items, func(it feedback.Item) bool { return it.ID == p.TempID })
	if i < 0 {
		return feedback.Item{}, errors.New(nil).
			Component("thread").
			Category(errors.CategoryNotFound).
			Context("temp_id", p.TempID).
			Context("error", "optimistic reply no longer present").
			Build()
	}

	if submitErr == nil && saved.ID == "" {
		submitErr = errors.NewStd("persistence returned a reply without id")
	}
	if submitErr != nil {
		st.items = slices.Delete(st.items, i, i+1)
		m.metrics.RecordReply(metrics.ResultRolledBack)
		m.logger.Warn().Err(submitErr).Str("parent_id", p.ParentID).Msg("reply rolled back")
		return feedback.Item{}, errors.New(submitErr).
			Component("thread").
			Category(errors.CategorySubmitFailed).
			Context("parent_id", p.ParentID).
			Context("temp_id", p.TempID).
			Build()
	}

	saved.Pending = false
	saved.Position = nil
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = st.items[i].CreatedAt
	}
	st.items[i] = saved
	// A fetch that ran after the insert already carries the committed copy.
	if j := slices.IndexFunc(st.items, func(it feedback.Item) bool { return it.ID == saved.ID }); j >= 0 && j != i {
		st.items = slices.Delete(st.items, j, j+1)
	}
	m.metrics.RecordReply(metrics.ResultCommitted)
	return saved, nil
}

// Reply performs an optimistic reply and waits for persistence.
func (m *Manager) Reply(ctx context.Context, parentID, content string, identity *feedback.Author) (feedback.Item, error) {
	p, err := m.BeginReply(parentID, content, identity)
	if err != nil {
		return feedback.Item{}, err
	}
	saved, err := m.PersistReply(ctx, p)
	return m.SettleReply(p, saved, err)
}

// Dispose drops all threads. Results settled afterwards are ignored.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposed = true
	m.threads.Flush()
}

func stateErr(msg, parentID string) error {
	return errors.New(nil).
		Component("thread").
		Category(errors.CategoryState).
		Context("parent_id", parentID).
		Context("error", msg).
		Build()
}
