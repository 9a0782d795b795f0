package feedback

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TempIDPrefix marks ids assigned to optimistic items.
const TempIDPrefix = "tmp-"

// NewTempID returns a fresh temporary id for an optimistic item.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// PendingCreate is the ticket for an optimistic create awaiting persistence.
type PendingCreate struct {
	TempID string
	Input  Input
}

// PendingStatus is the ticket for an optimistic resolve/reopen.
type PendingStatus struct {
	ID   string
	From Status
	To   Status
	// Noop is set when the item already had the requested status; nothing
	// needs to be persisted.
	Noop bool
	seq  uint64
}

// Option configures a Repository.
type Option func(*Repository)

// WithReadOnly disables creates and status changes.
func WithReadOnly(readOnly bool) Option {
	return func(r *Repository) { r.readOnly = readOnly }
}

// WithLogger sets the repository logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Repository) { r.logger = logger.With().Str("component", "feedback").Logger() }
}

// WithMetrics records optimistic outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Repository) { r.metrics = m }
}

// WithClock overrides the clock used for optimistic timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// Repository is the authoritative list of top-level feedback for one
// artwork version. Mutations are optimistic: the local list changes first
// and is reconciled when the persistence call settles.
type Repository struct {
	mu          sync.Mutex
	artwork     ArtworkRef
	persistence Persistence
	readOnly    bool
	logger      zerolog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time

	items []Item
	// statusSeq holds the sequence of the latest local status change per id.
	statusSeq map[string]uint64
	seq       uint64
	disposed  bool
}

// NewRepository creates an empty repository for artwork.
func NewRepository(artwork ArtworkRef, persistence Persistence, opts ...Option) *Repository {
	r := &Repository{
		artwork:     artwork,
		persistence: persistence,
		logger:      zerolog.Nop(),
		now:         time.Now,
		statusSeq:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Artwork returns the artwork version the repository is scoped to.
func (r *Repository) Artwork() ArtworkRef { return r.artwork }

// ReadOnly reports whether mutations are disabled.
func (r *Repository) ReadOnly() bool { return r.readOnly }

// Load merges a snapshot of committed items into the list. Items of another
// artwork version and replies are dropped. Local items the snapshot lacks are
// kept, since a create may have committed after the snapshot was taken. A
// status change still in flight keeps its local value.
func (r *Repository) Load(items []Item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	local := make(map[string]Item, len(r.items))
	for _, it := range r.items {
		local[it.ID] = it
	}

	next := make([]Item, 0, len(items)+len(r.items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Artwork != r.artwork || it.IsReply() || it.ID == "" || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		it.Pending = false
		if prev, ok := local[it.ID]; ok {
			if _, inFlight := r.statusSeq[it.ID]; inFlight {
				it.Status = prev.Status
			}
			if it.Content == "" {
				it.Content = prev.Content
			}
		}
		next = append(next, it)
	}
	for _, it := range r.items {
		if !seen[it.ID] {
			next = append(next, it)
		}
	}
	r.items = next
}

// List returns the items in insertion order.
func (r *Repository) List() []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}

// ListNewestFirst returns the items for display, newest first.
func (r *Repository) ListNewestFirst() []Item {
	items := r.List()
	slices.Reverse(items)
	return items
}

// Get returns the item with id.
func (r *Repository) Get(id string) (Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(id); i >= 0 {
		return r.items[i], true
	}
	return Item{}, false
}

// Visible returns the items shown under the open-only filter. Resolved
// items stay in the list; only their visibility changes.
func (r *Repository) Visible(openOnly bool) []Item {
	items := r.List()
	if !openOnly {
		return items
	}
	return slices.DeleteFunc(items, func(it Item) bool { return it.Status != StatusOpen })
}

// BeginCreate appends an optimistic item for draft and returns its ticket.
func (r *Repository) BeginCreate(d Draft) (PendingCreate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkWritable("create"); err != nil {
		return PendingCreate{}, err
	}
	if d.ParentID != "" {
		return PendingCreate{}, invalidDraft("replies are created through their thread")
	}
	d, err := d.Normalize()
	if err != nil {
		return PendingCreate{}, err
	}

	p := PendingCreate{TempID: NewTempID(), Input: d.Input(r.artwork)}
	r.items = append(r.items, Item{
		ID:        p.TempID,
		Kind:      d.Kind,
		Content:   d.Content,
		AudioRef:  d.AudioRef,
		AudioURL:  d.AudioURL,
		Position:  d.Position,
		Status:    StatusOpen,
		Author:    d.Author,
		CreatedAt: r.now(),
		Artwork:   r.artwork,
		Pending:   true,
	})
	r.logger.Debug().Str("temp_id", p.TempID).Str("kind", string(d.Kind)).Msg("optimistic create")
	return p, nil
}

// SettleCreate reconciles an optimistic create with the persistence result.
// On success the temporary entry is replaced in place by saved; on failure
// it is removed and a submit-failed error is returned.
func (r *Repository) SettleCreate(p PendingCreate, saved Item, submitErr error) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		r.metrics.RecordCreate(string(p.Input.Kind), metrics.ResultIgnored)
		return Item{}, errDisposed("settle create")
	}
	i := r.indexOf(p.TempID)
	if i < 0 {
		return Item{}, errors.New(nil).
			Component("feedback").
			Category(errors.CategoryNotFound).
			Context("temp_id", p.TempID).
			Context("error", "optimistic item no longer present").
			Build()
	}

	if submitErr == nil && saved.ID == "" {
		submitErr = errors.NewStd("persistence returned a record without id")
	}
	if submitErr != nil {
		r.items = slices.Delete(r.items, i, i+1)
		r.metrics.RecordCreate(string(p.Input.Kind), metrics.ResultRolledBack)
		r.logger.Warn().Err(submitErr).Str("temp_id", p.TempID).Msg("create rolled back")
		return Item{}, errors.New(submitErr).
			Component("feedback").
			Category(errors.CategorySubmitFailed).
			Context("temp_id", p.TempID).
			Build()
	}

	pending := r.items[i]
	saved.Pending = false
	if saved.Kind == KindAudio && saved.Content == "" {
		// A transcript may have arrived while the create was in flight.
		saved.Content = pending.Content
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = pending.CreatedAt
	}
	// A load that ran after the insert already carries the committed copy.
	if j := slices.IndexFunc(r.items, func(it Item) bool { return it.ID == saved.ID }); j >= 0 && j != i {
		if _, inFlight := r.statusSeq[saved.ID]; inFlight {
			saved.Status = r.items[j].Status
		}
		if saved.Content == "" {
			saved.Content = r.items[j].Content
		}
		r.items[i] = saved
		r.items = slices.Delete(r.items, j, j+1)
	} else {
		r.items[i] = saved
	}
	r.metrics.RecordCreate(string(saved.Kind), metrics.ResultCommitted)
	r.logger.Debug().Str("temp_id", p.TempID).Str("id", saved.ID).Msg("create committed")
	return saved, nil
}

// Create performs an optimistic create and waits for persistence.
func (r *Repository) Create(ctx context.Context, d Draft) (Item, error) {
	p, err := r.BeginCreate(d)
	if err != nil {
		return Item{}, err
	}
	saved, err := r.persistence.SubmitFeedback(ctx, p.Input)
	return r.SettleCreate(p, saved, err)
}

// BeginStatus flips the local status of id to status and returns the ticket.
func (r *Repository) BeginStatus(id string, status Status) (PendingStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.beginStatusLocked(id, func(Status) Status { return status })
}

// BeginToggle flips the status of id to its opposite.
func (r *Repository) BeginToggle(id string) (PendingStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.beginStatusLocked(id, Status.Toggled)
}

func (r *Repository) beginStatusLocked(id string, next func(Status) Status) (PendingStatus, error) {
	if err := r.checkWritable("set status"); err != nil {
		return PendingStatus{}, err
	}
	i := r.indexOf(id)
	if i < 0 {
		return PendingStatus{}, errors.New(nil).
			Component("feedback").
			Category(errors.CategoryNotFound).
			Context("id", id).
			Context("error", "feedback item not found").
			Build()
	}
	if r.items[i].Pending {
		return PendingStatus{}, errors.New(nil).
			Component("feedback").
			Category(errors.CategoryState).
			Context("id", id).
			Context("error", "item is still being saved").
			Build()
	}

	from := r.items[i].Status
	status := next(from)
	if from == status {
		return PendingStatus{ID: id, From: from, To: status, Noop: true}, nil
	}
	r.seq++
	r.statusSeq[id] = r.seq
	r.items[i].Status = status
	return PendingStatus{ID: id, From: from, To: status, seq: r.seq}, nil
}

// SettleStatus reconciles an optimistic status change. On failure the local
// status reverts to its pre-call value unless a later local change has
// superseded this one.
func (r *Repository) SettleStatus(p PendingStatus, setErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Noop {
		return nil
	}
	if r.disposed {
		r.metrics.RecordStatusChange(string(p.To), metrics.ResultIgnored)
		return errDisposed("settle status")
	}
	latest := r.statusSeq[p.ID] == p.seq
	if latest {
		delete(r.statusSeq, p.ID)
	}
	if setErr == nil {
		r.metrics.RecordStatusChange(string(p.To), metrics.ResultCommitted)
		return nil
	}

	if i := r.indexOf(p.ID); i >= 0 && latest && r.items[i].Status == p.To {
		r.items[i].Status = p.From
	}
	r.metrics.RecordStatusChange(string(p.To), metrics.ResultRolledBack)
	r.logger.Warn().Err(setErr).Str("id", p.ID).Str("status", string(p.To)).Msg("status change rolled back")
	return errors.New(setErr).
		Component("feedback").
		Category(errors.CategorySubmitFailed).
		Context("id", p.ID).
		Context("status", string(p.To)).
		Build()
}

// SetStatus performs an optimistic status change and waits for persistence.
func (r *Repository) SetStatus(ctx context.Context, id string, status Status) error {
	p, err := r.BeginStatus(id, status)
	if err != nil {
		return err
	}
	return r.commitStatus(ctx, p)
}

// Resolve marks id as resolved.
func (r *Repository) Resolve(ctx context.Context, id string) error {
	return r.SetStatus(ctx, id, StatusResolved)
}

// Reopen marks id as open again.
func (r *Repository) Reopen(ctx context.Context, id string) error {
	return r.SetStatus(ctx, id, StatusOpen)
}

// Toggle resolves an open item or reopens a resolved one.
func (r *Repository) Toggle(ctx context.Context, id string) error {
	p, err := r.BeginToggle(id)
	if err != nil {
		return err
	}
	return r.commitStatus(ctx, p)
}

// PersistStatus issues the persistence call for a status ticket. It does not
// touch repository state and is safe to run off the event loop.
func (r *Repository) PersistStatus(ctx context.Context, p PendingStatus) error {
	if p.Noop {
		return nil
	}
	return r.persistence.SetStatus(ctx, p.ID, p.To)
}

// PersistCreate issues the persistence call for a create ticket.
func (r *Repository) PersistCreate(ctx context.Context, p PendingCreate) (Item, error) {
	return r.persistence.SubmitFeedback(ctx, p.Input)
}

func (r *Repository) commitStatus(ctx context.Context, p PendingStatus) error {
	return r.SettleStatus(p, r.PersistStatus(ctx, p))
}

// AttachTranscript sets the content of the audio item carrying assetRef.
// Transcripts may arrive late or never; unknown refs are ignored.
func (r *Repository) AttachTranscript(assetRef, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed || assetRef == "" || text == "" {
		return false
	}
	for i := range r.items {
		it := &r.items[i]
		if it.Kind == KindAudio && it.AudioRef == assetRef {
			if it.Content == "" {
				it.Content = text
			}
			return true
		}
	}
	return false
}

// Dispose marks the repository torn down. Results settled afterwards are ignored.
func (r *Repository) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disposed = true
}

func (r *Repository) checkWritable(op string) error {
	if r.disposed {
		return errDisposed(op)
	}
	if r.readOnly {
		return errors.New(nil).
			Component("feedback").
			Category(errors.CategoryReadOnly).
			Context("operation", op).
			Context("error", "viewer is read-only").
			Build()
	}
	return nil
}

func (r *Repository) indexOf(id string) int {
	return slices.IndexFunc(r.items, func(it Item) bool { return it.ID == id })
}

func errDisposed(op string) error {
	return errors.New(nil).
		Component("feedback").
		Category(errors.CategoryState).
		Context("operation", op).
		Context("error", "repository disposed").
		Build()
}
