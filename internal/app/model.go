// Package app is the interactive annotation surface: a bubbletea model that
// draws the artwork with its feedback pins, takes clicks as pin placements,
// and drives the composer, threads and audio pipeline from one event loop.
package app

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/audio"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/compose"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/feedback"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/geometry"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/metrics"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/thread"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/viewport"
	"github.com/rs/zerolog"

	tea "github.com/charmbracelet/bubbletea"
)

// Layout rows above and below the artwork area.
const (
	headerRows = 3 // title, status, divider
	footerRows = 3 // divider, message, keys
)

const transientErrorTTL = 5 * time.Second

// Backend is the persistence the surface reads from and writes to.
type Backend interface {
	feedback.Persistence
	feedback.Lister
	ListReplies(ctx context.Context, parentID string) ([]feedback.Item, error)
}

// Transcriber turns an uploaded voice comment into text.
type Transcriber interface {
	Transcribe(ctx context.Context, assetRef, url string) (string, error)
}

// TranscriptSink stores transcripts next to the comment they belong to.
type TranscriptSink interface {
	AttachTranscript(ctx context.Context, assetRef, text string) (bool, error)
}

// Options are the collaborators and settings of one annotation session.
type Options struct {
	Artwork  feedback.ArtworkRef
	Title    string
	Natural  viewport.Size
	Viewport viewport.Config

	Backend     Backend
	Uploader    audio.Uploader
	Microphone  audio.Microphone
	Arbiter     *audio.Arbiter
	Transcriber Transcriber

	Identity          *feedback.Author
	ReadOnly          bool
	MaxUploadAttempts int
	ThreadTTL         time.Duration

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

type inputMode int

const (
	inputNone inputMode = iota
	inputReply
	inputIdentity
)

// pendingAction is what resumes after the identity prompt.
type pendingAction int

const (
	actionNone pendingAction = iota
	actionSubmitDraft
	actionSubmitReply
)

// Model is the root bubbletea model for one artwork version.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	teardown *sync.Once

	title       string
	backend     Backend
	uploader    audio.Uploader
	transcriber Transcriber
	logger      zerolog.Logger

	repo     *feedback.Repository
	threads  *thread.Manager
	composer *compose.Composer
	view     *viewport.Controller
	nav      *feedback.Navigator

	identity    *feedback.Author
	readOnly    bool
	commentMode bool
	openOnly    bool
	loading     bool

	// Text entry outside the composer.
	input        inputMode
	replyTo      string
	replyText    []rune
	identityText []rune
	afterIdent   pendingAction

	// UI state
	width  int
	height int

	// Errors
	errorMessage   string
	errorTransient bool
	errorSeq       int
	notice         string
}

// New builds the surface and its engine components from opts.
func New(opts Options) (Model, error) {
	if opts.Backend == nil {
		return Model{}, errors.New(nil).
			Component("app").
			Category(errors.CategoryConfiguration).
			Context("error", "no feedback backend configured").
			Build()
	}
	cfg := opts.Viewport
	if cfg == (viewport.Config{}) {
		cfg = viewport.DefaultConfig()
	}
	view, err := viewport.New(cfg, opts.Natural)
	if err != nil {
		return Model{}, err
	}

	logger := opts.Logger.With().Str("component", "app").Logger()
	audioOpts := []audio.Option{
		audio.WithLogger(opts.Logger),
		audio.WithMetrics(opts.Metrics),
		audio.WithMaxUploadAttempts(opts.MaxUploadAttempts),
	}
	if opts.Arbiter != nil {
		audioOpts = append(audioOpts, audio.WithArbiter(opts.Arbiter))
	}
	pipeline := audio.NewPipeline(opts.Microphone, audioOpts...)
	threadOpts := []thread.Option{
		thread.WithReadOnly(opts.ReadOnly),
		thread.WithLogger(opts.Logger),
		thread.WithMetrics(opts.Metrics),
	}
	if opts.ThreadTTL > 0 {
		threadOpts = append(threadOpts, thread.WithTTL(opts.ThreadTTL))
	}

	ctx, cancel := context.WithCancel(context.Background())
	title := opts.Title
	if title == "" {
		title = opts.Artwork.ArtworkID
	}
	return Model{
		ctx:         ctx,
		cancel:      cancel,
		teardown:    &sync.Once{},
		title:       title,
		backend:     opts.Backend,
		uploader:    opts.Uploader,
		transcriber: opts.Transcriber,
		logger:      logger,
		repo: feedback.NewRepository(opts.Artwork, opts.Backend,
			feedback.WithReadOnly(opts.ReadOnly),
			feedback.WithLogger(opts.Logger),
			feedback.WithMetrics(opts.Metrics),
		),
		threads:  thread.NewManager(opts.Artwork, opts.Backend, threadOpts...),
		composer: compose.New(pipeline, compose.WithLogger(opts.Logger)),
		view:     view,
		nav:      &feedback.Navigator{},
		identity: opts.Identity,
		readOnly: opts.ReadOnly,
		loading:  true,
	}, nil
}

// Init loads the feedback of the artwork version.
func (m Model) Init() tea.Cmd {
	return loadFeedbackCmd(m.ctx, m.backend, m.repo.Artwork())
}

// Dispose tears the session down: in-flight work is cancelled, an active
// recording is stopped and late results are ignored. Safe to call repeatedly.
func (m Model) Dispose() {
	m.teardown.Do(func() {
		m.cancel()
		m.composer.Dispose()
		m.threads.Dispose()
		m.repo.Dispose()
		m.logger.Debug().Msg("annotation surface disposed")
	})
}

// Commands

func loadFeedbackCmd(ctx context.Context, backend Backend, artwork feedback.ArtworkRef) tea.Cmd {
	return func() tea.Msg {
		items, err := backend.ListFeedback(ctx, artwork)
		return FeedbackLoadedMsg{Items: items, Err: err}
	}
}

func (m Model) createCmd(p feedback.PendingCreate) tea.Cmd {
	repo, ctx := m.repo, m.ctx
	return func() tea.Msg {
		item, err := repo.PersistCreate(ctx, p)
		return CreateSettledMsg{Pending: p, Item: item, Err: err}
	}
}

func (m Model) statusCmd(p feedback.PendingStatus) tea.Cmd {
	repo, ctx := m.repo, m.ctx
	return func() tea.Msg {
		return StatusSettledMsg{Pending: p, Err: repo.PersistStatus(ctx, p)}
	}
}

func (m Model) uploadCmd(job audio.UploadJob) tea.Cmd {
	pipeline, uploader, ctx := m.composer.Audio(), m.uploader, m.ctx
	return func() tea.Msg {
		asset, err := pipeline.Upload(ctx, job, uploader)
		return UploadSettledMsg{Job: job, Asset: asset, Err: err}
	}
}

func (m Model) transcribeCmd(item feedback.Item) tea.Cmd {
	transcriber, backend, ctx := m.transcriber, m.backend, m.ctx
	return func() tea.Msg {
		text, err := transcriber.Transcribe(ctx, item.AudioRef, item.AudioURL)
		if err == nil {
			if sink, ok := backend.(TranscriptSink); ok {
				_, err = sink.AttachTranscript(ctx, item.AudioRef, text)
			}
		}
		return TranscriptMsg{AssetRef: item.AudioRef, Text: text, Err: err}
	}
}

func (m Model) fetchThreadCmd(parentID string) tea.Cmd {
	threads, ctx := m.threads, m.ctx
	return func() tea.Msg {
		items, err := threads.Fetch(ctx, parentID)
		return ThreadFetchedMsg{ParentID: parentID, Items: items, Err: err}
	}
}

func (m Model) replyCmd(p thread.PendingReply) tea.Cmd {
	threads, ctx := m.threads, m.ctx
	return func() tea.Msg {
		item, err := threads.PersistReply(ctx, p)
		return ReplySettledMsg{Pending: p, Item: item, Err: err}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd(seq int) tea.Cmd {
	return tea.Tick(transientErrorTTL, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{Seq: seq}
	})
}

func recordingTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return RecordingTickMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.SetWindow(m.artworkWindow())
		return m, nil

	case FeedbackLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.logger.Warn().Err(msg.Err).Msg("load feedback failed")
			cmd := m.showError(msg.Err)
			return m, cmd
		}
		m.repo.Load(msg.Items)
		return m, nil

	case CreateSettledMsg:
		return m.settleCreate(msg)

	case StatusSettledMsg:
		if err := m.repo.SettleStatus(msg.Pending, msg.Err); err != nil {
			cmd := m.showError(err)
			return m, cmd
		}
		return m, nil

	case UploadSettledMsg:
		if err := m.composer.Audio().SettleUpload(msg.Job, msg.Asset, msg.Err); err != nil {
			cmd := m.showError(err)
			return m, cmd
		}
		return m, nil

	case TranscriptMsg:
		if msg.Err != nil {
			m.logger.Debug().Err(msg.Err).Str("asset", msg.AssetRef).Msg("transcript unavailable")
			return m, nil
		}
		m.repo.AttachTranscript(msg.AssetRef, msg.Text)
		return m, nil

	case ThreadFetchedMsg:
		m.threads.SettleFetch(msg.ParentID, msg.Items, msg.Err)
		return m, nil

	case ReplySettledMsg:
		if _, err := m.threads.SettleReply(msg.Pending, msg.Item, msg.Err); err != nil {
			if m.input == inputNone && !errors.IsCategory(err, errors.CategoryState) {
				// Put the text back so a failed reply can be sent again.
				m.input = inputReply
				m.replyTo = msg.Pending.ParentID
				m.replyText = []rune(msg.Pending.Input.Content)
			}
			cmd := m.showError(err)
			return m, cmd
		}
		return m, nil

	case RecordingTickMsg:
		if m.composer.Audio().State() == audio.StateRecording {
			return m, recordingTickCmd()
		}
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient && msg.Seq == m.errorSeq {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

func (m Model) settleCreate(msg CreateSettledMsg) (tea.Model, tea.Cmd) {
	item, err := m.repo.SettleCreate(msg.Pending, msg.Item, msg.Err)
	m.composer.Settle(err)
	if err != nil {
		cmd := m.showError(err)
		return m, cmd
	}
	m.nav.Rename(msg.Pending.TempID, item.ID)
	if item.IsPin() {
		m.nav.Select(item.ID)
	}
	if item.Kind == feedback.KindAudio && item.Content == "" && m.transcriber != nil {
		return m, m.transcribeCmd(item)
	}
	return m, nil
}

// showError displays err until the next one, or for a few seconds.
func (m *Model) showError(err error) tea.Cmd {
	m.errorMessage = describe(err)
	m.errorTransient = true
	m.errorSeq++
	m.notice = ""
	return clearTransientErrorCmd(m.errorSeq)
}

func describe(err error) string {
	switch errors.CategoryOf(err) {
	case errors.CategoryPermissionDenied:
		return "Microphone unavailable: " + err.Error()
	case errors.CategoryUploadFailed:
		return "Audio upload failed: " + err.Error()
	case errors.CategorySubmitFailed:
		return "Not saved: " + err.Error()
	case errors.CategoryReadOnly:
		return "Read-only: " + err.Error()
	case errors.CategoryNetwork:
		return "Could not load replies: " + err.Error()
	}
	return err.Error()
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == KeyCtrlC {
		return m.quit()
	}
	switch m.input {
	case inputIdentity:
		return m.handleIdentityKey(msg)
	case inputReply:
		return m.handleReplyKey(msg)
	}
	if m.composer.Open() {
		return m.handleDraftKey(msg)
	}
	m.notice = ""

	switch msg.String() {
	case KeyQuit, KeyQuitUpper:
		return m.quit()

	case KeyCommentMode:
		if m.readOnly {
			m.notice = "Read-only session: comment mode is unavailable"
			return m, nil
		}
		m.commentMode = !m.commentMode
		return m, nil

	case KeyGeneral:
		if err := m.composer.OpenGeneral(m.readOnly); err != nil {
			cmd := m.showError(err)
			return m, cmd
		}
		return m, nil

	case KeyZoomIn, KeyZoomInAlt:
		m.view.ZoomIn()
		return m, nil

	case KeyZoomOut:
		m.view.ZoomOut()
		return m, nil

	case KeyZoomReset:
		m.view.Reset()
		return m, nil

	case KeyUp, KeyDown, KeyLeft, KeyRight:
		m.pan(msg.String())
		return m, nil

	case KeyNextPin:
		m.nav.Next(feedback.Pins(m.repo.Visible(m.openOnly)))
		return m, nil

	case KeyPrevPin:
		m.nav.Prev(feedback.Pins(m.repo.Visible(m.openOnly)))
		return m, nil

	case KeyJ:
		m.moveSelection(1)
		return m, nil

	case KeyK:
		m.moveSelection(-1)
		return m, nil

	case KeyFilter:
		m.openOnly = !m.openOnly
		m.dropHiddenSelection()
		return m, nil

	case KeyResolve:
		return m.toggleSelected()

	case KeyEnter:
		return m.toggleThread()

	case KeyReply:
		return m.startReply()
	}

	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.Dispose()
	return m, tea.Quit
}

func (m *Model) pan(key string) {
	switch key {
	case KeyUp:
		m.view.Pan(0, -panStep)
	case KeyDown:
		m.view.Pan(0, panStep)
	case KeyLeft:
		m.view.Pan(-panStep, 0)
	case KeyRight:
		m.view.Pan(panStep, 0)
	}
}

// listItems returns the visible items in display order, newest first.
func (m Model) listItems() []feedback.Item {
	items := m.repo.Visible(m.openOnly)
	slices.Reverse(items)
	return items
}

func (m Model) selected() (feedback.Item, bool) {
	id := m.nav.CurrentID()
	if id == "" {
		return feedback.Item{}, false
	}
	for _, it := range m.repo.Visible(m.openOnly) {
		if it.ID == id {
			return it, true
		}
	}
	return feedback.Item{}, false
}

func (m *Model) moveSelection(delta int) {
	items := m.listItems()
	if len(items) == 0 {
		m.nav.Clear()
		return
	}
	i := slices.IndexFunc(items, func(it feedback.Item) bool { return it.ID == m.nav.CurrentID() })
	switch {
	case i < 0 && delta > 0:
		i = 0
	case i < 0:
		i = len(items) - 1
	default:
		i = max(0, min(len(items)-1, i+delta))
	}
	m.nav.Select(items[i].ID)
}

func (m *Model) dropHiddenSelection() {
	if _, ok := m.selected(); !ok {
		m.nav.Clear()
	}
}

func (m Model) toggleSelected() (tea.Model, tea.Cmd) {
	it, ok := m.selected()
	if !ok {
		return m, nil
	}
	p, err := m.repo.BeginToggle(it.ID)
	if err != nil {
		cmd := m.showError(err)
		return m, cmd
	}
	if p.Noop {
		return m, nil
	}
	m.dropHiddenSelection()
	return m, m.statusCmd(p)
}

func (m Model) toggleThread() (tea.Model, tea.Cmd) {
	it, ok := m.selected()
	if !ok || it.Pending {
		return m, nil
	}
	if m.threads.Thread(it.ID).Expanded {
		m.threads.Collapse(it.ID)
		return m, nil
	}
	if m.threads.Expand(it.ID) {
		return m, m.fetchThreadCmd(it.ID)
	}
	return m, nil
}

func (m Model) startReply() (tea.Model, tea.Cmd) {
	it, ok := m.selected()
	if !ok || it.Pending {
		return m, nil
	}
	if m.readOnly {
		m.notice = "Read-only session: replies are unavailable"
		return m, nil
	}
	m.input = inputReply
	m.replyTo = it.ID
	m.replyText = nil
	if m.threads.Expand(it.ID) {
		return m, m.fetchThreadCmd(it.ID)
	}
	return m, nil
}

// handleMouse places a pin in comment mode, or selects the pin under the
// pointer otherwise.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if m.input != inputNone {
		return m, nil
	}
	window := m.view.Window()
	origin := m.artworkOrigin()
	p := geometry.Point{X: float64(msg.X), Y: float64(msg.Y)}
	inWindow := p.X >= origin.X && p.X < origin.X+window.W && p.Y >= origin.Y && p.Y < origin.Y+window.H
	if !inWindow {
		return m, nil
	}

	if !m.commentMode {
		if id, ok := m.pinAt(msg.X, msg.Y); ok {
			m.nav.Select(id)
		}
		return m, nil
	}

	pos := geometry.ToNormalized(p, m.view.Container(origin))
	if err := m.composer.Place(pos, m.commentMode, m.readOnly); err != nil {
		cmd := m.showError(err)
		return m, cmd
	}
	return m, nil
}

func (m Model) pinAt(x, y int) (string, bool) {
	container := m.view.Container(m.artworkOrigin())
	for _, it := range feedback.Pins(m.repo.Visible(m.openOnly)) {
		cx, cy := pinCell(it.Position.Point(), container)
		if cx == x && cy == y {
			return it.ID, true
		}
	}
	return "", false
}

// pinCell returns the terminal cell a normalized position is drawn in.
func pinCell(n geometry.Point, container geometry.Rect) (int, int) {
	p := geometry.ToPixel(n, container)
	x := int(p.X)
	y := int(p.Y)
	// A pin on the far edge stays on the artwork's last cell.
	if n.X >= 1 && container.W >= 1 {
		x = int(container.X + container.W - 1)
	}
	if n.Y >= 1 && container.H >= 1 {
		y = int(container.Y + container.H - 1)
	}
	return x, y
}

func (m Model) handleDraftKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.composer.Cancel()
		return m, nil

	case tea.KeyCtrlS:
		return m.submitDraft()

	case tea.KeyCtrlR:
		return m.toggleRecording()

	case tea.KeyCtrlU:
		job, err := m.composer.Audio().RetryUpload()
		if err != nil {
			cmd := m.showError(err)
			return m, cmd
		}
		return m, m.uploadCmd(job)

	case tea.KeyCtrlX:
		m.composer.Audio().Discard()
		return m, nil

	case tea.KeyBackspace:
		_ = m.composer.Backspace()
		return m, nil

	case tea.KeyEnter:
		_ = m.composer.AppendRune('\n')
		return m, nil

	case tea.KeySpace:
		_ = m.composer.AppendRune(' ')
		return m, nil

	case tea.KeyRunes:
		_ = m.composer.AppendRune(msg.Runes...)
		return m, nil

	case tea.KeyUp, tea.KeyDown, tea.KeyLeft, tea.KeyRight:
		m.pan(msg.String())
		return m, nil
	}
	return m, nil
}

func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	pipeline := m.composer.Audio()
	if pipeline.State() == audio.StateRecording {
		job, err := pipeline.Stop()
		if err != nil {
			cmd := m.showError(err)
			return m, cmd
		}
		return m, m.uploadCmd(job)
	}
	if err := m.composer.StartRecording(m.ctx); err != nil {
		cmd := m.showError(err)
		return m, cmd
	}
	return m, recordingTickCmd()
}

func (m Model) submitDraft() (tea.Model, tea.Cmd) {
	d, err := m.composer.BeginSubmit(m.identity)
	if errors.IsCategory(err, errors.CategoryIdentityRequired) {
		m.askIdentity(actionSubmitDraft)
		return m, nil
	}
	if err != nil {
		cmd := m.showError(err)
		return m, cmd
	}
	p, err := m.repo.BeginCreate(d)
	if err != nil {
		m.composer.Settle(err)
		cmd := m.showError(err)
		return m, cmd
	}
	if p.Input.Position != nil {
		m.nav.Select(p.TempID)
	}
	return m, m.createCmd(p)
}

func (m Model) handleReplyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input = inputNone
		m.replyText = nil
		return m, nil
	case tea.KeyEnter:
		return m.submitReply()
	case tea.KeyBackspace:
		if n := len(m.replyText); n > 0 {
			m.replyText = m.replyText[:n-1]
		}
	case tea.KeySpace:
		m.replyText = append(slices.Clone(m.replyText), ' ')
	case tea.KeyRunes:
		m.replyText = append(slices.Clone(m.replyText), msg.Runes...)
	}
	return m, nil
}

func (m Model) submitReply() (tea.Model, tea.Cmd) {
	p, err := m.threads.BeginReply(m.replyTo, string(m.replyText), m.identity)
	if errors.IsCategory(err, errors.CategoryIdentityRequired) {
		m.askIdentity(actionSubmitReply)
		return m, nil
	}
	if err != nil {
		cmd := m.showError(err)
		return m, cmd
	}
	m.input = inputNone
	m.replyText = nil
	return m, m.replyCmd(p)
}

func (m *Model) askIdentity(next pendingAction) {
	m.input = inputIdentity
	m.identityText = nil
	m.afterIdent = next
	m.notice = "Enter your name to post comments"
}

func (m Model) handleIdentityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.leaveIdentityPrompt()
		return m, nil
	case tea.KeyEnter:
		name := strings.TrimSpace(string(m.identityText))
		if name == "" {
			return m, nil
		}
		m.identity = &feedback.Author{DisplayName: name}
		next := m.afterIdent
		m.leaveIdentityPrompt()
		m.notice = ""
		switch next {
		case actionSubmitDraft:
			return m.submitDraft()
		case actionSubmitReply:
			return m.submitReply()
		}
		return m, nil
	case tea.KeyBackspace:
		if n := len(m.identityText); n > 0 {
			m.identityText = m.identityText[:n-1]
		}
	case tea.KeySpace:
		m.identityText = append(slices.Clone(m.identityText), ' ')
	case tea.KeyRunes:
		m.identityText = append(slices.Clone(m.identityText), msg.Runes...)
	}
	return m, nil
}

// leaveIdentityPrompt returns to whatever input the prompt interrupted.
func (m *Model) leaveIdentityPrompt() {
	m.identityText = nil
	if m.afterIdent == actionSubmitReply {
		m.input = inputReply
	} else {
		m.input = inputNone
	}
	m.afterIdent = actionNone
}

// Layout

func (m Model) listPanelWidth() int {
	if m.width == 0 {
		return 36
	}
	return max(28, m.width*35/100)
}

func (m Model) contentHeight() int {
	if m.height == 0 {
		return 20
	}
	return max(5, m.height-headerRows-footerRows)
}

func (m Model) artworkOrigin() geometry.Point {
	return geometry.Point{X: 0, Y: headerRows}
}

func (m Model) artworkWindow() viewport.Size {
	w := max(10, m.width-m.listPanelWidth()-1)
	return viewport.Size{W: float64(w), H: float64(m.contentHeight())}
}
