package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/audio"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/compose"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/feedback"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/viewport"

	tea "github.com/charmbracelet/bubbletea"
)

var testArtwork = feedback.ArtworkRef{ArtworkID: "poster", Version: 2}

type fakeBackend struct {
	mu         sync.Mutex
	items      []feedback.Item
	replies    map[string][]feedback.Item
	submitErr  error
	statusErr  error
	listErr    error
	submitted  []feedback.Input
	statuses   []feedback.Status
	transcript map[string]string
	nextID     int
}

func (b *fakeBackend) SubmitFeedback(_ context.Context, in feedback.Input) (feedback.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitted = append(b.submitted, in)
	if b.submitErr != nil {
		return feedback.Item{}, b.submitErr
	}
	b.nextID++
	it := feedback.Item{
		ID:        fmt.Sprintf("fb-%d", b.nextID),
		Kind:      in.Kind,
		Content:   in.Content,
		AudioRef:  in.AudioRef,
		AudioURL:  in.AudioURL,
		Position:  in.Position,
		Status:    feedback.StatusOpen,
		Author:    in.Author,
		CreatedAt: time.Now(),
		Artwork:   in.Artwork,
		ParentID:  in.ParentID,
	}
	if in.ParentID != "" {
		if b.replies == nil {
			b.replies = make(map[string][]feedback.Item)
		}
		b.replies[in.ParentID] = append(b.replies[in.ParentID], it)
	} else {
		b.items = append(b.items, it)
	}
	return it, nil
}

func (b *fakeBackend) SetStatus(_ context.Context, _ string, status feedback.Status) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses = append(b.statuses, status)
	return b.statusErr
}

func (b *fakeBackend) ListFeedback(context.Context, feedback.ArtworkRef) ([]feedback.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]feedback.Item(nil), b.items...), b.listErr
}

func (b *fakeBackend) ListReplies(_ context.Context, parentID string) ([]feedback.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]feedback.Item(nil), b.replies[parentID]...), nil
}

func (b *fakeBackend) AttachTranscript(_ context.Context, ref, text string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.transcript == nil {
		b.transcript = make(map[string]string)
	}
	b.transcript[ref] = text
	return true, nil
}

type fakeCapture struct{}

func (fakeCapture) Stop() (audio.Clip, error) {
	return audio.Clip{Data: []byte("RIFF"), MIMEType: audio.WAVMIMEType, Duration: 3 * time.Second}, nil
}

func (fakeCapture) Abort() {}

type fakeMic struct{ err error }

func (m fakeMic) Open(context.Context) (audio.Capture, error) {
	if m.err != nil {
		return nil, m.err
	}
	return fakeCapture{}, nil
}

type fakeUploader struct{}

func (fakeUploader) UploadAudio(context.Context, audio.Clip) (audio.Asset, error) {
	return audio.Asset{Ref: "clips/1.wav", PlayableURL: "https://cdn.example/clips/1.wav"}, nil
}

type fakeTranscriber struct{ text string }

func (f fakeTranscriber) Transcribe(context.Context, string, string) (string, error) {
	return f.text, nil
}

var ana = &feedback.Author{DisplayName: "Ana"}

func openItem(id string, x, y float64) feedback.Item {
	pos := feedback.NewPosition(x, y)
	return feedback.Item{
		ID: id, Kind: feedback.KindText, Content: "comment " + id, Position: &pos,
		Status: feedback.StatusOpen, Author: *ana, Artwork: testArtwork,
	}
}

func newTestModel(t *testing.T, backend *fakeBackend, mutate func(*Options)) Model {
	t.Helper()
	opts := Options{
		Artwork:  testArtwork,
		Title:    "Poster",
		Natural:  viewport.Size{W: 50, H: 40},
		Backend:  backend,
		Uploader: fakeUploader{},
		Arbiter:  audio.NewArbiter(),
		Identity: ana,
	}
	if mutate != nil {
		mutate(&opts)
	}
	m, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(m.Dispose)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 50})
	return run(t, m, m.Init())
}

// newUnloadedModel is newTestModel without running the initial load.
func newUnloadedModel(t *testing.T, backend *fakeBackend) Model {
	t.Helper()
	m, err := New(Options{
		Artwork:  testArtwork,
		Title:    "Poster",
		Natural:  viewport.Size{W: 50, H: 40},
		Backend:  backend,
		Uploader: fakeUploader{},
		Arbiter:  audio.NewArbiter(),
		Identity: ana,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(m.Dispose)
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 50})
}

// step applies msg and hands back its command unexecuted.
func step(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// deliver feeds messages produced earlier into the model.
func deliver(t *testing.T, m Model, msgs []tea.Msg) Model {
	t.Helper()
	if len(msgs) == 0 {
		t.Fatal("no messages to deliver")
	}
	for _, msg := range msgs {
		m = update(t, m, msg)
	}
	return m
}

func countID(items []feedback.Item, id string) int {
	n := 0
	for _, it := range items {
		if it.ID == id {
			n++
		}
	}
	return n
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	return run(t, updated.(Model), cmd)
}

// run executes cmd and feeds its messages back into the model. Ticks never
// fire within the timeout and are dropped.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		updated, next := m.Update(msg)
		m = run(t, updated.(Model), next)
	}
	return m
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		switch msg := msg.(type) {
		case nil, tea.QuitMsg:
			return nil
		case tea.BatchMsg:
			var out []tea.Msg
			for _, c := range msg {
				out = append(out, collect(c)...)
			}
			return out
		default:
			return []tea.Msg{msg}
		}
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func click(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func TestNewRequiresBackend(t *testing.T) {
	_, err := New(Options{Artwork: testArtwork})
	if !errors.IsCategory(err, errors.CategoryConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestViewBeforeWindowSize(t *testing.T) {
	m, err := New(Options{Artwork: testArtwork, Backend: &fakeBackend{}, Arbiter: audio.NewArbiter()})
	if err != nil {
		t.Fatal(err)
	}
	defer m.Dispose()
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() = %q", got)
	}
}

func TestInitLoadsFeedback(t *testing.T) {
	b := &fakeBackend{items: []feedback.Item{openItem("a", 0.1, 0.1), openItem("b", 0.9, 0.9)}}
	m := newTestModel(t, b, nil)

	if m.loading {
		t.Error("loading should be false after load")
	}
	if got := len(m.repo.List()); got != 2 {
		t.Errorf("items = %d, want 2", got)
	}
	if !strings.Contains(m.View(), "2 open · 0 resolved") {
		t.Error("status bar should count open items")
	}
}

func TestLoadErrorIsShown(t *testing.T) {
	b := &fakeBackend{listErr: fmt.Errorf("offline")}
	m := newTestModel(t, b, nil)

	if !strings.Contains(m.errorMessage, "offline") {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
}

func TestClickWithoutCommentModeOpensNoDraft(t *testing.T) {
	b := &fakeBackend{items: []feedback.Item{openItem("a", 0.5, 0.25)}}
	m := newTestModel(t, b, nil)

	m = update(t, m, click(3, headerRows+3))
	if m.composer.Open() {
		t.Fatal("click outside comment mode must not open a draft")
	}

	// Clicking the pin's own cell selects it.
	m = update(t, m, click(25, headerRows+10))
	if got := m.nav.CurrentID(); got != "a" {
		t.Errorf("selected = %q, want a", got)
	}
	if m.composer.Open() {
		t.Error("selecting a pin must not open a draft")
	}
}

func TestPlaceSubmitAndZoomKeepsPosition(t *testing.T) {
	b := &fakeBackend{}
	m := newTestModel(t, b, nil)

	m = update(t, m, keyRunes(KeyCommentMode))
	if !m.commentMode {
		t.Fatal("comment mode should be on")
	}
	m = update(t, m, click(25, headerRows+10))
	if m.composer.State() != compose.StatePlacing {
		t.Fatalf("composer state = %v, want placing", m.composer.State())
	}
	pos := m.composer.Position()
	if pos == nil || pos.X != 0.5 || pos.Y != 0.25 {
		t.Fatalf("draft position = %+v, want (0.5, 0.25)", pos)
	}

	m = update(t, m, keyRunes("fix spacing"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	items := m.repo.List()
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	got := items[0]
	if got.Pending || got.ID != "fb-1" {
		t.Errorf("item = %+v, want committed fb-1", got)
	}
	if got.Status != feedback.StatusOpen || got.Kind != feedback.KindText || got.Content != "fix spacing" {
		t.Errorf("item = %+v", got)
	}
	if *got.Position != (feedback.Position{X: 0.5, Y: 0.25}) {
		t.Errorf("position = %+v", *got.Position)
	}
	if m.composer.Open() {
		t.Error("composer should close after a committed submit")
	}
	if m.nav.CurrentID() != "fb-1" {
		t.Errorf("selected = %q, want fb-1", m.nav.CurrentID())
	}

	before, _ := pinCell(got.Position.Point(), m.view.Container(m.artworkOrigin()))
	m = update(t, m, keyRunes(KeyZoomIn))
	m = update(t, m, keyRunes(KeyZoomIn))
	if m.view.Zoom() != 150 {
		t.Fatalf("zoom = %d, want 150", m.view.Zoom())
	}
	after, _ := m.repo.Get("fb-1")
	if *after.Position != (feedback.Position{X: 0.5, Y: 0.25}) {
		t.Errorf("zoom changed stored position to %+v", *after.Position)
	}
	x, y := pinCell(after.Position.Point(), m.view.Container(m.artworkOrigin()))
	if x == before || x != 37 || y != headerRows+15 {
		t.Errorf("pin cell at 150%% = (%d, %d), want (37, %d)", x, y, headerRows+15)
	}
}

func TestSubmitFailureRollsBackAndKeepsText(t *testing.T) {
	b := &fakeBackend{submitErr: fmt.Errorf("server said no")}
	m := newTestModel(t, b, nil)

	m = update(t, m, keyRunes(KeyCommentMode))
	m = update(t, m, click(10, headerRows+5))
	m = update(t, m, keyRunes("too dark"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	if got := len(m.repo.List()); got != 0 {
		t.Errorf("items after rollback = %d, want 0", got)
	}
	if m.composer.State() != compose.StateEditing {
		t.Errorf("composer state = %v, want editing", m.composer.State())
	}
	if m.composer.Text() != "too dark" {
		t.Errorf("draft text = %q, want kept", m.composer.Text())
	}
	if !strings.Contains(m.errorMessage, "server said no") {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}

	b.mu.Lock()
	b.submitErr = nil
	b.mu.Unlock()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if got := len(m.repo.List()); got != 1 {
		t.Errorf("items after retry = %d, want 1", got)
	}
}

func TestIdentityPromptResumesSubmit(t *testing.T) {
	b := &fakeBackend{}
	m := newTestModel(t, b, func(o *Options) { o.Identity = nil })

	m = update(t, m, keyRunes(KeyGeneral))
	m = update(t, m, keyRunes("overall nice"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	if m.input != inputIdentity {
		t.Fatalf("input = %v, want identity prompt", m.input)
	}
	if len(m.repo.List()) != 0 {
		t.Fatal("nothing may be created before identity is known")
	}

	m = update(t, m, keyRunes("Bia"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	items := m.repo.List()
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].Author.DisplayName != "Bia" || items[0].IsPin() {
		t.Errorf("item = %+v, want general comment by Bia", items[0])
	}
	if m.input != inputNone {
		t.Errorf("input = %v, want none", m.input)
	}
}

func TestFilterResolveEmptyState(t *testing.T) {
	resolved := openItem("b", 0.7, 0.7)
	resolved.Status = feedback.StatusResolved
	b := &fakeBackend{items: []feedback.Item{openItem("a", 0.2, 0.2), resolved}}
	m := newTestModel(t, b, nil)

	m = update(t, m, keyRunes(KeyFilter))
	if got := len(m.listItems()); got != 1 {
		t.Fatalf("visible = %d, want 1", got)
	}
	m = update(t, m, keyRunes(KeyJ))
	if m.nav.CurrentID() != "a" {
		t.Fatalf("selected = %q, want a", m.nav.CurrentID())
	}
	m = update(t, m, keyRunes(KeyResolve))

	it, _ := m.repo.Get("a")
	if it.Status != feedback.StatusResolved {
		t.Errorf("status = %s, want RESOLVED", it.Status)
	}
	if got := len(m.repo.List()); got != 2 {
		t.Errorf("resolved items must stay in the list, got %d", got)
	}
	if !strings.Contains(m.View(), emptyStateText) {
		t.Error("view should show the empty state when nothing is visible")
	}
	if m.nav.CurrentID() != "" {
		t.Error("hidden item should not stay selected")
	}

	m = update(t, m, keyRunes(KeyFilter))
	if strings.Contains(m.View(), emptyStateText) {
		t.Error("empty state should go away when the filter is off")
	}
}

func TestResolveFailureReverts(t *testing.T) {
	b := &fakeBackend{items: []feedback.Item{openItem("a", 0.2, 0.2)}, statusErr: fmt.Errorf("conflict")}
	m := newTestModel(t, b, nil)

	m = update(t, m, keyRunes(KeyJ))
	m = update(t, m, keyRunes(KeyResolve))

	it, _ := m.repo.Get("a")
	if it.Status != feedback.StatusOpen {
		t.Errorf("status = %s, want reverted to OPEN", it.Status)
	}
	if m.errorMessage == "" {
		t.Error("failed resolve should show an error")
	}
}

func TestResetHintOnlyWhenZoomed(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, nil)

	if strings.Contains(m.View(), "Reset") {
		t.Error("reset hint should be hidden at 100%")
	}
	m = update(t, m, keyRunes(KeyZoomOut))
	if !strings.Contains(m.View(), "Reset") {
		t.Error("reset hint should show when zoomed")
	}
	m = update(t, m, keyRunes(KeyZoomReset))
	if m.view.Zoom() != viewport.DefaultZoom || strings.Contains(m.View(), "Reset") {
		t.Errorf("zoom = %d after reset", m.view.Zoom())
	}
}

func TestReadOnlyBlocksMutations(t *testing.T) {
	b := &fakeBackend{items: []feedback.Item{openItem("a", 0.2, 0.2)}}
	m := newTestModel(t, b, func(o *Options) { o.ReadOnly = true })

	m = update(t, m, keyRunes(KeyCommentMode))
	if m.commentMode {
		t.Error("read-only session must not enter comment mode")
	}
	m = update(t, m, keyRunes(KeyGeneral))
	if m.composer.Open() {
		t.Error("read-only session must not open a draft")
	}
	m = update(t, m, keyRunes(KeyJ))
	m = update(t, m, keyRunes(KeyResolve))
	if it, _ := m.repo.Get("a"); it.Status != feedback.StatusOpen {
		t.Error("read-only session must not resolve")
	}
	m = update(t, m, keyRunes(KeyReply))
	if m.input != inputNone {
		t.Error("read-only session must not reply")
	}
	if !strings.Contains(m.View(), "[READ-ONLY]") {
		t.Error("header should show the read-only badge")
	}
}

func TestMicrophoneDeniedKeepsSubmitDisabled(t *testing.T) {
	denied := errors.New(fmt.Errorf("access denied")).Category(errors.CategoryPermissionDenied).Build()
	m := newTestModel(t, &fakeBackend{}, func(o *Options) { o.Microphone = fakeMic{err: denied} })

	m = update(t, m, keyRunes(KeyGeneral))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})

	if !strings.HasPrefix(m.errorMessage, "Microphone unavailable") {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
	if m.composer.CanSubmit() {
		t.Error("submit must stay disabled without text or audio")
	}
	if !m.composer.Open() {
		t.Error("draft should stay open after a denied microphone")
	}
}

func TestVoiceCommentUploadAndTranscript(t *testing.T) {
	b := &fakeBackend{}
	m := newTestModel(t, b, func(o *Options) {
		o.Microphone = fakeMic{}
		o.Transcriber = fakeTranscriber{text: "move the logo left"}
	})

	m = update(t, m, keyRunes(KeyCommentMode))
	m = update(t, m, click(40, headerRows+20))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.composer.Audio().State() != audio.StateRecording {
		t.Fatalf("audio state = %v, want recording", m.composer.Audio().State())
	}
	if m.composer.CanSubmit() {
		t.Error("submit must be disabled while recording")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.composer.Audio().State() != audio.StateReady {
		t.Fatalf("audio state = %v, want ready", m.composer.Audio().State())
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	items := m.repo.List()
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	got := items[0]
	if got.Kind != feedback.KindAudio || got.AudioRef != "clips/1.wav" {
		t.Errorf("item = %+v, want audio comment", got)
	}
	if got.Content != "move the logo left" {
		t.Errorf("content = %q, want transcript", got.Content)
	}
	if b.transcript["clips/1.wav"] != "move the logo left" {
		t.Error("transcript should be stored by the backend")
	}
}

func TestThreadExpandAndReply(t *testing.T) {
	b := &fakeBackend{items: []feedback.Item{openItem("a", 0.2, 0.2)}}
	m := newTestModel(t, b, nil)

	m = update(t, m, keyRunes(KeyJ))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if v := m.threads.Thread("a"); !v.Expanded || v.Loading {
		t.Fatalf("thread = %+v, want expanded and loaded", v)
	}

	m = update(t, m, keyRunes(KeyReply))
	if m.input != inputReply {
		t.Fatalf("input = %v, want reply", m.input)
	}
	m = update(t, m, keyRunes("agreed"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	v := m.threads.Thread("a")
	if len(v.Items) != 1 || v.Items[0].Pending || v.Items[0].Content != "agreed" {
		t.Fatalf("thread items = %+v", v.Items)
	}
	if len(m.repo.List()) != 1 {
		t.Error("replies must not appear as top-level items")
	}
	if !strings.Contains(m.View(), "agreed") {
		t.Error("expanded thread should render its replies")
	}
}

func TestReplyFailureRestoresText(t *testing.T) {
	b := &fakeBackend{items: []feedback.Item{openItem("a", 0.2, 0.2)}}
	m := newTestModel(t, b, nil)

	m = update(t, m, keyRunes(KeyJ))
	m = update(t, m, keyRunes(KeyReply))
	b.mu.Lock()
	b.submitErr = fmt.Errorf("timeout")
	b.mu.Unlock()
	m = update(t, m, keyRunes("agreed"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(m.threads.Thread("a").Items) != 0 {
		t.Error("failed reply should be rolled back")
	}
	if m.input != inputReply || string(m.replyText) != "agreed" {
		t.Errorf("input = %v text = %q, want reply text restored", m.input, string(m.replyText))
	}
}

func TestTransientErrorClearsOnlyLatest(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, nil)

	m.showError(fmt.Errorf("first"))
	m.showError(fmt.Errorf("second"))

	m = update(t, m, ClearTransientErrorMsg{Seq: m.errorSeq - 1})
	if m.errorMessage != "second" {
		t.Errorf("errorMessage = %q, stale tick must not clear", m.errorMessage)
	}
	m = update(t, m, ClearTransientErrorMsg{Seq: m.errorSeq})
	if m.errorMessage != "" {
		t.Errorf("errorMessage = %q, want cleared", m.errorMessage)
	}
}

func TestQuitDisposesOnce(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, func(o *Options) { o.Microphone = fakeMic{} })

	m = update(t, m, keyRunes(KeyGeneral))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.composer.Audio().State() != audio.StateRecording {
		t.Fatalf("audio state = %v, want recording", m.composer.Audio().State())
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("quit should return tea.Quit")
	}
	if m.composer.Audio().State() != audio.StateIdle {
		t.Errorf("audio state = %v, want idle after dispose", m.composer.Audio().State())
	}
	if m.ctx.Err() == nil {
		t.Error("session context should be cancelled")
	}

	m.Dispose()
	if _, err := m.repo.BeginCreate(feedback.Draft{Kind: feedback.KindText, Content: "x", Author: *ana}); err == nil {
		t.Error("disposed repository should refuse new work")
	}
}

func TestQuitKeyIsTextWhileDrafting(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, nil)

	m = update(t, m, keyRunes(KeyGeneral))
	updated, cmd := m.Update(keyRunes(KeyQuit))
	m = updated.(Model)
	if cmd != nil {
		t.Error("q inside a draft must not quit")
	}
	if m.composer.Text() != "q" {
		t.Errorf("draft text = %q, want q", m.composer.Text())
	}
}

func TestCreateSettledBeforeStaleLoadIsKept(t *testing.T) {
	b := &fakeBackend{}
	m := newUnloadedModel(t, b)
	stale := collect(m.Init())

	m = update(t, m, keyRunes(KeyCommentMode))
	m = update(t, m, click(25, headerRows+10))
	m = update(t, m, keyRunes("early note"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = deliver(t, m, stale)

	items := m.repo.List()
	if len(items) != 1 || items[0].ID != "fb-1" || items[0].Pending {
		t.Fatalf("items = %+v, want committed fb-1", items)
	}
	if m.loading {
		t.Error("loading should be false after the load settles")
	}
	if !strings.Contains(m.View(), "1 open · 0 resolved") {
		t.Error("status bar should count the committed item")
	}
}

func TestLoadBetweenPersistAndSettleDoesNotDuplicate(t *testing.T) {
	b := &fakeBackend{}
	m := newUnloadedModel(t, b)

	m = update(t, m, keyRunes(KeyCommentMode))
	m = update(t, m, click(25, headerRows+10))
	m = update(t, m, keyRunes("racing note"))
	m, submit := step(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	settled := collect(submit)
	loaded := collect(m.Init())

	m = deliver(t, m, loaded)
	m = deliver(t, m, settled)

	items := m.repo.List()
	if n := countID(items, "fb-1"); n != 1 || len(items) != 1 {
		t.Fatalf("items = %+v, want fb-1 exactly once", items)
	}
	if items[0].Pending {
		t.Error("item should be committed")
	}
}

func TestReplySettledBeforeStaleFetchIsKept(t *testing.T) {
	b := &fakeBackend{items: []feedback.Item{openItem("a", 0.2, 0.2)}}
	m := newTestModel(t, b, nil)

	m = update(t, m, keyRunes(KeyJ))
	m, fetch := step(m, keyRunes(KeyReply))
	stale := collect(fetch)

	m = update(t, m, keyRunes("agreed"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = deliver(t, m, stale)

	v := m.threads.Thread("a")
	if v.Loading {
		t.Error("thread should have settled")
	}
	if len(v.Items) != 1 || v.Items[0].ID != "fb-1" || v.Items[0].Pending {
		t.Fatalf("thread items = %+v, want committed fb-1", v.Items)
	}
}

func TestFetchBetweenPersistAndSettleDoesNotDuplicate(t *testing.T) {
	b := &fakeBackend{items: []feedback.Item{openItem("a", 0.2, 0.2)}}
	m := newTestModel(t, b, nil)

	m = update(t, m, keyRunes(KeyJ))
	m, fetch := step(m, keyRunes(KeyReply))
	m = update(t, m, keyRunes("agreed"))
	m, reply := step(m, tea.KeyMsg{Type: tea.KeyEnter})

	settled := collect(reply)
	fetched := collect(fetch)
	m = deliver(t, m, fetched)
	m = deliver(t, m, settled)

	v := m.threads.Thread("a")
	if n := countID(v.Items, "fb-1"); n != 1 || len(v.Items) != 1 {
		t.Fatalf("thread items = %+v, want fb-1 exactly once", v.Items)
	}
}
