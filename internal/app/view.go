package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/audio"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/compose"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/feedback"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/geometry"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/ui"
	"github.com/charmbracelet/lipgloss"
)

const emptyStateText = "No feedback to show"

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderMainContent())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderMessageBar())
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("VIU")
	info := ui.DimStyle.Render(fmt.Sprintf(" - %s (v%d)", m.title, m.repo.Artwork().Version))

	var badges []string
	if m.commentMode {
		badges = append(badges, ui.CommentModeBadgeStyle.Render("[COMMENT MODE]"))
	}
	if m.readOnly {
		badges = append(badges, ui.ReadOnlyBadgeStyle.Render("[READ-ONLY]"))
	}
	if m.openOnly {
		badges = append(badges, ui.FilterBadgeStyle.Render("[OPEN ONLY]"))
	}
	if len(badges) == 0 {
		return title + info
	}
	return title + info + "  " + strings.Join(badges, " ")
}

func (m Model) renderStatusBar() string {
	n := m.view.Natural()
	parts := []string{
		ui.StatusStyle.Render(fmt.Sprintf("Zoom %d%%", m.view.Zoom())),
		ui.DimStyle.Render(fmt.Sprintf("%.0fx%.0f", n.W, n.H)),
	}

	if m.loading {
		parts = append(parts, ui.DimStyle.Render("Loading feedback..."))
	} else {
		var open, resolved int
		for _, it := range m.repo.List() {
			if it.Status == feedback.StatusOpen {
				open++
			} else {
				resolved++
			}
		}
		parts = append(parts, ui.StatusStyle.Render(fmt.Sprintf("%d open · %d resolved", open, resolved)))
	}

	if s := m.renderAudioState(); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderAudioState() string {
	p := m.composer.Audio()
	switch p.State() {
	case audio.StateRecording:
		return ui.RecordingDotStyle.Render("● REC " + formatElapsed(p.Elapsed()))
	case audio.StateUploading:
		return ui.DimStyle.Render("Uploading audio...")
	case audio.StateReady:
		return ui.StatusStyle.Render("Audio ready " + formatElapsed(p.Elapsed()))
	case audio.StateError:
		if p.PermissionErr() != nil {
			return ui.ErrorTextStyle.Render("Microphone unavailable")
		}
		if p.CanRetry() {
			return ui.ErrorTextStyle.Render(fmt.Sprintf("Upload failed (attempt %d), ctrl+u to retry", p.Attempts()))
		}
		return ui.ErrorTextStyle.Render("Recording failed")
	}
	if p.Exhausted() {
		return ui.ErrorTextStyle.Render("Upload failed, record again")
	}
	return ""
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func (m Model) renderMainContent() string {
	listW := m.listPanelWidth()
	window := m.view.Window()
	artW := int(window.W)
	contentH := m.contentHeight()

	artLines := m.renderArtwork(artW, contentH)
	listLines := strings.Split(m.renderListPanel(listW, contentH), "\n")
	divider := ui.DividerStyle.Render("│")

	rows := make([]string, 0, contentH)
	for i := range contentH {
		var right string
		if i < len(listLines) {
			right = listLines[i]
		}
		rows = append(rows, artLines[i]+divider+right)
	}
	return strings.Join(rows, "\n")
}

// renderArtwork draws the visible part of the artwork with its pins. Cell
// (x, y) of the returned lines is client position origin+(x, y).
func (m Model) renderArtwork(width, height int) []string {
	origin := m.artworkOrigin()
	container := m.view.Container(origin)

	glyphs := make(map[[2]int]string)
	selectedID := m.nav.CurrentID()
	for _, it := range feedback.Pins(m.repo.Visible(m.openOnly)) {
		x, y := pinCell(it.Position.Point(), container)
		glyphs[[2]int{x, y - int(origin.Y)}] = pinGlyph(it, it.ID == selectedID)
	}
	if pos := m.composer.Position(); pos != nil && m.composer.State() != compose.StateClosed {
		x, y := pinCell(pos.Point(), container)
		glyphs[[2]int{x, y - int(origin.Y)}] = ui.DraftPinStyle.Render(ui.GlyphDraft)
	}

	lines := make([]string, height)
	for y := range height {
		var b strings.Builder
		var run strings.Builder
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(ui.CanvasStyle.Render(run.String()))
				run.Reset()
			}
		}
		for x := range width {
			if g, ok := glyphs[[2]int{x, y}]; ok {
				flush()
				b.WriteString(g)
				continue
			}
			cell := geometry.Point{X: float64(x) + origin.X, Y: float64(y) + origin.Y}
			if insideArtwork(cell, container) {
				run.WriteString(ui.GlyphCanvas)
			} else {
				run.WriteByte(' ')
			}
		}
		flush()
		lines[y] = b.String()
	}
	return lines
}

func insideArtwork(cell geometry.Point, r geometry.Rect) bool {
	return cell.X >= r.X && cell.X < r.X+r.W && cell.Y >= r.Y && cell.Y < r.Y+r.H
}

func pinGlyph(it feedback.Item, selected bool) string {
	switch {
	case selected:
		g := ui.GlyphOpen
		if it.Status == feedback.StatusResolved {
			g = ui.GlyphResolved
		}
		return ui.PinSelectedStyle.Render(g)
	case it.Pending:
		return ui.PinPendingStyle.Render(ui.GlyphPending)
	case it.Status == feedback.StatusResolved:
		return ui.PinResolvedStyle.Render(ui.GlyphResolved)
	default:
		return ui.PinOpenStyle.Render(ui.GlyphOpen)
	}
}

func (m Model) renderListPanel(width, height int) string {
	items := m.listItems()
	lines := []string{ui.PanelTitleStyle.Render(fmt.Sprintf("FEEDBACK (%d)", len(items)))}

	bottom := m.renderInputPanel(width)
	listH := height - 1 - len(bottom)

	var body []string
	switch {
	case m.loading:
		body = append(body, ui.DimStyle.Render("  Loading..."))
	case len(items) == 0:
		body = append(body, "", ui.DimStyle.Render("  "+emptyStateText))
		if m.openOnly {
			body = append(body, ui.DimStyle.Render("  Press f to show resolved"))
		}
	default:
		selectedID := m.nav.CurrentID()
		for _, it := range items {
			body = append(body, m.renderItem(it, it.ID == selectedID, width)...)
		}
	}
	if len(body) > listH {
		body = scrollToSelection(body, listH)
	}
	lines = append(lines, body...)

	for len(lines) < height-len(bottom) {
		lines = append(lines, "")
	}
	lines = append(lines[:max(0, height-len(bottom))], bottom...)
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = padRight(truncateToWidth(l, width), width)
	}
	return strings.Join(lines, "\n")
}

// scrollToSelection keeps the selected line, marked with ">", in view.
func scrollToSelection(lines []string, height int) []string {
	if height <= 0 {
		return nil
	}
	sel := 0
	for i, l := range lines {
		if strings.Contains(l, "> ") {
			sel = i
			break
		}
	}
	start := max(0, min(sel-height/2, len(lines)-height))
	return lines[start : start+height]
}

func (m Model) renderItem(it feedback.Item, selected bool, width int) []string {
	glyph := pinGlyph(it, false)
	if !it.IsPin() {
		glyph = ui.DimStyle.Render("◇")
	}
	marker := "  "
	if selected {
		marker = ui.SelectedStyle.Render("> ")
	}
	author := ui.AuthorStyle.Render(it.Author.Label())

	var lines []string
	first := marker + glyph + " " + author
	if it.Pending {
		first += ui.DimStyle.Render(" (sending)")
	}
	lines = append(lines, first)
	for _, wl := range wrapText(itemText(it), max(10, width-6)) {
		lines = append(lines, "    "+wl)
	}

	v := m.threads.Thread(it.ID)
	if !v.Expanded {
		return lines
	}
	switch {
	case v.Loading && len(v.Items) == 0:
		lines = append(lines, ui.DimStyle.Render("      loading replies..."))
	case v.Err != nil:
		lines = append(lines, ui.ErrorTextStyle.Render("      could not load replies"))
	case len(v.Items) == 0:
		lines = append(lines, ui.DimStyle.Render("      no replies"))
	}
	for _, r := range v.Items {
		head := "      " + ui.AuthorStyle.Render(r.Author.Label())
		if r.Pending {
			head += ui.DimStyle.Render(" (sending)")
		}
		lines = append(lines, head)
		for _, wl := range wrapText(r.Content, max(10, width-10)) {
			lines = append(lines, "        "+wl)
		}
	}
	return lines
}

func itemText(it feedback.Item) string {
	if it.Kind != feedback.KindAudio {
		return it.Content
	}
	if it.Content != "" {
		return "♪ " + it.Content
	}
	return "♪ voice comment"
}

// renderInputPanel returns the composer, reply or identity box, if any.
func (m Model) renderInputPanel(width int) []string {
	rule := ui.DividerStyle.Render(strings.Repeat("─", width))
	switch m.input {
	case inputIdentity:
		return []string{
			rule,
			ui.PanelTitleStyle.Render("YOUR NAME"),
			ui.InputStyle.Render("> " + string(m.identityText) + "▌"),
		}
	case inputReply:
		return []string{
			rule,
			ui.PanelTitleStyle.Render("REPLY"),
			ui.InputStyle.Render("> " + string(m.replyText) + "▌"),
		}
	}
	if !m.composer.Open() {
		return nil
	}

	heading := "NEW COMMENT (general)"
	if pos := m.composer.Position(); pos != nil {
		heading = fmt.Sprintf("NEW COMMENT at %.0f%%, %.0f%%", pos.X*100, pos.Y*100)
	}
	lines := []string{rule, ui.PanelTitleStyle.Render(heading)}
	text := m.composer.Text()
	if m.composer.State() == compose.StatePlacing && text == "" {
		lines = append(lines, ui.DimStyle.Render("> type a comment or ctrl+r to record"))
	} else {
		wrapped := wrapText(text+"▌", max(10, width-2))
		for i, wl := range wrapped {
			prefix := "  "
			if i == 0 {
				prefix = "> "
			}
			lines = append(lines, ui.InputStyle.Render(prefix+wl))
		}
	}
	if s := m.renderAudioState(); s != "" {
		lines = append(lines, "  "+s)
	}
	if m.composer.State() == compose.StateSubmitting {
		lines = append(lines, ui.DimStyle.Render("  sending..."))
	}
	return lines
}

func (m Model) renderMessageBar() string {
	switch {
	case m.errorMessage != "":
		return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
	case m.notice != "":
		return ui.NoticeStyle.Render(m.notice)
	}
	return ""
}

func (m Model) renderFooter() string {
	key := func(k, desc string) string {
		return ui.FooterKeyStyle.Render(k) + ui.FooterDescStyle.Render(" "+desc)
	}

	var parts []string
	switch {
	case m.input != inputNone:
		parts = append(parts, key("Enter", "Send"), key("Esc", "Cancel"))
	case m.composer.Open():
		parts = append(parts, key("ctrl+s", "Submit"))
		if m.composer.Audio().State() == audio.StateRecording {
			parts = append(parts, key("ctrl+r", "Stop"))
		} else {
			parts = append(parts, key("ctrl+r", "Record"))
		}
		if m.composer.Audio().CanRetry() {
			parts = append(parts, key("ctrl+u", "Retry upload"))
		}
		parts = append(parts, key("ctrl+x", "Drop audio"), key("Esc", "Cancel"))
	default:
		if !m.readOnly {
			parts = append(parts, key("c", "Comment mode"), key("g", "General"))
		}
		parts = append(parts, key("+/-", "Zoom"))
		if m.view.CanReset() {
			parts = append(parts, key("0", "Reset"))
		}
		parts = append(parts, key("n/p", "Pins"), key("j/k", "List"), key("f", "Filter"))
		if !m.readOnly {
			parts = append(parts, key("r", "Resolve"), key("y", "Reply"))
		}
		parts = append(parts, key("Enter", "Thread"), key("q", "Quit"))
	}
	return strings.Join(parts, "  ")
}

// Helpers

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
